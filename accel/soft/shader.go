package soft

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"deedles.dev/wlgl/render"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

type shader struct {
	stage    render.Enum
	source   string
	compiled bool
	log      string
	module   *ir.Module
	entry    *ir.EntryPoint
}

func stageOf(ty render.Enum) (ir.ShaderStage, string) {
	if ty == render.VERTEX_SHADER {
		return ir.StageVertex, "@vertex"
	}
	return ir.StageFragment, "@fragment"
}

// compile compiles the shader's WGSL source. Failures are recorded in
// the shader's log.
func (s *shader) compile() {
	s.compiled, s.log, s.module, s.entry = false, "", nil, nil

	ast, err := naga.Parse(s.source)
	if err != nil {
		s.log = err.Error()
		return
	}

	module, err := naga.LowerWithSource(ast, s.source)
	if err != nil {
		s.log = err.Error()
		return
	}

	verrs, err := naga.Validate(module)
	if err != nil {
		s.log = err.Error()
		return
	}
	if len(verrs) > 0 {
		msgs := make([]string, 0, len(verrs))
		for _, verr := range verrs {
			msgs = append(msgs, verr.Error())
		}
		s.log = strings.Join(msgs, "\n")
		return
	}

	stage, attr := stageOf(s.stage)
	for i := range module.EntryPoints {
		if module.EntryPoints[i].Stage == stage {
			s.entry = &module.EntryPoints[i]
			break
		}
	}
	if s.entry == nil {
		s.log = fmt.Sprintf("no %v entry point", attr)
		return
	}

	s.module = module
	s.compiled = true
}

type program struct {
	shaders  []*shader
	linked   bool
	log      string
	position uint32
	color    [4]float64
}

// link checks that the attached shaders form a complete pipeline that
// the rasterizer can run.
func (p *program) link() {
	p.linked, p.log = false, ""

	var vs, fs *shader
	for _, s := range p.shaders {
		if !s.compiled {
			p.log = fmt.Sprintf("attached %v shader is not compiled", stageName(s.stage))
			return
		}
		switch s.stage {
		case render.VERTEX_SHADER:
			vs = s
		case render.FRAGMENT_SHADER:
			fs = s
		}
	}
	if (vs == nil) || (fs == nil) {
		p.log = "program needs a vertex and a fragment shader"
		return
	}

	loc, err := positionInput(vs.entry)
	if err != nil {
		p.log = fmt.Sprintf("vertex shader %v: %v", vs.entry.Name, err)
		return
	}

	color, err := constantOutput(fs.module, &fs.entry.Function)
	if err != nil {
		p.log = fmt.Sprintf("fragment shader %v: %v", fs.entry.Name, err)
		return
	}

	p.position = loc
	p.color = color
	p.linked = true
}

func stageName(ty render.Enum) string {
	if ty == render.VERTEX_SHADER {
		return "vertex"
	}
	return "fragment"
}

// positionInput finds the location of the vertex input that the
// rasterizer reads clip-space coordinates from.
func positionInput(entry *ir.EntryPoint) (uint32, error) {
	for _, arg := range entry.Function.Arguments {
		if arg.Binding == nil {
			continue
		}
		if b, ok := (*arg.Binding).(ir.LocationBinding); ok {
			return b.Location, nil
		}
	}
	return 0, errors.New("no @location vertex input")
}

// constantOutput evaluates the value returned by a fragment entry
// point. Only outputs that do not depend on inputs are supported.
func constantOutput(m *ir.Module, f *ir.Function) ([4]float64, error) {
	h, ok := findReturn(f.Body)
	if !ok {
		return [4]float64{}, errors.New("no return value")
	}

	v, err := evaluator{m: m, exprs: f.Expressions}.eval(h)
	if err != nil {
		return [4]float64{}, err
	}
	if len(v) != 4 {
		return [4]float64{}, fmt.Errorf("output has %v components, not 4", len(v))
	}
	return [4]float64(v), nil
}

func findReturn(block ir.Block) (ir.ExpressionHandle, bool) {
	for _, stmt := range block {
		switch stmt := stmt.Kind.(type) {
		case ir.StmtReturn:
			if stmt.Value == nil {
				return 0, false
			}
			return *stmt.Value, true
		case ir.StmtBlock:
			if h, ok := findReturn(stmt.Block); ok {
				return h, true
			}
		}
	}
	return 0, false
}

type evaluator struct {
	m     *ir.Module
	exprs []ir.Expression
}

func (e evaluator) eval(h ir.ExpressionHandle) ([]float64, error) {
	if int(h) >= len(e.exprs) {
		return nil, fmt.Errorf("expression %v out of range", h)
	}

	switch expr := e.exprs[h].Kind.(type) {
	case ir.Literal:
		v, err := literal(expr.Value)
		if err != nil {
			return nil, err
		}
		return []float64{v}, nil

	case ir.ExprCompose:
		var v []float64
		for _, c := range expr.Components {
			cv, err := e.eval(c)
			if err != nil {
				return nil, err
			}
			v = append(v, cv...)
		}
		return v, nil

	case ir.ExprSplat:
		sv, err := e.eval(expr.Value)
		if err != nil {
			return nil, err
		}
		if len(sv) != 1 {
			return nil, errors.New("splat of non-scalar")
		}
		v := make([]float64, expr.Size)
		for i := range v {
			v[i] = sv[0]
		}
		return v, nil

	case ir.ExprZeroValue:
		n, err := e.components(expr.Type)
		if err != nil {
			return nil, err
		}
		return make([]float64, n), nil

	case ir.ExprConstant:
		return e.constant(expr.Constant)

	case ir.ExprAs:
		v, err := e.eval(expr.Expr)
		if err != nil {
			return nil, err
		}
		for i := range v {
			v[i] = convert(v[i], expr.Kind)
		}
		return v, nil

	default:
		return nil, fmt.Errorf("%T is not a constant expression", expr)
	}
}

func (e evaluator) constant(h ir.ConstantHandle) ([]float64, error) {
	if int(h) >= len(e.m.Constants) {
		return nil, fmt.Errorf("constant %v out of range", h)
	}
	c := e.m.Constants[h]

	if int(c.Init) < len(e.m.GlobalExpressions) {
		return evaluator{m: e.m, exprs: e.m.GlobalExpressions}.eval(c.Init)
	}

	sv, ok := c.Value.(ir.ScalarValue)
	if !ok {
		return nil, fmt.Errorf("constant %v has no scalar value", c.Name)
	}
	var width uint8 = 4
	if st, ok := e.m.Types[c.Type].Inner.(ir.ScalarType); ok {
		width = st.Width
	}
	return []float64{scalarBits(sv, width)}, nil
}

func (e evaluator) components(t ir.TypeHandle) (int, error) {
	if int(t) >= len(e.m.Types) {
		return 0, fmt.Errorf("type %v out of range", t)
	}

	switch inner := e.m.Types[t].Inner.(type) {
	case ir.ScalarType:
		return 1, nil
	case ir.VectorType:
		return int(inner.Size), nil
	default:
		return 0, fmt.Errorf("unsupported constant type %T", inner)
	}
}

func literal(v ir.LiteralValue) (float64, error) {
	switch v := v.(type) {
	case ir.LiteralF64:
		return float64(v), nil
	case ir.LiteralF32:
		return float64(v), nil
	case ir.LiteralF16:
		return float64(v), nil
	case ir.LiteralU32:
		return float64(v), nil
	case ir.LiteralI32:
		return float64(v), nil
	case ir.LiteralU64:
		return float64(v), nil
	case ir.LiteralI64:
		return float64(v), nil
	case ir.LiteralAbstractInt:
		return float64(v), nil
	case ir.LiteralAbstractFloat:
		return float64(v), nil
	case ir.LiteralBool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported literal %T", v)
	}
}

func convert(v float64, kind ir.ScalarKind) float64 {
	switch kind {
	case ir.ScalarSint, ir.ScalarUint:
		return math.Trunc(v)
	case ir.ScalarBool:
		if v != 0 {
			return 1
		}
		return 0
	default:
		return v
	}
}

func scalarBits(v ir.ScalarValue, width uint8) float64 {
	switch v.Kind {
	case ir.ScalarFloat:
		if width == 8 {
			return math.Float64frombits(v.Bits)
		}
		return float64(math.Float32frombits(uint32(v.Bits)))
	case ir.ScalarSint:
		return float64(int64(v.Bits))
	case ir.ScalarBool:
		if v.Bits != 0 {
			return 1
		}
		return 0
	default:
		return float64(v.Bits)
	}
}
