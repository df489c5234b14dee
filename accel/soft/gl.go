package soft

import (
	"image"
	"image/color"
	"math"

	"deedles.dev/wlgl/accel"
	"deedles.dev/wlgl/internal/bin"
	"deedles.dev/wlgl/render"
)

const maxVertexAttribs = 16

type buffer struct {
	data []byte
}

type attribPointer struct {
	enabled bool
	buffer  *buffer
	size    int
	ty      render.Enum
	stride  int
	offset  int
}

type vertexArray struct {
	attribs  [maxVertexAttribs]attribPointer
	elements *buffer
}

// glContext is the rendering state of a context created by the Driver.
// Calls record the first error they encounter until GetError is
// called.
type glContext struct {
	api          accel.API
	major, minor int32
	profile      int32
	config       *config

	err  render.Enum
	next uint32

	shaders  map[render.Shader]*shader
	programs map[render.Program]*program
	buffers  map[render.Buffer]*buffer
	arrays   map[render.VertexArray]*vertexArray

	program     *program
	arrayBuffer *buffer
	array       *vertexArray

	target     *surface
	bound      bool
	viewport   image.Rectangle
	clearColor [4]float32
}

func newContext(api accel.API, major, minor, profile int32, cfg *config) *glContext {
	def := new(vertexArray)
	return &glContext{
		api:      api,
		major:    major,
		minor:    minor,
		profile:  profile,
		config:   cfg,
		shaders:  make(map[render.Shader]*shader),
		programs: make(map[render.Program]*program),
		buffers:  make(map[render.Buffer]*buffer),
		arrays:   map[render.VertexArray]*vertexArray{0: def},
		array:    def,
	}
}

// bind makes s the context's draw surface. The viewport is set to the
// surface's size the first time that a context is bound.
func (c *glContext) bind(s *surface) {
	if !c.bound && (s != nil) {
		c.viewport = s.back.Bounds()
		c.bound = true
	}
	c.target = s
}

func (c *glContext) setError(code render.Enum) {
	if c.err == render.NO_ERROR {
		c.err = code
	}
}

func (c *glContext) id() uint32 {
	c.next++
	return c.next
}

func (c *glContext) GetError() render.Enum {
	err := c.err
	c.err = render.NO_ERROR
	return err
}

func (c *glContext) Finish() {}

func (c *glContext) Viewport(x, y, width, height int) {
	if (width < 0) || (height < 0) {
		c.setError(render.INVALID_VALUE)
		return
	}
	c.viewport = image.Rect(x, y, x+width, y+height)
}

func (c *glContext) ClearColor(red, green, blue, alpha float32) {
	c.clearColor = [4]float32{red, green, blue, alpha}
}

func (c *glContext) Clear(mask render.Enum) {
	const valid = render.COLOR_BUFFER_BIT | 0x0100 | 0x0400
	if mask&^valid != 0 {
		c.setError(render.INVALID_VALUE)
		return
	}
	if (mask&render.COLOR_BUFFER_BIT == 0) || (c.target == nil) {
		return
	}

	cc := c.clearColor
	c.target.fill(c.config.quantize(nrgba(float64(cc[0]), float64(cc[1]), float64(cc[2]), float64(cc[3]))))
}

func (c *glContext) CreateShader(ty render.Enum) render.Shader {
	if (ty != render.VERTEX_SHADER) && (ty != render.FRAGMENT_SHADER) {
		c.setError(render.INVALID_ENUM)
		return 0
	}

	s := render.Shader(c.id())
	c.shaders[s] = &shader{stage: ty}
	return s
}

func (c *glContext) ShaderSource(s render.Shader, src string) {
	sh, ok := c.shaders[s]
	if !ok {
		c.setError(render.INVALID_VALUE)
		return
	}
	sh.source = src
}

func (c *glContext) CompileShader(s render.Shader) {
	sh, ok := c.shaders[s]
	if !ok {
		c.setError(render.INVALID_VALUE)
		return
	}
	sh.compile()
}

func (c *glContext) GetShaderi(s render.Shader, pname render.Enum) int {
	sh, ok := c.shaders[s]
	if !ok {
		c.setError(render.INVALID_VALUE)
		return 0
	}

	switch pname {
	case render.COMPILE_STATUS:
		if sh.compiled {
			return 1
		}
		return 0
	case render.INFO_LOG_LENGTH:
		return logLength(sh.log)
	default:
		c.setError(render.INVALID_ENUM)
		return 0
	}
}

func (c *glContext) GetShaderInfoLog(s render.Shader) string {
	sh, ok := c.shaders[s]
	if !ok {
		c.setError(render.INVALID_VALUE)
		return ""
	}
	return sh.log
}

func (c *glContext) DeleteShader(s render.Shader) {
	if s == 0 {
		return
	}
	if _, ok := c.shaders[s]; !ok {
		c.setError(render.INVALID_VALUE)
		return
	}
	delete(c.shaders, s)
}

func (c *glContext) CreateProgram() render.Program {
	p := render.Program(c.id())
	c.programs[p] = new(program)
	return p
}

func (c *glContext) AttachShader(p render.Program, s render.Shader) {
	prog, ok := c.programs[p]
	if !ok {
		c.setError(render.INVALID_VALUE)
		return
	}
	sh, ok := c.shaders[s]
	if !ok {
		c.setError(render.INVALID_VALUE)
		return
	}

	for _, attached := range prog.shaders {
		if attached.stage == sh.stage {
			c.setError(render.INVALID_OPERATION)
			return
		}
	}
	prog.shaders = append(prog.shaders, sh)
}

func (c *glContext) LinkProgram(p render.Program) {
	prog, ok := c.programs[p]
	if !ok {
		c.setError(render.INVALID_VALUE)
		return
	}
	prog.link()
}

func (c *glContext) GetProgrami(p render.Program, pname render.Enum) int {
	prog, ok := c.programs[p]
	if !ok {
		c.setError(render.INVALID_VALUE)
		return 0
	}

	switch pname {
	case render.LINK_STATUS:
		if prog.linked {
			return 1
		}
		return 0
	case render.INFO_LOG_LENGTH:
		return logLength(prog.log)
	default:
		c.setError(render.INVALID_ENUM)
		return 0
	}
}

func (c *glContext) GetProgramInfoLog(p render.Program) string {
	prog, ok := c.programs[p]
	if !ok {
		c.setError(render.INVALID_VALUE)
		return ""
	}
	return prog.log
}

func (c *glContext) UseProgram(p render.Program) {
	if p == 0 {
		c.program = nil
		return
	}

	prog, ok := c.programs[p]
	if !ok {
		c.setError(render.INVALID_VALUE)
		return
	}
	if !prog.linked {
		c.setError(render.INVALID_OPERATION)
		return
	}
	c.program = prog
}

func (c *glContext) DeleteProgram(p render.Program) {
	if p == 0 {
		return
	}
	prog, ok := c.programs[p]
	if !ok {
		c.setError(render.INVALID_VALUE)
		return
	}
	if c.program == prog {
		c.program = nil
	}
	delete(c.programs, p)
}

func (c *glContext) CreateBuffer() render.Buffer {
	b := render.Buffer(c.id())
	c.buffers[b] = new(buffer)
	return b
}

func (c *glContext) BindBuffer(target render.Enum, b render.Buffer) {
	var buf *buffer
	if b != 0 {
		var ok bool
		buf, ok = c.buffers[b]
		if !ok {
			c.setError(render.INVALID_VALUE)
			return
		}
	}

	switch target {
	case render.ARRAY_BUFFER:
		c.arrayBuffer = buf
	case render.ELEMENT_ARRAY_BUFFER:
		c.array.elements = buf
	default:
		c.setError(render.INVALID_ENUM)
	}
}

func (c *glContext) BufferData(target render.Enum, src []byte, usage render.Enum) {
	var buf *buffer
	switch target {
	case render.ARRAY_BUFFER:
		buf = c.arrayBuffer
	case render.ELEMENT_ARRAY_BUFFER:
		buf = c.array.elements
	default:
		c.setError(render.INVALID_ENUM)
		return
	}
	if buf == nil {
		c.setError(render.INVALID_OPERATION)
		return
	}

	buf.data = append([]byte(nil), src...)
}

func (c *glContext) DeleteBuffer(b render.Buffer) {
	buf, ok := c.buffers[b]
	if !ok {
		return
	}
	if c.arrayBuffer == buf {
		c.arrayBuffer = nil
	}
	if c.array.elements == buf {
		c.array.elements = nil
	}
	delete(c.buffers, b)
}

func (c *glContext) CreateVertexArray() render.VertexArray {
	a := render.VertexArray(c.id())
	c.arrays[a] = new(vertexArray)
	return a
}

func (c *glContext) BindVertexArray(a render.VertexArray) {
	array, ok := c.arrays[a]
	if !ok {
		c.setError(render.INVALID_OPERATION)
		return
	}
	c.array = array
}

func (c *glContext) DeleteVertexArray(a render.VertexArray) {
	array, ok := c.arrays[a]
	if !ok || (a == 0) {
		return
	}
	if c.array == array {
		c.array = c.arrays[0]
	}
	delete(c.arrays, a)
}

func (c *glContext) VertexAttribIPointer(a render.Attrib, size int, ty render.Enum, stride, offset int) {
	if a >= maxVertexAttribs {
		c.setError(render.INVALID_VALUE)
		return
	}
	if (size < 1) || (size > 4) || (stride < 0) || (offset < 0) {
		c.setError(render.INVALID_VALUE)
		return
	}
	if (ty != render.INT) && (ty != render.UNSIGNED_INT) {
		c.setError(render.INVALID_ENUM)
		return
	}
	if c.arrayBuffer == nil {
		c.setError(render.INVALID_OPERATION)
		return
	}

	if stride == 0 {
		stride = 4 * size
	}
	ap := &c.array.attribs[a]
	ap.buffer = c.arrayBuffer
	ap.size = size
	ap.ty = ty
	ap.stride = stride
	ap.offset = offset
}

func (c *glContext) EnableVertexAttribArray(a render.Attrib) {
	if a >= maxVertexAttribs {
		c.setError(render.INVALID_VALUE)
		return
	}
	c.array.attribs[a].enabled = true
}

func (c *glContext) DrawElements(mode render.Enum, count int, ty render.Enum, offset int) {
	switch mode {
	case render.TRIANGLES, render.TRIANGLE_STRIP, render.TRIANGLE_FAN:
	default:
		c.setError(render.INVALID_ENUM)
		return
	}
	if ty != render.UNSIGNED_INT {
		c.setError(render.INVALID_ENUM)
		return
	}
	if (count < 0) || (offset < 0) {
		c.setError(render.INVALID_VALUE)
		return
	}
	if (c.program == nil) || (c.array.elements == nil) || (c.target == nil) {
		c.setError(render.INVALID_OPERATION)
		return
	}

	elements := c.array.elements.data
	if offset+4*count > len(elements) {
		c.setError(render.INVALID_OPERATION)
		return
	}
	indices := bin.Uint32s(elements[offset : offset+4*count])

	if c.program.position >= maxVertexAttribs {
		c.setError(render.INVALID_OPERATION)
		return
	}
	pos := c.array.attribs[c.program.position]
	if !pos.enabled || (pos.size < 2) {
		c.setError(render.INVALID_OPERATION)
		return
	}

	vertices := make([][2]float64, len(indices))
	for i, index := range indices {
		v, ok := pos.vertex(index)
		if !ok {
			c.setError(render.INVALID_OPERATION)
			return
		}
		vertices[i] = v
	}

	pc := c.program.color
	col := c.config.quantize(nrgba(pc[0], pc[1], pc[2], pc[3]))
	c.target.rasterize(c.viewport, assemble(mode, vertices), col)
}

// vertex reads the first two components of a vertex as clip-space
// coordinates.
func (ap attribPointer) vertex(index uint32) ([2]float64, bool) {
	start := ap.offset + int(index)*ap.stride
	if start+8 > len(ap.buffer.data) {
		return [2]float64{}, false
	}

	vals := bin.Uint32s(ap.buffer.data[start : start+8])
	if ap.ty == render.INT {
		return [2]float64{float64(int32(vals[0])), float64(int32(vals[1]))}, true
	}
	return [2]float64{float64(vals[0]), float64(vals[1])}, true
}

// assemble groups vertices into triangles according to a primitive
// mode.
func assemble(mode render.Enum, v [][2]float64) (tris [][3][2]float64) {
	switch mode {
	case render.TRIANGLES:
		for i := 0; i+2 < len(v); i += 3 {
			tris = append(tris, [3][2]float64{v[i], v[i+1], v[i+2]})
		}
	case render.TRIANGLE_STRIP:
		for i := 0; i+2 < len(v); i++ {
			if i%2 == 0 {
				tris = append(tris, [3][2]float64{v[i], v[i+1], v[i+2]})
			} else {
				tris = append(tris, [3][2]float64{v[i+1], v[i], v[i+2]})
			}
		}
	case render.TRIANGLE_FAN:
		for i := 1; i+1 < len(v); i++ {
			tris = append(tris, [3][2]float64{v[0], v[i], v[i+1]})
		}
	}
	return tris
}

func logLength(log string) int {
	if log == "" {
		return 0
	}
	return len(log) + 1
}

func nrgba(r, g, b, a float64) color.NRGBA {
	ch := func(v float64) uint8 {
		return uint8(math.Round(255 * min(max(v, 0), 1)))
	}
	return color.NRGBA{R: ch(r), G: ch(g), B: ch(b), A: ch(a)}
}
