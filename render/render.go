// Package render draws the first frame into a current acceleration
// context.
package render

import (
	_ "embed"
	"errors"
	"strings"

	"deedles.dev/wlgl/accel"
	"deedles.dev/wlgl/internal/bin"
	"deedles.dev/wlgl/internal/debug"
)

var (
	//go:embed shaders/triangle.vert.wgsl
	DefaultVertexSource string

	//go:embed shaders/triangle.frag.wgsl
	DefaultFragmentSource string
)

var (
	// Vertices are the corners of the quad drawn by Render, as pairs
	// of clip-space coordinates.
	Vertices = []int32{
		-1, -1,
		1, -1,
		1, 1,
		-1, 1,
	}

	// Indices index Vertices in triangle fan order.
	Indices = []uint32{0, 1, 2, 3}
)

// Renderer draws a single frame.
type Renderer struct {
	// VertexSource and FragmentSource override the default shaders
	// if they are not empty.
	VertexSource   string
	FragmentSource string
}

// Render draws a frame into the surface of cur. If f is nil, the
// entry points are loaded from cur. Every call is followed by an
// error check, and the first error stops rendering.
func (r *Renderer) Render(cur *accel.Current, f *Functions) error {
	if !cur.Valid() || (cur.Surface() == nil) {
		return ErrNotCurrent
	}

	if f == nil {
		var err error
		f, err = Load(cur.ProcAddress)
		if err != nil {
			return err
		}
	}

	width, height := cur.Surface().Window().Size()
	return r.Draw(f, width, height)
}

// Draw issues the frame's calls through f. It does not check for a
// current context.
func (r *Renderer) Draw(f *Functions, width, height int) error {
	c := caller{f: f}

	err := c.call("glViewport", func() { f.Viewport(0, 0, width, height) })
	if err != nil {
		return err
	}
	err = c.call("glClearColor", func() { f.ClearColor(0, 0, 0, 1) })
	if err != nil {
		return err
	}
	err = c.call("glClear", func() { f.Clear(COLOR_BUFFER_BIT) })
	if err != nil {
		return err
	}

	prog, err := c.program(r.source(r.VertexSource, DefaultVertexSource), r.source(r.FragmentSource, DefaultFragmentSource))
	if err != nil {
		return err
	}
	err = c.call("glUseProgram", func() { f.UseProgram(prog) })
	if err != nil {
		return err
	}

	var vao VertexArray
	err = c.call("glCreateVertexArray", func() { vao = f.CreateVertexArray() })
	if err != nil {
		return err
	}
	err = c.call("glBindVertexArray", func() { f.BindVertexArray(vao) })
	if err != nil {
		return err
	}

	err = c.buffer(ARRAY_BUFFER, int32Bytes(Vertices))
	if err != nil {
		return err
	}
	err = c.call("glVertexAttribIPointer", func() { f.VertexAttribIPointer(0, 2, INT, 0, 0) })
	if err != nil {
		return err
	}
	err = c.call("glEnableVertexAttribArray", func() { f.EnableVertexAttribArray(0) })
	if err != nil {
		return err
	}

	err = c.buffer(ELEMENT_ARRAY_BUFFER, bin.PutUint32s(Indices...))
	if err != nil {
		return err
	}

	err = c.call("glDrawElements", func() { f.DrawElements(TRIANGLE_FAN, len(Indices), UNSIGNED_INT, 0) })
	if err != nil {
		return err
	}
	err = c.call("glFinish", f.Finish)
	if err != nil {
		return err
	}

	debug.Logger().Debug("frame rendered", "width", width, "height", height)
	return nil
}

func (r *Renderer) source(src, def string) string {
	if src == "" {
		return def
	}
	return src
}

type caller struct {
	f *Functions
}

// call runs fn and then polls for an error.
func (c caller) call(op string, fn func()) error {
	fn()
	code := c.f.GetError()
	if code != NO_ERROR {
		return &GraphicsOperationError{Op: op, Code: code}
	}
	return nil
}

func (c caller) shader(ty Enum, src string) (s Shader, err error) {
	f := c.f

	err = c.call("glCreateShader", func() { s = f.CreateShader(ty) })
	if err != nil {
		return 0, err
	}
	err = c.call("glShaderSource", func() { f.ShaderSource(s, src) })
	if err != nil {
		return 0, err
	}
	err = c.call("glCompileShader", func() { f.CompileShader(s) })
	if err != nil {
		return 0, err
	}

	var status int
	err = c.call("glGetShaderiv", func() { status = f.GetShaderi(s, COMPILE_STATUS) })
	if err != nil {
		return 0, err
	}
	if status != 0 {
		return s, nil
	}

	var log string
	err = c.call("glGetShaderInfoLog", func() { log = f.GetShaderInfoLog(s) })
	if err != nil {
		return 0, err
	}
	err = c.call("glDeleteShader", func() { f.DeleteShader(s) })
	if err != nil {
		return 0, err
	}
	return 0, &ShaderCompilationError{Stage: ty, Log: infoLog(log)}
}

func (c caller) program(vsrc, fsrc string) (p Program, err error) {
	f := c.f

	vs, err := c.shader(VERTEX_SHADER, vsrc)
	if err != nil {
		return 0, err
	}
	fs, err := c.shader(FRAGMENT_SHADER, fsrc)
	if err != nil {
		return 0, errors.Join(err, c.call("glDeleteShader", func() { f.DeleteShader(vs) }))
	}

	err = c.call("glCreateProgram", func() { p = f.CreateProgram() })
	if err != nil {
		return 0, err
	}
	err = c.call("glAttachShader", func() { f.AttachShader(p, vs) })
	if err != nil {
		return 0, err
	}
	err = c.call("glAttachShader", func() { f.AttachShader(p, fs) })
	if err != nil {
		return 0, err
	}
	err = c.call("glLinkProgram", func() { f.LinkProgram(p) })
	if err != nil {
		return 0, err
	}

	var status int
	err = c.call("glGetProgramiv", func() { status = f.GetProgrami(p, LINK_STATUS) })
	if err != nil {
		return 0, err
	}
	if status == 0 {
		var log string
		err = c.call("glGetProgramInfoLog", func() { log = f.GetProgramInfoLog(p) })
		if err != nil {
			return 0, err
		}
		return 0, &ProgramLinkError{Log: infoLog(log)}
	}

	for _, s := range []Shader{vs, fs} {
		err = c.call("glDeleteShader", func() { f.DeleteShader(s) })
		if err != nil {
			return 0, err
		}
	}
	return p, nil
}

func (c caller) buffer(target Enum, data []byte) error {
	f := c.f

	var b Buffer
	err := c.call("glCreateBuffer", func() { b = f.CreateBuffer() })
	if err != nil {
		return err
	}
	err = c.call("glBindBuffer", func() { f.BindBuffer(target, b) })
	if err != nil {
		return err
	}
	return c.call("glBufferData", func() { f.BufferData(target, data, STATIC_DRAW) })
}

func infoLog(log string) string {
	log = strings.TrimSpace(log)
	if log == "" {
		return "no diagnostic output"
	}
	return log
}

func int32Bytes(v []int32) []byte {
	u := make([]uint32, len(v))
	for i := range v {
		u[i] = uint32(v[i])
	}
	return bin.PutUint32s(u...)
}
