package soft

import "deedles.dev/wlgl/render"

// gl returns the current context, or nil if there isn't one. Calls
// made without a current context are ignored.
func (d *Driver) gl() *glContext {
	d.m.Lock()
	defer d.m.Unlock()
	return d.current
}

func (d *Driver) procTable() map[string]any {
	return map[string]any{
		"glGetError": func() render.Enum {
			if c := d.gl(); c != nil {
				return c.GetError()
			}
			return render.NO_ERROR
		},
		"glFinish": func() {},
		"glViewport": func(x, y, width, height int) {
			if c := d.gl(); c != nil {
				c.Viewport(x, y, width, height)
			}
		},
		"glClearColor": func(red, green, blue, alpha float32) {
			if c := d.gl(); c != nil {
				c.ClearColor(red, green, blue, alpha)
			}
		},
		"glClear": func(mask render.Enum) {
			if c := d.gl(); c != nil {
				c.Clear(mask)
			}
		},

		"glCreateShader": func(ty render.Enum) render.Shader {
			if c := d.gl(); c != nil {
				return c.CreateShader(ty)
			}
			return 0
		},
		"glShaderSource": func(s render.Shader, src string) {
			if c := d.gl(); c != nil {
				c.ShaderSource(s, src)
			}
		},
		"glCompileShader": func(s render.Shader) {
			if c := d.gl(); c != nil {
				c.CompileShader(s)
			}
		},
		"glGetShaderi": func(s render.Shader, pname render.Enum) int {
			if c := d.gl(); c != nil {
				return c.GetShaderi(s, pname)
			}
			return 0
		},
		"glGetShaderInfoLog": func(s render.Shader) string {
			if c := d.gl(); c != nil {
				return c.GetShaderInfoLog(s)
			}
			return ""
		},
		"glDeleteShader": func(s render.Shader) {
			if c := d.gl(); c != nil {
				c.DeleteShader(s)
			}
		},

		"glCreateProgram": func() render.Program {
			if c := d.gl(); c != nil {
				return c.CreateProgram()
			}
			return 0
		},
		"glAttachShader": func(p render.Program, s render.Shader) {
			if c := d.gl(); c != nil {
				c.AttachShader(p, s)
			}
		},
		"glLinkProgram": func(p render.Program) {
			if c := d.gl(); c != nil {
				c.LinkProgram(p)
			}
		},
		"glGetProgrami": func(p render.Program, pname render.Enum) int {
			if c := d.gl(); c != nil {
				return c.GetProgrami(p, pname)
			}
			return 0
		},
		"glGetProgramInfoLog": func(p render.Program) string {
			if c := d.gl(); c != nil {
				return c.GetProgramInfoLog(p)
			}
			return ""
		},
		"glUseProgram": func(p render.Program) {
			if c := d.gl(); c != nil {
				c.UseProgram(p)
			}
		},
		"glDeleteProgram": func(p render.Program) {
			if c := d.gl(); c != nil {
				c.DeleteProgram(p)
			}
		},

		"glCreateBuffer": func() render.Buffer {
			if c := d.gl(); c != nil {
				return c.CreateBuffer()
			}
			return 0
		},
		"glBindBuffer": func(target render.Enum, b render.Buffer) {
			if c := d.gl(); c != nil {
				c.BindBuffer(target, b)
			}
		},
		"glBufferData": func(target render.Enum, src []byte, usage render.Enum) {
			if c := d.gl(); c != nil {
				c.BufferData(target, src, usage)
			}
		},
		"glDeleteBuffer": func(b render.Buffer) {
			if c := d.gl(); c != nil {
				c.DeleteBuffer(b)
			}
		},

		"glCreateVertexArray": func() render.VertexArray {
			if c := d.gl(); c != nil {
				return c.CreateVertexArray()
			}
			return 0
		},
		"glBindVertexArray": func(a render.VertexArray) {
			if c := d.gl(); c != nil {
				c.BindVertexArray(a)
			}
		},
		"glDeleteVertexArray": func(a render.VertexArray) {
			if c := d.gl(); c != nil {
				c.DeleteVertexArray(a)
			}
		},
		"glVertexAttribIPointer": func(a render.Attrib, size int, ty render.Enum, stride, offset int) {
			if c := d.gl(); c != nil {
				c.VertexAttribIPointer(a, size, ty, stride, offset)
			}
		},
		"glEnableVertexAttribArray": func(a render.Attrib) {
			if c := d.gl(); c != nil {
				c.EnableVertexAttribArray(a)
			}
		},

		"glDrawElements": func(mode render.Enum, count int, ty render.Enum, offset int) {
			if c := d.gl(); c != nil {
				c.DrawElements(mode, count, ty, offset)
			}
		},
	}
}
