package render

import (
	"fmt"
	"reflect"
	"strings"
)

type (
	Enum        uint32
	Attrib      uint32
	Shader      uint32
	Program     uint32
	Buffer      uint32
	VertexArray uint32
)

const (
	NO_ERROR                      Enum = 0
	INVALID_ENUM                  Enum = 0x0500
	INVALID_VALUE                 Enum = 0x0501
	INVALID_OPERATION             Enum = 0x0502
	STACK_OVERFLOW                Enum = 0x0503
	STACK_UNDERFLOW               Enum = 0x0504
	OUT_OF_MEMORY                 Enum = 0x0505
	INVALID_FRAMEBUFFER_OPERATION Enum = 0x0506

	TRIANGLES      Enum = 0x0004
	TRIANGLE_STRIP Enum = 0x0005
	TRIANGLE_FAN   Enum = 0x0006

	INT          Enum = 0x1404
	UNSIGNED_INT Enum = 0x1405
	FLOAT        Enum = 0x1406

	COLOR_BUFFER_BIT Enum = 0x4000

	ARRAY_BUFFER         Enum = 0x8892
	ELEMENT_ARRAY_BUFFER Enum = 0x8893
	STATIC_DRAW          Enum = 0x88E4

	FRAGMENT_SHADER Enum = 0x8B30
	VERTEX_SHADER   Enum = 0x8B31
	COMPILE_STATUS  Enum = 0x8B81
	LINK_STATUS     Enum = 0x8B82
	INFO_LOG_LENGTH Enum = 0x8B84
)

// Functions is a table of rendering entry points. Each field is loaded
// from the entry point named "gl" followed by the field name.
type Functions struct {
	GetError func() Enum
	Finish   func()

	Viewport   func(x, y, width, height int)
	ClearColor func(red, green, blue, alpha float32)
	Clear      func(mask Enum)

	CreateShader     func(ty Enum) Shader
	ShaderSource     func(s Shader, src string)
	CompileShader    func(s Shader)
	GetShaderi       func(s Shader, pname Enum) int
	GetShaderInfoLog func(s Shader) string
	DeleteShader     func(s Shader)

	CreateProgram     func() Program
	AttachShader      func(p Program, s Shader)
	LinkProgram       func(p Program)
	GetProgrami       func(p Program, pname Enum) int
	GetProgramInfoLog func(p Program) string
	UseProgram        func(p Program)
	DeleteProgram     func(p Program)

	CreateBuffer func() Buffer
	BindBuffer   func(target Enum, b Buffer)
	BufferData   func(target Enum, src []byte, usage Enum)
	DeleteBuffer func(b Buffer)

	CreateVertexArray       func() VertexArray
	BindVertexArray         func(a VertexArray)
	DeleteVertexArray       func(a VertexArray)
	VertexAttribIPointer    func(a Attrib, size int, ty Enum, stride, offset int)
	EnableVertexAttribArray func(a Attrib)

	DrawElements func(mode Enum, count int, ty Enum, offset int)
}

// Load fills in a Functions from a lookup function such as
// accel.Current.ProcAddress. It fails if an entry point is missing or
// has the wrong signature.
func Load(proc func(name string) any) (*Functions, error) {
	var f Functions
	v := reflect.ValueOf(&f).Elem()
	t := v.Type()

	var missing []string
	for i := range t.NumField() {
		field := t.Field(i)
		name := "gl" + field.Name

		fn := proc(name)
		if fn == nil {
			missing = append(missing, name)
			continue
		}

		fv := reflect.ValueOf(fn)
		if fv.Type() != field.Type {
			return nil, fmt.Errorf("load %v: have %v, want %v", name, fv.Type(), field.Type)
		}
		v.Field(i).Set(fv)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("load: missing entry points: %v", strings.Join(missing, ", "))
	}

	return &f, nil
}
