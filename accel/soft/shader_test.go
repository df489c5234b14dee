package soft

import (
	"image/color"
	"testing"

	"deedles.dev/wlgl/accel"
	"deedles.dev/wlgl/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compiled(t *testing.T, stage render.Enum, src string) *shader {
	t.Helper()

	s := &shader{stage: stage, source: src}
	s.compile()
	require.True(t, s.compiled, "log: %v", s.log)
	return s
}

func TestCompile(t *testing.T) {
	vs := compiled(t, render.VERTEX_SHADER, render.DefaultVertexSource)
	assert.Equal(t, "vs_main", vs.entry.Name)
	assert.Empty(t, vs.log)

	fs := compiled(t, render.FRAGMENT_SHADER, render.DefaultFragmentSource)
	assert.Equal(t, "fs_main", fs.entry.Name)
}

func TestCompileFailure(t *testing.T) {
	s := &shader{stage: render.FRAGMENT_SHADER, source: "@fragment fn fs_main( -> {"}
	s.compile()
	assert.False(t, s.compiled)
	assert.NotEmpty(t, s.log)
	assert.Nil(t, s.entry)

	s = &shader{stage: render.VERTEX_SHADER, source: render.DefaultFragmentSource}
	s.compile()
	assert.False(t, s.compiled)
	assert.Equal(t, "no @vertex entry point", s.log)
}

func TestLink(t *testing.T) {
	p := &program{shaders: []*shader{
		compiled(t, render.VERTEX_SHADER, render.DefaultVertexSource),
		compiled(t, render.FRAGMENT_SHADER, render.DefaultFragmentSource),
	}}
	p.link()
	require.True(t, p.linked, "log: %v", p.log)
	assert.Equal(t, uint32(0), p.position)
	assert.Equal(t, [4]float64{1, 0, 0, 1}, p.color)
}

func TestLinkSplat(t *testing.T) {
	p := &program{shaders: []*shader{
		compiled(t, render.VERTEX_SHADER, render.DefaultVertexSource),
		compiled(t, render.FRAGMENT_SHADER, `@fragment
fn main() -> @location(0) vec4<f32> {
	return vec4<f32>(0.5);
}
`),
	}}
	p.link()
	require.True(t, p.linked, "log: %v", p.log)
	assert.Equal(t, [4]float64{0.5, 0.5, 0.5, 0.5}, p.color)
}

func TestLinkFailure(t *testing.T) {
	vs := compiled(t, render.VERTEX_SHADER, render.DefaultVertexSource)

	p := &program{shaders: []*shader{vs}}
	p.link()
	assert.False(t, p.linked)
	assert.Equal(t, "program needs a vertex and a fragment shader", p.log)

	fs := compiled(t, render.FRAGMENT_SHADER, `@fragment
fn main(@builtin(position) pos: vec4<f32>) -> @location(0) vec4<f32> {
	return pos;
}
`)
	p = &program{shaders: []*shader{vs, fs}}
	p.link()
	assert.False(t, p.linked)
	assert.Contains(t, p.log, "fragment shader main")

	p = &program{shaders: []*shader{vs, {stage: render.FRAGMENT_SHADER}}}
	p.link()
	assert.False(t, p.linked)
	assert.Equal(t, "attached fragment shader is not compiled", p.log)
}

func TestConfigMatch(t *testing.T) {
	rgb565, _ := lookupConfig(1)
	argb, _ := lookupConfig(3)

	ok, err := rgb565.match(accel.Attribs{accel.RED_SIZE, 8, accel.NONE})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = argb.match(accel.Attribs{accel.RED_SIZE, 8, accel.ALPHA_SIZE, 8, accel.SURFACE_TYPE, accel.WINDOW_BIT})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = argb.match(accel.Attribs{accel.SURFACE_TYPE, accel.WINDOW_BIT | 1})
	require.NoError(t, err)
	assert.False(t, ok, "pbuffer surfaces are not supported")

	_, err = argb.match(accel.Attribs{0x30AA, 1})
	assert.Equal(t, accel.BAD_ATTRIBUTE, err)

	_, ok = lookupConfig(0)
	assert.False(t, ok)
	_, ok = lookupConfig(4)
	assert.False(t, ok)
}

func TestQuantize(t *testing.T) {
	rgb565, _ := lookupConfig(1)
	xrgb, _ := lookupConfig(2)
	argb, _ := lookupConfig(3)

	col := color.NRGBA{R: 0xFF, G: 0x80, B: 0x13, A: 0x40}
	assert.Equal(t, color.NRGBA{R: 0xFF, G: 0x82, B: 0x10, A: 0xFF}, rgb565.quantize(col))
	assert.Equal(t, color.NRGBA{R: 0xFF, G: 0x80, B: 0x13, A: 0xFF}, xrgb.quantize(col))
	assert.Equal(t, col, argb.quantize(col))
}

func TestAssemble(t *testing.T) {
	v := [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	assert.Equal(t, [][3][2]float64{
		{v[0], v[1], v[2]},
		{v[0], v[2], v[3]},
	}, assemble(render.TRIANGLE_FAN, v))

	assert.Equal(t, [][3][2]float64{
		{v[0], v[1], v[2]},
		{v[2], v[1], v[3]},
	}, assemble(render.TRIANGLE_STRIP, v))

	assert.Equal(t, [][3][2]float64{
		{v[0], v[1], v[2]},
	}, assemble(render.TRIANGLES, v))

	assert.Empty(t, assemble(render.TRIANGLE_FAN, v[:2]))
}

func TestNRGBA(t *testing.T) {
	assert.Equal(t, color.NRGBA{R: 0xFF, G: 0, B: 0x80, A: 0xFF}, nrgba(1, -1, 0.5, 2))
}
