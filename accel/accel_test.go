package accel

import (
	"errors"
	"testing"

	wl "deedles.dev/wlgl/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct{ w, h int }

func (w fakeWindow) Surface() *wl.Surface { return nil }
func (w fakeWindow) Size() (int, int)     { return w.w, w.h }
func (w fakeWindow) Destroy() error       { return nil }

type fakeDriver struct {
	display     Handle
	initErr     error
	configs     []Attribs
	maxVersion  int32
	contexts    []Attribs
	current     [3]Handle
	swaps       int
	surfaces    int
	createCalls int
}

func (d *fakeDriver) GetDisplay(*wl.Client) Handle { return d.display }

func (d *fakeDriver) Initialize(Handle) (int32, int32, error) {
	return 1, 5, d.initErr
}

func (d *fakeDriver) Terminate(Handle) error { return nil }
func (d *fakeDriver) BindAPI(API) error      { return nil }

func (d *fakeDriver) ChooseConfig(dpy Handle, attribs Attribs) (configs []Handle, err error) {
	for i, c := range d.configs {
		match := true
		attribs.Pairs(func(name, value int32) bool {
			v, _ := c.Get(name)
			match = v >= value
			return match
		})
		if match {
			configs = append(configs, Handle(i+1))
		}
	}
	return configs, nil
}

func (d *fakeDriver) GetConfigAttrib(dpy, config Handle, name int32) (int32, error) {
	v, ok := d.configs[config-1].Get(name)
	if !ok {
		return 0, BAD_ATTRIBUTE
	}
	return v, nil
}

func (d *fakeDriver) CreateContext(dpy, config, share Handle, attribs Attribs) (Handle, error) {
	d.createCalls++
	major, _ := attribs.Get(CONTEXT_MAJOR_VERSION)
	if major > d.maxVersion {
		return 0, BAD_MATCH
	}
	d.contexts = append(d.contexts, attribs)
	return Handle(len(d.contexts)), nil
}

func (d *fakeDriver) DestroyContext(dpy, ctx Handle) error { return nil }

func (d *fakeDriver) CreateWindowSurface(dpy, config Handle, win NativeWindow, attribs Attribs) (Handle, error) {
	if w, h := win.Size(); (w <= 0) || (h <= 0) {
		return 0, BAD_NATIVE_WINDOW
	}
	d.surfaces++
	return Handle(d.surfaces), nil
}

func (d *fakeDriver) DestroySurface(dpy, surface Handle) error { return nil }

func (d *fakeDriver) MakeCurrent(dpy, draw, read, ctx Handle) error {
	d.current = [3]Handle{draw, read, ctx}
	return nil
}

func (d *fakeDriver) SwapBuffers(dpy, surface Handle) error {
	d.swaps++
	return nil
}

func (d *fakeDriver) GetProcAddress(name string) any {
	if name == "glFinish" {
		return func() {}
	}
	return nil
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		display:    1,
		maxVersion: 4,
		configs: []Attribs{
			{CONFIG_ID, 1, RED_SIZE, 5, GREEN_SIZE, 6, BLUE_SIZE, 5},
			{CONFIG_ID, 2, RED_SIZE, 8, GREEN_SIZE, 8, BLUE_SIZE, 8},
			{CONFIG_ID, 3, RED_SIZE, 8, GREEN_SIZE, 8, BLUE_SIZE, 8, ALPHA_SIZE, 8},
		},
	}
}

var rgb888 = Attribs{RED_SIZE, 8, GREEN_SIZE, 8, BLUE_SIZE, 8, NONE}

func TestOpenDisplayFailure(t *testing.T) {
	d := newFakeDriver()
	d.display = 0
	_, err := OpenDisplay(d, nil)
	var derr *DisplayInitError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "get display", derr.Op)
	assert.ErrorIs(t, err, BAD_DISPLAY)

	d = newFakeDriver()
	d.initErr = NOT_INITIALIZED
	_, err = OpenDisplay(d, nil)
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "initialize", derr.Op)
	assert.ErrorIs(t, err, NOT_INITIALIZED)
}

func TestChooseConfig(t *testing.T) {
	display, err := OpenDisplay(newFakeDriver(), nil)
	require.NoError(t, err)
	major, minor := display.Version()
	assert.Equal(t, [2]int32{1, 5}, [2]int32{major, minor})

	config, err := display.ChooseConfig(Attribs{RED_SIZE, 8, ALPHA_SIZE, 1, NONE})
	require.NoError(t, err)
	id, err := config.Attrib(CONFIG_ID)
	require.NoError(t, err)
	assert.Equal(t, int32(3), id)

	config, err = display.ChooseConfig(rgb888)
	require.NoError(t, err)
	id, err = config.Attrib(CONFIG_ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), id, "first match wins")
}

func TestChooseConfigNoMatch(t *testing.T) {
	driver := newFakeDriver()
	display, err := OpenDisplay(driver, nil)
	require.NoError(t, err)

	_, err = display.ChooseConfig(Attribs{RED_SIZE, 10, NONE})
	var nerr *NoMatchingConfigError
	require.ErrorAs(t, err, &nerr)
	assert.Nil(t, nerr.Err)
	assert.Zero(t, driver.createCalls)

	_, err = display.ChooseConfig(Attribs{RED_SIZE})
	require.ErrorAs(t, err, &nerr)
	assert.ErrorIs(t, err, BAD_ATTRIBUTE)
}

func TestCreateContext(t *testing.T) {
	driver := newFakeDriver()
	driver.maxVersion = 3
	display, err := OpenDisplay(driver, nil)
	require.NoError(t, err)
	config, err := display.ChooseConfig(rgb888)
	require.NoError(t, err)

	gl4 := Attribs{CONTEXT_MAJOR_VERSION, 4, CONTEXT_MINOR_VERSION, 0, NONE}
	gl3 := Attribs{CONTEXT_MAJOR_VERSION, 3, CONTEXT_MINOR_VERSION, 3, NONE}

	_, err = display.CreateContext(config, gl4)
	var cerr *ContextCreationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 1, cerr.Tried)
	assert.ErrorIs(t, err, BAD_MATCH)
	assert.Equal(t, 1, driver.createCalls)

	ctx, err := display.CreateContext(config, gl4, gl3)
	require.NoError(t, err)
	assert.Equal(t, gl3, ctx.Attribs())
	assert.Same(t, config, ctx.Config())
}

func TestMakeCurrent(t *testing.T) {
	driver := newFakeDriver()
	display, err := OpenDisplay(driver, nil)
	require.NoError(t, err)
	config, err := display.ChooseConfig(rgb888)
	require.NoError(t, err)
	ctx, err := display.CreateContext(config, Attribs{CONTEXT_MAJOR_VERSION, 4, NONE})
	require.NoError(t, err)

	_, err = display.CreateWindowSurface(config, fakeWindow{})
	var serr *SurfaceError
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, BAD_NATIVE_WINDOW)

	surface, err := display.CreateWindowSurface(config, fakeWindow{w: 800, h: 600})
	require.NoError(t, err)
	assert.Equal(t, fakeWindow{w: 800, h: 600}, surface.Window())

	cur, err := ctx.MakeCurrent(surface)
	require.NoError(t, err)
	assert.True(t, cur.Valid())
	assert.Same(t, cur, display.Current())
	assert.Equal(t, [3]Handle{surface.handle, surface.handle, ctx.handle}, driver.current)
	assert.NotNil(t, cur.ProcAddress("glFinish"))
	assert.Nil(t, cur.ProcAddress("glMissing"))

	_, err = ctx.MakeCurrent(surface)
	assert.ErrorIs(t, err, ErrAlreadyCurrent)

	require.NoError(t, cur.SwapBuffers())
	assert.Equal(t, 1, driver.swaps)

	require.NoError(t, cur.Release())
	require.NoError(t, cur.Release())
	assert.False(t, cur.Valid())
	assert.Nil(t, display.Current())
	assert.Equal(t, [3]Handle{}, driver.current)
	assert.Nil(t, cur.ProcAddress("glFinish"))
	assert.True(t, errors.Is(cur.SwapBuffers(), ErrReleased))

	cur, err = ctx.MakeCurrent(surface)
	require.NoError(t, err)
	require.NoError(t, cur.Release())
}

func TestAttribs(t *testing.T) {
	a := Attribs{RED_SIZE, 8, GREEN_SIZE, 6, NONE, BLUE_SIZE, 5}
	v, ok := a.Get(GREEN_SIZE)
	assert.True(t, ok)
	assert.Equal(t, int32(6), v)
	_, ok = a.Get(BLUE_SIZE)
	assert.False(t, ok, "pairs after NONE are ignored")
	assert.Equal(t, "[0x3024=8, 0x3023=6]", a.String())

	assert.NoError(t, Attribs{RED_SIZE, 8}.Validate())
	assert.NoError(t, Attribs{RED_SIZE, 8, NONE}.Validate())
	assert.NoError(t, Attribs(nil).Validate())
	assert.ErrorIs(t, Attribs{RED_SIZE}.Validate(), BAD_ATTRIBUTE)
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "EGL_BAD_CONFIG (0x3005)", BAD_CONFIG.Error())
	assert.Equal(t, "unknown EGL error (0x3100)", Error(0x3100).Error())
	assert.Equal(t, "OpenGL", OPENGL_API.String())
}
