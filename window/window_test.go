package window

import (
	"context"
	"errors"
	"testing"

	"deedles.dev/wlgl/accel"
	"deedles.dev/wlgl/accel/soft"
	wl "deedles.dev/wlgl/client"
	"deedles.dev/wlgl/globals"
	"deedles.dev/wlgl/internal/wltest"
	"deedles.dev/wlgl/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	coord *Coordinator
	err   error

	calls  int
	states []State
	valid  []bool
}

func (r *recorder) Render(cur *accel.Current, f *render.Functions) error {
	r.calls++
	r.states = append(r.states, r.coord.State())
	r.valid = append(r.valid, cur.Valid() && (cur.Surface() != nil))
	if r.err != nil {
		return r.err
	}

	var rr render.Renderer
	return rr.Render(cur, f)
}

type harness struct {
	ctx    context.Context
	comp   *wltest.Compositor
	client *wl.Client
	coord  *Coordinator
	rec    *recorder
	sizes  [][2]int
}

func setup(t *testing.T) *harness {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), wltest.DefaultTimeout)
	t.Cleanup(cancel)

	comp, conn := wltest.Start(t,
		wltest.Global{Name: 1, Interface: wl.CompositorInterface, Version: 5},
		wltest.Global{Name: 2, Interface: wl.WmBaseInterface, Version: 4},
		wltest.Global{Name: 3, Interface: wl.ShmInterface, Version: 1},
	)
	client := wl.NewClient(conn)
	t.Cleanup(func() { client.Close() })

	r, err := globals.Resolve(ctx, client)
	require.NoError(t, err)
	compositor, err := r.BindCompositor()
	require.NoError(t, err)
	wmBase, err := r.BindWmBase()
	require.NoError(t, err)
	shm, err := r.BindShm()
	require.NoError(t, err)

	display, err := accel.OpenDisplay(new(soft.Driver), client)
	require.NoError(t, err)
	require.NoError(t, display.BindAPI(accel.OPENGL_API))
	config, err := display.ChooseConfig(accel.Attribs{accel.RED_SIZE, 8, accel.GREEN_SIZE, 8, accel.BLUE_SIZE, 8})
	require.NoError(t, err)
	actx, err := display.CreateContext(config, accel.Attribs{accel.CONTEXT_MAJOR_VERSION, 4})
	require.NoError(t, err)

	h := harness{
		ctx:    ctx,
		comp:   comp,
		client: client,
		rec:    new(recorder),
	}
	h.coord = New(compositor, wmBase, Options{
		Title:   "test",
		AppID:   "dev.deedles.wlgl.test",
		Width:   16,
		Height:  12,
		Display: display,
		Config:  config,
		Context: actx,
		NewWindow: func(surface *wl.Surface, width, height int) (accel.NativeWindow, error) {
			h.sizes = append(h.sizes, [2]int{width, height})
			return soft.NewWindow(shm, surface, width, height)
		},
		Renderer: h.rec,
	})
	h.rec.coord = h.coord
	t.Cleanup(func() { h.coord.Destroy() })
	require.NoError(t, client.RoundTrip(ctx))

	return &h
}

func (h *harness) acks(t *testing.T, n int) []uint32 {
	t.Helper()

	reqs, err := h.comp.WaitFor(n, wltest.Method(wl.XdgSurfaceInterface, "ack_configure"))
	require.NoError(t, err)
	serials := make([]uint32, 0, len(reqs))
	for _, req := range reqs {
		serials = append(serials, req.Args[0].(uint32))
	}
	return serials
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "created", Created.String())
	assert.Equal(t, "pending-configure", PendingConfigure.String())
	assert.Equal(t, "configured", Configured.String())
	assert.Equal(t, "bound", Bound.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestStart(t *testing.T) {
	h := setup(t)
	assert.Equal(t, Created, h.coord.State())

	require.NoError(t, h.coord.Start())
	assert.Equal(t, PendingConfigure, h.coord.State())
	assert.Error(t, h.coord.Start())
	require.NoError(t, h.client.Flush())

	_, err := h.comp.WaitFor(1, wltest.Method(wl.SurfaceInterface, "commit"))
	require.NoError(t, err)

	reqs := h.comp.Requests(func(req wltest.Request) bool {
		return (req.Interface == wl.ToplevelInterface) || (req.Interface == wl.SurfaceInterface)
	})
	var methods []string
	for _, req := range reqs {
		methods = append(methods, req.Method)
	}
	assert.Equal(t, []string{"set_app_id", "set_title", "commit"}, methods)
	assert.Equal(t, "dev.deedles.wlgl.test", reqs[0].Args[0])
	assert.Equal(t, "test", reqs[1].Args[0])
	assert.Empty(t, h.comp.Frames())
}

func TestPing(t *testing.T) {
	h := setup(t)

	surfaceID, ok := h.comp.Find(wl.SurfaceInterface)
	require.True(t, ok)

	require.NoError(t, h.comp.Ping(1))
	require.NoError(t, h.client.RoundTrip(h.ctx))
	require.NoError(t, h.coord.Start())

	for _, serial := range []uint32{2, 3, 4} {
		require.NoError(t, h.comp.Send(surfaceID, wl.SurfaceInterface, 2, int32(2)))
		require.NoError(t, h.comp.Ping(serial))
	}
	require.NoError(t, h.client.RoundTrip(h.ctx))

	pongs, err := h.comp.WaitFor(4, wltest.Method(wl.WmBaseInterface, "pong"))
	require.NoError(t, err)
	var serials []uint32
	for _, pong := range pongs {
		serials = append(serials, pong.Args[0].(uint32))
	}
	assert.Equal(t, []uint32{1, 2, 3, 4}, serials)
	assert.Equal(t, PendingConfigure, h.coord.State())
	assert.Zero(t, h.rec.calls)
}

func TestConfigure(t *testing.T) {
	h := setup(t)
	require.NoError(t, h.coord.Start())

	require.NoError(t, h.comp.Configure(0, 0, 7))
	require.NoError(t, h.client.RoundTrip(h.ctx))
	assert.Equal(t, Bound, h.coord.State())
	assert.Equal(t, []uint32{7}, h.acks(t, 1))

	require.NoError(t, h.comp.Wait(wltest.DefaultTimeout, func() bool { return len(h.comp.Frames()) == 1 }))
	frame := h.comp.Frames()[0]
	assert.Equal(t, 16, frame.Width)
	assert.Equal(t, 12, frame.Height)
	assert.Equal(t, uint32(0xFFFF0000), frame.Pixel(8, 6))

	assert.Equal(t, 1, h.rec.calls)
	assert.Equal(t, []State{Configured}, h.rec.states)
	assert.Equal(t, []bool{true}, h.rec.valid)
	assert.Equal(t, [][2]int{{16, 12}}, h.sizes)

	var ack, attach int = -1, -1
	for i, req := range h.comp.Requests(nil) {
		switch {
		case (req.Interface == wl.XdgSurfaceInterface) && (req.Method == "ack_configure"):
			ack = i
		case (req.Interface == wl.SurfaceInterface) && (req.Method == "attach") && (attach < 0):
			attach = i
		}
	}
	require.GreaterOrEqual(t, ack, 0)
	assert.Less(t, ack, attach, "configure acknowledged before the surface changes")

	require.NoError(t, h.comp.Configure(0, 0, 8))
	require.NoError(t, h.client.RoundTrip(h.ctx))
	assert.Equal(t, []uint32{7, 8}, h.acks(t, 2))
	assert.Equal(t, 1, h.rec.calls)
	assert.Equal(t, Bound, h.coord.State())
	assert.Len(t, h.comp.Frames(), 1)
}

func TestConfigureSize(t *testing.T) {
	h := setup(t)
	require.NoError(t, h.coord.Start())

	require.NoError(t, h.comp.Configure(32, 24, 1))
	require.NoError(t, h.client.RoundTrip(h.ctx))
	width, height := h.coord.Size()
	assert.Equal(t, 32, width)
	assert.Equal(t, 24, height)
	assert.Equal(t, [][2]int{{32, 24}}, h.sizes)

	require.NoError(t, h.comp.Configure(64, 48, 2))
	require.NoError(t, h.client.RoundTrip(h.ctx))
	width, height = h.coord.Size()
	assert.Equal(t, 32, width, "size is fixed once the window exists")
	assert.Equal(t, 24, height)
}

func TestClose(t *testing.T) {
	h := setup(t)
	require.NoError(t, h.coord.Start())

	require.NoError(t, h.comp.CloseToplevel())
	err := h.client.RoundTrip(h.ctx)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Zero(t, h.rec.calls)
}

func TestRenderError(t *testing.T) {
	h := setup(t)
	h.rec.err = &render.ShaderCompilationError{Stage: render.FRAGMENT_SHADER, Log: "bad"}
	require.NoError(t, h.coord.Start())

	require.NoError(t, h.comp.Configure(0, 0, 3))
	err := h.client.RoundTrip(h.ctx)
	var serr *render.ShaderCompilationError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "bad", serr.Log)

	assert.Equal(t, []uint32{3}, h.acks(t, 1))
	assert.Equal(t, Configured, h.coord.State())
	assert.Empty(t, h.comp.Frames())
}

func TestNewWindowError(t *testing.T) {
	h := setup(t)
	failure := errors.New("no buffer")
	h.coord.opts.NewWindow = func(*wl.Surface, int, int) (accel.NativeWindow, error) {
		return nil, failure
	}
	require.NoError(t, h.coord.Start())

	require.NoError(t, h.comp.Configure(0, 0, 5))
	err := h.client.RoundTrip(h.ctx)
	assert.ErrorIs(t, err, failure)
	assert.Zero(t, h.rec.calls)
	assert.Nil(t, h.coord.Window())
}
