package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"deedles.dev/wlgl/accel"
	"deedles.dev/wlgl/accel/soft"
	wl "deedles.dev/wlgl/client"
	"deedles.dev/wlgl/config"
	"deedles.dev/wlgl/globals"
	"deedles.dev/wlgl/internal/wltest"
	"deedles.dev/wlgl/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGlobals = []wltest.Global{
	{Name: 1, Interface: wl.CompositorInterface, Version: 5},
	{Name: 2, Interface: wl.WmBaseInterface, Version: 4},
	{Name: 3, Interface: wl.ShmInterface, Version: 1},
}

func serve(t *testing.T, cfg config.Config, globals ...wltest.Global) (*wltest.Compositor, <-chan error, context.CancelFunc) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), wltest.DefaultTimeout)
	t.Cleanup(cancel)

	comp, conn := wltest.Start(t, globals...)
	client := wl.NewClient(conn)
	t.Cleanup(func() { client.Close() })

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, client, cfg, new(soft.Driver)) }()
	return comp, done, cancel
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), wltest.DefaultTimeout)
	defer cancel()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		t.Fatal("Serve did not return")
		return nil
	}
}

func TestServe(t *testing.T) {
	comp, done, _ := serve(t, config.Default(), testGlobals...)

	_, err := comp.WaitFor(1, wltest.Method(wl.SurfaceInterface, "commit"))
	require.NoError(t, err)

	binds := comp.Requests(wltest.Method(wl.RegistryInterface, "bind"))
	require.Len(t, binds, 3)
	compositorID, _ := comp.Find(wl.CompositorInterface)
	wmBaseID, _ := comp.Find(wl.WmBaseInterface)
	assert.Equal(t, uint32(5), comp.Version(compositorID))
	assert.Equal(t, uint32(4), comp.Version(wmBaseID))

	require.NoError(t, comp.Ping(3))
	require.NoError(t, comp.Configure(0, 0, 7))
	require.NoError(t, comp.Wait(wltest.DefaultTimeout, func() bool { return len(comp.Frames()) == 1 }))

	frame := comp.Frames()[0]
	assert.Equal(t, 800, frame.Width)
	assert.Equal(t, 600, frame.Height)
	assert.Equal(t, uint32(0xFFFF0000), frame.Pixel(400, 300))
	assert.Equal(t, uint32(0xFFFF0000), frame.Pixel(0, 0))
	assert.Equal(t, uint32(0xFFFF0000), frame.Pixel(799, 599))

	acks, err := comp.WaitFor(1, wltest.Method(wl.XdgSurfaceInterface, "ack_configure"))
	require.NoError(t, err)
	require.Len(t, acks, 1)
	assert.Equal(t, uint32(7), acks[0].Args[0])

	pongs, err := comp.WaitFor(1, wltest.Method(wl.WmBaseInterface, "pong"))
	require.NoError(t, err)
	assert.Equal(t, uint32(3), pongs[0].Args[0])

	require.NoError(t, comp.CloseToplevel())
	assert.NoError(t, wait(t, done))

	assert.Len(t, comp.Requests(wltest.Method(wl.SurfaceInterface, "attach")), 1)
	assert.Len(t, comp.Frames(), 1)
	assert.NoError(t, comp.Err())
}

func TestServeCancel(t *testing.T) {
	comp, done, cancel := serve(t, config.Default(), testGlobals...)

	_, err := comp.WaitFor(1, wltest.Method(wl.SurfaceInterface, "commit"))
	require.NoError(t, err)

	cancel()
	assert.NoError(t, wait(t, done))
	assert.Empty(t, comp.Frames())
}

func TestServeFallback(t *testing.T) {
	cfg := config.Default()
	cfg.GL = config.Version{Major: 4, Minor: 7}
	cfg.Fallbacks = []config.Version{{Major: 4, Minor: 9}, {Major: 3, Minor: 3}}
	comp, done, _ := serve(t, cfg, testGlobals...)

	_, err := comp.WaitFor(1, wltest.Method(wl.SurfaceInterface, "commit"))
	require.NoError(t, err)
	require.NoError(t, comp.Configure(0, 0, 1))
	require.NoError(t, comp.Wait(wltest.DefaultTimeout, func() bool { return len(comp.Frames()) == 1 }))

	require.NoError(t, comp.CloseToplevel())
	assert.NoError(t, wait(t, done))
}

func TestServeContextError(t *testing.T) {
	cfg := config.Default()
	cfg.GL = config.Version{Major: 4, Minor: 7}
	comp, done, _ := serve(t, cfg, testGlobals...)

	err := wait(t, done)
	var cerr *accel.ContextCreationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 1, cerr.Tried)
	assert.ErrorIs(t, err, accel.BAD_MATCH)
	assert.Empty(t, comp.Requests(wltest.Method(wl.RegistryInterface, "bind")))
}

func TestServeMissingShell(t *testing.T) {
	comp, done, _ := serve(t, config.Default(), testGlobals[0], testGlobals[2])

	err := wait(t, done)
	var uerr *globals.UnsupportedInterfaceError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, wl.WmBaseInterface, uerr.Interface)
	assert.Empty(t, comp.Requests(wltest.Method(wl.CompositorInterface, "create_surface")))
}

func TestServeShaderError(t *testing.T) {
	cfg := config.Default()
	cfg.FragmentShader = writeShader(t, "@fragment fn fs_main() -> @location(0) vec4<f32> { return oops; }")
	comp, done, _ := serve(t, cfg, testGlobals...)

	_, err := comp.WaitFor(1, wltest.Method(wl.SurfaceInterface, "commit"))
	require.NoError(t, err)
	require.NoError(t, comp.Configure(0, 0, 2))
	err = wait(t, done)
	var serr *render.ShaderCompilationError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, render.FRAGMENT_SHADER, serr.Stage)
	assert.NotEmpty(t, serr.Log)
	assert.Empty(t, comp.Frames())
}

func TestContextAttribs(t *testing.T) {
	assert.Equal(t, accel.Attribs{
		accel.CONTEXT_MAJOR_VERSION, 4,
		accel.CONTEXT_MINOR_VERSION, 0,
		accel.CONTEXT_PROFILE_MASK, accel.CONTEXT_CORE_PROFILE_BIT,
		accel.NONE,
	}, ContextAttribs(config.Version{Major: 4}, "core"))

	v, ok := ContextAttribs(config.Version{Major: 3, Minor: 3}, "compat").Get(accel.CONTEXT_PROFILE_MASK)
	require.True(t, ok)
	assert.Equal(t, int32(accel.CONTEXT_COMPATIBILITY_PROFILE_BIT), v)
}

func writeShader(t *testing.T, src string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "shader.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}
