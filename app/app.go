// Package app wires the protocol client, the acceleration driver and
// the window coordinator together and runs the dispatch loop.
package app

import (
	"context"
	"errors"
	"fmt"

	"deedles.dev/wlgl/accel"
	wl "deedles.dev/wlgl/client"
	"deedles.dev/wlgl/config"
	"deedles.dev/wlgl/globals"
	"deedles.dev/wlgl/internal/debug"
	"deedles.dev/wlgl/render"
	"deedles.dev/wlgl/window"
)

// Driver is an acceleration driver that can also create the native
// windows that it renders into.
type Driver interface {
	accel.Driver
	NewWindow(shm *wl.Shm, surface *wl.Surface, width, height int) (accel.NativeWindow, error)
}

// ConfigAttribs are the framebuffer attributes that are requested
// from the driver.
var ConfigAttribs = accel.Attribs{
	accel.RED_SIZE, 8,
	accel.GREEN_SIZE, 8,
	accel.BLUE_SIZE, 8,
	accel.SURFACE_TYPE, accel.WINDOW_BIT,
	accel.RENDERABLE_TYPE, accel.OPENGL_BIT,
	accel.NONE,
}

// ContextAttribs returns the attributes that request an OpenGL
// context of version v with the named profile.
func ContextAttribs(v config.Version, profile string) accel.Attribs {
	mask := int32(accel.CONTEXT_CORE_PROFILE_BIT)
	if profile == "compat" {
		mask = accel.CONTEXT_COMPATIBILITY_PROFILE_BIT
	}

	return accel.Attribs{
		accel.CONTEXT_MAJOR_VERSION, int32(v.Major),
		accel.CONTEXT_MINOR_VERSION, int32(v.Minor),
		accel.CONTEXT_PROFILE_MASK, mask,
		accel.NONE,
	}
}

// Run connects to the compositor named by the environment and calls
// Serve.
func Run(ctx context.Context, cfg config.Config, driver Driver) error {
	client, err := wl.Dial()
	if err != nil {
		return err
	}
	defer client.Close()

	return Serve(ctx, client, cfg, driver)
}

// Serve shows a window on client and renders a frame into it when it
// is first configured. It returns nil when the window is closed or
// ctx is canceled, and otherwise the error that stopped it.
func Serve(ctx context.Context, client *wl.Client, cfg config.Config, driver Driver) error {
	vsrc, fsrc, err := cfg.Shaders()
	if err != nil {
		return err
	}

	display, err := accel.OpenDisplay(driver, client)
	if err != nil {
		return err
	}
	defer display.Terminate()

	err = display.BindAPI(accel.OPENGL_API)
	if err != nil {
		return err
	}

	aconfig, err := display.ChooseConfig(ConfigAttribs)
	if err != nil {
		return err
	}

	fallbacks := make([]accel.Attribs, 0, len(cfg.Fallbacks))
	for _, v := range cfg.Fallbacks {
		fallbacks = append(fallbacks, ContextAttribs(v, cfg.Profile))
	}
	actx, err := display.CreateContext(aconfig, ContextAttribs(cfg.GL, cfg.Profile), fallbacks...)
	if err != nil {
		return err
	}
	defer actx.Destroy()

	registry, err := globals.Resolve(ctx, client)
	if err != nil {
		return err
	}
	compositor, err := registry.BindCompositor()
	if err != nil {
		return err
	}
	wmBase, err := registry.BindWmBase()
	if err != nil {
		return err
	}
	shm, err := registry.BindShm()
	if err != nil {
		return err
	}
	debug.Logger().Info("globals bound", "compositor", compositor.Version(), "wm_base", wmBase.Version(), "shm", shm.Version())

	coord := window.New(compositor, wmBase, window.Options{
		Title:   cfg.Title,
		AppID:   cfg.AppID,
		Width:   cfg.Width,
		Height:  cfg.Height,
		Display: display,
		Config:  aconfig,
		Context: actx,
		NewWindow: func(surface *wl.Surface, width, height int) (accel.NativeWindow, error) {
			return driver.NewWindow(shm, surface, width, height)
		},
		Renderer: &render.Renderer{
			VertexSource:   vsrc,
			FragmentSource: fsrc,
		},
	})
	defer coord.Destroy()

	err = coord.Start()
	if err != nil {
		return err
	}

	return loop(ctx, client)
}

func loop(ctx context.Context, client *wl.Client) error {
	for {
		err := client.Dispatch(ctx)
		switch {
		case err == nil:
		case errors.Is(err, window.ErrClosed):
			debug.Logger().Info("window closed")
			return nil
		case ctx.Err() != nil:
			return nil
		default:
			return fmt.Errorf("dispatch: %w", err)
		}
	}
}
