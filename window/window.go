// Package window coordinates a toplevel shell surface with an
// acceleration context.
//
// A Coordinator moves through the states Created, PendingConfigure,
// Configured and Bound. Nothing is rendered before the compositor has
// sent the first configure and that configure has been acknowledged.
package window

import (
	"errors"
	"fmt"

	"deedles.dev/wlgl/accel"
	wl "deedles.dev/wlgl/client"
	"deedles.dev/wlgl/internal/debug"
	"deedles.dev/wlgl/render"
)

// ErrClosed is returned from Handle when the compositor asks for the
// toplevel to be closed.
var ErrClosed = errors.New("toplevel closed")

// State is the lifecycle state of a Coordinator.
type State int

const (
	// Created means that the surface and its shell roles exist but
	// nothing has been committed.
	Created State = iota

	// PendingConfigure means that the initial commit has been sent
	// and the compositor's configure is awaited.
	PendingConfigure

	// Configured means that a configure has been acknowledged but
	// the acceleration surface is not yet bound.
	Configured

	// Bound means that the acceleration surface exists and the frame
	// has been rendered and presented.
	Bound
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case PendingConfigure:
		return "pending-configure"
	case Configured:
		return "configured"
	case Bound:
		return "bound"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// NewWindowFunc creates a native window of the given size for a
// surface.
type NewWindowFunc func(surface *wl.Surface, width, height int) (accel.NativeWindow, error)

// Renderer draws a frame into the surface of a current context. The
// Functions may be nil, in which case they are loaded from cur.
type Renderer interface {
	Render(cur *accel.Current, f *render.Functions) error
}

// Options configures a Coordinator.
type Options struct {
	Title string
	AppID string

	// Width and Height are used for the native window unless the
	// compositor suggests a size before the first configure.
	Width  int
	Height int

	Display   *accel.Display
	Config    *accel.Config
	Context   *accel.Context
	NewWindow NewWindowFunc
	Renderer  Renderer
}

// Coordinator owns a surface with the xdg_toplevel role and binds it
// to an acceleration context on its first configure. It handles the
// events of the shell objects and must be used from the goroutine
// that dispatches the client's events.
type Coordinator struct {
	opts Options

	wmBase     *wl.WmBase
	surface    *wl.Surface
	xdgSurface *wl.XdgSurface
	toplevel   *wl.Toplevel

	state         State
	width, height int
	window        accel.NativeWindow
	target        *accel.Surface
}

// New creates the surface, xdg_surface and toplevel and installs the
// Coordinator as the handler of them and of wmBase.
func New(compositor *wl.Compositor, wmBase *wl.WmBase, opts Options) *Coordinator {
	c := Coordinator{
		opts:   opts,
		wmBase: wmBase,
		width:  opts.Width,
		height: opts.Height,
	}

	c.surface = compositor.CreateSurface()
	c.surface.Handler = &c
	c.xdgSurface = wmBase.GetXdgSurface(c.surface)
	c.xdgSurface.Handler = &c
	c.toplevel = c.xdgSurface.GetToplevel()
	c.toplevel.Handler = &c
	wmBase.Handler = &c

	return &c
}

// State returns the Coordinator's current state.
func (c *Coordinator) State() State {
	return c.state
}

// Size returns the dimensions that the native window has or will be
// created with.
func (c *Coordinator) Size() (width, height int) {
	return c.width, c.height
}

func (c *Coordinator) Surface() *wl.Surface {
	return c.surface
}

// Window returns the native window. It is nil before the first
// configure.
func (c *Coordinator) Window() accel.NativeWindow {
	return c.window
}

// Start sets the toplevel's app ID and title and performs the initial
// commit.
func (c *Coordinator) Start() error {
	if c.state != Created {
		return fmt.Errorf("start in state %v", c.state)
	}

	c.toplevel.SetAppID(c.opts.AppID)
	c.toplevel.SetTitle(c.opts.Title)
	c.surface.Commit()
	c.setState(PendingConfigure)
	return nil
}

func (c *Coordinator) setState(s State) {
	debug.Logger().Debug("window state changed", "from", c.state, "to", s)
	c.state = s
}

// Handle handles an event sent to one of the Coordinator's objects.
func (c *Coordinator) Handle(ev wl.Event) error {
	switch ev := ev.(type) {
	case wl.WmBasePing:
		c.wmBase.Pong(ev.Serial)
		return nil

	case wl.ToplevelConfigure:
		if (ev.Width > 0) && (ev.Height > 0) && (c.window == nil) {
			c.width, c.height = int(ev.Width), int(ev.Height)
		}
		return nil

	case wl.XdgSurfaceConfigure:
		return c.configure(ev.Serial)

	case wl.ToplevelClose:
		return ErrClosed

	case wl.ToplevelConfigureBounds,
		wl.ToplevelWmCapabilities,
		wl.SurfaceEnter,
		wl.SurfaceLeave,
		wl.SurfacePreferredBufferScale,
		wl.SurfacePreferredBufferTransform:
		return nil

	default:
		debug.Logger().Debug("unexpected window event", "event", fmt.Sprintf("%T", ev))
		return nil
	}
}

func (c *Coordinator) configure(serial uint32) error {
	c.xdgSurface.AckConfigure(serial)

	switch c.state {
	case Created, PendingConfigure:
		c.setState(Configured)
		return c.bind()
	default:
		debug.Logger().Debug("configure acknowledged", "serial", serial)
		return nil
	}
}

// bind creates the native window and acceleration surface, then
// renders and presents a single frame.
func (c *Coordinator) bind() error {
	win, err := c.opts.NewWindow(c.surface, c.width, c.height)
	if err != nil {
		return fmt.Errorf("create native window: %w", err)
	}
	c.window = win

	target, err := c.opts.Display.CreateWindowSurface(c.opts.Config, c.window)
	if err != nil {
		return err
	}
	c.target = target

	cur, err := c.opts.Context.MakeCurrent(c.target)
	if err != nil {
		return err
	}

	err = c.opts.Renderer.Render(cur, nil)
	if err == nil {
		err = cur.SwapBuffers()
	}
	err = errors.Join(err, cur.Release())
	if err != nil {
		return err
	}

	c.setState(Bound)
	debug.Logger().Info("frame presented", "width", c.width, "height", c.height)
	return nil
}

// Destroy destroys the acceleration surface, the native window and
// the protocol objects.
func (c *Coordinator) Destroy() error {
	var errs []error
	if c.target != nil {
		errs = append(errs, c.target.Destroy())
		c.target = nil
	}
	if c.window != nil {
		errs = append(errs, c.window.Destroy())
		c.window = nil
	}

	c.toplevel.Destroy()
	c.xdgSurface.Destroy()
	c.surface.Destroy()
	return errors.Join(errs...)
}
