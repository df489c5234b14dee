// Package accel acquires a hardware acceleration context for a
// Wayland surface through an EGL-style Driver.
//
// The acquisition order is fixed: OpenDisplay, ChooseConfig,
// CreateContext, then, once the window has a size, CreateWindowSurface
// and Context.MakeCurrent. The Current returned by MakeCurrent is the
// only way to issue rendering calls and to present a frame.
package accel

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	wl "deedles.dev/wlgl/client"
	"deedles.dev/wlgl/internal/debug"
)

// Handle is an opaque driver object reference. The zero Handle
// refers to nothing.
type Handle uintptr

// NativeWindow binds a Wayland surface to fixed pixel dimensions so
// that a driver can render into it.
type NativeWindow interface {
	Surface() *wl.Surface
	Size() (width, height int)
	Destroy() error
}

// Driver is an EGL-style graphics driver. Methods that fail return an
// Error when the driver can classify the failure.
type Driver interface {
	GetDisplay(native *wl.Client) Handle
	Initialize(dpy Handle) (major, minor int32, err error)
	Terminate(dpy Handle) error
	BindAPI(api API) error
	ChooseConfig(dpy Handle, attribs Attribs) ([]Handle, error)
	GetConfigAttrib(dpy, config Handle, name int32) (int32, error)
	CreateContext(dpy, config, share Handle, attribs Attribs) (Handle, error)
	DestroyContext(dpy, ctx Handle) error
	CreateWindowSurface(dpy, config Handle, win NativeWindow, attribs Attribs) (Handle, error)
	DestroySurface(dpy, surface Handle) error
	MakeCurrent(dpy, draw, read, ctx Handle) error
	SwapBuffers(dpy, surface Handle) error
	GetProcAddress(name string) any
}

var (
	// ErrAlreadyCurrent is returned by MakeCurrent when a context of
	// the same Display is already current.
	ErrAlreadyCurrent = errors.New("a context is already current")

	// ErrReleased is returned when a released Current is used.
	ErrReleased = errors.New("context is no longer current")
)

// Display is an initialized driver display.
type Display struct {
	driver       Driver
	handle       Handle
	major, minor int32

	m       sync.Mutex
	current *Current
}

// OpenDisplay obtains and initializes the driver display for a
// Wayland connection.
func OpenDisplay(driver Driver, native *wl.Client) (*Display, error) {
	handle := driver.GetDisplay(native)
	if handle == 0 {
		return nil, &DisplayInitError{Op: "get display", Err: BAD_DISPLAY}
	}

	major, minor, err := driver.Initialize(handle)
	if err != nil {
		return nil, &DisplayInitError{Op: "initialize", Err: err}
	}

	debug.Logger().Info("acceleration display initialized", "version", fmt.Sprintf("%v.%v", major, minor))

	return &Display{
		driver: driver,
		handle: handle,
		major:  major,
		minor:  minor,
	}, nil
}

// Version returns the version reported by the driver when the display
// was initialized.
func (d *Display) Version() (major, minor int32) {
	return d.major, d.minor
}

// Driver returns the driver that the display was opened with.
func (d *Display) Driver() Driver {
	return d.driver
}

// Terminate releases the display. Objects created from it become
// invalid.
func (d *Display) Terminate() error {
	return d.driver.Terminate(d.handle)
}

// BindAPI selects the client API used by contexts created after it.
func (d *Display) BindAPI(api API) error {
	err := d.driver.BindAPI(api)
	if err != nil {
		return fmt.Errorf("bind %v API: %w", api, err)
	}
	return nil
}

// ChooseConfig returns the first config that the driver reports as
// matching attribs. Matches are not ranked.
func (d *Display) ChooseConfig(attribs Attribs) (*Config, error) {
	err := attribs.Validate()
	if err != nil {
		return nil, &NoMatchingConfigError{Attribs: attribs, Err: err}
	}

	configs, err := d.driver.ChooseConfig(d.handle, attribs)
	if err != nil {
		return nil, &NoMatchingConfigError{Attribs: attribs, Err: err}
	}
	if len(configs) == 0 {
		return nil, &NoMatchingConfigError{Attribs: attribs}
	}

	return &Config{
		display: d,
		handle:  configs[0],
	}, nil
}

// CreateContext creates a rendering context. If the driver rejects
// attribs, each of fallbacks is tried in order. With no fallbacks, a
// rejected attribs is fatal.
func (d *Display) CreateContext(config *Config, attribs Attribs, fallbacks ...Attribs) (*Context, error) {
	var errs []error
	for _, try := range append([]Attribs{attribs}, fallbacks...) {
		handle, err := d.driver.CreateContext(d.handle, config.handle, 0, try)
		if err != nil {
			debug.Logger().Debug("context creation failed", "attribs", try, "err", err)
			errs = append(errs, err)
			continue
		}

		return &Context{
			display: d,
			config:  config,
			handle:  handle,
			attribs: try,
		}, nil
	}

	return nil, &ContextCreationError{Attribs: attribs, Tried: len(errs), Err: errs[len(errs)-1]}
}

// CreateWindowSurface creates a render target for a native window.
func (d *Display) CreateWindowSurface(config *Config, win NativeWindow) (*Surface, error) {
	handle, err := d.driver.CreateWindowSurface(d.handle, config.handle, win, Attribs{NONE})
	if err != nil {
		return nil, &SurfaceError{Err: err}
	}

	return &Surface{
		display: d,
		handle:  handle,
		window:  win,
	}, nil
}

// Current returns the Current of the context that is current on the
// display, or nil if there isn't one.
func (d *Display) Current() *Current {
	d.m.Lock()
	defer d.m.Unlock()
	return d.current
}

// Config is a framebuffer configuration chosen by ChooseConfig.
type Config struct {
	display *Display
	handle  Handle
}

// Attrib queries an attribute of the config.
func (c *Config) Attrib(name int32) (int32, error) {
	return c.display.driver.GetConfigAttrib(c.display.handle, c.handle, name)
}

// Context is a rendering context.
type Context struct {
	display *Display
	config  *Config
	handle  Handle
	attribs Attribs
}

// Config returns the config that the context was created with.
func (c *Context) Config() *Config {
	return c.config
}

// Attribs returns the attribute list that the driver accepted. It is
// one of the fallbacks if the preferred list was rejected.
func (c *Context) Attribs() Attribs {
	return c.attribs
}

// Destroy destroys the context. It must not be current.
func (c *Context) Destroy() error {
	return c.display.driver.DestroyContext(c.display.handle, c.handle)
}

// MakeCurrent binds the context and surface to the calling goroutine's
// OS thread. The thread stays locked until the returned Current is
// released. Only one context per Display may be current at a time.
func (c *Context) MakeCurrent(surface *Surface) (*Current, error) {
	d := c.display
	d.m.Lock()
	defer d.m.Unlock()

	if d.current != nil {
		return nil, ErrAlreadyCurrent
	}

	runtime.LockOSThread()
	err := d.driver.MakeCurrent(d.handle, surface.handle, surface.handle, c.handle)
	if err != nil {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("make current: %w", err)
	}

	d.current = &Current{
		context: c,
		surface: surface,
	}
	return d.current, nil
}

// Surface is a render target created from a NativeWindow.
type Surface struct {
	display *Display
	handle  Handle
	window  NativeWindow
}

// Window returns the native window that the surface renders into.
func (s *Surface) Window() NativeWindow {
	return s.window
}

// Destroy destroys the surface. It must not be current.
func (s *Surface) Destroy() error {
	return s.display.driver.DestroySurface(s.display.handle, s.handle)
}

// Current is a context made current on a thread together with a
// surface. Rendering calls are only valid between MakeCurrent and
// Release, on the goroutine that called MakeCurrent.
type Current struct {
	context  *Context
	surface  *Surface
	released bool
}

// Valid reports whether c has not been released.
func (c *Current) Valid() bool {
	return (c != nil) && !c.released
}

func (c *Current) Context() *Context {
	return c.context
}

func (c *Current) Surface() *Surface {
	return c.surface
}

// ProcAddress looks up a rendering function by name. It returns nil
// if the driver does not provide it.
func (c *Current) ProcAddress(name string) any {
	if !c.Valid() {
		return nil
	}
	return c.context.display.driver.GetProcAddress(name)
}

// SwapBuffers presents the surface's back buffer.
func (c *Current) SwapBuffers() error {
	if !c.Valid() {
		return ErrReleased
	}

	d := c.context.display
	err := d.driver.SwapBuffers(d.handle, c.surface.handle)
	if err != nil {
		return fmt.Errorf("swap buffers: %w", err)
	}
	return nil
}

// Release unbinds the context from the thread. Releasing more than
// once is a no-op.
func (c *Current) Release() error {
	if !c.Valid() {
		return nil
	}

	d := c.context.display
	d.m.Lock()
	defer d.m.Unlock()

	c.released = true
	d.current = nil
	defer runtime.UnlockOSThread()

	err := d.driver.MakeCurrent(d.handle, 0, 0, 0)
	if err != nil {
		return fmt.Errorf("release context: %w", err)
	}
	return nil
}
