// Package soft is a software implementation of an accel.Driver. It
// renders on the CPU into shared memory buffers and presents them to
// a Wayland surface. Shaders are WGSL, compiled with naga.
package soft

import (
	"fmt"
	"sync"

	"deedles.dev/wlgl/accel"
	wl "deedles.dev/wlgl/client"
	"deedles.dev/wlgl/internal/debug"
)

type display struct {
	native      *wl.Client
	initialized bool
}

// Driver is a software accel.Driver. The zero value is ready to use.
type Driver struct {
	m        sync.Mutex
	next     accel.Handle
	api      accel.API
	displays map[accel.Handle]*display
	contexts map[accel.Handle]*glContext
	surfaces map[accel.Handle]*surface
	current  *glContext
	procs    map[string]any
}

var _ accel.Driver = (*Driver)(nil)

func (d *Driver) init() {
	if d.displays != nil {
		return
	}
	d.api = accel.OPENGL_ES_API
	d.displays = make(map[accel.Handle]*display)
	d.contexts = make(map[accel.Handle]*glContext)
	d.surfaces = make(map[accel.Handle]*surface)
	d.procs = d.procTable()
}

func (d *Driver) handle() accel.Handle {
	d.next++
	return d.next
}

func (d *Driver) display(h accel.Handle) (*display, error) {
	dpy, ok := d.displays[h]
	if !ok {
		return nil, accel.BAD_DISPLAY
	}
	if !dpy.initialized {
		return nil, accel.NOT_INITIALIZED
	}
	return dpy, nil
}

func (d *Driver) GetDisplay(native *wl.Client) accel.Handle {
	d.m.Lock()
	defer d.m.Unlock()
	d.init()

	if native == nil {
		return 0
	}
	for h, dpy := range d.displays {
		if dpy.native == native {
			return h
		}
	}

	h := d.handle()
	d.displays[h] = &display{native: native}
	return h
}

func (d *Driver) Initialize(dpy accel.Handle) (major, minor int32, err error) {
	d.m.Lock()
	defer d.m.Unlock()
	d.init()

	display, ok := d.displays[dpy]
	if !ok {
		return 0, 0, accel.BAD_DISPLAY
	}
	display.initialized = true
	return 1, 5, nil
}

func (d *Driver) Terminate(dpy accel.Handle) error {
	d.m.Lock()
	defer d.m.Unlock()
	d.init()

	display, ok := d.displays[dpy]
	if !ok {
		return accel.BAD_DISPLAY
	}
	display.initialized = false
	return nil
}

func (d *Driver) BindAPI(api accel.API) error {
	d.m.Lock()
	defer d.m.Unlock()
	d.init()

	switch api {
	case accel.OPENGL_API, accel.OPENGL_ES_API:
		d.api = api
		return nil
	default:
		return accel.BAD_PARAMETER
	}
}

func (d *Driver) ChooseConfig(dpy accel.Handle, attribs accel.Attribs) ([]accel.Handle, error) {
	d.m.Lock()
	defer d.m.Unlock()
	d.init()

	_, err := d.display(dpy)
	if err != nil {
		return nil, err
	}

	var matches []accel.Handle
	for i := range configs {
		ok, err := configs[i].match(attribs)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, configs[i].handle())
		}
	}
	return matches, nil
}

func (d *Driver) GetConfigAttrib(dpy, config accel.Handle, name int32) (int32, error) {
	d.m.Lock()
	defer d.m.Unlock()
	d.init()

	_, err := d.display(dpy)
	if err != nil {
		return 0, err
	}
	cfg, ok := lookupConfig(config)
	if !ok {
		return 0, accel.BAD_CONFIG
	}
	v, ok := cfg.attrib(name)
	if !ok {
		return 0, accel.BAD_ATTRIBUTE
	}
	return v, nil
}

// supportedVersion reports whether the driver can create a context of
// the given API and version.
func supportedVersion(api accel.API, major, minor int32) bool {
	var maxMinor map[int32]int32
	switch api {
	case accel.OPENGL_API:
		maxMinor = map[int32]int32{1: 5, 2: 1, 3: 3, 4: 6}
	case accel.OPENGL_ES_API:
		maxMinor = map[int32]int32{1: 1, 2: 0, 3: 2}
	}
	hi, ok := maxMinor[major]
	return ok && (minor >= 0) && (minor <= hi)
}

func (d *Driver) CreateContext(dpy, config, share accel.Handle, attribs accel.Attribs) (accel.Handle, error) {
	d.m.Lock()
	defer d.m.Unlock()
	d.init()

	_, err := d.display(dpy)
	if err != nil {
		return 0, err
	}
	cfg, ok := lookupConfig(config)
	if !ok {
		return 0, accel.BAD_CONFIG
	}
	if share != 0 {
		if _, ok := d.contexts[share]; !ok {
			return 0, accel.BAD_CONTEXT
		}
	}
	err = attribs.Validate()
	if err != nil {
		return 0, err
	}

	major, minor := int32(1), int32(0)
	profile := int32(accel.CONTEXT_CORE_PROFILE_BIT)
	attribs.Pairs(func(name, value int32) bool {
		switch name {
		case accel.CONTEXT_MAJOR_VERSION:
			major = value
		case accel.CONTEXT_MINOR_VERSION:
			minor = value
		case accel.CONTEXT_PROFILE_MASK:
			profile = value
		default:
			err = accel.BAD_ATTRIBUTE
			return false
		}
		return true
	})
	if err != nil {
		return 0, err
	}

	renderable := int32(accel.OPENGL_BIT)
	if d.api == accel.OPENGL_ES_API {
		renderable = accel.OPENGL_ES2_BIT
		if major >= 3 {
			renderable = accel.OPENGL_ES3_BIT
		}
	}
	if cfg.renderableType&renderable == 0 {
		return 0, accel.BAD_CONFIG
	}
	if !supportedVersion(d.api, major, minor) {
		return 0, accel.BAD_MATCH
	}
	if (d.api == accel.OPENGL_API) && (profile&^(accel.CONTEXT_CORE_PROFILE_BIT|accel.CONTEXT_COMPATIBILITY_PROFILE_BIT) != 0) {
		return 0, accel.BAD_ATTRIBUTE
	}

	h := d.handle()
	d.contexts[h] = newContext(d.api, major, minor, profile, cfg)
	debug.Logger().Debug("software context created", "api", d.api, "version", fmt.Sprintf("%v.%v", major, minor), "config", cfg.name)
	return h, nil
}

func (d *Driver) DestroyContext(dpy, ctx accel.Handle) error {
	d.m.Lock()
	defer d.m.Unlock()
	d.init()

	_, err := d.display(dpy)
	if err != nil {
		return err
	}
	c, ok := d.contexts[ctx]
	if !ok {
		return accel.BAD_CONTEXT
	}
	if d.current == c {
		return accel.BAD_ACCESS
	}
	delete(d.contexts, ctx)
	return nil
}

func (d *Driver) CreateWindowSurface(dpy, config accel.Handle, win accel.NativeWindow, attribs accel.Attribs) (accel.Handle, error) {
	d.m.Lock()
	defer d.m.Unlock()
	d.init()

	_, err := d.display(dpy)
	if err != nil {
		return 0, err
	}
	cfg, ok := lookupConfig(config)
	if !ok {
		return 0, accel.BAD_CONFIG
	}
	if cfg.surfaceType&accel.WINDOW_BIT == 0 {
		return 0, accel.BAD_MATCH
	}
	w, ok := win.(*Window)
	if !ok || (w == nil) {
		return 0, accel.BAD_NATIVE_WINDOW
	}
	for _, s := range d.surfaces {
		if s.window == w {
			return 0, accel.BAD_ALLOC
		}
	}

	h := d.handle()
	d.surfaces[h] = newSurface(cfg, w)
	return h, nil
}

func (d *Driver) DestroySurface(dpy, surface accel.Handle) error {
	d.m.Lock()
	defer d.m.Unlock()
	d.init()

	_, err := d.display(dpy)
	if err != nil {
		return err
	}
	s, ok := d.surfaces[surface]
	if !ok {
		return accel.BAD_SURFACE
	}
	if (d.current != nil) && (d.current.target == s) {
		return accel.BAD_ACCESS
	}
	delete(d.surfaces, surface)
	return nil
}

func (d *Driver) MakeCurrent(dpy, draw, read, ctx accel.Handle) error {
	d.m.Lock()
	defer d.m.Unlock()
	d.init()

	_, err := d.display(dpy)
	if err != nil {
		return err
	}

	if ctx == 0 {
		if (draw != 0) || (read != 0) {
			return accel.BAD_MATCH
		}
		if d.current != nil {
			d.current.bind(nil)
			d.current = nil
		}
		return nil
	}

	c, ok := d.contexts[ctx]
	if !ok {
		return accel.BAD_CONTEXT
	}
	if draw != read {
		return accel.BAD_MATCH
	}
	s, ok := d.surfaces[draw]
	if !ok {
		return accel.BAD_SURFACE
	}
	if s.config != c.config {
		return accel.BAD_MATCH
	}

	if d.current != nil {
		d.current.bind(nil)
	}
	c.bind(s)
	d.current = c
	return nil
}

func (d *Driver) SwapBuffers(dpy, surface accel.Handle) error {
	d.m.Lock()
	defer d.m.Unlock()
	d.init()

	_, err := d.display(dpy)
	if err != nil {
		return err
	}
	s, ok := d.surfaces[surface]
	if !ok {
		return accel.BAD_SURFACE
	}
	if (d.current == nil) || (d.current.target != s) {
		return accel.BAD_SURFACE
	}

	s.swap()
	return nil
}

func (d *Driver) GetProcAddress(name string) any {
	d.m.Lock()
	defer d.m.Unlock()
	d.init()

	return d.procs[name]
}
