package wl

import "deedles.dev/wlgl/wire"

const (
	CompositorInterface = "wl_compositor"
	SurfaceInterface    = "wl_surface"
)

// Compositor is a wl_compositor.
type Compositor struct {
	proxy
}

// BindCompositor binds the wl_compositor global with the given name.
func BindCompositor(client *Client, registry *Registry, name, version uint32) *Compositor {
	compositor := &Compositor{}
	compositor.init(client, CompositorInterface, version)
	registry.Bind(name, compositor, version)
	return compositor
}

// CreateSurface creates a new Surface. Surfaces share the version of
// the Compositor that created them.
func (c *Compositor) CreateSurface() *Surface {
	surface := &Surface{}
	surface.init(c.client, SurfaceInterface, c.version)
	c.client.Add(surface)
	c.request(0, surface)
	return surface
}

func (c *Compositor) Dispatch(msg *wire.MessageBuffer) error {
	return c.unknownEvent(msg)
}
