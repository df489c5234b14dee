package wl

import (
	"deedles.dev/wlgl/internal/bin"
	"deedles.dev/wlgl/wire"
)

const (
	WmBaseInterface     = "xdg_wm_base"
	XdgSurfaceInterface = "xdg_surface"
	ToplevelInterface   = "xdg_toplevel"
)

// ToplevelState is a state reported in ToplevelConfigure.
type ToplevelState uint32

const (
	ToplevelStateMaximized ToplevelState = iota + 1
	ToplevelStateFullscreen
	ToplevelStateResizing
	ToplevelStateActivated
	ToplevelStateTiledLeft
	ToplevelStateTiledRight
	ToplevelStateTiledTop
	ToplevelStateTiledBottom
	ToplevelStateSuspended
)

// WmBase is an xdg_wm_base.
type WmBase struct {
	proxy
}

// BindWmBase binds the xdg_wm_base global with the given name.
func BindWmBase(client *Client, registry *Registry, name, version uint32) *WmBase {
	wmBase := &WmBase{}
	wmBase.init(client, WmBaseInterface, version)
	registry.Bind(name, wmBase, version)
	return wmBase
}

func (w *WmBase) Destroy() {
	w.request(0)
}

// GetXdgSurface gives surface the xdg_surface interface.
func (w *WmBase) GetXdgSurface(surface *Surface) *XdgSurface {
	xs := &XdgSurface{}
	xs.init(w.client, XdgSurfaceInterface, w.version)
	w.client.Add(xs)
	w.request(2, xs, surface)
	return xs
}

// Pong answers a WmBasePing.
func (w *WmBase) Pong(serial uint32) {
	w.request(3, serial)
}

func (w *WmBase) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		return w.emit(msg, WmBasePing{Serial: msg.ReadUint()})
	default:
		return w.unknownEvent(msg)
	}
}

// XdgSurface is an xdg_surface.
type XdgSurface struct {
	proxy
}

func (xs *XdgSurface) Destroy() {
	xs.request(0)
}

// GetToplevel gives the surface the toplevel role.
func (xs *XdgSurface) GetToplevel() *Toplevel {
	toplevel := &Toplevel{}
	toplevel.init(xs.client, ToplevelInterface, xs.version)
	xs.client.Add(toplevel)
	xs.request(1, toplevel)
	return toplevel
}

func (xs *XdgSurface) SetWindowGeometry(x, y, width, height int32) {
	xs.request(3, x, y, width, height)
}

// AckConfigure acknowledges the XdgSurfaceConfigure with the given
// serial.
func (xs *XdgSurface) AckConfigure(serial uint32) {
	xs.request(4, serial)
}

func (xs *XdgSurface) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		return xs.emit(msg, XdgSurfaceConfigure{Serial: msg.ReadUint()})
	default:
		return xs.unknownEvent(msg)
	}
}

// Toplevel is an xdg_toplevel.
type Toplevel struct {
	proxy
}

func (t *Toplevel) Destroy() {
	t.request(0)
}

func (t *Toplevel) SetTitle(title string) {
	t.request(2, title)
}

func (t *Toplevel) SetAppID(id string) {
	t.request(3, id)
}

func (t *Toplevel) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		width := msg.ReadInt()
		height := msg.ReadInt()
		states := bin.Uint32s(msg.ReadArray())
		ev := ToplevelConfigure{
			Width:  width,
			Height: height,
			States: make([]ToplevelState, 0, len(states)),
		}
		for _, s := range states {
			ev.States = append(ev.States, ToplevelState(s))
		}
		return t.emit(msg, ev)

	case 1:
		return t.emit(msg, ToplevelClose{})

	case 2:
		width := msg.ReadInt()
		height := msg.ReadInt()
		return t.emit(msg, ToplevelConfigureBounds{Width: width, Height: height})

	case 3:
		return t.emit(msg, ToplevelWmCapabilities{Capabilities: bin.Uint32s(msg.ReadArray())})

	default:
		return t.unknownEvent(msg)
	}
}
