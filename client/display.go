package wl

import "deedles.dev/wlgl/wire"

const (
	DisplayInterface  = "wl_display"
	RegistryInterface = "wl_registry"
	CallbackInterface = "wl_callback"
)

// Display is the wl_display singleton. It always has ID 1.
type Display struct {
	proxy
}

func (d *Display) init(client *Client, iface string, version uint32) {
	d.proxy.init(client, iface, version)
	client.Add(d)
}

// Sync asks the compositor to emit CallbackDone on the returned
// Callback once every previous request has been processed.
func (d *Display) Sync() *Callback {
	callback := &Callback{}
	callback.init(d.client, CallbackInterface, 1)
	d.client.Add(callback)
	d.request(0, callback)
	return callback
}

// GetRegistry creates a new Registry. The compositor announces its
// globals to it as RegistryGlobal events.
func (d *Display) GetRegistry() *Registry {
	registry := &Registry{}
	registry.init(d.client, RegistryInterface, 1)
	d.client.Add(registry)
	d.request(1, registry)
	return registry
}

func (d *Display) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		ev := DisplayError{
			ObjectID: msg.ReadObject(),
			Code:     msg.ReadUint(),
			Message:  msg.ReadString(),
		}
		err := d.emit(msg, &ev)
		if err != nil {
			return err
		}
		return &ev

	case 1:
		ev := DisplayDeleteID{ID: msg.ReadUint()}
		err := d.emit(msg, ev)
		if err != nil {
			return err
		}
		d.client.Delete(ev.ID)
		return nil

	default:
		return d.unknownEvent(msg)
	}
}

// Registry is a wl_registry.
type Registry struct {
	proxy
}

// Bind binds the global with the given numeric name to obj, which
// must not have been added to the client yet.
func (r *Registry) Bind(name uint32, obj wire.Object, version uint32) {
	r.client.Add(obj)
	r.request(0, name, wire.NewID{
		Interface: obj.Interface(),
		Version:   version,
		ID:        obj.ID(),
	})
}

func (r *Registry) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		name := msg.ReadUint()
		iface := msg.ReadString()
		version := msg.ReadUint()
		return r.emit(msg, RegistryGlobal{Name: name, Interface: iface, Version: version})

	case 1:
		return r.emit(msg, RegistryGlobalRemove{Name: msg.ReadUint()})

	default:
		return r.unknownEvent(msg)
	}
}

// Callback is a wl_callback. It is destroyed by the compositor after
// it has been sent CallbackDone.
type Callback struct {
	proxy
}

func (c *Callback) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		return c.emit(msg, CallbackDone{Data: msg.ReadUint()})
	default:
		return c.unknownEvent(msg)
	}
}
