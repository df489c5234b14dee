package wl

import "fmt"

// Event is an event received from the compositor. The set of event
// types is closed: every type that implements Event is defined in
// this package.
type Event interface {
	event()
}

// Handler handles events sent to an object.
type Handler interface {
	Handle(ev Event) error
}

// HandlerFunc adapts a function into a Handler.
type HandlerFunc func(ev Event) error

func (f HandlerFunc) Handle(ev Event) error {
	return f(ev)
}

// DisplayError is a fatal error reported by the compositor. It is
// returned from Client.Dispatch.
type DisplayError struct {
	ObjectID uint32
	Code     uint32
	Message  string
}

func (err *DisplayError) Error() string {
	return fmt.Sprintf("display error: object %v, code %v: %v", err.ObjectID, err.Code, err.Message)
}

// DisplayDeleteID is sent when the compositor has released an object
// ID.
type DisplayDeleteID struct {
	ID uint32
}

// RegistryGlobal announces a global object.
type RegistryGlobal struct {
	Name      uint32
	Interface string
	Version   uint32
}

// RegistryGlobalRemove announces the removal of a global object.
type RegistryGlobalRemove struct {
	Name uint32
}

// CallbackDone is sent when the request that created a Callback has
// completed.
type CallbackDone struct {
	Data uint32
}

type SurfaceEnter struct {
	Output uint32
}

type SurfaceLeave struct {
	Output uint32
}

type SurfacePreferredBufferScale struct {
	Factor int32
}

type SurfacePreferredBufferTransform struct {
	Transform uint32
}

// ShmFormat announces a pixel format supported by wl_shm.
type ShmFormat struct {
	Format PixelFormat
}

// BufferRelease is sent when the compositor no longer reads from a
// Buffer.
type BufferRelease struct{}

// WmBasePing asks the client to prove that it is still responsive.
type WmBasePing struct {
	Serial uint32
}

// XdgSurfaceConfigure marks the end of a configure sequence. It must
// be acknowledged with the same serial.
type XdgSurfaceConfigure struct {
	Serial uint32
}

// ToplevelConfigure suggests a size and state for a Toplevel. A zero
// width or height means that the client should pick that dimension.
type ToplevelConfigure struct {
	Width  int32
	Height int32
	States []ToplevelState
}

// ToplevelClose is sent when the user wants the window closed.
type ToplevelClose struct{}

type ToplevelConfigureBounds struct {
	Width  int32
	Height int32
}

type ToplevelWmCapabilities struct {
	Capabilities []uint32
}

func (*DisplayError) event()                   {}
func (DisplayDeleteID) event()                 {}
func (RegistryGlobal) event()                  {}
func (RegistryGlobalRemove) event()            {}
func (CallbackDone) event()                    {}
func (SurfaceEnter) event()                    {}
func (SurfaceLeave) event()                    {}
func (SurfacePreferredBufferScale) event()     {}
func (SurfacePreferredBufferTransform) event() {}
func (ShmFormat) event()                       {}
func (BufferRelease) event()                   {}
func (WmBasePing) event()                      {}
func (XdgSurfaceConfigure) event()             {}
func (ToplevelConfigure) event()               {}
func (ToplevelClose) event()                   {}
func (ToplevelConfigureBounds) event()         {}
func (ToplevelWmCapabilities) event()          {}
