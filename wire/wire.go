// Package wire implements the Wayland wire protocol. It handles
// message framing, argument encoding and decoding, and the Unix
// domain socket transport that carries file descriptors alongside
// messages.
package wire

import (
	"fmt"

	"deedles.dev/wlgl/internal/bin"
)

// byteOrder is the host byte order. The wire protocol always uses
// it.
var byteOrder = bin.Order

// padding returns the number of bytes needed to pad length to a
// multiple of 4.
func padding(length uint32) uint32 {
	return (4 - length%4) % 4
}

// Sender is anything that can be the source of a message.
type Sender interface {
	// ID returns the object's ID, or 0 if it has not been assigned
	// one yet.
	ID() uint32

	// Interface returns the name of the protocol interface that the
	// object implements, such as "wl_surface".
	Interface() string
}

// Object represents a Wayland protocol object.
type Object interface {
	Sender

	// SetID assigns the object's ID.
	SetID(id uint32)

	// Dispatch decodes the message in the buffer and performs the
	// operation it represents.
	Dispatch(msg *MessageBuffer) error

	// Delete is called when the object's ID has been released.
	Delete()
}

// Name returns a human-readable name for obj, formatted the same way
// that libwayland's WAYLAND_DEBUG output does.
func Name(obj Sender) string {
	return fmt.Sprintf("%v@%v", obj.Interface(), obj.ID())
}

// NewID is a new_id argument with no interface specified by the
// protocol, such as the one in wl_registry.bind.
type NewID struct {
	Interface string
	Version   uint32
	ID        uint32
}
