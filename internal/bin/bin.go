// Package bin contains utilities for dealing with the host-endian
// binary representations used by the Wayland wire protocol.
package bin

import (
	"encoding/binary"
	"io"
)

// Order is the host byte order.
var Order = binary.NativeEndian

func Read[T ~int32 | ~uint32](r io.Reader) (T, error) {
	var data [4]byte
	_, err := io.ReadFull(r, data[:])
	if err != nil {
		return 0, err
	}

	return T(Order.Uint32(data[:])), nil
}

func Write[T ~int32 | ~uint32](w io.Writer, v T) error {
	var data [4]byte
	Order.PutUint32(data[:], uint32(v))
	n, err := w.Write(data[:])
	if (err == nil) && (n < len(data)) {
		return io.ErrShortWrite
	}
	return err
}

// Uint32s decodes data as a sequence of 32-bit values. Trailing bytes
// that do not form a complete value are ignored.
func Uint32s(data []byte) []uint32 {
	vals := make([]uint32, 0, len(data)/4)
	for len(data) >= 4 {
		vals = append(vals, Order.Uint32(data))
		data = data[4:]
	}
	return vals
}

// PutUint32s encodes vals as a sequence of 32-bit values.
func PutUint32s(vals ...uint32) []byte {
	data := make([]byte, 4*len(vals))
	for i, v := range vals {
		Order.PutUint32(data[4*i:], v)
	}
	return data
}
