package wl

import (
	"os"

	"deedles.dev/wlgl/wire"
)

const (
	ShmInterface     = "wl_shm"
	ShmPoolInterface = "wl_shm_pool"
	BufferInterface  = "wl_buffer"
)

// PixelFormat is a wl_shm pixel format. Apart from the two formats
// that every compositor supports, the values are DRM fourcc codes.
type PixelFormat uint32

const (
	PixelFormatArgb8888 PixelFormat = 0
	PixelFormatXrgb8888 PixelFormat = 1
)

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatArgb8888:
		return "argb8888"
	case PixelFormatXrgb8888:
		return "xrgb8888"
	default:
		return string([]byte{byte(f), byte(f >> 8), byte(f >> 16), byte(f >> 24)})
	}
}

// Shm is a wl_shm.
type Shm struct {
	proxy
}

// BindShm binds the wl_shm global with the given name.
func BindShm(client *Client, registry *Registry, name, version uint32) *Shm {
	shm := &Shm{}
	shm.init(client, ShmInterface, version)
	registry.Bind(name, shm, version)
	return shm
}

// CreatePool creates a pool backed by size bytes of file. The file
// may be closed once the pool has been created.
func (shm *Shm) CreatePool(file *os.File, size int32) *ShmPool {
	pool := &ShmPool{}
	pool.init(shm.client, ShmPoolInterface, shm.version)
	shm.client.Add(pool)
	shm.request(0, pool, file, size)
	return pool
}

// Release destroys the object. It requires version 2 and does
// nothing on older versions.
func (shm *Shm) Release() {
	if shm.version < 2 {
		return
	}
	shm.request(1)
}

func (shm *Shm) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		return shm.emit(msg, ShmFormat{Format: PixelFormat(msg.ReadUint())})
	default:
		return shm.unknownEvent(msg)
	}
}

// ShmPool is a wl_shm_pool.
type ShmPool struct {
	proxy
}

// CreateBuffer creates a Buffer from part of the pool.
func (pool *ShmPool) CreateBuffer(offset, width, height, stride int32, format PixelFormat) *Buffer {
	buf := &Buffer{}
	buf.init(pool.client, BufferInterface, 1)
	pool.client.Add(buf)
	pool.request(0, buf, offset, width, height, stride, uint32(format))
	return buf
}

// Destroy destroys the pool. Buffers created from it remain valid.
func (pool *ShmPool) Destroy() {
	pool.request(1)
}

// Resize grows the pool to size bytes.
func (pool *ShmPool) Resize(size int32) {
	pool.request(2, size)
}

func (pool *ShmPool) Dispatch(msg *wire.MessageBuffer) error {
	return pool.unknownEvent(msg)
}

// Buffer is a wl_buffer.
type Buffer struct {
	proxy
}

func (buf *Buffer) Destroy() {
	buf.request(0)
}

func (buf *Buffer) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		return buf.emit(msg, BufferRelease{})
	default:
		return buf.unknownEvent(msg)
	}
}
