package wl

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"os"

	"deedles.dev/wlgl/shm"
	"deedles.dev/ximage/format"
	"golang.org/x/sys/unix"
)

// ImageBuffer is a Buffer backed by shared memory that can be drawn to
// as an image. Its pixels are in the ARGB8888 format.
type ImageBuffer struct {
	w, h int32
	shm  *Shm
	pool *ShmPool
	buf  *Buffer
	file *os.File
	mmap shm.Mmap
}

// NewImageBuffer allocates a w by h ImageBuffer.
func NewImageBuffer(s *Shm, w, h int32) (buf *ImageBuffer, err error) {
	if (w <= 0) || (h <= 0) {
		return nil, fmt.Errorf("invalid image buffer size %vx%v", w, h)
	}
	if int64(w)*4*int64(h) > math.MaxInt32 {
		return nil, fmt.Errorf("image buffer size %vx%v too large", w, h)
	}

	buf = &ImageBuffer{
		w:   w,
		h:   h,
		shm: s,
	}
	defer func() {
		if err != nil {
			buf.Destroy()
			buf = nil
		}
	}()

	file, err := shm.Create()
	if err != nil {
		return buf, fmt.Errorf("create SHM file: %w", err)
	}
	buf.file = file

	err = file.Truncate(int64(buf.Len()))
	if err != nil {
		return buf, fmt.Errorf("truncate SHM file: %w", err)
	}

	mmap, err := shm.MapShared(file, int(buf.Len()), unix.PROT_READ|unix.PROT_WRITE)
	if err != nil {
		return buf, fmt.Errorf("mmap SHM file: %w", err)
	}
	buf.mmap = mmap

	buf.pool = s.CreatePool(file, buf.Len())
	buf.buf = buf.pool.CreateBuffer(0, w, h, buf.Stride(), PixelFormatArgb8888)

	return buf, nil
}

// Destroy releases the buffer and its shared memory.
func (s *ImageBuffer) Destroy() {
	if s.mmap != nil {
		s.mmap.Unmap()
		s.mmap = nil
	}
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}
	if s.buf != nil {
		s.buf.Destroy()
		s.buf = nil
	}
	if s.pool != nil {
		s.pool.Destroy()
		s.pool = nil
	}
}

func (s *ImageBuffer) Shm() *Shm {
	return s.shm
}

func (s *ImageBuffer) ShmPool() *ShmPool {
	return s.pool
}

func (s *ImageBuffer) Buffer() *Buffer {
	return s.buf
}

func (s *ImageBuffer) Stride() int32 {
	return s.w * 4
}

func (s *ImageBuffer) Len() int32 {
	return s.Stride() * s.h
}

func (s *ImageBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, int(s.w), int(s.h))
}

// Image returns a view of the buffer's shared memory. Drawing to it
// changes the buffer's contents directly.
func (s *ImageBuffer) Image() draw.Image {
	return &format.Image{
		Format: format.ARGB8888,
		Rect:   s.Bounds(),
		Pix:    s.mmap,
	}
}
