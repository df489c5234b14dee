package soft

import (
	"fmt"
	"image"
	"math"

	"deedles.dev/wlgl/accel"
	wl "deedles.dev/wlgl/client"
	"golang.org/x/image/draw"
)

// Window is a native window backed by a shared memory buffer. Frames
// swapped to it are copied into the buffer and committed to the
// surface.
type Window struct {
	surface *wl.Surface
	buf     *wl.ImageBuffer
	frames  int
}

// NewWindow creates a width by height Window for surface.
func NewWindow(shm *wl.Shm, surface *wl.Surface, width, height int) (*Window, error) {
	if (width > math.MaxInt32) || (height > math.MaxInt32) {
		return nil, fmt.Errorf("window size %vx%v too large", width, height)
	}

	buf, err := wl.NewImageBuffer(shm, int32(width), int32(height))
	if err != nil {
		return nil, fmt.Errorf("create window buffer: %w", err)
	}

	return &Window{
		surface: surface,
		buf:     buf,
	}, nil
}

func (w *Window) Surface() *wl.Surface {
	return w.surface
}

func (w *Window) Size() (width, height int) {
	b := w.buf.Bounds()
	return b.Dx(), b.Dy()
}

// Frames returns the number of frames that have been presented.
func (w *Window) Frames() int {
	return w.frames
}

// Destroy releases the window's buffer. The surface is not destroyed.
func (w *Window) Destroy() error {
	w.buf.Destroy()
	return nil
}

// present copies img into the window's buffer, scaling it if the sizes
// differ, and commits it.
func (w *Window) present(img image.Image) {
	dst := w.buf.Image()
	if img.Bounds().Size() == dst.Bounds().Size() {
		draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	}

	b := dst.Bounds()
	w.surface.Attach(w.buf.Buffer(), 0, 0)
	w.surface.DamageBuffer(0, 0, int32(b.Dx()), int32(b.Dy()))
	w.surface.Commit()
	w.frames++
}

// NewWindow creates a Window for surface. It lets the Driver serve as
// the native window factory of the code that uses it.
func (d *Driver) NewWindow(shm *wl.Shm, surface *wl.Surface, width, height int) (accel.NativeWindow, error) {
	win, err := NewWindow(shm, surface, width, height)
	if err != nil {
		return nil, err
	}
	return win, nil
}
