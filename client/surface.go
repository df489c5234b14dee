package wl

import "deedles.dev/wlgl/wire"

// Surface is a wl_surface.
type Surface struct {
	proxy
}

// Destroy destroys the surface.
func (s *Surface) Destroy() {
	s.request(0)
}

// Attach sets buf as the surface's pending content. A nil buf removes
// the surface's content.
func (s *Surface) Attach(buf *Buffer, x, y int32) {
	if buf == nil {
		s.request(1, nil, x, y)
		return
	}
	s.request(1, buf, x, y)
}

// Damage marks part of the surface as changed, in surface
// coordinates.
func (s *Surface) Damage(x, y, width, height int32) {
	s.request(2, x, y, width, height)
}

// Frame requests a Callback that is done when it is a good time to
// draw a new frame.
func (s *Surface) Frame() *Callback {
	callback := &Callback{}
	callback.init(s.client, CallbackInterface, 1)
	s.client.Add(callback)
	s.request(3, callback)
	return callback
}

// Commit atomically applies the surface's pending state.
func (s *Surface) Commit() {
	s.request(6)
}

// DamageBuffer marks part of the surface as changed, in buffer
// coordinates. It requires version 4. Older surfaces fall back to
// Damage, which is equivalent while the buffer scale and transform
// are left at their defaults.
func (s *Surface) DamageBuffer(x, y, width, height int32) {
	if s.version < 4 {
		s.Damage(x, y, width, height)
		return
	}
	s.request(9, x, y, width, height)
}

func (s *Surface) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		return s.emit(msg, SurfaceEnter{Output: msg.ReadObject()})
	case 1:
		return s.emit(msg, SurfaceLeave{Output: msg.ReadObject()})
	case 2:
		return s.emit(msg, SurfacePreferredBufferScale{Factor: msg.ReadInt()})
	case 3:
		return s.emit(msg, SurfacePreferredBufferTransform{Transform: msg.ReadUint()})
	default:
		return s.unknownEvent(msg)
	}
}
