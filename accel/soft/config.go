package soft

import (
	"image/color"

	"deedles.dev/wlgl/accel"
)

const dontCare = -1

type config struct {
	id               int32
	red, green, blue int32
	alpha            int32
	surfaceType      int32
	renderableType   int32
	depth, stencil   int32
	name             string
}

var configs = []config{
	{id: 1, red: 5, green: 6, blue: 5, name: "RGB565"},
	{id: 2, red: 8, green: 8, blue: 8, name: "XRGB8888"},
	{id: 3, red: 8, green: 8, blue: 8, alpha: 8, name: "ARGB8888"},
}

func init() {
	for i := range configs {
		configs[i].surfaceType = accel.WINDOW_BIT
		configs[i].renderableType = accel.OPENGL_BIT | accel.OPENGL_ES2_BIT | accel.OPENGL_ES3_BIT
	}
}

func lookupConfig(h accel.Handle) (*config, bool) {
	if (h == 0) || (int(h) > len(configs)) {
		return nil, false
	}
	return &configs[h-1], true
}

func (c *config) handle() accel.Handle {
	return accel.Handle(c.id)
}

func (c *config) attrib(name int32) (int32, bool) {
	switch name {
	case accel.CONFIG_ID:
		return c.id, true
	case accel.RED_SIZE:
		return c.red, true
	case accel.GREEN_SIZE:
		return c.green, true
	case accel.BLUE_SIZE:
		return c.blue, true
	case accel.ALPHA_SIZE:
		return c.alpha, true
	case accel.DEPTH_SIZE:
		return c.depth, true
	case accel.STENCIL_SIZE:
		return c.stencil, true
	case accel.SURFACE_TYPE:
		return c.surfaceType, true
	case accel.RENDERABLE_TYPE:
		return c.renderableType, true
	default:
		return 0, false
	}
}

// match reports whether c satisfies the attribute list. Sizes are
// minimums, bitmasks must be subsets and CONFIG_ID must be exact.
func (c *config) match(attribs accel.Attribs) (ok bool, err error) {
	ok = true
	attribs.Pairs(func(name, value int32) bool {
		have, known := c.attrib(name)
		if !known {
			ok, err = false, accel.BAD_ATTRIBUTE
			return false
		}
		if value == dontCare {
			return true
		}

		switch name {
		case accel.CONFIG_ID:
			ok = have == value
		case accel.SURFACE_TYPE, accel.RENDERABLE_TYPE:
			ok = have&value == value
		default:
			ok = have >= value
		}
		return ok
	})
	return ok, err
}

// quantize reduces col to the precision of the config's channels.
// Configs without alpha are always opaque.
func (c *config) quantize(col color.NRGBA) color.NRGBA {
	reduce := func(v uint8, bits int32) uint8 {
		if bits >= 8 {
			return v
		}
		v >>= 8 - bits
		return v<<(8-bits) | v>>(2*bits-8)
	}

	col.R = reduce(col.R, c.red)
	col.G = reduce(col.G, c.green)
	col.B = reduce(col.B, c.blue)
	if c.alpha == 0 {
		col.A = 0xFF
	}
	return col
}
