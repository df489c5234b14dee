package soft

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// surface is a window surface with a back buffer that rendering calls
// draw into.
type surface struct {
	config *config
	window *Window
	back   *image.RGBA
}

func newSurface(cfg *config, win *Window) *surface {
	w, h := win.Size()
	return &surface{
		config: cfg,
		window: win,
		back:   image.NewRGBA(image.Rect(0, 0, w, h)),
	}
}

func (s *surface) fill(col color.NRGBA) {
	draw.Draw(s.back, s.back.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

// rasterize fills triangles given in clip-space coordinates. The
// viewport uses a bottom-left origin. Pixels outside of the triangles
// are left alone.
func (s *surface) rasterize(viewport image.Rectangle, tris [][3][2]float64, col color.NRGBA) {
	fb := s.back.Bounds()
	vp := image.Rect(viewport.Min.X, fb.Dy()-viewport.Max.Y, viewport.Max.X, fb.Dy()-viewport.Min.Y)
	clip := vp.Intersect(fb)
	if clip.Empty() || (len(tris) == 0) {
		return
	}

	z := vector.NewRasterizer(clip.Dx(), clip.Dy())
	z.DrawOp = draw.Over
	for _, tri := range tris {
		for i, p := range tri {
			x := float64(vp.Min.X-clip.Min.X) + (p[0]+1)/2*float64(vp.Dx())
			y := float64(vp.Min.Y-clip.Min.Y) + (1-p[1])/2*float64(vp.Dy())
			if i == 0 {
				z.MoveTo(float32(x), float32(y))
				continue
			}
			z.LineTo(float32(x), float32(y))
		}
		z.ClosePath()
	}
	z.Draw(s.back, clip, image.NewUniform(col), image.Point{})
}

func (s *surface) swap() {
	s.window.present(s.back)
}
