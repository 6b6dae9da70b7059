package compositor

import (
	"math"

	"github.com/anoncam/core/internal/model"
)

// Software is a CPU reference implementation of Renderer. It is used
// as the headless/degraded fallback when no GPU shader runtime is
// available and doubles as the ground truth for the byte-level
// invariants in spec.md §8 (gamma, pixelation blockiness, mask
// bypass when hasFace=false), which are awkward to assert against a
// real shader pipeline's float rounding.
type Software struct {
	width, height int
}

// NewSoftware constructs a software renderer for the given resolution.
func NewSoftware(width, height int) *Software {
	return &Software{width: width, height: height}
}

func (s *Software) Resize(width, height int) {
	s.width = width
	s.height = height
}

func (s *Software) Close() {}

// Render implements the two-stage pass from spec.md §4.4: a
// pixelated background quad, then (conditionally) a pose-locked mask
// overlay.
func (s *Software) Render(in Input) (model.Frame, error) {
	w, h := in.Frame.Width, in.Frame.Height
	out := model.Frame{
		Width:       w,
		Height:      h,
		Stride:      w * 4,
		Pixels:      make([]byte, w*h*4),
		TimestampNS: in.Frame.TimestampNS,
	}

	hasFace := in.Observation.Present
	pixelate := hasFace && in.Settings.PixelSize > 0

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			u := (float64(x) + 0.5) / float64(w)
			v := (float64(y) + 0.5) / float64(h)

			sx, sy := x, y
			if pixelate && insideBBox(u, v, in.Observation.BBox) {
				sx, sy = snapToGrid(u, v, in.Settings.PixelSize, w, h)
			}
			r, g, b, a := sampleBGRA(in.Frame, sx, sy)
			r, g, b = applyGamma(r), applyGamma(g), applyGamma(b)
			writeBGRA(out, x, y, r, g, b, a)
		}
	}

	if hasFace && in.Settings.MaskEnabled {
		drawMask(out, in)
	}

	if in.Settings.Debug {
		drawDebugOverlay(out, in)
	}

	return out, nil
}

func insideBBox(u, v float64, bbox model.Rect) bool {
	return u >= bbox.X && u <= bbox.X+bbox.W && v >= bbox.Y && v <= bbox.Y+bbox.H
}

// snapToGrid rounds (u,v) down to the nearest pixelSize-sized cell and
// returns the pixel coordinate of that cell's center, clamped to image
// bounds, per spec.md §4.4's "snap UV to a grid of cell size pixelSize
// before sampling".
func snapToGrid(u, v, pixelSize float64, w, h int) (int, int) {
	cellU := math.Floor(u/pixelSize) * pixelSize
	cellV := math.Floor(v/pixelSize) * pixelSize
	su := cellU + pixelSize/2
	sv := cellV + pixelSize/2
	sx := int(su * float64(w))
	sy := int(sv * float64(h))
	if sx < 0 {
		sx = 0
	}
	if sx >= w {
		sx = w - 1
	}
	if sy < 0 {
		sy = 0
	}
	if sy >= h {
		sy = h - 1
	}
	return sx, sy
}

func sampleBGRA(f model.Frame, x, y int) (b, g, r, a byte) {
	off := y*f.Stride + x*4
	if off < 0 || off+4 > len(f.Pixels) {
		return 0, 0, 0, 0
	}
	return f.Pixels[off], f.Pixels[off+1], f.Pixels[off+2], f.Pixels[off+3]
}

func writeBGRA(f model.Frame, x, y int, b, g, r, a byte) {
	off := y*f.Stride + x*4
	f.Pixels[off] = b
	f.Pixels[off+1] = g
	f.Pixels[off+2] = r
	f.Pixels[off+3] = a
}

// applyGamma applies the global 0.95 gamma from spec.md §8 scenario 1.
func applyGamma(c byte) byte {
	v := float64(c) / 255
	v = math.Pow(v, backgroundGamma)
	out := int(math.Round(v * 255))
	if out < 0 {
		out = 0
	}
	if out > 255 {
		out = 255
	}
	return byte(out)
}
