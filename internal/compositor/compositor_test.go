package compositor

import (
	"testing"

	"github.com/anoncam/core/internal/model"
)

func solidFrame(w, h int, b, g, r, a byte) model.Frame {
	pix := make([]byte, w*h*4)
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = b, g, r, a
	}
	return model.Frame{Width: w, Height: h, Stride: w * 4, Pixels: pix}
}

func checkerboard(w, h, cell int) model.Frame {
	pix := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := (y*w + x) * 4
			if ((x/cell)+(y/cell))%2 == 0 {
				pix[off], pix[off+1], pix[off+2], pix[off+3] = 200, 200, 200, 255
			} else {
				pix[off], pix[off+1], pix[off+2], pix[off+3] = 20, 20, 20, 255
			}
		}
	}
	return model.Frame{Width: w, Height: h, Stride: w * 4, Pixels: pix}
}

func absByte(a, b byte) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// TestNoFacePixelateOffMaskOff is spec.md §8 scenario 1: a constant
// gray frame should pass through unchanged modulo the gamma curve,
// tolerance <= 2/255 per channel.
func TestNoFacePixelateOffMaskOff(t *testing.T) {
	r := NewSoftware(640, 480)
	frame := solidFrame(640, 480, 128, 128, 128, 255)

	out, err := r.Render(Input{
		Frame:       frame,
		Observation: model.EmptyObservation(),
		Pose:        model.IdentityPose(),
		ViewProj:    model.Identity4(),
		Settings:    RenderSettings{},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	want := applyGamma(128)
	for i := 0; i+3 < len(out.Pixels); i += 4 {
		if absByte(out.Pixels[i], want) > 2 {
			t.Fatalf("pixel %d: got %d want ~%d (tolerance 2)", i, out.Pixels[i], want)
		}
	}
}

// TestFaceCenterPixelateOn is spec.md §8 scenario 2: a checkerboard
// frame with bbox=(0.25,0.25,0.5,0.5), pixel_size=0.1 should be
// blocky (every 64x48 region uniform for 640x480) inside the bbox.
// The pixelation grid is anchored at the frame origin, so the blocks
// checked are the 64x48 grid cells, clipped to the bbox.
func TestFaceCenterPixelateOn(t *testing.T) {
	r := NewSoftware(640, 480)
	frame := checkerboard(640, 480, 16)

	obs := model.FaceObservation{
		Present: true,
		BBox:    model.Rect{X: 0.25, Y: 0.25, W: 0.5, H: 0.5},
	}

	out, err := r.Render(Input{
		Frame:       frame,
		Observation: obs,
		Pose:        model.IdentityPose(),
		ViewProj:    model.Identity4(),
		Settings:    RenderSettings{PixelSize: 0.1},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	blockW, blockH := 64, 48
	x0, y0 := 160, 120 // bbox origin in pixels
	x1, y1 := 480, 360 // bbox far edge in pixels
	for cy := (y0 / blockH) * blockH; cy < y1; cy += blockH {
		for cx := (x0 / blockW) * blockW; cx < x1; cx += blockW {
			px0, py0 := max(cx, x0), max(cy, y0)
			ref := out.Pixels[py0*out.Stride+px0*4]
			for py := py0; py < min(cy+blockH, y1); py++ {
				for px := px0; px < min(cx+blockW, x1); px++ {
					off := py*out.Stride + px*4
					if absByte(out.Pixels[off], ref) > 0 {
						t.Fatalf("block at (%d,%d) not uniform at (%d,%d): got %d want %d", cx, cy, px, py, out.Pixels[off], ref)
					}
				}
			}
		}
	}
}

// TestMaskDisabledWhenNoFace is spec.md §8 scenario 3: with
// style=helmet but hasFace=false, output must equal the pixelate-off
// case (mask suppressed entirely).
func TestMaskDisabledWhenNoFace(t *testing.T) {
	frame := solidFrame(320, 240, 90, 100, 110, 255)
	geom := BuildGeometry(StyleHelmet, nil)

	base, err := NewSoftware(320, 240).Render(Input{
		Frame:       frame,
		Observation: model.EmptyObservation(),
		Pose:        model.IdentityPose(),
		ViewProj:    model.Identity4(),
	})
	if err != nil {
		t.Fatalf("render base: %v", err)
	}

	withMaskRequested, err := NewSoftware(320, 240).Render(Input{
		Frame:       frame,
		Observation: model.EmptyObservation(),
		Pose:        model.IdentityPose(),
		ViewProj:    model.Identity4(),
		Geometry:    geom,
		Settings:    RenderSettings{MaskEnabled: true},
	})
	if err != nil {
		t.Fatalf("render with mask requested: %v", err)
	}

	for i := range base.Pixels {
		if base.Pixels[i] != withMaskRequested.Pixels[i] {
			t.Fatalf("byte %d differs: mask must be suppressed when hasFace=false", i)
		}
	}
}

// TestResolutionChangeOutputsNewSize is spec.md §8 scenario 6: after a
// frame of a new size follows a differently-sized one, the output
// frame's dimensions equal the new size.
func TestResolutionChangeOutputsNewSize(t *testing.T) {
	r := NewSoftware(1280, 720)
	_, err := r.Render(Input{
		Frame:       solidFrame(1280, 720, 1, 2, 3, 255),
		Observation: model.EmptyObservation(),
		Pose:        model.IdentityPose(),
		ViewProj:    model.Identity4(),
	})
	if err != nil {
		t.Fatalf("render 1280x720: %v", err)
	}

	r.Resize(1920, 1080)
	out, err := r.Render(Input{
		Frame:       solidFrame(1920, 1080, 1, 2, 3, 255),
		Observation: model.EmptyObservation(),
		Pose:        model.IdentityPose(),
		ViewProj:    model.Identity4(),
	})
	if err != nil {
		t.Fatalf("render 1920x1080: %v", err)
	}
	if out.Width != 1920 || out.Height != 1080 {
		t.Fatalf("expected output dims 1920x1080, got %dx%d", out.Width, out.Height)
	}
}

func TestBuildGeometry_AllStylesAreValid(t *testing.T) {
	live := sampleFaceMesh()
	for _, style := range []string{StyleHelmet, StyleEllipsoid, StyleLowPolyHelmet, StyleDisc, StyleQuad, StyleFaceMesh} {
		geom := BuildGeometry(style, &live)
		if !geom.Valid() {
			t.Errorf("style %q produced invalid geometry", style)
		}
		if geom.TriangleCount() == 0 {
			t.Errorf("style %q produced zero triangles", style)
		}
	}
}

func TestBuildGeometry_UnknownStyleFallsBackToQuad(t *testing.T) {
	geom := BuildGeometry("nonsense", nil)
	want := flatQuad()
	if len(geom.Vertices) != len(want.Vertices) {
		t.Errorf("expected unknown style to fall back to the flat quad")
	}
}

func TestBufferPool_ReleaseDropsStaleBuffers(t *testing.T) {
	p := newBufferPool(100, 100)
	buf, exhausted := p.acquire()
	if exhausted {
		t.Fatal("expected a fresh pool to serve from its free list")
	}
	p.width, p.height = 200, 200
	p.release(buf) // stale size, must not be re-added
	if len(p.free) != poolDepth-1 {
		t.Errorf("expected the stale buffer to be dropped, free list has %d buffers", len(p.free))
	}
	w, h := p.dimensions()
	if w != 200 || h != 200 {
		t.Fatalf("unexpected pool dims %dx%d", w, h)
	}
}

func TestBufferPool_AcquireReportsExhaustionOnceFreeListIsEmpty(t *testing.T) {
	p := newBufferPool(4, 4)
	for i := 0; i < poolDepth; i++ {
		if _, exhausted := p.acquire(); exhausted {
			t.Fatalf("acquire %d: expected free-list buffer, got exhausted", i)
		}
	}
	if _, exhausted := p.acquire(); !exhausted {
		t.Error("expected acquire to report exhaustion once the free list is drained")
	}
}

func TestBufferPool_ReleaseRefillsFreeList(t *testing.T) {
	p := newBufferPool(4, 4)
	buf, _ := p.acquire()
	p.release(buf)
	if _, exhausted := p.acquire(); exhausted {
		t.Error("expected the released buffer to be served back out")
	}
}

func sampleFaceMesh() model.FaceMesh {
	var pts [68]model.Point2
	for i := range pts {
		pts[i] = model.Point2{X: 0.5, Y: 0.5}
	}
	pts[0] = model.Point2{X: 0.1, Y: 0.2}
	pts[16] = model.Point2{X: 0.9, Y: 0.2}
	pts[8] = model.Point2{X: 0.5, Y: 0.9}
	return model.FaceMesh{Points: pts, BBox: model.Rect{X: 0.1, Y: 0.1, W: 0.8, H: 0.8}, Confidence: 1}
}
