package compositor

import "github.com/anoncam/core/internal/model"

// debugDim is the brightness multiplier applied outside the face
// region in debug mode, per spec.md §4.4.
const debugDim = 0.5

// drawDebugOverlay dims everything outside the face bbox by 50% and
// draws a bbox outline plus three axis segments projected through the
// pose's model matrix, per spec.md §4.4.
func drawDebugOverlay(out model.Frame, in Input) {
	if !in.Observation.Present {
		return
	}
	bbox := in.Observation.BBox
	w, h := out.Width, out.Height

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			u := (float64(x) + 0.5) / float64(w)
			v := (float64(y) + 0.5) / float64(h)
			if insideBBox(u, v, bbox) {
				continue
			}
			b, g, r, a := sampleBGRA(out, x, y)
			writeBGRA(out, x, y,
				byte(float64(b)*debugDim),
				byte(float64(g)*debugDim),
				byte(float64(r)*debugDim),
				a)
		}
	}

	drawBBoxOutline(out, bbox)
	drawAxes(out, in)
}

func drawBBoxOutline(out model.Frame, bbox model.Rect) {
	w, h := out.Width, out.Height
	x0, y0 := int(bbox.X*float64(w)), int(bbox.Y*float64(h))
	x1, y1 := int((bbox.X+bbox.W)*float64(w)), int((bbox.Y+bbox.H)*float64(h))

	for x := x0; x <= x1; x++ {
		setGreen(out, x, y0)
		setGreen(out, x, y1)
	}
	for y := y0; y <= y1; y++ {
		setGreen(out, x0, y)
		setGreen(out, x1, y)
	}
}

func setGreen(out model.Frame, x, y int) {
	if x < 0 || x >= out.Width || y < 0 || y >= out.Height {
		return
	}
	writeBGRA(out, x, y, 0, 255, 0, 255)
}

// drawAxes draws the three (X=red, Y=green, Z=blue) axis segments
// centered on the face, projected through the pose's model matrix and
// the active view-projection.
func drawAxes(out model.Frame, in Input) {
	origin := mulVec4(in.Pose.ModelMatrix, [4]float64{0, 0, 0, 1})
	axes := []struct {
		dir     [4]float64
		b, g, r byte
	}{
		{[4]float64{0.3, 0, 0, 1}, 0, 0, 255},
		{[4]float64{0, 0.3, 0, 1}, 0, 255, 0},
		{[4]float64{0, 0, 0.3, 1}, 255, 0, 0},
	}

	x0, y0 := projectToScreen(in.ViewProj, origin, out.Width, out.Height)
	for _, ax := range axes {
		tip := mulVec4(in.Pose.ModelMatrix, ax.dir)
		x1, y1 := projectToScreen(in.ViewProj, tip, out.Width, out.Height)
		drawLine(out, x0, y0, x1, y1, ax.b, ax.g, ax.r)
	}
}

func projectToScreen(viewProj model.Mat4, world [4]float64, w, h int) (int, int) {
	clip := mulVec4(viewProj, world)
	ndcX, ndcY := clip[0], clip[1]
	if clip[3] != 0 {
		ndcX /= clip[3]
		ndcY /= clip[3]
	}
	sx := int((ndcX + 1) / 2 * float64(w))
	sy := int((1 - (ndcY+1)/2) * float64(h))
	return sx, sy
}

// drawLine is a standard integer Bresenham line rasterizer.
func drawLine(out model.Frame, x0, y0, x1, y1 int, b, g, r byte) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		if x0 >= 0 && x0 < out.Width && y0 >= 0 && y0 < out.Height {
			writeBGRA(out, x0, y0, b, g, r, 255)
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
