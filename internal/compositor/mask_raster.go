package compositor

import (
	"math"

	"github.com/anoncam/core/internal/model"
)

// vec3 light directions, fixed to keep the software renderer's shading
// deterministic for tests; the GPU renderer passes the same lightA and
// lightB to its Kage shader (shader.go) as uniforms.
var (
	lightA = normalize3(vec3{0.5, 0.6, 1.0})
	lightB = normalize3(vec3{-0.6, 0.3, 0.8})
	viewer = vec3{0, 0, 1}
)

func normalize3(v vec3) vec3 {
	l := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if l < 1e-9 {
		return vec3{0, 0, 1}
	}
	return vec3{v.X / l, v.Y / l, v.Z / l}
}

func sub3(a, b vec3) vec3 { return vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }

func cross3(a, b vec3) vec3 {
	return vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func dot3(a, b vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

func mulVec4(m model.Mat4, v [4]float64) [4]float64 {
	var out [4]float64
	for row := 0; row < 4; row++ {
		out[row] = m[0*4+row]*v[0] + m[1*4+row]*v[1] + m[2*4+row]*v[2] + m[3*4+row]*v[3]
	}
	return out
}

type screenVertex struct {
	sx, sy float64 // pixel coordinates
	z      float64 // NDC depth, for the per-pixel z-buffer test
	world  vec3
}

// drawMask rasterizes the mask geometry into out, applying the
// two-light Lambertian + Fresnel-rim + sine-pattern shading from
// spec.md §4.4. In sticker mode lighting is bypassed and the sampled
// color (or a flat tint, absent a bound texture) is written verbatim.
func drawMask(out model.Frame, in Input) {
	geom := in.Geometry
	if !geom.Valid() || len(geom.Vertices) == 0 {
		return
	}

	w, h := out.Width, out.Height
	depth := make([]float64, w*h)
	for i := range depth {
		depth[i] = math.Inf(1)
	}

	screen := make([]screenVertex, len(geom.Vertices))
	for i, v := range geom.Vertices {
		world := mulVec4(in.Pose.ModelMatrix, [4]float64{v.X, v.Y, v.Z, 1})
		clip := mulVec4(in.ViewProj, world)
		ndcX, ndcY, ndcZ := clip[0], clip[1], clip[2]
		if clip[3] != 0 {
			ndcX /= clip[3]
			ndcY /= clip[3]
			ndcZ /= clip[3]
		}
		screen[i] = screenVertex{
			sx:    (ndcX + 1) / 2 * float64(w),
			sy:    (1 - (ndcY+1)/2) * float64(h),
			z:     ndcZ,
			world: vec3{world[0], world[1], world[2]},
		}
	}

	triCount := len(geom.Indices) / 3
	for t := 0; t < triCount; t++ {
		i0, i1, i2 := geom.Indices[t*3], geom.Indices[t*3+1], geom.Indices[t*3+2]
		if int(i0) >= len(screen) || int(i1) >= len(screen) || int(i2) >= len(screen) {
			continue
		}
		rasterTriangle(out, depth, screen[i0], screen[i1], screen[i2],
			geom.UVs[i0], geom.UVs[i1], geom.UVs[i2], in)
	}
}

func rasterTriangle(out model.Frame, depth []float64, a, b, c screenVertex, uvA, uvB, uvC model.Point2, in Input) {
	minX := int(math.Floor(math.Min(a.sx, math.Min(b.sx, c.sx))))
	maxX := int(math.Ceil(math.Max(a.sx, math.Max(b.sx, c.sx))))
	minY := int(math.Floor(math.Min(a.sy, math.Min(b.sy, c.sy))))
	maxY := int(math.Ceil(math.Max(a.sy, math.Max(b.sy, c.sy))))

	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX > out.Width {
		maxX = out.Width
	}
	if maxY > out.Height {
		maxY = out.Height
	}

	normal := normalize3(cross3(sub3(b.world, a.world), sub3(c.world, a.world)))
	diffuse := 0.6*math.Max(0, dot3(normal, lightA)) + 0.4*math.Max(0, dot3(normal, lightB))
	rim := math.Pow(1-math.Max(0, dot3(normal, viewer)), 3)
	phase := float64(in.Frame.TimestampNS%1_000_000_000) / 1_000_000_000 * 2 * math.Pi

	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			u, v, wgt, ok := edgeBarycentric(a.sx, a.sy, b.sx, b.sy, c.sx, c.sy, px, py)
			if !ok {
				continue
			}
			z := u*a.z + v*b.z + wgt*c.z
			idx := y*out.Width + x
			if z >= depth[idx] {
				continue
			}

			var col [3]float64
			if in.Settings.Sticker {
				uv := model.Point2{
					X: u*uvA.X + v*uvB.X + wgt*uvC.X,
					Y: u*uvA.Y + v*uvB.Y + wgt*uvC.Y,
				}
				col = sampleOrTint(in.MaskTexture, uv, [3]float64{0.75, 0.75, 0.8})
			} else {
				sine := 0.05 * math.Sin(10*(u*uvA.X+v*uvB.X+wgt*uvC.X)+phase)
				shade := clamp01f(diffuse + 0.25*rim + sine)
				uv := model.Point2{
					X: u*uvA.X + v*uvB.X + wgt*uvC.X,
					Y: u*uvA.Y + v*uvB.Y + wgt*uvC.Y,
				}
				base := sampleOrTint(in.MaskTexture, uv, [3]float64{0.7, 0.72, 0.78})
				col = [3]float64{base[0] * shade, base[1] * shade, base[2] * shade}
			}

			depth[idx] = z
			writeBGRA(out, x, y,
				byte(clamp01f(col[0])*255),
				byte(clamp01f(col[1])*255),
				byte(clamp01f(col[2])*255),
				255)
		}
	}
}

func sampleOrTint(tex *model.Frame, uv model.Point2, tint [3]float64) [3]float64 {
	if tex == nil || tex.Width == 0 || tex.Height == 0 {
		return tint
	}
	x := int(clamp01f(uv.X) * float64(tex.Width-1))
	y := int(clamp01f(uv.Y) * float64(tex.Height-1))
	b, g, r, _ := sampleBGRA(*tex, x, y)
	return [3]float64{float64(b) / 255, float64(g) / 255, float64(r) / 255}
}

func clamp01f(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// edgeBarycentric computes screen-space barycentric weights for point
// (px,py) against triangle (ax,ay),(bx,by),(cx,cy), returning ok=false
// if the point lies outside the triangle.
func edgeBarycentric(ax, ay, bx, by, cx, cy, px, py float64) (u, v, w float64, ok bool) {
	d := (by-cy)*(ax-cx) + (cx-bx)*(ay-cy)
	if math.Abs(d) < 1e-12 {
		return 0, 0, 0, false
	}
	u = ((by-cy)*(px-cx) + (cx-bx)*(py-cy)) / d
	v = ((cy-ay)*(px-cx) + (ax-cx)*(py-cy)) / d
	w = 1 - u - v
	if u < -1e-6 || v < -1e-6 || w < -1e-6 {
		return u, v, w, false
	}
	return u, v, w, true
}
