// Package compositor implements component C4 (spec.md §4.4): the GPU
// render pass that draws the pixelated background and the pose-locked
// 3D mask overlay, plus the canonical mask geometries it draws.
package compositor

import (
	"math"
	"sort"

	"github.com/anoncam/core/internal/model"
)

// Style names the five canonical mask variants plus the landmark-derived
// mesh, matching the Style field of internal/config.MaskConfig.
const (
	StyleHelmet        = "helmet"
	StyleEllipsoid     = "ellipsoid"
	StyleLowPolyHelmet = "lowpoly"
	StyleDisc          = "disc"
	StyleQuad          = "quad"
	StyleFaceMesh      = "facemesh"
)

// BuildGeometry constructs the canonical MaskGeometry for the given
// style, per spec.md §3's "Five canonical variants ... plus a
// landmark-derived mesh". Unknown styles fall back to the flat quad,
// the cheapest and most conservative overlay.
func BuildGeometry(style string, live *model.FaceMesh) model.MaskGeometry {
	switch style {
	case StyleHelmet:
		return hemisphericHelmet(16, 8)
	case StyleEllipsoid:
		return organicEllipsoid(20, 10, vec3{1.0, 1.15, 0.9})
	case StyleLowPolyHelmet:
		return hemisphericHelmet(8, 4)
	case StyleDisc:
		return flatDisc(24)
	case StyleFaceMesh:
		if live != nil {
			return faceMeshGeometry(*live)
		}
		return flatQuad()
	case StyleQuad:
		return flatQuad()
	default:
		return flatQuad()
	}
}

type vec3 struct{ X, Y, Z float64 }

// hemisphericHelmet builds a UV-sphere restricted to the upper
// (Y >= 0) hemisphere: `segments` longitude divisions, `rings`
// latitude divisions from the pole to the equator.
func hemisphericHelmet(segments, rings int) model.MaskGeometry {
	return domeMesh(segments, rings, vec3{1, 1, 1}, math.Pi/2)
}

// organicEllipsoid builds a full ellipsoid scaled by radii, per the
// spec.md §9 open question: the two divergent source variants
// (hemisphere helmet, full-ellipsoid helmet) are both kept as distinct
// canonical styles rather than collapsed into one.
func organicEllipsoid(segments, rings int, radii vec3) model.MaskGeometry {
	return domeMesh(segments, rings, radii, math.Pi)
}

// domeMesh generates a latitude/longitude sphere, clipped to the polar
// cap described by maxPolar radians from the top pole (pi/2 = a
// hemisphere, pi = a full sphere), scaled by radii.
func domeMesh(segments, rings int, radii vec3, maxPolar float64) model.MaskGeometry {
	if segments < 3 {
		segments = 3
	}
	if rings < 1 {
		rings = 1
	}

	var verts []model.Point3
	var uvs []model.Point2
	var indices []uint16

	for r := 0; r <= rings; r++ {
		polar := maxPolar * float64(r) / float64(rings)
		y := math.Cos(polar)
		ringRadius := math.Sin(polar)
		for s := 0; s <= segments; s++ {
			azimuth := 2 * math.Pi * float64(s) / float64(segments)
			x := ringRadius * math.Cos(azimuth)
			z := ringRadius * math.Sin(azimuth)
			verts = append(verts, model.Point3{
				X: x * radii.X,
				Y: y * radii.Y,
				Z: z * radii.Z,
			})
			uvs = append(uvs, model.Point2{
				X: float64(s) / float64(segments),
				Y: float64(r) / float64(rings),
			})
		}
	}

	stride := segments + 1
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			a := uint16(r*stride + s)
			b := uint16(r*stride + s + 1)
			c := uint16((r+1)*stride + s)
			d := uint16((r+1)*stride + s + 1)
			indices = append(indices, a, c, b, b, c, d)
		}
	}

	return model.MaskGeometry{Vertices: verts, Indices: indices, UVs: uvs}
}

// flatDisc builds a flat circular fan of `segments` triangles in the
// XY plane, centered at the origin with Z=0.
func flatDisc(segments int) model.MaskGeometry {
	if segments < 3 {
		segments = 3
	}
	verts := make([]model.Point3, 0, segments+1)
	uvs := make([]model.Point2, 0, segments+1)
	indices := make([]uint16, 0, segments*3)

	verts = append(verts, model.Point3{})
	uvs = append(uvs, model.Point2{X: 0.5, Y: 0.5})

	for s := 0; s <= segments; s++ {
		azimuth := 2 * math.Pi * float64(s) / float64(segments)
		x, y := math.Cos(azimuth), math.Sin(azimuth)
		verts = append(verts, model.Point3{X: x, Y: y, Z: 0})
		uvs = append(uvs, model.Point2{X: 0.5 + 0.5*x, Y: 0.5 + 0.5*y})
	}
	for s := 1; s <= segments; s++ {
		indices = append(indices, 0, uint16(s), uint16(s+1))
	}

	return model.MaskGeometry{Vertices: verts, Indices: indices, UVs: uvs}
}

// flatQuad is the cheapest possible overlay: two triangles covering
// [-1,1]^2 at Z=0, used for sticker mode and as the safe fallback.
func flatQuad() model.MaskGeometry {
	return model.MaskGeometry{
		Vertices: []model.Point3{
			{X: -1, Y: -1, Z: 0},
			{X: 1, Y: -1, Z: 0},
			{X: 1, Y: 1, Z: 0},
			{X: -1, Y: 1, Z: 0},
		},
		UVs: []model.Point2{
			{X: 0, Y: 1},
			{X: 1, Y: 1},
			{X: 1, Y: 0},
			{X: 0, Y: 0},
		},
		Indices: []uint16{0, 1, 2, 0, 2, 3},
	}
}

// faceMeshGeometry builds the landmark-derived mesh variant from
// §3: a flat triangulation of the 68 live landmarks, fanned from
// their centroid in angular order. Unlike the fixed 11-triangle
// anchor skeleton used for UV correspondence (internal/pose), this is
// a full-density mesh meant to be worn directly as the mask.
func faceMeshGeometry(mesh model.FaceMesh) model.MaskGeometry {
	pts := mesh.Points[:]
	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	cx /= float64(len(pts))
	cy /= float64(len(pts))

	order := make([]int, len(pts))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		ai := math.Atan2(pts[order[i]].Y-cy, pts[order[i]].X-cx)
		aj := math.Atan2(pts[order[j]].Y-cy, pts[order[j]].X-cx)
		return ai < aj
	})

	verts := make([]model.Point3, 0, len(pts)+1)
	uvs := make([]model.Point2, 0, len(pts)+1)
	verts = append(verts, model.Point3{X: (cx - 0.5) * 2, Y: -(cy - 0.5) * 2, Z: 0})
	uvs = append(uvs, model.Point2{X: cx, Y: cy})
	for _, idx := range order {
		p := pts[idx]
		verts = append(verts, model.Point3{X: (p.X - 0.5) * 2, Y: -(p.Y - 0.5) * 2, Z: 0})
		uvs = append(uvs, model.Point2{X: p.X, Y: p.Y})
	}

	indices := make([]uint16, 0, len(pts)*3)
	n := len(pts)
	for i := 0; i < n; i++ {
		a := uint16(0)
		b := uint16(1 + i)
		c := uint16(1 + (i+1)%n)
		indices = append(indices, a, b, c)
	}

	return model.MaskGeometry{Vertices: verts, Indices: indices, UVs: uvs}
}
