package pose

import "github.com/anoncam/core/internal/model"

// Standard 68-point schema indices used to build the 9-anchor
// skeleton, per spec.md §4.3.
const (
	idxRightEyeStart = 36
	idxLeftEyeStart  = 42
	idxNoseTip       = 30
	idxMouthRight    = 48
	idxMouthLeft     = 54
	idxChin          = 8
	idxCheekRight    = 2
	idxCheekLeft     = 14
	idxBrowRight     = 21
	idxBrowLeft      = 22
)

// anchorIndex names the nine semantically anchored points used to
// triangulate a correspondence between two face meshes, per the
// GLOSSARY's "Anchor" entry.
type anchorIndex int

const (
	anchorForehead anchorIndex = iota
	anchorEyeRight
	anchorEyeLeft
	anchorCheekRight
	anchorCheekLeft
	anchorNoseTip
	anchorMouthRight
	anchorMouthLeft
	anchorChin
	anchorCount
)

// triangles is the fixed set of 11 triangles over the 9 anchors
// (spec.md §4.3 step 2): forehead-eyes, eye-nose-forehead pairs,
// cheek-eye-nose pairs, nose-mouth, mouth-cheek-nose pairs,
// chin-cheek-mouth pairs, and a center-chin triangle.
var triangles = [11][3]anchorIndex{
	{anchorForehead, anchorEyeRight, anchorEyeLeft},
	{anchorEyeRight, anchorNoseTip, anchorForehead},
	{anchorEyeLeft, anchorForehead, anchorNoseTip},
	{anchorCheekRight, anchorEyeRight, anchorNoseTip},
	{anchorCheekLeft, anchorNoseTip, anchorEyeLeft},
	{anchorNoseTip, anchorMouthRight, anchorMouthLeft},
	{anchorMouthRight, anchorCheekRight, anchorNoseTip},
	{anchorMouthLeft, anchorNoseTip, anchorCheekLeft},
	{anchorChin, anchorCheekRight, anchorMouthRight},
	{anchorChin, anchorMouthLeft, anchorCheekLeft},
	{anchorMouthRight, anchorMouthLeft, anchorChin},
}

// extractAnchors builds the 9-anchor skeleton from a 68-point mesh.
func extractAnchors(mesh model.FaceMesh) [anchorCount]model.Point2 {
	pts := mesh.Points
	var a [anchorCount]model.Point2
	a[anchorForehead] = midpoint(pts[idxBrowRight], pts[idxBrowLeft])
	a[anchorEyeRight] = ringCenter(pts[:], idxRightEyeStart, 6)
	a[anchorEyeLeft] = ringCenter(pts[:], idxLeftEyeStart, 6)
	a[anchorCheekRight] = pts[idxCheekRight]
	a[anchorCheekLeft] = pts[idxCheekLeft]
	a[anchorNoseTip] = pts[idxNoseTip]
	a[anchorMouthRight] = pts[idxMouthRight]
	a[anchorMouthLeft] = pts[idxMouthLeft]
	a[anchorChin] = pts[idxChin]
	return a
}

func midpoint(a, b model.Point2) model.Point2 {
	return model.Point2{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

func ringCenter(pts []model.Point2, start, n int) model.Point2 {
	var sx, sy float64
	for i := 0; i < n; i++ {
		sx += pts[start+i].X
		sy += pts[start+i].Y
	}
	return model.Point2{X: sx / float64(n), Y: sy / float64(n)}
}

// barycentricTolerance is the edge-spill tolerance from spec.md §4.3:
// a point is considered inside a triangle if all three barycentric
// coordinates are >= -0.1.
const barycentricTolerance = -0.1

// barycentric solves for (u,v,w) such that P = w*v1 + v*v2 + u*v3
// (the two-edge-dot formulation from spec.md §4.3), returning ok=false
// if the triangle is degenerate or the denominator underflows.
func barycentric(v1, v2, v3, p model.Point2) (u, v, w float64, ok bool) {
	e0 := model.Point2{X: v3.X - v1.X, Y: v3.Y - v1.Y}
	e1 := model.Point2{X: v2.X - v1.X, Y: v2.Y - v1.Y}
	e2 := model.Point2{X: p.X - v1.X, Y: p.Y - v1.Y}

	dot00 := e0.X*e0.X + e0.Y*e0.Y
	dot01 := e0.X*e1.X + e0.Y*e1.Y
	dot02 := e0.X*e2.X + e0.Y*e2.Y
	dot11 := e1.X*e1.X + e1.Y*e1.Y
	dot12 := e1.X*e2.X + e1.Y*e2.Y

	denom := dot00*dot11 - dot01*dot01
	if model.NearZero(denom, 1e-9) {
		return 0, 0, 0, false
	}

	invDenom := 1 / denom
	uu := (dot11*dot02 - dot01*dot12) * invDenom
	vv := (dot00*dot12 - dot01*dot02) * invDenom
	ww := 1 - uu - vv

	if uu < barycentricTolerance || vv < barycentricTolerance || ww < barycentricTolerance {
		return uu, vv, ww, false
	}
	return uu, vv, ww, true
}

// degenerateAreaEps is the minimum triangle area (in normalized UV
// units) below which a triangle is skipped as degenerate, per
// spec.md §4.3.
const degenerateAreaEps = 1e-6

func triangleArea(a, b, c model.Point2) float64 {
	return 0.5 * ((b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y))
}

// GenerateUVs derives UVs for each mask vertex from a live face mesh
// and an optional registered texture face mesh, per spec.md §4.3.
//
// If texture or live is nil, every vertex gets the identity UV
// v.xy+0.5.
func GenerateUVs(mask model.MaskGeometry, live *model.FaceMesh, texture *model.FaceMesh) []model.Point2 {
	out := make([]model.Point2, len(mask.Vertices))
	identity := texture == nil || live == nil

	var liveAnchors, texAnchors [anchorCount]model.Point2
	if !identity {
		liveAnchors = extractAnchors(*live)
		texAnchors = extractAnchors(*texture)
	}

	for i, vtx := range mask.Vertices {
		p := model.Point2{X: vtx.X + 0.5, Y: vtx.Y + 0.5}
		if identity {
			out[i] = model.Point2{X: model.Clamp01(p.X), Y: model.Clamp01(p.Y)}
			continue
		}
		out[i] = mapPoint(p, liveAnchors, texAnchors, *live, *texture)
	}
	return out
}

func mapPoint(p model.Point2, liveA, texA [anchorCount]model.Point2, live, texture model.FaceMesh) model.Point2 {
	for _, tri := range triangles {
		v1, v2, v3 := liveA[tri[0]], liveA[tri[1]], liveA[tri[2]]
		if triangleArea(v1, v2, v3) < degenerateAreaEps && triangleArea(v1, v2, v3) > -degenerateAreaEps {
			continue
		}

		u, v, w, ok := barycentric(v1, v2, v3, p)
		if !ok {
			continue
		}

		t1, t2, t3 := texA[tri[0]], texA[tri[1]], texA[tri[2]]
		uv := model.Point2{
			X: t1.X*w + t2.X*v + t3.X*u,
			Y: t1.Y*w + t2.Y*v + t3.Y*u,
		}
		return model.Point2{X: model.Clamp01(uv.X), Y: model.Clamp01(uv.Y)}
	}

	return affineFallback(p, live.BBox, texture.BBox)
}

// affineFallback translates by live_bbox.center -> texture_bbox.center
// and scales by texture_bbox.size / live_bbox.size, per spec.md §4.3
// step 4.
func affineFallback(p model.Point2, liveBBox, texBBox model.Rect) model.Point2 {
	lcx, lcy := liveBBox.Mid()
	tcx, tcy := texBBox.Mid()

	sx, sy := 1.0, 1.0
	if liveBBox.W > 1e-9 {
		sx = texBBox.W / liveBBox.W
	}
	if liveBBox.H > 1e-9 {
		sy = texBBox.H / liveBBox.H
	}

	x := tcx + (p.X-lcx)*sx
	y := tcy + (p.Y-lcy)*sy
	return model.Point2{X: model.Clamp01(x), Y: model.Clamp01(y)}
}
