package pose

import (
	"math"
	"testing"

	"github.com/anoncam/core/internal/model"
)

func sampleMesh() model.FaceMesh {
	var pts [68]model.Point2
	// Lay points out on a rough oval so bbox/anchors are well-defined;
	// exact values don't matter for the identity-UV and fallback tests.
	for i := range pts {
		t := 2 * math.Pi * float64(i) / float64(len(pts))
		pts[i] = model.Point2{X: 0.5 + 0.3*math.Cos(t), Y: 0.5 + 0.3*math.Sin(t)}
	}
	return model.FaceMesh{
		Points:     pts,
		BBox:       model.Rect{X: 0.2, Y: 0.2, W: 0.6, H: 0.6},
		Confidence: 1,
	}
}

func TestGenerateUVs_IdentityWhenTextureNil(t *testing.T) {
	mask := model.MaskGeometry{
		Vertices: []model.Point3{{X: -0.5, Y: -0.5, Z: 0}, {X: 0.5, Y: 0.5, Z: 0}},
		Indices:  []uint16{0, 1, 0},
		UVs:      make([]model.Point2, 2),
	}
	live := sampleMesh()
	uvs := GenerateUVs(mask, &live, nil)
	if len(uvs) != 2 {
		t.Fatalf("expected 2 uvs, got %d", len(uvs))
	}
	if !approxEqual(uvs[0].X, 0.0, 1e-9) || !approxEqual(uvs[0].Y, 0.0, 1e-9) {
		t.Errorf("expected identity uv (0,0), got %+v", uvs[0])
	}
	if !approxEqual(uvs[1].X, 1.0, 1e-9) || !approxEqual(uvs[1].Y, 1.0, 1e-9) {
		t.Errorf("expected identity uv (1,1), got %+v", uvs[1])
	}
}

func TestGenerateUVs_SameMeshYieldsIdentityCorrespondence(t *testing.T) {
	// spec.md §8 scenario 5: if texture_face == live_face, generate_uvs
	// yields v.xy+0.5 for every vertex, within 1e-4.
	mesh := sampleMesh()
	mask := model.MaskGeometry{
		Vertices: []model.Point3{
			{X: -0.2, Y: 0.1, Z: 0},
			{X: 0.05, Y: -0.15, Z: 0},
			{X: 0.3, Y: 0.2, Z: 0},
		},
		Indices: []uint16{0, 1, 2},
		UVs:     make([]model.Point2, 3),
	}

	uvs := GenerateUVs(mask, &mesh, &mesh)
	for i, v := range mask.Vertices {
		want := model.Point2{X: model.Clamp01(v.X + 0.5), Y: model.Clamp01(v.Y + 0.5)}
		if !approxEqual(uvs[i].X, want.X, 1e-4) || !approxEqual(uvs[i].Y, want.Y, 1e-4) {
			t.Errorf("vertex %d: want %+v got %+v", i, want, uvs[i])
		}
	}
}

func TestBarycentric_InsideTriangleSumsToOne(t *testing.T) {
	v1 := model.Point2{X: 0, Y: 0}
	v2 := model.Point2{X: 1, Y: 0}
	v3 := model.Point2{X: 0, Y: 1}
	p := model.Point2{X: 0.2, Y: 0.2}

	u, v, w, ok := barycentric(v1, v2, v3, p)
	if !ok {
		t.Fatal("expected point inside triangle to be accepted")
	}
	sum := u + v + w
	if !approxEqual(sum, 1, 1e-5) {
		t.Errorf("expected barycentric coordinates to sum to 1, got %f", sum)
	}
	if u < barycentricTolerance || v < barycentricTolerance || w < barycentricTolerance {
		t.Errorf("expected all coordinates >= tolerance, got u=%f v=%f w=%f", u, v, w)
	}
}

func TestBarycentric_JustOutsideEdgeWithinTolerance(t *testing.T) {
	// A point slightly outside one edge should still be accepted thanks
	// to the -0.1 edge-spill tolerance.
	v1 := model.Point2{X: 0, Y: 0}
	v2 := model.Point2{X: 1, Y: 0}
	v3 := model.Point2{X: 0, Y: 1}
	p := model.Point2{X: -0.05, Y: 0.2}

	_, _, _, ok := barycentric(v1, v2, v3, p)
	if !ok {
		t.Error("expected point within edge-spill tolerance to be accepted")
	}
}

func TestBarycentric_FarOutsideRejected(t *testing.T) {
	v1 := model.Point2{X: 0, Y: 0}
	v2 := model.Point2{X: 1, Y: 0}
	v3 := model.Point2{X: 0, Y: 1}
	p := model.Point2{X: 5, Y: 5}

	_, _, _, ok := barycentric(v1, v2, v3, p)
	if ok {
		t.Error("expected a far-outside point to be rejected")
	}
}

func TestBarycentric_DegenerateTriangleRejected(t *testing.T) {
	v1 := model.Point2{X: 0, Y: 0}
	v2 := model.Point2{X: 1, Y: 0}
	v3 := model.Point2{X: 2, Y: 0} // collinear, zero area
	p := model.Point2{X: 0.5, Y: 0}

	_, _, _, ok := barycentric(v1, v2, v3, p)
	if ok {
		t.Error("expected a degenerate (collinear) triangle to be rejected")
	}
}

func TestAffineFallback_TranslatesAndScalesByBBox(t *testing.T) {
	liveBBox := model.Rect{X: 0, Y: 0, W: 0.5, H: 0.5}
	texBBox := model.Rect{X: 0.5, Y: 0.5, W: 1.0, H: 1.0}
	lcx, lcy := liveBBox.Mid()

	got := affineFallback(model.Point2{X: lcx, Y: lcy}, liveBBox, texBBox)
	tcx, tcy := texBBox.Mid()
	if !approxEqual(got.X, tcx, 1e-9) || !approxEqual(got.Y, tcy, 1e-9) {
		t.Errorf("expected bbox center to map to texture bbox center, got %+v want (%f,%f)", got, tcx, tcy)
	}
}

func TestExtractAnchors_EyeAnchorIsRingAverage(t *testing.T) {
	mesh := sampleMesh()
	a := extractAnchors(mesh)

	want := ringCenter(mesh.Points[:], idxRightEyeStart, 6)
	if a[anchorEyeRight] != want {
		t.Errorf("expected right eye anchor to be the 6-point ring average, got %+v want %+v", a[anchorEyeRight], want)
	}
}
