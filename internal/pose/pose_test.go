package pose

import (
	"math"
	"testing"

	"github.com/anoncam/core/internal/model"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestRotationMatrix_IdentityAtZeroAngles(t *testing.T) {
	m := RotationMatrix(model.Euler{})
	id := model.Identity4()
	for i := range m {
		if !approxEqual(m[i], id[i], 1e-12) {
			t.Fatalf("expected identity matrix at zero angles, got %+v", m)
		}
	}
}

func TestEulerMatrixEulerRoundTrip(t *testing.T) {
	// Round-trip law from spec.md §8: euler->matrix->euler is identity
	// for angles away from gimbal lock.
	cases := []model.Euler{
		{Pitch: 0.2, Yaw: 0.1, Roll: 0.05},
		{Pitch: -0.3, Yaw: 0.4, Roll: -0.2},
	}
	for _, e := range cases {
		m := RotationMatrix(e)
		got := eulerFromMatrix(m)
		if !approxEqual(got.Pitch, e.Pitch, 1e-6) ||
			!approxEqual(got.Yaw, e.Yaw, 1e-6) ||
			!approxEqual(got.Roll, e.Roll, 1e-6) {
			t.Errorf("round trip mismatch: want %+v got %+v", e, got)
		}
	}
}

// eulerFromMatrix extracts pitch/yaw/roll from R = Rz.Ry.Rx, the
// inverse of RotationMatrix, used only to exercise the round-trip law
// under test.
func eulerFromMatrix(m model.Mat4) model.Euler {
	// m is column-major; m[col*4+row] holds R[row][col] for
	// R = Rz.Ry.Rx. R[2][0] = -sin(yaw), R[2][1] = cos(yaw)sin(pitch),
	// R[2][2] = cos(yaw)cos(pitch), R[1][0] = sin(roll)cos(yaw),
	// R[0][0] = cos(roll)cos(yaw).
	r20 := m[2] // row2, col0
	yaw := math.Asin(clampUnit(-r20))
	pitch := math.Atan2(m[6], m[10]) // row2,col1 / row2,col2
	roll := math.Atan2(m[1], m[0])   // row1,col0 / row0,col0
	return model.Euler{Pitch: pitch, Yaw: yaw, Roll: roll}
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func TestPlaceSticker_CentersOnBBox(t *testing.T) {
	bbox := model.Rect{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}
	m, vp := PlaceSticker(bbox)

	if vp != model.Identity4() {
		t.Error("expected identity view-projection in sticker mode")
	}
	// translation column
	if !approxEqual(m[12], 0, 1e-9) || !approxEqual(m[13], 0, 1e-9) {
		t.Errorf("expected centered bbox to map to NDC origin, got (%f,%f)", m[12], m[13])
	}
	if !approxEqual(m[0], 2*bbox.W, 1e-9) || !approxEqual(m[5], 2*bbox.H, 1e-9) {
		t.Errorf("expected scale %f,%f got %f,%f", 2*bbox.W, 2*bbox.H, m[0], m[5])
	}
}

func TestPlace3D_DistanceDecreasesWithBBoxWidth(t *testing.T) {
	small := model.Rect{X: 0.4, Y: 0.4, W: 0.1, H: 0.1}
	large := model.Rect{X: 0.1, Y: 0.1, W: 0.8, H: 0.8}

	mSmall, _ := Place3D(small, model.Euler{}, 16.0/9.0, 1.33)
	mLarge, _ := Place3D(large, model.Euler{}, 16.0/9.0, 1.33)

	// Z translation is -distance; a larger bbox (closer face) should
	// have a smaller magnitude (closer to camera, i.e. larger Z, less negative).
	if mSmall[14] >= mLarge[14] {
		t.Errorf("expected small bbox to be placed further away: small=%f large=%f", mSmall[14], mLarge[14])
	}
}

func TestBuildPose_AbsentFaceIsIdentity(t *testing.T) {
	obs := model.EmptyObservation()
	p := BuildPose(obs, false, 1.0, 1.33)
	if p.ModelMatrix != model.Identity4() {
		t.Error("expected identity model matrix for an absent face")
	}
}
