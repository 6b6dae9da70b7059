package detector

import (
	"math"

	"github.com/anoncam/core/internal/model"
)

// Standard 68-point schema indices (spec.md §3, FaceMesh doc).
const (
	idxRightEyeStart = 36 // regionRightEye offset
	idxLeftEyeStart  = 42 // regionLeftEye offset
	idxNoseTip       = 30
	idxUpperLip      = 51 // top-center of the outer lip ring
	idxChin          = 8
	idxRightEar      = 0  // jaw corner nearest the right ear
	idxLeftEar       = 16 // jaw corner nearest the left ear
	idxForeheadA     = 21 // right brow inner corner
	idxForeheadB     = 22 // left brow inner corner
)

// deriveKeypoints extracts the fixed-arity named subset used for pose
// derivation and mesh anchoring from a full 68-point landmark set.
func deriveKeypoints(lm []model.Point2) model.Keypoints {
	if len(lm) != model.NumLandmarks {
		return model.Keypoints{}
	}

	return model.Keypoints{
		LeftEye:  eyeCenter(lm, idxLeftEyeStart),
		RightEye: eyeCenter(lm, idxRightEyeStart),
		NoseTip:  lm[idxNoseTip],
		UpperLip: lm[idxUpperLip],
		Chin:     lm[idxChin],
		LeftEar:  lm[idxLeftEar],
		RightEar: lm[idxRightEar],
		Forehead: midpoint(lm[idxForeheadA], lm[idxForeheadB]),
	}
}

func eyeCenter(lm []model.Point2, start int) model.Point2 {
	var sx, sy float64
	for i := 0; i < 6; i++ {
		sx += lm[start+i].X
		sy += lm[start+i].Y
	}
	return model.Point2{X: sx / 6, Y: sy / 6}
}

func midpoint(a, b model.Point2) model.Point2 {
	return model.Point2{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// poseFromKeypoints derives euler angles when the detector doesn't
// surface pose directly (spec.md §4.2): roll from the eye line, pitch
// from eye-vs-nose vertical offset, yaw from eye-center horizontal
// asymmetry around the nose tip.
func poseFromKeypoints(kp model.Keypoints) model.Euler {
	dx := kp.RightEye.X - kp.LeftEye.X
	dy := kp.RightEye.Y - kp.LeftEye.Y
	roll := math.Atan2(dy, dx)

	eyeMidY := (kp.LeftEye.Y + kp.RightEye.Y) / 2
	pitch := (kp.NoseTip.Y - eyeMidY) * math.Pi / 2

	eyeMidX := (kp.LeftEye.X + kp.RightEye.X) / 2
	eyeSpan := math.Abs(kp.RightEye.X - kp.LeftEye.X)
	var yaw float64
	if eyeSpan > 1e-6 {
		yaw = (kp.NoseTip.X - eyeMidX) / eyeSpan * math.Pi / 2
	}

	return model.Euler{Pitch: pitch, Yaw: yaw, Roll: roll}
}
