package pose

import (
	"math"

	"github.com/anoncam/core/internal/model"
)

const fovDegrees = 45.0

// PlaceSticker builds the model/view-projection pair for sticker mode:
// a flat overlay sized and centered on the face bbox with no 3D pose,
// per spec.md §4.3.
func PlaceSticker(bbox model.Rect) (model.Mat4, model.Mat4) {
	midx, midy := bbox.Mid()
	c := Vec3{X: 2*midx - 1, Y: 2*midy - 1, Z: 0}
	extents := Vec3{X: 2 * bbox.W, Y: 2 * bbox.H, Z: 1}

	modelMat := mulMat4(translate(c), scaleMat(extents))
	return modelMat, model.Identity4()
}

// Place3D builds the model/view-projection pair for full 3D
// placement: camera distance derived from the bbox width, world
// position in the view frustum, and head rotation/scale, per
// spec.md §4.3.
func Place3D(bbox model.Rect, euler model.Euler, aspect, headScale float64) (model.Mat4, model.Mat4) {
	fov := fovDegrees * math.Pi / 180
	halfTan := math.Tan(fov / 2)

	distance := 1 / (bbox.W * halfTan * 1.5)

	midx, midy := bbox.Mid()
	cx, cy := 2*midx-1, 2*midy-1

	world := Vec3{
		X: cx * distance * aspect * halfTan,
		Y: cy * distance * halfTan,
		Z: -distance,
	}

	r := RotationMatrix(euler)
	modelMat := mulMat4(translate(world), mulMat4(r, uniformScale(headScale)))
	viewProj := perspective(fov, aspect, 0.1, 100)

	return modelMat, viewProj
}

// BuildPose derives the HeadPose's ModelMatrix for the given
// placement mode, consolidating translation into a single place
// (spec.md §9's Open Question: the pose translation was computed then
// zeroed and reapplied in the compositor from the bbox; here it is
// computed once, in the pose engine, and the compositor only ever
// reads ModelMatrix).
func BuildPose(obs model.FaceObservation, sticker bool, aspect, headScale float64) model.HeadPose {
	if !obs.Present {
		return model.IdentityPose()
	}

	var modelMat model.Mat4
	if sticker {
		modelMat, _ = PlaceSticker(obs.BBox)
	} else {
		modelMat, _ = Place3D(obs.BBox, obs.Pose.Euler, aspect, headScale)
	}

	return model.HeadPose{
		Euler:       obs.Pose.Euler,
		Translation: obs.Pose.Translation,
		ModelMatrix: modelMat,
	}
}

// ViewProjection returns the view-projection matrix for the given
// placement mode and camera aspect ratio.
func ViewProjection(sticker bool, aspect float64) model.Mat4 {
	if sticker {
		return model.Identity4()
	}
	fov := fovDegrees * math.Pi / 180
	return perspective(fov, aspect, 0.1, 100)
}
