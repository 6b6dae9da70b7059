package compositor

import (
	"errors"

	"github.com/anoncam/core/internal/model"
)

// ErrPoolExhausted is returned by Render when the output buffer pool's
// free list was empty and this frame had to be served from a fresh
// allocation instead, per spec.md §7's resource-exhaustion condition.
// Callers drop the frame and count the occurrence separately from
// other render errors; the pool recovers on its own as buffers are
// released back to it.
var ErrPoolExhausted = errors.New("compositor: output buffer pool exhausted")

// RenderSettings mirrors the UI-tunable subset of internal/config.MaskConfig
// that the processing executor reads once per frame, per spec.md §5's
// write-from-one-thread / read-from-one-thread settings hand-off.
type RenderSettings struct {
	Sticker     bool
	MaskEnabled bool
	PixelSize   float64
	Debug       bool
}

// Input bundles everything one render pass needs: the camera frame,
// the face observation and pose for this frame, the mask geometry and
// optional bound mask texture, and the current render settings.
type Input struct {
	Frame       model.Frame
	Observation model.FaceObservation
	Pose        model.HeadPose
	ViewProj    model.Mat4
	Geometry    model.MaskGeometry
	MaskTexture *model.Frame
	Settings    RenderSettings
}

// Renderer is the narrow polymorphic interface the pipeline drives,
// per spec.md §9's "Dynamic dispatch" note: exactly the operations a
// caller needs, nothing more.
type Renderer interface {
	Render(in Input) (model.Frame, error)
	Resize(width, height int)
	Close()
}

// backgroundGamma is the global gamma applied in the fragment path,
// per spec.md §8 scenario 1.
const backgroundGamma = 0.95
