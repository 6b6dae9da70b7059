// Package detector adapts a third-party, synchronous face-landmark
// detector (spec.md §6, "Face detector") to the pipeline's normalized
// model.FaceObservation.
package detector

import "github.com/anoncam/core/internal/model"

// Region names the named landmark groups a detector reports, matching
// spec.md §4.2's region list and cardinalities.
type Region int

const (
	RegionFaceContour Region = iota // 17 points
	RegionRightBrow                 // 5 points
	RegionLeftBrow                  // 5 points
	RegionNoseCrest                 // 4 points
	RegionNose                      // 5 points
	RegionRightEye                  // 6 points
	RegionLeftEye                   // 6 points
	RegionOuterLips                 // 12 points
	RegionInnerLips                 // 8 points
	regionCount
)

// regionCardinality is the fixed output size for each region after
// resampling, per spec.md §4.2.
var regionCardinality = [regionCount]int{
	RegionFaceContour: 17,
	RegionRightBrow:   5,
	RegionLeftBrow:    5,
	RegionNoseCrest:   4,
	RegionNose:        5,
	RegionRightEye:    6,
	RegionLeftEye:     6,
	RegionOuterLips:   12,
	RegionInnerLips:   8,
}

// regionOffset is the starting index of each region in the flattened
// 68-point schema (jaw 0-16, brows 17-26, nose 27-35, eyes 36-47,
// outer lips 48-59, inner lips 60-67).
var regionOffset [regionCount]int

func init() {
	off := 0
	for r := Region(0); r < regionCount; r++ {
		regionOffset[r] = off
		off += regionCardinality[r]
	}
	if off != model.NumLandmarks {
		panic("detector: region cardinalities do not sum to NumLandmarks")
	}
}

// RawDetection is the bottom-left-origin result a third-party detector
// returns for one frame, before normalization into model.FaceObservation.
type RawDetection struct {
	Present    bool
	Confidence float64

	// BBox is reported bottom-left-origin, in [0,1]^2, per spec.md §6.
	BBoxBL model.Rect

	// Regions holds whatever named point groups the detector supplied;
	// a region absent from the map is padded with the centroid, per
	// spec.md §4.2. Points are in the same bottom-left-origin space as
	// BBoxBL; the Analyzer flips every point's Y at the same time it
	// flips the bbox.
	Regions map[Region][]model.Point2

	// Euler/Translation are populated only if the detector surfaces
	// pose angles directly; if HasPose is false the Analyzer derives
	// pose from keypoints instead (spec.md §4.2).
	HasPose     bool
	Euler       model.Euler
	Translation model.Point3
}

// LandmarkDetector is the narrow interface to the external detector
// described in spec.md §6: synchronous, not required to be reentrant.
type LandmarkDetector interface {
	Detect(frame model.Frame) (RawDetection, error)
}

// Analyzer implements component C2 (spec.md §4.2): it wraps a
// LandmarkDetector and yields a normalized model.FaceObservation.
// The pipeline serializes all calls to Analyze, so Analyzer itself
// does no internal locking.
type Analyzer struct {
	detector LandmarkDetector
	last     model.FaceObservation
}

// NewAnalyzer creates an Analyzer backed by the given detector.
func NewAnalyzer(d LandmarkDetector) *Analyzer {
	return &Analyzer{detector: d, last: model.EmptyObservation()}
}

// Analyze adapts one frame into a FaceObservation. A detector error or
// an explicit "no face" result both yield the empty observation;
// detector errors never propagate as a frame error (spec.md §4.2: "If
// no face is detected, return the empty observation... never throw
// for 'no face'"; transient detector failures are handled the same
// way at this boundary, per spec.md §7).
func (a *Analyzer) Analyze(frame model.Frame) model.FaceObservation {
	raw, err := a.detector.Detect(frame)
	if err != nil || !raw.Present {
		a.last = model.EmptyObservation()
		return a.last
	}

	obs := model.FaceObservation{
		Present:    true,
		Confidence: raw.Confidence,
		BBox:       flipBBox(raw.BBoxBL),
	}
	obs.Landmarks = buildLandmarks(raw)
	obs.Keypoints = deriveKeypoints(obs.Landmarks)

	if raw.HasPose {
		obs.Pose = model.HeadPose{Euler: raw.Euler, Translation: raw.Translation, ModelMatrix: model.Identity4()}
	} else {
		obs.Pose = model.HeadPose{Euler: poseFromKeypoints(obs.Keypoints), ModelMatrix: model.Identity4()}
	}

	a.last = obs
	return obs
}

// Last returns the most recently produced observation, for rapid
// re-entry callers that want the previous frame's result (spec.md
// §4.2, "State").
func (a *Analyzer) Last() model.FaceObservation {
	return a.last
}

// Reset clears cached state. Idempotent, per spec.md §4.2.
func (a *Analyzer) Reset() {
	a.last = model.EmptyObservation()
}

// flipBBox converts a bottom-left-origin rectangle to top-left-origin:
// y_tl = 1 - y_bl - h, per spec.md §4.2.
func flipBBox(bl model.Rect) model.Rect {
	return model.Rect{X: bl.X, Y: 1 - bl.Y - bl.H, W: bl.W, H: bl.H}
}

// flipY converts a single bottom-left-origin Y coordinate to
// top-left-origin.
func flipY(y float64) float64 {
	return 1 - y
}

// missingRegionFill is the fixed padding point for regions the
// detector didn't report, per spec.md line 99: "missing regions are
// padded with the centroid (0.5, 0.5)" — a fixed normalized point, not
// the detected face's own bounding-box center.
var missingRegionFill = model.Point2{X: 0.5, Y: 0.5}

// buildLandmarks assembles the flat 68-point schema from whichever
// regions the detector supplied, resampling each to its fixed
// cardinality and padding missing regions with missingRegionFill.
func buildLandmarks(raw RawDetection) []model.Point2 {
	out := make([]model.Point2, model.NumLandmarks)
	for r := Region(0); r < regionCount; r++ {
		n := regionCardinality[r]
		off := regionOffset[r]

		pts, ok := raw.Regions[r]
		if !ok || len(pts) == 0 {
			for i := 0; i < n; i++ {
				out[off+i] = missingRegionFill
			}
			continue
		}

		flipped := make([]model.Point2, len(pts))
		for i, p := range pts {
			flipped[i] = model.Point2{X: p.X, Y: flipY(p.Y)}
		}
		resampled := resampleRegion(flipped, n)
		copy(out[off:off+n], resampled)
	}
	return out
}
