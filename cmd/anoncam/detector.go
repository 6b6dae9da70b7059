package main

import "github.com/anoncam/core/internal/detector"

// newLandmarkDetector opens the native face-landmark bridge. Model
// complexity 1 ("full") matches the teacher's VTubing-oriented default.
// Like capture (gocv) and preview (HighGUI), this binary requires a
// cgo-enabled build throughout.
func newLandmarkDetector() (detector.LandmarkDetector, error) {
	return detector.NewCBridgeDetector(1)
}
