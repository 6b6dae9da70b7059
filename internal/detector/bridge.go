//go:build cgo
// +build cgo

package detector

/*
#cgo CXXFLAGS: -std=c++17
#cgo LDFLAGS: -L${SRCDIR}/../../native_core/bazel-bin -llandmark_bridge
#cgo LDFLAGS: -Wl,-rpath,${SRCDIR}/../../native_core/bazel-bin
#include "../../native_core/landmark_bridge.h"
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/anoncam/core/internal/model"
)

// CBridgeDetector implements LandmarkDetector over a native
// face-landmark library linked in at build time (spec.md §1 names the
// detector itself an out-of-scope external collaborator; this is the
// FFI seam a real build supplies). The native side is expected to
// return the flattened 68-point schema directly, so no per-region
// remapping happens here beyond what buildLandmarks already does for
// detectors that report named regions instead.
type CBridgeDetector struct {
	handle C.LBHandle
}

// NewCBridgeDetector opens the native detector with the given model
// complexity (0 = lite, 1 = full, 2 = heavy, matching the teacher's
// MediaPipe complexity levels).
func NewCBridgeDetector(complexity int) (*CBridgeDetector, error) {
	handle := C.LB_Create(C.int(complexity))
	if handle == nil {
		return nil, fmt.Errorf("detector: native bridge initialization failed")
	}
	return &CBridgeDetector{handle: handle}, nil
}

// Detect implements LandmarkDetector.
func (d *CBridgeDetector) Detect(frame model.Frame) (RawDetection, error) {
	if len(frame.Pixels) == 0 {
		return RawDetection{}, fmt.Errorf("detector: empty frame")
	}

	var result C.LBResult
	ok := C.LB_Detect(
		d.handle,
		(*C.uint8_t)(unsafe.Pointer(&frame.Pixels[0])),
		C.int(frame.Width),
		C.int(frame.Height),
		&result,
	)
	if !ok {
		return RawDetection{}, fmt.Errorf("detector: native detection call failed")
	}
	defer C.LB_ReleaseResult(&result)

	if !bool(result.present) {
		return RawDetection{Present: false}, nil
	}

	raw := RawDetection{
		Present:    true,
		Confidence: float64(result.confidence),
		BBoxBL: model.Rect{
			X: float64(result.bbox_x),
			Y: float64(result.bbox_y),
			W: float64(result.bbox_w),
			H: float64(result.bbox_h),
		},
		Regions: make(map[Region][]model.Point2, regionCount),
	}

	points := unsafe.Slice((*C.float)(unsafe.Pointer(result.landmarks)), int(result.landmark_count)*2)
	for r := Region(0); r < regionCount; r++ {
		off := regionOffset[r]
		card := regionCardinality[r]
		pts := make([]model.Point2, 0, card)
		for i := 0; i < card && (off+i) < int(result.landmark_count); i++ {
			pts = append(pts, model.Point2{
				X: float64(points[(off+i)*2]),
				Y: float64(points[(off+i)*2+1]),
			})
		}
		raw.Regions[r] = pts
	}

	return raw, nil
}

// Close releases the native detector handle.
func (d *CBridgeDetector) Close() error {
	C.LB_Destroy(d.handle)
	return nil
}
