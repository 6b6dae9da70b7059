//go:build cgo
// +build cgo

// Package capture adapts a gocv-backed V4L2 webcam into the
// callback-style capture driver contract spec.md §6 describes:
// on_frame(buffer, pts) and on_error(err) invoked from the driver's own
// delivery thread.
package capture

import (
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/anoncam/core/internal/model"
)

// fourccMJPEG is the FourCC code for the Motion JPEG codec, widely
// supported by USB webcams and a good compression tradeoff.
const fourccMJPEG = 0x47504A4D

// Callbacks are the capture driver's two outward hooks, matching
// spec.md §6's CaptureCallbacks shape.
type Callbacks struct {
	OnFrame func(model.Frame)
	OnError func(error)
}

// OpenCVCamera drives a V4L2 webcam through gocv and pushes frames to
// Callbacks.OnFrame on its own delivery goroutine, one per configured
// frame interval.
type OpenCVCamera struct {
	mu sync.Mutex

	deviceID int
	width    int
	height   int
	fps      int
	mirror   bool

	webcam *gocv.VideoCapture
	opened bool

	stopCh chan struct{}
	doneCh chan struct{}

	callbacks Callbacks
}

// NewOpenCVCamera creates a camera source. mirror flips frames
// horizontally before delivery, matching the teacher's VTubing-facing
// default.
func NewOpenCVCamera(mirror bool, callbacks Callbacks) *OpenCVCamera {
	return &OpenCVCamera{mirror: mirror, callbacks: callbacks}
}

// Open configures and starts the camera, per spec.md §6's
// `device_id`/`frame_rate` capture config. Delivery begins immediately
// on a dedicated goroutine.
func (c *OpenCVCamera) Open(deviceID, width, height, fps int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.opened {
		return fmt.Errorf("camera already opened")
	}

	webcam, err := gocv.OpenVideoCaptureWithAPI(deviceID, gocv.VideoCaptureV4L2)
	if err != nil {
		return fmt.Errorf("failed to open camera device %d: %w", deviceID, err)
	}
	if !webcam.IsOpened() {
		webcam.Close()
		return fmt.Errorf("camera device %d not found or unavailable", deviceID)
	}

	webcam.Set(gocv.VideoCaptureFOURCC, fourccMJPEG)
	if width > 0 {
		webcam.Set(gocv.VideoCaptureFrameWidth, float64(width))
	}
	if height > 0 {
		webcam.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}
	if fps > 0 {
		webcam.Set(gocv.VideoCaptureFPS, float64(fps))
	}

	c.deviceID = deviceID
	c.width = int(webcam.Get(gocv.VideoCaptureFrameWidth))
	c.height = int(webcam.Get(gocv.VideoCaptureFrameHeight))
	c.fps = int(webcam.Get(gocv.VideoCaptureFPS))
	if c.fps <= 0 {
		c.fps = 30
	}
	c.webcam = webcam
	c.opened = true

	warmup := gocv.NewMat()
	c.webcam.Read(&warmup)
	warmup.Close()

	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	go c.deliveryLoop(c.stopCh, c.doneCh, time.Second/time.Duration(c.fps))

	return nil
}

func (c *OpenCVCamera) deliveryLoop(stop <-chan struct{}, done chan<- struct{}, interval time.Duration) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			frame, err := c.readFrame()
			if err != nil {
				if c.callbacks.OnError != nil {
					c.callbacks.OnError(err)
				}
				continue
			}
			if c.callbacks.OnFrame != nil {
				c.callbacks.OnFrame(frame)
			}
		}
	}
}

// readFrame captures one frame and converts it to BGRA8, the wire
// format the ring and pipeline expect (spec.md §3), unlike the
// teacher's RGB24 output for its MediaPipe bridge.
func (c *OpenCVCamera) readFrame() (model.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.opened {
		return model.Frame{}, fmt.Errorf("camera not opened")
	}

	mat := gocv.NewMat()
	defer mat.Close()

	if ok := c.webcam.Read(&mat); !ok {
		return model.Frame{}, fmt.Errorf("failed to read frame from camera")
	}
	if mat.Empty() {
		return model.Frame{}, fmt.Errorf("captured frame is empty")
	}

	if c.mirror {
		gocv.Flip(mat, &mat, 1) //nolint:errcheck // gocv.Flip doesn't return an error
	}

	bgra := gocv.NewMat()
	defer bgra.Close()
	gocv.CvtColor(mat, &bgra, gocv.ColorBGRToBGRA) //nolint:errcheck // gocv.CvtColor doesn't return an error

	width := bgra.Cols()
	height := bgra.Rows()
	pixels := bgra.ToBytes()

	return model.Frame{
		Width:       width,
		Height:      height,
		Stride:      width * 4,
		Pixels:      pixels,
		TimestampNS: time.Now().UnixNano(),
	}, nil
}

// Close stops delivery and releases camera resources.
func (c *OpenCVCamera) Close() error {
	c.mu.Lock()
	if !c.opened {
		c.mu.Unlock()
		return nil
	}
	c.opened = false
	stopCh, doneCh := c.stopCh, c.doneCh
	c.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.webcam != nil {
		return c.webcam.Close()
	}
	return nil
}

// SetMirror enables or disables horizontal flip while running.
func (c *OpenCVCamera) SetMirror(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mirror = enabled
}

// IsMirror reports whether horizontal flip is enabled.
func (c *OpenCVCamera) IsMirror() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mirror
}

// ActualResolution returns the negotiated capture resolution, which
// may differ from what was requested.
func (c *OpenCVCamera) ActualResolution() (width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// ActualFPS returns the negotiated frame rate.
func (c *OpenCVCamera) ActualFPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

// EnumerateCameras best-effort probes device indices [0, maxDevices)
// and returns the ones that open successfully.
func EnumerateCameras(maxDevices int) []int {
	if maxDevices <= 0 {
		maxDevices = 10
	}

	var devices []int
	for i := 0; i < maxDevices; i++ {
		cam, err := gocv.OpenVideoCaptureWithAPI(i, gocv.VideoCaptureV4L2)
		if err != nil {
			continue
		}
		if cam.IsOpened() {
			devices = append(devices, i)
		}
		cam.Close()
	}
	return devices
}
