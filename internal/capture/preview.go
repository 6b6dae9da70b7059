//go:build cgo
// +build cgo

package capture

import (
	"runtime"
	"sync"

	"gocv.io/x/gocv"

	"github.com/anoncam/core/internal/model"
)

// PreviewWindow renders composited frames to a debug HighGUI window.
// OpenCV UI calls must stay pinned to one OS thread on Linux/X11, so
// the window runs its own goroutine locked with runtime.LockOSThread,
// fed by a single-slot drop-if-busy channel mirroring the pipeline's
// own UI admission gate.
type PreviewWindow struct {
	frameCh  chan model.Frame
	closeCh  chan struct{}
	doneCh   chan struct{}
	initDone chan struct{}
	once     sync.Once
}

// NewPreviewWindow opens a preview window titled title. The window's
// OpenCV handle is created on its dedicated goroutine; this call
// blocks until that handle exists.
func NewPreviewWindow(title string) *PreviewWindow {
	p := &PreviewWindow{
		frameCh:  make(chan model.Frame, 1),
		closeCh:  make(chan struct{}),
		doneCh:   make(chan struct{}),
		initDone: make(chan struct{}),
	}
	go p.loop(title)
	<-p.initDone
	return p
}

func (p *PreviewWindow) loop(title string) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	window := gocv.NewWindow(title)
	close(p.initDone)

	for {
		select {
		case frame := <-p.frameCh:
			mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC4, frame.Pixels)
			if err != nil {
				continue
			}
			window.IMShow(mat)
			window.WaitKey(1)
			mat.Close()

		case <-p.closeCh:
			window.Close()
			close(p.doneCh)
			return
		}
	}
}

// Show offers frame to the preview window. A busy window drops the
// frame rather than blocking the caller, matching the processing
// executor's own backpressure contract.
func (p *PreviewWindow) Show(frame model.Frame) {
	select {
	case p.frameCh <- frame:
	default:
	}
}

// Close tears down the preview window. Safe to call more than once.
func (p *PreviewWindow) Close() error {
	p.once.Do(func() {
		close(p.closeCh)
		<-p.doneCh
	})
	return nil
}
