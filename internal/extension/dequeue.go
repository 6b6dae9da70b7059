package extension

import (
	"context"
	"sync"
	"time"

	"github.com/anoncam/core/internal/ring"
)

// dequeueInterval is the fixed consumer-side cadence from spec.md §6:
// "The consumer drives a periodic (33 ms) dequeue".
const dequeueInterval = 33 * time.Millisecond

// sampleDuration is the nominal presentation duration stamped on every
// sample buffer, per spec.md §6 ("duration=1/30").
const sampleDuration = time.Second / 30

// SampleBuffer is the unit the dequeue loop hands to the host shell:
// one ring slot's pixels, wrapped with the timing and format metadata
// spec.md §6 requires.
type SampleBuffer struct {
	Pixels      []byte
	Width       int
	Height      int
	Duration    time.Duration
	PTS         int64
	FrameNumber uint64
	Format      VideoFormat
}

// DequeueLoop polls a ring.Consumer on a fixed cadence and delivers
// each ready slot as a SampleBuffer, matching it against the
// supported-format table by resolution.
type DequeueLoop struct {
	consumer *ring.Consumer
	onSample func(SampleBuffer)
	onIdle   func() // called on ticks with nothing ready, e.g. for heartbeats

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDequeueLoop constructs a loop that has not yet started polling.
func NewDequeueLoop(c *ring.Consumer, onSample func(SampleBuffer), onIdle func()) *DequeueLoop {
	return &DequeueLoop{consumer: c, onSample: onSample, onIdle: onIdle}
}

// Start begins the 33ms polling loop on its own goroutine.
func (d *DequeueLoop) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.wg.Add(1)
	go d.run(ctx)
}

// Stop halts polling and waits for the goroutine to exit.
func (d *DequeueLoop) Stop() {
	if d.cancel == nil {
		return
	}
	d.cancel()
	d.wg.Wait()
}

func (d *DequeueLoop) run(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(dequeueInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.tick()
		}
	}
}

func (d *DequeueLoop) tick() {
	view, ok := d.consumer.AcquireRead()
	if !ok {
		if d.onIdle != nil {
			d.onIdle()
		}
		return
	}
	defer d.consumer.ReleaseRead()

	sample := SampleBuffer{
		Pixels:      view.Pixels,
		Width:       view.Width,
		Height:      view.Height,
		Duration:    sampleDuration,
		PTS:         view.TimestampNS,
		FrameNumber: view.FrameNumber,
		Format:      formatFor(view.Width, view.Height),
	}
	if d.onSample != nil {
		d.onSample(sample)
	}
}

func formatFor(width, height int) VideoFormat {
	for _, f := range SupportedFormats {
		if f.Width == width && f.Height == height {
			return f
		}
	}
	return VideoFormat{Width: width, Height: height, FrameRate: 30, PixelFormat: PixelFormatBGRA32}
}
