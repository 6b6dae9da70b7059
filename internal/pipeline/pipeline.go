package pipeline

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anoncam/core/internal/compositor"
	"github.com/anoncam/core/internal/detector"
	"github.com/anoncam/core/internal/model"
	"github.com/anoncam/core/internal/pose"
	"github.com/anoncam/core/internal/ring"
)

// reportInterval is the minimum FPS-reporting window from spec.md
// §4.5's cadence contract.
const reportInterval = 500 * time.Millisecond

// Settings is the UI-tunable subset of render configuration, handed
// off from the UI executor to the processing executor as a single
// atomic pointer swap per spec.md §5.
type Settings struct {
	Style       string
	Sticker     bool
	MaskEnabled bool
	PixelSize   float64
	Debug       bool
	HeadScale   float64
}

// Callbacks are the pipeline's two outward-facing hooks from spec.md
// §6: preview delivery on the UI executor, and status notifications.
type Callbacks struct {
	OnPreview func(frame model.Frame)
	OnStatus  func(status string)
}

// Pipeline orchestrates capture -> analyze -> pose -> composite ->
// publish end-to-end, enforcing backpressure, cadence, and the
// lifecycle state machine from spec.md §4.5.
type Pipeline struct {
	mu     sync.Mutex
	state  State
	device string

	detector  *detector.Analyzer
	smoother  *pose.Smoother
	renderer  compositor.Renderer
	producer  *ring.Producer
	callbacks Callbacks

	processingGate     *gate
	uiGate             *gate
	processingExecutor *executor
	uiExecutor         *executor

	settings atomic.Pointer[Settings]

	frameCounter uint64

	droppedBackpressure       uint64
	droppedTransient          uint64
	droppedResourceExhaustion uint64
	droppedRingDetachment     uint64

	fpsMu       sync.Mutex
	fps         float64
	completed   uint64
	windowStart time.Time
}

// New constructs a pipeline bound to the given analyzer, renderer, and
// (optional) ring producer. A nil producer disables ring publication,
// e.g. for a preview-only session.
func New(det *detector.Analyzer, renderer compositor.Renderer, producer *ring.Producer, callbacks Callbacks) *Pipeline {
	p := &Pipeline{
		state:              StateIdle,
		detector:           det,
		renderer:           renderer,
		producer:           producer,
		callbacks:          callbacks,
		processingGate:     newGate(),
		uiGate:             newGate(),
		processingExecutor: newExecutor(4),
		uiExecutor:         newExecutor(4),
		windowStart:        time.Time{},
	}
	p.settings.Store(&Settings{Style: "helmet", HeadScale: 1.33})
	return p
}

// SetSmoother attaches optional pose smoothing; must be called before
// Start.
func (p *Pipeline) SetSmoother(s *pose.Smoother) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.smoother = s
}

// SetDetector, SetRenderer, and SetProducer let a caller construct the
// pipeline in Idle state before its collaborators are ready (e.g. a
// CLI that wants to report configuration failures through Fail rather
// than exiting before any Pipeline exists), and wire each one in as it
// comes up. Must be called before Start.
func (p *Pipeline) SetDetector(det *detector.Analyzer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detector = det
}

func (p *Pipeline) SetRenderer(r compositor.Renderer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.renderer = r
}

func (p *Pipeline) SetProducer(producer *ring.Producer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.producer = producer
}

// SetOnPreview wires the preview callback after construction, for
// callers that build the pipeline before its UI-side collaborators
// (e.g. a debug preview window) exist yet. Must be called before
// Start.
func (p *Pipeline) SetOnPreview(fn func(model.Frame)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks.OnPreview = fn
}

// SetSettings publishes a new settings snapshot for the next frame to
// observe, per spec.md §5's write-from-one-thread hand-off.
func (p *Pipeline) SetSettings(s Settings) {
	cp := s
	p.settings.Store(&cp)
}

func (p *Pipeline) loadSettings() Settings {
	s := p.settings.Load()
	if s == nil {
		return Settings{Style: "helmet", HeadScale: 1.33}
	}
	return *s
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Start transitions Idle/Stopped/Errored -> Starting. Starting or
// Running is a no-op, per spec.md §8's idempotence invariant.
func (p *Pipeline) Start(device string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateRunning || p.state == StateStarting {
		return nil
	}
	p.device = device
	p.state = StateStarting
	return nil
}

// Stop cancels admission of new frames and transitions to Stopped.
// In-flight frames complete but are not published. A no-op when
// already Stopped, per spec.md §8's idempotence invariant.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateStopped {
		return nil
	}
	p.state = StateStopped
	return nil
}

// Fail transitions the pipeline to Errored and notifies the status
// callback with the classified failure, per spec.md §3/§7: a
// permanent failure (startup configuration error, or a fatal runtime
// condition) reports itself through the UI shell's status callback
// rather than terminating the process silently. Safe to call from any
// state, including before Start.
func (p *Pipeline) Fail(kind ErrorKind, err error) {
	p.mu.Lock()
	p.state = StateErrored
	p.mu.Unlock()
	p.notifyStatus("Error: " + (&Error{Kind: kind, Err: err}).Error())
}

// SetDevice switches the target capture device. The actual hardware
// reconfiguration is the caller's (internal/capture's) responsibility;
// Pipeline only records the target so the next frame's resolution
// change is handled normally by the renderer's resize path.
func (p *Pipeline) SetDevice(device string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.device = device
	return nil
}

// Close permanently shuts down the processing and UI executors. The
// pipeline cannot be restarted after Close.
func (p *Pipeline) Close() {
	p.processingExecutor.close()
	p.uiExecutor.close()
}

// HandleFrame is the capture driver's on_frame callback (spec.md §6).
// It applies admission control and, on acceptance, hands the frame to
// the processing executor.
func (p *Pipeline) HandleFrame(frame model.Frame) {
	p.mu.Lock()
	active := p.state == StateRunning || p.state == StateStarting
	p.mu.Unlock()
	if !active {
		return
	}

	if !p.processingGate.tryAcquire() {
		atomic.AddUint64(&p.droppedBackpressure, 1)
		return
	}

	accepted := p.processingExecutor.submit(func() {
		defer p.processingGate.release()
		p.processFrame(frame)
	})
	if !accepted {
		p.processingGate.release()
		atomic.AddUint64(&p.droppedBackpressure, 1)
	}
}

// HandleCaptureError is the capture driver's on_error callback. A
// capture driver error is unrecoverable from the pipeline's point of
// view (the driver thread owns the device), so this is a fatal
// condition per spec.md §7: transition to Errored and notify the
// status callback rather than just counting it.
func (p *Pipeline) HandleCaptureError(err error) {
	p.Fail(ErrorFatal, err)
}

func (p *Pipeline) processFrame(frame model.Frame) {
	obs := p.detector.Analyze(frame)

	settings := p.loadSettings()
	aspect := 1.0
	if frame.Height > 0 {
		aspect = float64(frame.Width) / float64(frame.Height)
	}

	p.mu.Lock()
	smoother := p.smoother
	p.mu.Unlock()
	if smoother != nil && obs.Present {
		e := [3]float64{obs.Pose.Euler.Pitch, obs.Pose.Euler.Yaw, obs.Pose.Euler.Roll}
		t := [3]float64{obs.Pose.Translation.X, obs.Pose.Translation.Y, obs.Pose.Translation.Z}
		se, st := smoother.Smooth(e, t)
		obs.Pose.Euler = model.Euler{Pitch: se[0], Yaw: se[1], Roll: se[2]}
		obs.Pose.Translation = model.Point3{X: st[0], Y: st[1], Z: st[2]}
	} else if smoother != nil && !obs.Present {
		smoother.Reset()
	}

	headPose := pose.BuildPose(obs, settings.Sticker, aspect, settings.HeadScale)
	viewProj := pose.ViewProjection(settings.Sticker, aspect)

	var geom model.MaskGeometry
	if obs.Present && settings.MaskEnabled {
		if mesh, ok := faceMeshFromObservation(obs); ok {
			geom = compositor.BuildGeometry(settings.Style, &mesh)
		} else {
			geom = compositor.BuildGeometry(settings.Style, nil)
		}
	}

	out, err := p.renderer.Render(compositor.Input{
		Frame:       frame,
		Observation: obs,
		Pose:        headPose,
		ViewProj:    viewProj,
		Geometry:    geom,
		Settings: compositor.RenderSettings{
			Sticker:     settings.Sticker,
			MaskEnabled: settings.MaskEnabled,
			PixelSize:   settings.PixelSize,
			Debug:       settings.Debug,
		},
	})
	if err != nil {
		kind := ErrorTransientFrame
		if errors.Is(err, compositor.ErrPoolExhausted) {
			kind = ErrorResourceExhaustion
		}
		p.recordDropped(kind)
		p.notifyStatus("Error: " + (&Error{Kind: kind, Err: err}).Error())
		return
	}

	p.mu.Lock()
	stopped := p.state == StateStopped
	if p.state == StateStarting {
		p.state = StateRunning
	}
	p.mu.Unlock()
	if stopped {
		return
	}

	p.publishRing(out)
	p.offerPreview(out)
	p.recordCadence()
	p.notifyStatus(statusFor(obs))
}

func (p *Pipeline) publishRing(out model.Frame) {
	if p.producer == nil {
		return
	}
	slotIdx, pixels, ok := p.producer.AcquireWrite()
	if !ok {
		// Ring full or detached: counted but never surfaced via
		// OnStatus, per spec.md §7 — "ring errors never propagate
		// beyond the publish site."
		p.recordDropped(ErrorRingDetachment)
		return
	}
	copy(pixels, out.Pixels)
	frameNumber := atomic.AddUint64(&p.frameCounter, 1)
	p.producer.SubmitWrite(slotIdx, out.TimestampNS, frameNumber, 0)
}

func (p *Pipeline) offerPreview(out model.Frame) {
	if p.callbacks.OnPreview == nil {
		return
	}
	if !p.uiGate.tryAcquire() {
		return
	}
	// The renderer may reuse out.Pixels on its next Render call, so
	// the UI executor gets its own copy.
	out.Pixels = append([]byte(nil), out.Pixels...)
	accepted := p.uiExecutor.submit(func() {
		defer p.uiGate.release()
		p.callbacks.OnPreview(out)
	})
	if !accepted {
		p.uiGate.release()
	}
}

func (p *Pipeline) notifyStatus(status string) {
	if p.callbacks.OnStatus == nil {
		return
	}
	p.callbacks.OnStatus(status)
}

func (p *Pipeline) recordCadence() {
	p.fpsMu.Lock()
	defer p.fpsMu.Unlock()

	if p.windowStart.IsZero() {
		p.windowStart = time.Now()
	}
	p.completed++

	elapsed := time.Since(p.windowStart)
	if elapsed >= reportInterval {
		p.fps = float64(p.completed) / elapsed.Seconds()
		p.completed = 0
		p.windowStart = time.Now()
	}
}

// FPS returns the most recently computed frames-completed-per-second
// figure, per spec.md §4.5's cadence contract.
func (p *Pipeline) FPS() float64 {
	p.fpsMu.Lock()
	defer p.fpsMu.Unlock()
	return p.fps
}

// recordDropped increments the counter matching the given error kind.
// Each condition in spec.md §7's taxonomy is tracked separately so they
// can be told apart after the fact.
func (p *Pipeline) recordDropped(kind ErrorKind) {
	switch kind {
	case ErrorResourceExhaustion:
		atomic.AddUint64(&p.droppedResourceExhaustion, 1)
	case ErrorRingDetachment:
		atomic.AddUint64(&p.droppedRingDetachment, 1)
	default:
		atomic.AddUint64(&p.droppedTransient, 1)
	}
}

// DroppedCounts returns the backpressure, transient-error,
// resource-exhaustion, and ring-detachment drop counters, per spec.md
// §7's taxonomy.
func (p *Pipeline) DroppedCounts() (backpressure, transient, resourceExhaustion, ringDetachment uint64) {
	return atomic.LoadUint64(&p.droppedBackpressure),
		atomic.LoadUint64(&p.droppedTransient),
		atomic.LoadUint64(&p.droppedResourceExhaustion),
		atomic.LoadUint64(&p.droppedRingDetachment)
}

func statusFor(obs model.FaceObservation) string {
	if obs.Present {
		return "Face detected"
	}
	return "No face"
}

func faceMeshFromObservation(obs model.FaceObservation) (model.FaceMesh, bool) {
	if len(obs.Landmarks) != model.NumLandmarks {
		return model.FaceMesh{}, false
	}
	var mesh model.FaceMesh
	copy(mesh.Points[:], obs.Landmarks)
	mesh.BBox = obs.BBox
	mesh.Confidence = obs.Confidence
	return mesh, true
}
