package pose

import "sync"

// kalman1D is a simple 1D Kalman filter used to smooth a single pose
// scalar (one euler angle or one translation axis) across frames.
// Adapted from the teacher's landmark-smoothing filter; here it
// smooths HeadPose components rather than individual landmarks, since
// this pipeline analyzes one face per frame rather than a tracked
// point set.
type kalman1D struct {
	mu sync.Mutex

	x float64 // state estimate
	p float64 // estimate uncertainty
	q float64 // process noise
	r float64 // measurement noise

	initialized bool
}

// newKalman1D creates a filter with the given smoothing factor:
// 0.0 = maximum smoothing (slow response); larger values respond
// faster, but even 1.0 still smooths (steady-state gain 0.5).
func newKalman1D(smoothingFactor float64) *kalman1D {
	q := 0.1
	r := 1.0 - smoothingFactor*0.9 + 0.1
	return &kalman1D{p: 1.0, q: q, r: r}
}

func (k *kalman1D) update(measurement float64) float64 {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.initialized {
		k.x = measurement
		k.initialized = true
		return measurement
	}

	pPred := k.p + k.q
	gain := pPred / (pPred + k.r)
	k.x = k.x + gain*(measurement-k.x)
	k.p = (1 - gain) * pPred
	return k.x
}

func (k *kalman1D) reset() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.x = 0
	k.p = 1.0
	k.initialized = false
}

// Smoother applies per-axis Kalman filtering to the euler angles and
// translation of a sequence of HeadPose values, reducing frame-to-frame
// jitter without materially delaying pose response.
type Smoother struct {
	pitch, yaw, roll *kalman1D
	tx, ty, tz       *kalman1D
}

// NewSmoother creates a pose smoother with the given smoothing factor
// in [0,1].
func NewSmoother(smoothingFactor float64) *Smoother {
	return &Smoother{
		pitch: newKalman1D(smoothingFactor),
		yaw:   newKalman1D(smoothingFactor),
		roll:  newKalman1D(smoothingFactor),
		tx:    newKalman1D(smoothingFactor),
		ty:    newKalman1D(smoothingFactor),
		tz:    newKalman1D(smoothingFactor),
	}
}

// Smooth filters one pose sample and returns the smoothed result. The
// model matrix itself is not smoothed; callers should rebuild it from
// the smoothed euler/translation via BuildPose after calling Smooth.
func (s *Smoother) Smooth(euler [3]float64, translation [3]float64) (smoothedEuler, smoothedTranslation [3]float64) {
	smoothedEuler[0] = s.pitch.update(euler[0])
	smoothedEuler[1] = s.yaw.update(euler[1])
	smoothedEuler[2] = s.roll.update(euler[2])
	smoothedTranslation[0] = s.tx.update(translation[0])
	smoothedTranslation[1] = s.ty.update(translation[1])
	smoothedTranslation[2] = s.tz.update(translation[2])
	return
}

// Reset clears all filter states, for use when a face is re-acquired
// after being absent and stale smoothing history would otherwise
// cause a visible snap-to-average on reappearance.
func (s *Smoother) Reset() {
	s.pitch.reset()
	s.yaw.reset()
	s.roll.reset()
	s.tx.reset()
	s.ty.reset()
	s.tz.reset()
}
