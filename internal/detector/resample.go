package detector

import (
	"math"

	"github.com/anoncam/core/internal/model"
)

// resampleRegion resamples a detector-reported point sequence to
// exactly n points by piecewise-linear interpolation along the
// sequence's chord-length parameter, per spec.md §4.2.
func resampleRegion(points []model.Point2, n int) []model.Point2 {
	if n <= 0 {
		return nil
	}
	if len(points) == 0 {
		return nil
	}
	if len(points) == 1 {
		out := make([]model.Point2, n)
		for i := range out {
			out[i] = points[0]
		}
		return out
	}

	// Cumulative chord length at each input point.
	cum := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		dx := points[i].X - points[i-1].X
		dy := points[i].Y - points[i-1].Y
		cum[i] = cum[i-1] + hypot(dx, dy)
	}
	total := cum[len(cum)-1]

	out := make([]model.Point2, n)
	if total == 0 {
		// Degenerate (all points coincide): return the single point n times.
		for i := range out {
			out[i] = points[0]
		}
		return out
	}

	for i := 0; i < n; i++ {
		// Spread samples evenly across the parameter range [0, total],
		// including both endpoints when n > 1.
		var t float64
		if n == 1 {
			t = 0
		} else {
			t = total * float64(i) / float64(n-1)
		}
		out[i] = sampleAt(points, cum, t)
	}
	return out
}

// sampleAt linearly interpolates the point at arclength parameter t
// along points/cum (cum[i] is the cumulative arclength at points[i]).
func sampleAt(points []model.Point2, cum []float64, t float64) model.Point2 {
	// Find the segment [cum[i], cum[i+1]] containing t.
	i := 0
	for i < len(cum)-2 && cum[i+1] < t {
		i++
	}
	segLen := cum[i+1] - cum[i]
	if segLen == 0 {
		return points[i]
	}
	frac := (t - cum[i]) / segLen
	return model.Point2{
		X: points[i].X + frac*(points[i+1].X-points[i].X),
		Y: points[i].Y + frac*(points[i+1].Y-points[i].Y),
	}
}

func hypot(dx, dy float64) float64 {
	return math.Sqrt(dx*dx + dy*dy)
}
