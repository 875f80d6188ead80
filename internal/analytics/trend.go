package analytics

import "github.com/abhisek/pylearn/internal/progress"

// Trend directions.
const (
	TrendImproving = "improving"
	TrendStable    = "stable"
	TrendDeclining = "declining"
)

// Trend parameters: how many recent quiz attempts are considered, the
// moving-average window, and the slope beyond which the trend is not
// stable. The threshold is on the 0..1 score fraction, so 0.1 means ten
// percentage points per attempt.
const (
	TrendAttempts  = 10
	TrendWindow    = 3
	TrendThreshold = 0.1
)

// Trend describes the direction of recent quiz performance.
type Trend struct {
	Direction     string    `json:"direction"`
	// Slope is the change in score fraction per attempt.
	Slope         float64   `json:"slope"`
	Samples       int       `json:"samples"`
	MovingAverage []float64 `json:"moving_average"`
}

// ProgressTrend classifies the last quiz attempts as improving, stable or
// declining from the least-squares slope of their moving average.
func (e *Engine) ProgressTrend(rec *progress.Record) Trend {
	attempts := rec.QuizAttempts
	if len(attempts) > TrendAttempts {
		attempts = attempts[len(attempts)-TrendAttempts:]
	}
	pcts := make([]float64, len(attempts))
	for i, a := range attempts {
		pcts[i] = a.Percentage
	}

	series := movingAverage(pcts, TrendWindow)
	tr := Trend{Direction: TrendStable, Samples: len(pcts), MovingAverage: series}
	if len(series) < 2 {
		return tr
	}
	slope := leastSquaresSlope(series) / 100
	tr.Slope = round(slope, 3)
	switch {
	case slope > TrendThreshold:
		tr.Direction = TrendImproving
	case slope < -TrendThreshold:
		tr.Direction = TrendDeclining
	}
	return tr
}

// movingAverage returns the trailing means over window. Series shorter than
// the window are returned as-is.
func movingAverage(xs []float64, window int) []float64 {
	if len(xs) < window {
		return append([]float64(nil), xs...)
	}
	out := make([]float64, 0, len(xs)-window+1)
	var sum float64
	for i, x := range xs {
		sum += x
		if i >= window {
			sum -= xs[i-window]
		}
		if i >= window-1 {
			out = append(out, round(sum/float64(window), 2))
		}
	}
	return out
}

func leastSquaresSlope(ys []float64) float64 {
	n := float64(len(ys))
	var sx, sy, sxy, sxx float64
	for i, y := range ys {
		x := float64(i)
		sx += x
		sy += y
		sxy += x * y
		sxx += x * x
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0
	}
	return (n*sxy - sx*sy) / den
}
