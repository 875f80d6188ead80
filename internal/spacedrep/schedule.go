package spacedrep

import (
	"time"

	"github.com/abhisek/pylearn/internal/catalog"
)

// LadderHours is the expanding review interval schedule in hours.
// Stage 0 is the first review after a concept is seen.
var LadderHours = []float64{1, 4, 24, 72, 168, 336, 720, 1440}

// MaxStage is the highest stage index in LadderHours.
const MaxStage = 7

// Ease factor bounds. New concepts start at DefaultEase.
const (
	DefaultEase = 2.5
	MinEase     = 1.3
	MaxEase     = 3.0
)

// RecentWindow is how many of the latest outcomes feed the success rate.
const RecentWindow = 5

// MaxRecent bounds the per-concept outcome history; oldest entries are evicted.
const MaxRecent = 200

// ClockSkew is how far in the future last_review_at may sit before the
// entry is considered corrupt.
const ClockSkew = 5 * time.Minute

// Multiplier returns the interval multiplier for an activity difficulty.
// Named-scale difficulties map through their ordinal.
func Multiplier(d catalog.Difficulty) float64 {
	switch d.Normalize() {
	case catalog.VeryEasy, catalog.Easy:
		return 0.7
	case catalog.Hard:
		return 1.5
	case catalog.VeryHard:
		return 2.0
	}
	return 1.0
}
