package adaptive

import (
	"math"

	"github.com/abhisek/pylearn/internal/progress"
)

// SkillWindow is how many recent outcomes feed the skill estimate.
const SkillWindow = 10

// skillDecay is the per-step exponential decay applied to older outcomes.
const skillDecay = 0.1

// ExperiencePrior is the skill estimate used before any outcome exists.
func ExperiencePrior(exp progress.ExperienceLevel) float64 {
	switch exp {
	case progress.SomeExperience:
		return 0.3
	case progress.Intermediate:
		return 0.5
	case progress.Advanced:
		return 0.7
	case progress.Expert:
		return 0.9
	}
	return 0.1
}

// EstimateSkill returns the exponentially weighted mean of the last
// SkillWindow outcome scores, newest weighted highest. With no history it
// falls back to the experience prior.
func EstimateSkill(history []progress.PerformanceEntry, exp progress.ExperienceLevel) float64 {
	if len(history) == 0 {
		return ExperiencePrior(exp)
	}
	if len(history) > SkillWindow {
		history = history[len(history)-SkillWindow:]
	}
	n := len(history)
	var num, den float64
	for i, e := range history {
		w := math.Exp(-skillDecay * float64(n-i-1))
		num += clamp(e.Score, 0, 1) * w
		den += w
	}
	return clamp(num/den, 0, 1)
}
