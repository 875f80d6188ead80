package adaptive

import "github.com/abhisek/pylearn/internal/catalog"

// TargetDifficulty maps a skill estimate in [0,1] onto the five-step scale.
func TargetDifficulty(skill float64) catalog.Difficulty {
	switch {
	case skill < 0.3:
		return catalog.VeryEasy
	case skill < 0.5:
		return catalog.Easy
	case skill < 0.7:
		return catalog.Medium
	case skill < 0.9:
		return catalog.Hard
	default:
		return catalog.VeryHard
	}
}

// SuggestDifficulty moves from current toward the target for skill, never
// by more than one step. An unknown current difficulty jumps straight to
// the target.
func SuggestDifficulty(current catalog.Difficulty, skill float64) catalog.Difficulty {
	target := TargetDifficulty(skill).Ordinal()
	cur := current.Ordinal()
	if cur == 0 {
		return catalog.FromOrdinal(target)
	}
	switch {
	case target > cur:
		return catalog.FromOrdinal(cur + 1)
	case target < cur:
		return catalog.FromOrdinal(cur - 1)
	}
	return catalog.FromOrdinal(cur)
}

// Appropriateness scores how well a difficulty fits a skill estimate:
// 1 - |ordinal/5 - skill|.
func Appropriateness(d catalog.Difficulty, skill float64) float64 {
	v := 1 - abs(float64(d.Ordinal())/5-skill)
	return clamp(v, 0, 1)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
