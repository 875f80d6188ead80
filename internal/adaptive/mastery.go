package adaptive

import (
	"math"

	"github.com/abhisek/pylearn/internal/catalog"
	"github.com/abhisek/pylearn/internal/progress"
)

// MasteryThreshold is the mastery at which an item counts as done for planning.
const MasteryThreshold = 0.8

// QuizPassPercentage is the quiz score that counts as mastering the quiz.
const QuizPassPercentage = 80

// Mastery combines success rate s, attempt count n and time efficiency t:
// s * min(1, n/3) * (0.7 + 0.3*min(1, t)), clamped to [0,1].
func Mastery(s float64, n int, t float64) float64 {
	if n <= 0 {
		return 0
	}
	m := clamp(s, 0, 1) * math.Min(1, float64(n)/3) * (0.7 + 0.3*math.Min(1, math.Max(0, t)))
	return clamp(m, 0, 1)
}

// TimeEfficiency is min(1, expected/actual). Unknown durations count as
// on time.
func TimeEfficiency(expectedMinutes int, actualSeconds float64) float64 {
	if expectedMinutes <= 0 || actualSeconds <= 0 {
		return 1
	}
	return math.Min(1, float64(expectedMinutes)*60/actualSeconds)
}

// ItemMastery returns the learner's mastery of one catalog item. Completed
// lessons, projects and challenges, and quizzes passed at 80% or better,
// count as fully mastered; everything else is derived from the
// performance history recorded against the item.
func ItemMastery(rec *progress.Record, a catalog.Activity) float64 {
	switch a.Kind {
	case catalog.KindLesson, catalog.KindProject, catalog.KindChallenge:
		if rec.IsCompleted(a.Kind, a.ID) {
			return 1
		}
	case catalog.KindQuiz:
		for _, q := range rec.QuizAttempts {
			if q.QuizID == a.ID && q.Percentage >= QuizPassPercentage {
				return 1
			}
		}
	}

	entries := rec.HistoryFor(a.ID)
	if len(entries) == 0 {
		return 0
	}
	var score, elapsed float64
	timed := 0
	for _, e := range entries {
		score += e.Score
		if e.ElapsedSeconds > 0 {
			elapsed += float64(e.ElapsedSeconds)
			timed++
		}
	}
	s := score / float64(len(entries))
	t := 1.0
	if timed > 0 {
		t = TimeEfficiency(a.EstimatedMinutes, elapsed/float64(timed))
	}
	return Mastery(s, len(entries), t)
}
