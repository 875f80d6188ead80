package progress

import (
	"fmt"
	"math"
)

// Check verifies the record-level invariants. It returns an *InvariantError
// listing every problem found, or nil.
func Check(rec *Record) error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	counters := []struct {
		name string
		v    int
	}{
		{"points", rec.Points},
		{"streak", rec.Streak},
		{"lessons_completed", rec.LessonsCompleted},
		{"challenges_completed", rec.ChallengesCompleted},
		{"quizzes_completed", rec.QuizzesCompleted},
		{"quizzes_taken", rec.QuizzesTaken},
		{"playground_uses", rec.PlaygroundUses},
		{"projects_completed", rec.ProjectsCompleted},
	}
	for _, c := range counters {
		if c.v < 0 {
			add("%s is negative (%d)", c.name, c.v)
		}
	}

	if want := LevelFor(rec.Points); rec.Level != want {
		add("level %d does not match points %d (want %d)", rec.Level, rec.Points, want)
	}

	sets := []struct {
		name  string
		count int
		set   IDSet
	}{
		{"lessons", rec.LessonsCompleted, rec.CompletedLessonIDs},
		{"challenges", rec.ChallengesCompleted, rec.CompletedChallengeIDs},
		{"quizzes", rec.QuizzesCompleted, rec.CompletedQuizIDs},
		{"projects", rec.ProjectsCompleted, rec.CompletedProjectIDs},
	}
	for _, s := range sets {
		if s.count != s.set.Len() {
			add("%s counter %d does not match completion set size %d", s.name, s.count, s.set.Len())
		}
	}

	if rec.QuizzesTaken != len(rec.QuizAttempts) {
		add("quizzes_taken %d does not match %d recorded attempts", rec.QuizzesTaken, len(rec.QuizAttempts))
	}
	if rec.AverageQuizScore < 0 || rec.AverageQuizScore > 100 {
		add("average_quiz_score %.2f outside [0,100]", rec.AverageQuizScore)
	}
	if want := averagePercentage(rec.QuizAttempts, rec.QuizzesTaken); math.Abs(rec.AverageQuizScore-want) > 1e-6 {
		add("average_quiz_score %.4f does not match attempts (want %.4f)", rec.AverageQuizScore, want)
	}

	if !rec.LastStreakDate.IsZero() {
		if !rec.LastStreakDate.Valid() {
			add("last_streak_date %q is not a date", rec.LastStreakDate)
		} else if rec.Streak < 1 {
			add("streak is %d despite activity on %s", rec.Streak, rec.LastStreakDate)
		}
	}

	for id, n := range rec.Attempts {
		if n < 1 {
			add("attempts[%s] = %d, want >= 1", id, n)
		}
	}
	for id, st := range rec.SpacedRepetition {
		if st.NextReviewAt.Before(st.LastReviewAt) {
			add("concept %s: next_review_at before last_review_at", id)
		}
	}
	if len(rec.PerformanceHistory) > MaxHistory {
		add("performance history holds %d entries (max %d)", len(rec.PerformanceHistory), MaxHistory)
	}

	if len(problems) > 0 {
		return &InvariantError{Problems: problems}
	}
	return nil
}

// CheckTransition verifies next on its own and against prev: points and
// achievements never shrink.
func CheckTransition(prev, next *Record) error {
	err := Check(next)
	var problems []string
	if ie, ok := err.(*InvariantError); ok {
		problems = ie.Problems
	}
	if prev != nil {
		if next.Points < prev.Points {
			problems = append(problems, fmt.Sprintf("points decreased from %d to %d", prev.Points, next.Points))
		}
		if !next.Achievements.Contains(prev.Achievements) {
			problems = append(problems, "achievements were removed")
		}
	}
	if len(problems) > 0 {
		return &InvariantError{Problems: problems}
	}
	return nil
}
