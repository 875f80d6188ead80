package progress

import "github.com/abhisek/pylearn/internal/clock"

// updateStreak advances the daily streak for activity on today.
func updateStreak(rec *Record, today clock.Date) {
	if rec.LastStreakDate.IsZero() || !rec.LastStreakDate.Valid() {
		rec.Streak = 1
		rec.LastStreakDate = today
		return
	}
	switch gap := rec.LastStreakDate.DaysUntil(today); {
	case gap <= 0:
		// Same day, or a clock that moved backwards: leave the streak alone.
		if rec.Streak == 0 {
			rec.Streak = 1
		}
	case gap == 1:
		rec.Streak++
		rec.LastStreakDate = today
	default:
		rec.Streak = 1
		rec.LastStreakDate = today
	}
}

// CurrentStreak returns the streak as seen on today. The stored value is
// only updated on activity, so a streak whose last day is two or more days
// back reads as broken.
func CurrentStreak(rec *Record, today clock.Date) int {
	if rec.LastStreakDate.IsZero() {
		return 0
	}
	if rec.LastStreakDate.DaysUntil(today) >= 2 {
		return 0
	}
	return rec.Streak
}
