// Package analytics derives read-only progress views from a learner record.
// Nothing here mutates the record.
package analytics

import (
	"math"
	"time"

	"github.com/abhisek/pylearn/internal/catalog"
	"github.com/abhisek/pylearn/internal/clock"
	"github.com/abhisek/pylearn/internal/progress"
)

// Completion-percentage denominators used for the headline progress bars.
const (
	TargetLessons    = 50
	TargetQuizzes    = 20
	TargetChallenges = 10
)

// Engine computes analytics against a catalog.
type Engine struct {
	catalog catalog.Provider
}

// New creates an analytics engine.
func New(cat catalog.Provider) *Engine {
	return &Engine{catalog: cat}
}

// UserStats is the headline statistics block of the dashboard.
type UserStats struct {
	LessonsCompleted    int     `json:"lessons_completed"`
	ChallengesCompleted int     `json:"challenges_completed"`
	QuizzesCompleted    int     `json:"quizzes_completed"`
	QuizzesTaken        int     `json:"quizzes_taken"`
	ProjectsCompleted   int     `json:"projects_completed"`
	PlaygroundUses      int     `json:"playground_uses"`
	Points              int     `json:"points"`
	Level               int     `json:"level"`
	PointsToNextLevel   int     `json:"points_to_next_level"`
	Streak              int     `json:"streak"`
	Achievements        int     `json:"achievements_count"`
	AverageQuizScore    float64 `json:"average_quiz_score"`
	DaysActive          int     `json:"days_active"`
	LearningVelocity    float64 `json:"learning_velocity"`
	SkillScore          float64 `json:"skill_score"`

	CompletionPercentages CompletionPercentages    `json:"completion_percentages"`
	CompletionRate        map[catalog.Kind]float64 `json:"completion_rate"`
}

// CompletionPercentages measure progress against fixed targets, capped at 100.
type CompletionPercentages struct {
	Lessons    float64 `json:"lessons"`
	Quizzes    float64 `json:"quizzes"`
	Challenges float64 `json:"challenges"`
}

// DaysActive returns whole days since the record was created, at least 1.
func DaysActive(rec *progress.Record, now time.Time) int {
	days := int(now.Sub(rec.CreatedAt).Hours() / 24)
	return max(1, days)
}

// Velocity returns completed lessons, challenges and quizzes per day.
func Velocity(rec *progress.Record, now time.Time) float64 {
	done := rec.LessonsCompleted + rec.ChallengesCompleted + rec.QuizzesCompleted
	return float64(done) / float64(DaysActive(rec, now))
}

// SkillScore weighs completions by effort plus a tenth of the quiz average.
func SkillScore(rec *progress.Record) float64 {
	s := 2*float64(rec.LessonsCompleted) + 5*float64(rec.ChallengesCompleted) +
		3*float64(rec.QuizzesCompleted) + rec.AverageQuizScore/10
	return round(s, 1)
}

// UserStats computes the statistics block.
func (e *Engine) UserStats(rec *progress.Record, now time.Time) UserStats {
	st := UserStats{
		LessonsCompleted:    rec.LessonsCompleted,
		ChallengesCompleted: rec.ChallengesCompleted,
		QuizzesCompleted:    rec.QuizzesCompleted,
		QuizzesTaken:        rec.QuizzesTaken,
		ProjectsCompleted:   rec.ProjectsCompleted,
		PlaygroundUses:      rec.PlaygroundUses,
		Points:              rec.Points,
		Level:               rec.Level,
		PointsToNextLevel:   progress.PointsToNextLevel(rec.Points),
		Streak:              progress.CurrentStreak(rec, clock.DateOf(now)),
		Achievements:        rec.AchievementCount(),
		AverageQuizScore:    round(rec.AverageQuizScore, 1),
		DaysActive:          DaysActive(rec, now),
		LearningVelocity:    round(Velocity(rec, now), 2),
		SkillScore:          SkillScore(rec),
		CompletionPercentages: CompletionPercentages{
			Lessons:    percentOf(rec.LessonsCompleted, TargetLessons, true),
			Quizzes:    percentOf(rec.QuizzesCompleted, TargetQuizzes, true),
			Challenges: percentOf(rec.ChallengesCompleted, TargetChallenges, true),
		},
		CompletionRate: make(map[catalog.Kind]float64),
	}
	for _, k := range []catalog.Kind{catalog.KindLesson, catalog.KindQuiz, catalog.KindChallenge, catalog.KindProject} {
		st.CompletionRate[k] = percentOf(rec.CompletedCount(k), len(e.catalog.List(k)), true)
	}
	return st
}

// TimeBreakdown estimates time spent from activity counts.
type TimeBreakdown struct {
	TotalMinutes int     `json:"total_minutes"`
	TotalHours   float64 `json:"total_hours"`
	Lessons      int     `json:"lessons_minutes"`
	Quizzes      int     `json:"quizzes_minutes"`
	Challenges   int     `json:"challenges_minutes"`
	Playground   int     `json:"playground_minutes"`
}

// Per-activity time estimates in minutes.
const (
	MinutesPerLesson     = 15
	MinutesPerQuiz       = 10
	MinutesPerChallenge  = 30
	MinutesPerPlayground = 5
)

// TimeBreakdown computes estimated time spent per activity kind.
func (e *Engine) TimeBreakdown(rec *progress.Record) TimeBreakdown {
	tb := TimeBreakdown{
		Lessons:    rec.LessonsCompleted * MinutesPerLesson,
		Quizzes:    rec.QuizzesCompleted * MinutesPerQuiz,
		Challenges: rec.ChallengesCompleted * MinutesPerChallenge,
		Playground: rec.PlaygroundUses * MinutesPerPlayground,
	}
	tb.TotalMinutes = tb.Lessons + tb.Quizzes + tb.Challenges + tb.Playground
	tb.TotalHours = round(float64(tb.TotalMinutes)/60, 1)
	return tb
}

// Efficiency rates how steadily and how well the learner is progressing.
type Efficiency struct {
	CompletionRate  float64 `json:"completion_rate"`
	ScoreEfficiency float64 `json:"score_efficiency"`
	Overall         float64 `json:"overall_efficiency"`
	Rating          string  `json:"rating"`
}

// Efficiency ratings.
const (
	RatingExcellent        = "Excellent"
	RatingGood             = "Good"
	RatingAverage          = "Average"
	RatingNeedsImprovement = "Needs Improvement"
)

// LearningEfficiency computes the efficiency block.
func (e *Engine) LearningEfficiency(rec *progress.Record, now time.Time) Efficiency {
	rate := float64(rec.LessonsCompleted+rec.QuizzesCompleted) / float64(DaysActive(rec, now))
	rate = math.Min(1, rate)
	score := rec.AverageQuizScore / 100
	overall := 100 * (0.6*rate + 0.4*score)

	eff := Efficiency{
		CompletionRate:  round(rate, 2),
		ScoreEfficiency: round(score, 2),
		Overall:         round(overall, 1),
	}
	switch {
	case overall >= 80:
		eff.Rating = RatingExcellent
	case overall >= 60:
		eff.Rating = RatingGood
	case overall >= 40:
		eff.Rating = RatingAverage
	default:
		eff.Rating = RatingNeedsImprovement
	}
	return eff
}

// AreaProgress is lesson completion within one skill area.
type AreaProgress struct {
	Area       string   `json:"area"`
	Name       string   `json:"name"`
	Completed  int      `json:"completed"`
	Total      int      `json:"total"`
	Percentage float64  `json:"percentage"`
	LessonIDs  []string `json:"lesson_ids"`
}

// SkillProgression reports lesson completion per catalog skill area, in
// catalog order.
func (e *Engine) SkillProgression(rec *progress.Record) []AreaProgress {
	lessons := e.catalog.List(catalog.KindLesson)
	var out []AreaProgress
	for _, area := range e.catalog.SkillAreas() {
		ap := AreaProgress{Area: area.ID, Name: area.Name}
		for _, l := range lessons {
			if l.SkillArea != area.ID {
				continue
			}
			ap.Total++
			ap.LessonIDs = append(ap.LessonIDs, l.ID)
			if rec.CompletedLessonIDs.Has(l.ID) {
				ap.Completed++
			}
		}
		ap.Percentage = percentOf(ap.Completed, ap.Total, false)
		out = append(out, ap)
	}
	return out
}

// CompletionEstimate projects when the catalog will be finished.
type CompletionEstimate struct {
	RemainingItems int     `json:"remaining_items"`
	Velocity       float64 `json:"velocity"`
	Days           int     `json:"estimated_days"`
	Estimable      bool    `json:"estimable"`
	Message        string  `json:"message"`
}

// EstimatedCompletion divides the remaining lessons, quizzes and challenges
// by the current velocity, rounding up.
func (e *Engine) EstimatedCompletion(rec *progress.Record, now time.Time) CompletionEstimate {
	remaining := 0
	for _, k := range []catalog.Kind{catalog.KindLesson, catalog.KindQuiz, catalog.KindChallenge} {
		for _, a := range e.catalog.List(k) {
			if !rec.IsCompleted(k, a.ID) {
				remaining++
			}
		}
	}
	v := Velocity(rec, now)
	est := CompletionEstimate{RemainingItems: remaining, Velocity: round(v, 2)}
	switch {
	case remaining == 0:
		est.Estimable = true
		est.Message = "all items completed"
	case v <= 0:
		est.Message = "unable to estimate"
	default:
		est.Estimable = true
		est.Days = int(math.Ceil(float64(remaining) / v))
		est.Message = "on track"
	}
	return est
}

func percentOf(n, d int, capped bool) float64 {
	if d <= 0 {
		return 0
	}
	p := 100 * float64(n) / float64(d)
	if capped {
		p = math.Min(100, p)
	}
	return round(p, 1)
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
