package progress

import (
	"maps"
	"slices"
	"time"

	"github.com/abhisek/pylearn/internal/catalog"
	"github.com/abhisek/pylearn/internal/clock"
	"github.com/abhisek/pylearn/internal/spacedrep"
)

// ExperienceLevel is the learner's self-reported prior experience.
type ExperienceLevel string

const (
	CompleteBeginner ExperienceLevel = "complete_beginner"
	SomeExperience   ExperienceLevel = "some_experience"
	Intermediate     ExperienceLevel = "intermediate"
	Advanced         ExperienceLevel = "advanced"
	Expert           ExperienceLevel = "expert"
)

// Valid reports whether e is a known experience level.
func (e ExperienceLevel) Valid() bool {
	switch e {
	case CompleteBeginner, SomeExperience, Intermediate, Advanced, Expert:
		return true
	}
	return false
}

// MaxHistory bounds the performance history; oldest entries are evicted.
const MaxHistory = 200

// Record is the authoritative per-learner progress state. It is persisted
// as a single JSON object.
type Record struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	ExperienceLevel ExperienceLevel `json:"experience_level"`
	LearningGoals   IDSet           `json:"learning_goals"`
	CreatedAt       time.Time       `json:"created_at"`
	LastActivity    time.Time       `json:"last_activity"`

	LessonsCompleted    int `json:"lessons_completed"`
	ChallengesCompleted int `json:"challenges_completed"`
	QuizzesCompleted    int `json:"quizzes_completed"`
	QuizzesTaken        int `json:"quizzes_taken"`
	PlaygroundUses      int `json:"playground_uses"`
	ProjectsCompleted   int `json:"projects_completed"`

	CompletedLessonIDs    IDSet `json:"completed_lesson_ids"`
	CompletedChallengeIDs IDSet `json:"completed_challenge_ids"`
	CompletedQuizIDs      IDSet `json:"completed_quiz_ids"`
	CompletedProjectIDs   IDSet `json:"completed_project_ids"`

	Points         int        `json:"points"`
	Level          int        `json:"level"`
	Streak         int        `json:"streak"`
	LastStreakDate clock.Date `json:"last_streak_date"`
	Achievements   IDSet      `json:"achievements"`

	QuizAttempts     []QuizAttempt `json:"quiz_attempts"`
	AverageQuizScore float64       `json:"average_quiz_score"`

	Attempts         map[string]int                    `json:"attempts"`
	SpacedRepetition map[string]spacedrep.ConceptState `json:"spaced_repetition"`

	DailyChallenges    IDSet                  `json:"daily_challenges"`
	PerformanceHistory []PerformanceEntry     `json:"performance_history"`
	MicroLessons       map[string]MicroLesson `json:"micro_lessons"`
}

// QuizAttempt is one quiz submission.
type QuizAttempt struct {
	QuizID     string    `json:"quiz_id"`
	Score      int       `json:"score"`
	MaxScore   int       `json:"max_score"`
	Percentage float64   `json:"percentage"`
	Timestamp  time.Time `json:"timestamp"`
}

// PerformanceEntry is one graded outcome used for skill estimation and mastery.
type PerformanceEntry struct {
	ActivityID     string             `json:"activity_id"`
	Kind           catalog.Kind       `json:"kind"`
	ConceptID      string             `json:"concept_id,omitempty"`
	Score          float64            `json:"score"`
	Correct        bool               `json:"correct"`
	Quality        int                `json:"quality"`
	ElapsedSeconds int                `json:"elapsed_seconds"`
	Difficulty     catalog.Difficulty `json:"difficulty,omitempty"`
	At             time.Time          `json:"at"`
}

// LessonState is the micro-lesson progression state.
type LessonState string

const (
	MicroNotStarted LessonState = "not_started"
	MicroInProgress LessonState = "in_progress"
	MicroCompleted  LessonState = "completed"
)

// MicroLesson tracks a learner's pass through a chunked lesson.
type MicroLesson struct {
	State      LessonState `json:"state"`
	LastChunk  int         `json:"last_chunk"`
	ChunksSeen int         `json:"chunks_seen"`
}

// NewRecord returns an empty record for a new learner.
func NewRecord(id, name string, exp ExperienceLevel, goals []string, now time.Time) *Record {
	rec := &Record{
		ID:               id,
		Name:             name,
		ExperienceLevel:  exp,
		CreatedAt:        now,
		Level:            1,
		Attempts:         make(map[string]int),
		SpacedRepetition: make(map[string]spacedrep.ConceptState),
		MicroLessons:     make(map[string]MicroLesson),
	}
	for _, g := range goals {
		rec.LearningGoals.Add(g)
	}
	return rec
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	out := *r
	out.LearningGoals = slices.Clone(r.LearningGoals)
	out.CompletedLessonIDs = slices.Clone(r.CompletedLessonIDs)
	out.CompletedChallengeIDs = slices.Clone(r.CompletedChallengeIDs)
	out.CompletedQuizIDs = slices.Clone(r.CompletedQuizIDs)
	out.CompletedProjectIDs = slices.Clone(r.CompletedProjectIDs)
	out.Achievements = slices.Clone(r.Achievements)
	out.DailyChallenges = slices.Clone(r.DailyChallenges)
	out.QuizAttempts = slices.Clone(r.QuizAttempts)
	out.PerformanceHistory = slices.Clone(r.PerformanceHistory)
	out.Attempts = maps.Clone(r.Attempts)
	out.MicroLessons = maps.Clone(r.MicroLessons)
	if r.SpacedRepetition != nil {
		out.SpacedRepetition = make(map[string]spacedrep.ConceptState, len(r.SpacedRepetition))
		for k, v := range r.SpacedRepetition {
			out.SpacedRepetition[k] = v.Clone()
		}
	}
	return &out
}

// ensureMaps initializes nil maps on records decoded from older files.
func (r *Record) ensureMaps() {
	if r.Attempts == nil {
		r.Attempts = make(map[string]int)
	}
	if r.SpacedRepetition == nil {
		r.SpacedRepetition = make(map[string]spacedrep.ConceptState)
	}
	if r.MicroLessons == nil {
		r.MicroLessons = make(map[string]MicroLesson)
	}
}

// IsCompleted reports whether the activity is in the completion set for its kind.
func (r *Record) IsCompleted(kind catalog.Kind, id string) bool {
	switch kind {
	case catalog.KindLesson:
		return r.CompletedLessonIDs.Has(id)
	case catalog.KindChallenge:
		return r.CompletedChallengeIDs.Has(id)
	case catalog.KindQuiz:
		return r.CompletedQuizIDs.Has(id)
	case catalog.KindProject:
		return r.CompletedProjectIDs.Has(id)
	}
	return false
}

// CompletedCount returns the completion counter for kind.
func (r *Record) CompletedCount(kind catalog.Kind) int {
	switch kind {
	case catalog.KindLesson:
		return r.LessonsCompleted
	case catalog.KindChallenge:
		return r.ChallengesCompleted
	case catalog.KindQuiz:
		return r.QuizzesCompleted
	case catalog.KindProject:
		return r.ProjectsCompleted
	}
	return 0
}

// AchievementCount returns the number of earned achievements.
func (r *Record) AchievementCount() int { return r.Achievements.Len() }

func (r *Record) appendHistory(e PerformanceEntry) {
	r.PerformanceHistory = append(r.PerformanceHistory, e)
	if over := len(r.PerformanceHistory) - MaxHistory; over > 0 {
		r.PerformanceHistory = append(r.PerformanceHistory[:0:0], r.PerformanceHistory[over:]...)
	}
}

// HistoryFor returns the performance entries recorded against an activity.
func (r *Record) HistoryFor(activityID string) []PerformanceEntry {
	var out []PerformanceEntry
	for _, e := range r.PerformanceHistory {
		if e.ActivityID == activityID {
			out = append(out, e)
		}
	}
	return out
}
