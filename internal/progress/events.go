package progress

import (
	"github.com/abhisek/pylearn/internal/catalog"
	"github.com/abhisek/pylearn/internal/clock"
)

// EventKind names an event variant on the wire and in the event log.
type EventKind string

const (
	KindLessonCompleted         EventKind = "lesson_completed"
	KindChallengeSubmitted      EventKind = "challenge_submitted"
	KindQuizCompleted           EventKind = "quiz_completed"
	KindProjectCompleted        EventKind = "project_completed"
	KindPlaygroundUsed          EventKind = "playground_used"
	KindDailyChallengeCompleted EventKind = "daily_challenge_completed"
	KindMicroChunkOutcome       EventKind = "micro_chunk_outcome"
	KindChunkShown              EventKind = "chunk_shown"
	KindChunkAcknowledged       EventKind = "chunk_acknowledged"
)

// AllEventKinds returns every event kind.
func AllEventKinds() []EventKind {
	return []EventKind{
		KindLessonCompleted, KindChallengeSubmitted, KindQuizCompleted,
		KindProjectCompleted, KindPlaygroundUsed, KindDailyChallengeCompleted,
		KindMicroChunkOutcome, KindChunkShown, KindChunkAcknowledged,
	}
}

// Event is a domain event applied to a learner record. The set of
// implementations is closed to this package.
type Event interface {
	Kind() EventKind
	isEvent()
}

// LessonCompleted marks a lesson finished.
type LessonCompleted struct {
	LessonID string `json:"lesson_id"`
	Points   int    `json:"points"`
}

// ChallengeSubmitted records a coding challenge attempt.
type ChallengeSubmitted struct {
	ChallengeID string `json:"challenge_id"`
	Success     bool   `json:"success"`
	Points      int    `json:"points"`
}

// QuizCompleted records a graded quiz submission.
type QuizCompleted struct {
	QuizID       string `json:"quiz_id"`
	Correct      int    `json:"correct"`
	Total        int    `json:"total"`
	RewardPoints int    `json:"reward_points"`
}

// ProjectCompleted marks a project finished.
type ProjectCompleted struct {
	ProjectID string `json:"project_id"`
	Points    int    `json:"points"`
}

// PlaygroundUsed records a code playground session.
type PlaygroundUsed struct{}

// DailyChallengeCompleted records the daily challenge for a date. An empty
// date means today.
type DailyChallengeCompleted struct {
	Date         clock.Date `json:"date"`
	RewardPoints int        `json:"reward_points"`
}

// MicroChunkOutcome is a graded recall of one concept.
type MicroChunkOutcome struct {
	ConceptID      string             `json:"concept_id"`
	ActivityID     string             `json:"activity_id,omitempty"`
	Correct        bool               `json:"correct"`
	Quality        int                `json:"quality"`
	ElapsedSeconds int                `json:"elapsed_seconds"`
	Difficulty     catalog.Difficulty `json:"difficulty,omitempty"`
}

// ChunkShown records that a micro-lesson chunk was displayed.
type ChunkShown struct {
	LessonID   string `json:"lesson_id"`
	ChunkIndex int    `json:"chunk_index"`
}

// ChunkAcknowledged records that the learner finished a chunk.
type ChunkAcknowledged struct {
	LessonID   string `json:"lesson_id"`
	ChunkIndex int    `json:"chunk_index"`
}

func (LessonCompleted) Kind() EventKind         { return KindLessonCompleted }
func (ChallengeSubmitted) Kind() EventKind      { return KindChallengeSubmitted }
func (QuizCompleted) Kind() EventKind           { return KindQuizCompleted }
func (ProjectCompleted) Kind() EventKind        { return KindProjectCompleted }
func (PlaygroundUsed) Kind() EventKind          { return KindPlaygroundUsed }
func (DailyChallengeCompleted) Kind() EventKind { return KindDailyChallengeCompleted }
func (MicroChunkOutcome) Kind() EventKind       { return KindMicroChunkOutcome }
func (ChunkShown) Kind() EventKind              { return KindChunkShown }
func (ChunkAcknowledged) Kind() EventKind       { return KindChunkAcknowledged }

func (LessonCompleted) isEvent()         {}
func (ChallengeSubmitted) isEvent()      {}
func (QuizCompleted) isEvent()           {}
func (ProjectCompleted) isEvent()        {}
func (PlaygroundUsed) isEvent()          {}
func (DailyChallengeCompleted) isEvent() {}
func (MicroChunkOutcome) isEvent()       {}
func (ChunkShown) isEvent()              {}
func (ChunkAcknowledged) isEvent()       {}

// ActivityID returns the catalog activity an event refers to, if any.
func ActivityID(ev Event) string {
	switch e := ev.(type) {
	case LessonCompleted:
		return e.LessonID
	case ChallengeSubmitted:
		return e.ChallengeID
	case QuizCompleted:
		return e.QuizID
	case ProjectCompleted:
		return e.ProjectID
	case MicroChunkOutcome:
		return e.ActivityID
	case ChunkShown:
		return e.LessonID
	case ChunkAcknowledged:
		return e.LessonID
	}
	return ""
}
