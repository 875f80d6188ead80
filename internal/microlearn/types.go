package microlearn

import (
	"github.com/abhisek/pylearn/internal/catalog"
	"github.com/abhisek/pylearn/internal/progress"
)

// ChunkType identifies the role of a chunk within a lesson.
type ChunkType string

const (
	ConceptIntroduction ChunkType = "concept_introduction"
	ExampleWalkthrough  ChunkType = "example_walkthrough"
	PracticeExercise    ChunkType = "practice_exercise"
	KnowledgeCheck      ChunkType = "knowledge_check"
	LessonSummary       ChunkType = "lesson_summary"
)

// perObjective is the chunk sequence emitted for every lesson objective.
var perObjective = []ChunkType{ConceptIntroduction, ExampleWalkthrough, PracticeExercise, KnowledgeCheck}

// Chunk is one 3-5 minute unit of a lesson.
type Chunk struct {
	ID               string        `json:"id"`
	Index            int           `json:"index"`
	Type             ChunkType     `json:"type"`
	Title            string        `json:"title"`
	Concept          string        `json:"concept,omitempty"`
	Body             Body          `json:"body"`
	EstimatedMinutes float64       `json:"estimated_minutes"`
	Interactive      []Interactive `json:"interactive_elements"`
	Hints            []string      `json:"hints,omitempty"`
	Constraints      []string      `json:"constraints,omitempty"`
}

// Body is the teaching text of a chunk.
type Body struct {
	Text      string   `json:"text"`
	KeyPoints []string `json:"key_points,omitempty"`
	Code      string   `json:"code,omitempty"`
}

// Interactive describes a UI element attached to a chunk. The fields used
// depend on Type.
type Interactive struct {
	Type    string   `json:"type"`
	Prompt  string   `json:"prompt,omitempty"`
	Starter string   `json:"starter,omitempty"`
	Options []string `json:"options,omitempty"`
	Answer  *int     `json:"answer,omitempty"`
}

// Interactive element types.
const (
	ElementContinue       = "continue_button"
	ElementCodeRunner     = "code_runner"
	ElementCodeEditor     = "code_editor"
	ElementMultipleChoice = "multiple_choice"
	ElementReflection     = "reflection"
)

// ReviewInfo lists lesson concepts the learner is due to review.
type ReviewInfo struct {
	ConceptsToReview []string `json:"concepts_to_review"`
	ReviewCount      int      `json:"review_count"`
}

// Lesson is a lesson split into chunks for one learner.
type Lesson struct {
	LessonID           string               `json:"lesson_id"`
	Title              string               `json:"title"`
	Chunks             []Chunk              `json:"chunks"`
	TotalEstimatedTime float64              `json:"total_estimated_time"`
	DifficultyLevel    catalog.Difficulty   `json:"difficulty_level"`
	SpacedRepetition   ReviewInfo           `json:"spaced_repetition"`
	State              progress.LessonState `json:"state"`
	NextChunk          int                  `json:"next_chunk"`
}
