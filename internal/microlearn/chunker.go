package microlearn

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/pylearn/internal/adaptive"
	"github.com/abhisek/pylearn/internal/catalog"
	"github.com/abhisek/pylearn/internal/progress"
	"github.com/abhisek/pylearn/internal/spacedrep"
)

// Per-chunk time budget bounds, in minutes.
const (
	MinChunkMinutes = 3
	MaxChunkMinutes = 5
)

// Time budget factors applied by difficulty adaptation.
const (
	easyTimeFactor = 2.0
	hardTimeFactor = 0.7
)

// chunkNamespace seeds the deterministic chunk IDs.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("pylearn.micro_chunk"))

// ChunkID returns the stable identifier of chunk index of a lesson.
func ChunkID(lessonID string, index int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(lessonID+"#"+strconv.Itoa(index))).String()
}

// Chunker splits catalog lessons into micro-chunks adapted to a learner.
type Chunker struct {
	catalog catalog.Provider
}

// NewChunker creates a chunker over cat.
func NewChunker(cat catalog.Provider) *Chunker {
	return &Chunker{catalog: cat}
}

// Build returns the micro-lesson for lessonID as seen by rec at now.
func (c *Chunker) Build(rec *progress.Record, lessonID string, now time.Time) (Lesson, error) {
	a, ok := c.catalog.Lesson(lessonID)
	if !ok {
		return Lesson{}, fmt.Errorf("lesson %q: %w", lessonID, progress.ErrUnknownActivity)
	}

	skill := adaptive.EstimateSkill(rec.PerformanceHistory, rec.ExperienceLevel)
	level := adaptive.SuggestDifficulty(a.Difficulty, skill)

	chunks := assemble(a)
	base := baseMinutes(a.EstimatedMinutes, len(chunks))
	var total float64
	for i := range chunks {
		chunks[i].EstimatedMinutes = base
		adapt(&chunks[i], level)
		chunks[i].EstimatedMinutes = round1(chunks[i].EstimatedMinutes)
		total += chunks[i].EstimatedMinutes
	}

	review := dueObjectives(rec, a.Objectives, now)
	return Lesson{
		LessonID:           a.ID,
		Title:              a.Title,
		Chunks:             chunks,
		TotalEstimatedTime: round1(total),
		DifficultyLevel:    level,
		SpacedRepetition:   ReviewInfo{ConceptsToReview: review, ReviewCount: len(review)},
		State:              progress.MicroLessonState(rec, a.ID),
		NextChunk:          NextChunk(rec, a),
	}, nil
}

// NextChunk returns the index of the chunk the learner should see next.
// A completed lesson restarts at 0 for review.
func NextChunk(rec *progress.Record, lesson catalog.Activity) int {
	ml, ok := rec.MicroLessons[lesson.ID]
	if !ok || ml.State == progress.MicroNotStarted || ml.State == progress.MicroCompleted {
		return 0
	}
	next := ml.LastChunk + 1
	if n := lesson.ChunkCount(); next >= n {
		return n - 1
	}
	return next
}

func baseMinutes(lessonMinutes, count int) float64 {
	if count == 0 {
		return MinChunkMinutes
	}
	per := float64(lessonMinutes) / float64(count)
	return math.Max(MinChunkMinutes, math.Min(MaxChunkMinutes, per))
}

// dueObjectives returns the lesson objectives whose review is due, ordered
// by review priority.
func dueObjectives(rec *progress.Record, objectives []string, now time.Time) []string {
	due, _ := spacedrep.Due(rec.SpacedRepetition, now)
	out := []string{}
	for _, d := range due {
		if slices.Contains(objectives, d.ConceptID) {
			out = append(out, d.ConceptID)
		}
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
