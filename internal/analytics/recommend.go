package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/abhisek/pylearn/internal/progress"
	"github.com/abhisek/pylearn/internal/spacedrep"
)

// Priority orders recommendations.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	}
	return 2
}

// MaxRecommendations caps the recommendation list.
const MaxRecommendations = 5

// Recommendation is one suggested next step.
type Recommendation struct {
	Type      string   `json:"type"`
	Priority  Priority `json:"priority"`
	Title     string   `json:"title"`
	Message   string   `json:"message"`
	SkillArea string   `json:"skill_area,omitempty"`
}

// Recommendations applies the rule list and returns the top entries by
// priority. Rules of equal priority keep their rule order.
func (e *Engine) Recommendations(rec *progress.Record, now time.Time) []Recommendation {
	var recs []Recommendation

	if rec.LessonsCompleted < 10 {
		recs = append(recs, Recommendation{
			Type:     "focus_fundamentals",
			Priority: PriorityHigh,
			Title:    "Focus on fundamentals",
			Message:  "Complete more core lessons to build a solid Python foundation.",
		})
	}
	if rec.QuizzesTaken > 0 && rec.AverageQuizScore < 70 {
		recs = append(recs, Recommendation{
			Type:     "review_material",
			Priority: PriorityHigh,
			Title:    "Review previous material",
			Message:  fmt.Sprintf("Your quiz average is %.0f%%. Revisit earlier lessons before moving on.", rec.AverageQuizScore),
		})
	}
	if due, _ := spacedrep.Due(rec.SpacedRepetition, now); len(due) > 0 {
		recs = append(recs, Recommendation{
			Type:     "due_reviews",
			Priority: PriorityMedium,
			Title:    "Review due concepts",
			Message:  fmt.Sprintf("%d concept(s) are due for review, starting with %q.", len(due), due[0].ConceptID),
		})
	}
	if rec.ChallengesCompleted == 0 {
		recs = append(recs, Recommendation{
			Type:     "first_challenge",
			Priority: PriorityMedium,
			Title:    "Try your first challenge",
			Message:  "Put your knowledge to work with a coding challenge.",
		})
	}
	for _, ap := range e.SkillProgression(rec) {
		if ap.Total == 0 || ap.Percentage >= 50 {
			continue
		}
		recs = append(recs, Recommendation{
			Type:      "improve_area",
			Priority:  PriorityLow,
			Title:     fmt.Sprintf("Improve %s skills", ap.Name),
			Message:   fmt.Sprintf("You have completed %d of %d %s lessons.", ap.Completed, ap.Total, ap.Name),
			SkillArea: ap.Area,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.rank() < recs[j].Priority.rank()
	})
	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	return recs
}
