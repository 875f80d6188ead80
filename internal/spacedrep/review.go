package spacedrep

import "time"

// ConceptState holds the spaced repetition state for a single concept.
type ConceptState struct {
	LastReviewAt    time.Time `json:"last_review_at"`
	NextReviewAt    time.Time `json:"next_review_at"`
	LastPerformance float64   `json:"last_performance"`
	Attempts        int       `json:"attempts"`
	EaseFactor      float64   `json:"ease_factor"`
	Stage           int       `json:"stage"`
	IntervalHours   float64   `json:"interval_hours"`
	Recent          []bool    `json:"recent"`
}

// NewConceptState returns the state of a concept that has never been reviewed.
func NewConceptState() ConceptState {
	return ConceptState{EaseFactor: DefaultEase}
}

// Clone returns a deep copy.
func (cs ConceptState) Clone() ConceptState {
	out := cs
	if cs.Recent != nil {
		out.Recent = append([]bool(nil), cs.Recent...)
	}
	return out
}

// IsDue returns true if the concept is due for review (at or past the review time).
func (cs *ConceptState) IsDue(now time.Time) bool {
	return cs.Attempts > 0 && !now.Before(cs.NextReviewAt)
}

// Priority ranks due concepts: long-unreviewed, poorly recalled concepts first.
func (cs *ConceptState) Priority(now time.Time) float64 {
	hours := now.Sub(cs.LastReviewAt).Hours()
	if hours < 0 {
		hours = 0
	}
	return hours * (1 - cs.LastPerformance) * 100
}

// SuccessRate returns the fraction of correct outcomes among the last n.
// Returns 0 when there is no history.
func (cs *ConceptState) SuccessRate(n int) float64 {
	recent := cs.Recent
	if len(recent) > n {
		recent = recent[len(recent)-n:]
	}
	if len(recent) == 0 {
		return 0
	}
	hits := 0
	for _, ok := range recent {
		if ok {
			hits++
		}
	}
	return float64(hits) / float64(len(recent))
}

// Consistent reports whether the state could have been produced by the
// scheduler as of now.
func (cs *ConceptState) Consistent(now time.Time) bool {
	if cs.LastReviewAt.After(now.Add(ClockSkew)) {
		return false
	}
	if cs.NextReviewAt.Before(cs.LastReviewAt) {
		return false
	}
	if cs.EaseFactor != 0 && (cs.EaseFactor < MinEase || cs.EaseFactor > MaxEase) {
		return false
	}
	return cs.Attempts >= 0 && cs.Stage >= 0 && cs.Stage <= MaxStage
}

func (cs *ConceptState) pushRecent(correct bool) {
	cs.Recent = append(cs.Recent, correct)
	if over := len(cs.Recent) - MaxRecent; over > 0 {
		cs.Recent = append(cs.Recent[:0:0], cs.Recent[over:]...)
	}
}

// ReviewStatus describes a concept's review status for display.
type ReviewStatus string

const (
	ReviewNew     ReviewStatus = "new"
	ReviewNotDue  ReviewStatus = "not_due"
	ReviewDue     ReviewStatus = "due"
	ReviewOverdue ReviewStatus = "overdue"
)

// Status returns the review status for display. A due concept becomes
// overdue once it has waited longer than its own interval.
func (cs *ConceptState) Status(now time.Time) ReviewStatus {
	if cs.Attempts == 0 {
		return ReviewNew
	}
	if !cs.IsDue(now) {
		return ReviewNotDue
	}
	grace := time.Duration(cs.IntervalHours * float64(time.Hour))
	if now.After(cs.NextReviewAt.Add(grace)) {
		return ReviewOverdue
	}
	return ReviewDue
}

// HoursUntilReview returns the number of whole hours until the next review.
// Returns 0 if already due.
func (cs *ConceptState) HoursUntilReview(now time.Time) int {
	if !now.Before(cs.NextReviewAt) {
		return 0
	}
	return int(cs.NextReviewAt.Sub(now).Hours()) + 1
}
