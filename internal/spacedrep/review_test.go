package spacedrep

import (
	"testing"
	"time"
)

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func TestIsDue(t *testing.T) {
	tests := []struct {
		name string
		cs   ConceptState
		now  time.Time
		want bool
	}{
		{"never reviewed", NewConceptState(), t0, false},
		{"before", ConceptState{Attempts: 1, NextReviewAt: t0.Add(time.Hour)}, t0, false},
		{"on time", ConceptState{Attempts: 1, NextReviewAt: t0}, t0, true},
		{"after", ConceptState{Attempts: 1, NextReviewAt: t0}, t0.Add(time.Minute), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cs.IsDue(tt.now); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPriority(t *testing.T) {
	cs := ConceptState{LastReviewAt: t0, LastPerformance: 0.6}
	got := cs.Priority(t0.Add(10 * time.Hour))
	if got < 399.99 || got > 400.01 {
		t.Errorf("Priority() = %v, want 400", got)
	}

	perfect := ConceptState{LastReviewAt: t0, LastPerformance: 1}
	if p := perfect.Priority(t0.Add(100 * time.Hour)); p != 0 {
		t.Errorf("Priority() for perfect recall = %v, want 0", p)
	}
}

func TestSuccessRate_UsesWindow(t *testing.T) {
	cs := ConceptState{Recent: []bool{false, false, true, true, true, true, true}}
	if got := cs.SuccessRate(5); got != 1 {
		t.Errorf("SuccessRate(5) = %v, want 1", got)
	}
	if got := cs.SuccessRate(10); got < 0.71 || got > 0.72 {
		t.Errorf("SuccessRate(10) = %v, want ~0.714", got)
	}
	empty := NewConceptState()
	if got := empty.SuccessRate(5); got != 0 {
		t.Errorf("SuccessRate on empty = %v, want 0", got)
	}
}

func TestPushRecent_Bounded(t *testing.T) {
	cs := NewConceptState()
	for i := 0; i < MaxRecent+50; i++ {
		cs.pushRecent(i%2 == 0)
	}
	if len(cs.Recent) != MaxRecent {
		t.Fatalf("len(Recent) = %d, want %d", len(cs.Recent), MaxRecent)
	}
	// The last push (i = MaxRecent+49, odd) must be retained.
	if cs.Recent[MaxRecent-1] {
		t.Error("newest entry should be retained at the end")
	}
}

func TestConsistent(t *testing.T) {
	tests := []struct {
		name string
		cs   ConceptState
		want bool
	}{
		{"fresh", NewConceptState(), true},
		{"normal", ConceptState{LastReviewAt: t0, NextReviewAt: t0.Add(time.Hour), Attempts: 1, EaseFactor: 2.5}, true},
		{"within skew", ConceptState{LastReviewAt: t0.Add(4 * time.Minute), NextReviewAt: t0.Add(time.Hour), Attempts: 1, EaseFactor: 2.5}, true},
		{"future review", ConceptState{LastReviewAt: t0.Add(time.Hour), NextReviewAt: t0.Add(2 * time.Hour), Attempts: 1, EaseFactor: 2.5}, false},
		{"next before last", ConceptState{LastReviewAt: t0, NextReviewAt: t0.Add(-time.Hour), Attempts: 1, EaseFactor: 2.5}, false},
		{"ease out of range", ConceptState{LastReviewAt: t0, NextReviewAt: t0, Attempts: 1, EaseFactor: 9}, false},
		{"stage out of range", ConceptState{LastReviewAt: t0, NextReviewAt: t0, Attempts: 1, EaseFactor: 2.5, Stage: 12}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cs.Consistent(t0); got != tt.want {
				t.Errorf("Consistent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	cs := ConceptState{Attempts: 2, LastReviewAt: t0, NextReviewAt: t0.Add(4 * time.Hour), IntervalHours: 4}
	if got := cs.Status(t0); got != ReviewNotDue {
		t.Errorf("Status() = %q, want %q", got, ReviewNotDue)
	}
	if got := cs.Status(t0.Add(5 * time.Hour)); got != ReviewDue {
		t.Errorf("Status() = %q, want %q", got, ReviewDue)
	}
	if got := cs.Status(t0.Add(9 * time.Hour)); got != ReviewOverdue {
		t.Errorf("Status() = %q, want %q", got, ReviewOverdue)
	}
	fresh := NewConceptState()
	if got := fresh.Status(t0); got != ReviewNew {
		t.Errorf("Status() = %q, want %q", got, ReviewNew)
	}
}

func TestHoursUntilReview(t *testing.T) {
	cs := ConceptState{Attempts: 1, NextReviewAt: t0.Add(90 * time.Minute)}
	if got := cs.HoursUntilReview(t0); got != 2 {
		t.Errorf("HoursUntilReview() = %d, want 2", got)
	}
	if got := cs.HoursUntilReview(t0.Add(2 * time.Hour)); got != 0 {
		t.Errorf("HoursUntilReview() when due = %d, want 0", got)
	}
}
