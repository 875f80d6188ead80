package spacedrep

import (
	"math"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/abhisek/pylearn/internal/catalog"
)

// Random is the source of interval jitter. *rand.Rand satisfies it.
type Random interface {
	Float64() float64
}

type globalRandom struct{}

func (globalRandom) Float64() float64 { return rand.Float64() }

// Outcome is one recall attempt on a concept.
type Outcome struct {
	ConceptID  string
	Correct    bool
	Quality    int // 0..5
	Difficulty catalog.Difficulty
	At         time.Time
}

// Update describes the schedule change produced by an outcome.
type Update struct {
	ConceptID     string    `json:"concept_id"`
	NextReviewAt  time.Time `json:"next_review_at"`
	IntervalHours float64   `json:"interval_hours"`
	Stage         int       `json:"stage"`
	EaseFactor    float64   `json:"ease_factor"`
	Healed        bool      `json:"healed,omitempty"`
}

// Scheduler computes next-review times. It holds no per-learner state;
// concept states live in the learner record.
type Scheduler struct {
	mu  sync.Mutex
	rng Random
}

// NewScheduler creates a scheduler drawing jitter from rng.
// A nil rng uses the process-wide generator.
func NewScheduler(rng Random) *Scheduler {
	if rng == nil {
		rng = globalRandom{}
	}
	return &Scheduler{rng: rng}
}

func (s *Scheduler) jitter() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return 0.9 + 0.2*s.rng.Float64()
}

// Apply records an outcome against st and returns the resulting update.
// A corrupt state is reset before the outcome is applied and the update
// is flagged as healed.
func (s *Scheduler) Apply(st *ConceptState, o Outcome) Update {
	now := o.At
	healed := false
	if !st.Consistent(now) {
		*st = NewConceptState()
		healed = true
	}
	if st.EaseFactor == 0 {
		st.EaseFactor = DefaultEase
	}

	q := min(max(o.Quality, 0), 5)
	n := st.Attempts
	prevPerf := st.LastPerformance
	st.pushRecent(o.Correct)

	var hours float64
	switch {
	case n == 0:
		st.Stage = 0
		hours = LadderHours[0]
	case q < 3:
		st.EaseFactor = math.Max(MinEase, prevPerf*2.5-0.8)
		st.Stage = 0
		hours = LadderHours[0] * s.jitter()
	default:
		st.Stage = stageFor(n, st.SuccessRate(RecentWindow))
		d := float64(5 - q)
		st.EaseFactor = clamp(st.EaseFactor+(0.1-d*(0.08+d*0.02)), MinEase, MaxEase)
		hours = LadderHours[st.Stage] * Multiplier(o.Difficulty) * (st.EaseFactor / DefaultEase) * s.jitter()
	}

	st.Attempts = n + 1
	st.LastPerformance = float64(q) / 5
	st.LastReviewAt = now
	st.IntervalHours = hours
	st.NextReviewAt = now.Add(time.Duration(hours * float64(time.Hour)))

	return Update{
		ConceptID:     o.ConceptID,
		NextReviewAt:  st.NextReviewAt,
		IntervalHours: hours,
		Stage:         st.Stage,
		EaseFactor:    st.EaseFactor,
		Healed:        healed,
	}
}

// stageFor picks the ladder index from prior attempts n and recent success rate r.
func stageFor(n int, r float64) int {
	switch {
	case r >= 0.9:
		return min(n, MaxStage)
	case r >= 0.7:
		return max(0, min(n-1, MaxStage-1))
	default:
		return max(0, n-2)
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// DueConcept is one entry of the review queue.
type DueConcept struct {
	ConceptID       string    `json:"concept_id"`
	Priority        float64   `json:"priority"`
	LastPerformance float64   `json:"last_performance"`
	NextReviewAt    time.Time `json:"next_review_at"`
	Stage           int       `json:"stage"`
}

// Due returns the concepts due at now, most urgent first. Corrupt entries
// are skipped and their IDs returned in healed so the caller can reset them.
func Due(states map[string]ConceptState, now time.Time) (due []DueConcept, healed []string) {
	for id, st := range states {
		if !st.Consistent(now) {
			healed = append(healed, id)
			continue
		}
		if !st.IsDue(now) {
			continue
		}
		due = append(due, DueConcept{
			ConceptID:       id,
			Priority:        st.Priority(now),
			LastPerformance: st.LastPerformance,
			NextReviewAt:    st.NextReviewAt,
			Stage:           st.Stage,
		})
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].Priority != due[j].Priority {
			return due[i].Priority > due[j].Priority
		}
		return due[i].ConceptID < due[j].ConceptID
	})
	sort.Strings(healed)
	return due, healed
}

// Heal resets every corrupt entry in states and returns the reset IDs.
func Heal(states map[string]ConceptState, now time.Time) []string {
	var ids []string
	for id, st := range states {
		if !st.Consistent(now) {
			states[id] = NewConceptState()
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
