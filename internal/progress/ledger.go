package progress

import (
	"fmt"
	"time"

	"github.com/abhisek/pylearn/internal/catalog"
	"github.com/abhisek/pylearn/internal/clock"
	"github.com/abhisek/pylearn/internal/spacedrep"
)

// Diff summarizes the effect of one applied event.
type Diff struct {
	Kind             EventKind          `json:"kind"`
	PointsEarned     int                `json:"points_earned"`
	NewLevel         int                `json:"new_level"`
	LevelChanged     bool               `json:"level_changed"`
	AlreadyCompleted bool               `json:"already_completed"`
	FirstCompletion  bool               `json:"first_completion"`
	CompletedLesson  string             `json:"completed_lesson,omitempty"`
	ReviewUpdates    []spacedrep.Update `json:"next_review_updates,omitempty"`
	HealedConcepts   []string           `json:"healed_concepts,omitempty"`
}

// Ledger applies events to learner records. It is the only component that
// mutates a Record; everything else reads snapshots.
type Ledger struct {
	catalog   catalog.Provider
	clock     clock.Clock
	scheduler *spacedrep.Scheduler
}

// NewLedger creates a ledger. A nil scheduler uses one with the
// process-wide random source.
func NewLedger(cat catalog.Provider, clk clock.Clock, sched *spacedrep.Scheduler) *Ledger {
	if clk == nil {
		clk = clock.System{}
	}
	if sched == nil {
		sched = spacedrep.NewScheduler(nil)
	}
	return &Ledger{catalog: cat, clock: clk, scheduler: sched}
}

// Apply validates ev and applies it to rec. On error rec is left unchanged.
func (l *Ledger) Apply(rec *Record, ev Event) (Diff, error) {
	if rec == nil {
		return Diff{}, invalid("record", "nil")
	}
	if err := l.validate(ev); err != nil {
		return Diff{}, err
	}
	rec.ensureMaps()

	prev := rec.Clone()
	now := l.clock.Now()
	d := Diff{Kind: ev.Kind()}

	switch e := ev.(type) {
	case LessonCompleted:
		l.complete(rec, catalog.KindLesson, e.LessonID, e.Points, now, &d)
	case ProjectCompleted:
		l.complete(rec, catalog.KindProject, e.ProjectID, e.Points, now, &d)
	case ChallengeSubmitted:
		l.submitChallenge(rec, e, now, &d)
	case QuizCompleted:
		l.completeQuiz(rec, e, now, &d)
	case PlaygroundUsed:
		rec.PlaygroundUses++
		rec.LastActivity = now
	case DailyChallengeCompleted:
		l.completeDaily(rec, e, now, &d)
	case MicroChunkOutcome:
		l.recordOutcome(rec, e, now, &d)
	case ChunkShown:
		l.showChunk(rec, e, now)
	case ChunkAcknowledged:
		l.acknowledgeChunk(rec, e, now, &d)
	default:
		return Diff{}, fmt.Errorf("%w: %T", ErrInvalidEventKind, ev)
	}

	if err := CheckTransition(prev, rec); err != nil {
		*rec = *prev
		return Diff{}, err
	}

	d.NewLevel = rec.Level
	d.LevelChanged = rec.Level != prev.Level
	return d, nil
}

// CreditAchievement records an unlocked achievement and adds its reward to
// the point total. Returns false if the achievement was already earned.
func (l *Ledger) CreditAchievement(rec *Record, id string, reward int) bool {
	if !rec.Achievements.Add(id) {
		return false
	}
	if reward > 0 {
		rec.Points += reward
		rec.Level = LevelFor(rec.Points)
	}
	return true
}

func (l *Ledger) validate(ev Event) error {
	switch e := ev.(type) {
	case LessonCompleted:
		if err := nonNegative("points", e.Points); err != nil {
			return err
		}
		return l.requireKind(e.LessonID, catalog.KindLesson)
	case ProjectCompleted:
		if err := nonNegative("points", e.Points); err != nil {
			return err
		}
		return l.requireKind(e.ProjectID, catalog.KindProject)
	case ChallengeSubmitted:
		if err := nonNegative("points", e.Points); err != nil {
			return err
		}
		return l.requireKind(e.ChallengeID, catalog.KindChallenge)
	case QuizCompleted:
		if e.Total <= 0 {
			return invalid("total", "must be > 0, got %d", e.Total)
		}
		if e.Correct < 0 || e.Correct > e.Total {
			return invalid("correct", "must be within 0..%d, got %d", e.Total, e.Correct)
		}
		if err := nonNegative("reward_points", e.RewardPoints); err != nil {
			return err
		}
		return l.requireKind(e.QuizID, catalog.KindQuiz)
	case PlaygroundUsed:
		return nil
	case DailyChallengeCompleted:
		if !e.Date.IsZero() && !e.Date.Valid() {
			return invalid("date", "want YYYY-MM-DD, got %q", e.Date)
		}
		return nonNegative("reward_points", e.RewardPoints)
	case MicroChunkOutcome:
		if e.ConceptID == "" {
			return invalid("concept_id", "required")
		}
		if e.Quality < 0 || e.Quality > 5 {
			return invalid("quality", "must be within 0..5, got %d", e.Quality)
		}
		if err := nonNegative("elapsed_seconds", e.ElapsedSeconds); err != nil {
			return err
		}
		if e.Difficulty != "" && !e.Difficulty.Valid() {
			return invalid("difficulty", "unknown value %q", e.Difficulty)
		}
		if e.ActivityID != "" {
			if _, ok := l.catalog.Get(e.ActivityID); !ok {
				return fmt.Errorf("%w: %q", ErrUnknownActivity, e.ActivityID)
			}
		}
		return nil
	case ChunkShown:
		return l.validateChunk(e.LessonID, e.ChunkIndex)
	case ChunkAcknowledged:
		return l.validateChunk(e.LessonID, e.ChunkIndex)
	case nil:
		return fmt.Errorf("%w: nil event", ErrInvalidEventKind)
	}
	return fmt.Errorf("%w: %T", ErrInvalidEventKind, ev)
}

func (l *Ledger) requireKind(id string, kind catalog.Kind) error {
	if id == "" {
		return invalid(string(kind)+"_id", "required")
	}
	a, ok := l.catalog.Get(id)
	if !ok || a.Kind != kind {
		return fmt.Errorf("%w: %s %q", ErrUnknownActivity, kind, id)
	}
	return nil
}

func (l *Ledger) validateChunk(lessonID string, index int) error {
	if err := l.requireKind(lessonID, catalog.KindLesson); err != nil {
		return err
	}
	lesson, _ := l.catalog.Lesson(lessonID)
	if index < 0 || index >= lesson.ChunkCount() {
		return invalid("chunk_index", "must be within 0..%d, got %d", lesson.ChunkCount()-1, index)
	}
	return nil
}

func nonNegative(field string, v int) error {
	if v < 0 {
		return invalid(field, "must be >= 0, got %d", v)
	}
	return nil
}

// touch records a learning activity at now: last_activity and the daily
// streak. Playground use and failed challenge submissions only set
// last_activity.
func (l *Ledger) touch(rec *Record, now time.Time) {
	rec.LastActivity = now
	updateStreak(rec, clock.DateOf(now))
}

func (l *Ledger) award(rec *Record, points int, d *Diff) {
	rec.Points += points
	rec.Level = LevelFor(rec.Points)
	d.PointsEarned += points
}

// complete adds id to the completion set for kind. A repeat completion is
// a no-op reported as already completed.
func (l *Ledger) complete(rec *Record, kind catalog.Kind, id string, points int, now time.Time, d *Diff) {
	var added bool
	switch kind {
	case catalog.KindLesson:
		if added = rec.CompletedLessonIDs.Add(id); added {
			rec.LessonsCompleted++
			d.CompletedLesson = id
		}
	case catalog.KindProject:
		if added = rec.CompletedProjectIDs.Add(id); added {
			rec.ProjectsCompleted++
		}
	}
	if !added {
		d.AlreadyCompleted = true
		return
	}
	d.FirstCompletion = true
	l.award(rec, points, d)
	l.touch(rec, now)
}

func (l *Ledger) submitChallenge(rec *Record, e ChallengeSubmitted, now time.Time, d *Diff) {
	rec.Attempts[e.ChallengeID]++
	if e.Success {
		l.touch(rec, now)
	} else {
		rec.LastActivity = now
	}

	score := 0.0
	if e.Success {
		score = 1
	}
	a, _ := l.catalog.Get(e.ChallengeID)
	rec.appendHistory(PerformanceEntry{
		ActivityID: e.ChallengeID,
		Kind:       catalog.KindChallenge,
		Score:      score,
		Correct:    e.Success,
		Difficulty: a.Difficulty,
		At:         now,
	})

	if !e.Success {
		return
	}
	if !rec.CompletedChallengeIDs.Add(e.ChallengeID) {
		d.AlreadyCompleted = true
		return
	}
	rec.ChallengesCompleted++
	d.FirstCompletion = true
	l.award(rec, e.Points, d)
}

func (l *Ledger) completeQuiz(rec *Record, e QuizCompleted, now time.Time, d *Diff) {
	pct := 100 * float64(e.Correct) / float64(e.Total)
	rec.QuizAttempts = append(rec.QuizAttempts, QuizAttempt{
		QuizID:     e.QuizID,
		Score:      e.Correct,
		MaxScore:   e.Total,
		Percentage: pct,
		Timestamp:  now,
	})
	rec.QuizzesTaken++
	rec.Attempts[e.QuizID]++
	// Every submission is scored; a retake is not a duplicate completion.
	if rec.CompletedQuizIDs.Add(e.QuizID) {
		rec.QuizzesCompleted++
		d.FirstCompletion = true
	}
	rec.AverageQuizScore = averagePercentage(rec.QuizAttempts, rec.QuizzesTaken)

	a, _ := l.catalog.Get(e.QuizID)
	rec.appendHistory(PerformanceEntry{
		ActivityID: e.QuizID,
		Kind:       catalog.KindQuiz,
		Score:      pct / 100,
		Correct:    pct >= 70,
		Difficulty: a.Difficulty,
		At:         now,
	})

	// Integer arithmetic keeps the floor exact: floor(correct/total * reward).
	l.award(rec, e.Correct*e.RewardPoints/e.Total, d)
	l.touch(rec, now)
}

func averagePercentage(attempts []QuizAttempt, taken int) float64 {
	if taken == 0 {
		return 0
	}
	var sum float64
	for _, a := range attempts {
		sum += a.Percentage
	}
	return sum / float64(taken)
}

func (l *Ledger) completeDaily(rec *Record, e DailyChallengeCompleted, now time.Time, d *Diff) {
	date := e.Date
	if date.IsZero() {
		date = clock.DateOf(now)
	}
	if !rec.DailyChallenges.Add(string(date)) {
		d.AlreadyCompleted = true
		return
	}
	d.FirstCompletion = true
	l.award(rec, e.RewardPoints, d)
	l.touch(rec, now)
}

func (l *Ledger) recordOutcome(rec *Record, e MicroChunkOutcome, now time.Time, d *Diff) {
	kind := catalog.KindMicroChunk
	diff := e.Difficulty
	if e.ActivityID != "" {
		a, _ := l.catalog.Get(e.ActivityID)
		kind = a.Kind
		if diff == "" {
			diff = a.Difficulty
		}
		rec.Attempts[e.ActivityID]++
	}
	if diff == "" {
		diff = catalog.Medium
	}

	st, ok := rec.SpacedRepetition[e.ConceptID]
	if !ok {
		st = spacedrep.NewConceptState()
	}
	up := l.scheduler.Apply(&st, spacedrep.Outcome{
		ConceptID:  e.ConceptID,
		Correct:    e.Correct,
		Quality:    e.Quality,
		Difficulty: diff,
		At:         now,
	})
	rec.SpacedRepetition[e.ConceptID] = st
	d.ReviewUpdates = append(d.ReviewUpdates, up)
	if up.Healed {
		d.HealedConcepts = append(d.HealedConcepts, e.ConceptID)
	}

	rec.appendHistory(PerformanceEntry{
		ActivityID:     e.ActivityID,
		Kind:           kind,
		ConceptID:      e.ConceptID,
		Score:          float64(e.Quality) / 5,
		Correct:        e.Correct,
		Quality:        e.Quality,
		ElapsedSeconds: e.ElapsedSeconds,
		Difficulty:     diff,
		At:             now,
	})
	l.touch(rec, now)
}

func (l *Ledger) showChunk(rec *Record, e ChunkShown, now time.Time) {
	ml := rec.MicroLessons[e.LessonID]
	if ml.State == "" || ml.State == MicroNotStarted {
		ml.State = MicroInProgress
	}
	ml.LastChunk = e.ChunkIndex
	ml.ChunksSeen++
	rec.MicroLessons[e.LessonID] = ml
	l.touch(rec, now)
}

// acknowledgeChunk advances the micro-lesson; acknowledging the summary
// chunk completes the lesson exactly once.
func (l *Ledger) acknowledgeChunk(rec *Record, e ChunkAcknowledged, now time.Time, d *Diff) {
	lesson, _ := l.catalog.Lesson(e.LessonID)
	ml := rec.MicroLessons[e.LessonID]
	if ml.State == "" || ml.State == MicroNotStarted {
		ml.State = MicroInProgress
	}
	ml.LastChunk = e.ChunkIndex
	l.touch(rec, now)

	if e.ChunkIndex == lesson.ChunkCount()-1 && ml.State != MicroCompleted {
		ml.State = MicroCompleted
		rec.MicroLessons[e.LessonID] = ml
		l.complete(rec, catalog.KindLesson, e.LessonID, lesson.Points, now, d)
		return
	}
	if ml.State == MicroCompleted {
		d.AlreadyCompleted = true
	}
	rec.MicroLessons[e.LessonID] = ml
}

// MicroLessonState returns the state of a micro-lesson for rec.
func MicroLessonState(rec *Record, lessonID string) LessonState {
	ml, ok := rec.MicroLessons[lessonID]
	if !ok || ml.State == "" {
		return MicroNotStarted
	}
	return ml.State
}
