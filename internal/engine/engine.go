// Package engine is the inbound façade of the progress engine. It owns the
// load, apply, settle, save cycle for one learner at a time and fans the
// result out to the event log, metrics, the leaderboard cache and the
// event publisher.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/pylearn/internal/achievements"
	"github.com/abhisek/pylearn/internal/adaptive"
	"github.com/abhisek/pylearn/internal/analytics"
	"github.com/abhisek/pylearn/internal/catalog"
	"github.com/abhisek/pylearn/internal/clock"
	"github.com/abhisek/pylearn/internal/events"
	"github.com/abhisek/pylearn/internal/metrics"
	"github.com/abhisek/pylearn/internal/microlearn"
	"github.com/abhisek/pylearn/internal/progress"
	"github.com/abhisek/pylearn/internal/spacedrep"
	"github.com/abhisek/pylearn/internal/store"
)

// ErrAlreadyRegistered is returned when Register is given an ID that
// already has a record.
var ErrAlreadyRegistered = errors.New("learner already registered")

// LeaderboardCache is the optional fast path for leaderboard reads.
type LeaderboardCache interface {
	Update(ctx context.Context, e store.LeaderboardEntry) error
	Remove(ctx context.Context, id string) error
	Warm(ctx context.Context, entries []store.LeaderboardEntry) error
	Top(ctx context.Context, limit int) ([]store.LeaderboardEntry, error)
}

// Options wires the engine's collaborators. Catalog and Store are required.
type Options struct {
	Catalog     catalog.Provider
	Store       store.Store
	Clock       clock.Clock
	Random      spacedrep.Random
	Publisher   events.Publisher
	Leaderboard LeaderboardCache
	Metrics     *metrics.Metrics
	Logger      *slog.Logger

	// DailySource seeds the daily challenge pick. Defaults to DailySource.
	DailySource func(date clock.Date) spacedrep.Random
}

// Engine serializes work per learner; different learners proceed in
// parallel.
type Engine struct {
	catalog     catalog.Provider
	goals       map[string]bool
	store       store.Store
	clock       clock.Clock
	ledger      *progress.Ledger
	evaluator   *achievements.Evaluator
	analytics   *analytics.Engine
	planner     *adaptive.Planner
	chunker     *microlearn.Chunker
	publisher   events.Publisher
	leaderboard LeaderboardCache
	metrics     *metrics.Metrics
	log         *slog.Logger
	dailySource func(date clock.Date) spacedrep.Random
	locks       *keyedMutex
}

// New creates an engine.
func New(opts Options) (*Engine, error) {
	if opts.Catalog == nil {
		return nil, errors.New("engine: catalog is required")
	}
	if opts.Store == nil {
		return nil, errors.New("engine: store is required")
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.DailySource == nil {
		opts.DailySource = DailySource
	}

	goals := make(map[string]bool)
	for _, g := range opts.Catalog.Goals() {
		goals[g] = true
	}

	return &Engine{
		catalog:     opts.Catalog,
		goals:       goals,
		store:       opts.Store,
		clock:       opts.Clock,
		ledger:      progress.NewLedger(opts.Catalog, opts.Clock, spacedrep.NewScheduler(opts.Random)),
		evaluator:   achievements.NewEvaluator(beginnerLessons(opts.Catalog)),
		analytics:   analytics.New(opts.Catalog),
		planner:     adaptive.NewPlanner(opts.Catalog),
		chunker:     microlearn.NewChunker(opts.Catalog),
		publisher:   opts.Publisher,
		leaderboard: opts.Leaderboard,
		metrics:     opts.Metrics,
		log:         opts.Logger,
		dailySource: opts.DailySource,
		locks:       newKeyedMutex(),
	}, nil
}

func beginnerLessons(cat catalog.Provider) []string {
	var ids []string
	for _, a := range cat.List(catalog.KindLesson) {
		if a.Difficulty.Ordinal() <= catalog.Beginner.Ordinal() {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// RegisterRequest describes a new learner.
type RegisterRequest struct {
	// ID is optional; a random UUID is assigned when empty.
	ID              string                   `json:"id,omitempty"`
	Name            string                   `json:"name"`
	ExperienceLevel progress.ExperienceLevel `json:"experience_level"`
	Goals           []string                 `json:"learning_goals"`
}

// Register creates and stores a record for a new learner.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*progress.Record, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &progress.ValidationError{Field: "name", Reason: "required"}
	}
	if req.ExperienceLevel == "" {
		req.ExperienceLevel = progress.CompleteBeginner
	}
	if !req.ExperienceLevel.Valid() {
		return nil, &progress.ValidationError{Field: "experience_level", Reason: fmt.Sprintf("unknown level %q", req.ExperienceLevel)}
	}
	if err := e.validateGoals(req.Goals); err != nil {
		return nil, err
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	unlock := e.locks.lock(id)
	defer unlock()
	release, err := e.store.Lock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lock learner %s: %w", id, err)
	}
	defer release()

	switch _, err := e.store.Load(ctx, id); {
	case err == nil:
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRegistered, id)
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	now := e.clock.Now()
	rec := progress.NewRecord(id, name, req.ExperienceLevel, req.Goals, now)
	if err := e.store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save learner %s: %w", id, err)
	}

	e.logEvent(ctx, id, store.LogLearnerRegistered, map[string]any{
		"name":             rec.Name,
		"experience_level": rec.ExperienceLevel,
		"learning_goals":   rec.LearningGoals,
	})
	e.metrics.Registered()
	e.updateLeaderboard(ctx, rec)
	e.publish(ctx, events.NewMessage(events.RouteLearnerRegistered, id, now, map[string]any{
		"name":             rec.Name,
		"experience_level": string(rec.ExperienceLevel),
	}))
	return rec, nil
}

func (e *Engine) validateGoals(goals []string) error {
	for _, g := range goals {
		if !e.goals[g] {
			return &progress.ValidationError{Field: "learning_goals", Reason: fmt.Sprintf("unknown goal tag %q", g)}
		}
	}
	return nil
}

// Outcome is the result of applying one event.
type Outcome struct {
	LearnerID         string                     `json:"learner_id"`
	Kind              progress.EventKind         `json:"kind"`
	PointsEarned      int                        `json:"points_earned"`
	AchievementPoints int                        `json:"achievement_points"`
	TotalPoints       int                        `json:"total_points"`
	NewAchievements   []achievements.Achievement `json:"new_achievements"`
	LevelChanged      bool                       `json:"level_changed"`
	NewLevel          int                        `json:"new_level"`
	PointsToNextLevel int                        `json:"points_to_next_level"`
	NextReviewUpdates []spacedrep.Update         `json:"next_review_updates"`
	AlreadyCompleted  bool                       `json:"already_completed"`
	FirstCompletion   bool                       `json:"first_completion"`
	HealedConcepts    []string                   `json:"healed_concepts,omitempty"`
}

// AchievementIDs returns the IDs of the newly unlocked achievements.
func (o *Outcome) AchievementIDs() []string {
	ids := make([]string, len(o.NewAchievements))
	for i, a := range o.NewAchievements {
		ids[i] = a.ID
	}
	return ids
}

// ApplyEvent applies ev to the learner's record and persists the result.
// Validation and unknown-activity errors leave the stored record untouched.
// An invariant violation aborts the write and asks the store to restore
// the latest good backup.
func (e *Engine) ApplyEvent(ctx context.Context, learnerID string, ev progress.Event) (*Outcome, error) {
	start := time.Now()
	kind := kindOf(ev)

	unlock := e.locks.lock(learnerID)
	defer unlock()
	release, err := e.store.Lock(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("lock learner %s: %w", learnerID, err)
	}
	defer release()

	rec, err := e.store.Load(ctx, learnerID)
	if err != nil {
		e.metrics.EventRejected(kind, rejectReason(err))
		return nil, err
	}
	before := rec.Clone()

	diff, err := e.ledger.Apply(rec, ev)
	if err != nil {
		return nil, e.reject(ctx, learnerID, kind, err)
	}

	var rewards int
	unlocked := e.evaluator.Settle(rec, func(id string, reward int) bool {
		if !e.ledger.CreditAchievement(rec, id, reward) {
			return false
		}
		rewards += reward
		return true
	})
	if err := progress.CheckTransition(before, rec); err != nil {
		return nil, e.reject(ctx, learnerID, kind, err)
	}

	if err := e.store.Save(ctx, rec); err != nil {
		e.metrics.EventRejected(kind, "store")
		return nil, fmt.Errorf("save learner %s: %w", learnerID, err)
	}

	out := &Outcome{
		LearnerID:         learnerID,
		Kind:              diff.Kind,
		PointsEarned:      diff.PointsEarned,
		AchievementPoints: rewards,
		TotalPoints:       rec.Points,
		NewAchievements:   unlocked,
		LevelChanged:      rec.Level != before.Level,
		NewLevel:          rec.Level,
		PointsToNextLevel: progress.PointsToNextLevel(rec.Points),
		NextReviewUpdates: diff.ReviewUpdates,
		AlreadyCompleted:  diff.AlreadyCompleted,
		FirstCompletion:   diff.FirstCompletion,
		HealedConcepts:    diff.HealedConcepts,
	}
	if out.NewAchievements == nil {
		out.NewAchievements = []achievements.Achievement{}
	}
	if out.NextReviewUpdates == nil {
		out.NextReviewUpdates = []spacedrep.Update{}
	}

	e.record(ctx, rec, ev, out)
	e.metrics.EventApplied(kind, time.Since(start).Seconds(), out.PointsEarned+out.AchievementPoints,
		len(out.NextReviewUpdates), len(out.HealedConcepts), out.AchievementIDs())
	return out, nil
}

// record writes the observability trail of an applied event.
func (e *Engine) record(ctx context.Context, rec *progress.Record, ev progress.Event, out *Outcome) {
	now := e.clock.Now()

	payload := map[string]any{"outcome": out}
	if raw, err := progress.EncodeEvent(ev); err == nil {
		payload["event"] = json.RawMessage(raw)
	}
	e.logEvent(ctx, rec.ID, store.LogEventApplied, payload)
	if len(out.HealedConcepts) > 0 {
		e.logEvent(ctx, rec.ID, store.LogSchedulerHealed, map[string]any{"concepts": out.HealedConcepts})
	}

	e.updateLeaderboard(ctx, rec)

	e.publish(ctx, events.NewMessage(events.RouteEventApplied, rec.ID, now, map[string]any{
		"kind":              string(out.Kind),
		"points_earned":     out.PointsEarned,
		"total_points":      out.TotalPoints,
		"already_completed": out.AlreadyCompleted,
		"first_completion":  out.FirstCompletion,
	}))
	for _, a := range out.NewAchievements {
		e.publish(ctx, events.NewMessage(events.RouteAchievementUnlock, rec.ID, now, map[string]any{
			"achievement_id": a.ID,
			"name":           a.Name,
			"reward_points":  a.Reward,
		}))
	}
	if out.LevelChanged {
		e.publish(ctx, events.NewMessage(events.RouteLevelUp, rec.ID, now, map[string]any{
			"level":  out.NewLevel,
			"points": out.TotalPoints,
		}))
	}
}

// reject classifies a failed apply. Invariant violations additionally
// trigger backup restoration.
func (e *Engine) reject(ctx context.Context, learnerID, kind string, err error) error {
	reason := rejectReason(err)
	e.metrics.EventRejected(kind, reason)
	if reason != "invariant_violation" {
		return err
	}

	e.logEvent(ctx, learnerID, store.LogInvariantViolation, map[string]any{
		"event": kind,
		"error": err.Error(),
	})
	restored, rerr := e.store.Recover(ctx, learnerID)
	if rerr != nil {
		return errors.Join(err, fmt.Errorf("recover %s: %w", learnerID, rerr))
	}
	if restored {
		e.metrics.Restored()
		e.logEvent(ctx, learnerID, store.LogBackupRestored, map[string]any{"event": kind})
		e.log.Warn("restored learner record from backup", "learner", learnerID, "event", kind)
	}
	return err
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, progress.ErrInvariantViolation):
		return "invariant_violation"
	case errors.Is(err, progress.ErrValidation):
		return "validation"
	case errors.Is(err, progress.ErrUnknownActivity):
		return "unknown_activity"
	case errors.Is(err, progress.ErrInvalidEventKind):
		return "invalid_event_kind"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	}
	return "internal"
}

func kindOf(ev progress.Event) string {
	if ev == nil {
		return "unknown"
	}
	return string(ev.Kind())
}

// DeleteLearner removes a learner record, its backups and its cache row.
func (e *Engine) DeleteLearner(ctx context.Context, learnerID string) error {
	unlock := e.locks.lock(learnerID)
	defer unlock()
	release, err := e.store.Lock(ctx, learnerID)
	if err != nil {
		return fmt.Errorf("lock learner %s: %w", learnerID, err)
	}
	defer release()

	if err := e.store.Delete(ctx, learnerID); err != nil {
		return err
	}
	if e.leaderboard != nil {
		if err := e.leaderboard.Remove(ctx, learnerID); err != nil {
			e.log.Warn("leaderboard cache remove failed", "learner", learnerID, "err", err)
		}
	}
	return nil
}

// EventLog returns entries of the domain event log.
func (e *Engine) EventLog(ctx context.Context, opts store.QueryOpts) ([]store.LogEntry, error) {
	return e.store.Events(ctx, opts)
}

func (e *Engine) logEvent(ctx context.Context, learnerID, kind string, payload map[string]any) {
	entry := store.LogEntry{LearnerID: learnerID, Kind: kind, Timestamp: e.clock.Now()}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			e.log.Warn("encode event log payload", "kind", kind, "err", err)
		} else {
			entry.Payload = string(data)
		}
	}
	if _, err := e.store.AppendEvent(ctx, entry); err != nil {
		e.log.Warn("append event log", "kind", kind, "learner", learnerID, "err", err)
	}
}

func (e *Engine) publish(ctx context.Context, msg events.Message) {
	if err := e.publisher.Publish(ctx, msg); err != nil {
		e.log.Warn("publish event failed", "type", msg.EventType, "learner", msg.LearnerID, "err", err)
	}
}

func (e *Engine) updateLeaderboard(ctx context.Context, rec *progress.Record) {
	if e.leaderboard == nil {
		return
	}
	if err := e.leaderboard.Update(ctx, store.EntryFor(rec)); err != nil {
		e.log.Warn("leaderboard cache update failed", "learner", rec.ID, "err", err)
	}
}
