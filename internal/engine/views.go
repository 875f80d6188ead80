package engine

import (
	"context"
	"fmt"

	"github.com/abhisek/pylearn/internal/achievements"
	"github.com/abhisek/pylearn/internal/adaptive"
	"github.com/abhisek/pylearn/internal/analytics"
	"github.com/abhisek/pylearn/internal/catalog"
	"github.com/abhisek/pylearn/internal/clock"
	"github.com/abhisek/pylearn/internal/microlearn"
	"github.com/abhisek/pylearn/internal/progress"
	"github.com/abhisek/pylearn/internal/spacedrep"
	"github.com/abhisek/pylearn/internal/store"
)

// Record returns the stored record for a learner.
func (e *Engine) Record(ctx context.Context, learnerID string) (*progress.Record, error) {
	return e.store.Load(ctx, learnerID)
}

// Dashboard is the combined analytics view of one learner.
type Dashboard struct {
	LearnerID           string                       `json:"learner_id"`
	Name                string                       `json:"name"`
	Stats               analytics.UserStats          `json:"user_stats"`
	Time                analytics.TimeBreakdown      `json:"time_breakdown"`
	Efficiency          analytics.Efficiency         `json:"learning_efficiency"`
	Skills              []analytics.AreaProgress     `json:"skill_progression"`
	Recommendations     []analytics.Recommendation   `json:"recommendations"`
	Trend               analytics.Trend              `json:"progress_trend"`
	Completion          analytics.CompletionEstimate `json:"estimated_completion"`
	Reviews             spacedrep.Summary            `json:"reviews"`
	CurrentStreak       int                          `json:"current_streak"`
	NextStreakMilestone int                          `json:"next_streak_milestone,omitempty"`
}

// Dashboard assembles the analytics view for a learner.
func (e *Engine) Dashboard(ctx context.Context, learnerID string) (*Dashboard, error) {
	rec, err := e.store.Load(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	now := e.clock.Now()
	streak := progress.CurrentStreak(rec, clock.DateOf(now))

	stats := e.analytics.UserStats(rec, now)
	stats.Streak = streak

	return &Dashboard{
		LearnerID:           rec.ID,
		Name:                rec.Name,
		Stats:               stats,
		Time:                e.analytics.TimeBreakdown(rec),
		Efficiency:          e.analytics.LearningEfficiency(rec, now),
		Skills:              e.analytics.SkillProgression(rec),
		Recommendations:     e.analytics.Recommendations(rec, now),
		Trend:               e.analytics.ProgressTrend(rec),
		Completion:          e.analytics.EstimatedCompletion(rec, now),
		Reviews:             spacedrep.Summarize(rec.SpacedRepetition, now),
		CurrentStreak:       streak,
		NextStreakMilestone: achievements.NextStreakMilestone(streak),
	}, nil
}

// LearningPath plans the next activities for a learner. Empty goals order
// by difficulty fit only, unless req.UseProfileGoals asks for the learner's
// registered goals.
func (e *Engine) LearningPath(ctx context.Context, learnerID string, req adaptive.PathRequest) (adaptive.Path, error) {
	if err := e.validateGoals(req.Goals); err != nil {
		return adaptive.Path{}, err
	}
	if req.Style != "" && !catalog.ValidStyle(req.Style) {
		return adaptive.Path{}, &progress.ValidationError{Field: "style", Reason: fmt.Sprintf("unknown learning style %q", req.Style)}
	}
	if req.Limit < 0 {
		return adaptive.Path{}, &progress.ValidationError{Field: "limit", Reason: "must be >= 0"}
	}

	rec, err := e.store.Load(ctx, learnerID)
	if err != nil {
		return adaptive.Path{}, err
	}
	if len(req.Goals) == 0 && req.UseProfileGoals {
		req.Goals = rec.LearningGoals
	}

	path := e.planner.Plan(rec, req)
	for _, m := range path.MissingPrerequisites {
		e.logEvent(ctx, learnerID, store.LogMissingPrerequisite, map[string]any{
			"activity_id":     m.ActivityID,
			"prerequisite_id": m.PrerequisiteID,
		})
	}
	return path, nil
}

// MicrolearningLesson chunks a lesson for a learner.
func (e *Engine) MicrolearningLesson(ctx context.Context, learnerID, lessonID string) (microlearn.Lesson, error) {
	rec, err := e.store.Load(ctx, learnerID)
	if err != nil {
		return microlearn.Lesson{}, err
	}
	return e.chunker.Build(rec, lessonID, e.clock.Now())
}

// DueReviews returns the learner's review queue, most urgent first.
// Corrupt scheduler entries are reset, persisted and logged.
func (e *Engine) DueReviews(ctx context.Context, learnerID string) ([]spacedrep.DueConcept, error) {
	rec, err := e.store.Load(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	now := e.clock.Now()
	due, healed := spacedrep.Due(rec.SpacedRepetition, now)
	if len(healed) > 0 {
		if err := e.heal(ctx, learnerID); err != nil {
			return nil, err
		}
	}
	if due == nil {
		due = []spacedrep.DueConcept{}
	}
	return due, nil
}

func (e *Engine) heal(ctx context.Context, learnerID string) error {
	unlock := e.locks.lock(learnerID)
	defer unlock()
	release, err := e.store.Lock(ctx, learnerID)
	if err != nil {
		return fmt.Errorf("lock learner %s: %w", learnerID, err)
	}
	defer release()

	rec, err := e.store.Load(ctx, learnerID)
	if err != nil {
		return err
	}
	ids := spacedrep.Heal(rec.SpacedRepetition, e.clock.Now())
	if len(ids) == 0 {
		return nil
	}
	if err := e.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("save learner %s: %w", learnerID, err)
	}
	e.metrics.EventApplied("scheduler_heal", 0, 0, 0, len(ids), nil)
	e.logEvent(ctx, learnerID, store.LogSchedulerHealed, map[string]any{"concepts": ids})
	return nil
}

// AchievementView splits the achievement catalog for one learner.
type AchievementView struct {
	Earned              []achievements.Achievement `json:"earned"`
	Available           []achievements.Achievement `json:"available"`
	NextStreakMilestone int                        `json:"next_streak_milestone,omitempty"`
}

// Achievements returns earned and still-available achievements.
func (e *Engine) Achievements(ctx context.Context, learnerID string) (*AchievementView, error) {
	rec, err := e.store.Load(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	earned, available := e.evaluator.Partition(rec)
	if earned == nil {
		earned = []achievements.Achievement{}
	}
	if available == nil {
		available = []achievements.Achievement{}
	}
	return &AchievementView{
		Earned:              earned,
		Available:           available,
		NextStreakMilestone: achievements.NextStreakMilestone(progress.CurrentStreak(rec, clock.Today(e.clock))),
	}, nil
}
