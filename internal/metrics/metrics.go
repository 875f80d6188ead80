// Package metrics defines the Prometheus collectors exported by the engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the engine collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	EventsApplied       *prometheus.CounterVec
	EventsRejected      *prometheus.CounterVec
	ApplyDuration       *prometheus.HistogramVec
	PointsAwarded       prometheus.Counter
	AchievementsUnlocks *prometheus.CounterVec
	ReviewsScheduled    prometheus.Counter
	SchedulerHeals      prometheus.Counter
	InvariantViolations prometheus.Counter
	BackupsRestored     prometheus.Counter
	LearnersRegistered  prometheus.Counter
	LeaderboardCache    *prometheus.CounterVec
}

// New registers the collectors with reg. Passing a fresh registry keeps
// tests independent of the global default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EventsApplied: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pylearn_events_applied_total",
				Help: "Learner events applied, by kind",
			},
			[]string{"kind"},
		),
		EventsRejected: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pylearn_events_rejected_total",
				Help: "Learner events rejected, by kind and reason",
			},
			[]string{"kind", "reason"},
		),
		ApplyDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pylearn_apply_duration_seconds",
				Help:    "Time spent in the load, apply and save cycle",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		PointsAwarded: f.NewCounter(prometheus.CounterOpts{
			Name: "pylearn_points_awarded_total",
			Help: "Points awarded including achievement rewards",
		}),
		AchievementsUnlocks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pylearn_achievements_unlocked_total",
				Help: "Achievements unlocked, by achievement",
			},
			[]string{"achievement"},
		),
		ReviewsScheduled: f.NewCounter(prometheus.CounterOpts{
			Name: "pylearn_reviews_scheduled_total",
			Help: "Spaced-repetition reviews scheduled",
		}),
		SchedulerHeals: f.NewCounter(prometheus.CounterOpts{
			Name: "pylearn_scheduler_heals_total",
			Help: "Inconsistent spaced-repetition entries reset",
		}),
		InvariantViolations: f.NewCounter(prometheus.CounterOpts{
			Name: "pylearn_invariant_violations_total",
			Help: "Events rejected by the record invariant check",
		}),
		BackupsRestored: f.NewCounter(prometheus.CounterOpts{
			Name: "pylearn_backups_restored_total",
			Help: "Learner records restored from backup",
		}),
		LearnersRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "pylearn_learners_registered_total",
			Help: "Learners registered",
		}),
		LeaderboardCache: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pylearn_leaderboard_cache_total",
				Help: "Leaderboard reads by source",
			},
			[]string{"source"}, // cache, store
		),
	}
}

// EventApplied records a successfully applied event.
func (m *Metrics) EventApplied(kind string, seconds float64, points, reviews, heals int, unlocked []string) {
	if m == nil {
		return
	}
	m.EventsApplied.WithLabelValues(kind).Inc()
	m.ApplyDuration.WithLabelValues(kind).Observe(seconds)
	m.PointsAwarded.Add(float64(points))
	m.ReviewsScheduled.Add(float64(reviews))
	m.SchedulerHeals.Add(float64(heals))
	for _, id := range unlocked {
		m.AchievementsUnlocks.WithLabelValues(id).Inc()
	}
}

// EventRejected records an event that failed.
func (m *Metrics) EventRejected(kind, reason string) {
	if m == nil {
		return
	}
	m.EventsRejected.WithLabelValues(kind, reason).Inc()
	if reason == "invariant_violation" {
		m.InvariantViolations.Inc()
	}
}

// Restored records a backup restoration.
func (m *Metrics) Restored() {
	if m == nil {
		return
	}
	m.BackupsRestored.Inc()
}

// Registered records a new learner.
func (m *Metrics) Registered() {
	if m == nil {
		return
	}
	m.LearnersRegistered.Inc()
}

// LeaderboardRead records where a leaderboard read was served from.
func (m *Metrics) LeaderboardRead(source string) {
	if m == nil {
		return
	}
	m.LeaderboardCache.WithLabelValues(source).Inc()
}
