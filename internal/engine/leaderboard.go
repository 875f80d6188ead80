package engine

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/google/uuid"

	"github.com/abhisek/pylearn/internal/catalog"
	"github.com/abhisek/pylearn/internal/clock"
	"github.com/abhisek/pylearn/internal/events"
	"github.com/abhisek/pylearn/internal/progress"
	"github.com/abhisek/pylearn/internal/spacedrep"
	"github.com/abhisek/pylearn/internal/store"
)

// DefaultLeaderboardLimit is used when a leaderboard query passes no limit.
const DefaultLeaderboardLimit = 10

// warmLimit is how many rows a cache warm-up copies from the store.
const warmLimit = 100

// Leaderboard returns the top learners by points. The cache is consulted
// first when configured. A cache failure, or a cache holding fewer than
// limit rows, falls back to the store: a short cache may be missing
// learners it was never warmed with.
// Streaks are reported as of today, so lapsed streaks read as zero.
func (e *Engine) Leaderboard(ctx context.Context, limit int) ([]store.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}

	var (
		rows []store.LeaderboardEntry
		err  error
	)
	if e.leaderboard != nil {
		rows, err = e.leaderboard.Top(ctx, limit)
		if err == nil && len(rows) >= limit {
			e.metrics.LeaderboardRead("cache")
		} else {
			if err != nil {
				e.log.Warn("leaderboard cache read failed", "err", err)
			}
			rows = nil
		}
	}
	if rows == nil {
		rows, err = e.store.TopByPoints(ctx, limit)
		if err != nil {
			return nil, err
		}
		e.metrics.LeaderboardRead("store")
	}

	today := clock.Today(e.clock)
	for i := range rows {
		rows[i].Streak = progress.CurrentStreak(&progress.Record{
			Streak:         rows[i].Streak,
			LastStreakDate: rows[i].LastStreakDate,
		}, today)
	}
	if rows == nil {
		rows = []store.LeaderboardEntry{}
	}
	return rows, nil
}

// DailyChallenge is the challenge picked for one calendar day.
type DailyChallenge struct {
	Date         clock.Date         `json:"date"`
	ChallengeID  string             `json:"challenge_id"`
	Title        string             `json:"title"`
	Difficulty   catalog.Difficulty `json:"difficulty"`
	RewardPoints int                `json:"reward_points"`
}

// ErrNoChallenges is returned when the catalog has no challenge to pick.
var ErrNoChallenges = errors.New("catalog has no challenges")

var dailyNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("pylearn.daily_challenge"))

// DailySource returns the random source used to pick the challenge for
// date. The same date always yields the same sequence.
func DailySource(date clock.Date) spacedrep.Random {
	id := uuid.NewSHA1(dailyNamespace, []byte(date))
	return rand.New(rand.NewPCG(binary.BigEndian.Uint64(id[:8]), binary.BigEndian.Uint64(id[8:])))
}

// Today returns the engine's current calendar date.
func (e *Engine) Today() clock.Date { return clock.Today(e.clock) }

// DailyChallenge picks the challenge of the day. Every caller asking for
// the same date gets the same challenge.
func (e *Engine) DailyChallenge(date clock.Date) (*DailyChallenge, error) {
	if !date.Valid() {
		return nil, &progress.ValidationError{Field: "date", Reason: fmt.Sprintf("%q is not YYYY-MM-DD", date)}
	}
	pool := e.catalog.List(catalog.KindChallenge)
	if len(pool) == 0 {
		return nil, ErrNoChallenges
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })

	idx := int(e.dailySource(date).Float64() * float64(len(pool)))
	idx = min(max(idx, 0), len(pool)-1)
	a := pool[idx]
	return &DailyChallenge{
		Date:         date,
		ChallengeID:  a.ID,
		Title:        a.Title,
		Difficulty:   a.Difficulty,
		RewardPoints: a.Points,
	}, nil
}

// PruneBackups keeps the keep most recent backups per learner.
func (e *Engine) PruneBackups(ctx context.Context, keep int) error {
	return e.store.PruneBackups(ctx, keep)
}

// NotifyDueReviews publishes a reminder for every learner with reviews due
// now and returns how many reminders went out.
func (e *Engine) NotifyDueReviews(ctx context.Context) (int, error) {
	ids, err := e.store.ListLearners(ctx)
	if err != nil {
		return 0, err
	}
	now := e.clock.Now()
	sent := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		rec, err := e.store.Load(ctx, id)
		if err != nil {
			e.log.Warn("load learner for review scan", "learner", id, "err", err)
			continue
		}
		due, _ := spacedrep.Due(rec.SpacedRepetition, now)
		if len(due) == 0 {
			continue
		}
		concepts := make([]string, len(due))
		for i, d := range due {
			concepts[i] = d.ConceptID
		}
		msg := events.NewMessage(events.RouteReviewsDueReminder, id, now, map[string]any{
			"due_count": len(due),
			"concepts":  concepts,
		})
		if err := e.publisher.Publish(ctx, msg); err != nil {
			return sent, fmt.Errorf("publish reminder for %s: %w", id, err)
		}
		sent++
	}
	return sent, nil
}

// WarmLeaderboard copies the top rows from the store into the cache.
func (e *Engine) WarmLeaderboard(ctx context.Context) error {
	if e.leaderboard == nil {
		return nil
	}
	rows, err := e.store.TopByPoints(ctx, warmLimit)
	if err != nil {
		return err
	}
	return e.leaderboard.Warm(ctx, rows)
}
