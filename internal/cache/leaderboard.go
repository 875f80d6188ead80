// Package cache keeps an optional Redis copy of the leaderboard.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/pylearn/internal/clock"
	"github.com/abhisek/pylearn/internal/store"
)

// Default key names.
const (
	DefaultScoresKey  = "pylearn:leaderboard"
	DefaultEntriesKey = "pylearn:leaderboard:entries"
)

// Leaderboard mirrors leaderboard rows into a sorted set (scores) and a
// hash (row JSON by learner ID).
type Leaderboard struct {
	client     *redis.Client
	scoresKey  string
	entriesKey string
}

// NewLeaderboard creates a cache over an existing client.
func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{client: client, scoresKey: DefaultScoresKey, entriesKey: DefaultEntriesKey}
}

// Connect parses a redis:// URL, connects and pings.
func Connect(ctx context.Context, url string) (*Leaderboard, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewLeaderboard(client), nil
}

// Close closes the underlying client.
func (l *Leaderboard) Close() error {
	return l.client.Close()
}

// Update writes one row.
func (l *Leaderboard) Update(ctx context.Context, e store.LeaderboardEntry) error {
	row, err := json.Marshal(cachedEntry(e))
	if err != nil {
		return fmt.Errorf("marshal leaderboard entry: %w", err)
	}
	_, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, l.scoresKey, redis.Z{Score: float64(e.Points), Member: e.LearnerID})
		pipe.HSet(ctx, l.entriesKey, e.LearnerID, row)
		return nil
	})
	if err != nil {
		return fmt.Errorf("update leaderboard %s: %w", e.LearnerID, err)
	}
	return nil
}

// Remove deletes a learner's row.
func (l *Leaderboard) Remove(ctx context.Context, id string) error {
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, l.scoresKey, id)
		pipe.HDel(ctx, l.entriesKey, id)
		return nil
	})
	return err
}

// Warm replaces the cached leaderboard with entries.
func (l *Leaderboard) Warm(ctx context.Context, entries []store.LeaderboardEntry) error {
	if err := l.client.Del(ctx, l.scoresKey, l.entriesKey).Err(); err != nil {
		return fmt.Errorf("reset leaderboard: %w", err)
	}
	for _, e := range entries {
		if err := l.Update(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Top returns up to limit rows ordered by points descending, then learner
// ID. The sorted set orders ties in reverse member order, so every member
// tied with the last returned score is fetched and the cut is made here.
func (l *Leaderboard) Top(ctx context.Context, limit int) ([]store.LeaderboardEntry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	top, err := l.client.ZRevRangeWithScores(ctx, l.scoresKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	if len(top) == 0 {
		return nil, nil
	}

	ids := make(map[string]bool, len(top))
	for _, z := range top {
		ids[z.Member.(string)] = true
	}
	floor := strconv.FormatFloat(top[len(top)-1].Score, 'f', -1, 64)
	tied, err := l.client.ZRangeByScore(ctx, l.scoresKey, &redis.ZRangeBy{Min: floor, Max: floor}).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard ties: %w", err)
	}
	for _, id := range tied {
		ids[id] = true
	}

	members := make([]string, 0, len(ids))
	for id := range ids {
		members = append(members, id)
	}
	rows, err := l.client.HMGet(ctx, l.entriesKey, members...).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard rows: %w", err)
	}

	out := make([]store.LeaderboardEntry, 0, len(rows))
	for i, raw := range rows {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("leaderboard row %s missing", members[i])
		}
		var e entry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, fmt.Errorf("decode leaderboard row %s: %w", members[i], err)
		}
		out = append(out, e.LeaderboardEntry())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].LearnerID < out[j].LearnerID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// entry is the cached row. LeaderboardEntry hides the streak date from
// JSON, so it is carried explicitly.
type entry struct {
	LearnerID         string `json:"learner_id"`
	Name              string `json:"name"`
	Points            int    `json:"points"`
	Level             int    `json:"level"`
	Streak            int    `json:"streak"`
	LastStreakDate    string `json:"last_streak_date"`
	LessonsCompleted  int    `json:"lessons_completed"`
	AchievementsCount int    `json:"achievements_count"`
}

func cachedEntry(e store.LeaderboardEntry) entry {
	return entry{
		LearnerID:         e.LearnerID,
		Name:              e.Name,
		Points:            e.Points,
		Level:             e.Level,
		Streak:            e.Streak,
		LastStreakDate:    string(e.LastStreakDate),
		LessonsCompleted:  e.LessonsCompleted,
		AchievementsCount: e.AchievementsCount,
	}
}

func (e entry) LeaderboardEntry() store.LeaderboardEntry {
	return store.LeaderboardEntry{
		LearnerID:         e.LearnerID,
		Name:              e.Name,
		Points:            e.Points,
		Level:             e.Level,
		Streak:            e.Streak,
		LastStreakDate:    clock.Date(e.LastStreakDate),
		LessonsCompleted:  e.LessonsCompleted,
		AchievementsCount: e.AchievementsCount,
	}
}
