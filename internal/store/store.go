package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/abhisek/pylearn/internal/clock"
	"github.com/abhisek/pylearn/internal/progress"
)

// ErrNotFound is returned when no record exists for a learner.
var ErrNotFound = errors.New("learner not found")

// ErrInvalidRecord is returned when a record fails schema validation.
var ErrInvalidRecord = errors.New("invalid learner record")

// Store persists learner records. Save is atomic per record and keeps a
// backup of the record it replaces.
type Store interface {
	// Load returns the record for id, or ErrNotFound.
	Load(ctx context.Context, id string) (*progress.Record, error)

	// Save writes rec, backing up the previously stored version.
	Save(ctx context.Context, rec *progress.Record) error

	// Lock takes the store-level lock for a learner. The returned func
	// releases it.
	Lock(ctx context.Context, id string) (func(), error)

	// ListLearners returns all learner IDs in ascending order.
	ListLearners(ctx context.Context) ([]string, error)

	// TopByPoints returns up to limit learners ordered by points descending.
	TopByPoints(ctx context.Context, limit int) ([]LeaderboardEntry, error)

	// Recover restores the newest backup that passes the record checks if
	// the stored record for id is missing or fails them. It reports
	// whether a restore happened.
	Recover(ctx context.Context, id string) (bool, error)

	// PruneBackups deletes all but the keep most recent backups per learner.
	PruneBackups(ctx context.Context, keep int) error

	// Delete removes a learner record and its backups.
	Delete(ctx context.Context, id string) error

	EventLog

	Close() error
}

// EventLog is the append-only log of domain events.
type EventLog interface {
	// AppendEvent stores e with the next global sequence number and
	// returns that number.
	AppendEvent(ctx context.Context, e LogEntry) (int64, error)

	// Events returns logged events matching opts in sequence order.
	Events(ctx context.Context, opts QueryOpts) ([]LogEntry, error)
}

// LeaderboardEntry is the leaderboard projection of a record.
type LeaderboardEntry struct {
	LearnerID         string     `json:"learner_id" db:"id"`
	Name              string     `json:"name" db:"name"`
	Points            int        `json:"points" db:"points"`
	Level             int        `json:"level" db:"level"`
	Streak            int        `json:"streak" db:"streak"`
	LastStreakDate    clock.Date `json:"-" db:"last_streak_date"`
	LessonsCompleted  int        `json:"lessons_completed" db:"lessons_completed"`
	AchievementsCount int        `json:"achievements_count" db:"achievements_count"`
}

// EntryFor projects a record onto its leaderboard row.
func EntryFor(rec *progress.Record) LeaderboardEntry {
	return LeaderboardEntry{
		LearnerID:         rec.ID,
		Name:              rec.Name,
		Points:            rec.Points,
		Level:             rec.Level,
		Streak:            rec.Streak,
		LastStreakDate:    rec.LastStreakDate,
		LessonsCompleted:  rec.LessonsCompleted,
		AchievementsCount: rec.AchievementCount(),
	}
}

// Event log kinds written by the engine.
const (
	LogEventApplied        = "event_applied"
	LogSchedulerHealed     = "scheduler_inconsistency"
	LogMissingPrerequisite = "missing_prerequisite"
	LogInvariantViolation  = "invariant_violation"
	LogLearnerRegistered   = "learner_registered"
	LogBackupRestored      = "backup_restored"
)

// LogEntry is one row of the event log.
type LogEntry struct {
	Sequence  int64     `json:"sequence"`
	LearnerID string    `json:"learner_id"`
	Kind      string    `json:"kind"`
	Payload   string    `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	LearnerID string    // only this learner ("" = all)
	Kind      string    // only this kind ("" = all)
	Limit     int       // max results (0 = unlimited)
	After     int64     // sequence > After
	From      time.Time // timestamp >= From
	To        time.Time // timestamp <= To
}

func (o QueryOpts) match(e LogEntry) bool {
	switch {
	case o.LearnerID != "" && e.LearnerID != o.LearnerID:
		return false
	case o.Kind != "" && e.Kind != o.Kind:
		return false
	case e.Sequence <= o.After:
		return false
	case !o.From.IsZero() && e.Timestamp.Before(o.From):
		return false
	case !o.To.IsZero() && e.Timestamp.After(o.To):
		return false
	}
	return true
}

// Backends accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Open opens a store of the given backend at path. For the file backend
// path is a directory.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", BackendSQLite:
		return OpenSQLite(path)
	case BackendFile:
		return OpenFile(path)
	}
	return nil, fmt.Errorf("unknown store backend %q", backend)
}

// DefaultDBPath resolves the database file path in priority order:
// 1. PYLEARN_DB environment variable
// 2. $XDG_DATA_HOME/pylearn/pylearn.db
// 3. ~/.local/share/pylearn/pylearn.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("PYLEARN_DB"); p != "" {
		return p, ensureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "pylearn", "pylearn.db")
	return p, ensureDir(p)
}

// ensureDir creates the parent directory of path if it doesn't exist.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
