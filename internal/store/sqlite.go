package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"

	"github.com/abhisek/pylearn/internal/progress"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const (
	learnersTable = "learners"
	backupsTable  = "record_backups"
	eventsTable   = "event_log"
)

// SQLiteStore keeps learner records in a SQLite database. The record JSON
// is stored whole next to the columns the leaderboard sorts on.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens the database at dsn, applies pragmas and creates the
// schema.
func OpenSQLite(dsn string) (*SQLiteStore, error) {
	raw, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db := sqlx.NewDb(raw, "sqlite")
	// One connection keeps per-connection pragmas in force and matches
	// SQLite's single-writer model.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// DB returns the underlying handle for raw queries.
func (s *SQLiteStore) DB() *sqlx.DB {
	return s.db
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func migrate(db *sqlx.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS learners (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			points INTEGER NOT NULL DEFAULT 0,
			level INTEGER NOT NULL DEFAULT 1,
			streak INTEGER NOT NULL DEFAULT 0,
			last_streak_date TEXT NOT NULL DEFAULT '',
			lessons_completed INTEGER NOT NULL DEFAULT 0,
			achievements_count INTEGER NOT NULL DEFAULT 0,
			data TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS learners_points ON learners (points DESC, id)`,
		`CREATE TABLE IF NOT EXISTS record_backups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			learner_id TEXT NOT NULL,
			data TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS record_backups_learner ON record_backups (learner_id, id)`,
		// AUTOINCREMENT never hands out a sequence twice, even if the
		// newest rows are removed.
		`CREATE TABLE IF NOT EXISTS event_log (
			sequence INTEGER PRIMARY KEY AUTOINCREMENT,
			learner_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			payload TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS event_log_learner ON event_log (learner_id, sequence)`,
	}
	for _, st := range stmts {
		if _, err := db.Exec(st); err != nil {
			return err
		}
	}
	return nil
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (*progress.Record, error) {
	query, args := builder().
		Select("data").
		From(entsql.Table(learnersTable)).
		Where(entsql.EQ("id", id)).
		Query()

	var data string
	if err := s.db.GetContext(ctx, &data, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	return decodeRecord([]byte(data))
}

func (s *SQLiteStore) Save(ctx context.Context, rec *progress.Record) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	sel, args := builder().
		Select("data").
		From(entsql.Table(learnersTable)).
		Where(entsql.EQ("id", rec.ID)).
		Query()
	var prev string
	switch err := tx.GetContext(ctx, &prev, sel, args...); {
	case err == nil:
		ins, args := builder().
			Insert(backupsTable).
			Columns("learner_id", "data", "created_at").
			Values(rec.ID, prev, now).
			Query()
		if _, err := tx.ExecContext(ctx, ins, args...); err != nil {
			return fmt.Errorf("backup %s: %w", rec.ID, err)
		}
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("read previous %s: %w", rec.ID, err)
	}

	e := EntryFor(rec)
	upsert, args := builder().
		Insert(learnersTable).
		Columns("id", "name", "points", "level", "streak", "last_streak_date",
			"lessons_completed", "achievements_count", "data", "updated_at").
		Values(rec.ID, e.Name, e.Points, e.Level, e.Streak, string(e.LastStreakDate),
			e.LessonsCompleted, e.AchievementsCount, string(data), now).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := tx.ExecContext(ctx, upsert, args...); err != nil {
		return fmt.Errorf("save %s: %w", rec.ID, err)
	}
	return tx.Commit()
}

// Lock is a no-op: SQLite transactions already make each Save atomic and
// the engine serializes writers per learner in-process.
func (s *SQLiteStore) Lock(ctx context.Context, id string) (func(), error) {
	return func() {}, nil
}

func (s *SQLiteStore) ListLearners(ctx context.Context) ([]string, error) {
	query, args := builder().
		Select("id").
		From(entsql.Table(learnersTable)).
		OrderBy("id").
		Query()
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list learners: %w", err)
	}
	return ids, nil
}

func (s *SQLiteStore) TopByPoints(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	sel := builder().
		Select("id", "name", "points", "level", "streak", "last_streak_date",
			"lessons_completed", "achievements_count").
		From(entsql.Table(learnersTable)).
		OrderBy(entsql.Desc("points"), "id")
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	var out []LeaderboardEntry
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return out, nil
}

type backupRow struct {
	ID   int64  `db:"id"`
	Data string `db:"data"`
}

// backups returns the stored backups for id, newest first.
func (s *SQLiteStore) backups(ctx context.Context, id string) ([]backupRow, error) {
	query, args := builder().
		Select("id", "data").
		From(entsql.Table(backupsTable)).
		Where(entsql.EQ("learner_id", id)).
		OrderBy(entsql.Desc("id")).
		Query()
	var rows []backupRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query backups %s: %w", id, err)
	}
	return rows, nil
}

func (s *SQLiteStore) Recover(ctx context.Context, id string) (bool, error) {
	query, args := builder().
		Select("data").
		From(entsql.Table(learnersTable)).
		Where(entsql.EQ("id", id)).
		Query()
	var current string
	err := s.db.GetContext(ctx, &current, query, args...)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("recover %s: %w", id, err)
	}
	if err == nil {
		if _, ok := usable([]byte(current)); ok {
			return false, nil
		}
	}

	rows, err := s.backups(ctx, id)
	if err != nil {
		return false, err
	}
	for _, b := range rows {
		rec, ok := usable([]byte(b.Data))
		if !ok {
			continue
		}
		if err := s.Save(ctx, rec); err != nil {
			return false, fmt.Errorf("restore %s from backup %d: %w", id, b.ID, err)
		}
		return true, nil
	}
	return false, fmt.Errorf("recover %s: no usable backup: %w", id, ErrNotFound)
}

func (s *SQLiteStore) PruneBackups(ctx context.Context, keep int) error {
	ids, err := s.ListLearners(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		// Find the ID threshold: the keep-th most recent backup.
		query, args := builder().
			Select("id").
			From(entsql.Table(backupsTable)).
			Where(entsql.EQ("learner_id", id)).
			OrderBy(entsql.Desc("id")).
			Offset(keep).
			Limit(1).
			Query()
		var threshold int64
		if err := s.db.GetContext(ctx, &threshold, query, args...); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue // fewer than keep backups exist
			}
			return fmt.Errorf("query backups for prune: %w", err)
		}
		del, args := builder().
			Delete(backupsTable).
			Where(entsql.And(entsql.EQ("learner_id", id), entsql.LTE("id", threshold))).
			Query()
		if _, err := s.db.ExecContext(ctx, del, args...); err != nil {
			return fmt.Errorf("prune backups %s: %w", id, err)
		}
	}
	return nil
}

// BackupCount returns how many backups are stored for a learner.
func (s *SQLiteStore) BackupCount(ctx context.Context, id string) (int, error) {
	query, args := builder().
		Select(entsql.Count("*")).
		From(entsql.Table(backupsTable)).
		Where(entsql.EQ("learner_id", id)).
		Query()
	var n int
	if err := s.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count backups %s: %w", id, err)
	}
	return n, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	for _, d := range []struct{ table, col string }{
		{learnersTable, "id"},
		{backupsTable, "learner_id"},
	} {
		query, args := builder().Delete(d.table).Where(entsql.EQ(d.col, id)).Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete %s from %s: %w", id, d.table, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) AppendEvent(ctx context.Context, e LogEntry) (int64, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	query, args := builder().
		Insert(eventsTable).
		Columns("learner_id", "kind", "payload", "created_at").
		Values(e.LearnerID, e.Kind, e.Payload, e.Timestamp.UTC().Format(time.RFC3339Nano)).
		Query()
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append event sequence: %w", err)
	}
	return seq, nil
}

type eventRow struct {
	Sequence  int64  `db:"sequence"`
	LearnerID string `db:"learner_id"`
	Kind      string `db:"kind"`
	Payload   string `db:"payload"`
	CreatedAt string `db:"created_at"`
}

func (s *SQLiteStore) Events(ctx context.Context, opts QueryOpts) ([]LogEntry, error) {
	sel := builder().
		Select("sequence", "learner_id", "kind", "payload", "created_at").
		From(entsql.Table(eventsTable)).
		Where(entsql.GT("sequence", opts.After)).
		OrderBy("sequence")
	if opts.LearnerID != "" {
		sel.Where(entsql.EQ("learner_id", opts.LearnerID))
	}
	if opts.Kind != "" {
		sel.Where(entsql.EQ("kind", opts.Kind))
	}
	query, args := sel.Query()

	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	// Timestamps are text; range filters run in Go.
	out := make([]LogEntry, 0, len(rows))
	for _, r := range rows {
		ts, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("event %d timestamp: %w", r.Sequence, err)
		}
		e := LogEntry{Sequence: r.Sequence, LearnerID: r.LearnerID, Kind: r.Kind, Payload: r.Payload, Timestamp: ts}
		if !opts.match(e) {
			continue
		}
		out = append(out, e)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, nil
}
