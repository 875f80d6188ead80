package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abhisek/pylearn/internal/progress"
)

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// FileStore keeps one JSON file per learner under a directory:
//
//	learners/<id>.json        current record
//	backups/<id>/<nanos>.json previous versions
//	locks/<id>.lock           flock target
//	events.jsonl              event log
type FileStore struct {
	dir string

	mu      sync.Mutex // guards nextSeq and events.jsonl appends
	nextSeq int64
}

var _ Store = (*FileStore)(nil)

// OpenFile opens (creating if needed) a file store rooted at dir.
func OpenFile(dir string) (*FileStore, error) {
	for _, sub := range []string{"learners", "backups", "locks"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", sub, err)
		}
	}
	s := &FileStore{dir: dir, nextSeq: 1}
	last, err := s.lastSequence()
	if err != nil {
		return nil, err
	}
	s.nextSeq = last + 1
	return s, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) recordPath(id string) string {
	return filepath.Join(s.dir, "learners", id+".json")
}

func (s *FileStore) backupDir(id string) string {
	return filepath.Join(s.dir, "backups", id)
}

func (s *FileStore) eventsPath() string {
	return filepath.Join(s.dir, "events.jsonl")
}

func checkID(id string) error {
	if !validID.MatchString(id) {
		return fmt.Errorf("invalid learner id %q", id)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, id string) (*progress.Record, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	return decodeRecord(data)
}

func (s *FileStore) Save(ctx context.Context, rec *progress.Record) error {
	if err := checkID(rec.ID); err != nil {
		return err
	}
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	path := s.recordPath(rec.ID)
	prev, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := s.writeBackup(rec.ID, prev); err != nil {
			return err
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("read previous %s: %w", rec.ID, err)
	}
	return writeAtomic(path, data)
}

func (s *FileStore) writeBackup(id string, data []byte) error {
	dir := s.backupDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	name := fmt.Sprintf("%020d.json", time.Now().UnixNano())
	if err := writeAtomic(filepath.Join(dir, name), data); err != nil {
		return fmt.Errorf("backup %s: %w", id, err)
	}
	return nil
}

// writeAtomic writes data to a temp file next to path and renames it
// into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *FileStore) Lock(ctx context.Context, id string) (func(), error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	l, err := acquireLock(filepath.Join(s.dir, "locks", id+".lock"))
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", id, err)
	}
	return func() { l.Release() }, nil
}

func (s *FileStore) ListLearners(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, "learners"))
	if err != nil {
		return nil, fmt.Errorf("list learners: %w", err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStore) TopByPoints(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	ids, err := s.ListLearners(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]LeaderboardEntry, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Load(ctx, id)
		if err != nil {
			// An unreadable record is left for Recover; skip it here.
			continue
		}
		out = append(out, EntryFor(rec))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Points > out[j].Points })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// backupFiles returns backup file paths for id, newest first.
func (s *FileStore) backupFiles(id string) ([]string, error) {
	entries, err := os.ReadDir(s.backupDir(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backups %s: %w", id, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		paths = append(paths, filepath.Join(s.backupDir(id), e.Name()))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	return paths, nil
}

func (s *FileStore) Recover(ctx context.Context, id string) (bool, error) {
	if err := checkID(id); err != nil {
		return false, err
	}
	current, err := os.ReadFile(s.recordPath(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("recover %s: %w", id, err)
	}
	if err == nil {
		if _, ok := usable(current); ok {
			return false, nil
		}
	}

	paths, err := s.backupFiles(id)
	if err != nil {
		return false, err
	}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if _, ok := usable(data); !ok {
			continue
		}
		// The broken record is replaced, not backed up.
		if err := writeAtomic(s.recordPath(id), data); err != nil {
			return false, fmt.Errorf("restore %s: %w", id, err)
		}
		return true, nil
	}
	return false, fmt.Errorf("recover %s: no usable backup: %w", id, ErrNotFound)
}

func (s *FileStore) PruneBackups(ctx context.Context, keep int) error {
	ids, err := s.ListLearners(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		paths, err := s.backupFiles(id)
		if err != nil {
			return err
		}
		if len(paths) <= keep {
			continue
		}
		for _, p := range paths[keep:] {
			if err := os.Remove(p); err != nil {
				return fmt.Errorf("prune %s: %w", p, err)
			}
		}
	}
	return nil
}

// BackupCount returns how many backups are stored for a learner.
func (s *FileStore) BackupCount(ctx context.Context, id string) (int, error) {
	paths, err := s.backupFiles(id)
	return len(paths), err
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := os.Remove(s.recordPath(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return os.RemoveAll(s.backupDir(id))
}

func (s *FileStore) AppendEvent(ctx context.Context, e LogEntry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.Sequence = s.nextSeq
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	line, err := json.Marshal(e)
	if err != nil {
		return 0, fmt.Errorf("marshal event: %w", err)
	}

	f, err := os.OpenFile(s.eventsPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}
	s.nextSeq++
	return e.Sequence, nil
}

func (s *FileStore) Events(ctx context.Context, opts QueryOpts) ([]LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []LogEntry
	err := s.scanEvents(func(e LogEntry) bool {
		if opts.match(e) {
			out = append(out, e)
		}
		return opts.Limit == 0 || len(out) < opts.Limit
	})
	return out, err
}

func (s *FileStore) lastSequence() (int64, error) {
	var last int64
	err := s.scanEvents(func(e LogEntry) bool {
		last = max(last, e.Sequence)
		return true
	})
	return last, err
}

// scanEvents feeds each logged event to fn until fn returns false.
func (s *FileStore) scanEvents(fn func(LogEntry) bool) error {
	f, err := os.Open(s.eventsPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var e LogEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return fmt.Errorf("event log line: %w", err)
		}
		if !fn(e) {
			return nil
		}
	}
	return sc.Err()
}
