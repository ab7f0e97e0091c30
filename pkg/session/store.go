package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// Entry is one prompt/answer exchange in a session.
type Entry struct {
	RunID      string          `json:"run_id"`
	Timestamp  time.Time       `json:"timestamp"`
	Prompt     string          `json:"prompt"`
	Consensus  string          `json:"consensus"`
	Confidence float64         `json:"confidence"`
	TaskType   string          `json:"task_type,omitempty"`
	Mode       string          `json:"mode,omitempty"`
	Backends   []string        `json:"backends,omitempty"`
	Cost       decimal.Decimal `json:"cost"`
}

// Record is the on-disk form of a session.
type Record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Entries   []Entry   `json:"entries"`
}

// Store keeps session history as one JSON file per session. Entries older
// than the TTL are pruned on every read and write.
type Store struct {
	dir string
	ttl time.Duration
	now func() time.Time

	mu sync.Mutex
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, ttl time.Duration) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("session directory is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &Store{dir: dir, ttl: ttl, now: time.Now}, nil
}

// Dir returns the store root.
func (s *Store) Dir() string {
	return s.dir
}

// Append adds an entry to a session, creating it when needed.
func (s *Store) Append(id string, entry Entry) error {
	if err := checkID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	rec, err := s.load(id)
	if err != nil {
		return err
	}
	if rec == nil {
		rec = &Record{ID: id, CreatedAt: now}
	}
	s.prune(rec, now)

	if entry.Timestamp.IsZero() {
		entry.Timestamp = now
	}
	rec.Entries = append(rec.Entries, entry)
	rec.UpdatedAt = now
	return writeJSON(s.path(id), rec)
}

// History returns the live entries of a session, oldest first. A missing or
// fully expired session yields no entries and no error.
func (s *Store) History(id string) ([]Entry, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.load(id)
	if err != nil || rec == nil {
		return nil, err
	}
	if s.prune(rec, s.now().UTC()) {
		if err := s.save(rec); err != nil {
			return nil, err
		}
	}
	return rec.Entries, nil
}

// Prune removes expired entries from every session and returns how many
// sessions were deleted entirely.
func (s *Store) Prune() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}
	now := s.now().UTC()
	removed := 0
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(f.Name(), ".json")
		if checkID(id) != nil {
			continue
		}
		rec, err := s.load(id)
		if err != nil {
			return removed, err
		}
		if rec == nil || !s.prune(rec, now) {
			continue
		}
		if len(rec.Entries) == 0 {
			removed++
		}
		if err := s.save(rec); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// prune drops expired entries and reports whether anything changed.
func (s *Store) prune(rec *Record, now time.Time) bool {
	cutoff := now.Add(-s.ttl)
	kept := rec.Entries[:0]
	for _, e := range rec.Entries {
		if e.Timestamp.After(cutoff) {
			kept = append(kept, e)
		}
	}
	changed := len(kept) != len(rec.Entries)
	rec.Entries = kept
	return changed
}

func (s *Store) save(rec *Record) error {
	if len(rec.Entries) == 0 {
		err := os.Remove(s.path(rec.ID))
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return writeJSON(s.path(rec.ID), rec)
}

func (s *Store) load(id string) (*Record, error) {
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return &rec, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func checkID(id string) error {
	if !validID.MatchString(id) {
		return fmt.Errorf("invalid session id %q", id)
	}
	return nil
}

// writeJSON writes through a temp file so readers never see a partial record.
func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".session-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
