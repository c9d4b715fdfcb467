package sync

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"

	"github.com/eversync/eversync/internal/utils"
)

const (
	syncTimeKey = "sync_time"
	lockSuffix  = ".lock"
)

// Scope identifies one (root, notebook) pairing. Each scope has its own last
// sync time.
type Scope struct {
	Root     string
	Notebook string
}

// Key is the state file key of the scope
func (s Scope) Key() string {
	return s.Root + "(" + s.Notebook + ")"
}

func (s Scope) String() string {
	return s.Key()
}

// StateStore persists small pieces of state in a single JSON document of
// nested objects. Reads never fail: a missing or corrupt file is an empty
// document. Writes are read-merge-write under a lock file and replace the
// document atomically. A write refuses to touch a file it cannot parse.
type StateStore struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger
}

func NewStateStore(path string, logger *slog.Logger) *StateStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateStore{
		path:   path,
		lock:   flock.New(path + lockSuffix),
		logger: logger,
	}
}

func (s *StateStore) Path() string {
	return s.path
}

// Get returns the value stored under the nested key path
func (s *StateStore) Get(keys ...string) (any, bool) {
	if len(keys) == 0 {
		return nil, false
	}

	doc, err := s.load()
	if err != nil {
		s.logger.Warn("state file unreadable", "path", s.path, "error", err)
		return nil, false
	}

	var cur any = doc
	for _, key := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set stores value under the nested key path, creating intermediate objects
// and keeping every other key of the document.
func (s *StateStore) Set(value any, keys ...string) error {
	if len(keys) == 0 {
		return errors.New("state: empty key path")
	}

	if err := utils.EnsureParent(s.path); err != nil {
		return fmt.Errorf("state: create dir: %w", err)
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("state: lock: %w", err)
	}
	defer s.lock.Unlock()

	doc, err := s.load()
	if err != nil {
		// the document is left untouched so no other key is lost
		return fmt.Errorf("state: read %s: %w", s.path, err)
	}

	obj := doc
	for _, key := range keys[:len(keys)-1] {
		next, ok := obj[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			obj[key] = next
		}
		obj = next
	}
	obj[keys[len(keys)-1]] = value

	return s.write(doc)
}

// GetLastSyncTime returns when scope was last synced successfully
func (s *StateStore) GetLastSyncTime(scope Scope) (time.Time, bool) {
	value, ok := s.Get(syncTimeKey, scope.Key())
	if !ok {
		return time.Time{}, false
	}

	t, ok := parseTimestamp(value)
	if !ok {
		s.logger.Warn("state has invalid sync time", "scope", scope.Key(), "value", value)
	}
	return t, ok
}

func (s *StateStore) SetLastSyncTime(scope Scope, t time.Time) error {
	return s.Set(t.Format(time.RFC3339Nano), syncTimeKey, scope.Key())
}

// Scopes returns the last sync time of every recorded scope
func (s *StateStore) Scopes() map[string]time.Time {
	scopes := make(map[string]time.Time)

	value, ok := s.Get(syncTimeKey)
	if !ok {
		return scopes
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return scopes
	}

	for key, raw := range obj {
		if t, ok := parseTimestamp(raw); ok {
			scopes[key] = t
		}
	}
	return scopes
}

// ShouldSync reports whether scope needs a sync run for the scanned files
func (s *StateStore) ShouldSync(scope Scope, files []*LocalFile, force bool) bool {
	if force {
		return true
	}
	last, ok := s.GetLastSyncTime(scope)
	return shouldSync(last, ok, files, false)
}

func shouldSync(last time.Time, hasLast bool, files []*LocalFile, force bool) bool {
	if force || !hasLast {
		return true
	}
	latest, ok := latestModified(files)
	return ok && latest.After(last)
}

func latestModified(files []*LocalFile) (time.Time, bool) {
	var latest time.Time
	for _, f := range files {
		if f.ModifiedAt.After(latest) {
			latest = f.ModifiedAt
		}
	}
	return latest, len(files) > 0
}

// load reads the document. A missing file is an empty document.
func (s *StateStore) load() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]any), nil
	} else if err != nil {
		return nil, err
	}

	doc := make(map[string]any)
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *StateStore) write(doc map[string]any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("state: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("state: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("state: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("state: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("state: close temp: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("state: replace: %w", err)
	}
	return nil
}

// parseTimestamp accepts RFC 3339 strings and unix seconds
func parseTimestamp(value any) (time.Time, bool) {
	switch v := value.(type) {
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case float64:
		sec := int64(v)
		nsec := int64((v - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec), true
	default:
		return time.Time{}, false
	}
}
