package features

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
)

// DefaultFileName is the name of the flag file inside the data directory.
const DefaultFileName = "features.json"

// Observer is notified with the merged set after every load or update.
type Observer func(Set)

// Option configures a Store.
type Option func(*Store)

// WithDefaults replaces the built-in default flags.
func WithDefaults(defaults Set) Option {
	return func(s *Store) {
		s.defaults = defaults.Clone()
	}
}

// WithLogger sets the logger used for storage warnings.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Store) {
		s.logger = logger.WithField("pkg", "features")
	}
}

// WithObserver registers fn to be called with every merged set the store produces.
func WithObserver(fn Observer) Option {
	return func(s *Store) {
		s.observers = append(s.observers, fn)
	}
}

// Store is a file backed feature flag store. Every read goes to disk and is
// merged against the defaults; nothing is cached between calls. One Store
// should exist per process; the advisory file lock keeps separate processes
// sharing the same file from interleaving.
type Store struct {
	mu        sync.Mutex
	path      string
	flock     *flock.Flock
	defaults  Set
	logger    *logrus.Entry
	observers []Observer
}

// NewStore returns a Store persisting to path. The parent directory is
// created if needed; the file itself is created on first access.
func NewStore(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("feature store requires a non-empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create feature store directory: %w", err)
	}
	s := &Store{
		path:     path,
		flock:    flock.New(path + ".lock"),
		defaults: DefaultFlags(),
		logger:   logrus.WithField("pkg", "features"),
	}
	for _, opt := range opts {
		opt(s)
	}
	for k, f := range s.defaults {
		f.Key = k
		s.defaults[k] = f
	}
	return s, nil
}

// Path returns the location of the flag file.
func (s *Store) Path() string {
	return s.path
}

// GetAll returns every default flag merged with its persisted state. It never
// fails: unreadable or malformed storage yields the defaults.
func (s *Store) GetAll(ctx context.Context) Set {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock := s.lockFile()
	defer unlock()

	set := s.load()
	s.notify(set)
	return set
}

// Get returns a single merged flag.
func (s *Store) Get(ctx context.Context, key string) (Flag, bool) {
	f, ok := s.GetAll(ctx)[key]
	return f, ok
}

// Enabled reports whether key is a known flag that is switched on.
func (s *Store) Enabled(ctx context.Context, key string) bool {
	f, ok := s.Get(ctx, key)
	return ok && f.Enabled
}

// Set updates the enabled state of key and persists the full set. It returns
// false without touching storage when key is not a known flag. A failure to
// persist is returned as an error and the update is not applied.
func (s *Store) Set(ctx context.Context, key string, enabled bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flock.Lock(); err != nil {
		return false, fmt.Errorf("failed to lock feature store: %w", err)
	}
	defer func() {
		_ = s.flock.Unlock()
	}()

	set := s.load()
	f, ok := set[key]
	if !ok {
		return false, nil
	}
	f.Enabled = enabled
	set[key] = f

	if err := s.write(set); err != nil {
		return false, fmt.Errorf("failed to persist feature %s: %w", key, err)
	}
	s.logger.WithFields(logrus.Fields{
		"feature": key,
		"enabled": enabled,
	}).Info("feature flag updated")

	s.notify(set)
	return true, nil
}

// lockFile takes the cross-process lock for a read. Reads never fail, so a
// lock error is logged and the read goes ahead unguarded.
func (s *Store) lockFile() func() {
	if err := s.flock.Lock(); err != nil {
		s.logger.WithError(err).Warn("failed to lock feature store, reading without file lock")
		return func() {}
	}
	return func() {
		_ = s.flock.Unlock()
	}
}

type loadState int

const (
	stateLoaded loadState = iota
	stateMissing
	stateCorrupt
)

// loadResult distinguishes persisted data from the cases that fall back to defaults.
type loadResult struct {
	state loadState
	raw   map[string]json.RawMessage
	err   error
}

func (s *Store) readFile() loadResult {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return loadResult{state: stateMissing}
		}
		return loadResult{state: stateCorrupt, err: err}
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return loadResult{state: stateCorrupt, err: err}
	}
	if raw == nil {
		return loadResult{state: stateCorrupt, err: errors.New("feature file does not hold an object")}
	}
	return loadResult{state: stateLoaded, raw: raw}
}

// load must be called with both locks held.
func (s *Store) load() Set {
	res := s.readFile()
	switch res.state {
	case stateMissing:
		if err := s.write(s.defaults); err != nil {
			s.logger.WithError(err).Warn("failed to create feature file")
		}
		return s.defaults.Clone()
	case stateCorrupt:
		s.logger.WithError(res.err).Warn("feature file unreadable, using defaults")
		return s.defaults.Clone()
	}

	cleaned, dropped := Migrate(res.raw, s.defaults)
	if len(dropped) > 0 {
		s.logger.WithField("keys", dropped).Info("removing deprecated feature flags")
		if err := s.write(cleaned); err != nil {
			s.logger.WithError(err).Warn("failed to rewrite migrated feature file")
		}
	}
	return merge(s.defaults, cleaned)
}

// write replaces the file atomically: readers see either the old or the new content.
func (s *Store) write(v interface{}) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode features: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func (s *Store) notify(set Set) {
	for _, fn := range s.observers {
		fn(set.Clone())
	}
}
