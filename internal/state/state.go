// Package state persists the small amount of mutable local state portscope
// owns itself: which overlays were enabled through it, when each last
// synced, and which news items and security advisories have been read.
//
// Unlike the result cache this data is authoritative, not a copy of
// external-tool output, so it lives under XDG_STATE_HOME and is never
// expired.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/portscope/portscope/internal/common/logger"
)

// OverlayRecord tracks one overlay that portscope enabled
type OverlayRecord struct {
	// EnabledAt is when the overlay was enabled locally
	EnabledAt time.Time `yaml:"enabled_at"`
	// LastSync is the completion time of the last successful sync; zero
	// when the overlay has never synced
	LastSync time.Time `yaml:"last_sync,omitempty"`
	// SyncFailed marks an overlay whose most recent sync attempt failed.
	// The overlay stays enabled; the flag clears on the next success.
	SyncFailed bool `yaml:"sync_failed,omitempty"`
}

// fileState is the on-disk YAML document
type fileState struct {
	Overlays       map[string]OverlayRecord `yaml:"overlays"`
	ReadNews       []string                 `yaml:"read_news"`
	ReadAdvisories []string                 `yaml:"read_advisories"`
}

// Store holds the loaded state and writes every mutation back to disk
// immediately so a crash never loses more than the in-flight change.
type Store struct {
	mu             sync.RWMutex
	path           string
	overlays       map[string]OverlayRecord
	readNews       map[string]struct{}
	readAdvisories map[string]struct{}
}

// DefaultPath returns the state file path under XDG_STATE_HOME,
// falling back to ~/.local/state.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		stateDir = filepath.Join(home, ".local", "state")
	}

	return filepath.Join(stateDir, "portscope", "state.yaml"), nil
}

// Load reads the state file at path, creating an empty store when the file
// does not exist yet. An unparseable file is moved aside and the store
// starts empty rather than failing startup; the renamed copy stays on disk
// for inspection.
func Load(path string) (*Store, error) {
	s := &Store{
		path:           path,
		overlays:       make(map[string]OverlayRecord),
		readNews:       make(map[string]struct{}),
		readAdvisories: make(map[string]struct{}),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var fs fileState
	if err := yaml.Unmarshal(data, &fs); err != nil {
		logger.Warn("state file corrupted, moving it aside: %v", err)
		if renameErr := os.Rename(path, path+".corrupt"); renameErr != nil {
			logger.Warn("could not move corrupted state file: %v", renameErr)
		}
		return s, nil
	}

	if fs.Overlays != nil {
		s.overlays = fs.Overlays
	}
	for _, id := range fs.ReadNews {
		s.readNews[id] = struct{}{}
	}
	for _, id := range fs.ReadAdvisories {
		s.readAdvisories[id] = struct{}{}
	}

	return s, nil
}

// saveUnsafe writes the state; caller must hold the write lock
func (s *Store) saveUnsafe() error {
	fs := fileState{
		Overlays:       s.overlays,
		ReadNews:       sortedKeys(s.readNews),
		ReadAdvisories: sortedKeys(s.readAdvisories),
	}

	data, err := yaml.Marshal(fs)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename state file: %w", err)
	}
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EnabledOverlays returns the names of all overlays enabled through
// portscope, sorted.
func (s *Store) EnabledOverlays() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.overlays))
	for name := range s.overlays {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Overlay returns the record for name, when present
func (s *Store) Overlay(name string) (OverlayRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.overlays[name]
	return rec, ok
}

// EnableOverlay records that name has been enabled
func (s *Store) EnableOverlay(name string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.overlays[name]; ok {
		return nil
	}
	s.overlays[name] = OverlayRecord{EnabledAt: at}
	return s.saveUnsafe()
}

// RemoveOverlay drops the record for name
func (s *Store) RemoveOverlay(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.overlays[name]; !ok {
		return nil
	}
	delete(s.overlays, name)
	return s.saveUnsafe()
}

// RecordSync stores the outcome of a sync attempt for name. Success sets
// LastSync and clears SyncFailed; failure sets SyncFailed and leaves the
// previous LastSync timestamp intact.
func (s *Store) RecordSync(name string, at time.Time, ok bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.overlays[name]
	if ok {
		rec.LastSync = at
		rec.SyncFailed = false
	} else {
		rec.SyncFailed = true
	}
	if rec.EnabledAt.IsZero() {
		rec.EnabledAt = at
	}
	s.overlays[name] = rec
	return s.saveUnsafe()
}

// IsNewsRead reports whether the news item id has been marked read
func (s *Store) IsNewsRead(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.readNews[id]
	return ok
}

// MarkNewsRead marks one news item read
func (s *Store) MarkNewsRead(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.readNews[id]; ok {
		return nil
	}
	s.readNews[id] = struct{}{}
	return s.saveUnsafe()
}

// MarkAllNewsRead marks every id in ids read. Already-read ids are ignored,
// so repeated calls are idempotent.
func (s *Store) MarkAllNewsRead(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for _, id := range ids {
		if _, ok := s.readNews[id]; !ok {
			s.readNews[id] = struct{}{}
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.saveUnsafe()
}

// PurgeNewsRead forgets all news read marks
func (s *Store) PurgeNewsRead() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.readNews) == 0 {
		return nil
	}
	s.readNews = make(map[string]struct{})
	return s.saveUnsafe()
}

// IsAdvisoryRead reports whether the advisory id has been marked read
func (s *Store) IsAdvisoryRead(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.readAdvisories[id]
	return ok
}

// MarkAdvisoryRead marks one advisory read
func (s *Store) MarkAdvisoryRead(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.readAdvisories[id]; ok {
		return nil
	}
	s.readAdvisories[id] = struct{}{}
	return s.saveUnsafe()
}

// MarkAllAdvisoriesRead marks every id in ids read
func (s *Store) MarkAllAdvisoriesRead(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for _, id := range ids {
		if _, ok := s.readAdvisories[id]; !ok {
			s.readAdvisories[id] = struct{}{}
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.saveUnsafe()
}
