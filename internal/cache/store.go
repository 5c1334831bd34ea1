// Package cache provides the keyed, age-bounded result cache shared by all
// query adapters.
//
// Entries are persisted as JSON under the XDG cache directory so expensive
// external-tool results survive restarts. Staleness is evaluated against a
// caller-supplied maximum age at read time, so configuration changes
// reclassify entries without a cache clear.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/portscope/portscope/internal/common/logger"
)

var (
	// ErrCacheCorrupted is returned when the cache file cannot be parsed
	ErrCacheCorrupted = errors.New("cache file is corrupted")
	// ErrNoFallback is returned when a refresh failed and no previous value
	// exists to fall back to
	ErrNoFallback = errors.New("refresh failed with no cached value")
)

// Entry is one cached payload with its creation timestamp
type Entry struct {
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// cacheFile is the JSON structure stored on disk
type cacheFile struct {
	Entries map[string]Entry `json:"entries"`
}

// Store owns all cache entries; callers only ever see decoded copies.
// Mutation is serialized per key through a singleflight group, read access
// takes a shared lock against completed entries only.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
	path    string
	group   singleflight.Group
	// nowFunc allows injecting time in tests
	nowFunc func() time.Time
}

// Option is a functional option for configuring a Store
type Option func(*Store)

// WithNowFunc sets a custom time source, for tests
func WithNowFunc(fn func() time.Time) Option {
	return func(s *Store) {
		s.nowFunc = fn
	}
}

// DefaultDir returns the cache directory under XDG_CACHE_HOME,
// falling back to ~/.cache.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	xdgCache := os.Getenv("XDG_CACHE_HOME")
	if xdgCache == "" {
		xdgCache = filepath.Join(home, ".cache")
	}

	return filepath.Join(xdgCache, "portscope"), nil
}

// New creates or loads a Store persisted in dir.
//
// A corrupted cache file is discarded and overwritten on the next save
// rather than failing startup.
func New(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	s := &Store{
		entries: make(map[string]Entry),
		path:    filepath.Join(dir, "cache.json"),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		s.entries = make(map[string]Entry)
	}

	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var cf cacheFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
	}
	if cf.Entries != nil {
		s.entries = cf.Entries
	}
	return nil
}

// saveUnsafe persists the cache; caller must hold the write lock.
// Writes go to a temp file first and are renamed into place for atomicity.
func (s *Store) saveUnsafe() error {
	data, err := json.MarshalIndent(cacheFile{Entries: s.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}
	return nil
}

// entry returns the stored entry for key
func (s *Store) entry(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok
}

// put stores a payload under key with the current timestamp and persists
func (s *Store) put(key string, payload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = Entry{Payload: payload, Timestamp: s.nowFunc()}
	return s.saveUnsafe()
}

// isStale reports whether an entry is older than maxAge
func (s *Store) isStale(e Entry, maxAge time.Duration) bool {
	return s.nowFunc().Sub(e.Timestamp) > maxAge
}

// Age returns the age of the entry under key, or false when absent
func (s *Store) Age(key string) (time.Duration, bool) {
	e, ok := s.entry(key)
	if !ok {
		return 0, false
	}
	return s.nowFunc().Sub(e.Timestamp), true
}

// Invalidate removes a single key
func (s *Store) Invalidate(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return nil
	}
	delete(s.entries, key)
	return s.saveUnsafe()
}

// InvalidatePrefix removes every key in a namespace, e.g. "browse/"
func (s *Store) InvalidatePrefix(prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := false
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
			removed = true
		}
	}
	if !removed {
		return nil
	}
	return s.saveUnsafe()
}

// Len returns the number of cached entries
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Result carries a decoded cache value and its freshness annotation
type Result[T any] struct {
	Value T
	// Stale is true when the refresh failed and a previous value was served
	Stale bool
	// FetchedAt is when the served value was produced
	FetchedAt time.Time
}

// GetOrRefresh returns the value for key, refreshing it through refresh
// when missing or older than maxAge.
//
// At most one refresh per key is in flight at any moment: concurrent
// callers for the same stale or missing key share a single invocation of
// refresh and all receive its result. When the refresh fails and a previous
// value exists, that value is returned annotated as stale; with no previous
// value the refresh error propagates wrapped in ErrNoFallback.
func GetOrRefresh[T any](ctx context.Context, s *Store, key string, maxAge time.Duration, refresh func(ctx context.Context) (T, error)) (Result[T], error) {
	if e, ok := s.entry(key); ok && !s.isStale(e, maxAge) {
		return decodeEntry[T](e, false)
	}

	raw, err, _ := s.group.Do(key, func() (interface{}, error) {
		// A concurrent flight may have refreshed while this caller waited
		// for the group slot.
		if e, ok := s.entry(key); ok && !s.isStale(e, maxAge) {
			return e, nil
		}

		value, err := refresh(ctx)
		if err != nil {
			return nil, err
		}

		payload, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode cache payload for %s: %w", key, err)
		}
		if err := s.put(key, payload); err != nil {
			// Persisting is best-effort: the refreshed value is still good.
			logger.Warn("cache: failed to persist %s: %v", key, err)
		}

		e, _ := s.entry(key)
		return e, nil
	})

	if err != nil {
		if e, ok := s.entry(key); ok {
			logger.Warn("cache: refresh of %s failed, serving stale entry: %v", key, err)
			return decodeEntry[T](e, true)
		}
		var zero Result[T]
		// Both the sentinel and the refresh error stay matchable.
		return zero, fmt.Errorf("%w: %s: %w", ErrNoFallback, key, err)
	}

	return decodeEntry[T](raw.(Entry), false)
}

func decodeEntry[T any](e Entry, stale bool) (Result[T], error) {
	var value T
	if err := json.Unmarshal(e.Payload, &value); err != nil {
		var zero Result[T]
		return zero, fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
	}
	return Result[T]{Value: value, Stale: stale, FetchedAt: e.Timestamp}, nil
}

// Key builds a composite cache key from a namespace and its parameters so
// distinct queries never collide.
func Key(namespace string, params ...string) string {
	if len(params) == 0 {
		return namespace
	}
	return namespace + "/" + strings.Join(params, "\x1f")
}
