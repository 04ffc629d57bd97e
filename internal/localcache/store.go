// Package localcache models the widget's per-origin session storage as a
// directory of key files. The widget is a separate process that writes its
// own entries here on its own cadence; this package only controls writes made
// by the agent itself.
package localcache

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrInvalidKey is returned for keys that cannot name a cache file.
var ErrInvalidKey = errors.New("invalid cache key")

// Entry is one cache entry.
type Entry struct {
	Key   string
	Value string
}

// Event describes an observed change to a cache entry.
type Event struct {
	Key     string
	Value   string
	Deleted bool
}

// Store reads and writes cache entries under a well-known key prefix.
// Writes made through the Store notify subscribers directly; writes by the
// widget are only visible via the Watcher or a periodic scan.
type Store struct {
	dir    string
	prefix string
	logger *slog.Logger

	subscribersMu sync.RWMutex
	subscribers   map[chan Event]struct{}
}

// New creates a store rooted at dir for keys under prefix.
func New(dir, prefix string, logger *slog.Logger) (*Store, error) {
	if prefix == "" {
		return nil, errors.New("cache prefix must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &Store{
		dir:         dir,
		prefix:      prefix,
		logger:      logger,
		subscribers: make(map[chan Event]struct{}),
	}, nil
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

// Key builds the cache key for a project namespace.
func (s *Store) Key(projectID string) string {
	return s.prefix + "-" + projectID
}

// ProjectID strips the prefix from a cache key. Reports false for keys
// outside this store's prefix.
func (s *Store) ProjectID(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, s.prefix+"-")
	if !ok || rest == "" {
		return "", false
	}
	return rest, true
}

// Get reads a cache entry. The second return reports presence.
func (s *Store) Get(key string) (string, bool, error) {
	path, err := s.path(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading cache entry %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set writes a cache entry and notifies subscribers.
func (s *Store) Set(key, value string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}
	s.Notify(Event{Key: key, Value: value})
	return nil
}

// Delete removes a cache entry and notifies subscribers. Deleting a missing
// entry is not an error.
func (s *Store) Delete(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting cache entry %s: %w", key, err)
	}
	s.Notify(Event{Key: key, Deleted: true})
	return nil
}

// Entries returns a snapshot of every entry under the prefix.
func (s *Store) Entries() ([]Entry, error) {
	names, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading cache dir: %w", err)
	}

	var entries []Entry
	for _, dirent := range names {
		if dirent.IsDir() {
			continue
		}
		key := dirent.Name()
		if _, ok := s.ProjectID(key); !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, key))
		if err != nil {
			// Entry may vanish between listing and reading; the widget
			// owns its own files.
			s.logger.Warn("skipping unreadable cache entry", "key", key, "error", err)
			continue
		}
		entries = append(entries, Entry{Key: key, Value: string(data)})
	}
	return entries, nil
}

// ClearPrefix removes every entry under the prefix and returns the number
// removed. Used by session switch, which must discard stale entries in every
// project namespace before reseeding.
func (s *Store) ClearPrefix() (int, error) {
	entries, err := s.Entries()
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		if err := s.Delete(entry.Key); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}

// Subscribe registers for change events. Returns the channel and an
// unsubscribe function. Slow subscribers drop events rather than blocking a
// write; a dropped event is recovered by the next periodic scan.
func (s *Store) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	s.subscribersMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subscribersMu.Unlock()

	return ch, func() {
		s.subscribersMu.Lock()
		defer s.subscribersMu.Unlock()
		if _, exists := s.subscribers[ch]; exists {
			delete(s.subscribers, ch)
			close(ch)
		}
	}
}

// Notify broadcasts an event to all subscribers. Exposed so the Watcher can
// surface widget writes through the same channel as the store's own writes.
func (s *Store) Notify(event Event) {
	s.subscribersMu.RLock()
	defer s.subscribersMu.RUnlock()

	dropped := 0
	for ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		s.logger.Warn("dropped cache events due to full subscriber channels",
			"key", event.Key, "dropped", dropped)
	}
}

func (s *Store) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key != filepath.Base(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, key), nil
}
