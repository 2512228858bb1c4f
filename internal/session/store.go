// Package session provides an in-process key-value store scoped to one run
// of the client, standing in for a browsing-session store. Values are plain
// strings; writers serialize JSON through the helpers. The store enforces a
// byte quota so callers must tolerate write failure the same way they would
// a full session storage.
package session

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
)

const (
	// KeyWindowMetadata holds the full feed window snapshot.
	KeyWindowMetadata = "ripple:feed:window"
	// KeyWindowMetadataLegacy holds the reduced four-field snapshot kept for
	// consumers of the older schema.
	KeyWindowMetadataLegacy = "ripple:feed:window:v1"
	// KeyRestoringScroll is set to "true" while the viewport is being
	// repositioned to a previously recorded position.
	KeyRestoringScroll = "ripple:feed:restoring"
)

// DefaultQuota caps the total stored bytes (keys + values).
const DefaultQuota = 512 * 1024

var ErrQuotaExceeded = errors.New("session: quota exceeded")

type Store struct {
	mu     sync.Mutex
	id     string
	quota  int
	used   int
	values map[string]string
}

func NewStore() *Store {
	return NewStoreWithQuota(DefaultQuota)
}

// NewStoreWithQuota creates a store with an explicit byte quota. A quota of
// zero or less disables the limit.
func NewStoreWithQuota(quota int) *Store {
	return &Store{
		id:     uuid.NewString(),
		quota:  quota,
		values: make(map[string]string),
	}
}

// ID identifies this session; it is stamped into persisted snapshots so
// stale records from a previous run are recognizable.
func (s *Store) ID() string {
	return s.id
}

func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.used + len(key) + len(value)
	if old, ok := s.values[key]; ok {
		next -= len(key) + len(old)
	}
	if s.quota > 0 && next > s.quota {
		return ErrQuotaExceeded
	}
	s.values[key] = value
	s.used = next
	return nil
}

func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.values[key]; ok {
		s.used -= len(key) + len(old)
		delete(s.values, key)
	}
}

func (s *Store) SetJSON(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(key, string(raw))
}

// GetJSON unmarshals the value under key into out. The first return value
// reports whether the key was present at all.
func (s *Store) GetJSON(key string, out any) (bool, error) {
	raw, ok := s.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return true, err
	}
	return true, nil
}

func (s *Store) SetRestoring(active bool) {
	if active {
		_ = s.Set(KeyRestoringScroll, "true")
		return
	}
	s.Delete(KeyRestoringScroll)
}

func (s *Store) Restoring() bool {
	v, ok := s.Get(KeyRestoringScroll)
	return ok && v == "true"
}
