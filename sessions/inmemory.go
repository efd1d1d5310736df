package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-oauth2-strategy/internal/errors"
	"github.com/rs/zerolog/log"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// InMemoryStore is a thread-safe in-memory strategy.SessionStore.
// Entries expire after the configured expiry and are removed by a background
// cleanup loop until Stop is called.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry

	expiry      time.Duration
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewInMemoryStore creates a store. A zero expiry uses DefaultExpiry.
func NewInMemoryStore(expiry time.Duration) *InMemoryStore {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	s := &InMemoryStore{
		entries:     make(map[string]entry),
		expiry:      expiry,
		stopCleanup: make(chan struct{}),
	}

	go s.cleanupLoop()

	return s
}

// SetIfAbsent stores value under key unless a live entry exists.
func (s *InMemoryStore) SetIfAbsent(_ context.Context, key, value string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[key]; ok && !s.expired(existing) {
		return ErrStateExists
	}
	s.entries[key] = entry{Value: value, CreatedAt: NowTimeFunc()}
	return nil
}

// GetAndDelete removes key and returns its value when present and not expired.
func (s *InMemoryStore) GetAndDelete(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, errors.New("key cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	delete(s.entries, key)

	if s.expired(e) {
		return "", false, nil
	}
	return e.Value, true, nil
}

// Len returns the number of stored entries, expired ones included.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stop stops the background cleanup goroutine.
func (s *InMemoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCleanup) })
}

func (s *InMemoryStore) expired(e entry) bool {
	return NowTimeFunc().Sub(e.CreatedAt) > s.expiry
}

func (s *InMemoryStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

// Cleanup removes all expired entries.
func (s *InMemoryStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for key, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, key)
			count++
		}
	}

	if count > 0 {
		log.Debug().Int("count", count).Msg("Cleaned up expired flow sessions")
	}
}
