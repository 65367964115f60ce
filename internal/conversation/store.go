// Package conversation maps requester identities to durable provider-side
// thread handles. Only the stateful provider uses it; everything else
// resends history per call.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/qaaqit/qbot-gateway/internal/provider"
)

const threadKeyPrefix = "qbot:thread:"
const threadTTL = 30 * 24 * time.Hour

// Handle is an opaque reference to provider-side multi-turn state.
type Handle struct {
	RequesterKey string    `json:"requester_key"`
	ThreadID     string    `json:"thread_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateFunc creates a new provider-side thread and returns its id.
type CreateFunc func(ctx context.Context) (string, error)

// Store persists handles in Redis with an in-memory map fallback when Redis
// is absent. Create-if-absent is atomic per requester key: concurrent
// requests for the same identity serialize on a per-key mutex, and the loser
// of the race reuses the winner's handle.
type Store struct {
	rdb *redis.Client

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	local map[string]Handle
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{
		rdb:   rdb,
		locks: make(map[string]*sync.Mutex),
		local: make(map[string]Handle),
	}
}

// GetOrCreate returns the requester's handle, creating one via create when
// none exists yet.
func (s *Store) GetOrCreate(ctx context.Context, key string, create CreateFunc) (Handle, error) {
	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	if h, ok := s.lookup(ctx, key); ok {
		return h, nil
	}

	threadID, err := create(ctx)
	if err != nil {
		return Handle{}, err
	}

	h := Handle{
		RequesterKey: key,
		ThreadID:     threadID,
		CreatedAt:    time.Now(),
	}
	s.save(ctx, h)
	return h, nil
}

// Invalidate discards the requester's handle. Called when the provider
// reports the thread as unknown; the next call recreates it.
func (s *Store) Invalidate(ctx context.Context, key string) {
	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	delete(s.local, key)
	if s.rdb != nil {
		s.rdb.Del(ctx, threadKeyPrefix+key)
	}
}

// WithThread resolves a handle, runs fn with its thread id, and transparently
// recreates-and-retries once when the provider rejects the thread as stale.
// The retry is local to the store and never counts as a fallback attempt.
func (s *Store) WithThread(ctx context.Context, key string, create CreateFunc, fn func(threadID string) error) error {
	h, err := s.GetOrCreate(ctx, key, create)
	if err != nil {
		return err
	}

	err = fn(h.ThreadID)
	if !errors.Is(err, provider.ErrStaleThread) {
		return err
	}

	s.Invalidate(ctx, key)
	h, err = s.GetOrCreate(ctx, key, create)
	if err != nil {
		return err
	}
	return fn(h.ThreadID)
}

func (s *Store) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

// lookup checks the local map first, then Redis. A handle found in Redis is
// copied into the local map so later lookups skip the round trip.
func (s *Store) lookup(ctx context.Context, key string) (Handle, bool) {
	s.mu.Lock()
	h, ok := s.local[key]
	s.mu.Unlock()
	if ok {
		return h, true
	}

	if s.rdb == nil {
		return Handle{}, false
	}

	data, err := s.rdb.Get(ctx, threadKeyPrefix+key).Bytes()
	if err != nil {
		return Handle{}, false
	}
	if err := json.Unmarshal(data, &h); err != nil {
		return Handle{}, false
	}

	s.mu.Lock()
	s.local[key] = h
	s.mu.Unlock()
	return h, true
}

func (s *Store) save(ctx context.Context, h Handle) {
	s.mu.Lock()
	s.local[h.RequesterKey] = h
	s.mu.Unlock()

	if s.rdb != nil {
		if data, err := json.Marshal(h); err == nil {
			s.rdb.Set(ctx, threadKeyPrefix+h.RequesterKey, data, threadTTL)
		}
	}
}
