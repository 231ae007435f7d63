// Package session tracks live login sessions.  A session is keyed by the id
// (jti) of the signed token handed to the client; revoking the key logs the
// token out even though its signature is still valid.
package session

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a session is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Store records which session ids are live and which user owns each one.
type Store interface {
	Put(ctx context.Context, id string, userID uint64, ttl time.Duration) error
	Get(ctx context.Context, id string) (uint64, error)
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps sessions in Redis with TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore builds a Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "session:"}
}

// Put writes an id -> userID mapping that expires after ttl.
func (s *RedisStore) Put(ctx context.Context, id string, userID uint64, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+id, strconv.FormatUint(userID, 10), ttl).Err()
}

// Get resolves a session id to its user.
func (s *RedisStore) Get(ctx context.Context, id string) (uint64, error) {
	val, err := s.client.Get(ctx, s.prefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	uid, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, ErrNotFound
	}
	return uid, nil
}

// Delete removes a session.  Deleting an unknown id is not an error.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

type memEntry struct {
	userID uint64
	exp    time.Time
}

// MemoryStore is a process-local Store used when Redis is unavailable.
// Sessions do not survive a restart and are not shared between replicas.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memEntry
	now   func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memEntry), now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, id string, userID uint64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = memEntry{userID: userID, exp: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return 0, ErrNotFound
	}
	if !s.now().Before(e.exp) {
		delete(s.items, id)
		return 0, ErrNotFound
	}
	return e.userID, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// New picks the Redis store when client is non-nil, otherwise memory.
func New(client *redis.Client) Store {
	if client == nil {
		return NewMemoryStore()
	}
	return NewRedisStore(client)
}
