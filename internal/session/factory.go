package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Driver names accepted by New.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// New builds a session store for the named driver. The redis driver needs
// WithRedisClient; the memory driver ignores all options.
func New(driver string, opts ...StoreOption) (Store, error) {
	cfg := &storeConfig{
		redisTTL: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch driver {
	case DriverMemory:
		return newMemoryStore(), nil
	case DriverRedis:
		if cfg.redisClient == nil {
			return nil, fmt.Errorf("%w: redis driver requires a client", ErrInvalidConfig)
		}
		return newRedisStore(cfg.redisClient, cfg.redisTTL), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDriver, driver)
	}
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Data
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: make(map[string]*Data)}
}

func (s *memoryStore) Create(ctx context.Context, data *Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	data.Version = 1
	data.CreatedAt = now
	data.UpdatedAt = now
	s.sessions[data.ID] = clone(data)
	return nil
}

func (s *memoryStore) Get(ctx context.Context, id string) (*Data, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return clone(stored), nil
}

func (s *memoryStore) Update(ctx context.Context, data *Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[data.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != data.Version {
		return fmt.Errorf("%w: have %d, want %d", ErrVersionConflict, stored.Version, data.Version)
	}

	data.Version++
	data.UpdatedAt = time.Now()
	s.sessions[data.ID] = clone(data)
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*Data)
	return nil
}

// clone round-trips through JSON so callers and the store never share the
// nested briefing state.
func clone(data *Data) *Data {
	raw, err := json.Marshal(data)
	if err != nil {
		// Data contains only plain serializable fields.
		panic(fmt.Sprintf("session: marshal: %v", err))
	}
	out := &Data{}
	if err := json.Unmarshal(raw, out); err != nil {
		panic(fmt.Sprintf("session: unmarshal: %v", err))
	}
	return out
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func newRedisStore(client *redis.Client, ttl time.Duration) *redisStore {
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) key(id string) string {
	return "briefing:" + id
}

func (s *redisStore) Create(ctx context.Context, data *Data) error {
	now := time.Now()
	data.Version = 1
	data.CreatedAt = now
	data.UpdatedAt = now

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(data.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, id string) (*Data, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	data := &Data{}
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return data, nil
}

// Update writes the session back under a WATCH transaction so two writers
// racing on the same session cannot silently overwrite each other.
func (s *redisStore) Update(ctx context.Context, data *Data) error {
	key := s.key(data.ID)

	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}

		stored := &Data{}
		if err := json.Unmarshal(raw, stored); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}
		if stored.Version != data.Version {
			return fmt.Errorf("%w: have %d, want %d", ErrVersionConflict, stored.Version, data.Version)
		}

		data.Version++
		data.UpdatedAt = time.Now()
		next, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, s.ttl)
			return nil
		})
		return err
	}, key)
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
