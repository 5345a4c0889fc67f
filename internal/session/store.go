package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionPrefix     = "session:"
	userSessionPrefix = "user_sessions:"
)

// RedisStore keeps each session in a hash with a TTL and indexes the
// session keys per user. The index expires with the user's latest session.
type RedisStore struct {
	cache *redis.Client
}

// NewRedisStore builds a Redis-backed session store.
func NewRedisStore(cache *redis.Client) *RedisStore {
	return &RedisStore{cache: cache}
}

// Save writes the session hash and its expiry.
func (s *RedisStore) Save(ctx context.Context, sess Session, ttl time.Duration) error {
	key := sessionPrefix + sess.ID
	fields := map[string]any{
		"user_id":    sess.UserID,
		"email":      sess.Email,
		"full_name":  sess.FullName,
		"ip_address": sess.IP,
		"user_agent": sess.UserAgent,
		"created_at": sess.CreatedAt.UTC().Format(time.RFC3339),
		"expires_at": sess.ExpiresAt.UTC().Format(time.RFC3339),
	}

	pipe := s.cache.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, ttl)
	pipe.SAdd(ctx, userSessionPrefix+sess.UserID, key)
	// Every session shares one TTL, so the newest one outlives the rest.
	pipe.Expire(ctx, userSessionPrefix+sess.UserID, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Get loads a session by id.
func (s *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	data, err := s.cache.HGetAll(ctx, sessionPrefix+id).Result()
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	if len(data) == 0 {
		return Session{}, ErrSessionNotFound
	}

	sess := Session{
		ID:        id,
		UserID:    data["user_id"],
		Email:     data["email"],
		FullName:  data["full_name"],
		IP:        data["ip_address"],
		UserAgent: data["user_agent"],
	}
	sess.CreatedAt, _ = time.Parse(time.RFC3339, data["created_at"])
	sess.ExpiresAt, err = time.Parse(time.RFC3339, data["expires_at"])
	if err != nil || time.Now().After(sess.ExpiresAt) {
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

// Delete removes a session and its index entry.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	key := sessionPrefix + id
	userID, err := s.cache.HGet(ctx, key, "user_id").Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	pipe := s.cache.TxPipeline()
	pipe.SRem(ctx, userSessionPrefix+userID, key)
	pipe.Del(ctx, key)
	_, err = pipe.Exec(ctx)
	return err
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryStore builds an in-process session store for development and tests.
func NewMemoryStore() Store {
	return &memoryStore{sessions: make(map[string]Session)}
}

func (s *memoryStore) Save(_ context.Context, sess Session, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *memoryStore) Get(_ context.Context, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok || time.Now().After(sess.ExpiresAt) {
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

func (s *memoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
