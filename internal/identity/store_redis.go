package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "greenhub:session:"

// redisSession is the wire shape for sessions in Redis. Tokens are stored
// here deliberately; the JSON tags on Session hide them from API responses,
// not from the store.
type redisSession struct {
	ID           string    `json:"id"`
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName,omitempty"`
	PhotoURL     string    `json:"photoURL,omitempty"`
	IDToken      string    `json:"idToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// RedisStore persists sessions in Redis so they survive restarts and can be
// shared across replicas.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &RedisStore{client: client}, nil
}

// Get returns the stored session or ErrSessionNotFound.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", id, err)
	}
	var rs redisSession
	if err := json.Unmarshal([]byte(raw), &rs); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &Session{
		ID:           rs.ID,
		UID:          rs.UID,
		Email:        rs.Email,
		DisplayName:  rs.DisplayName,
		PhotoURL:     rs.PhotoURL,
		IDToken:      rs.IDToken,
		RefreshToken: rs.RefreshToken,
		ExpiresAt:    rs.ExpiresAt,
	}, nil
}

// Put stores the session with the given TTL.
func (s *RedisStore) Put(ctx context.Context, session *Session, ttl time.Duration) error {
	payload, err := json.Marshal(redisSession{
		ID:           session.ID,
		UID:          session.UID,
		Email:        session.Email,
		DisplayName:  session.DisplayName,
		PhotoURL:     session.PhotoURL,
		IDToken:      session.IDToken,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    session.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", session.ID, err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+session.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write session %s: %w", session.ID, err)
	}
	return nil
}

// Delete removes the session.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error { return s.client.Close() }
