package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisTokenPrefix = "session:"
	redisIDPrefix    = "session_id:"
	redisUserPrefix  = "session_user:"
)

// RedisStore persists sessions in Redis with TTL-based expiry.
// Tokens map to serialized sessions; secondary keys index sessions
// by ID (for token rotation) and by user (for logout-everywhere).
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a store backed by the given Redis client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// redisRecord is the wire form of a session in Redis.
type redisRecord struct {
	CreatedAt    time.Time      `json:"created_at"`
	LastActiveAt time.Time      `json:"last_active_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
	UserID       *string        `json:"user_id,omitempty"`
	Values       map[string]any `json:"values"`
	Flash        map[string]any `json:"flash"`
	ID           string         `json:"id"`
	Token        string         `json:"token"`
}

func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	return r.write(ctx, s)
}

func (r *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	raw, err := r.client.Get(ctx, redisTokenPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: get: %w", err)
	}

	var rec redisRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}

	s := &Session{
		ID:           rec.ID,
		Token:        rec.Token,
		UserID:       rec.UserID,
		Values:       rec.Values,
		Flash:        rec.Flash,
		CreatedAt:    rec.CreatedAt,
		LastActiveAt: rec.LastActiveAt,
		ExpiresAt:    rec.ExpiresAt,
	}
	if s.IsExpired() {
		_ = r.Delete(ctx, s.ID)
		return nil, ErrExpired
	}
	return s, nil
}

func (r *RedisStore) Update(ctx context.Context, s *Session) error {
	// Token rotation leaves the record reachable under the old token;
	// drop the stale entry before writing the new one.
	oldToken, err := r.client.Get(ctx, redisIDPrefix+s.ID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("session: update: %w", err)
	}
	if oldToken != s.Token {
		if err := r.client.Del(ctx, redisTokenPrefix+oldToken).Err(); err != nil {
			return fmt.Errorf("session: update: %w", err)
		}
	}
	return r.write(ctx, s)
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	token, err := r.client.Get(ctx, redisIDPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("session: delete: %w", err)
	}

	raw, err := r.client.Get(ctx, redisTokenPrefix+token).Bytes()
	if err == nil {
		var rec redisRecord
		if json.Unmarshal(raw, &rec) == nil && rec.UserID != nil {
			_ = r.client.SRem(ctx, redisUserPrefix+*rec.UserID, id).Err()
		}
	}

	if err := r.client.Del(ctx, redisTokenPrefix+token, redisIDPrefix+id).Err(); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

func (r *RedisStore) DeleteByUserID(ctx context.Context, userID string) error {
	ids, err := r.client.SMembers(ctx, redisUserPrefix+userID).Result()
	if err != nil {
		return fmt.Errorf("session: delete by user: %w", err)
	}
	for _, id := range ids {
		if err := r.Delete(ctx, id); err != nil {
			return err
		}
	}
	return r.client.Del(ctx, redisUserPrefix+userID).Err()
}

// DeleteExpired is a no-op for Redis: expiry is enforced by key TTLs.
func (r *RedisStore) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (r *RedisStore) write(ctx context.Context, s *Session) error {
	rec := redisRecord{
		ID:           s.ID,
		Token:        s.Token,
		UserID:       s.UserID,
		Values:       s.Values,
		Flash:        s.Flash,
		CreatedAt:    s.CreatedAt,
		LastActiveAt: s.LastActiveAt,
		ExpiresAt:    s.ExpiresAt,
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}

	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return ErrExpired
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, redisTokenPrefix+s.Token, raw, ttl)
	pipe.Set(ctx, redisIDPrefix+s.ID, s.Token, ttl)
	if s.UserID != nil && *s.UserID != "" {
		pipe.SAdd(ctx, redisUserPrefix+*s.UserID, s.ID)
		pipe.Expire(ctx, redisUserPrefix+*s.UserID, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session: write: %w", err)
	}
	return nil
}
