// Package session stores refresh-token sessions in Redis.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned for a refresh token that was never issued,
// has expired, or was already used or revoked.
var ErrNotFound = errors.New("refresh session not found or expired")

type sessionData struct {
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisStore keeps one key per refresh token, named by the token's hash
// and expiring with the session.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "refresh:",
		ttl:    ttl,
	}
}

func (s *RedisStore) key(tokenHash string) string {
	return s.prefix + tokenHash
}

func (s *RedisStore) Save(ctx context.Context, tokenHash string, userID uuid.UUID) error {
	data, err := json.Marshal(sessionData{UserID: userID, CreatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(tokenHash), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *RedisStore) Lookup(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	raw, err := s.client.Get(ctx, s.key(tokenHash)).Bytes()
	return decode(raw, err)
}

// Rotate consumes the old session and saves a new one for the same user.
// GETDEL makes the old token single-use even under concurrent refreshes.
func (s *RedisStore) Rotate(ctx context.Context, oldHash, newHash string) (uuid.UUID, error) {
	raw, err := s.client.GetDel(ctx, s.key(oldHash)).Bytes()
	userID, err := decode(raw, err)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.Save(ctx, newHash, userID); err != nil {
		return uuid.Nil, err
	}
	return userID, nil
}

func (s *RedisStore) Revoke(ctx context.Context, tokenHash string) error {
	if err := s.client.Del(ctx, s.key(tokenHash)).Err(); err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func decode(raw []byte, err error) (uuid.UUID, error) {
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("lookup refresh session: %w", err)
	}
	var data sessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return uuid.Nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return data.UserID, nil
}
