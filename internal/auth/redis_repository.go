package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found or revoked")

// RedisSessionStore keeps login sessions in Redis with a TTL matching the token
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

// getSessionKey generates the Redis key for a session
func getSessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// getUserSessionsKey generates the Redis key for a user's set of sessions
func getUserSessionsKey(userID int64) string {
	return fmt.Sprintf("user_sessions:%d", userID)
}

// Create starts a session for userID and returns its ID
func (s *RedisSessionStore) Create(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("session ttl must be positive")
	}

	sessionID := uuid.NewString()
	userSessionsKey := getUserSessionsKey(userID)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, getSessionKey(sessionID), userID, ttl)
	pipe.SAdd(ctx, userSessionsKey, sessionID)
	// the index lives as long as the newest session
	pipe.Expire(ctx, userSessionsKey, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	return sessionID, nil
}

// Get returns the user that owns a live session
func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (int64, error) {
	return getSessionUser(ctx, s.client, sessionID)
}

// maxRevokeRetries bounds how often Revoke retries after a concurrent write
// to the watched session key.
const maxRevokeRetries = 3

// Revoke ends a single session. The session key is watched so the owner
// lookup and the deletes apply as one transaction.
func (s *RedisSessionStore) Revoke(ctx context.Context, sessionID string) error {
	sessionKey := getSessionKey(sessionID)

	revoke := func(tx *redis.Tx) error {
		userID, err := getSessionUser(ctx, tx, sessionID)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, sessionKey)
			pipe.SRem(ctx, getUserSessionsKey(userID), sessionID)
			return nil
		})
		return err
	}

	for range maxRevokeRetries {
		err := s.client.Watch(ctx, revoke, sessionKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, ErrSessionNotFound) {
			return err
		}
		if err != nil {
			return fmt.Errorf("failed to revoke session: %w", err)
		}
		return nil
	}

	return fmt.Errorf("failed to revoke session: %w", redis.TxFailedErr)
}

// stringGetter is satisfied by both *redis.Client and *redis.Tx
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getSessionUser(ctx context.Context, client stringGetter, sessionID string) (int64, error) {
	raw, err := client.Get(ctx, getSessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrSessionNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get session: %w", err)
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse session user id: %w", err)
	}

	return userID, nil
}

// RevokeAll ends every session of a user
func (s *RedisSessionStore) RevokeAll(ctx context.Context, userID int64) error {
	userSessionsKey := getUserSessionsKey(userID)

	sessionIDs, err := s.client.SMembers(ctx, userSessionsKey).Result()
	if err != nil {
		return fmt.Errorf("failed to get user sessions: %w", err)
	}

	keys := make([]string, 0, len(sessionIDs)+1)
	for _, id := range sessionIDs {
		keys = append(keys, getSessionKey(id))
	}
	keys = append(keys, userSessionsKey)

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to revoke user sessions: %w", err)
	}

	return nil
}

// RevokeOthers ends every session of a user except keepSessionID
func (s *RedisSessionStore) RevokeOthers(ctx context.Context, userID int64, keepSessionID string) error {
	userSessionsKey := getUserSessionsKey(userID)

	sessionIDs, err := s.client.SMembers(ctx, userSessionsKey).Result()
	if err != nil {
		return fmt.Errorf("failed to get user sessions: %w", err)
	}

	pipe := s.client.TxPipeline()
	queued := 0
	for _, id := range sessionIDs {
		if id == keepSessionID {
			continue
		}
		pipe.Del(ctx, getSessionKey(id))
		pipe.SRem(ctx, userSessionsKey, id)
		queued++
	}
	if queued == 0 {
		return nil
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to revoke user sessions: %w", err)
	}

	return nil
}
