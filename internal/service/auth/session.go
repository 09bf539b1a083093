package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// redisKeySession maps a session id to its user id.
func redisKeySession(sessionID uuid.UUID) string { return "session:" + sessionID.String() }

// redisKeyUserSessions indexes the sessions of one user so they can be
// revoked together.
func redisKeyUserSessions(userID uuid.UUID) string { return "user_sessions:" + userID.String() }

func redisKeyLoginFailures(email string) string { return "login:failures:" + email }

// SessionStore keeps live sessions.
type SessionStore interface {
	Create(ctx context.Context, userID, sessionID uuid.UUID, ttl time.Duration) error
	// Lookup returns the owner of a live session.
	Lookup(ctx context.Context, sessionID uuid.UUID) (uuid.UUID, error)
	Touch(ctx context.Context, sessionID uuid.UUID, ttl time.Duration) error
	Delete(ctx context.Context, userID, sessionID uuid.UUID) error
	// DeleteAll revokes every session of userID and returns how many were
	// indexed.
	DeleteAll(ctx context.Context, userID uuid.UUID) (int, error)

	// Login failure counter used for temporary lockout.
	Failures(ctx context.Context, email string) (int, error)
	AddFailure(ctx context.Context, email string, window time.Duration) error
	ClearFailures(ctx context.Context, email string) error
}

type redisSessions struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) SessionStore {
	return &redisSessions{rdb: rdb}
}

func (s *redisSessions) Create(ctx context.Context, userID, sessionID uuid.UUID, ttl time.Duration) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, redisKeySession(sessionID), userID.String(), ttl)
		p.SAdd(ctx, redisKeyUserSessions(userID), sessionID.String())
		p.Expire(ctx, redisKeyUserSessions(userID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *redisSessions) Lookup(ctx context.Context, sessionID uuid.UUID) (uuid.UUID, error) {
	v, err := s.rdb.Get(ctx, redisKeySession(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrSessionNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("redis get session: %w", err)
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, ErrSessionNotFound
	}
	return id, nil
}

func (s *redisSessions) Touch(ctx context.Context, sessionID uuid.UUID, ttl time.Duration) error {
	return s.rdb.Expire(ctx, redisKeySession(sessionID), ttl).Err()
}

func (s *redisSessions) Delete(ctx context.Context, userID, sessionID uuid.UUID) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, redisKeySession(sessionID))
		p.SRem(ctx, redisKeyUserSessions(userID), sessionID.String())
		return nil
	})
	return err
}

func (s *redisSessions) DeleteAll(ctx context.Context, userID uuid.UUID) (int, error) {
	ids, err := s.rdb.SMembers(ctx, redisKeyUserSessions(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}
	keys := []string{redisKeyUserSessions(userID)}
	for _, id := range ids {
		if sid, err := uuid.Parse(id); err == nil {
			keys = append(keys, redisKeySession(sid))
		}
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	return len(keys) - 1, nil
}

func (s *redisSessions) Failures(ctx context.Context, email string) (int, error) {
	n, err := s.rdb.Get(ctx, redisKeyLoginFailures(email)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (s *redisSessions) AddFailure(ctx context.Context, email string, window time.Duration) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, redisKeyLoginFailures(email))
		p.Expire(ctx, redisKeyLoginFailures(email), window)
		return nil
	})
	return err
}

func (s *redisSessions) ClearFailures(ctx context.Context, email string) error {
	return s.rdb.Del(ctx, redisKeyLoginFailures(email)).Err()
}
