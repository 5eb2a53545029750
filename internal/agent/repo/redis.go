package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Chative-core-poc-v1/commerce-agent/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/commerce-agent/internal/core/error"
	logx "github.com/Chative-core-poc-v1/commerce-agent/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RedisSessionRepository keeps one Redis list per user. RPUSH keeps appends
// atomic per key, so concurrent turns never lose messages.
type RedisSessionRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisSessionRepository(rdb redis.Cmdable, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisSessionRepository) sessionKey(username string) string {
	return fmt.Sprintf("session:%s:messages", username)
}

func (r *RedisSessionRepository) AddMessage(ctx context.Context, username string, message model.ChatMessage) error {
	b, err := json.Marshal(message)
	if err != nil {
		logx.Error().Err(err).Str("username", username).Msg("failed to marshal message")
		return fmt.Errorf("marshal message: %w", err)
	}
	key := r.sessionKey(username)

	if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push message to redis")
		return errx.WrapRedis(err)
	}
	// extend TTL on touch; zero keeps sessions forever
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, key, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on session key")
		}
	}
	return nil
}

func (r *RedisSessionRepository) LoadHistory(ctx context.Context, username string) (*model.SessionHistory, error) {
	key := r.sessionKey(username)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &model.SessionHistory{Username: username, Messages: []model.ChatMessage{}}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session history from redis")
		return nil, errx.WrapRedis(err)
	}

	msgs := make([]model.ChatMessage, 0, len(rows))
	for i, s := range rows {
		var m model.ChatMessage
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			logx.Error().Err(err).Str("username", username).Int("index", i).Msg("failed to unmarshal message")
			return nil, errx.WrapStore(fmt.Errorf("unmarshal message at index %d: %w", i, err))
		}
		msgs = append(msgs, m)
	}
	return &model.SessionHistory{Username: username, Messages: msgs}, nil
}

func (r *RedisSessionRepository) ClearHistory(ctx context.Context, username string) error {
	key := r.sessionKey(username)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete session history from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisSessionRepository) GetMessageCount(ctx context.Context, username string) (int, error) {
	key := r.sessionKey(username)
	n, err := r.rdb.LLen(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to get message count from redis")
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

var _ model.SessionRepository = (*RedisSessionRepository)(nil)
