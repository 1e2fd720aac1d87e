package store

import (
	"context"
	"fmt"
	"time"

	errx "github.com/line-dify-relay/server/internal/core/error"
	"github.com/line-dify-relay/server/internal/relay/model"
	logx "github.com/line-dify-relay/server/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps conversation handles in Redis so they survive restarts.
// Opt-in: the relay uses MemoryStore unless a Redis URL is configured.
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) conversationKey(userID string) string {
	return fmt.Sprintf("conversation:%s", userID)
}

func (s *RedisStore) Get(ctx context.Context, userID string) (string, error) {
	handle, err := s.rdb.Get(ctx, s.conversationKey(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		logx.Error().Err(err).Str("userID", userID).Msg("failed to load conversation handle from redis")
		return "", errx.WrapRedis(err)
	}
	return handle, nil
}

func (s *RedisStore) Set(ctx context.Context, userID, handle string) error {
	key := s.conversationKey(userID)

	if handle == "" {
		if err := s.rdb.Del(ctx, key).Err(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to clear conversation handle in redis")
			return errx.WrapRedis(err)
		}
		return nil
	}

	if err := s.rdb.Set(ctx, key, handle, s.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to store conversation handle in redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.ConversationStore = (*RedisStore)(nil)
