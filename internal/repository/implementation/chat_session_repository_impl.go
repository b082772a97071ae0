package implementation

import (
	"context"
	"errors"
	"fmt"

	"ai-knowledge-client/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "assistant:session:"

// RedisChatSessionRepository lets separate CLI invocations share one conversation.
type RedisChatSessionRepository struct {
	rdb *redis.Client
}

var _ contract.ChatSessionRepository = &RedisChatSessionRepository{}

func NewRedisChatSessionRepository(rdb *redis.Client) *RedisChatSessionRepository {
	return &RedisChatSessionRepository{rdb: rdb}
}

func (r *RedisChatSessionRepository) Load(ctx context.Context, profile string) (string, bool, error) {
	sessionId, err := r.rdb.Get(ctx, sessionKeyPrefix+profile).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load session for %s: %w", profile, err)
	}
	return sessionId, true, nil
}

func (r *RedisChatSessionRepository) Save(ctx context.Context, profile string, sessionId string) error {
	if err := r.rdb.Set(ctx, sessionKeyPrefix+profile, sessionId, 0).Err(); err != nil {
		return fmt.Errorf("save session for %s: %w", profile, err)
	}
	return nil
}
