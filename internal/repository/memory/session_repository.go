package memory

import (
	"context"

	"ai-knowledge-client/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// SessionRepository holds session identifiers for the lifetime of the process.
type SessionRepository struct {
	cache *cache.Cache
}

var _ contract.ChatSessionRepository = &SessionRepository{}

func NewSessionRepository() *SessionRepository {
	// A session lives until an explicit reset replaces it.
	return &SessionRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (r *SessionRepository) Save(_ context.Context, profile string, sessionId string) error {
	r.cache.Set(profile, sessionId, cache.NoExpiration)
	return nil
}

func (r *SessionRepository) Load(_ context.Context, profile string) (string, bool, error) {
	if x, found := r.cache.Get(profile); found {
		return x.(string), true, nil
	}
	return "", false, nil
}
