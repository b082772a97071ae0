package memory

import (
	"time"

	"ai-knowledge-client/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

type MemoryDocumentRepository struct {
	cache *cache.Cache
}

var _ contract.MemoryDocumentRepository = &MemoryDocumentRepository{}

// NewMemoryDocumentRepository keeps mirrored documents for ttl; stale entries are
// purged every 10 minutes. A zero ttl keeps them until Clear.
func NewMemoryDocumentRepository(ttl time.Duration) *MemoryDocumentRepository {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &MemoryDocumentRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *MemoryDocumentRepository) Save(target string, content string) {
	r.cache.Set(target, content, cache.DefaultExpiration)
}

func (r *MemoryDocumentRepository) Get(target string) (string, bool) {
	if x, found := r.cache.Get(target); found {
		return x.(string), true
	}
	return "", false
}

func (r *MemoryDocumentRepository) Clear() {
	r.cache.Flush()
}
