package insight

import (
	"context"
	"time"

	"github.com/adityanexturn/profilescope/internal/analysis"
	"github.com/adityanexturn/profilescope/pkg/cache"
)

// Store is the insight cache: one entry per fingerprint, content-addressed,
// so no global eviction policy is needed. A miss is (nil, nil).
type Store interface {
	Get(ctx context.Context, fingerprint string) (*analysis.Insight, error)
	Set(ctx context.Context, fingerprint string, ins *analysis.Insight) error
	Evict(ctx context.Context, fingerprint string) error
}

// MemoryStore keeps insights in an in-process TTL cache. The default
// backend when no external store is configured.
type MemoryStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewMemoryStore creates an in-memory store whose entries expire after ttl.
func NewMemoryStore(ttl time.Duration, maxEntries int) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{
		cache: cache.New(cache.Options{TTL: ttl, MaxEntries: maxEntries}),
		ttl:   ttl,
	}
}

func (s *MemoryStore) Get(_ context.Context, fingerprint string) (*analysis.Insight, error) {
	value, ok := s.cache.Peek(fingerprint)
	if !ok {
		return nil, nil
	}
	ins, ok := value.(*analysis.Insight)
	if !ok {
		return nil, nil
	}
	return ins, nil
}

func (s *MemoryStore) Set(_ context.Context, fingerprint string, ins *analysis.Insight) error {
	s.cache.Set(fingerprint, ins, s.ttl)
	return nil
}

func (s *MemoryStore) Evict(_ context.Context, fingerprint string) error {
	s.cache.Delete(fingerprint)
	return nil
}
