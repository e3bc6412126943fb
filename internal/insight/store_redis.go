package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/adityanexturn/profilescope/internal/analysis"
)

const redisKeyPrefix = "insight:"

// RedisStore shares the insight cache across processes via Redis.
type RedisStore struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client goredis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, fingerprint string) (*analysis.Insight, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+fingerprint).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get insight %s: %w", fingerprint, err)
	}

	var ins analysis.Insight
	if err := json.Unmarshal(raw, &ins); err != nil {
		return nil, fmt.Errorf("decode insight %s: %w", fingerprint, err)
	}
	return &ins, nil
}

func (s *RedisStore) Set(ctx context.Context, fingerprint string, ins *analysis.Insight) error {
	payload, err := json.Marshal(ins)
	if err != nil {
		return fmt.Errorf("encode insight %s: %w", fingerprint, err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+fingerprint, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("set insight %s: %w", fingerprint, err)
	}
	return nil
}

func (s *RedisStore) Evict(ctx context.Context, fingerprint string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+fingerprint).Err(); err != nil {
		return fmt.Errorf("evict insight %s: %w", fingerprint, err)
	}
	return nil
}
