package remedy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Hasan72341/TELEMEDICINE-SIH/internal/crypto"
)

// RedisCache stores generated suggestions keyed by language and symptom digest.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (Suggestion, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Suggestion{}, false, nil
	}
	if err != nil {
		return Suggestion{}, false, err
	}
	var suggestion Suggestion
	if err := json.Unmarshal(data, &suggestion); err != nil {
		return Suggestion{}, false, err
	}
	return suggestion, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, suggestion Suggestion, ttl time.Duration) error {
	data, err := json.Marshal(suggestion)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func cacheKey(lang Language, symptom string) string {
	return fmt.Sprintf("remedy:%s:%s", lang.Code, crypto.Fingerprint(symptom))
}
