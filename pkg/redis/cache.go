package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache TTLs per payload kind.
const (
	// TTLResult: 백테스트 결과 캐시 (그리드 탐색 재사용)
	TTLResult = 24 * time.Hour
	// TTLFrame: 로드된 가격/시그널 테이블 메타
	TTLFrame = 1 * time.Hour
)

// Cache stores JSON-encoded values under a prefixed keyspace. Redis가
// 꺼져 있으면 모든 호출은 미스로 동작한다.
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a cache helper scoped to the given key prefix.
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

func (c *Cache) key(k string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, k)
}

// Get loads a cached value into dest. The boolean reports a hit; a
// missing key is not an error.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}
	return true, nil
}

// Set stores value as JSON with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return c.client.Redis().Set(ctx, c.key(key), data, ttl).Err()
}

// Delete removes a cached value.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Del(ctx, c.key(key)).Err()
}

// ResultKey builds the cache key for a backtest result by config hash.
func ResultKey(configHash string) string {
	return fmt.Sprintf("backtest:result:%s", configHash)
}
