// Package cache 提供进程内结果缓存，底层为 allegro/bigcache。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
)

// ErrMiss 键不存在或已过期。
var ErrMiss = errors.New("cache miss")

// Cache 以 JSON 序列化存取任意值的缓存。
type Cache interface {
	Get(ctx context.Context, key string, value any) error
	Set(ctx context.Context, key string, value any) error
	Reset() error
	Close() error
}

// Stats 命中统计。
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// BigCache 实现了 `Cache` 接口，使用 `allegro/bigcache` 作为底层存储。
// 所有条目共享同一个 TTL。
type BigCache struct {
	cache *bigcache.BigCache
}

// NewBigCache ttl 为全局过期时间，maxMB 为容量上限（MB），0 表示不限。
func NewBigCache(ttl time.Duration, maxMB int) (*BigCache, error) {
	config := bigcache.DefaultConfig(ttl)
	config.HardMaxCacheSize = maxMB
	config.CleanWindow = max(ttl/2, time.Second)
	config.Verbose = false

	cache, err := bigcache.New(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("init bigcache: %w", err)
	}
	return &BigCache{cache: cache}, nil
}

// Get 反序列化到 value，value 必须是指针。未命中返回 ErrMiss。
func (c *BigCache) Get(_ context.Context, key string, value any) error {
	data, err := c.cache.Get(key)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return ErrMiss
		}
		return err
	}
	return json.Unmarshal(data, value)
}

// Set 以 JSON 序列化存储。
func (c *BigCache) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.cache.Set(key, data)
}

// Reset 清空所有条目，在曲线或默认参数变化后调用。
func (c *BigCache) Reset() error {
	return c.cache.Reset()
}

// Stats 返回命中统计。
func (c *BigCache) Stats() Stats {
	s := c.cache.Stats()
	return Stats{Hits: s.Hits, Misses: s.Misses, Entries: c.cache.Len()}
}

// Close 释放后台清理协程。
func (c *BigCache) Close() error {
	return c.cache.Close()
}
