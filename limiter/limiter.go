// Package limiter 提供本地令牌桶限流（支持热更新）与并发信号量，用于保护计算密集型接口。
package limiter

import (
	"context"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Limiter 限流器的通用行为。
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// LocalLimiter 基于令牌桶的进程内全局限流器，key 不参与判断。
type LocalLimiter struct {
	limiter *rate.Limiter
}

// NewLocalLimiter r 为每秒令牌数，b 为桶容量（允许的突发请求数）。
func NewLocalLimiter(r rate.Limit, b int) *LocalLimiter {
	return &LocalLimiter{limiter: rate.NewLimiter(r, b)}
}

// Allow 尝试取一个令牌。
func (l *LocalLimiter) Allow(_ context.Context, _ string) (bool, error) {
	return l.limiter.Allow(), nil
}

// DynamicLimiter 可在配置热更新时原子替换的限流器，未设置时放行所有请求。
type DynamicLimiter struct {
	value atomic.Pointer[LocalLimiter]
}

// NewDynamicLocalLimiter rateLimit <= 0 表示不限流。
func NewDynamicLocalLimiter(rateLimit, burst int) *DynamicLimiter {
	d := &DynamicLimiter{}
	d.UpdateLocal(rateLimit, burst)
	return d
}

// UpdateLocal 以新的速率与突发量替换当前令牌桶，burst <= 0 时取 rateLimit。
func (d *DynamicLimiter) UpdateLocal(rateLimit, burst int) {
	if rateLimit <= 0 {
		d.value.Store(nil)
		return
	}
	if burst <= 0 {
		burst = rateLimit
	}
	d.value.Store(NewLocalLimiter(rate.Limit(rateLimit), burst))
}

// Allow 实现 Limiter 接口。
func (d *DynamicLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if d == nil {
		return true, nil
	}
	l := d.value.Load()
	if l == nil {
		return true, nil
	}
	return l.Allow(ctx, key)
}
