// Package retry 提供带抖动的指数退避重试.
package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Config 重试策略参数.
type Config struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	Jitter         float64 // 相对抖动幅度，0.1 表示 ±10%
	MaxRetries     int     // 首次执行之外的最大重试次数，<0 表示不重试
}

// DefaultRetryConfig 返回一个通用的默认重试配置.
func DefaultRetryConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		Multiplier:     2.0,
		Jitter:         0.1,
	}
}

// Do 执行 fn 直到成功、shouldRetry 返回 false、次数用尽或 ctx 结束.
// shouldRetry 为 nil 时所有错误都会重试.
func Do[T any](ctx context.Context, cfg Config, shouldRetry func(error) bool, fn func(context.Context) (T, error)) (T, error) {
	if cfg.MaxRetries < 0 {
		return fn(ctx)
	}

	var (
		v       T
		lastErr error
	)
	backoff := cfg.InitialBackoff

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		v, lastErr = fn(ctx)
		if lastErr == nil {
			return v, nil
		}
		if attempt == cfg.MaxRetries || (shouldRetry != nil && !shouldRetry(lastErr)) {
			break
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return v, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}

		next := float64(backoff) * cfg.Multiplier
		if cfg.Jitter > 0 {
			next += (rand.Float64()*2 - 1) * cfg.Jitter * next
		}
		backoff = min(time.Duration(next), cfg.MaxBackoff)
	}

	return v, fmt.Errorf("retry failed after %d attempts: %w", cfg.MaxRetries+1, lastErr)
}
