package limiter

import (
	"context"
	"log/slog"
)

// SemaphoreLimiter 用带缓冲的信号量限制同时进行的重计算（如蒙特卡洛模拟）数量。
// Acquire/TryAcquire 成功后必须调用 Release。
type SemaphoreLimiter struct {
	sem chan struct{} // nil 表示不限制
}

// NewSemaphoreLimiter max <= 0 表示不限制。
func NewSemaphoreLimiter(max int) *SemaphoreLimiter {
	if max <= 0 {
		return &SemaphoreLimiter{}
	}
	return &SemaphoreLimiter{sem: make(chan struct{}, max)}
}

// Acquire 阻塞获取令牌，直到成功或 ctx 结束。
func (l *SemaphoreLimiter) Acquire(ctx context.Context) error {
	if l == nil || l.sem == nil {
		return nil
	}
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire 非阻塞获取令牌。
func (l *SemaphoreLimiter) TryAcquire() bool {
	if l == nil || l.sem == nil {
		return true
	}
	select {
	case l.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release 归还令牌。
func (l *SemaphoreLimiter) Release() {
	if l == nil || l.sem == nil {
		return
	}
	select {
	case <-l.sem:
	default:
		slog.Warn("concurrency limiter release without acquire")
	}
}

// InUse 当前占用的令牌数。
func (l *SemaphoreLimiter) InUse() int {
	if l == nil || l.sem == nil {
		return 0
	}
	return len(l.sem)
}
