// Package health 健康检查注册表与 /healthz 处理器。
package health

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/quantrisk/response"
)

// Checker 定义健康检查函数原型。
type Checker func(ctx context.Context) error

const (
	StatusUp   = "UP"
	StatusDown = "DOWN"
)

// CheckResult 单项检查结果。
type CheckResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Report 汇总结果，任一检查失败即为 DOWN。
type Report struct {
	Status    string        `json:"status"`
	Checks    []CheckResult `json:"checks"`
	Timestamp time.Time     `json:"timestamp"`
}

// Registry 线程安全的检查项注册表。
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	timeout  time.Duration
}

// NewRegistry timeout 为单项检查的时限，<=0 时取 2s。
func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Registry{checkers: make(map[string]Checker), timeout: timeout}
}

// Register 注册或替换同名检查项。
func (r *Registry) Register(name string, c Checker) {
	if c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = c
}

// Check 依次执行所有检查项，结果按名称排序。
func (r *Registry) Check(ctx context.Context) Report {
	r.mu.RLock()
	names := make([]string, 0, len(r.checkers))
	for name := range r.checkers {
		names = append(names, name)
	}
	checkers := make(map[string]Checker, len(r.checkers))
	for k, v := range r.checkers {
		checkers[k] = v
	}
	r.mu.RUnlock()
	sort.Strings(names)

	rep := Report{Status: StatusUp, Checks: make([]CheckResult, 0, len(names)), Timestamp: time.Now().UTC()}
	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, r.timeout)
		err := checkers[name](cctx)
		cancel()

		res := CheckResult{Name: name, Status: StatusUp}
		if err != nil {
			res.Status = StatusDown
			res.Error = err.Error()
			rep.Status = StatusDown
		}
		rep.Checks = append(rep.Checks, res)
	}
	return rep
}

// Handler 返回 gin 处理器：全部通过时 200，否则 503。
func (r *Registry) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		rep := r.Check(c.Request.Context())
		code := http.StatusOK
		if rep.Status != StatusUp {
			code = http.StatusServiceUnavailable
		}
		response.SuccessWithRawData(c, code, rep)
	}
}

// ValueChecker 当 get 返回 nil 时失败，用于检查依赖是否已加载。
func ValueChecker[T any](what string, get func() *T) Checker {
	return func(context.Context) error {
		if get() == nil {
			return errors.New(what + " not loaded")
		}
		return nil
	}
}
