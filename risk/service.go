// Package risk 编排期权定价、利率模型与敞口模拟：套用配置默认值、限制模拟规模、记录指标与日志。
package risk

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/wyfcoding/quantrisk/algorithm/finance"
	"github.com/wyfcoding/quantrisk/cache"
	"github.com/wyfcoding/quantrisk/config"
	"github.com/wyfcoding/quantrisk/limiter"
	"github.com/wyfcoding/quantrisk/logging"
	"github.com/wyfcoding/quantrisk/metrics"
	"github.com/wyfcoding/quantrisk/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// 指标 component 标签。
const (
	ComponentPricer    = "option_pricer"
	ComponentHullWhite = "hull_white"
	ComponentExposure  = "exposure"
)

// Settings 服务默认值，可在配置热更新时整体替换。
type Settings struct {
	DefaultKind   finance.OptionKind
	HullWhite     finance.HullWhiteParams
	SwapFrequency float64
	Workers       int
	MaxPathSteps  int // paths×steps 上限，0 表示不限
	DefaultSeed   uint64
	PFEQuantile   float64
}

// SettingsFromConfig 从配置构造 Settings。
func SettingsFromConfig(c *config.Config) Settings {
	kind, err := finance.ParseOptionKind(c.Pricing.DefaultKind)
	if err != nil {
		kind = finance.OptionCall
	}
	return Settings{
		DefaultKind: kind,
		HullWhite: finance.HullWhiteParams{
			R0:    c.HullWhite.R0,
			A:     c.HullWhite.A,
			Sigma: c.HullWhite.Sigma,
		},
		SwapFrequency: c.HullWhite.SwapFrequency,
		Workers:       c.Simulation.Workers,
		MaxPathSteps:  c.Simulation.MaxPathSteps,
		DefaultSeed:   c.Simulation.DefaultSeed,
		PFEQuantile:   c.Simulation.PFEQuantile,
	}
}

// Service 计算服务，并发安全。
type Service struct {
	bsc        *finance.BlackScholesCalculator
	settings   atomic.Pointer[Settings]
	curve      atomic.Pointer[finance.YieldCurve]
	sem        *limiter.SemaphoreLimiter
	cache      cache.Cache
	generation atomic.Uint64
	metrics    *metrics.Metrics
	logger     *logging.Logger
}

// Option 服务可选项。
type Option func(*Service)

// WithCurve 设置默认收益率曲线。
func WithCurve(c *finance.YieldCurve) Option {
	return func(s *Service) { s.curve.Store(c) }
}

// WithMetrics 设置指标采集器。
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger 设置日志记录器。
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMaxConcurrent 限制同时进行的模拟数，<=0 表示不限。
func WithMaxConcurrent(n int) Option {
	return func(s *Service) { s.sem = limiter.NewSemaphoreLimiter(n) }
}

// NewService 创建计算服务。
func NewService(settings Settings, opts ...Option) *Service {
	s := &Service{
		bsc:    finance.NewBlackScholesCalculator(),
		sem:    limiter.NewSemaphoreLimiter(0),
		logger: logging.Default(),
	}
	s.settings.Store(&settings)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settings 当前生效的默认值。
func (s *Service) Settings() Settings { return *s.settings.Load() }

// UpdateSettings 原子替换默认值并清空结果缓存。
func (s *Service) UpdateSettings(settings Settings) {
	s.settings.Store(&settings)
	s.resetCache()
}

// Curve 当前默认收益率曲线，未加载时为 nil。
func (s *Service) Curve() *finance.YieldCurve { return s.curve.Load() }

// UpdateCurve 原子替换默认收益率曲线并清空结果缓存。
func (s *Service) UpdateCurve(c *finance.YieldCurve) {
	s.curve.Store(c)
	s.resetCache()
}

// begin 为一次计算开启 span，返回的 done 须以最终错误调用一次。
func (s *Service) begin(ctx context.Context, component, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, component+"."+operation,
		trace.WithAttributes(attribute.String("component", component)))
	return ctx, func(err error) {
		tracing.SetError(ctx, err)
		span.End()
		s.observe(ctx, component, operation, time.Since(start), err)
	}
}

// observe 记录一次计算的指标与日志：成功为 Debug，参数或限额错误为 Warn，其余为 Error。
func (s *Service) observe(ctx context.Context, component, operation string, elapsed time.Duration, err error) {
	s.metrics.ObserveCalculation(component, operation, err, elapsed)

	args := []any{"component", component, "operation", operation, "elapsed", elapsed}
	switch metrics.Result(err) {
	case metrics.ResultOK:
		s.logger.DebugContext(ctx, "calculation finished", args...)
	case metrics.ResultInvalid, metrics.ResultRejected:
		s.logger.WarnContext(ctx, "calculation rejected", append(args, "error", err)...)
	default:
		s.logger.ErrorContext(ctx, "calculation failed", append(args, "error", err)...)
	}
}
