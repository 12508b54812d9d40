package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/quantrisk/health"
	"github.com/wyfcoding/quantrisk/limiter"
	"github.com/wyfcoding/quantrisk/logging"
	"github.com/wyfcoding/quantrisk/metrics"
	"github.com/wyfcoding/quantrisk/middleware"
	"github.com/wyfcoding/quantrisk/risk"
	"github.com/wyfcoding/quantrisk/server"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// 系统路由。
const (
	HealthPath = "/healthz"
	APIPrefix  = "/api/v1"
)

// RouterOptions 路由与中间件参数，零值字段对应的中间件不启用。
type RouterOptions struct {
	ServiceName   string // 非空时启用 otelgin 追踪
	Logger        *logging.Logger
	Metrics       *metrics.Metrics
	MetricsPath   string
	Limiter       limiter.Limiter
	Health        *health.Registry
	SlowThreshold time.Duration
	MaxBodyBytes  int64
	Timeout       time.Duration
}

// NewRouter 组装中间件链并注册业务与系统路由。
// 顺序：Recovery, Tracing, RequestID, Logger, Metrics, RateLimit, MaxBody, Timeout, ErrorHandler。
func NewRouter(svc *risk.Service, opts RouterOptions) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	chain := []gin.HandlerFunc{middleware.Recovery(logger.Logger)}
	if opts.ServiceName != "" {
		chain = append(chain, otelgin.Middleware(opts.ServiceName))
	}
	chain = append(chain,
		middleware.RequestID(),
		middleware.Logger(logger.Logger, opts.SlowThreshold),
	)
	if opts.Metrics != nil {
		chain = append(chain, middleware.HTTPMetrics(opts.Metrics, middleware.MetricsOptions{
			SlowThreshold: opts.SlowThreshold,
			SkipPaths:     []string{HealthPath, opts.MetricsPath},
		}))
	}
	if opts.Limiter != nil {
		chain = append(chain, middleware.RateLimit(opts.Limiter))
	}
	if opts.MaxBodyBytes > 0 {
		chain = append(chain, middleware.MaxBodyBytes(opts.MaxBodyBytes))
	}
	chain = append(chain, middleware.Timeout(opts.Timeout), middleware.HTTPErrorHandler())

	engine := server.NewDefaultGinEngine(chain...)

	if opts.Health != nil {
		engine.GET(HealthPath, opts.Health.Handler())
	}
	if opts.Metrics != nil && opts.MetricsPath != "" {
		engine.GET(opts.MetricsPath, gin.WrapH(opts.Metrics.Handler()))
	}

	NewHandler(svc).Register(engine.Group(APIPrefix))
	return engine
}
