package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"sync"
	"time"

	"github.com/wyfcoding/quantrisk/algorithm/finance"
	"github.com/wyfcoding/quantrisk/api"
	"github.com/wyfcoding/quantrisk/app"
	"github.com/wyfcoding/quantrisk/bootstrap"
	"github.com/wyfcoding/quantrisk/cache"
	"github.com/wyfcoding/quantrisk/config"
	"github.com/wyfcoding/quantrisk/health"
	"github.com/wyfcoding/quantrisk/limiter"
	"github.com/wyfcoding/quantrisk/logging"
	"github.com/wyfcoding/quantrisk/marketdata"
	"github.com/wyfcoding/quantrisk/metrics"
	"github.com/wyfcoding/quantrisk/retry"
	"github.com/wyfcoding/quantrisk/risk"
	"github.com/wyfcoding/quantrisk/server"
	"github.com/wyfcoding/quantrisk/tracing"
)

// version 构建时通过 -ldflags "-X main.version=..." 注入。
var version = "dev"

func main() {
	b := bootstrap.New("quantrisk", version)
	if err := b.ParseFlags(os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if err := b.Initialize(); err != nil {
		os.Exit(1)
	}

	svc, closeService := newService(b.Config, b.Logger, b.Metrics)
	defer closeService()

	if b.Once {
		if err := writeSummary(context.Background(), svc, os.Stdout); err != nil {
			b.Logger.Error("valuation summary failed", "error", err)
			closeService()
			os.Exit(1)
		}
		return
	}

	if err := serve(b, svc); err != nil {
		b.Logger.Error("service exited with error", "error", err)
		closeService()
		os.Exit(1)
	}
}

// newService 按配置创建计算服务；曲线文件不可用时服务照常启动，依赖曲线的接口返回 503。
// 返回的 close 释放结果缓存。
func newService(cfg *config.Config, logger *logging.Logger, m *metrics.Metrics) (*risk.Service, func()) {
	opts := []risk.Option{
		risk.WithLogger(logger),
		risk.WithMetrics(m),
		risk.WithMaxConcurrent(cfg.Simulation.MaxConcurrent),
	}
	if curve := loadCurve(context.Background(), cfg.Market.CurveFile, logger, retry.Config{MaxRetries: -1}); curve != nil {
		opts = append(opts, risk.WithCurve(curve))
	}

	closeFn := func() {}
	if cfg.Cache.Enabled {
		c, err := cache.NewBigCache(cfg.Cache.TTL, cfg.Cache.MaxMB)
		if err != nil {
			logger.Warn("result cache disabled", "error", err)
		} else {
			opts = append(opts, risk.WithCache(c))
			var once sync.Once
			closeFn = func() { once.Do(func() { _ = c.Close() }) }
		}
	}
	return risk.NewService(risk.SettingsFromConfig(cfg), opts...), closeFn
}

func loadCurve(ctx context.Context, path string, logger *logging.Logger, policy retry.Config) *finance.YieldCurve {
	if path == "" {
		logger.Warn("no yield curve file configured")
		return nil
	}
	curve, err := marketdata.LoadYieldCurveFileWithRetry(ctx, path, policy)
	if err != nil {
		logger.Warn("yield curve not loaded", "path", path, "error", err)
		return nil
	}
	logger.Info("yield curve loaded", "path", path, "points", curve.Len(), "max_rate", curve.MaxRate())
	return curve
}

func rateLimit(cfg config.RateLimitConfig) (int, int) {
	if !cfg.Enabled {
		return 0, 0
	}
	return cfg.Rate, cfg.Burst
}

func serve(b *bootstrap.Bootstrapper, svc *risk.Service) error {
	cfg := b.Config

	rl := limiter.NewDynamicLocalLimiter(rateLimit(cfg.RateLimit))

	checks := health.NewRegistry(0)
	checks.Register("yield_curve", health.ValueChecker("yield curve", svc.Curve))

	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = cfg.Server.Name
	}
	shutdownTracer, err := tracing.InitTracer(cfg.Tracing)
	if err != nil {
		return err
	}

	opts := api.RouterOptions{
		ServiceName:   cfg.Server.Name,
		Logger:        b.Logger,
		Limiter:       rl,
		Health:        checks,
		SlowThreshold: cfg.Log.SlowThreshold,
		MaxBodyBytes:  cfg.Server.HTTP.MaxBodyBytes,
		Timeout:       cfg.Server.HTTP.Timeout,
	}
	if cfg.Metrics.Enabled {
		opts.Metrics = b.Metrics
		opts.MetricsPath = cfg.Metrics.Path
	}
	router := api.NewRouter(svc, opts)

	srv := server.NewGinServer(router, server.HTTPOptions{
		Addr:              cfg.Server.HTTP.Addr,
		Port:              cfg.Server.HTTP.Port,
		ReadTimeout:       cfg.Server.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:       cfg.Server.HTTP.IdleTimeout,
		MaxHeaderBytes:    cfg.Server.HTTP.MaxHeaderBytes,
	}, b.Logger.Logger)

	config.RegisterReloadHook(func(next *config.Config) {
		rl.UpdateLocal(rateLimit(next.RateLimit))
		svc.UpdateSettings(risk.SettingsFromConfig(next))
		if curve := loadCurve(context.Background(), next.Market.CurveFile, b.Logger, retry.DefaultRetryConfig()); curve != nil {
			svc.UpdateCurve(curve)
		}
	})

	return app.New(cfg.Server.Name, b.Logger.Logger,
		app.WithServer(srv),
		app.WithCleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracer(ctx); err != nil {
				b.Logger.Error("tracer shutdown failed", "error", err)
			}
		}),
	).Run()
}
