// Package app 管理应用程序生命周期：启动服务器、监听退出信号、优雅关闭与资源清理。
package app

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/wyfcoding/quantrisk/server"
)

// App 应用程序容器。
type App struct {
	name   string
	logger *slog.Logger
	opts   options
	ctx    context.Context
	cancel context.CancelFunc

	errMu    sync.Mutex
	startErr error
}

// New 创建一个新的应用程序实例。
func New(name string, logger *slog.Logger, opts ...Option) *App {
	o := options{shutdownTimeout: defaultShutdownTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		name:   name,
		logger: logger,
		opts:   o,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Run 启动所有服务器并阻塞，直到收到 SIGINT/SIGTERM、调用 Stop 或某个服务器启动失败。
// 之后依次停止服务器并按注册的逆序执行清理函数。
func (a *App) Run() error {
	a.logger.Info("application starting", "name", a.name, "pid", os.Getpid())

	var wg sync.WaitGroup
	for _, srv := range a.opts.servers {
		wg.Add(1)
		go func(s server.Server) {
			defer wg.Done()
			if err := s.Start(a.ctx); err != nil {
				a.logger.Error("server exited with error", "error", err)
				a.errMu.Lock()
				a.startErr = errors.Join(a.startErr, err)
				a.errMu.Unlock()
				a.cancel()
			}
		}(srv)
	}

	sigCtx, stop := signal.NotifyContext(a.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()
	a.logger.Info("shutting down application", "name", a.name)
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.opts.shutdownTimeout)
	defer shutdownCancel()

	var errs []error
	for _, srv := range a.opts.servers {
		if err := srv.Stop(shutdownCtx); err != nil {
			a.logger.Error("server failed to stop", "error", err)
			errs = append(errs, err)
		}
	}
	wg.Wait()

	for i := len(a.opts.cleanups) - 1; i >= 0; i-- {
		a.opts.cleanups[i]()
	}

	a.errMu.Lock()
	errs = append(errs, a.startErr)
	a.errMu.Unlock()
	if err := errors.Join(errs...); err != nil {
		return err
	}
	a.logger.Info("application shut down gracefully")
	return nil
}

// Stop 触发与收到退出信号相同的关闭流程。
func (a *App) Stop() {
	a.cancel()
}
