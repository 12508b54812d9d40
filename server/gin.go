// Package server 提供 HTTP 服务器的启动与优雅关闭封装。
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// shutdownTimeout Start 因 ctx 取消而退出时的关闭等待时间。
const shutdownTimeout = 5 * time.Second

// HTTPOptions HTTP 服务器参数，零值表示使用 net/http 默认行为。
type HTTPOptions struct {
	Addr              string
	Port              int
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
}

// Address 拼接监听地址。
func (o HTTPOptions) Address() string {
	return net.JoinHostPort(o.Addr, strconv.Itoa(o.Port))
}

// GinServer 封装标准的 `http.Server` 运行 Gin 引擎，提供优雅的启动和关闭。
type GinServer struct {
	server   *http.Server
	logger   *slog.Logger
	mu       sync.Mutex
	listener net.Listener
}

// NewGinServer 创建一个新的 Gin 服务器实例。
func NewGinServer(engine *gin.Engine, opts HTTPOptions, logger *slog.Logger) *GinServer {
	return &GinServer{
		server: &http.Server{
			Addr:              opts.Address(),
			Handler:           engine,
			ReadTimeout:       opts.ReadTimeout,
			ReadHeaderTimeout: opts.ReadHeaderTimeout,
			WriteTimeout:      opts.WriteTimeout,
			IdleTimeout:       opts.IdleTimeout,
			MaxHeaderBytes:    opts.MaxHeaderBytes,
		},
		logger: logger,
	}
}

// Addr 实际监听地址，启动前返回配置值。
func (s *GinServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

// Start 启动 HTTP 服务器并阻塞，ctx 取消时优雅关闭。
func (s *GinServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.logger.Info("starting gin server", "addr", ln.Addr().String())

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("gin server stopping due to context cancellation")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Stop 优雅地停止服务器，等待处理中的请求在 ctx 截止前完成。
func (s *GinServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping gin server gracefully")
	return s.server.Shutdown(ctx)
}
