package server

import "context"

// Server 由 app.App 统一管理生命周期的服务器。
type Server interface {
	// Start 阻塞运行，直到 ctx 取消或发生错误。
	Start(ctx context.Context) error
	// Stop 优雅停止，等待处理中的请求完成。
	Stop(ctx context.Context) error
}
