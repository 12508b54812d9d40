// Package metrics 基于 Prometheus 私有注册表提供 HTTP 与量化计算指标。
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 封装了基于 Prometheus 的指标采集注册表及预定义的标准监控指标。
type Metrics struct {
	registry *prometheus.Registry // 内部独立的 Prometheus 注册中心

	HTTPRequestsTotal     *prometheus.CounterVec   // HTTP 请求总量 (维度: method, path, status)
	HTTPRequestDuration   *prometheus.HistogramVec // HTTP 请求耗时分布
	HTTPInFlight          *prometheus.GaugeVec     // 处理中的 HTTP 请求
	HTTPSlowRequestsTotal *prometheus.CounterVec   // 超过慢请求阈值的 HTTP 请求
	HTTPRequestSizeBytes  *prometheus.HistogramVec // 请求体大小
	HTTPResponseSizeBytes *prometheus.HistogramVec // 响应体大小

	CalculationsTotal   *prometheus.CounterVec   // 计算次数 (维度: component, operation, result)
	CalculationDuration *prometheus.HistogramVec // 计算耗时
	SimulatedPaths      prometheus.Counter       // 累计模拟路径数
	CacheLookups        *prometheus.CounterVec   // 结果缓存查询

	BuildInfo *prometheus.GaugeVec
}

// NewMetrics 初始化并返回一个新的指标采集器。
// 它会自动注册 Go 运行时指标和进程指标。
func NewMetrics(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}

	m.HTTPRequestsTotal = m.NewCounterVec(prometheus.CounterOpts{
		Name: "http_server_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	m.HTTPRequestDuration = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_server_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	m.HTTPInFlight = m.NewGaugeVec(prometheus.GaugeOpts{
		Name: "http_server_requests_in_flight",
		Help: "Number of HTTP requests being served",
	}, []string{"method", "path"})

	m.HTTPSlowRequestsTotal = m.NewCounterVec(prometheus.CounterOpts{
		Name: "http_server_slow_requests_total",
		Help: "Total number of HTTP requests slower than the configured threshold",
	}, []string{"method", "path"})

	m.HTTPRequestSizeBytes = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_server_request_size_bytes",
		Help:    "HTTP request body size in bytes",
		Buckets: prometheus.ExponentialBuckets(128, 2, 8),
	}, []string{"method", "path"})

	m.HTTPResponseSizeBytes = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_server_response_size_bytes",
		Help:    "HTTP response body size in bytes",
		Buckets: prometheus.ExponentialBuckets(128, 2, 12),
	}, []string{"method", "path"})

	m.CalculationsTotal = m.NewCounterVec(prometheus.CounterOpts{
		Name: "quantrisk_calculations_total",
		Help: "Total number of pricing and risk calculations",
	}, []string{"component", "operation", "result"})

	m.CalculationDuration = m.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quantrisk_calculation_duration_seconds",
		Help:    "Pricing and risk calculation latency in seconds",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
	}, []string{"component", "operation"})

	m.SimulatedPaths = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quantrisk_simulated_paths_total",
		Help: "Total number of Monte Carlo paths simulated",
	})
	reg.MustRegister(m.SimulatedPaths)

	m.CacheLookups = m.NewCounterVec(prometheus.CounterOpts{
		Name: "quantrisk_cache_lookups_total",
		Help: "Result cache lookups by outcome",
	}, []string{"result"})

	slog.Info("unified metrics registry initialized", "service", serviceName)
	return m
}

// NewCounterVec 创建并注册一个新的计数器指标。
func (m *Metrics) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(opts, labelNames)
	m.registry.MustRegister(cv)
	return cv
}

// NewGaugeVec 创建并注册一个新的仪表盘指标。
func (m *Metrics) NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	gv := prometheus.NewGaugeVec(opts, labelNames)
	m.registry.MustRegister(gv)
	return gv
}

// NewHistogramVec 创建并注册一个新的直方图指标。
func (m *Metrics) NewHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(opts, labelNames)
	m.registry.MustRegister(hv)
	return hv
}

// Registry 返回内部注册表，供测试采集。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回用于暴露指标的 HTTP 处理器。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
