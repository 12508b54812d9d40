// Package config 提供统一的配置加载与管理能力：TOML 文件、QUANTRISK_ 前缀环境变量覆盖、
// validator 校验以及基于 fsnotify 的热更新。
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/wyfcoding/quantrisk/logging"
)

// EnvPrefix 环境变量前缀，例如 QUANTRISK_SIMULATION_WORKERS。
const EnvPrefix = "QUANTRISK"

// Config 全局顶级配置结构.
type Config struct {
	Version    string           `mapstructure:"version"    toml:"version"    json:"version"`
	Server     ServerConfig     `mapstructure:"server"     toml:"server"     json:"server"`
	Log        LogConfig        `mapstructure:"log"        toml:"log"        json:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics"    toml:"metrics"    json:"metrics"`
	Tracing    TracingConfig    `mapstructure:"tracing"    toml:"tracing"    json:"tracing"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"  toml:"ratelimit"  json:"ratelimit"`
	Market     MarketConfig     `mapstructure:"market"     toml:"market"     json:"market"`
	Pricing    PricingConfig    `mapstructure:"pricing"    toml:"pricing"    json:"pricing"`
	Cache      CacheConfig      `mapstructure:"cache"      toml:"cache"      json:"cache"`
	Simulation SimulationConfig `mapstructure:"simulation" toml:"simulation" json:"simulation"`
	HullWhite  HullWhiteConfig  `mapstructure:"hullwhite"  toml:"hullwhite"  json:"hullwhite"`
}

// ServerConfig 定义服务器运行时的基础网络与环境参数.
type ServerConfig struct {
	Name        string     `mapstructure:"name"        toml:"name"        json:"name"        validate:"required"`
	Environment string     `mapstructure:"environment" toml:"environment" json:"environment" validate:"oneof=dev test prod"`
	HTTP        HTTPConfig `mapstructure:"http"        toml:"http"        json:"http"`
}

// HTTPConfig HTTP 监听与超时参数.
type HTTPConfig struct {
	Addr              string        `mapstructure:"addr"                toml:"addr"                json:"addr"`
	Port              int           `mapstructure:"port"                toml:"port"                json:"port"                validate:"required,min=1,max=65535"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"        toml:"read_timeout"        json:"read_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" toml:"read_header_timeout" json:"read_header_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"       toml:"write_timeout"       json:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"        toml:"idle_timeout"        json:"idle_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"    toml:"max_header_bytes"    json:"max_header_bytes"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes"      toml:"max_body_bytes"      json:"max_body_bytes"`
	Timeout           time.Duration `mapstructure:"timeout"             toml:"timeout"             json:"timeout"` // 单个请求的处理时限
}

// LogConfig 定义日志输出、级别与切割策略.
type LogConfig struct {
	Level         string        `mapstructure:"level"          toml:"level"          json:"level"          validate:"omitempty,oneof=debug info warn error"`
	File          string        `mapstructure:"file"           toml:"file"           json:"file"`
	MaxSize       int           `mapstructure:"max_size"       toml:"max_size"       json:"max_size"`
	MaxBackups    int           `mapstructure:"max_backups"    toml:"max_backups"    json:"max_backups"`
	MaxAge        int           `mapstructure:"max_age"        toml:"max_age"        json:"max_age"`
	Compress      bool          `mapstructure:"compress"       toml:"compress"       json:"compress"`
	Console       bool          `mapstructure:"console"        toml:"console"        json:"console"`
	SlowThreshold time.Duration `mapstructure:"slow_threshold" toml:"slow_threshold" json:"slow_threshold"` // HTTP 慢请求阈值。
}

// MetricsConfig 普罗米修斯监控指标暴露配置.
type MetricsConfig struct {
	Path    string `mapstructure:"path"    toml:"path"    json:"path"`
	Enabled bool   `mapstructure:"enabled" toml:"enabled" json:"enabled"`
}

// TracingConfig 分布式链路追踪（OpenTelemetry OTLP/gRPC）配置.
type TracingConfig struct {
	ServiceName  string  `mapstructure:"service_name"  toml:"service_name"  json:"service_name"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint" toml:"otlp_endpoint" json:"otlp_endpoint" validate:"required_if=Enabled true"`
	SamplerRatio float64 `mapstructure:"sampler_ratio" toml:"sampler_ratio" json:"sampler_ratio" validate:"gte=0,lte=1"`
	Enabled      bool    `mapstructure:"enabled"       toml:"enabled"       json:"enabled"`
}

// RateLimitConfig 令牌桶限流参数.
type RateLimitConfig struct {
	Rate    int  `mapstructure:"rate"    toml:"rate"    json:"rate"    validate:"gte=0"`
	Burst   int  `mapstructure:"burst"   toml:"burst"   json:"burst"   validate:"gte=0"`
	Enabled bool `mapstructure:"enabled" toml:"enabled" json:"enabled"`
}

// MarketConfig 市场数据来源.
type MarketConfig struct {
	CurveFile string `mapstructure:"curve_file" toml:"curve_file" json:"curve_file"` // "Term","Rate" 两列的 CSV
}

// PricingConfig 期权定价默认值.
type PricingConfig struct {
	DefaultKind string `mapstructure:"default_kind" toml:"default_kind" json:"default_kind" validate:"omitempty,oneof=call put"`
}

// CacheConfig 解析结果缓存.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled" toml:"enabled" json:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"     toml:"ttl"     json:"ttl"`
	MaxMB   int           `mapstructure:"max_mb"  toml:"max_mb"  json:"max_mb"  validate:"gte=0"`
}

// SimulationConfig 蒙特卡洛模拟的资源与默认参数.
type SimulationConfig struct {
	Workers       int     `mapstructure:"workers"        toml:"workers"        json:"workers"        validate:"gte=0"`
	MaxPathSteps  int     `mapstructure:"max_path_steps" toml:"max_path_steps" json:"max_path_steps" validate:"gte=0"` // paths×steps 上限，0 表示不限
	MaxConcurrent int     `mapstructure:"max_concurrent" toml:"max_concurrent" json:"max_concurrent" validate:"gte=0"` // 同时进行的模拟数，0 表示不限
	DefaultSeed   uint64  `mapstructure:"default_seed"   toml:"default_seed"   json:"default_seed"`                     // 0 表示每次使用新种子
	PFEQuantile   float64 `mapstructure:"pfe_quantile"   toml:"pfe_quantile"   json:"pfe_quantile"   validate:"gte=0,lt=1"`
}

// HullWhiteConfig Hull-White 模型默认参数.
type HullWhiteConfig struct {
	R0            float64 `mapstructure:"r0"             toml:"r0"             json:"r0"`
	A             float64 `mapstructure:"a"              toml:"a"              json:"a"              validate:"gte=0"`
	Sigma         float64 `mapstructure:"sigma"          toml:"sigma"          json:"sigma"          validate:"gte=0"`
	SwapFrequency float64 `mapstructure:"swap_frequency" toml:"swap_frequency" json:"swap_frequency" validate:"gte=0"`
}

// LoggingConfig 转换为 logging.Config。
func (c *Config) LoggingConfig(module string) logging.Config {
	return logging.Config{
		Service:    c.Server.Name,
		Module:     module,
		Level:      c.Log.Level,
		File:       c.Log.File,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
		Compress:   c.Log.Compress,
		Console:    c.Log.Console,
	}
}

var (
	vInstance = viper.New()
	validate  = validator.New()

	hookMu   sync.Mutex
	onReload []func(*Config)
)

// RegisterReloadHook 注册配置热更新回调。
func RegisterReloadHook(hook func(*Config)) {
	if hook == nil {
		return
	}
	hookMu.Lock()
	defer hookMu.Unlock()
	onReload = append(onReload, hook)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "quantrisk")
	v.SetDefault("server.environment", "dev")
	v.SetDefault("server.http.port", 8080)
	v.SetDefault("server.http.read_timeout", 10*time.Second)
	v.SetDefault("server.http.read_header_timeout", 5*time.Second)
	v.SetDefault("server.http.write_timeout", 30*time.Second)
	v.SetDefault("server.http.idle_timeout", 60*time.Second)
	v.SetDefault("server.http.max_body_bytes", 1<<20)
	v.SetDefault("server.http.timeout", 20*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.slow_threshold", time.Second)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("tracing.sampler_ratio", 1.0)
	v.SetDefault("pricing.default_kind", "call")
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("cache.max_mb", 64)
	v.SetDefault("simulation.max_path_steps", 5_000_000)
	v.SetDefault("simulation.max_concurrent", 4)
	v.SetDefault("simulation.pfe_quantile", 0.95)
	v.SetDefault("hullwhite.a", 0.1)
	v.SetDefault("hullwhite.sigma", 0.01)
	v.SetDefault("hullwhite.r0", 0.02)
	v.SetDefault("hullwhite.swap_frequency", 1.0)
}

// Load 读取配置文件并应用环境变量覆盖，之后监听文件变化热更新。
func Load(path string, conf *Config) error {
	if err := read(vInstance, path, conf); err != nil {
		return err
	}

	vInstance.OnConfigChange(func(event fsnotify.Event) {
		slog.Info("detecting config change", "file", event.Name)
		const debounceTimeout = 500 * time.Millisecond
		time.Sleep(debounceTimeout)

		var next Config
		if err := vInstance.Unmarshal(&next); err != nil {
			slog.Error("reload config unmarshal failed", "error", err)
			return
		}
		if err := validate.Struct(&next); err != nil {
			slog.Error("reload config validation failed, keeping previous config", "error", err)
			return
		}
		*conf = next
		logging.SetLevel(conf.Log.Level)
		slog.Info("config hot-reloaded and validated successfully")

		hookMu.Lock()
		hooks := append([]func(*Config){}, onReload...)
		hookMu.Unlock()
		for _, hook := range hooks {
			hook(conf)
		}
	})
	vInstance.WatchConfig()

	return nil
}

// Parse 只读取并校验配置，不注册热更新，供命令行与测试使用。
func Parse(path string) (*Config, error) {
	var conf Config
	if err := read(viper.New(), path, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

func read(v *viper.Viper, path string, conf *Config) error {
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config error: %w", err)
	}
	if err := v.Unmarshal(conf); err != nil {
		return fmt.Errorf("unmarshal config error: %w", err)
	}
	if err := validate.Struct(conf); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// PrintWithMask 脱敏打印当前配置.
func PrintWithMask(conf any) {
	data, err := json.Marshal(conf)
	if err != nil {
		slog.Error("failed to marshal config for printing", "error", err)
		return
	}

	var configMap map[string]any
	if unmarshalErr := json.Unmarshal(data, &configMap); unmarshalErr != nil {
		slog.Error("failed to unmarshal config for masking", "error", unmarshalErr)
		return
	}

	mask(configMap)

	maskedJSON, marshalErr := json.Marshal(configMap)
	if marshalErr != nil {
		slog.Error("failed to marshal masked config", "error", marshalErr)
		return
	}

	slog.Info("current effective configuration", "config", string(maskedJSON))
}

func mask(configMap map[string]any) {
	sensitiveKeys := []string{"password", "secret", "dsn", "key", "token"}

	for key, val := range configMap {
		if subMap, ok := val.(map[string]any); ok {
			mask(subMap)
			continue
		}

		if slice, ok := val.([]any); ok {
			for _, item := range slice {
				if itemMap, ok := item.(map[string]any); ok {
					mask(itemMap)
				}
			}
			continue
		}

		for _, sensitiveKey := range sensitiveKeys {
			if strings.Contains(strings.ToLower(key), sensitiveKey) {
				configMap[key] = "******"
				break
			}
		}
	}
}

// GetViper 返回底层的 Viper 实例.
func GetViper() *viper.Viper {
	return vInstance
}
