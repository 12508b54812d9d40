// Package bootstrap 处理进程启动时的通用初始化：命令行参数、配置、日志与指标。
package bootstrap

import (
	"flag"
	"io"

	"github.com/wyfcoding/quantrisk/config"
	"github.com/wyfcoding/quantrisk/logging"
	"github.com/wyfcoding/quantrisk/metrics"
)

// DefaultConfigPath 未指定 -conf 时读取的配置文件。
const DefaultConfigPath = "configs/quantrisk.toml"

// Bootstrapper 持有初始化完成的基础设施。
type Bootstrapper struct {
	ServiceName string
	Version     string

	ConfigPath string
	Once       bool // 只输出一次估值摘要后退出

	Config  *config.Config
	Logger  *logging.Logger
	Metrics *metrics.Metrics
}

// New 创建一个新的引导器实例。
func New(serviceName, version string) *Bootstrapper {
	return &Bootstrapper{
		ServiceName: serviceName,
		Version:     version,
		ConfigPath:  DefaultConfigPath,
	}
}

// ParseFlags 解析命令行参数，args 不含程序名。
func (b *Bootstrapper) ParseFlags(args []string, output io.Writer) error {
	fs := flag.NewFlagSet(b.ServiceName, flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}
	fs.StringVar(&b.ConfigPath, "conf", b.ConfigPath, "config path, eg: -conf configs/quantrisk.toml")
	fs.BoolVar(&b.Once, "once", false, "print a valuation summary and exit")
	return fs.Parse(args)
}

// Initialize 加载配置，按配置重建全局日志，并创建指标注册表。
// 配置文件缺失或校验失败时返回错误，调用方应退出进程。
func (b *Bootstrapper) Initialize() error {
	b.Logger = logging.NewLogger(b.ServiceName, "bootstrap")

	cfg := new(config.Config)
	if err := config.Load(b.ConfigPath, cfg); err != nil {
		b.Logger.Error("failed to load config", "path", b.ConfigPath, "error", err)
		return err
	}
	if cfg.Version == "" {
		cfg.Version = b.Version
	}
	b.Config = cfg

	b.Logger = logging.InitLogger(cfg.LoggingConfig("main"))
	config.PrintWithMask(cfg)

	b.Metrics = metrics.NewMetrics(cfg.Server.Name)
	b.Metrics.RegisterBuildInfo(cfg.Server.Name, cfg.Version)
	return nil
}
