package metrics

import (
	"runtime"
	"runtime/debug"

	"github.com/prometheus/client_golang/prometheus"
)

// RegisterBuildInfo 导出 build_info 常量指标，只有首次调用生效。
// revision 取自 go build 写入的 vcs.revision，非 VCS 构建时为 unknown。
func (m *Metrics) RegisterBuildInfo(serviceName, version string) {
	if m == nil || m.BuildInfo != nil {
		return
	}

	m.BuildInfo = m.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build and runtime information of the quantrisk binary",
	}, []string{"service", "version", "revision", "go_version"})

	m.BuildInfo.WithLabelValues(
		orUnknown(serviceName),
		orUnknown(version),
		orUnknown(vcsRevision()),
		runtime.Version(),
	).Set(1)
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
