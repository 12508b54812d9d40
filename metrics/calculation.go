package metrics

import (
	"time"

	"github.com/wyfcoding/quantrisk/xerrors"
)

// 计算结果标签。
const (
	ResultOK        = "ok"
	ResultInvalid   = "invalid"
	ResultRejected  = "rejected"
	ResultNumerical = "numerical"
	ResultError     = "error"
)

// Result 将错误归类为 result 标签值。
func Result(err error) string {
	if err == nil {
		return ResultOK
	}
	xe, ok := xerrors.FromError(err)
	if !ok {
		return ResultError
	}
	switch xe.Type {
	case xerrors.ErrInvalidArg:
		return ResultInvalid
	case xerrors.ErrLimitExceeded:
		return ResultRejected
	case xerrors.ErrNumerical:
		return ResultNumerical
	default:
		return ResultError
	}
}

// ObserveCalculation 记录一次计算的结果与耗时，m 为 nil 时忽略。
func (m *Metrics) ObserveCalculation(component, operation string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CalculationsTotal.WithLabelValues(component, operation, Result(err)).Inc()
	m.CalculationDuration.WithLabelValues(component, operation).Observe(elapsed.Seconds())
}

// AddSimulatedPaths 累加模拟路径数。
func (m *Metrics) AddSimulatedPaths(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SimulatedPaths.Add(float64(n))
}

// ObserveCacheLookup 记录一次结果缓存查询。
func (m *Metrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
