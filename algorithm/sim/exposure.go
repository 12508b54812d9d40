package sim

import (
	"math"
	"slices"

	algomath "github.com/wyfcoding/quantrisk/algorithm/math"
	"github.com/wyfcoding/quantrisk/xerrors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ExposureProfile 每个时间步上 max(S,0) 的路径均值。
// 按路径下标顺序求和，同一矩阵总得到同一结果。
func ExposureProfile(paths [][]float64) ([]float64, error) {
	cols, err := shape(paths)
	if err != nil {
		return nil, err
	}

	buf := make([]float64, len(paths))
	profile := make([]float64, cols)
	for t := range profile {
		positiveColumn(paths, t, buf)
		lo, hi := floats.Min(buf), floats.Max(buf)
		if lo == hi {
			// 同值列的均值就是该值本身，避免求和误差。
			profile[t] = lo
		} else {
			profile[t] = floats.Sum(buf) / float64(len(buf))
		}
	}
	if !algomath.IsFinite(profile...) {
		return nil, xerrors.ErrNumericalInstability.WithDetail("non-finite exposure profile")
	}
	return profile, nil
}

// PotentialFutureExposure 每个时间步上正敞口的经验 q 分位数。
func PotentialFutureExposure(paths [][]float64, q float64) ([]float64, error) {
	if !(q > 0 && q < 1) {
		return nil, xerrors.ErrInvalidQuantile.WithDetail("q=%v", q)
	}
	cols, err := shape(paths)
	if err != nil {
		return nil, err
	}

	buf := make([]float64, len(paths))
	pfe := make([]float64, cols)
	for t := range pfe {
		positiveColumn(paths, t, buf)
		slices.Sort(buf)
		pfe[t] = stat.Quantile(q, stat.Empirical, buf, nil)
	}
	if !algomath.IsFinite(pfe...) {
		return nil, xerrors.ErrNumericalInstability.WithDetail("non-finite PFE profile")
	}
	return pfe, nil
}

// CVAFromProfile 单边 CVA 近似：Δt · LGD · Σ_t spread · EE_t · e^(−r·t_t)。
// 对已有的期望敞口曲线求积，调用方可以只模拟一次同时展示 EE 与 CVA。
func CVAFromProfile(profile, grid []float64, rate, dt, lossGivenDefault, creditSpread float64) (float64, error) {
	if len(profile) == 0 {
		return 0, xerrors.ErrEmptyData
	}
	if len(profile) != len(grid) {
		return 0, xerrors.ErrDimMismatch.WithDetail("profile=%d grid=%d", len(profile), len(grid))
	}
	if !algomath.IsFinite(rate, dt) {
		return 0, xerrors.ErrNonFiniteInput.WithDetail("r=%v dt=%v", rate, dt)
	}
	if dt <= 0 {
		return 0, xerrors.ErrInvalidHorizon.WithDetail("dt=%v", dt)
	}
	if err := validateCredit(lossGivenDefault, creditSpread); err != nil {
		return 0, err
	}

	sum := 0.0
	for k, ee := range profile {
		sum += creditSpread * ee * math.Exp(-rate*grid[k])
	}
	cva := dt * lossGivenDefault * sum
	if !algomath.IsFinite(cva) {
		return 0, xerrors.ErrNumericalInstability.WithDetail("cva=%v", cva)
	}
	return cva, nil
}

// TerminalStatistics 期末价格分布的摘要。
type TerminalStatistics struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Terminal 计算期末价格的均值、标准差与极值。
func Terminal(paths [][]float64) (TerminalStatistics, error) {
	cols, err := shape(paths)
	if err != nil {
		return TerminalStatistics{}, err
	}
	last := make([]float64, len(paths))
	for i, row := range paths {
		last[i] = row[cols-1]
	}

	s := TerminalStatistics{Min: floats.Min(last), Max: floats.Max(last)}
	if len(last) == 1 {
		s.Mean = last[0]
		return s, nil
	}
	s.Mean, s.StdDev = stat.MeanStdDev(last, nil)
	return s, nil
}

func validateCredit(lossGivenDefault, creditSpread float64) error {
	if !algomath.IsFinite(lossGivenDefault, creditSpread) {
		return xerrors.ErrNonFiniteInput.WithDetail("lgd=%v spread=%v", lossGivenDefault, creditSpread)
	}
	if lossGivenDefault < 0 || lossGivenDefault > 1 {
		return xerrors.ErrInvalidLGD.WithDetail("lgd=%v", lossGivenDefault)
	}
	if creditSpread < 0 {
		return xerrors.ErrInvalidSpread.WithDetail("spread=%v", creditSpread)
	}
	return nil
}

// shape 校验矩阵非空且各行等长，返回列数。
func shape(paths [][]float64) (int, error) {
	if len(paths) == 0 || len(paths[0]) == 0 {
		return 0, xerrors.ErrEmptyData
	}
	cols := len(paths[0])
	for i, row := range paths {
		if len(row) != cols {
			return 0, xerrors.ErrDimMismatch.WithDetail("row %d has %d columns, want %d", i, len(row), cols)
		}
	}
	return cols, nil
}

func positiveColumn(paths [][]float64, t int, dst []float64) {
	for i, row := range paths {
		dst[i] = math.Max(row[t], 0)
	}
}
