package finance

import (
	"math"

	algomath "github.com/wyfcoding/quantrisk/algorithm/math"
	"github.com/wyfcoding/quantrisk/xerrors"
)

// scheduleEpsilon 判定付息日是否与到期日重合的容差（年）。
const scheduleEpsilon = 1e-9

// HullWhiteParams 单因子 Hull-White 模型参数。
type HullWhiteParams struct {
	R0    float64 // 初始短期利率
	A     float64 // 均值回归速度 a > 0
	Sigma float64 // 短期利率波动率 σ >= 0
}

// HullWhiteModel 以市场曲线为初始期限结构的 Hull-White 解析模型，构造后不可变。
// 解析零息债价格只依赖 a、σ 与市场曲线，R0 作为模型状态保留供报告使用。
type HullWhiteModel struct {
	params HullWhiteParams
	curve  *YieldCurve
}

// NewHullWhiteModel 校验参数并构造模型。
func NewHullWhiteModel(params HullWhiteParams, curve *YieldCurve) (*HullWhiteModel, error) {
	if !algomath.IsFinite(params.R0, params.A, params.Sigma) {
		return nil, xerrors.ErrNonFiniteInput.WithDetail("r0=%v a=%v sigma=%v", params.R0, params.A, params.Sigma)
	}
	if params.A <= 0 {
		return nil, xerrors.ErrNonPositiveMeanReversion.WithDetail("a=%v", params.A)
	}
	if params.Sigma < 0 {
		return nil, xerrors.ErrNegativeVolatility.WithDetail("sigma=%v", params.Sigma)
	}
	if curve == nil || curve.Len() == 0 {
		return nil, xerrors.ErrEmptyCurve
	}
	return &HullWhiteModel{params: params, curve: curve}, nil
}

// Params 返回模型参数。
func (m *HullWhiteModel) Params() HullWhiteParams { return m.params }

// R0 初始短期利率。
func (m *HullWhiteModel) R0() float64 { return m.params.R0 }

// Curve 返回借用的市场曲线。
func (m *HullWhiteModel) Curve() *YieldCurve { return m.curve }

// b B(T) = (1 − e^(−aT)) / a
func (m *HullWhiteModel) b(T float64) float64 {
	return -math.Expm1(-m.params.A*T) / m.params.A
}

// logA ln A(T) = σ²/(2a²) · (B(T) − T + (1 − e^(−2aT))/(2a))
func (m *HullWhiteModel) logA(T float64) float64 {
	a, sigma := m.params.A, m.params.Sigma
	return sigma * sigma / (2 * a * a) * (m.b(T) - T - math.Expm1(-2*a*T)/(2*a))
}

// ZeroCouponBondPrice 到期 T 的零息债价格 P(0,T) = A(T)·e^(−r(T)·T)。
func (m *HullWhiteModel) ZeroCouponBondPrice(T float64) (float64, error) {
	if !algomath.IsFinite(T) {
		return 0, xerrors.ErrNonFiniteInput.WithDetail("T=%v", T)
	}
	if T < 0 {
		return 0, xerrors.ErrNegativeMaturity.WithDetail("T=%v", T)
	}
	return finite(m.zcb(T))
}

func (m *HullWhiteModel) zcb(T float64) float64 {
	return math.Exp(m.logA(T)) * m.curve.DiscountFactor(T)
}

// Extrapolated 报告期限 T 是否超出市场曲线的节点范围，此时价格基于平外推的利率。
func (m *HullWhiteModel) Extrapolated(T float64) bool {
	return m.curve.Extrapolated(T)
}

// PaymentSchedule 等间隔付息时间 freq, 2·freq, …，最后一期对齐到期日 T。
// T 不是 freq 的整数倍时，最后一期为短期残段。
func (m *HullWhiteModel) PaymentSchedule(T, freq float64) ([]float64, error) {
	if !algomath.IsFinite(T, freq) {
		return nil, xerrors.ErrNonFiniteInput.WithDetail("T=%v freq=%v", T, freq)
	}
	if T <= 0 {
		return nil, xerrors.ErrNonPositiveMaturity.WithDetail("T=%v", T)
	}
	if freq <= 0 {
		return nil, xerrors.ErrInvalidFrequency.WithDetail("freq=%v", freq)
	}

	times := make([]float64, 0, int(math.Ceil(T/freq)))
	for k := 1; ; k++ {
		t := float64(k) * freq
		if t >= T-scheduleEpsilon {
			break
		}
		times = append(times, t)
	}
	return append(times, T), nil
}

// SwapFixedLeg 各付息日零息债价格的平均值。
func (m *HullWhiteModel) SwapFixedLeg(T, freq float64) (float64, error) {
	times, err := m.PaymentSchedule(T, freq)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, t := range times {
		sum += m.zcb(t)
	}
	return finite(sum / float64(len(times)))
}

// SwapFairRate 平价互换利率 (1 − P(0,T)) / fixedLeg。
func (m *HullWhiteModel) SwapFairRate(T, freq float64) (float64, error) {
	leg, err := m.SwapFixedLeg(T, freq)
	if err != nil {
		return 0, err
	}
	return finite((1 - m.zcb(T)) / leg)
}

// DiscountPoint 某一期限上的零息债价格。
// Extrapolated 为 true 时该期限超出市场曲线范围，价格使用端点利率。
type DiscountPoint struct {
	Term         float64 `json:"term"`
	Price        float64 `json:"price"`
	Extrapolated bool    `json:"extrapolated"`
}

// DiscountCurve 在给定期限上批量计算零息债价格，供展示层绘图。
func (m *HullWhiteModel) DiscountCurve(terms []float64) ([]DiscountPoint, error) {
	out := make([]DiscountPoint, 0, len(terms))
	for _, t := range terms {
		p, err := m.ZeroCouponBondPrice(t)
		if err != nil {
			return nil, err
		}
		out = append(out, DiscountPoint{Term: t, Price: p, Extrapolated: m.curve.Extrapolated(t)})
	}
	return out, nil
}
