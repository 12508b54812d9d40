// Package finance - 期权解析定价（Black-Scholes-Merton）与短期利率期限结构（Hull-White 单因子）。
package finance

import (
	"math"
	"strings"

	algomath "github.com/wyfcoding/quantrisk/algorithm/math"
	"github.com/wyfcoding/quantrisk/xerrors"
)

// OptionKind 欧式期权方向。
type OptionKind string

const (
	OptionCall OptionKind = "call"
	OptionPut  OptionKind = "put"
)

// ParseOptionKind 解析期权类型，大小写不敏感。
func ParseOptionKind(s string) (OptionKind, error) {
	switch kind := OptionKind(strings.ToLower(strings.TrimSpace(s))); kind {
	case OptionCall, OptionPut:
		return kind, nil
	default:
		return "", xerrors.ErrInvalidOptionKind.WithDetail("kind=%q", s)
	}
}

// OptionContract 期权合约参数，值类型，构造后不可变。
type OptionContract struct {
	Spot       float64    // 标的价格 S
	Strike     float64    // 执行价 K
	Maturity   float64    // 到期期限 T（年）
	Rate       float64    // 连续复利无风险利率 r
	Volatility float64    // 波动率 σ
	Kind       OptionKind // call / put
}

// Validate 在计算前拒绝会产生 NaN/Inf 的参数。
func (c OptionContract) Validate() error {
	if c.Kind != OptionCall && c.Kind != OptionPut {
		return xerrors.ErrInvalidOptionKind.WithDetail("kind=%q", string(c.Kind))
	}
	if !algomath.IsFinite(c.Spot, c.Strike, c.Maturity, c.Rate, c.Volatility) {
		return xerrors.ErrNonFiniteInput.WithDetail("S=%v K=%v T=%v r=%v sigma=%v", c.Spot, c.Strike, c.Maturity, c.Rate, c.Volatility)
	}
	switch {
	case c.Spot <= 0:
		return xerrors.ErrNonPositiveSpot.WithDetail("S=%v", c.Spot)
	case c.Strike <= 0:
		return xerrors.ErrNonPositiveStrike.WithDetail("K=%v", c.Strike)
	case c.Maturity <= 0:
		return xerrors.ErrNonPositiveMaturity.WithDetail("T=%v", c.Maturity)
	case c.Volatility <= 0:
		return xerrors.ErrNonPositiveVolatility.WithDetail("sigma=%v", c.Volatility)
	}
	return nil
}

// Greeks 期权敏感度快照。
// Vega 与 Rho 按 1 个百分点变动计，Theta 按日历日计。
// Rho 对两个方向都取 K·T·e^(−rT)·Φ(±d2)，看跌期权同样为正值。
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`
}

// AsMap 以固定的五个键导出。
func (g Greeks) AsMap() map[string]float64 {
	return map[string]float64{
		"delta": g.Delta,
		"gamma": g.Gamma,
		"vega":  g.Vega,
		"theta": g.Theta,
		"rho":   g.Rho,
	}
}

// Valuation 价格与希腊字母的组合结果。
type Valuation struct {
	Price  float64 `json:"price"`
	Greeks Greeks  `json:"greeks"`
}

// BlackScholesCalculator Black-Scholes 期权定价计算器，无状态。
type BlackScholesCalculator struct{}

// NewBlackScholesCalculator 创建 Black-Scholes 计算器。
func NewBlackScholesCalculator() *BlackScholesCalculator {
	return &BlackScholesCalculator{}
}

// d1d2 计算辅助量 d1、d2 以及 σ√T。
func d1d2(c OptionContract) (d1, d2, volSqrtT float64) {
	volSqrtT = c.Volatility * math.Sqrt(c.Maturity)
	d1 = (math.Log(c.Spot/c.Strike) + (c.Rate+0.5*c.Volatility*c.Volatility)*c.Maturity) / volSqrtT
	d2 = d1 - volSqrtT
	return d1, d2, volSqrtT
}

// Price 计算欧式期权无套利价格。
func (bsc *BlackScholesCalculator) Price(c OptionContract) (float64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	return finite(price(c))
}

func price(c OptionContract) float64 {
	d1, d2, _ := d1d2(c)
	discount := math.Exp(-c.Rate * c.Maturity)
	if c.Kind == OptionCall {
		return c.Spot*algomath.NormCDF(d1) - c.Strike*discount*algomath.NormCDF(d2)
	}
	return c.Strike*discount*algomath.NormCDF(-d2) - c.Spot*algomath.NormCDF(-d1)
}

// Greeks 计算五个敏感度。
func (bsc *BlackScholesCalculator) Greeks(c OptionContract) (Greeks, error) {
	if err := c.Validate(); err != nil {
		return Greeks{}, err
	}
	g := greeks(c)
	if !algomath.IsFinite(g.Delta, g.Gamma, g.Vega, g.Theta, g.Rho) {
		return Greeks{}, xerrors.ErrNumericalInstability.WithDetail("greeks=%+v", g)
	}
	return g, nil
}

func greeks(c OptionContract) Greeks {
	d1, d2, volSqrtT := d1d2(c)
	sqrtT := math.Sqrt(c.Maturity)
	discount := math.Exp(-c.Rate * c.Maturity)
	pdfD1 := algomath.NormPDF(d1)

	// 两个方向共享的时间衰减项。
	decay := -c.Spot * pdfD1 * c.Volatility / (2 * sqrtT)

	g := Greeks{
		Gamma: pdfD1 / (c.Spot * volSqrtT),
		Vega:  c.Spot * pdfD1 * sqrtT / 100,
	}
	if c.Kind == OptionCall {
		g.Delta = algomath.NormCDF(d1)
		g.Theta = (decay - c.Rate*c.Strike*discount*algomath.NormCDF(d2)) / 365
		g.Rho = c.Strike * c.Maturity * discount * algomath.NormCDF(d2) / 100
	} else {
		g.Delta = algomath.NormCDF(d1) - 1
		g.Theta = (decay + c.Rate*c.Strike*discount*algomath.NormCDF(-d2)) / 365
		g.Rho = c.Strike * c.Maturity * discount * algomath.NormCDF(-d2) / 100
	}
	return g
}

// Calculate 一次性计算期权价格及所有希腊字母。
func (bsc *BlackScholesCalculator) Calculate(c OptionContract) (Valuation, error) {
	p, err := bsc.Price(c)
	if err != nil {
		return Valuation{}, err
	}
	g, err := bsc.Greeks(c)
	if err != nil {
		return Valuation{}, err
	}
	return Valuation{Price: p, Greeks: g}, nil
}

// finite 校验计算结果，非有限值视为实现缺陷。
func finite(v float64) (float64, error) {
	if !algomath.IsFinite(v) {
		return 0, xerrors.ErrNumericalInstability.WithDetail("value=%v", v)
	}
	return v, nil
}
