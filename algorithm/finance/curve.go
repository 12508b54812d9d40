package finance

import (
	"math"
	"slices"
	"sort"

	algomath "github.com/wyfcoding/quantrisk/algorithm/math"
	"github.com/wyfcoding/quantrisk/xerrors"
)

// CurvePoint 收益率曲线上的一个节点。
type CurvePoint struct {
	Term float64 `json:"term"` // 期限（年）
	Rate float64 `json:"rate"` // 年化利率
}

// YieldCurve 只读的离散收益率曲线，按期限严格递增。
// 构造时复制调用方的节点，之后不再变动。
type YieldCurve struct {
	terms []float64
	rates []float64
}

// NewYieldCurve 校验并构造收益率曲线。
func NewYieldCurve(points []CurvePoint) (*YieldCurve, error) {
	if len(points) == 0 {
		return nil, xerrors.ErrEmptyCurve
	}
	c := &YieldCurve{
		terms: make([]float64, len(points)),
		rates: make([]float64, len(points)),
	}
	for i, p := range points {
		if !algomath.IsFinite(p.Term, p.Rate) {
			return nil, xerrors.ErrNonFiniteInput.WithDetail("curve point %d: term=%v rate=%v", i, p.Term, p.Rate)
		}
		if i > 0 && p.Term <= points[i-1].Term {
			return nil, xerrors.ErrUnsortedCurve.WithDetail("term[%d]=%v after term[%d]=%v", i, p.Term, i-1, points[i-1].Term)
		}
		c.terms[i] = p.Term
		c.rates[i] = p.Rate
	}
	return c, nil
}

// Rate 在期限轴上线性插值。
// 超出节点范围时取最近端点的利率（平外推），这是建模上的简化，调用方应当知晓。
func (c *YieldCurve) Rate(t float64) float64 {
	n := len(c.terms)
	if t <= c.terms[0] {
		return c.rates[0]
	}
	if t >= c.terms[n-1] {
		return c.rates[n-1]
	}

	// 第一个 >= t 的节点，此时 0 < idx < n。
	idx := sort.SearchFloat64s(c.terms, t)
	if c.terms[idx] == t {
		return c.rates[idx]
	}
	t1, t2 := c.terms[idx-1], c.terms[idx]
	r1, r2 := c.rates[idx-1], c.rates[idx]
	return r1 + (r2-r1)*(t-t1)/(t2-t1)
}

// Extrapolated 报告 t 是否落在节点范围之外。
func (c *YieldCurve) Extrapolated(t float64) bool {
	return t < c.terms[0] || t > c.terms[len(c.terms)-1]
}

// DiscountFactor 市场贴现因子 e^(-r(t)·t)。
func (c *YieldCurve) DiscountFactor(t float64) float64 {
	return math.Exp(-c.Rate(t) * t)
}

// Points 返回节点副本。
func (c *YieldCurve) Points() []CurvePoint {
	out := make([]CurvePoint, len(c.terms))
	for i := range c.terms {
		out[i] = CurvePoint{Term: c.terms[i], Rate: c.rates[i]}
	}
	return out
}

// MaxRate 曲线上的最高利率。
func (c *YieldCurve) MaxRate() float64 {
	return slices.Max(c.rates)
}

// Len 节点个数。
func (c *YieldCurve) Len() int {
	return len(c.terms)
}
