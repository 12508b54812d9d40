package risk

import (
	"context"

	"github.com/wyfcoding/quantrisk/algorithm/finance"
	"github.com/wyfcoding/quantrisk/tracing"
	"github.com/wyfcoding/quantrisk/xerrors"
)

// ModelSpec 覆盖 Hull-White 默认参数，nil 字段沿用配置；Curve 非空时替代已加载的市场曲线。
type ModelSpec struct {
	R0    *float64
	A     *float64
	Sigma *float64
	Curve []finance.CurvePoint
}

// BondQuote 零息债报价。
type BondQuote struct {
	Maturity     float64 `json:"maturity"`
	Price        float64 `json:"price"`
	Extrapolated bool    `json:"extrapolated"` // 到期日超出曲线节点范围
}

// SwapQuote 互换报价。
type SwapQuote struct {
	Maturity     float64   `json:"maturity"`
	Frequency    float64   `json:"frequency"`
	Schedule     []float64 `json:"schedule"`
	FixedLeg     float64   `json:"fixed_leg"`
	FairRate     float64   `json:"fair_rate"`
	Extrapolated bool      `json:"extrapolated"` // 至少一个付息日超出曲线节点范围
}

// model 合并默认值与覆盖项后构造模型。
func (s *Service) model(spec ModelSpec) (*finance.HullWhiteModel, error) {
	params := s.Settings().HullWhite
	if spec.R0 != nil {
		params.R0 = *spec.R0
	}
	if spec.A != nil {
		params.A = *spec.A
	}
	if spec.Sigma != nil {
		params.Sigma = *spec.Sigma
	}

	curve := s.Curve()
	if len(spec.Curve) > 0 {
		c, err := finance.NewYieldCurve(spec.Curve)
		if err != nil {
			return nil, err
		}
		curve = c
	}
	if curve == nil {
		return nil, xerrors.ErrCurveUnavailable
	}
	return finance.NewHullWhiteModel(params, curve)
}

// BondPrice Hull-White 零息债价格 P(0,T)。
func (s *Service) BondPrice(ctx context.Context, spec ModelSpec, maturity float64) (q *BondQuote, err error) {
	ctx, done := s.begin(ctx, ComponentHullWhite, "zcb")
	defer func() { done(err) }()

	q, err = cached(ctx, s, s.cacheKey("hw.zcb", spec, maturity), func() (*BondQuote, error) {
		m, err := s.model(spec)
		if err != nil {
			return nil, err
		}
		p, err := m.ZeroCouponBondPrice(maturity)
		if err != nil {
			return nil, err
		}
		return &BondQuote{Maturity: maturity, Price: p, Extrapolated: m.Extrapolated(maturity)}, nil
	})
	if err == nil && q.Extrapolated {
		s.warnExtrapolated(ctx, "zcb", maturity)
	}
	return q, err
}

// DiscountCurve 在多个期限上批量计算零息债价格。
func (s *Service) DiscountCurve(ctx context.Context, spec ModelSpec, terms []float64) (pts []finance.DiscountPoint, err error) {
	ctx, done := s.begin(ctx, ComponentHullWhite, "discount_curve")
	defer func() { done(err) }()

	m, err := s.model(spec)
	if err != nil {
		return nil, err
	}
	pts, err = m.DiscountCurve(terms)
	if err != nil {
		return nil, err
	}
	for _, p := range pts {
		if p.Extrapolated {
			s.warnExtrapolated(ctx, "discount_curve", p.Term)
			break
		}
	}
	return pts, nil
}

// SwapRate 固定腿与平价互换利率，frequency 为 0 时使用配置的付息间隔。
func (s *Service) SwapRate(ctx context.Context, spec ModelSpec, maturity, frequency float64) (q *SwapQuote, err error) {
	ctx, done := s.begin(ctx, ComponentHullWhite, "swap")
	defer func() { done(err) }()

	if frequency == 0 {
		frequency = s.Settings().SwapFrequency
	}
	q, err = cached(ctx, s, s.cacheKey("hw.swap", spec, maturity, frequency), func() (*SwapQuote, error) {
		return s.swapQuote(spec, maturity, frequency)
	})
	if err == nil && q.Extrapolated {
		s.warnExtrapolated(ctx, "swap", maturity)
	}
	return q, err
}

func (s *Service) swapQuote(spec ModelSpec, maturity, frequency float64) (*SwapQuote, error) {
	m, err := s.model(spec)
	if err != nil {
		return nil, err
	}
	schedule, err := m.PaymentSchedule(maturity, frequency)
	if err != nil {
		return nil, err
	}
	leg, err := m.SwapFixedLeg(maturity, frequency)
	if err != nil {
		return nil, err
	}
	rate, err := m.SwapFairRate(maturity, frequency)
	if err != nil {
		return nil, err
	}
	return &SwapQuote{
		Maturity:     maturity,
		Frequency:    frequency,
		Schedule:     schedule,
		FixedLeg:     leg,
		FairRate:     rate,
		Extrapolated: m.Extrapolated(schedule[0]) || m.Extrapolated(maturity),
	}, nil
}

// warnExtrapolated 期限落在曲线节点之外时，结果依赖平外推的端点利率。
func (s *Service) warnExtrapolated(ctx context.Context, op string, term float64) {
	tracing.AddTag(ctx, "curve.extrapolated", true)
	s.logger.WarnContext(ctx, "curve rate extrapolated",
		"component", ComponentHullWhite,
		"operation", op,
		"term", term,
	)
}
