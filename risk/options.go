package risk

import (
	"context"

	"github.com/wyfcoding/quantrisk/algorithm/finance"
)

// OptionRequest 欧式期权参数，Kind 为空时使用默认类型。
type OptionRequest struct {
	Spot       float64 `json:"spot"`
	Strike     float64 `json:"strike"`
	Maturity   float64 `json:"maturity"`
	Rate       float64 `json:"rate"`
	Volatility float64 `json:"volatility"`
	Kind       string  `json:"kind,omitempty"`
}

func (s *Service) contract(req OptionRequest) (finance.OptionContract, error) {
	kind := s.Settings().DefaultKind
	if req.Kind != "" {
		k, err := finance.ParseOptionKind(req.Kind)
		if err != nil {
			return finance.OptionContract{}, err
		}
		kind = k
	}
	return finance.OptionContract{
		Spot:       req.Spot,
		Strike:     req.Strike,
		Maturity:   req.Maturity,
		Rate:       req.Rate,
		Volatility: req.Volatility,
		Kind:       kind,
	}, nil
}

// PriceOption Black-Scholes 价格。
func (s *Service) PriceOption(ctx context.Context, req OptionRequest) (price float64, err error) {
	ctx, done := s.begin(ctx, ComponentPricer, "price")
	defer func() { done(err) }()

	c, err := s.contract(req)
	if err != nil {
		return 0, err
	}
	return cached(ctx, s, s.cacheKey("bs.price", c), func() (float64, error) {
		return s.bsc.Price(c)
	})
}

// OptionGreeks 五个希腊字母。
func (s *Service) OptionGreeks(ctx context.Context, req OptionRequest) (g finance.Greeks, err error) {
	ctx, done := s.begin(ctx, ComponentPricer, "greeks")
	defer func() { done(err) }()

	c, err := s.contract(req)
	if err != nil {
		return finance.Greeks{}, err
	}
	return cached(ctx, s, s.cacheKey("bs.greeks", c), func() (finance.Greeks, error) {
		return s.bsc.Greeks(c)
	})
}

// ValueOption 价格与希腊字母。
func (s *Service) ValueOption(ctx context.Context, req OptionRequest) (v finance.Valuation, err error) {
	ctx, done := s.begin(ctx, ComponentPricer, "valuation")
	defer func() { done(err) }()

	c, err := s.contract(req)
	if err != nil {
		return finance.Valuation{}, err
	}
	return cached(ctx, s, s.cacheKey("bs.valuation", c), func() (finance.Valuation, error) {
		return s.bsc.Calculate(c)
	})
}
