package api

import (
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/quantrisk/algorithm/finance"
	"github.com/wyfcoding/quantrisk/algorithm/sim"
	"github.com/wyfcoding/quantrisk/risk"
)

// OptionRequest POST /options/* 请求体。
type OptionRequest struct {
	Spot       float64 `json:"spot"       binding:"required"`
	Strike     float64 `json:"strike"     binding:"required"`
	Maturity   float64 `json:"maturity"   binding:"required"`
	Rate       float64 `json:"rate"`
	Volatility float64 `json:"volatility" binding:"required"`
	Kind       string  `json:"kind"`
}

func (r OptionRequest) toRisk() risk.OptionRequest {
	return risk.OptionRequest{
		Spot:       r.Spot,
		Strike:     r.Strike,
		Maturity:   r.Maturity,
		Rate:       r.Rate,
		Volatility: r.Volatility,
		Kind:       r.Kind,
	}
}

// PriceResponse 期权价格。
type PriceResponse struct {
	Price decimal.Decimal `json:"price"`
}

// ValuationResponse 期权价格与希腊字母。
type ValuationResponse struct {
	Price  decimal.Decimal `json:"price"`
	Greeks finance.Greeks  `json:"greeks"`
}

// ModelRequest Hull-White 参数覆盖，省略的字段使用服务默认值。
type ModelRequest struct {
	R0    *float64             `json:"r0"`
	A     *float64             `json:"a"`
	Sigma *float64             `json:"sigma"`
	Curve []finance.CurvePoint `json:"curve" binding:"omitempty,dive"`
}

func (r ModelRequest) toRisk() risk.ModelSpec {
	return risk.ModelSpec{R0: r.R0, A: r.A, Sigma: r.Sigma, Curve: r.Curve}
}

// BondRequest POST /rates/zcb 请求体。
type BondRequest struct {
	ModelRequest
	Maturity float64 `json:"maturity"`
}

// BondResponse 零息债价格，extrapolated 表示到期日超出曲线节点范围。
type BondResponse struct {
	Maturity     float64         `json:"maturity"`
	Price        decimal.Decimal `json:"price"`
	Extrapolated bool            `json:"extrapolated"`
}

func newBondResponse(q *risk.BondQuote) BondResponse {
	return BondResponse{
		Maturity:     q.Maturity,
		Price:        decimal.NewFromFloat(q.Price),
		Extrapolated: q.Extrapolated,
	}
}

// DiscountCurveRequest POST /rates/discount 请求体。
type DiscountCurveRequest struct {
	ModelRequest
	Terms []float64 `json:"terms" binding:"required,min=1,max=1000"`
}

// SwapRequest POST /rates/swap 请求体，frequency 省略时使用默认付息间隔。
type SwapRequest struct {
	ModelRequest
	Maturity  float64 `json:"maturity"  binding:"required"`
	Frequency float64 `json:"frequency"`
}

// SwapResponse 互换报价。
type SwapResponse struct {
	Maturity  float64         `json:"maturity"`
	Frequency float64         `json:"frequency"`
	Schedule  []float64       `json:"schedule"`
	FixedLeg  decimal.Decimal `json:"fixed_leg"`
	FairRate  decimal.Decimal `json:"fair_rate"`

	Extrapolated bool `json:"extrapolated"`
}

func newSwapResponse(q *risk.SwapQuote) SwapResponse {
	return SwapResponse{
		Maturity:  q.Maturity,
		Frequency: q.Frequency,
		Schedule:  q.Schedule,
		FixedLeg:  decimal.NewFromFloat(q.FixedLeg),
		FairRate:  decimal.NewFromFloat(q.FairRate),

		Extrapolated: q.Extrapolated,
	}
}

// ExposureRequest POST /xva/exposure 请求体。
type ExposureRequest struct {
	S0               float64 `json:"s0"                 binding:"required"`
	Rate             float64 `json:"rate"`
	Sigma            float64 `json:"sigma"`
	Horizon          float64 `json:"horizon"            binding:"required"`
	Steps            int     `json:"steps"              binding:"required"`
	Paths            int     `json:"paths"              binding:"required"`
	LossGivenDefault float64 `json:"loss_given_default"`
	CreditSpread     float64 `json:"credit_spread"`
	Quantile         float64 `json:"quantile"`
	Seed             *uint64 `json:"seed"`
}

func (r ExposureRequest) toRisk() risk.ExposureRequest {
	return risk.ExposureRequest{
		S0:               r.S0,
		Rate:             r.Rate,
		Sigma:            r.Sigma,
		Horizon:          r.Horizon,
		Steps:            r.Steps,
		Paths:            r.Paths,
		LossGivenDefault: r.LossGivenDefault,
		CreditSpread:     r.CreditSpread,
		Quantile:         r.Quantile,
		Seed:             r.Seed,
	}
}

// ExposureResponse 敞口报告，剖面按时间网格对齐。
type ExposureResponse struct {
	TimeGrid []float64              `json:"time_grid"`
	Expected []float64              `json:"expected_exposure"`
	PFE      []float64              `json:"pfe"`
	Quantile float64                `json:"quantile"`
	CVA      decimal.Decimal        `json:"cva"`
	Terminal sim.TerminalStatistics `json:"terminal"`
}

func newExposureResponse(r *sim.ExposureReport) ExposureResponse {
	return ExposureResponse{
		TimeGrid: r.TimeGrid,
		Expected: r.Expected,
		PFE:      r.PFE,
		Quantile: r.Quantile,
		CVA:      decimal.NewFromFloat(r.CVA),
		Terminal: r.Terminal,
	}
}
