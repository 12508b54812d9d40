package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/wyfcoding/quantrisk/algorithm/finance"
	"github.com/wyfcoding/quantrisk/algorithm/sim"
	"github.com/wyfcoding/quantrisk/risk"
)

// 估值摘要使用的样例参数。
var (
	sampleOption = risk.OptionRequest{
		Spot:       100,
		Strike:     100,
		Maturity:   1,
		Rate:       0.05,
		Volatility: 0.2,
		Kind:       string(finance.OptionCall),
	}
	sampleExposure = risk.ExposureRequest{
		S0:               100,
		Rate:             0.05,
		Sigma:            0.2,
		Horizon:          1,
		Steps:            30,
		Paths:            500,
		LossGivenDefault: 0.6,
		CreditSpread:     0.01,
	}
	ladderStrikes = []float64{50, 60, 70, 80, 90, 100, 110, 120, 130, 140, 150}
	swapMaturity  = 5.0
)

// GreeksRung 某一执行价上的希腊字母。
type GreeksRung struct {
	Strike float64        `json:"strike"`
	Greeks finance.Greeks `json:"greeks"`
}

// RatesSummary 曲线与 Hull-White 结果，曲线未加载时为空。
type RatesSummary struct {
	Curve    []finance.CurvePoint    `json:"curve"`
	Discount []finance.DiscountPoint `json:"discount"`
	Swap     *risk.SwapQuote         `json:"swap"`
}

// Summary -once 模式输出的估值摘要。
type Summary struct {
	Option   risk.OptionRequest   `json:"option"`
	Value    finance.Valuation    `json:"valuation"`
	Ladder   []GreeksRung         `json:"greeks_ladder"`
	Rates    *RatesSummary        `json:"rates,omitempty"`
	Exposure *sim.ExposureReport  `json:"exposure"`
	Inputs   risk.ExposureRequest `json:"exposure_inputs"`
}

func buildSummary(ctx context.Context, svc *risk.Service) (*Summary, error) {
	value, err := svc.ValueOption(ctx, sampleOption)
	if err != nil {
		return nil, err
	}

	ladder := make([]GreeksRung, 0, len(ladderStrikes))
	for _, k := range ladderStrikes {
		req := sampleOption
		req.Strike = k
		g, err := svc.OptionGreeks(ctx, req)
		if err != nil {
			return nil, err
		}
		ladder = append(ladder, GreeksRung{Strike: k, Greeks: g})
	}

	rates, err := buildRates(ctx, svc)
	if err != nil {
		return nil, err
	}

	report, err := svc.Exposure(ctx, sampleExposure)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Option:   sampleOption,
		Value:    value,
		Ladder:   ladder,
		Rates:    rates,
		Exposure: report,
		Inputs:   sampleExposure,
	}, nil
}

func buildRates(ctx context.Context, svc *risk.Service) (*RatesSummary, error) {
	curve := svc.Curve()
	if curve == nil {
		return nil, nil
	}
	points := curve.Points()
	terms := make([]float64, len(points))
	for i, p := range points {
		terms[i] = p.Term
	}

	discount, err := svc.DiscountCurve(ctx, risk.ModelSpec{}, terms)
	if err != nil {
		return nil, err
	}
	swap, err := svc.SwapRate(ctx, risk.ModelSpec{}, swapMaturity, 0)
	if err != nil {
		return nil, err
	}
	return &RatesSummary{Curve: points, Discount: discount, Swap: swap}, nil
}

// writeSummary 以缩进 JSON 写出估值摘要。
func writeSummary(ctx context.Context, svc *risk.Service, w io.Writer) error {
	s, err := buildSummary(ctx, svc)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
