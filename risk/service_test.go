package risk

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/quantrisk/algorithm/finance"
	"github.com/wyfcoding/quantrisk/cache"
	"github.com/wyfcoding/quantrisk/logging"
	"github.com/wyfcoding/quantrisk/metrics"
	"github.com/wyfcoding/quantrisk/xerrors"
)

func testSettings() Settings {
	return Settings{
		DefaultKind:   finance.OptionCall,
		HullWhite:     finance.HullWhiteParams{R0: 0.02, A: 0.1, Sigma: 0.01},
		SwapFrequency: 1,
		Workers:       2,
		MaxPathSteps:  1_000_000,
		DefaultSeed:   7,
		PFEQuantile:   0.95,
	}
}

func testCurve(t *testing.T) *finance.YieldCurve {
	t.Helper()
	c, err := finance.NewYieldCurve([]finance.CurvePoint{
		{Term: 1, Rate: 0.02},
		{Term: 2, Rate: 0.025},
		{Term: 3, Rate: 0.03},
		{Term: 5, Rate: 0.035},
	})
	require.NoError(t, err)
	return c
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	m := metrics.NewMetrics("quantrisk_test")
	return NewService(testSettings(), append([]Option{WithCurve(testCurve(t)), WithMetrics(m)}, opts...)...)
}

func TestPriceOptionUsesDefaultKind(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	req := OptionRequest{Spot: 100, Strike: 100, Maturity: 1, Rate: 0.05, Volatility: 0.2}

	call, err := s.PriceOption(ctx, req)
	require.NoError(t, err)
	assert.InDelta(t, 10.450583572185565, call, 1e-9)

	req.Kind = "put"
	put, err := s.PriceOption(ctx, req)
	require.NoError(t, err)
	assert.InDelta(t, 5.573526022256971, put, 1e-9)

	req.Kind = "butterfly"
	_, err = s.PriceOption(ctx, req)
	assert.ErrorIs(t, err, xerrors.ErrInvalidOptionKind)
}

func TestOptionGreeksAndValuation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	req := OptionRequest{Spot: 100, Strike: 100, Maturity: 1, Rate: 0.05, Volatility: 0.2, Kind: "call"}

	g, err := s.OptionGreeks(ctx, req)
	require.NoError(t, err)
	assert.InDelta(t, 0.6368306511756191, g.Delta, 1e-8)

	v, err := s.ValueOption(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, g, v.Greeks)

	req.Volatility = 0
	_, err = s.OptionGreeks(ctx, req)
	assert.ErrorIs(t, err, xerrors.ErrNonPositiveVolatility)
}

func TestBondPriceAndOverrides(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	q, err := s.BondPrice(ctx, ModelSpec{}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.958204039519396, q.Price, 1e-12)
	assert.Equal(t, 2.0, q.Maturity)
	assert.False(t, q.Extrapolated)

	zero := 0.0
	flat, err := s.BondPrice(ctx, ModelSpec{
		Sigma: &zero,
		Curve: []finance.CurvePoint{{Term: 1, Rate: 0.03}},
	}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.9417645335842487, flat.Price, 1e-12)
	assert.True(t, flat.Extrapolated)

	neg := -0.1
	_, err = s.BondPrice(ctx, ModelSpec{A: &neg}, 2)
	assert.ErrorIs(t, err, xerrors.ErrNonPositiveMeanReversion)

	_, err = s.BondPrice(ctx, ModelSpec{Curve: []finance.CurvePoint{{Term: 2}, {Term: 1}}}, 2)
	assert.ErrorIs(t, err, xerrors.ErrUnsortedCurve)
}

func TestBondPriceWithoutCurve(t *testing.T) {
	s := NewService(testSettings())
	_, err := s.BondPrice(context.Background(), ModelSpec{}, 2)
	assert.ErrorIs(t, err, xerrors.ErrCurveUnavailable)
	assert.True(t, xerrors.IsType(err, xerrors.ErrUnavailable))

	s.UpdateCurve(testCurve(t))
	_, err = s.BondPrice(context.Background(), ModelSpec{}, 2)
	assert.NoError(t, err)
}

func TestSwapRate(t *testing.T) {
	s := newTestService(t)

	q, err := s.SwapRate(context.Background(), ModelSpec{}, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, q.Frequency)
	assert.Equal(t, []float64{1, 2, 3}, q.Schedule)
	assert.InDelta(t, 0.9550101987138574, q.FixedLeg, 1e-12)
	assert.InDelta(t, 0.08124108443681013, q.FairRate, 1e-12)

	_, err = s.SwapRate(context.Background(), ModelSpec{}, 3, -1)
	assert.ErrorIs(t, err, xerrors.ErrInvalidFrequency)
}

func TestDiscountCurve(t *testing.T) {
	s := newTestService(t)
	pts, err := s.DiscountCurve(context.Background(), ModelSpec{}, []float64{1, 2, 3})
	require.NoError(t, err)
	require.Len(t, pts, 3)
	assert.InDelta(t, 0.9224139358082727, pts[2].Price, 1e-12)
}

func exposureRequest() ExposureRequest {
	return ExposureRequest{
		S0: 0.1, Rate: 0.02, Sigma: 0.2, Horizon: 1,
		Steps: 52, Paths: 500,
		LossGivenDefault: 0.6, CreditSpread: 0.01,
	}
}

func TestExposureAppliesDefaults(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	a, err := s.Exposure(ctx, exposureRequest())
	require.NoError(t, err)
	assert.Equal(t, 0.95, a.Quantile)
	assert.Len(t, a.Expected, 53)
	assert.Equal(t, 0.1, a.Expected[0])
	assert.Greater(t, a.CVA, 0.0)

	// 默认种子固定，结果逐位一致。
	b, err := s.Exposure(ctx, exposureRequest())
	require.NoError(t, err)
	assert.Equal(t, a.Expected, b.Expected)
	assert.Equal(t, a.CVA, b.CVA)

	req := exposureRequest()
	seed := uint64(99)
	req.Seed = &seed
	req.Quantile = 0.99
	c, err := s.Exposure(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 0.99, c.Quantile)
	assert.NotEqual(t, a.Expected, c.Expected)
}

func TestExposureRejections(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	req := exposureRequest()
	req.Paths = 100_000
	_, err := s.Exposure(ctx, req)
	assert.ErrorIs(t, err, xerrors.ErrSimulationTooLarge)
	assert.True(t, xerrors.IsType(err, xerrors.ErrLimitExceeded))

	req = exposureRequest()
	req.Steps = 0
	_, err = s.Exposure(ctx, req)
	assert.ErrorIs(t, err, xerrors.ErrInvalidSteps)

	req = exposureRequest()
	req.LossGivenDefault = 1.5
	_, err = s.Exposure(ctx, req)
	assert.ErrorIs(t, err, xerrors.ErrInvalidLGD)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Exposure(cancelled, exposureRequest())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExposureConcurrencyLimit(t *testing.T) {
	s := newTestService(t, WithMaxConcurrent(1))

	require.True(t, s.sem.TryAcquire())
	_, err := s.Exposure(context.Background(), exposureRequest())
	assert.ErrorIs(t, err, xerrors.ErrSimulationBusy)
	s.sem.Release()

	_, err = s.Exposure(context.Background(), exposureRequest())
	assert.NoError(t, err)
	assert.Equal(t, 0, s.sem.InUse())
}

func TestConcurrentRequests(t *testing.T) {
	s := newTestService(t, WithMaxConcurrent(0))
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]float64, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := s.Exposure(ctx, exposureRequest())
			assert.NoError(t, err)
			if err == nil {
				results[i] = r.CVA
			}
		}(i)
	}
	wg.Wait()
	for _, v := range results[1:] {
		assert.Equal(t, results[0], v)
	}
}

func TestUpdateSettings(t *testing.T) {
	s := newTestService(t)
	settings := s.Settings()
	settings.DefaultKind = finance.OptionPut
	s.UpdateSettings(settings)

	p, err := s.PriceOption(context.Background(), OptionRequest{Spot: 100, Strike: 100, Maturity: 1, Rate: 0.05, Volatility: 0.2})
	require.NoError(t, err)
	assert.InDelta(t, 5.573526022256971, p, 1e-9)
}

func TestResultCache(t *testing.T) {
	c, err := cache.NewBigCache(time.Minute, 4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	s := newTestService(t, WithCache(c))
	ctx := context.Background()
	req := OptionRequest{Spot: 100, Strike: 100, Maturity: 1, Rate: 0.05, Volatility: 0.2}

	first, err := s.PriceOption(ctx, req)
	require.NoError(t, err)
	second, err := s.PriceOption(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), c.Stats().Hits)

	q1, err := s.SwapRate(ctx, ModelSpec{}, 3, 1)
	require.NoError(t, err)
	q2, err := s.SwapRate(ctx, ModelSpec{}, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, q1, q2)
	assert.Equal(t, int64(2), c.Stats().Hits)

	// 失败结果不缓存。
	req.Volatility = 0
	_, err = s.PriceOption(ctx, req)
	assert.ErrorIs(t, err, xerrors.ErrNonPositiveVolatility)
	_, err = s.PriceOption(ctx, req)
	assert.ErrorIs(t, err, xerrors.ErrNonPositiveVolatility)

	// 换曲线后不得返回旧结果。
	p1, err := s.BondPrice(ctx, ModelSpec{}, 2)
	require.NoError(t, err)
	flat, err := finance.NewYieldCurve([]finance.CurvePoint{{Term: 1, Rate: 0.05}})
	require.NoError(t, err)
	s.UpdateCurve(flat)
	p2, err := s.BondPrice(ctx, ModelSpec{}, 2)
	require.NoError(t, err)
	assert.NotEqual(t, p1.Price, p2.Price)
	assert.Equal(t, 1, c.Stats().Entries)
}

func TestExtrapolationIsReported(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(logging.Config{Service: "quantrisk", Module: "risk", Level: "warn"}, &buf)
	s := NewService(testSettings(), WithCurve(testCurve(t)), WithLogger(logger))
	ctx := context.Background()

	q, err := s.BondPrice(ctx, ModelSpec{}, 4)
	require.NoError(t, err)
	assert.False(t, q.Extrapolated)
	assert.NotContains(t, buf.String(), "curve rate extrapolated")

	q, err = s.BondPrice(ctx, ModelSpec{}, 10)
	require.NoError(t, err)
	assert.True(t, q.Extrapolated)
	assert.Contains(t, buf.String(), "curve rate extrapolated")

	swap, err := s.SwapRate(ctx, ModelSpec{}, 3, 1)
	require.NoError(t, err)
	assert.False(t, swap.Extrapolated)

	// 首个付息日 0.5 年早于第一个节点。
	swap, err = s.SwapRate(ctx, ModelSpec{}, 3, 0.5)
	require.NoError(t, err)
	assert.True(t, swap.Extrapolated)

	swap, err = s.SwapRate(ctx, ModelSpec{}, 7, 1)
	require.NoError(t, err)
	assert.True(t, swap.Extrapolated)

	pts, err := s.DiscountCurve(ctx, ModelSpec{}, []float64{1, 5, 6})
	require.NoError(t, err)
	assert.False(t, pts[1].Extrapolated)
	assert.True(t, pts[2].Extrapolated)
	assert.Contains(t, buf.String(), `"operation":"discount_curve"`)
}
