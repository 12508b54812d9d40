package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/quantrisk/algorithm/finance"
	"github.com/wyfcoding/quantrisk/health"
	"github.com/wyfcoding/quantrisk/limiter"
	"github.com/wyfcoding/quantrisk/logging"
	"github.com/wyfcoding/quantrisk/metrics"
	"github.com/wyfcoding/quantrisk/risk"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope[T any] struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Data   T      `json:"data"`
	Detail string `json:"detail"`
}

func newTestRouter(t *testing.T, curve bool, l limiter.Limiter) (*gin.Engine, *risk.Service) {
	t.Helper()
	m := metrics.NewMetrics("quantrisk")
	opts := []risk.Option{risk.WithMaxConcurrent(2), risk.WithMetrics(m)}
	if curve {
		c, err := finance.NewYieldCurve([]finance.CurvePoint{
			{Term: 1, Rate: 0.02},
			{Term: 2, Rate: 0.025},
			{Term: 3, Rate: 0.03},
			{Term: 5, Rate: 0.035},
		})
		require.NoError(t, err)
		opts = append(opts, risk.WithCurve(c))
	}
	svc := risk.NewService(risk.Settings{
		DefaultKind:   finance.OptionCall,
		HullWhite:     finance.HullWhiteParams{R0: 0.02, A: 0.1, Sigma: 0.01},
		SwapFrequency: 1,
		MaxPathSteps:  100_000,
		DefaultSeed:   42,
		PFEQuantile:   0.95,
	}, opts...)

	hr := health.NewRegistry(0)
	hr.Register("yield_curve", health.ValueChecker("yield curve", svc.Curve))

	r := NewRouter(svc, RouterOptions{
		ServiceName:  "quantrisk",
		Logger:       logging.NewWithWriter(logging.Config{Service: "quantrisk", Module: "api"}, io.Discard),
		Metrics:      m,
		MetricsPath:  "/metrics",
		Limiter:      l,
		Health:       hr,
		MaxBodyBytes: 1 << 16,
	})
	return r, svc
}

func post(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

var atm = map[string]any{"spot": 100, "strike": 100, "maturity": 1, "rate": 0.05, "volatility": 0.2}

func TestPriceOption(t *testing.T) {
	r, _ := newTestRouter(t, true, nil)

	w := post(r, "/api/v1/options/price", atm)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decode[PriceResponse](t, w)
	assert.Equal(t, 0, env.Code)
	assert.InDelta(t, 10.450583572185565, env.Data.Price.InexactFloat64(), 1e-12)

	put := map[string]any{"kind": "put"}
	for k, v := range atm {
		put[k] = v
	}
	env = decode[PriceResponse](t, post(r, "/api/v1/options/price", put))
	assert.True(t, env.Data.Price.Sub(decimal.NewFromFloat(5.573526022256971)).Abs().LessThan(decimal.New(1, -9)))
}

func TestOptionGreeksAndValuation(t *testing.T) {
	r, _ := newTestRouter(t, true, nil)

	w := post(r, "/api/v1/options/greeks", atm)
	require.Equal(t, http.StatusOK, w.Code)
	g := decode[finance.Greeks](t, w).Data
	assert.InDelta(t, 0.6368306511756191, g.Delta, 1e-8)
	assert.InDelta(t, 0.3752403469169379, g.Vega, 1e-8)

	w = post(r, "/api/v1/options/valuation", atm)
	require.Equal(t, http.StatusOK, w.Code)
	v := decode[ValuationResponse](t, w).Data
	assert.Equal(t, g, v.Greeks)
	assert.InDelta(t, 10.450583572185565, v.Price.InexactFloat64(), 1e-12)
}

func TestOptionValidationErrors(t *testing.T) {
	r, _ := newTestRouter(t, true, nil)

	// 缺少必填字段，由 binding 拒绝。
	w := post(r, "/api/v1/options/price", map[string]any{"strike": 100, "maturity": 1, "volatility": 0.2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 400100, decode[any](t, w).Code)

	bad := map[string]any{"spot": 100, "strike": 100, "maturity": 1, "volatility": -0.2}
	w = post(r, "/api/v1/options/price", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 400105, decode[any](t, w).Code)

	bad = map[string]any{"spot": 100, "strike": 100, "maturity": 1, "volatility": 0.2, "kind": "digital"}
	w = post(r, "/api/v1/options/greeks", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 400101, decode[any](t, w).Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/options/price", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRatesEndpoints(t *testing.T) {
	r, _ := newTestRouter(t, true, nil)

	w := post(r, "/api/v1/rates/zcb", map[string]any{"maturity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	bond := decode[BondResponse](t, w).Data
	assert.InDelta(t, 0.958204039519396, bond.Price.InexactFloat64(), 1e-12)
	assert.False(t, bond.Extrapolated)

	w = post(r, "/api/v1/rates/zcb", map[string]any{"maturity": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[BondResponse](t, w).Data.Price.Equal(decimal.NewFromInt(1)))

	w = post(r, "/api/v1/rates/swap", map[string]any{"maturity": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	swap := decode[SwapResponse](t, w).Data
	assert.Equal(t, []float64{1, 2, 3}, swap.Schedule)
	assert.InDelta(t, 0.08124108443681013, swap.FairRate.InexactFloat64(), 1e-12)
	assert.InDelta(t, 0.9550101987138574, swap.FixedLeg.InexactFloat64(), 1e-12)
	assert.False(t, swap.Extrapolated)

	w = post(r, "/api/v1/rates/discount", map[string]any{"terms": []float64{1, 2, 3}})
	require.Equal(t, http.StatusOK, w.Code)
	pts := decode[[]finance.DiscountPoint](t, w).Data
	require.Len(t, pts, 3)

	w = post(r, "/api/v1/rates/zcb", map[string]any{"maturity": 2, "a": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 400107, decode[any](t, w).Code)

	w = post(r, "/api/v1/rates/swap", map[string]any{"maturity": 3, "frequency": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 400111, decode[any](t, w).Code)

	w = get(r, "/api/v1/rates/curve")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]finance.CurvePoint](t, w).Data, 4)
}

func TestRatesBeyondCurveAreFlagged(t *testing.T) {
	r, _ := newTestRouter(t, true, nil)

	// 曲线最后一个节点为 5 年。
	w := post(r, "/api/v1/rates/zcb", map[string]any{"maturity": 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	bond := decode[BondResponse](t, w).Data
	assert.True(t, bond.Extrapolated)
	assert.Equal(t, 10.0, bond.Maturity)
	assert.True(t, bond.Price.IsPositive())

	w = post(r, "/api/v1/rates/swap", map[string]any{"maturity": 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[SwapResponse](t, w).Data.Extrapolated)

	w = post(r, "/api/v1/rates/discount", map[string]any{"terms": []float64{2, 5, 10}})
	require.Equal(t, http.StatusOK, w.Code)
	pts := decode[[]finance.DiscountPoint](t, w).Data
	require.Len(t, pts, 3)
	assert.False(t, pts[0].Extrapolated)
	assert.False(t, pts[1].Extrapolated)
	assert.True(t, pts[2].Extrapolated)
}

func TestRatesWithoutCurve(t *testing.T) {
	r, svc := newTestRouter(t, false, nil)

	w := post(r, "/api/v1/rates/zcb", map[string]any{"maturity": 2})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 503101, decode[any](t, w).Code)

	assert.Equal(t, http.StatusServiceUnavailable, get(r, HealthPath).Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(r, "/api/v1/rates/curve").Code)

	// 请求自带曲线时不依赖默认曲线。
	w = post(r, "/api/v1/rates/zcb", map[string]any{
		"maturity": 2,
		"sigma":    0,
		"curve":    []map[string]float64{{"term": 1, "rate": 0.03}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.InDelta(t, 0.9417645335842487, decode[BondResponse](t, w).Data.Price.InexactFloat64(), 1e-12)

	c, err := finance.NewYieldCurve([]finance.CurvePoint{{Term: 1, Rate: 0.03}})
	require.NoError(t, err)
	svc.UpdateCurve(c)
	assert.Equal(t, http.StatusOK, get(r, HealthPath).Code)
}

func exposureBody() map[string]any {
	return map[string]any{
		"s0": 0.1, "rate": 0.02, "sigma": 0.2, "horizon": 1,
		"steps": 12, "paths": 400,
		"loss_given_default": 0.6, "credit_spread": 0.01,
	}
}

func TestExposure(t *testing.T) {
	r, _ := newTestRouter(t, true, nil)

	w := post(r, "/api/v1/xva/exposure", exposureBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rep := decode[ExposureResponse](t, w).Data
	assert.Len(t, rep.TimeGrid, 13)
	assert.Len(t, rep.Expected, 13)
	assert.Len(t, rep.PFE, 13)
	assert.Equal(t, 0.1, rep.Expected[0])
	assert.Equal(t, 0.95, rep.Quantile)
	assert.True(t, rep.CVA.IsPositive())

	// 默认种子固定，两次请求结果一致。
	again := decode[ExposureResponse](t, post(r, "/api/v1/xva/exposure", exposureBody())).Data
	assert.Equal(t, rep.Expected, again.Expected)
	assert.True(t, rep.CVA.Equal(again.CVA))
}

func TestExposureRejections(t *testing.T) {
	r, _ := newTestRouter(t, true, nil)

	body := exposureBody()
	body["paths"] = 50_000
	w := post(r, "/api/v1/xva/exposure", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 429101, decode[any](t, w).Code)

	body = exposureBody()
	body["loss_given_default"] = 2
	w = post(r, "/api/v1/xva/exposure", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 400116, decode[any](t, w).Code)

	body = exposureBody()
	delete(body, "steps")
	w = post(r, "/api/v1/xva/exposure", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 400100, decode[any](t, w).Code)
}

func TestSystemRoutesAndRateLimit(t *testing.T) {
	r, _ := newTestRouter(t, true, limiter.NewDynamicLocalLimiter(1, 3))

	require.Equal(t, http.StatusOK, post(r, "/api/v1/options/price", atm).Code)
	assert.Equal(t, http.StatusOK, get(r, HealthPath).Code)

	w := get(r, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `http_server_requests_total{method="POST",path="/api/v1/options/price",status="200"} 1`)
	assert.Contains(t, body, "quantrisk_calculations_total")

	// 令牌桶已被前三个请求耗尽。
	assert.Equal(t, http.StatusTooManyRequests, post(r, "/api/v1/options/price", atm).Code)
}

func TestRequestIDHeader(t *testing.T) {
	r, _ := newTestRouter(t, true, nil)
	w := post(r, "/api/v1/options/price", atm)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
