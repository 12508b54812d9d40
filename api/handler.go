// Package api 暴露 HTTP 接口：期权定价、Hull-White 利率与敞口模拟，统一使用 {code,msg,data} 响应。
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/quantrisk/risk"
	"github.com/wyfcoding/quantrisk/response"
	"github.com/wyfcoding/quantrisk/xerrors"
)

// Handler 将 HTTP 请求转发给 risk.Service。
// 错误通过 c.Error 登记，由 HTTPErrorHandler 中间件统一输出。
type Handler struct {
	svc *risk.Service
}

// NewHandler 创建 Handler。
func NewHandler(svc *risk.Service) *Handler {
	return &Handler{svc: svc}
}

// Register 在路由组上注册全部接口。
func (h *Handler) Register(g *gin.RouterGroup) {
	options := g.Group("/options")
	options.POST("/price", h.PriceOption)
	options.POST("/greeks", h.OptionGreeks)
	options.POST("/valuation", h.ValueOption)

	rates := g.Group("/rates")
	rates.GET("/curve", h.Curve)
	rates.POST("/zcb", h.BondPrice)
	rates.POST("/discount", h.DiscountCurve)
	rates.POST("/swap", h.SwapRate)

	g.POST("/xva/exposure", h.Exposure)
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		_ = c.Error(xerrors.ErrInvalidRequest.WithDetail("%v", err))
		return false
	}
	return true
}

// PriceOption POST /options/price
func (h *Handler) PriceOption(c *gin.Context) {
	var req OptionRequest
	if !bind(c, &req) {
		return
	}
	price, err := h.svc.PriceOption(c.Request.Context(), req.toRisk())
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, PriceResponse{Price: decimal.NewFromFloat(price)})
}

// OptionGreeks POST /options/greeks
func (h *Handler) OptionGreeks(c *gin.Context) {
	var req OptionRequest
	if !bind(c, &req) {
		return
	}
	g, err := h.svc.OptionGreeks(c.Request.Context(), req.toRisk())
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, g)
}

// ValueOption POST /options/valuation
func (h *Handler) ValueOption(c *gin.Context) {
	var req OptionRequest
	if !bind(c, &req) {
		return
	}
	v, err := h.svc.ValueOption(c.Request.Context(), req.toRisk())
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, ValuationResponse{Price: decimal.NewFromFloat(v.Price), Greeks: v.Greeks})
}

// Curve GET /rates/curve 返回当前加载的市场曲线。
func (h *Handler) Curve(c *gin.Context) {
	curve := h.svc.Curve()
	if curve == nil {
		_ = c.Error(xerrors.ErrCurveUnavailable)
		return
	}
	response.Success(c, curve.Points())
}

// BondPrice POST /rates/zcb
func (h *Handler) BondPrice(c *gin.Context) {
	var req BondRequest
	if !bind(c, &req) {
		return
	}
	q, err := h.svc.BondPrice(c.Request.Context(), req.ModelRequest.toRisk(), req.Maturity)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, newBondResponse(q))
}

// DiscountCurve POST /rates/discount
func (h *Handler) DiscountCurve(c *gin.Context) {
	var req DiscountCurveRequest
	if !bind(c, &req) {
		return
	}
	pts, err := h.svc.DiscountCurve(c.Request.Context(), req.ModelRequest.toRisk(), req.Terms)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, pts)
}

// SwapRate POST /rates/swap
func (h *Handler) SwapRate(c *gin.Context) {
	var req SwapRequest
	if !bind(c, &req) {
		return
	}
	q, err := h.svc.SwapRate(c.Request.Context(), req.ModelRequest.toRisk(), req.Maturity, req.Frequency)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, newSwapResponse(q))
}

// Exposure POST /xva/exposure
func (h *Handler) Exposure(c *gin.Context) {
	var req ExposureRequest
	if !bind(c, &req) {
		return
	}
	report, err := h.svc.Exposure(c.Request.Context(), req.toRisk())
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Success(c, newExposureResponse(report))
}
