package handler

import (
	"net/http"
	"strconv"
	"time"

	"curve-desk/internal/curve"
	"curve-desk/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultFitPoints = 200
	maxFitPoints     = 2000
)

// CurveResponse is the latest curve set without fitted samples.
type CurveResponse struct {
	AsOf           time.Time             `json:"as_of"`
	Treasury       domain.YieldVector    `json:"treasury"`
	Corporate      domain.YieldVector    `json:"corporate"`
	SpreadCurve    domain.YieldVector    `json:"spread_curve"`
	Slope          domain.SlopeIndicator `json:"slope"`
	CorporateSlope domain.SlopeIndicator `json:"corporate_slope"`
}

// SlopeResponse is the 10Y-2Y indicator with its regime label.
type SlopeResponse struct {
	domain.SlopeIndicator
	Regime string `json:"regime"`
}

// GetGrid godoc
// @Summary      Maturity grid
// @Description  Returns the maturity grid and the base credit-spread table
// @Tags         curve
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     ApiKeyAuth
// @Router       /api/grid [get]
func (h *Handler) GetGrid(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-grid")
	defer span.End()

	c.JSON(http.StatusOK, gin.H{
		"maturities":   h.curveService.Grid().Points(),
		"spread_table": h.curveService.BaseSpreads(),
		"fit_methods":  curve.Methods(),
	})
}

// GetCurve godoc
// @Summary      Latest curves
// @Description  Returns the latest Treasury curve with the synthetic corporate curve, the spread curve and the 10Y-2Y slope
// @Tags         curve
// @Produce      json
// @Success      200  {object}  CurveResponse
// @Failure      422  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/curve [get]
func (h *Handler) GetCurve(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-curve")
	defer span.End()

	res, err := h.curveService.Analyze(ctx, domain.ScenarioOverride{})
	if err != nil {
		writeError(c, span, err)
		return
	}

	c.JSON(http.StatusOK, CurveResponse{
		AsOf:           res.Treasury.AsOf,
		Treasury:       res.Treasury,
		Corporate:      res.Corporate,
		SpreadCurve:    res.SpreadCurve,
		Slope:          res.Slope,
		CorporateSlope: res.CorporateSlope,
	})
}

// RefreshCurve godoc
// @Summary      Refresh the Treasury curve
// @Description  Fetches the latest Treasury yields from FRED, bypassing the cache
// @Tags         curve
// @Produce      json
// @Success      200  {object}  domain.YieldVector
// @Failure      422  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/curve/refresh [post]
func (h *Handler) RefreshCurve(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.refresh-curve")
	defer span.End()

	v, err := h.curveService.Refresh(ctx)
	if err != nil {
		writeError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// GetFit godoc
// @Summary      Fitted Treasury curve
// @Description  Fits the latest Treasury curve and returns evenly spaced samples between the shortest and longest maturity
// @Tags         curve
// @Produce      json
// @Param        method  query  string  false  "Fit method (spline, nelson_siegel)"  default(spline)
// @Param        points  query  int     false  "Number of samples (2-2000)"  default(200)
// @Success      200  {object}  analysis.FitOutcome
// @Failure      400  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/curve/fit [get]
func (h *Handler) GetFit(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-fit")
	defer span.End()

	method := c.DefaultQuery("method", string(curve.Spline))
	points := defaultFitPoints
	if p := c.Query("points"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 2 || n > maxFitPoints {
			c.JSON(http.StatusBadRequest, gin.H{"error": "points must be an integer between 2 and 2000"})
			return
		}
		points = n
	}
	span.SetAttributes(attribute.String("fit.method", method), attribute.Int("fit.points", points))

	out, err := h.curveService.Fit(ctx, method, points)
	if err != nil {
		writeError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetSlope godoc
// @Summary      10Y-2Y slope
// @Description  Returns the 10Y minus 2Y Treasury spread and whether the curve is inverted
// @Tags         curve
// @Produce      json
// @Success      200  {object}  SlopeResponse
// @Failure      502  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/slope [get]
func (h *Handler) GetSlope(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-slope")
	defer span.End()

	slope, err := h.curveService.Slope(ctx)
	if err != nil {
		writeError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, SlopeResponse{SlopeIndicator: slope, Regime: slope.Regime()})
}
