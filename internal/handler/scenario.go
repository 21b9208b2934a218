package handler

import (
	"net/http"
	"strconv"

	"curve-desk/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// RunScenario godoc
// @Summary      Run a what-if scenario
// @Description  Applies yield and spread overrides to the latest Treasury curve and returns every derived output, including fitted curves
// @Tags         scenario
// @Accept       json
// @Produce      json
// @Param        override  body  domain.ScenarioOverride  true  "Overrides keyed by maturity label"
// @Success      200  {object}  analysis.Result
// @Failure      400  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/scenario [post]
func (h *Handler) RunScenario(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.run-scenario")
	defer span.End()

	var override domain.ScenarioOverride
	if err := c.ShouldBindJSON(&override); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scenario body: " + err.Error()})
		return
	}
	span.SetAttributes(
		attribute.Int("scenario.yields", len(override.Yields)),
		attribute.Int("scenario.spreads", len(override.Spreads)),
	)

	res, err := h.curveService.Analyze(ctx, override)
	if err != nil {
		writeError(c, span, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetScenarioHistory godoc
// @Summary      Recent scenarios
// @Description  Lists recently analysed scenarios, newest first
// @Tags         scenario
// @Produce      json
// @Param        limit  query  int  false  "Number of runs (default 20, max 100)"  default(20)
// @Success      200  {object}  map[string]interface{}
// @Security     ApiKeyAuth
// @Router       /api/scenario/history [get]
func (h *Handler) GetScenarioHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-scenario-history")
	defer span.End()

	limit := 20
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	runs, err := h.curveService.RecentScenarios(ctx, limit)
	if err != nil {
		writeError(c, span, err)
		return
	}
	if runs == nil {
		runs = []domain.ScenarioRun{}
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": runs})
}
