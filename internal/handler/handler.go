package handler

import (
	"context"

	"curve-desk/internal/analysis"
	"curve-desk/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// CurveService is what the HTTP layer needs from the curve service.
type CurveService interface {
	Grid() *domain.Grid
	BaseSpreads() domain.SpreadTable
	Refresh(ctx context.Context) (domain.YieldVector, error)
	Analyze(ctx context.Context, override domain.ScenarioOverride) (*analysis.Result, error)
	Fit(ctx context.Context, method string, n int) (analysis.FitOutcome, error)
	Slope(ctx context.Context) (domain.SlopeIndicator, error)
	RecentScenarios(ctx context.Context, limit int) ([]domain.ScenarioRun, error)
}

type Handler struct {
	tracer       trace.Tracer
	curveService CurveService
	apiKey       string
	checks       map[string]HealthCheck
}

func New(tracer trace.Tracer, curveService CurveService, apiKey string) *Handler {
	return &Handler{
		tracer:       tracer,
		curveService: curveService,
		apiKey:       apiKey,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(h.apiKey))
	api.GET("/grid", h.GetGrid)
	api.GET("/curve", h.GetCurve)
	api.POST("/curve/refresh", h.RefreshCurve)
	api.GET("/curve/fit", h.GetFit)
	api.GET("/slope", h.GetSlope)
	api.POST("/scenario", h.RunScenario)
	api.GET("/scenario/history", h.GetScenarioHistory)
}
