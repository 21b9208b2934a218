package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"curve-desk/internal/analysis"
	"curve-desk/internal/curve"
	"curve-desk/internal/domain"
	"curve-desk/internal/scenario"
	"curve-desk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func treasury(t *testing.T) domain.YieldVector {
	t.Helper()
	v, err := domain.NewYieldVector(domain.DefaultGrid, domain.KindTreasury, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), map[string]float64{
		"3M": 4.31, "6M": 4.27, "1Y": 4.1, "2Y": 4.2, "3Y": 4.0,
		"5Y": 4.08, "7Y": 4.18, "10Y": 4.0, "20Y": 4.65, "30Y": 4.62,
	})
	require.NoError(t, err)
	return v
}

type fakeCurveService struct {
	base         domain.YieldVector
	err          error
	lastOverride domain.ScenarioOverride
	lastMethod   string
	lastPoints   int
	runs         []domain.ScenarioRun
}

func (f *fakeCurveService) Grid() *domain.Grid { return domain.DefaultGrid }

func (f *fakeCurveService) BaseSpreads() domain.SpreadTable { return domain.DefaultSpreadTable() }

func (f *fakeCurveService) Refresh(ctx context.Context) (domain.YieldVector, error) {
	if f.err != nil {
		return domain.YieldVector{}, f.err
	}
	return f.base, nil
}

func (f *fakeCurveService) Analyze(ctx context.Context, override domain.ScenarioOverride) (*analysis.Result, error) {
	f.lastOverride = override
	if f.err != nil {
		return nil, f.err
	}
	return analysis.New(domain.DefaultGrid, analysis.Options{SamplePoints: 20}).Run(f.base, domain.DefaultSpreadTable(), override)
}

func (f *fakeCurveService) Fit(ctx context.Context, method string, n int) (analysis.FitOutcome, error) {
	f.lastMethod, f.lastPoints = method, n
	if f.err != nil {
		return analysis.FitOutcome{}, f.err
	}
	m, err := curve.ParseMethod(method)
	if err != nil {
		return analysis.FitOutcome{}, err
	}
	return analysis.FitCurve(f.base, m, n)
}

func (f *fakeCurveService) Slope(ctx context.Context) (domain.SlopeIndicator, error) {
	if f.err != nil {
		return domain.SlopeIndicator{}, f.err
	}
	return domain.SlopeIndicator{Short: "2Y", Long: "10Y", SpreadPct: -0.2, Inverted: true}, nil
}

func (f *fakeCurveService) RecentScenarios(ctx context.Context, limit int) ([]domain.ScenarioRun, error) {
	return f.runs, f.err
}

func newTestRouter(t *testing.T, svc *fakeCurveService, apiKey string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	New(trace.NewNoopTracerProvider().Tracer("handler-test"), svc, apiKey).RegisterRoutes(r)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestGetGrid(t *testing.T) {
	r := newTestRouter(t, &fakeCurveService{}, "")

	w := do(r, http.MethodGet, "/api/grid", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Maturities  []domain.MaturityPoint `json:"maturities"`
		SpreadTable map[string]float64     `json:"spread_table"`
		FitMethods  []string               `json:"fit_methods"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Maturities, 10)
	assert.Equal(t, "3M", body.Maturities[0].Label)
	assert.Equal(t, 2.0, body.SpreadTable["10Y"])
	assert.Contains(t, body.FitMethods, "nelson_siegel")
}

func TestGetCurve(t *testing.T) {
	svc := &fakeCurveService{base: treasury(t)}
	r := newTestRouter(t, svc, "")

	w := do(r, http.MethodGet, "/api/curve", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body CurveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Slope.Inverted)
	c10, ok := body.Corporate.At("10Y")
	require.True(t, ok)
	assert.InDelta(t, 6.0, c10, 1e-12)
	assert.True(t, svc.lastOverride.IsEmpty())
}

func TestRunScenario(t *testing.T) {
	svc := &fakeCurveService{base: treasury(t)}
	r := newTestRouter(t, svc, "")

	w := do(r, http.MethodPost, "/api/scenario", `{"yields":{"2Y":-0.5},"spreads":{"10Y":0.25}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body analysis.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.InDelta(t, 0.3, body.Slope.SpreadPct, 1e-12)
	assert.False(t, body.Slope.Inverted)
	assert.Equal(t, 2.25, body.SpreadTable["10Y"])
	assert.True(t, body.Fits[curve.Spline].Available)
	assert.Equal(t, -0.5, svc.lastOverride.Yields["2Y"])
}

func TestRunScenarioErrors(t *testing.T) {
	r := newTestRouter(t, &fakeCurveService{base: treasury(t)}, "")

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "malformed", body: `{"yields":`, want: http.StatusBadRequest},
		{name: "unknown maturity", body: `{"yields":{"15Y":0.1}}`, want: http.StatusBadRequest},
		{name: "bad mode", body: `{"yields":{"2Y":0.1},"yield_mode":"multiply"}`, want: http.StatusBadRequest},
		{name: "negative spread", body: `{"spreads":{"2Y":-5}}`, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/scenario", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestGetFit(t *testing.T) {
	svc := &fakeCurveService{base: treasury(t)}
	r := newTestRouter(t, svc, "")

	w := do(r, http.MethodGet, "/api/curve/fit?method=spline&points=25", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out analysis.FitOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Len(t, out.Samples, 25)
	assert.Equal(t, "spline", svc.lastMethod)

	w = do(r, http.MethodGet, "/api/curve/fit", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultFitPoints, svc.lastPoints)

	w = do(r, http.MethodGet, "/api/curve/fit?points=1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/curve/fit?method=svensson", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSlope(t *testing.T) {
	r := newTestRouter(t, &fakeCurveService{base: treasury(t)}, "")

	w := do(r, http.MethodGet, "/api/slope", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body SlopeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "inverted", body.Regime)
	assert.InDelta(t, -0.2, body.SpreadPct, 1e-12)
}

func TestUpstreamFailureIsBadGateway(t *testing.T) {
	svc := &fakeCurveService{err: fmt.Errorf("%w: %w", service.ErrUpstream, errors.New("fred API error 500"))}
	r := newTestRouter(t, svc, "")

	for _, path := range []string{"/api/curve", "/api/slope", "/api/curve/fit"} {
		w := do(r, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadGateway, w.Code, path)
	}
	w := do(r, http.MethodPost, "/api/curve/refresh", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestShapeMismatchIsUnprocessable(t *testing.T) {
	svc := &fakeCurveService{err: &domain.ShapeMismatchError{Want: 10, Got: 9, Missing: []string{"20Y"}}}
	r := newTestRouter(t, svc, "")

	w := do(r, http.MethodGet, "/api/curve", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "20Y")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(&domain.FitConvergenceError{Method: "nelson_siegel"}))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(&domain.MissingMaturityError{Label: "2Y"}))
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("x: %w", scenario.ErrUnknownMode)))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}

func TestScenarioHistory(t *testing.T) {
	svc := &fakeCurveService{}
	r := newTestRouter(t, svc, "")

	w := do(r, http.MethodGet, "/api/scenario/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"scenarios":[]}`, w.Body.String())

	svc.runs = []domain.ScenarioRun{{Key: "abc", SlopePct: 0.3}}
	w = do(r, http.MethodGet, "/api/scenario/history?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"key":"abc"`)
}

func TestAPIRoutesRequireKey(t *testing.T) {
	r := newTestRouter(t, &fakeCurveService{base: treasury(t)}, "secret")

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/slope", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", "").Code)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/slope", nil)
	req.Header.Set("X-API-Key", "secret")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
