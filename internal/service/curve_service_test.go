package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"curve-desk/internal/curve"
	"curve-desk/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

var asOf = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func liveObservations() map[string]domain.Observation {
	values := map[string]float64{
		"3M": 4.31, "6M": 4.27, "1Y": 4.1, "2Y": 4.2, "3Y": 4.0,
		"5Y": 4.08, "7Y": 4.18, "10Y": 4.0, "20Y": 4.65, "30Y": 4.62,
	}
	obs := make(map[string]domain.Observation, len(values))
	for label, v := range values {
		obs[label] = domain.Observation{SeriesID: domain.FREDSeriesID[label], Date: asOf, Value: v}
	}
	// One series lags a day behind the rest.
	o := obs["30Y"]
	o.Date = asOf.AddDate(0, 0, -1)
	obs["30Y"] = o
	return obs
}

func TestLatestTreasuryFetchesAndCaches(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{obs: liveObservations()}
	repo := &mockSnapshotRepo{}
	redis := newFakeRedis()
	svc := NewCurveService(testTracer, provider, repo, redis, time.Minute)

	v, err := svc.LatestTreasury(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultGrid.Len(), v.Len())
	assert.True(t, v.AsOf.Equal(asOf), "curve is dated by its newest observation")
	assert.Contains(t, redis.data, treasuryCacheKey)
	require.Len(t, repo.upserted, 1)

	_, err = svc.LatestTreasury(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls, "second read should hit the cache")
}

func TestLatestTreasuryPartialDataIsShapeError(t *testing.T) {
	t.Parallel()

	obs := liveObservations()
	delete(obs, "20Y")
	repo := &mockSnapshotRepo{}
	svc := NewCurveService(testTracer, &mockProvider{obs: obs}, repo, nil, 0)

	_, err := svc.LatestTreasury(context.Background())
	var shape *domain.ShapeMismatchError
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, []string{"20Y"}, shape.Missing)
	assert.Empty(t, repo.upserted)
	assert.False(t, repo.latestCalled, "shape errors must not be papered over by the snapshot")
}

func TestLatestTreasuryFallsBackToSnapshot(t *testing.T) {
	t.Parallel()

	stored, err := BuildTreasury(domain.DefaultGrid, liveObservations())
	require.NoError(t, err)
	repo := &mockSnapshotRepo{latest: stored}
	svc := NewCurveService(testTracer, &mockProvider{err: errors.New("fred API error 500")}, repo, nil, 0)

	v, err := svc.LatestTreasury(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stored.Yields(), v.Yields())
}

func TestLatestTreasuryUpstreamError(t *testing.T) {
	t.Parallel()

	repo := &mockSnapshotRepo{latestErr: errors.New("no persisted snapshot")}
	svc := NewCurveService(testTracer, &mockProvider{err: errors.New("timeout")}, repo, nil, 0)

	_, err := svc.LatestTreasury(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)
	assert.False(t, domain.IsInputError(err))
}

func TestLatestTreasuryIgnoresCacheErrors(t *testing.T) {
	t.Parallel()

	redis := newFakeRedis()
	redis.getErr = errors.New("connection reset")
	redis.setErr = errors.New("connection reset")
	svc := NewCurveService(testTracer, &mockProvider{obs: liveObservations()}, nil, redis, 0)

	_, err := svc.LatestTreasury(context.Background())
	assert.NoError(t, err)
}

func TestAnalyzeCachesByScenario(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	provider := &mockProvider{obs: liveObservations()}
	repo := &mockSnapshotRepo{}
	svc := NewCurveService(testTracer, provider, repo, client, time.Minute)

	override := domain.ScenarioOverride{Yields: map[string]float64{"2Y": -0.5}}
	res, err := svc.Analyze(context.Background(), override)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, res.Slope.SpreadPct, 1e-9)
	assert.False(t, res.Slope.Inverted)
	assert.True(t, srv.Exists(analysisCachePrefix+res.Key))
	assert.Equal(t, time.Minute, srv.TTL(analysisCachePrefix+res.Key))
	require.Len(t, repo.runs, 1)
	assert.Equal(t, res.Key, repo.runs[0].Key)

	again, err := svc.Analyze(context.Background(), override)
	require.NoError(t, err)
	assert.Equal(t, res.Key, again.Key)
	assert.Equal(t, res.Slope, again.Slope)
	assert.Len(t, again.Fits[curve.Spline].Samples, 200)
	assert.Len(t, repo.runs, 1, "cached analyses are not persisted twice")

	baseline, err := svc.Analyze(context.Background(), domain.ScenarioOverride{})
	require.NoError(t, err)
	assert.True(t, baseline.Slope.Inverted)
	assert.NotEqual(t, res.Key, baseline.Key)
	assert.Len(t, repo.runs, 1, "baseline runs are not recorded as scenarios")
}

func TestAnalyzeRejectsUnknownMaturity(t *testing.T) {
	t.Parallel()

	svc := NewCurveService(testTracer, &mockProvider{obs: liveObservations()}, nil, nil, 0)
	_, err := svc.Analyze(context.Background(), domain.ScenarioOverride{Yields: map[string]float64{"15Y": 0.1}})
	assert.ErrorIs(t, err, domain.ErrUnknownMaturity)
}

func TestFit(t *testing.T) {
	t.Parallel()

	svc := NewCurveService(testTracer, &mockProvider{obs: liveObservations()}, nil, nil, 0)

	out, err := svc.Fit(context.Background(), "spline", 50)
	require.NoError(t, err)
	assert.True(t, out.Available)
	assert.Len(t, out.Samples, 50)
	assert.InDelta(t, 4.31, out.Samples[0].YieldPct, 1e-9)

	_, err = svc.Fit(context.Background(), "svensson", 50)
	assert.ErrorIs(t, err, curve.ErrUnknownMethod)
	assert.Equal(t, 1, svc.provider.(*mockProvider).calls, "unknown methods fail before fetching")
}

func TestSlope(t *testing.T) {
	t.Parallel()

	svc := NewCurveService(testTracer, &mockProvider{obs: liveObservations()}, nil, nil, 0)
	slope, err := svc.Slope(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, -0.2, slope.SpreadPct, 1e-12)
	assert.True(t, slope.Inverted)
}

func TestRecentScenariosWithoutRepo(t *testing.T) {
	t.Parallel()

	svc := NewCurveService(testTracer, &mockProvider{}, nil, nil, 0)
	runs, err := svc.RecentScenarios(context.Background(), 10)
	assert.NoError(t, err)
	assert.Empty(t, runs)
}

func TestBaseSpreadsIsACopy(t *testing.T) {
	svc := NewCurveService(testTracer, &mockProvider{}, nil, nil, 0)
	table := svc.BaseSpreads()
	table["10Y"] = 9
	assert.Equal(t, 2.0, svc.BaseSpreads()["10Y"])
}

type mockProvider struct {
	obs   map[string]domain.Observation
	err   error
	calls int
}

func (m *mockProvider) FetchLatest(ctx context.Context) (map[string]domain.Observation, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.obs, nil
}

type mockSnapshotRepo struct {
	upserted     []domain.YieldVector
	latest       domain.YieldVector
	latestErr    error
	latestCalled bool
	runs         []domain.ScenarioRun
}

func (m *mockSnapshotRepo) UpsertSnapshot(ctx context.Context, v domain.YieldVector) error {
	m.upserted = append(m.upserted, v)
	return nil
}

func (m *mockSnapshotRepo) LatestSnapshot(ctx context.Context, kind domain.CurveKind) (domain.YieldVector, error) {
	m.latestCalled = true
	if m.latestErr != nil {
		return domain.YieldVector{}, m.latestErr
	}
	return m.latest, nil
}

func (m *mockSnapshotRepo) SaveScenarioRun(ctx context.Context, run domain.ScenarioRun) error {
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockSnapshotRepo) RecentScenarioRuns(ctx context.Context, limit int) ([]domain.ScenarioRun, error) {
	return m.runs, nil
}

type fakeRedis struct {
	data   map[string][]byte
	setErr error
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = append([]byte(nil), v...)
	case string:
		f.data[key] = []byte(v)
	default:
		bytes, _ := json.Marshal(v)
		f.data[key] = bytes
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	if v, ok := f.data[key]; ok {
		return redis.NewStringResult(string(v), nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func TestRefreshWrapsProviderErrors(t *testing.T) {
	t.Parallel()

	svc := NewCurveService(testTracer, &mockProvider{err: errors.New("fred API error 503")}, nil, nil, 0)
	_, err := svc.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrUpstream)
}
