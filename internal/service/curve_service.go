package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"curve-desk/internal/analysis"
	"curve-desk/internal/credit"
	"curve-desk/internal/curve"
	"curve-desk/internal/domain"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	treasuryCacheKey     = "curve:treasury:latest"
	analysisCachePrefix  = "curve:analysis:"
	defaultCurveCacheTTL = 15 * time.Minute
)

// ErrUpstream marks failures of the live data source when no persisted curve
// can stand in.
var ErrUpstream = errors.New("treasury data unavailable")

type TreasuryProvider interface {
	FetchLatest(ctx context.Context) (map[string]domain.Observation, error)
}

type SnapshotRepository interface {
	UpsertSnapshot(ctx context.Context, v domain.YieldVector) error
	LatestSnapshot(ctx context.Context, kind domain.CurveKind) (domain.YieldVector, error)
	SaveScenarioRun(ctx context.Context, run domain.ScenarioRun) error
	RecentScenarioRuns(ctx context.Context, limit int) ([]domain.ScenarioRun, error)
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// CurveService fetches, caches and persists the Treasury curve and runs the
// analysis pipeline on it. Repo and redis are optional.
type CurveService struct {
	tracer   trace.Tracer
	provider TreasuryProvider
	repo     SnapshotRepository
	redis    RedisClient
	pipeline *analysis.Pipeline
	grid     *domain.Grid
	spreads  domain.SpreadTable
	ttl      time.Duration
}

func NewCurveService(
	tracer trace.Tracer,
	provider TreasuryProvider,
	repo SnapshotRepository,
	redisClient RedisClient,
	ttl time.Duration,
) *CurveService {
	if ttl <= 0 {
		ttl = defaultCurveCacheTTL
	}
	return &CurveService{
		tracer:   tracer,
		provider: provider,
		repo:     repo,
		redis:    redisClient,
		pipeline: analysis.New(domain.DefaultGrid, analysis.DefaultOptions()),
		grid:     domain.DefaultGrid,
		spreads:  domain.DefaultSpreadTable(),
		ttl:      ttl,
	}
}

// Grid returns the maturity grid every curve is aligned to.
func (s *CurveService) Grid() *domain.Grid { return s.grid }

// BaseSpreads returns a copy of the base credit-spread table.
func (s *CurveService) BaseSpreads() domain.SpreadTable { return s.spreads.Clone() }

// LatestTreasury returns the current Treasury curve from the cache, the live
// provider or, when the provider fails, the last persisted snapshot.
func (s *CurveService) LatestTreasury(ctx context.Context) (domain.YieldVector, error) {
	ctx, span := s.tracer.Start(ctx, "curve-service.latest-treasury")
	defer span.End()

	if s.redis != nil {
		var cached domain.YieldVector
		hit, err := s.getCache(ctx, treasuryCacheKey, &cached)
		if err != nil {
			log.Printf("redis cache read error: %v", err)
		}
		if hit && cached.CoversGrid(s.grid) == nil {
			span.SetAttributes(attribute.String("curve.source", "cache"))
			return cached, nil
		}
	}

	v, err := s.fetchLive(ctx)
	if err == nil {
		span.SetAttributes(attribute.String("curve.source", "provider"))
		return v, nil
	}
	if domain.IsInputError(err) {
		return domain.YieldVector{}, err
	}

	if s.repo != nil {
		stored, repoErr := s.repo.LatestSnapshot(ctx, domain.KindTreasury)
		if repoErr == nil {
			log.Printf("provider failed (%v), serving snapshot from %s", err, stored.AsOf.Format("2006-01-02"))
			span.SetAttributes(attribute.String("curve.source", "snapshot"))
			return stored, nil
		}
		log.Printf("snapshot fallback failed: %v", repoErr)
	}
	return domain.YieldVector{}, fmt.Errorf("%w: %w", ErrUpstream, err)
}

// Refresh bypasses the cache, fetching the live curve, caching it and
// persisting it.
func (s *CurveService) Refresh(ctx context.Context) (domain.YieldVector, error) {
	ctx, span := s.tracer.Start(ctx, "curve-service.refresh")
	defer span.End()

	v, err := s.fetchLive(ctx)
	if err != nil {
		if domain.IsInputError(err) {
			return domain.YieldVector{}, err
		}
		return domain.YieldVector{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	log.Printf("Refreshed Treasury curve as of %s (%d maturities)", v.AsOf.Format("2006-01-02"), v.Len())
	return v, nil
}

func (s *CurveService) fetchLive(ctx context.Context) (domain.YieldVector, error) {
	obs, err := s.provider.FetchLatest(ctx)
	if err != nil {
		return domain.YieldVector{}, err
	}
	v, err := BuildTreasury(s.grid, obs)
	if err != nil {
		return domain.YieldVector{}, err
	}

	if s.redis != nil {
		if err := s.setCache(ctx, treasuryCacheKey, v); err != nil {
			log.Printf("redis cache write error: %v", err)
		}
	}
	if s.repo != nil {
		if err := s.repo.UpsertSnapshot(ctx, v); err != nil {
			log.Printf("persist snapshot: %v", err)
		}
	}
	return v, nil
}

// BuildTreasury aligns provider observations to grid. The curve is dated by
// the newest observation.
func BuildTreasury(grid *domain.Grid, obs map[string]domain.Observation) (domain.YieldVector, error) {
	values := make(map[string]float64, len(obs))
	var asOf time.Time
	for label, o := range obs {
		values[label] = o.Value
		if o.Date.After(asOf) {
			asOf = o.Date
		}
	}
	return domain.NewYieldVector(grid, domain.KindTreasury, asOf, values)
}

// Analyze runs the pipeline for override on the latest curve. Results are
// cached under their scenario key.
func (s *CurveService) Analyze(ctx context.Context, override domain.ScenarioOverride) (*analysis.Result, error) {
	ctx, span := s.tracer.Start(ctx, "curve-service.analyze")
	defer span.End()

	base, err := s.LatestTreasury(ctx)
	if err != nil {
		return nil, err
	}

	key := analysis.Key(base, s.spreads, override)
	span.SetAttributes(attribute.String("scenario.key", key))

	if s.redis != nil {
		var cached analysis.Result
		hit, err := s.getCache(ctx, analysisCachePrefix+key, &cached)
		if err != nil {
			log.Printf("redis cache read error: %v", err)
		}
		if hit {
			return &cached, nil
		}
	}

	res, err := s.pipeline.Run(base, s.spreads, override)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if err := s.setCache(ctx, analysisCachePrefix+key, res); err != nil {
			log.Printf("redis cache write error: %v", err)
		}
	}
	if s.repo != nil && !override.IsEmpty() {
		run := domain.ScenarioRun{
			Key:      res.Key,
			AsOf:     base.AsOf,
			Override: override,
			SlopePct: res.Slope.SpreadPct,
			Inverted: res.Slope.Inverted,
		}
		if err := s.repo.SaveScenarioRun(ctx, run); err != nil {
			log.Printf("persist scenario run %s: %v", res.Key, err)
		}
	}
	return res, nil
}

// Fit fits the latest curve with the named method and samples n points.
func (s *CurveService) Fit(ctx context.Context, method string, n int) (analysis.FitOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "curve-service.fit")
	defer span.End()

	m, err := curve.ParseMethod(method)
	if err != nil {
		return analysis.FitOutcome{}, err
	}
	base, err := s.LatestTreasury(ctx)
	if err != nil {
		return analysis.FitOutcome{}, err
	}
	return analysis.FitCurve(base, m, n)
}

// Slope returns the 10Y-2Y indicator of the latest curve.
func (s *CurveService) Slope(ctx context.Context) (domain.SlopeIndicator, error) {
	ctx, span := s.tracer.Start(ctx, "curve-service.slope")
	defer span.End()

	base, err := s.LatestTreasury(ctx)
	if err != nil {
		return domain.SlopeIndicator{}, err
	}
	return credit.Slope10Y2Y(base)
}

// RecentScenarios lists persisted scenario summaries, newest first.
func (s *CurveService) RecentScenarios(ctx context.Context, limit int) ([]domain.ScenarioRun, error) {
	ctx, span := s.tracer.Start(ctx, "curve-service.recent-scenarios")
	defer span.End()

	if s.repo == nil {
		return nil, nil
	}
	return s.repo.RecentScenarioRuns(ctx, limit)
}

func (s *CurveService) setCache(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, key, data, s.ttl).Err()
}

func (s *CurveService) getCache(ctx context.Context, key string, dst any) (bool, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}
