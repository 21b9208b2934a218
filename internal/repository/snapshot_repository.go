package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"curve-desk/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoSnapshot is returned when nothing has been persisted for a curve kind.
var ErrNoSnapshot = errors.New("no persisted snapshot")

const createSnapshotTables = `
CREATE TABLE IF NOT EXISTS yield_snapshots (
    kind        TEXT             NOT NULL,
    as_of       DATE             NOT NULL,
    label       TEXT             NOT NULL,
    years       DOUBLE PRECISION NOT NULL,
    yield_pct   DOUBLE PRECISION NOT NULL,
    fetched_at  TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
    PRIMARY KEY (kind, as_of, label)
);

CREATE INDEX IF NOT EXISTS idx_yield_snapshots_kind_as_of
    ON yield_snapshots (kind, as_of DESC);

CREATE TABLE IF NOT EXISTS scenario_runs (
    key         TEXT             PRIMARY KEY,
    as_of       DATE             NOT NULL,
    override    JSONB            NOT NULL,
    slope_pct   DOUBLE PRECISION NOT NULL,
    inverted    BOOLEAN          NOT NULL,
    created_at  TIMESTAMPTZ      NOT NULL DEFAULT NOW()
);
`

const upsertSnapshotSQL = `INSERT INTO yield_snapshots (kind, as_of, label, years, yield_pct)
SELECT $1, $2, s.label, s.years, s.yield_pct
FROM unnest($3::text[], $4::float8[], $5::float8[]) AS s(label, years, yield_pct)
ON CONFLICT (kind, as_of, label) DO UPDATE SET
    years = EXCLUDED.years,
    yield_pct = EXCLUDED.yield_pct,
    fetched_at = NOW()`

const latestSnapshotSQL = `SELECT label, yield_pct, as_of
FROM yield_snapshots
WHERE kind = $1 AND as_of = (SELECT MAX(as_of) FROM yield_snapshots WHERE kind = $1)`

const insertScenarioRunSQL = `INSERT INTO scenario_runs (key, as_of, override, slope_pct, inverted)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (key) DO NOTHING`

const recentScenarioRunsSQL = `SELECT key, as_of, override, slope_pct, inverted, created_at
FROM scenario_runs
ORDER BY created_at DESC
LIMIT $1`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// SnapshotRepository persists fetched curves and scenario summaries.
type SnapshotRepository struct {
	pool   PgxPool
	grid   *domain.Grid
	tracer trace.Tracer
}

func NewSnapshotRepository(pool PgxPool, tracer trace.Tracer) *SnapshotRepository {
	return &SnapshotRepository{pool: pool, grid: domain.DefaultGrid, tracer: tracer}
}

func (r *SnapshotRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "snapshot-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createSnapshotTables)
	return err
}

// UpsertSnapshot stores every point of v under (kind, as-of date).
func (r *SnapshotRepository) UpsertSnapshot(ctx context.Context, v domain.YieldVector) error {
	if v.Len() == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "snapshot-repo.upsert-snapshot")
	defer span.End()
	span.SetAttributes(attribute.String("curve.kind", string(v.Kind)), attribute.Int("curve.points", v.Len()))

	_, err := r.pool.Exec(ctx, upsertSnapshotSQL,
		string(v.Kind), asOfDate(v.AsOf), v.Labels(), v.Years(), v.Yields(),
	)
	if err != nil {
		return fmt.Errorf("upsert %s snapshot: %w", v.Kind, err)
	}
	return nil
}

// LatestSnapshot loads the most recent curve of the given kind. A stored
// curve that no longer covers the grid surfaces the domain shape error.
func (r *SnapshotRepository) LatestSnapshot(ctx context.Context, kind domain.CurveKind) (domain.YieldVector, error) {
	_, span := r.tracer.Start(ctx, "snapshot-repo.latest-snapshot")
	defer span.End()

	rows, err := r.pool.Query(ctx, latestSnapshotSQL, string(kind))
	if err != nil {
		return domain.YieldVector{}, err
	}
	defer rows.Close()

	values := make(map[string]float64, r.grid.Len())
	var asOf time.Time
	for rows.Next() {
		var label string
		var yield float64
		if err := rows.Scan(&label, &yield, &asOf); err != nil {
			return domain.YieldVector{}, err
		}
		values[label] = yield
	}
	if err := rows.Err(); err != nil {
		return domain.YieldVector{}, err
	}
	if len(values) == 0 {
		return domain.YieldVector{}, ErrNoSnapshot
	}
	return domain.NewYieldVector(r.grid, kind, asOf.UTC(), values)
}

// SaveScenarioRun records the summary of an analysis. Re-running the same
// scenario state is a no-op.
func (r *SnapshotRepository) SaveScenarioRun(ctx context.Context, run domain.ScenarioRun) error {
	_, span := r.tracer.Start(ctx, "snapshot-repo.save-scenario-run")
	defer span.End()

	override, err := json.Marshal(run.Override)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, insertScenarioRunSQL,
		run.Key, asOfDate(run.AsOf), override, run.SlopePct, run.Inverted,
	)
	return err
}

func (r *SnapshotRepository) RecentScenarioRuns(ctx context.Context, limit int) ([]domain.ScenarioRun, error) {
	_, span := r.tracer.Start(ctx, "snapshot-repo.recent-scenario-runs")
	defer span.End()

	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, recentScenarioRunsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.ScenarioRun
	for rows.Next() {
		var run domain.ScenarioRun
		var override []byte
		if err := rows.Scan(&run.Key, &run.AsOf, &override, &run.SlopePct, &run.Inverted, &run.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(override, &run.Override); err != nil {
			return nil, fmt.Errorf("decode override for %s: %w", run.Key, err)
		}
		run.AsOf = run.AsOf.UTC()
		run.CreatedAt = run.CreatedAt.UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func asOfDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
