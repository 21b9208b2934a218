package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var Pool *pgxpool.Pool

var (
	newPool = pgxpool.New
	pingDB  = func(ctx context.Context, pool *pgxpool.Pool) error {
		return pool.Ping(ctx)
	}
)

// InitPostgres opens the shared Pool. With no DATABASE_URL, or when the
// database is unreachable, Pool stays nil and snapshots are not persisted.
func InitPostgres(ctx context.Context, databaseURL string) {
	if databaseURL == "" {
		log.Println("Warning: DATABASE_URL empty, snapshot persistence disabled")
		return
	}

	pool, err := newPool(ctx, databaseURL)
	if err != nil {
		log.Printf("Warning: invalid DATABASE_URL, snapshot persistence disabled: %v", err)
		return
	}
	if err := pingDB(ctx, pool); err != nil {
		log.Printf("Warning: Postgres unavailable, snapshot persistence disabled: %v", err)
		pool.Close()
		return
	}
	Pool = pool
	log.Println("Connected to Postgres")
}

// Close releases the shared Pool.
func Close() {
	if Pool != nil {
		Pool.Close()
		Pool = nil
	}
}
