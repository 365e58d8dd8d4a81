package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"tricity/internal/config"
)

// Database wraps the shared connection pool.
type Database struct {
	Pool *pgxpool.Pool
}

// Connect opens a pool against the configured Postgres and verifies it.
func Connect(ctx context.Context, cfg config.Database) (*Database, error) {
	pool, err := pgxpool.New(ctx, cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return &Database{Pool: pool}, nil
}

func (d *Database) PingContext(ctx context.Context) error {
	if d == nil || d.Pool == nil {
		return fmt.Errorf("database is not initialized")
	}
	return d.Pool.Ping(ctx)
}

func (d *Database) Close() {
	if d != nil && d.Pool != nil {
		d.Pool.Close()
	}
}

// Migrate creates the application schema. The compound unique index is what
// turns duplicate inserts (including whole-job re-runs) into no-ops.
func (d *Database) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS device_masters (
			id uuid PRIMARY KEY,
			section text NOT NULL,
			device_type text NOT NULL,
			brand text NOT NULL,
			device_model text NOT NULL,
			lead_accessories text NOT NULL,
			mri_compatible boolean NOT NULL,
			mri_condition text NOT NULL,
			organization_id text NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS device_masters_identity_idx
			ON device_masters (section, device_type, brand, device_model,
				lead_accessories, mri_compatible, organization_id)`,
	}
	for _, stmt := range statements {
		if _, err := d.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
