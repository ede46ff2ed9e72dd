package runtime

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/validus/validus-go/report"
)

// PostgresStoreConfig configures the PostgreSQL run store.
type PostgresStoreConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxConnections  int           `yaml:"max_connections"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MigrationsPath  string        `yaml:"migrations_path"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

// PostgresRunStore persists runs in PostgreSQL with the report as JSONB.
type PostgresRunStore struct {
	pool   *pgxpool.Pool
	config *PostgresStoreConfig
}

// NewPostgresRunStore connects, pings and optionally migrates the database.
func NewPostgresRunStore(ctx context.Context, config *PostgresStoreConfig) (*PostgresRunStore, error) {
	if config.MaxConnections == 0 {
		config.MaxConnections = 25
	}
	if config.ConnMaxLifetime == 0 {
		config.ConnMaxLifetime = time.Hour
	}
	if config.MigrationsPath == "" {
		config.MigrationsPath = "migrations"
	}

	poolConfig, err := pgxpool.ParseConfig(config.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}
	poolConfig.MaxConns = int32(config.MaxConnections)
	poolConfig.MaxConnLifetime = config.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store := &PostgresRunStore{pool: pool, config: config}
	if config.AutoMigrate {
		if err := store.migrate(); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}
	return store, nil
}

// migrate runs the goose migrations over a plain database/sql connection,
// which is what goose expects.
func (s *PostgresRunStore) migrate() error {
	db, err := sql.Open("postgres", s.config.DSN)
	if err != nil {
		return fmt.Errorf("opening migration connection: %w", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, s.config.MigrationsPath)
}

// SaveRun upserts the run.
func (s *PostgresRunStore) SaveRun(ctx context.Context, run *Run) error {
	reportData, err := json.Marshal(run.Report)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO validation_runs
			(id, ruleset, started_at, duration_ms, failed, fail_count, warn_count, report)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			duration_ms = EXCLUDED.duration_ms,
			failed = EXCLUDED.failed,
			fail_count = EXCLUDED.fail_count,
			warn_count = EXCLUDED.warn_count,
			report = EXCLUDED.report`,
		run.ID, run.Ruleset, run.StartedAt, run.Duration.Milliseconds(),
		run.Failed, run.FailCount, run.WarnCount, reportData,
	)
	if err != nil {
		return fmt.Errorf("storing run: %w", err)
	}
	return nil
}

// GetRun returns the run by id.
func (s *PostgresRunStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, ruleset, started_at, duration_ms, failed, fail_count, warn_count, report
		FROM validation_runs WHERE id = $1`, id)
	return scanRun(row)
}

// ListRuns returns runs newest first, filtered.
func (s *PostgresRunStore) ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error) {
	query := `
		SELECT id, ruleset, started_at, duration_ms, failed, fail_count, warn_count, report
		FROM validation_runs WHERE 1=1`
	args := []interface{}{}
	if filter.Ruleset != "" {
		args = append(args, filter.Ruleset)
		query += fmt.Sprintf(" AND ruleset = $%d", len(args))
	}
	if filter.FailedOnly {
		query += " AND failed"
	}
	query += " ORDER BY started_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// Close releases the pool.
func (s *PostgresRunStore) Close() error {
	s.pool.Close()
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run        Run
		durationMS int64
		reportData []byte
	)
	if err := row.Scan(&run.ID, &run.Ruleset, &run.StartedAt, &durationMS,
		&run.Failed, &run.FailCount, &run.WarnCount, &reportData); err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	run.Report = &report.Report{}
	if err := json.Unmarshal(reportData, run.Report); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	return &run, nil
}
