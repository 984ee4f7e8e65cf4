package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/shell-match/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore; pgxmock
// satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements are prepared on each new connection.
var preparedStatements = map[string]string{
	"insert_match_run": `INSERT INTO match_runs (id, status, source, summary, rows, error, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
	"get_match_run":    `SELECT id, status, source, summary, rows, error, created_at, updated_at FROM match_runs WHERE id = $1`,
	"delete_match_run": `DELETE FROM match_runs WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS match_runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	status     TEXT NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	summary    JSONB NOT NULL,
	rows       JSONB,
	error      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_match_runs_status ON match_runs(status);
CREATE INDEX IF NOT EXISTS idx_match_runs_created_at ON match_runs(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, run model.Run) (*model.Run, error) {
	run.ID = uuid.New().String()
	run.CreatedAt = time.Now().UTC()
	run.UpdatedAt = run.CreatedAt

	summaryJSON, rowsJSON, err := marshalRun(run)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal run")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO match_runs (id, status, source, summary, rows, error, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, string(run.Status), run.Source, summaryJSON, rowsJSON, run.Error, run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return &run, nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var summaryJSON []byte
	var rowsNull *[]byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, status, source, summary, rows, error, created_at, updated_at FROM match_runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.Status, &r.Source, &summaryJSON, &rowsNull, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}

	if err := json.Unmarshal(summaryJSON, &r.Summary); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal summary")
	}
	if rowsNull != nil {
		if err := json.Unmarshal(*rowsNull, &r.Rows); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal rows")
		}
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, status, source, summary, error, created_at, updated_at FROM match_runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Source != "" {
		query += fmt.Sprintf(` AND source = $%d`, argIdx)
		args = append(args, filter.Source)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, limitOrDefault(filter.Limit))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var summaryJSON []byte
		if err := rows.Scan(&r.ID, &r.Status, &r.Source, &summaryJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if err := json.Unmarshal(summaryJSON, &r.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) DeleteRun(ctx context.Context, runID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM match_runs WHERE id = $1`, runID)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: delete run %s", runID)
	}
	return nil
}
