package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/shell-match/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS match_runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	summary    TEXT NOT NULL,
	rows       TEXT,
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_match_runs_status ON match_runs(status);
CREATE INDEX IF NOT EXISTS idx_match_runs_created_at ON match_runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run model.Run) (*model.Run, error) {
	run.ID = uuid.New().String()
	run.CreatedAt = time.Now().UTC()
	run.UpdatedAt = run.CreatedAt

	summaryJSON, rowsJSON, err := marshalRun(run)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal run")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO match_runs (id, status, source, summary, rows, error, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Status), run.Source, string(summaryJSON), string(rowsJSON), run.Error, run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return &run, nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, source, summary, rows, error, created_at, updated_at FROM match_runs WHERE id = ?`,
		runID,
	)

	var r model.Run
	var summaryJSON string
	var rowsJSON sql.NullString
	err := row.Scan(&r.ID, &r.Status, &r.Source, &summaryJSON, &rowsJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}

	if err := json.Unmarshal([]byte(summaryJSON), &r.Summary); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal summary")
	}
	if rowsJSON.Valid && rowsJSON.String != "" {
		if err := json.Unmarshal([]byte(rowsJSON.String), &r.Rows); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal rows")
		}
	}
	return &r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, status, source, summary, error, created_at, updated_at FROM match_runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limitOrDefault(filter.Limit))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var summaryJSON string
		if err := rows.Scan(&r.ID, &r.Status, &r.Source, &summaryJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if err := json.Unmarshal([]byte(summaryJSON), &r.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM match_runs WHERE id = ?`, runID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete run %s", runID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: delete run %s", runID)
	}
	return nil
}

func marshalRun(run model.Run) (summary, rows []byte, err error) {
	summary, err = json.Marshal(run.Summary)
	if err != nil {
		return nil, nil, err
	}
	if run.Rows == nil {
		run.Rows = []model.Row{}
	}
	rows, err = json.Marshal(run.Rows)
	return summary, rows, err
}
