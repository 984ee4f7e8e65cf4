package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/shell-match/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Source string          `json:"source,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store persists finished matching runs.
type Store interface {
	// CreateRun saves run, assigning its ID and timestamps.
	CreateRun(ctx context.Context, run model.Run) (*model.Run, error)
	// GetRun returns the run with its rows.
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	// ListRuns returns runs newest first, without rows.
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
	DeleteRun(ctx context.Context, runID string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Config selects the backend.
type Config struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// Open creates and migrates the configured store. An empty driver disables
// persistence and returns a nil Store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "":
		return nil, nil
	case "sqlite":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "shellmatch.db"
		}
		s, err = NewSQLite(dsn)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

func limitOrDefault(n int) int {
	if n <= 0 {
		return 100
	}
	return n
}
