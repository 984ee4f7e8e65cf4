package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/shell-match/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleRun(source string) model.Run {
	return model.Run{
		Status: model.RunStatusComplete,
		Source: source,
		Summary: model.Summary{
			TotalCustomers:   3,
			CleanCustomers:   2,
			FlaggedCustomers: 1,
			Matched:          1,
			Unmatched:        1,
			ExecutionSeconds: 1.25,
		},
		Rows: []model.Row{
			{
				CustomerID: "001A",
				Status:     model.StatusMatched,
				ShellID:    "001S",
				Confidence: 92.5,
				Assessment: &model.Assessment{Confidence: 80, Bullets: []string{"✅ Same domain"}, Success: true},
			},
			{CustomerID: "001B", Status: model.StatusUnmatched},
			{CustomerID: "001C", Status: model.StatusFlagged, Reason: "Excluded from matching: free email"},
		},
	}
}

func TestSQLite_CreateAndGetRun(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, sampleRun("salesforce"))
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.CreatedAt.IsZero())

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	assert.Equal(t, "salesforce", got.Source)
	assert.Equal(t, sampleRun("").Summary, got.Summary)
	require.Len(t, got.Rows, 3)
	assert.Equal(t, "001S", got.Rows[0].ShellID)
	require.NotNil(t, got.Rows[0].Assessment)
	assert.Equal(t, 80, got.Rows[0].Assessment.Confidence)
	assert.Equal(t, model.StatusFlagged, got.Rows[2].Status)
}

func TestSQLite_CreateRun_FailedWithoutRows(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, model.Run{Status: model.RunStatusFailed, Source: "sheet", Error: "salesforce: query accounts"})
	require.NoError(t, err)

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	assert.Equal(t, "salesforce: query accounts", got.Error)
	assert.Empty(t, got.Rows)
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	s := newTestSQLite(t)

	_, err := s.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_ListRuns(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for _, src := range []string{"salesforce", "sheet", "salesforce"} {
		_, err := s.CreateRun(ctx, sampleRun(src))
		require.NoError(t, err)
	}
	_, err := s.CreateRun(ctx, model.Run{Status: model.RunStatusFailed, Source: "sheet"})
	require.NoError(t, err)

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
	for _, r := range all {
		assert.Nil(t, r.Rows, "list omits rows")
	}

	sf, err := s.ListRuns(ctx, RunFilter{Source: "salesforce"})
	require.NoError(t, err)
	assert.Len(t, sf, 2)
	assert.Equal(t, 1, sf[0].Summary.Matched)

	failed, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "sheet", failed[0].Source)

	page, err := s.ListRuns(ctx, RunFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestSQLite_DeleteRun(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, sampleRun("sheet"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteRun(ctx, run.ID))
	_, err = s.GetRun(ctx, run.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	err = s.DeleteRun(ctx, run.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	assert.NoError(t, s.Migrate(context.Background()))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = Open(ctx, Config{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "open.db")})
	require.NoError(t, err)
	require.NotNil(t, s)
	defer s.Close() //nolint:errcheck

	run, err := s.CreateRun(ctx, sampleRun("sheet"))
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)

	_, err = Open(ctx, Config{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}
