package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/shell-match/internal/model"
	"github.com/sells-group/shell-match/internal/store"
)

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateRun(ctx context.Context, run model.Run) (*model.Run, error) {
	args := m.Called(ctx, run)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Run), args.Error(1)
}

func (m *mockStore) DeleteRun(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

// --- Provider Mock ---

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string  { return "mock" }
func (m *mockProvider) Model() string { return "mock-model" }

func (m *mockProvider) Complete(ctx context.Context, system, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) Ping(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
