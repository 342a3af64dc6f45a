package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"jurisgate/internal/repository"
)

type MockCaseRepository struct {
	mock.Mock
}

func (m *MockCaseRepository) Load(ctx context.Context) (*repository.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Snapshot), args.Error(1)
}

func (m *MockCaseRepository) Commit(ctx context.Context, c repository.Commit) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

var _ repository.CaseRepository = (*MockCaseRepository)(nil)
