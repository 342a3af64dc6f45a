package mocks

import (
	"context"

	"jurisgate/internal/model"
	"jurisgate/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockGateService struct {
	mock.Mock
}

func (m *MockGateService) Submit(ctx context.Context, req model.Request) (*service.SubmitResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SubmitResult), args.Error(1)
}

func (m *MockGateService) SubmitBatch(ctx context.Context, caseID model.ID, actor string, ops []service.BatchOperation) (*service.BatchResult, error) {
	args := m.Called(ctx, caseID, actor, ops)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BatchResult), args.Error(1)
}
