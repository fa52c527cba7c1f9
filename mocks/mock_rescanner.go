package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"leadscan/internal/domain"
	"leadscan/internal/drift"
)

// MockRescanner is a mock implementation of service.Rescanner.
type MockRescanner struct {
	mock.Mock
}

func (m *MockRescanner) Rescan(ctx context.Context, lead *domain.Lead) (*drift.Report, error) {
	args := m.Called(ctx, lead)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*drift.Report), args.Error(1)
}
