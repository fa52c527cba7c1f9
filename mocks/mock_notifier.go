package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"leadscan/internal/port"
)

// MockNotifier is a mock implementation of port.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyDrift(ctx context.Context, notice port.DriftNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}
