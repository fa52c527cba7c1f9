package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"leadscan/internal/drift"
	"leadscan/internal/qr"
	"leadscan/internal/service"
)

// MockScanService is a mock implementation of service.ScanService.
type MockScanService struct {
	mock.Mock
}

func (m *MockScanService) ScanCard(ctx context.Context, in service.ScanCardInput) (*service.ScanCardOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ScanCardOutput), args.Error(1)
}

func (m *MockScanService) ScanQR(ctx context.Context, qrText string) (*qr.Classification, error) {
	args := m.Called(ctx, qrText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*qr.Classification), args.Error(1)
}

func (m *MockScanService) RescanLead(ctx context.Context, id uuid.UUID) (*drift.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*drift.Report), args.Error(1)
}
