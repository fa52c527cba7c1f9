package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"leadscan/internal/extract"
)

// MockExtractor is a mock extraction router. It satisfies
// service.CardExtractor, qr.TextExtractor, and drift.ImageExtractor.
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Run(ctx context.Context, in extract.Input) extract.Outcome {
	args := m.Called(ctx, in)
	return args.Get(0).(extract.Outcome)
}

func (m *MockExtractor) RunImages(ctx context.Context, inputs []extract.Input) extract.Outcome {
	args := m.Called(ctx, inputs)
	return args.Get(0).(extract.Outcome)
}
