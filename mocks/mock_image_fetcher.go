package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockImageFetcher is a mock implementation of port.ImageFetcher.
type MockImageFetcher struct {
	mock.Mock
}

func (m *MockImageFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
