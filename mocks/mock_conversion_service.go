package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"photopass/internal/domain"
)

// MockConversionService is a mock implementation of service.ConversionService.
type MockConversionService struct {
	mock.Mock
}

func (m *MockConversionService) Check(ctx context.Context, key string) (*domain.ConversionStatus, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConversionStatus), args.Error(1)
}

func (m *MockConversionService) Poll(ctx context.Context, key string) (*domain.ConversionResult, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConversionResult), args.Error(1)
}
