package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockProber is a mock implementation of port.Prober.
type MockProber struct {
	mock.Mock
}

func (m *MockProber) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}
