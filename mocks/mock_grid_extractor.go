package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"soltab/internal/domain"
	"soltab/internal/port"
)

// MockGridExtractor is a mock implementation of port.GridExtractor.
type MockGridExtractor struct {
	mock.Mock
	MethodName string
}

func (m *MockGridExtractor) Name() string {
	return m.MethodName
}

func (m *MockGridExtractor) Extract(ctx context.Context, ref port.TableRef) (*domain.Grid, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Grid), args.Error(1)
}
