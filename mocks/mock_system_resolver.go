package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"soltab/internal/domain"
	"soltab/internal/port"
)

// MockSystemResolver is a mock implementation of service.SystemResolver.
type MockSystemResolver struct {
	mock.Mock
}

func (m *MockSystemResolver) Resolve(ctx context.Context, ref port.TableRef) domain.ChemicalSystem {
	args := m.Called(ctx, ref)
	return args.Get(0).(domain.ChemicalSystem)
}
