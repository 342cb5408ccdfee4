package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"soltab/internal/port"
)

// MockTableCatalog is a mock implementation of port.TableCatalog.
type MockTableCatalog struct {
	mock.Mock
}

func (m *MockTableCatalog) List(ctx context.Context) ([]port.TableRef, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.TableRef), args.Error(1)
}
