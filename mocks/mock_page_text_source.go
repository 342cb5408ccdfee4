package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockPageTextSource is a mock implementation of port.PageTextSource.
type MockPageTextSource struct {
	mock.Mock
}

func (m *MockPageTextSource) PageTexts(ctx context.Context, document string) ([]string, error) {
	args := m.Called(ctx, document)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
