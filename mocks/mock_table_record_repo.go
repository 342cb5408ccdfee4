package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"soltab/internal/domain"
)

// MockTableRecordRepo is a mock implementation of port.TableRecordRepository.
type MockTableRecordRepo struct {
	mock.Mock
}

func (m *MockTableRecordRepo) Upsert(ctx context.Context, rec *domain.TableRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockTableRecordRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TableRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TableRecord), args.Error(1)
}

func (m *MockTableRecordRepo) List(ctx context.Context, filters domain.RecordFilters) ([]domain.TableRecord, int, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.TableRecord), args.Int(1), args.Error(2)
}
