package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"soltab/internal/domain"
)

// MockDatasetService is a mock implementation of service.DatasetService.
type MockDatasetService struct {
	mock.Mock
}

func (m *MockDatasetService) Store(ctx context.Context, records []*domain.TableRecord, ds *domain.Dataset) error {
	args := m.Called(ctx, records, ds)
	return args.Error(0)
}

func (m *MockDatasetService) ListTables(ctx context.Context, filters domain.RecordFilters) ([]domain.TableRecord, int, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.TableRecord), args.Int(1), args.Error(2)
}

func (m *MockDatasetService) GetTable(ctx context.Context, id uuid.UUID) (*domain.TableRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TableRecord), args.Error(1)
}

func (m *MockDatasetService) ListMerged(ctx context.Context, offset, limit int) ([]domain.MergedTable, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.MergedTable), args.Int(1), args.Error(2)
}

func (m *MockDatasetService) GetMerged(ctx context.Context, id uuid.UUID) (*domain.MergedTable, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MergedTable), args.Error(1)
}

func (m *MockDatasetService) Search(ctx context.Context, filters domain.SearchFilters) ([]domain.SearchHit, int, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.SearchHit), args.Int(1), args.Error(2)
}

func (m *MockDatasetService) Index(ctx context.Context) (*domain.MasterIndex, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MasterIndex), args.Error(1)
}
