package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"soltab/internal/domain"
)

// MockDatasetRepo is a mock implementation of port.DatasetRepository.
type MockDatasetRepo struct {
	mock.Mock
}

func (m *MockDatasetRepo) Save(ctx context.Context, ds *domain.Dataset) error {
	args := m.Called(ctx, ds)
	return args.Error(0)
}

func (m *MockDatasetRepo) GetMerged(ctx context.Context, id uuid.UUID) (*domain.MergedTable, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MergedTable), args.Error(1)
}

func (m *MockDatasetRepo) ListMerged(ctx context.Context, offset, limit int) ([]domain.MergedTable, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.MergedTable), args.Int(1), args.Error(2)
}

func (m *MockDatasetRepo) Search(ctx context.Context, filters domain.SearchFilters) ([]domain.SearchHit, int, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.SearchHit), args.Int(1), args.Error(2)
}

func (m *MockDatasetRepo) LatestIndex(ctx context.Context) (*domain.MasterIndex, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MasterIndex), args.Error(1)
}
