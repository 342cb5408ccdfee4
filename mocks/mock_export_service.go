package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"soltab/internal/domain"
	"soltab/internal/service"
)

// MockExportService is a mock implementation of service.ExportService.
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) Write(ctx context.Context, ds *domain.Dataset, records []*domain.TableRecord) ([]service.Artifact, error) {
	args := m.Called(ctx, ds, records)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.Artifact), args.Error(1)
}

func (m *MockExportService) Publish(ctx context.Context, artifacts []service.Artifact) ([]service.Artifact, error) {
	args := m.Called(ctx, artifacts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.Artifact), args.Error(1)
}

func (m *MockExportService) Locate(ctx context.Context, name string) (*service.ExportLocation, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportLocation), args.Error(1)
}
