package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"soltab/internal/domain"
	"soltab/internal/port"
)

// DatasetService stores pipeline results and serves them to the API.
type DatasetService interface {
	Store(ctx context.Context, records []*domain.TableRecord, ds *domain.Dataset) error
	ListTables(ctx context.Context, filters domain.RecordFilters) ([]domain.TableRecord, int, error)
	GetTable(ctx context.Context, id uuid.UUID) (*domain.TableRecord, error)
	ListMerged(ctx context.Context, offset, limit int) ([]domain.MergedTable, int, error)
	GetMerged(ctx context.Context, id uuid.UUID) (*domain.MergedTable, error)
	Search(ctx context.Context, filters domain.SearchFilters) ([]domain.SearchHit, int, error)
	Index(ctx context.Context) (*domain.MasterIndex, error)
}

type datasetService struct {
	records  port.TableRecordRepository
	datasets port.DatasetRepository
	logger   *zap.Logger
}

// NewDatasetService creates a new DatasetService implementation.
func NewDatasetService(records port.TableRecordRepository, datasets port.DatasetRepository, logger *zap.Logger) DatasetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &datasetService{records: records, datasets: datasets, logger: logger}
}

func (s *datasetService) Store(ctx context.Context, records []*domain.TableRecord, ds *domain.Dataset) error {
	for _, r := range records {
		if r == nil {
			continue
		}
		if err := s.records.Upsert(ctx, r); err != nil {
			return fmt.Errorf("storing %s: %w", r.Provenance.Label(), err)
		}
	}
	if err := s.datasets.Save(ctx, ds); err != nil {
		return fmt.Errorf("storing dataset: %w", err)
	}
	s.logger.Info("service.DatasetService: dataset stored",
		zap.Int("records", len(records)),
		zap.Int("merged_tables", len(ds.Tables)),
	)
	return nil
}

func (s *datasetService) ListTables(ctx context.Context, filters domain.RecordFilters) ([]domain.TableRecord, int, error) {
	return s.records.List(ctx, filters)
}

func (s *datasetService) GetTable(ctx context.Context, id uuid.UUID) (*domain.TableRecord, error) {
	return s.records.GetByID(ctx, id)
}

func (s *datasetService) ListMerged(ctx context.Context, offset, limit int) ([]domain.MergedTable, int, error) {
	return s.datasets.ListMerged(ctx, offset, limit)
}

func (s *datasetService) GetMerged(ctx context.Context, id uuid.UUID) (*domain.MergedTable, error) {
	return s.datasets.GetMerged(ctx, id)
}

// Search requires a free-text query or at least one filter.
func (s *datasetService) Search(ctx context.Context, filters domain.SearchFilters) ([]domain.SearchHit, int, error) {
	filters.Query = strings.TrimSpace(filters.Query)
	if filters.Query == "" && filters.Document == "" && filters.System == "" && filters.DataType == "" && filters.NeedsReview == nil {
		return nil, 0, domain.ErrInvalidSearch
	}
	return s.datasets.Search(ctx, filters)
}

func (s *datasetService) Index(ctx context.Context) (*domain.MasterIndex, error) {
	return s.datasets.LatestIndex(ctx)
}
