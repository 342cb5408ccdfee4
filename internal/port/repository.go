package port

import (
	"context"

	"github.com/google/uuid"

	"soltab/internal/domain"
)

// TableRecordRepository defines the contract for processed-table persistence.
// Records are keyed by source document and table index; re-running the
// pipeline overwrites earlier results.
type TableRecordRepository interface {
	Upsert(ctx context.Context, rec *domain.TableRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TableRecord, error)
	List(ctx context.Context, filters domain.RecordFilters) ([]domain.TableRecord, int, error)
}

// DatasetRepository defines the contract for consolidated dataset persistence
// and search.
type DatasetRepository interface {
	// Save replaces the stored merged tables and master index with ds.
	Save(ctx context.Context, ds *domain.Dataset) error
	GetMerged(ctx context.Context, id uuid.UUID) (*domain.MergedTable, error)
	ListMerged(ctx context.Context, offset, limit int) ([]domain.MergedTable, int, error)
	Search(ctx context.Context, filters domain.SearchFilters) ([]domain.SearchHit, int, error)
	LatestIndex(ctx context.Context) (*domain.MasterIndex, error)
}
