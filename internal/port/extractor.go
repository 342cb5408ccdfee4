package port

import (
	"context"

	"soltab/internal/domain"
)

// TableRef addresses one table inside a source document.
type TableRef struct {
	Document   string `json:"document"`
	Page       int    `json:"page"`
	TableIndex int    `json:"table_index"`
}

// GridExtractor is one table-extraction method. Implementations return a
// rectangular raw grid or an error; they never repair cell contents.
type GridExtractor interface {
	Name() string
	Extract(ctx context.Context, ref TableRef) (*domain.Grid, error)
}

// TableCatalog enumerates the tables available for processing.
type TableCatalog interface {
	List(ctx context.Context) ([]TableRef, error)
}

// PageTextSource yields the plain text of every page of a source document.
type PageTextSource interface {
	PageTexts(ctx context.Context, document string) ([]string, error)
}
