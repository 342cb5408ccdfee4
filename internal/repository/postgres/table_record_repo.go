package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"soltab/internal/domain"
	"soltab/internal/port"
)

type tableRecordRepo struct {
	db *sqlx.DB
}

// NewTableRecordRepo creates a new PostgreSQL-backed TableRecordRepository.
func NewTableRecordRepo(db *sqlx.DB) port.TableRecordRepository {
	return &tableRecordRepo{db: db}
}

// tableRecordRow is the flattened table_records row. The full record lives
// in the record column; the other columns exist for filtering.
type tableRecordRow struct {
	ID               uuid.UUID `db:"id"`
	SourceDocument   string    `db:"source_document"`
	Page             int       `db:"page"`
	TableIndex       int       `db:"table_index"`
	ExtractionMethod string    `db:"extraction_method"`
	ChemicalSystem   string    `db:"chemical_system"`
	SystemConfidence string    `db:"system_confidence"`
	HeaderMethod     string    `db:"header_method"`
	HeaderConfidence float64   `db:"header_confidence"`
	Score            int       `db:"score"`
	Priority         string    `db:"priority"`
	NeedsReview      bool      `db:"needs_review"`
	RowCount         int       `db:"row_count"`
	ColumnCount      int       `db:"column_count"`
	TableTypes       string    `db:"table_types"`
	Record           string    `db:"record"`
	ProcessedAt      time.Time `db:"processed_at"`
}

func newTableRecordRow(rec *domain.TableRecord) (*tableRecordRow, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	types, err := json.Marshal(nonNilTypes(rec.TableTypes))
	if err != nil {
		return nil, fmt.Errorf("encoding table types: %w", err)
	}
	row := &tableRecordRow{
		ID:               rec.ID,
		SourceDocument:   rec.Provenance.SourceDocument,
		Page:             rec.Provenance.Page,
		TableIndex:       rec.Provenance.TableIndex,
		ExtractionMethod: rec.Provenance.ExtractionMethod,
		ChemicalSystem:   rec.System.Name,
		SystemConfidence: string(rec.System.Confidence),
		HeaderMethod:     string(rec.HeaderMethod),
		HeaderConfidence: rec.HeaderConfidence,
		Score:            rec.Score,
		Priority:         string(rec.Priority),
		NeedsReview:      rec.NeedsReview,
		TableTypes:       string(types),
		Record:           string(body),
		ProcessedAt:      rec.ProcessedAt,
	}
	if row.SystemConfidence == "" {
		row.SystemConfidence = string(domain.SystemConfidenceNone)
	}
	if rec.Table != nil {
		row.RowCount, row.ColumnCount = rec.Table.NumRows(), rec.Table.NumCols()
	}
	return row, nil
}

func nonNilTypes(types []domain.ColumnType) []domain.ColumnType {
	if types == nil {
		return []domain.ColumnType{}
	}
	return types
}

func (r *tableRecordRepo) Upsert(ctx context.Context, rec *domain.TableRecord) error {
	row, err := newTableRecordRow(rec)
	if err != nil {
		return fmt.Errorf("tableRecordRepo.Upsert: %w", err)
	}
	query := `
		INSERT INTO table_records (
			id, source_document, page, table_index, extraction_method,
			chemical_system, system_confidence, header_method, header_confidence,
			score, priority, needs_review, row_count, column_count,
			table_types, record, processed_at, created_at, updated_at
		) VALUES (
			:id, :source_document, :page, :table_index, :extraction_method,
			:chemical_system, :system_confidence, :header_method, :header_confidence,
			:score, :priority, :needs_review, :row_count, :column_count,
			:table_types, :record, :processed_at, NOW(), NOW()
		)
		ON CONFLICT (source_document, table_index) DO UPDATE SET
			page = EXCLUDED.page,
			extraction_method = EXCLUDED.extraction_method,
			chemical_system = EXCLUDED.chemical_system,
			system_confidence = EXCLUDED.system_confidence,
			header_method = EXCLUDED.header_method,
			header_confidence = EXCLUDED.header_confidence,
			score = EXCLUDED.score,
			priority = EXCLUDED.priority,
			needs_review = EXCLUDED.needs_review,
			row_count = EXCLUDED.row_count,
			column_count = EXCLUDED.column_count,
			table_types = EXCLUDED.table_types,
			record = EXCLUDED.record,
			processed_at = EXCLUDED.processed_at,
			updated_at = NOW()`

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("tableRecordRepo.Upsert: %w", err)
	}
	return nil
}

func (r *tableRecordRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TableRecord, error) {
	var body string
	err := r.db.GetContext(ctx, &body, "SELECT record FROM table_records WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("tableRecordRepo.GetByID: %w", err)
	}
	var rec domain.TableRecord
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return nil, fmt.Errorf("tableRecordRepo.GetByID decode: %w", err)
	}
	return &rec, nil
}

// buildRecordWhere constructs a dynamic WHERE clause for table_records queries.
func buildRecordWhere(filters domain.RecordFilters) (clause string, args []interface{}) {
	clause = "WHERE 1 = 1"
	argN := 1
	if filters.Document != "" {
		clause += fmt.Sprintf(" AND source_document = $%d", argN)
		args = append(args, filters.Document)
		argN++
	}
	if filters.System != "" {
		clause += fmt.Sprintf(" AND chemical_system = $%d", argN)
		args = append(args, filters.System)
		argN++
	}
	if filters.Priority != "" {
		clause += fmt.Sprintf(" AND priority = $%d", argN)
		args = append(args, string(filters.Priority))
		argN++
	}
	if filters.NeedsReview != nil {
		clause += fmt.Sprintf(" AND needs_review = $%d", argN)
		args = append(args, *filters.NeedsReview)
		argN++ //nolint:ineffassign // argN kept incremented for consistency
	}
	return clause, args
}

func (r *tableRecordRepo) List(ctx context.Context, filters domain.RecordFilters) ([]domain.TableRecord, int, error) {
	where, args := buildRecordWhere(filters)

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM table_records "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("tableRecordRepo.List count: %w", err)
	}

	query := fmt.Sprintf(`SELECT record FROM table_records %s
		ORDER BY source_document, table_index
		OFFSET %d LIMIT %d`, where, filters.Offset, filters.Limit)
	var bodies []string
	if err := r.db.SelectContext(ctx, &bodies, query, args...); err != nil {
		return nil, 0, fmt.Errorf("tableRecordRepo.List: %w", err)
	}

	recs := make([]domain.TableRecord, len(bodies))
	for i, b := range bodies {
		if err := json.Unmarshal([]byte(b), &recs[i]); err != nil {
			return nil, 0, fmt.Errorf("tableRecordRepo.List decode: %w", err)
		}
	}
	return recs, total, nil
}
