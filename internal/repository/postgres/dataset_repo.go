package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"soltab/internal/consolidate"
	"soltab/internal/csvexport"
	"soltab/internal/domain"
	"soltab/internal/port"
)

type datasetRepo struct {
	db *sqlx.DB
}

// NewDatasetRepo creates a new PostgreSQL-backed DatasetRepository.
func NewDatasetRepo(db *sqlx.DB) port.DatasetRepository {
	return &datasetRepo{db: db}
}

type mergedTableRow struct {
	ID             uuid.UUID `db:"id"`
	Name           string    `db:"name"`
	SourceDocument string    `db:"source_document"`
	ChemicalSystem string    `db:"chemical_system"`
	TableRange     string    `db:"table_range"`
	RowCount       int       `db:"row_count"`
	ColumnCount    int       `db:"column_count"`
	TableTypes     string    `db:"table_types"`
	Sources        string    `db:"sources"`
	Data           string    `db:"data"`
}

type tableRowRow struct {
	MergedID       uuid.UUID `db:"merged_id"`
	RowIndex       int       `db:"row_index"`
	SourceDocument string    `db:"source_document"`
	Page           int       `db:"page"`
	TableIndex     int       `db:"table_index"`
	ChemicalSystem string    `db:"chemical_system"`
	Data           string    `db:"data"`
	SearchText     string    `db:"search_text"`
}

func newMergedTableRow(m *domain.MergedTable) (*mergedTableRow, error) {
	types, err := json.Marshal(nonNilTypes(m.TableTypes))
	if err != nil {
		return nil, err
	}
	sources, err := json.Marshal(m.Sources)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(m.Table)
	if err != nil {
		return nil, err
	}
	row := &mergedTableRow{
		ID:             m.ID,
		Name:           m.Name,
		ChemicalSystem: m.System,
		TableRange:     m.TableRange,
		TableTypes:     string(types),
		Sources:        string(sources),
		Data:           string(data),
	}
	if len(m.Sources) > 0 {
		row.SourceDocument = m.Sources[0].SourceDocument
	}
	if m.Table != nil {
		row.RowCount, row.ColumnCount = m.Table.NumRows(), m.Table.NumCols()
	}
	return row, nil
}

func (row *mergedTableRow) toDomain() (*domain.MergedTable, error) {
	m := &domain.MergedTable{
		ID:         row.ID,
		Name:       row.Name,
		System:     row.ChemicalSystem,
		TableRange: row.TableRange,
	}
	if err := json.Unmarshal([]byte(row.TableTypes), &m.TableTypes); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(row.Sources), &m.Sources); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(row.Data), &m.Table); err != nil {
		return nil, err
	}
	return m, nil
}

// searchRows flattens a merged table into one searchable row per data row.
func searchRows(m *domain.MergedTable) ([]tableRowRow, error) {
	if m.Table == nil {
		return nil, nil
	}
	sources := consolidate.RowSources(m)
	out := make([]tableRowRow, 0, len(m.Table.Rows))
	for i, vals := range m.Table.Rows {
		obj := make(map[string]domain.Value, len(m.Table.Columns))
		var text []string
		for c, col := range m.Table.Columns {
			if c >= len(vals) {
				break
			}
			obj[col.Name] = vals[c]
			if s := csvexport.FormatValue(vals[c]); s != "" {
				text = append(text, s)
			}
		}
		data, err := json.Marshal(obj)
		if err != nil {
			return nil, err
		}
		src := sources[i]
		out = append(out, tableRowRow{
			MergedID:       m.ID,
			RowIndex:       i,
			SourceDocument: src.SourceDocument,
			Page:           src.Page,
			TableIndex:     src.TableIndex,
			ChemicalSystem: m.System,
			Data:           string(data),
			SearchText:     strings.ToLower(strings.Join(text, " ")),
		})
	}
	return out, nil
}

func (r *datasetRepo) Save(ctx context.Context, ds *domain.Dataset) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("datasetRepo.Save begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// table_rows go with their merged table via ON DELETE CASCADE
	if _, err := tx.ExecContext(ctx, "DELETE FROM merged_tables"); err != nil {
		return fmt.Errorf("datasetRepo.Save clear: %w", err)
	}

	for i := range ds.Tables {
		m := &ds.Tables[i]
		row, err := newMergedTableRow(m)
		if err != nil {
			return fmt.Errorf("datasetRepo.Save encode %s: %w", m.Name, err)
		}
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO merged_tables (
				id, name, source_document, chemical_system, table_range,
				row_count, column_count, table_types, sources, data, created_at
			) VALUES (
				:id, :name, :source_document, :chemical_system, :table_range,
				:row_count, :column_count, :table_types, :sources, :data, NOW()
			)`, row)
		if err != nil {
			return fmt.Errorf("datasetRepo.Save merged %s: %w", m.Name, err)
		}

		rows, err := searchRows(m)
		if err != nil {
			return fmt.Errorf("datasetRepo.Save rows %s: %w", m.Name, err)
		}
		for j := range rows {
			_, err = tx.NamedExecContext(ctx, `
				INSERT INTO table_rows (
					merged_id, row_index, source_document, page, table_index,
					chemical_system, data, search_text
				) VALUES (
					:merged_id, :row_index, :source_document, :page, :table_index,
					:chemical_system, :data, :search_text
				)`, &rows[j])
			if err != nil {
				return fmt.Errorf("datasetRepo.Save row %d of %s: %w", j, m.Name, err)
			}
		}
	}

	index, err := json.Marshal(ds.Index)
	if err != nil {
		return fmt.Errorf("datasetRepo.Save encode index: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO dataset_indexes (generated_at, data, created_at) VALUES ($1, $2, NOW())",
		ds.Index.GeneratedAt, string(index)); err != nil {
		return fmt.Errorf("datasetRepo.Save index: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("datasetRepo.Save commit: %w", err)
	}
	return nil
}

const mergedColumns = `id, name, source_document, chemical_system, table_range,
	row_count, column_count, table_types, sources, data`

func (r *datasetRepo) GetMerged(ctx context.Context, id uuid.UUID) (*domain.MergedTable, error) {
	var row mergedTableRow
	err := r.db.GetContext(ctx, &row, "SELECT "+mergedColumns+" FROM merged_tables WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("datasetRepo.GetMerged: %w", err)
	}
	m, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("datasetRepo.GetMerged decode: %w", err)
	}
	return m, nil
}

func (r *datasetRepo) ListMerged(ctx context.Context, offset, limit int) ([]domain.MergedTable, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM merged_tables"); err != nil {
		return nil, 0, fmt.Errorf("datasetRepo.ListMerged count: %w", err)
	}

	var rows []mergedTableRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT "+mergedColumns+" FROM merged_tables ORDER BY name LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("datasetRepo.ListMerged: %w", err)
	}

	out := make([]domain.MergedTable, 0, len(rows))
	for i := range rows {
		m, err := rows[i].toDomain()
		if err != nil {
			return nil, 0, fmt.Errorf("datasetRepo.ListMerged decode: %w", err)
		}
		out = append(out, *m)
	}
	return out, total, nil
}

// buildSearchWhere constructs a dynamic WHERE clause for table_rows queries.
func buildSearchWhere(filters domain.SearchFilters) (clause string, args []interface{}) {
	clause = "WHERE 1 = 1"
	argN := 1
	if q := strings.TrimSpace(filters.Query); q != "" {
		clause += fmt.Sprintf(" AND tr.search_text LIKE $%d", argN)
		args = append(args, "%"+escapeLike(strings.ToLower(q))+"%")
		argN++
	}
	if filters.Document != "" {
		clause += fmt.Sprintf(" AND tr.source_document = $%d", argN)
		args = append(args, filters.Document)
		argN++
	}
	if filters.System != "" {
		clause += fmt.Sprintf(" AND tr.chemical_system = $%d", argN)
		args = append(args, filters.System)
		argN++
	}
	if filters.DataType != "" {
		clause += fmt.Sprintf(" AND mt.table_types @> jsonb_build_array($%d::text)", argN)
		args = append(args, string(filters.DataType))
		argN++
	}
	if filters.NeedsReview != nil {
		clause += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM table_records rec
			WHERE rec.source_document = tr.source_document AND rec.table_index = tr.table_index
			AND rec.needs_review = $%d)`, argN)
		args = append(args, *filters.NeedsReview)
		argN++ //nolint:ineffassign // argN kept incremented for consistency
	}
	return clause, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type searchHitRow struct {
	MergedID       uuid.UUID `db:"merged_id"`
	RowIndex       int       `db:"row_index"`
	SourceDocument string    `db:"source_document"`
	Page           int       `db:"page"`
	TableIndex     int       `db:"table_index"`
	ChemicalSystem string    `db:"chemical_system"`
	Data           string    `db:"data"`
}

func (r *datasetRepo) Search(ctx context.Context, filters domain.SearchFilters) ([]domain.SearchHit, int, error) {
	where, args := buildSearchWhere(filters)
	from := "FROM table_rows tr JOIN merged_tables mt ON mt.id = tr.merged_id "

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+from+where, args...); err != nil {
		return nil, 0, fmt.Errorf("datasetRepo.Search count: %w", err)
	}

	query := fmt.Sprintf(`SELECT tr.merged_id, tr.row_index, tr.source_document, tr.page,
			tr.table_index, tr.chemical_system, tr.data
		%s%s
		ORDER BY tr.source_document, tr.table_index, tr.row_index
		OFFSET %d LIMIT %d`, from, where, filters.Offset, filters.Limit)
	var rows []searchHitRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("datasetRepo.Search: %w", err)
	}

	hits := make([]domain.SearchHit, len(rows))
	for i, row := range rows {
		hits[i] = domain.SearchHit{
			RecordID: row.MergedID,
			Provenance: domain.Provenance{
				SourceDocument: row.SourceDocument,
				Page:           row.Page,
				TableIndex:     row.TableIndex,
			},
			System:   row.ChemicalSystem,
			RowIndex: row.RowIndex,
		}
		if err := json.Unmarshal([]byte(row.Data), &hits[i].Row); err != nil {
			return nil, 0, fmt.Errorf("datasetRepo.Search decode: %w", err)
		}
	}
	return hits, total, nil
}

func (r *datasetRepo) LatestIndex(ctx context.Context) (*domain.MasterIndex, error) {
	var body string
	err := r.db.GetContext(ctx, &body, "SELECT data FROM dataset_indexes ORDER BY id DESC LIMIT 1")
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("datasetRepo.LatestIndex: %w", err)
	}
	var idx domain.MasterIndex
	if err := json.Unmarshal([]byte(body), &idx); err != nil {
		return nil, fmt.Errorf("datasetRepo.LatestIndex decode: %w", err)
	}
	return &idx, nil
}
