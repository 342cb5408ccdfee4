// Package xlsxexport writes a consolidated dataset as an Excel workbook: an
// index sheet, a quality sheet and one sheet per merged table.
package xlsxexport

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"soltab/internal/csvexport"
	"soltab/internal/domain"
)

const (
	IndexSheet   = "Index"
	QualitySheet = "Quality"

	maxSheetName = 31
)

var indexColumns = []any{"Sheet", "Table", "Chemical System", "Table Range", "Sources", "Rows", "Columns", "Data Types"}

var qualityColumns = []any{"Table", "Chemical System", "Rows", "Columns", "Quality Score", "Priority", "Needs Review", "Critical", "Warnings", "Info"}

// WriteDataset renders ds and the per-table quality records into a workbook
// and writes it to w.
func WriteDataset(w io.Writer, ds *domain.Dataset, records []*domain.TableRecord) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", IndexSheet); err != nil {
		return fmt.Errorf("renaming default sheet: %w", err)
	}
	if _, err := f.NewSheet(QualitySheet); err != nil {
		return fmt.Errorf("creating quality sheet: %w", err)
	}

	used := map[string]bool{IndexSheet: true, QualitySheet: true}
	indexRows := [][]any{indexColumns}
	for i := range ds.Tables {
		m := &ds.Tables[i]
		sheet := SheetName(m.Name, used)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("creating sheet for %s: %w", m.Name, err)
		}
		if err := writeRows(f, sheet, tableRows(m.Table)); err != nil {
			return err
		}
		indexRows = append(indexRows, indexRow(sheet, m))
	}
	if err := writeRows(f, IndexSheet, indexRows); err != nil {
		return err
	}

	qualityRows := [][]any{qualityColumns}
	for _, r := range records {
		if r != nil {
			qualityRows = append(qualityRows, qualityRow(r))
		}
	}
	if err := writeRows(f, QualitySheet, qualityRows); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// tableRows keeps numbers numeric. Values carrying a phase label are written
// as text so the label survives.
func tableRows(t *domain.Table) [][]any {
	if t == nil {
		return nil
	}
	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Name
	}
	rows := [][]any{header}
	for _, vals := range t.Rows {
		row := make([]any, len(t.Columns))
		for i := range row {
			if i >= len(vals) {
				continue
			}
			v := vals[i]
			switch {
			case v.IsNumber() && !v.HasPhase() && v.Reference == "":
				row[i] = v.Number
			case v.IsNull() && !v.HasPhase() && v.Reference == "":
				row[i] = nil
			default:
				row[i] = csvexport.FormatValue(v)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func indexRow(sheet string, m *domain.MergedTable) []any {
	sources := make([]string, len(m.Sources))
	for i, s := range m.Sources {
		sources[i] = s.TableName()
	}
	types := make([]string, len(m.TableTypes))
	for i, t := range m.TableTypes {
		types[i] = string(t)
	}
	rows, cols := 0, 0
	if m.Table != nil {
		rows, cols = m.Table.NumRows(), m.Table.NumCols()
	}
	return []any{sheet, m.Name, m.System, m.TableRange, strings.Join(sources, ";"), rows, cols, strings.Join(types, ";")}
}

func qualityRow(r *domain.TableRecord) []any {
	rows, cols := 0, 0
	if r.Table != nil {
		rows, cols = r.Table.NumRows(), r.Table.NumCols()
	}
	c, w, i := r.FlagCounts()
	review := "No"
	if r.NeedsReview {
		review = "Yes"
	}
	return []any{r.Provenance.TableName(), r.System.Name, rows, cols, r.Score, string(r.Priority), review, c, w, i}
}

var sheetNameReplacer = strings.NewReplacer(":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")")

// SheetName returns a valid, unused worksheet name derived from name and
// marks it used.
func SheetName(name string, used map[string]bool) string {
	base := sheetNameReplacer.Replace(name)
	if base == "" {
		base = "Table"
	}
	if len(base) > maxSheetName {
		base = base[:maxSheetName]
	}
	out := base
	for n := 2; used[strings.ToLower(out)] || used[out]; n++ {
		suffix := fmt.Sprintf("~%d", n)
		cut := base
		if len(cut)+len(suffix) > maxSheetName {
			cut = cut[:maxSheetName-len(suffix)]
		}
		out = cut + suffix
	}
	used[out] = true
	used[strings.ToLower(out)] = true
	return out
}
