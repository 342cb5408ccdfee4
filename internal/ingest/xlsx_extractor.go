package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"soltab/internal/domain"
	"soltab/internal/port"
)

// XLSXExtractor reads grids from workbooks <root>/<document>.xlsx holding one
// sheet per table, named table_<NNN> or p<page>_table_<NNN>.
type XLSXExtractor struct {
	name string
	root string
}

func NewXLSXExtractor(name, root string) *XLSXExtractor {
	return &XLSXExtractor{name: name, root: root}
}

func (e *XLSXExtractor) Name() string { return e.name }

func (e *XLSXExtractor) Extract(ctx context.Context, ref port.TableRef) (*domain.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(e.root, ref.Document+".xlsx")
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sheet := ""
	for _, name := range f.GetSheetList() {
		if _, idx, ok := parseSheetName(name); ok && idx == ref.TableIndex {
			sheet = name
			break
		}
	}
	if sheet == "" {
		return nil, fmt.Errorf("%s has no sheet for table %d: %w", path, ref.TableIndex, os.ErrNotExist)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s of %s: %w", sheet, path, err)
	}
	prov := domain.Provenance{SourceDocument: ref.Document, Page: ref.Page, TableIndex: ref.TableIndex, ExtractionMethod: e.name}
	return rectangular(prov, rows)
}

// workbookRefs lists the tables held in one workbook.
func workbookRefs(path, document string) ([]port.TableRef, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var refs []port.TableRef
	for _, name := range f.GetSheetList() {
		if page, idx, ok := parseSheetName(name); ok {
			refs = append(refs, port.TableRef{Document: document, Page: page, TableIndex: idx})
		}
	}
	return refs, nil
}
