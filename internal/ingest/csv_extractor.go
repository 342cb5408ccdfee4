package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"soltab/internal/config"
	"soltab/internal/consensus"
	"soltab/internal/domain"
	"soltab/internal/port"
)

// CSVExtractor reads grids from <root>/<document>[_p<page>]_table_<NNN>.csv.
type CSVExtractor struct {
	name string
	root string
}

func NewCSVExtractor(name, root string) *CSVExtractor {
	return &CSVExtractor{name: name, root: root}
}

func (e *CSVExtractor) Name() string { return e.name }

// Extract reads the table's CSV. Every row, including any header text, is
// returned as data.
func (e *CSVExtractor) Extract(ctx context.Context, ref port.TableRef) (*domain.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := e.locate(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		rows = append(rows, rec)
	}
	prov := domain.Provenance{SourceDocument: ref.Document, Page: ref.Page, TableIndex: ref.TableIndex, ExtractionMethod: e.name}
	return rectangular(prov, rows)
}

// locate prefers the page-qualified file name and falls back to the plain one.
func (e *CSVExtractor) locate(ref port.TableRef) (string, error) {
	names := []string{TableFileName(ref)}
	if ref.Page > 0 {
		plain := ref
		plain.Page = 0
		names = append(names, TableFileName(plain))
	}
	for _, n := range names {
		p := filepath.Join(e.root, n)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%s table %d in %s: %w", ref.Document, ref.TableIndex, e.root, os.ErrNotExist)
}

// RegisterMethods registers the file-based extraction method kinds.
func RegisterMethods() {
	consensus.RegisterMethod("csv", func(cfg *config.MethodConfig) (port.GridExtractor, error) {
		return NewCSVExtractor(cfg.Name, cfg.Root), nil
	})
	consensus.RegisterMethod("xlsx", func(cfg *config.MethodConfig) (port.GridExtractor, error) {
		return NewXLSXExtractor(cfg.Name, cfg.Root), nil
	})
}
