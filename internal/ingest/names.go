// Package ingest reads the raw grids written by external table-extraction
// tools. Each extraction method owns a directory of CSV files or XLSX
// workbooks.
package ingest

import (
	"fmt"
	"regexp"
	"strconv"

	"soltab/internal/domain"
	"soltab/internal/port"
)

var (
	// <document>[_p<page>]_table_<index>.csv
	csvNameRe = regexp.MustCompile(`^(.+?)(?:_p(\d+))?_table_(\d+)\.csv$`)
	// sheet names inside <document>.xlsx: [p<page>_]table_<index>
	sheetNameRe = regexp.MustCompile(`^(?:p(\d+)_)?table_(\d+)$`)
)

// ParseTableFile reads a table reference from a CSV file name.
func ParseTableFile(name string) (port.TableRef, bool) {
	m := csvNameRe.FindStringSubmatch(name)
	if m == nil {
		return port.TableRef{}, false
	}
	ref := port.TableRef{Document: m[1]}
	ref.Page, _ = strconv.Atoi(m[2])
	ref.TableIndex, _ = strconv.Atoi(m[3])
	return ref, true
}

// parseSheetName reads the page and table index from a workbook sheet name.
func parseSheetName(name string) (page, index int, ok bool) {
	m := sheetNameRe.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, false
	}
	page, _ = strconv.Atoi(m[1])
	index, _ = strconv.Atoi(m[2])
	return page, index, true
}

// TableFileName returns the CSV file name of ref.
func TableFileName(ref port.TableRef) string {
	if ref.Page > 0 {
		return fmt.Sprintf("%s_p%d_table_%03d.csv", ref.Document, ref.Page, ref.TableIndex)
	}
	return fmt.Sprintf("%s_table_%03d.csv", ref.Document, ref.TableIndex)
}

// rectangular pads ragged rows with nulls and turns empty cells into nulls.
func rectangular(prov domain.Provenance, rows [][]string) (*domain.Grid, error) {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	cells := make([][]*string, 0, len(rows))
	for _, r := range rows {
		row := make([]*string, width)
		blank := true
		for i, v := range r {
			if v == "" {
				continue
			}
			row[i] = &v
			blank = false
		}
		if blank {
			continue
		}
		cells = append(cells, row)
	}
	return domain.NewGrid(prov, nil, cells)
}
