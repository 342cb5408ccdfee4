// Package consolidate merges runs of adjacent tables into unified tables and
// builds the master index of a dataset.
package consolidate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"soltab/internal/domain"
	"soltab/internal/header"
)

// Provenance columns appended to every merged table.
const (
	ColumnSourceFile = "source_file"
	ColumnTableIndex = "table_index"
	ColumnTableTypes = "table_types"
)

// Options tunes the adjacency heuristic.
type Options struct {
	// MaxColumnDelta is the largest column-count difference between
	// neighbouring tables of one sequence.
	MaxColumnDelta int
}

func DefaultOptions() Options {
	return Options{MaxColumnDelta: 2}
}

// Consolidator groups table records into sequences and merges them.
type Consolidator struct {
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

func New(opts Options, logger *zap.Logger) *Consolidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consolidator{opts: opts, logger: logger, now: time.Now}
}

// WithClock replaces the time source used for index timestamps.
func (c *Consolidator) WithClock(now func() time.Time) *Consolidator {
	c.now = now
	return c
}

// Sequences groups records of the same document whose table indices are
// consecutive, whose column counts differ by at most MaxColumnDelta and
// whose chemical systems do not conflict. Records without a table are
// skipped. Sequences come out in document and table order.
func (c *Consolidator) Sequences(records []*domain.TableRecord) [][]*domain.TableRecord {
	usable := make([]*domain.TableRecord, 0, len(records))
	for _, r := range records {
		if r != nil && r.Table != nil {
			usable = append(usable, r)
		}
	}
	sort.SliceStable(usable, func(i, j int) bool {
		a, b := usable[i].Provenance, usable[j].Provenance
		if a.SourceDocument != b.SourceDocument {
			return a.SourceDocument < b.SourceDocument
		}
		return a.TableIndex < b.TableIndex
	})

	var out [][]*domain.TableRecord
	var cur []*domain.TableRecord
	system := ""
	for _, r := range usable {
		if len(cur) > 0 && !c.adjacent(cur[len(cur)-1], r, system) {
			out = append(out, cur)
			cur, system = nil, ""
		}
		cur = append(cur, r)
		if system == "" {
			system = r.System.Name
		}
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// adjacent reports whether next continues a sequence ending in prev whose
// chemical system so far is system.
func (c *Consolidator) adjacent(prev, next *domain.TableRecord, system string) bool {
	if prev.Provenance.SourceDocument != next.Provenance.SourceDocument {
		return false
	}
	if next.Provenance.TableIndex != prev.Provenance.TableIndex+1 {
		return false
	}
	delta := prev.Table.NumCols() - next.Table.NumCols()
	if delta < 0 {
		delta = -delta
	}
	if delta > c.opts.MaxColumnDelta {
		return false
	}
	return compatibleSystems(system, next.System.Name)
}

func compatibleSystems(a, b string) bool {
	return a == "" || b == "" || strings.EqualFold(a, b)
}

// Merge concatenates a sequence into one table. Columns are the union of the
// sequence's columns in first-seen order; missing cells are null. The
// provenance columns source_file, table_index and table_types are appended.
// A sequence that is empty, spans documents or skips a table index is
// rejected with ErrInvalidSequence.
func (c *Consolidator) Merge(seq []*domain.TableRecord) (*domain.MergedTable, error) {
	if err := c.checkSequence(seq); err != nil {
		return nil, err
	}

	var cols []domain.Column
	index := map[string]int{}
	present := map[domain.ColumnType]bool{}
	for _, r := range seq {
		for _, col := range r.Table.Columns {
			if _, ok := index[col.Name]; !ok {
				index[col.Name] = len(cols)
				cols = append(cols, col)
			}
		}
		for _, typ := range r.TableTypes {
			present[typ] = true
		}
	}
	width := len(cols)
	names := make([]string, 0, width+3)
	for _, col := range cols {
		names = append(names, col.Name)
	}
	names = header.MakeUnique(append(names, ColumnSourceFile, ColumnTableIndex, ColumnTableTypes))
	cols = append(cols,
		domain.Column{Name: names[width], Type: domain.ColumnText},
		domain.Column{Name: names[width+1], Type: domain.ColumnNumeric},
		domain.Column{Name: names[width+2], Type: domain.ColumnText},
	)

	first, last := seq[0].Provenance, seq[len(seq)-1].Provenance
	merged := &domain.MergedTable{
		TableRange: fmt.Sprintf("%03d-%03d", first.TableIndex, last.TableIndex),
		TableTypes: orderedTypes(present),
		Table:      &domain.Table{Provenance: first, Columns: cols},
	}
	merged.Name = fmt.Sprintf("%s_tables_%s", first.SourceDocument, merged.TableRange)
	merged.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte("soltab:merged:"+merged.Name))

	for _, r := range seq {
		merged.Sources = append(merged.Sources, r.Provenance)
		if merged.System == "" {
			merged.System = r.System.Name
		}
		types := make([]string, len(r.TableTypes))
		for i, t := range r.TableTypes {
			types[i] = string(t)
		}
		for _, src := range r.Table.Rows {
			row := make([]domain.Value, len(cols))
			for i := range row[:width] {
				row[i] = domain.Null()
			}
			for j, col := range r.Table.Columns {
				row[index[col.Name]] = src[j]
			}
			row[width] = domain.Text(r.Provenance.TableName())
			row[width+1] = domain.Number(float64(r.Provenance.TableIndex), fmt.Sprint(r.Provenance.TableIndex))
			row[width+2] = domain.Text(strings.Join(types, ", "))
			merged.Table.Rows = append(merged.Table.Rows, row)
		}
	}
	return merged, nil
}

func (c *Consolidator) checkSequence(seq []*domain.TableRecord) error {
	if len(seq) == 0 {
		return fmt.Errorf("empty sequence: %w", domain.ErrInvalidSequence)
	}
	system := ""
	for i, r := range seq {
		if r == nil || r.Table == nil {
			return fmt.Errorf("table %d of sequence has no data: %w", i, domain.ErrInvalidSequence)
		}
		if i > 0 && !c.adjacent(seq[i-1], r, system) {
			prev := seq[i-1]
			return fmt.Errorf("%s does not follow %s: %w", r.Provenance.Label(), prev.Provenance.Label(), domain.ErrInvalidSequence)
		}
		if system == "" {
			system = r.System.Name
		}
	}
	return nil
}

// BuildIndex summarizes records and merged tables into a master index.
func (c *Consolidator) BuildIndex(records []*domain.TableRecord, merged []domain.MergedTable) domain.MasterIndex {
	idx := domain.MasterIndex{
		GeneratedAt:  c.now().UTC(),
		MergedTables: len(merged),
		Documents:    []domain.DocumentSummary{},
		Systems:      []string{},
		Entries:      []domain.IndexEntry{},
	}
	docs := map[string]*domain.DocumentSummary{}
	systems := map[string]bool{}

	for _, r := range records {
		if r == nil {
			continue
		}
		rows, cols := 0, 0
		if r.Table != nil {
			rows, cols = r.Table.NumRows(), r.Table.NumCols()
		}
		idx.TotalTables++
		idx.TotalRows += rows
		if r.NeedsReview {
			idx.NeedsReview++
		}
		if r.System.Name != "" {
			systems[r.System.Name] = true
		}

		doc := r.Provenance.SourceDocument
		sum, ok := docs[doc]
		if !ok {
			sum = &domain.DocumentSummary{Document: doc}
			if sn, ok := ParseSourceName(doc); ok {
				sum.Series, sum.Part = sn.Series, sn.Part
			}
			docs[doc] = sum
		}
		sum.Tables++
		sum.Rows += rows

		types := r.TableTypes
		if types == nil {
			types = []domain.ColumnType{}
		}
		idx.Entries = append(idx.Entries, domain.IndexEntry{
			RecordID:    r.ID,
			Source:      r.Provenance,
			System:      r.System.Name,
			Rows:        rows,
			Columns:     cols,
			DataTypes:   types,
			Score:       r.Score,
			Priority:    r.Priority,
			NeedsReview: r.NeedsReview,
		})
	}

	for _, sum := range docs {
		idx.Documents = append(idx.Documents, *sum)
	}
	sort.Slice(idx.Documents, func(i, j int) bool { return idx.Documents[i].Document < idx.Documents[j].Document })
	for s := range systems {
		idx.Systems = append(idx.Systems, s)
	}
	sort.Strings(idx.Systems)
	sort.SliceStable(idx.Entries, func(i, j int) bool {
		a, b := idx.Entries[i].Source, idx.Entries[j].Source
		if a.SourceDocument != b.SourceDocument {
			return a.SourceDocument < b.SourceDocument
		}
		return a.TableIndex < b.TableIndex
	})
	return idx
}

// Consolidate merges every sequence, singletons included, and indexes the result.
func (c *Consolidator) Consolidate(records []*domain.TableRecord) *domain.Dataset {
	ds := &domain.Dataset{Tables: []domain.MergedTable{}}
	for _, seq := range c.Sequences(records) {
		m, err := c.Merge(seq)
		if err != nil {
			c.logger.Warn("consolidate.Consolidator: skipping sequence",
				zap.String("first", seq[0].Provenance.Label()),
				zap.Error(err),
			)
			continue
		}
		ds.Tables = append(ds.Tables, *m)
	}
	ds.Index = c.BuildIndex(records, ds.Tables)
	c.logger.Info("consolidate.Consolidator: dataset consolidated",
		zap.Int("tables", ds.Index.TotalTables),
		zap.Int("merged_tables", len(ds.Tables)),
		zap.Int("rows", ds.Index.TotalRows),
		zap.Int("needs_review", ds.Index.NeedsReview),
	)
	return ds
}
