// Package consensus reconciles several extractions of the same table into
// one grid and measures how much the extraction methods agree.
package consensus

import (
	"strings"

	"go.uber.org/zap"

	"soltab/internal/domain"
)

// MergedMethod is the extraction method recorded on voted grids.
const MergedMethod = "consensus"

// Options tunes comparison and review cutoffs.
type Options struct {
	Tolerance        float64
	ReviewAgreement  float64
	MaxDiscrepancies int
}

// DefaultOptions mirrors the booklet pipeline defaults.
func DefaultOptions() Options {
	return Options{Tolerance: 1e-6, ReviewAgreement: 0.95, MaxDiscrepancies: 5}
}

// Extraction is one method's grid for a table.
type Extraction struct {
	Method string
	Grid   *domain.Grid
}

// Reconciler compares extractions pairwise and votes a merged grid.
type Reconciler struct {
	opts   Options
	logger *zap.Logger
}

func NewReconciler(opts Options, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{opts: opts, logger: logger}
}

// Reconcile merges the extractions. Nil and empty grids count as failed
// methods. With no usable extraction the result has agreement 0 and no grid;
// a single extraction passes through unchanged.
func (r *Reconciler) Reconcile(extractions []Extraction) *domain.ConsensusResult {
	res := &domain.ConsensusResult{}
	var usable []Extraction
	for _, e := range extractions {
		if e.Grid == nil {
			addFailure(res, e.Method, "no grid")
			continue
		}
		if rows, cols := e.Grid.Shape(); rows == 0 || cols == 0 {
			addFailure(res, e.Method, domain.ErrEmptyExtraction.Error())
			continue
		}
		usable = append(usable, e)
		res.Methods = append(res.Methods, e.Method)
	}

	switch len(usable) {
	case 0:
		res.NoExtraction = true
		res.Agreement = 0
		res.NeedsReview = true
		return res
	case 1:
		res.Merged = usable[0].Grid
		res.Agreement = 1
		return res
	}

	var sum float64
	for i := 0; i < len(usable); i++ {
		for j := i + 1; j < len(usable); j++ {
			pair, diffs := Compare(usable[i], usable[j], r.opts.Tolerance)
			res.Pairs = append(res.Pairs, pair)
			res.Discrepancies = append(res.Discrepancies, diffs...)
			sum += pair.Agreement
		}
	}
	res.Agreement = sum / float64(len(res.Pairs))
	res.Merged = Vote(usable)
	res.NeedsReview = res.Agreement < r.opts.ReviewAgreement || len(res.Discrepancies) > r.opts.MaxDiscrepancies

	r.logger.Debug("consensus.Reconciler: reconciled extractions",
		zap.String("table", res.Merged.Provenance.Label()),
		zap.Strings("methods", res.Methods),
		zap.Float64("agreement", res.Agreement),
		zap.Int("discrepancies", len(res.Discrepancies)),
	)
	return res
}

func addFailure(res *domain.ConsensusResult, method, reason string) {
	if res.Failures == nil {
		res.Failures = make(map[string]string)
	}
	res.Failures[method] = reason
}

// Vote builds a grid over the largest shape among the extractions where each
// cell takes the most frequent non-null value. Ties go to the value seen
// first in method order.
func Vote(extractions []Extraction) *domain.Grid {
	maxRows, maxCols := 0, 0
	var header []string
	for _, e := range extractions {
		rows, cols := e.Grid.Shape()
		if rows > maxRows {
			maxRows = rows
		}
		if cols > maxCols {
			maxCols = cols
			header = e.Grid.Header()
		}
	}

	cells := make([][]*string, maxRows)
	for r := 0; r < maxRows; r++ {
		cells[r] = make([]*string, maxCols)
		for c := 0; c < maxCols; c++ {
			cells[r][c] = voteCell(extractions, r, c)
		}
	}

	prov := extractions[0].Grid.Provenance
	prov.ExtractionMethod = MergedMethod
	// cells are sized from maxRows x maxCols
	return domain.MustGrid(prov, header, cells)
}

func voteCell(extractions []Extraction, r, c int) *string {
	var order []string
	counts := make(map[string]int)
	for _, e := range extractions {
		rows, cols := e.Grid.Shape()
		if r >= rows || c >= cols {
			continue
		}
		t := e.Grid.Text(r, c)
		if t == nil {
			continue
		}
		v := strings.TrimSpace(*t)
		if _, ok := counts[v]; !ok {
			order = append(order, v)
		}
		counts[v]++
	}
	if len(order) == 0 {
		return nil
	}
	best := order[0]
	for _, v := range order[1:] {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return &best
}
