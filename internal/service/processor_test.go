package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"soltab/internal/consensus"
	"soltab/internal/domain"
	"soltab/internal/header"
	"soltab/internal/normalize"
	"soltab/internal/phase"
	"soltab/internal/port"
	"soltab/internal/service"
	"soltab/internal/validator"
	"soltab/internal/validator/science"
	"soltab/mocks"
)

var fixedNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func rawGrid(method string, rows ...[]string) *domain.Grid {
	cells := make([][]*string, len(rows))
	for i, r := range rows {
		cells[i] = make([]*string, len(r))
		for j, v := range r {
			if v != "" {
				cells[i][j] = domain.Str(v)
			}
		}
	}
	return domain.MustGrid(domain.Provenance{SourceDocument: "SDS-31_Part2", TableIndex: 4, ExtractionMethod: method}, nil, cells)
}

func newProcessor(extractors []port.GridExtractor, systems service.SystemResolver) *service.Processor {
	runner := consensus.NewRunner(extractors, consensus.NewReconciler(consensus.DefaultOptions(), nil), 0, nil)
	engine := validator.NewEngine(validator.NewDefaultRegistry(science.DefaultThresholds()), nil)
	return service.NewProcessor(
		runner,
		phase.NewSplitter(normalize.Default(), 0, nil),
		header.DefaultInferencer(nil),
		systems,
		engine,
		nil,
		service.ProcessorConfig{UseColumnAnalysis: true},
		nil,
	).WithClock(func() time.Time { return fixedNow })
}

func solubilityRows() [][]string {
	return [][]string{
		{"t, °C", "NaCl, mass %", "Solid phase"},
		{"0", "26.28", "Ice"},
		{"25", "26.45", "NaCl"},
		{"50", "26.84", "NaCl"},
		{"75", "27.32", "NaCl"},
	}
}

func TestProcessor_Process(t *testing.T) {
	ref := port.TableRef{Document: "SDS-31_Part2", Page: 14, TableIndex: 4}
	a := &mocks.MockGridExtractor{MethodName: "lattice"}
	a.On("Extract", mock.Anything, ref).Return(rawGrid("lattice", solubilityRows()...), nil)
	b := &mocks.MockGridExtractor{MethodName: "stream"}
	b.On("Extract", mock.Anything, ref).Return(rawGrid("stream", solubilityRows()...), nil)

	sys := &mocks.MockSystemResolver{}
	sys.On("Resolve", mock.Anything, ref).Return(domain.ChemicalSystem{Name: "NaCl-H2O", Confidence: domain.SystemConfidenceHigh, Page: 14})

	rec, err := newProcessor([]port.GridExtractor{a, b}, sys).Process(context.Background(), ref)
	require.NoError(t, err)

	assert.Equal(t, service.RecordID(rec.Provenance), rec.ID)
	assert.Equal(t, 14, rec.Provenance.Page)
	assert.Equal(t, consensus.MergedMethod, rec.Provenance.ExtractionMethod)
	assert.Equal(t, "NaCl-H2O", rec.System.Name)
	assert.Equal(t, fixedNow, rec.ProcessedAt)
	require.NotNil(t, rec.Consensus)
	assert.InDelta(t, 1.0, rec.Consensus.Agreement, 1e-9)
	require.NotNil(t, rec.Table)
	assert.Equal(t, 3, rec.Table.NumCols())
	assert.Len(t, rec.Assignments, 3)
	assert.GreaterOrEqual(t, rec.Table.NumRows(), 4)
	assert.NotEmpty(t, rec.HeaderMethod)
	assert.Equal(t, validator.Score(rec.Flags), rec.Score)
	assert.Equal(t, validator.PriorityFor(rec.Flags), rec.Priority)
	for _, f := range rec.Flags {
		assert.NotEqual(t, "no_extraction", f.Kind)
	}
	sys.AssertExpectations(t)
}

func TestProcessor_NoExtraction(t *testing.T) {
	ref := port.TableRef{Document: "SDS-31_Part2", Page: 3, TableIndex: 9}
	a := &mocks.MockGridExtractor{MethodName: "lattice"}
	a.On("Extract", mock.Anything, ref).Return(nil, errors.New("no table on page"))

	rec, err := newProcessor([]port.GridExtractor{a}, nil).Process(context.Background(), ref)
	require.NoError(t, err)

	assert.True(t, rec.Consensus.NoExtraction)
	assert.True(t, rec.NeedsReview)
	assert.LessOrEqual(t, rec.Score, 85)
	assert.Equal(t, domain.PriorityMustReview, rec.Priority)
	assert.Equal(t, domain.SystemConfidenceNone, rec.System.Confidence)
	require.NotNil(t, rec.Table)
	assert.Zero(t, rec.Table.NumCols())

	kinds := map[string]bool{}
	for _, f := range rec.Flags {
		kinds[f.Kind] = true
	}
	assert.True(t, kinds["no_extraction"])
}

func TestProcessor_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ref := port.TableRef{Document: "SDS-1", TableIndex: 1}
	a := &mocks.MockGridExtractor{MethodName: "lattice"}
	a.On("Extract", mock.Anything, ref).Return(nil, context.Canceled)

	_, err := newProcessor([]port.GridExtractor{a}, nil).Process(ctx, ref)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecordID_Stable(t *testing.T) {
	p := domain.Provenance{SourceDocument: "SDS-7", TableIndex: 2}
	assert.Equal(t, service.RecordID(p), service.RecordID(p))
	assert.NotEqual(t, service.RecordID(p), service.RecordID(domain.Provenance{SourceDocument: "SDS-7", TableIndex: 3}))
}
