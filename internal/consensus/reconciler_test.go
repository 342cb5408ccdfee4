package consensus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"soltab/internal/config"
	"soltab/internal/consensus"
	"soltab/internal/domain"
	"soltab/internal/port"
	"soltab/mocks"
)

func grid(method string, rows ...[]string) *domain.Grid {
	cells := make([][]*string, len(rows))
	for i, r := range rows {
		cells[i] = make([]*string, len(r))
		for j, v := range r {
			if v != "" {
				cells[i][j] = domain.Str(v)
			}
		}
	}
	return domain.MustGrid(domain.Provenance{SourceDocument: "SDS-7_Part1", TableIndex: 3, ExtractionMethod: method}, nil, cells)
}

func TestCompare_IdenticalGrids(t *testing.T) {
	a := consensus.Extraction{Method: "lattice", Grid: grid("lattice", []string{"25", "26.4"}, []string{"50", ""})}
	b := consensus.Extraction{Method: "stream", Grid: grid("stream", []string{"25.0", "26.4"}, []string{"50", ""})}

	pair, diffs := consensus.Compare(a, b, 1e-6)
	assert.InDelta(t, 1.0, pair.Agreement, 1e-9)
	assert.Empty(t, diffs)
}

func TestCompare_ShapeMismatch(t *testing.T) {
	a := consensus.Extraction{Method: "lattice", Grid: grid("lattice", []string{"25", "26.4"})}
	b := consensus.Extraction{Method: "stream", Grid: grid("stream", []string{"25", "26.4", "A"})}

	pair, diffs := consensus.Compare(a, b, 1e-6)
	assert.InDelta(t, 0.5, pair.Agreement, 1e-9)
	require.Len(t, diffs, 1)
	assert.Equal(t, domain.DiscrepancyShape, diffs[0].Type)
	assert.Equal(t, [2]int{1, 2}, diffs[0].ShapeA)
	assert.Equal(t, [2]int{1, 3}, diffs[0].ShapeB)
}

func TestCompare_Symmetric(t *testing.T) {
	a := consensus.Extraction{Method: "a", Grid: grid("a", []string{"25", "26.4"}, []string{"Ice", "x"})}
	b := consensus.Extraction{Method: "b", Grid: grid("b", []string{"25", "26.9"}, []string{"ice", ""})}

	ab, _ := consensus.Compare(a, b, 1e-6)
	ba, _ := consensus.Compare(b, a, 1e-6)
	assert.InDelta(t, 0.5, ab.Agreement, 1e-9)
	assert.Equal(t, ab.Agreement, ba.Agreement)
}

func TestValuesMatch(t *testing.T) {
	assert.True(t, consensus.ValuesMatch(nil, nil, 1e-6))
	assert.False(t, consensus.ValuesMatch(domain.Str("1"), nil, 1e-6))
	assert.True(t, consensus.ValuesMatch(domain.Str("1.0000001"), domain.Str("1"), 1e-6))
	assert.False(t, consensus.ValuesMatch(domain.Str("1.01"), domain.Str("1"), 1e-6))
	assert.True(t, consensus.ValuesMatch(domain.Str(" Ice "), domain.Str("ICE"), 1e-6))
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, consensus.Similarity("", ""), 1e-9)
	assert.InDelta(t, 0.75, consensus.Similarity("26.4", "26.9"), 1e-9)
	assert.Equal(t, consensus.Similarity("abc", "abd"), consensus.Similarity("abd", "abc"))
}

func TestReconcile_NoExtractions(t *testing.T) {
	r := consensus.NewReconciler(consensus.DefaultOptions(), nil)
	res := r.Reconcile(nil)
	assert.True(t, res.NoExtraction)
	assert.Zero(t, res.Agreement)
	assert.Nil(t, res.Merged)
}

func TestReconcile_SingleExtractionPassesThrough(t *testing.T) {
	g := grid("lattice", []string{"25", "26.4"})
	res := consensus.NewReconciler(consensus.DefaultOptions(), nil).Reconcile([]consensus.Extraction{{Method: "lattice", Grid: g}})

	assert.Same(t, g, res.Merged)
	assert.InDelta(t, 1.0, res.Agreement, 1e-9)
	assert.False(t, res.NeedsReview)
}

func TestReconcile_MajorityVote(t *testing.T) {
	a := grid("default", []string{"25", "26.4"}, []string{"50", "27.1"})
	b := grid("lattice", []string{"25", "26.9"}, []string{"50", "27.1"})
	c := grid("stream", []string{"25", "26.4"}, []string{"50", "27.1"})

	res := consensus.NewReconciler(consensus.DefaultOptions(), nil).Reconcile([]consensus.Extraction{
		{Method: "default", Grid: a}, {Method: "lattice", Grid: b}, {Method: "stream", Grid: c},
	})

	require.NotNil(t, res.Merged)
	assert.Equal(t, "26.4", *res.Merged.Text(0, 1))
	assert.Equal(t, consensus.MergedMethod, res.Merged.Provenance.ExtractionMethod)
	require.Len(t, res.Pairs, 3)
	// pairs: a-b 0.75, a-c 1.0, b-c 0.75
	assert.InDelta(t, 2.5/3, res.Agreement, 1e-9)
	assert.Len(t, res.Discrepancies, 2)
	assert.True(t, res.NeedsReview)
}

func TestReconcile_ReviewCutoffs(t *testing.T) {
	a := grid("a", []string{"1", "2", "3", "4"})
	b := grid("b", []string{"1", "2", "3", "4"})
	res := consensus.NewReconciler(consensus.DefaultOptions(), nil).Reconcile([]consensus.Extraction{
		{Method: "a", Grid: a}, {Method: "b", Grid: b},
	})
	assert.False(t, res.NeedsReview)
	assert.InDelta(t, 1.0, res.Agreement, 1e-9)
}

func TestVote_TieGoesToFirstMethod(t *testing.T) {
	a := grid("a", []string{"A"})
	b := grid("b", []string{"B"})
	merged := consensus.Vote([]consensus.Extraction{{Method: "a", Grid: a}, {Method: "b", Grid: b}})
	assert.Equal(t, "A", *merged.Text(0, 0))
}

func TestVote_CoversLargestShape(t *testing.T) {
	a := grid("a", []string{"1"})
	b := grid("b", []string{"1", "x"}, []string{"2", ""})
	merged := consensus.Vote([]consensus.Extraction{{Method: "a", Grid: a}, {Method: "b", Grid: b}})

	rows, cols := merged.Shape()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, "x", *merged.Text(0, 1))
	assert.Nil(t, merged.Text(1, 1))
}

func TestRunner_ExcludesFailedMethods(t *testing.T) {
	ref := port.TableRef{Document: "SDS-7_Part1", TableIndex: 3}
	ok := &mocks.MockGridExtractor{MethodName: "lattice"}
	ok.On("Extract", mock.Anything, ref).Return(grid("lattice", []string{"25", "26.4"}), nil)
	bad := &mocks.MockGridExtractor{MethodName: "stream"}
	bad.On("Extract", mock.Anything, ref).Return(nil, errors.New("java crashed"))

	runner := consensus.NewRunner([]port.GridExtractor{ok, bad}, consensus.NewReconciler(consensus.DefaultOptions(), nil), 2, nil)
	res, err := runner.Run(context.Background(), ref)

	require.NoError(t, err)
	assert.Equal(t, []string{"lattice"}, res.Methods)
	assert.Contains(t, res.Failures["stream"], "java crashed")
	assert.InDelta(t, 1.0, res.Agreement, 1e-9)
	ok.AssertExpectations(t)
	bad.AssertExpectations(t)
}

func TestRunner_AllMethodsFail(t *testing.T) {
	ref := port.TableRef{Document: "SDS-7_Part1", TableIndex: 9}
	bad := &mocks.MockGridExtractor{MethodName: "lattice"}
	bad.On("Extract", mock.Anything, ref).Return(nil, errors.New("no table"))

	runner := consensus.NewRunner([]port.GridExtractor{bad}, consensus.NewReconciler(consensus.DefaultOptions(), nil), 0, nil)
	res, err := runner.Run(context.Background(), ref)

	require.NoError(t, err)
	assert.True(t, res.NoExtraction)
	assert.Len(t, res.Failures, 1)
}

func TestRunner_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ref := port.TableRef{Document: "SDS-7_Part1", TableIndex: 1}
	m := &mocks.MockGridExtractor{MethodName: "lattice"}
	m.On("Extract", mock.Anything, ref).Return(nil, context.Canceled)

	_, err := consensus.NewRunner([]port.GridExtractor{m}, consensus.NewReconciler(consensus.DefaultOptions(), nil), 0, nil).Run(ctx, ref)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_MalformedGridIsFatal(t *testing.T) {
	ref := port.TableRef{Document: "SDS-7_Part1", TableIndex: 2}
	m := &mocks.MockGridExtractor{MethodName: "lattice"}
	m.On("Extract", mock.Anything, ref).Return(nil, domain.ErrGridShape)

	_, err := consensus.NewRunner([]port.GridExtractor{m}, consensus.NewReconciler(consensus.DefaultOptions(), nil), 0, nil).Run(context.Background(), ref)
	assert.ErrorIs(t, err, domain.ErrGridShape)
}

func TestMethodError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &consensus.MethodError{Method: "stream", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "stream")
}

func TestNewMethod_UnknownKind(t *testing.T) {
	_, err := consensus.NewMethod(&config.MethodConfig{Name: "x", Kind: "ocr-magic"})
	assert.ErrorIs(t, err, domain.ErrUnknownMethod)
}

func TestNewMethods_RegisteredKind(t *testing.T) {
	consensus.RegisterMethod("test-kind", func(cfg *config.MethodConfig) (port.GridExtractor, error) {
		return &mocks.MockGridExtractor{MethodName: cfg.Name}, nil
	})
	ms, err := consensus.NewMethods([]config.MethodConfig{{Name: "one", Kind: "test-kind"}, {Name: "two", Kind: "test-kind"}})
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "two", ms[1].Name())
}
