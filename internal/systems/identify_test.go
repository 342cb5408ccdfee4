package systems_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"soltab/internal/domain"
	"soltab/internal/port"
	"soltab/internal/systems"
	"soltab/mocks"
)

func TestFind(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Solubility in the Na3PO4-H2O system", []string{"Na3PO4-H2O"}},
		{"MgHPO4 – Na2HPO4 – H 2 O at 25 °C", []string{"MgHPO4-Na2HPO4-H2O"}},
		{"NaCl-H2O and KCl-H2O, then NaCl-H2O again", []string{"NaCl-H2O", "KCl-H2O"}},
		{"(NH4)2HPO4-H2O", []string{"(NH4)2HPO4-H2O"}},
		{"phase A - H2O boundary", nil},
		{"no system here", nil},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, systems.Find(tt.text))
		})
	}
}

func TestPageSystems_CarryForward(t *testing.T) {
	got := systems.PageSystems([]string{
		"Introduction",
		"Table 1. Na3PO4-H2O",
		"continued",
		"KCl-H2O",
	})
	assert.Equal(t, []domain.ChemicalSystem{
		{Confidence: domain.SystemConfidenceNone, Page: 1},
		{Name: "Na3PO4-H2O", Confidence: domain.SystemConfidenceHigh, Page: 2},
		{Name: "Na3PO4-H2O", Confidence: domain.SystemConfidenceLow, Page: 3},
		{Name: "KCl-H2O", Confidence: domain.SystemConfidenceHigh, Page: 4},
	}, got)
}

func TestResolver(t *testing.T) {
	src := &mocks.MockPageTextSource{}
	src.On("PageTexts", mock.Anything, "SDS-31_Part1").Return([]string{"NaCl-H2O", "more data"}, nil).Once()
	src.On("PageTexts", mock.Anything, "SDS-2").Return(nil, errors.New("corrupt xref")).Once()

	r := systems.NewResolver(src, nil)
	ctx := context.Background()

	got := r.Resolve(ctx, port.TableRef{Document: "SDS-31_Part1", Page: 2})
	assert.Equal(t, "NaCl-H2O", got.Name)
	assert.Equal(t, domain.SystemConfidenceLow, got.Confidence)

	// cached: PageTexts is expected only once
	got = r.Resolve(ctx, port.TableRef{Document: "SDS-31_Part1", Page: 1})
	assert.Equal(t, domain.SystemConfidenceHigh, got.Confidence)

	assert.Equal(t, domain.SystemConfidenceNone, r.Resolve(ctx, port.TableRef{Document: "SDS-31_Part1", Page: 9}).Confidence)
	assert.Equal(t, domain.SystemConfidenceNone, r.Resolve(ctx, port.TableRef{Document: "SDS-31_Part1"}).Confidence)
	assert.Equal(t, "", r.Resolve(ctx, port.TableRef{Document: "SDS-2", Page: 1}).Name)

	src.AssertExpectations(t)
}

func TestResolver_RetriesAfterInterruptedRead(t *testing.T) {
	src := &mocks.MockPageTextSource{}
	src.On("PageTexts", mock.Anything, "SDS-7").Return(nil, context.DeadlineExceeded).Once()
	src.On("PageTexts", mock.Anything, "SDS-7").Return([]string{"KCl-H2O"}, nil).Once()

	r := systems.NewResolver(src, nil)
	ref := port.TableRef{Document: "SDS-7", Page: 1}

	got := r.Resolve(context.Background(), ref)
	assert.Equal(t, domain.SystemConfidenceNone, got.Confidence)

	got = r.Resolve(context.Background(), ref)
	assert.Equal(t, "KCl-H2O", got.Name)
	assert.Equal(t, domain.SystemConfidenceHigh, got.Confidence)

	src.AssertNumberOfCalls(t, "PageTexts", 2)
	src.AssertExpectations(t)
}

func TestResolver_CanceledReadNotCached(t *testing.T) {
	src := &mocks.MockPageTextSource{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src.On("PageTexts", ctx, "SDS-7").Return(nil, ctx.Err()).Once()
	src.On("PageTexts", mock.Anything, "SDS-7").Return([]string{"KCl-H2O"}, nil).Once()

	r := systems.NewResolver(src, nil)
	ref := port.TableRef{Document: "SDS-7", Page: 1}

	assert.Equal(t, "", r.Resolve(ctx, ref).Name)
	assert.Equal(t, "KCl-H2O", r.Resolve(context.Background(), ref).Name)
	src.AssertExpectations(t)
}

func TestResolver_NilSource(t *testing.T) {
	r := systems.NewResolver(nil, nil)
	got := r.Resolve(context.Background(), port.TableRef{Document: "x", Page: 1})
	assert.Equal(t, domain.SystemConfidenceNone, got.Confidence)
}
