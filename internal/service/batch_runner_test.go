package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"soltab/internal/domain"
	"soltab/internal/port"
	"soltab/internal/service"
	"soltab/mocks"
)

// stubProcessor returns canned outcomes keyed by table index.
type stubProcessor struct {
	mu    sync.Mutex
	errs  map[int]error
	delay map[int]time.Duration
	calls int
}

func (s *stubProcessor) Process(ctx context.Context, ref port.TableRef) (*domain.TableRecord, error) {
	s.mu.Lock()
	s.calls++
	err := s.errs[ref.TableIndex]
	d := s.delay[ref.TableIndex]
	s.mu.Unlock()

	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, fmt.Errorf("extracting: %w", ctx.Err())
		}
	}
	if err != nil {
		return nil, err
	}
	prov := domain.Provenance{SourceDocument: ref.Document, TableIndex: ref.TableIndex}
	rec := &domain.TableRecord{ID: service.RecordID(prov), Provenance: prov, Score: 100, Priority: domain.PriorityPassed}
	if ref.TableIndex == 3 {
		rec.Consensus = &domain.ConsensusResult{NoExtraction: true}
	}
	return rec, nil
}

func catalogOf(refs ...port.TableRef) *mocks.MockTableCatalog {
	c := &mocks.MockTableCatalog{}
	c.On("List", mock.Anything).Return(refs, nil)
	return c
}

func refs(n int) []port.TableRef {
	out := make([]port.TableRef, n)
	for i := range out {
		out[i] = port.TableRef{Document: "SDS-7", TableIndex: i + 1}
	}
	return out
}

func TestBatchRunner_KeepsCatalogOrder(t *testing.T) {
	proc := &stubProcessor{errs: map[int]error{2: errors.New("panic in stream")}}
	b := service.NewBatchRunner(catalogOf(refs(5)...), proc, service.BatchConfig{Concurrency: 3}, nil)

	res, err := b.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Records, 5)
	for i, r := range res.Records {
		assert.Equal(t, i+1, r.Provenance.TableIndex)
	}
	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, 1, res.NoExtraction)
	assert.Equal(t, 1, res.Failed)

	failed := res.Records[1]
	require.Len(t, failed.Flags, 1)
	assert.Equal(t, service.KindProcessingFailed, failed.Flags[0].Kind)
	assert.Equal(t, 85, failed.Score)
	assert.True(t, failed.NeedsReview)
	assert.Equal(t, 5, proc.calls)
}

func TestBatchRunner_TableTimeout(t *testing.T) {
	proc := &stubProcessor{delay: map[int]time.Duration{1: time.Minute}}
	b := service.NewBatchRunner(catalogOf(refs(2)...), proc, service.BatchConfig{Concurrency: 2, TableTimeout: 20 * time.Millisecond}, nil)

	res, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, service.KindProcessingFailed, res.Records[0].Flags[0].Kind)
	assert.Contains(t, res.Records[0].Flags[0].Message, "deadline exceeded")
}

func TestBatchRunner_GridShapeAborts(t *testing.T) {
	proc := &stubProcessor{errs: map[int]error{2: fmt.Errorf("method lattice: %w", domain.ErrGridShape)}}
	b := service.NewBatchRunner(catalogOf(refs(3)...), proc, service.BatchConfig{Concurrency: 1}, nil)

	_, err := b.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrGridShape)
}

func TestBatchRunner_CatalogError(t *testing.T) {
	c := &mocks.MockTableCatalog{}
	c.On("List", mock.Anything).Return(nil, errors.New("permission denied"))

	_, err := service.NewBatchRunner(c, &stubProcessor{}, service.BatchConfig{}, nil).Run(context.Background())
	assert.ErrorContains(t, err, "permission denied")
}

func TestBatchRunner_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	proc := &stubProcessor{delay: map[int]time.Duration{1: time.Minute}}

	_, err := service.NewBatchRunner(catalogOf(refs(1)...), proc, service.BatchConfig{}, nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFailedRecord(t *testing.T) {
	rec := service.FailedRecord(port.TableRef{Document: "SDS-2", Page: 5, TableIndex: 7}, errors.New("boom"), fixedNow)
	assert.Equal(t, "SDS-2", rec.Provenance.SourceDocument)
	assert.Equal(t, domain.PriorityMustReview, rec.Priority)
	assert.Equal(t, fixedNow, rec.ProcessedAt)
	assert.Contains(t, rec.Flags[0].Message, "boom")
}
