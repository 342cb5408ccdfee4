package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"soltab/internal/domain"
	"soltab/internal/port"
	"soltab/internal/validator"
)

// KindProcessingFailed flags a table whose processing did not finish.
const KindProcessingFailed = "processing_failed"

// TableProcessor processes a single table.
type TableProcessor interface {
	Process(ctx context.Context, ref port.TableRef) (*domain.TableRecord, error)
}

// BatchConfig holds batch-run settings.
type BatchConfig struct {
	Concurrency  int
	TableTimeout time.Duration
}

// BatchResult is the outcome of a batch run, in catalog order.
type BatchResult struct {
	Records      []*domain.TableRecord
	Processed    int
	NoExtraction int
	Failed       int
}

// BatchRunner processes every table of a catalog with bounded parallelism.
type BatchRunner struct {
	catalog   port.TableCatalog
	processor TableProcessor
	cfg       BatchConfig
	logger    *zap.Logger
}

// NewBatchRunner creates a new BatchRunner.
func NewBatchRunner(catalog port.TableCatalog, processor TableProcessor, cfg BatchConfig, logger *zap.Logger) *BatchRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &BatchRunner{catalog: catalog, processor: processor, cfg: cfg, logger: logger}
}

// Run processes all cataloged tables. A table that fails or times out gets
// a record carrying a critical processing_failed flag and the batch goes
// on. Only a canceled context or a grid contract violation stops the batch.
func (b *BatchRunner) Run(ctx context.Context) (*BatchResult, error) {
	refs, err := b.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	b.logger.Info("service.BatchRunner: starting batch",
		zap.Int("tables", len(refs)),
		zap.Int("concurrency", b.cfg.Concurrency),
	)

	records := make([]*domain.TableRecord, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			rec, err := b.processOne(gctx, ref)
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &BatchResult{Records: records}
	for _, r := range records {
		switch {
		case hasFlag(r, KindProcessingFailed):
			res.Failed++
		case r.Consensus != nil && r.Consensus.NoExtraction:
			res.NoExtraction++
		default:
			res.Processed++
		}
	}
	b.logger.Info("service.BatchRunner: batch finished",
		zap.Int("processed", res.Processed),
		zap.Int("no_extraction", res.NoExtraction),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

func (b *BatchRunner) processOne(ctx context.Context, ref port.TableRef) (*domain.TableRecord, error) {
	tctx := ctx
	if b.cfg.TableTimeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, b.cfg.TableTimeout)
		defer cancel()
	}

	rec, err := b.processor.Process(tctx, ref)
	switch {
	case err == nil:
		return rec, nil
	case errors.Is(err, domain.ErrGridShape):
		return nil, err
	case ctx.Err() != nil:
		return nil, ctx.Err()
	}

	b.logger.Warn("service.BatchRunner: table failed",
		zap.String("document", ref.Document),
		zap.Int("table", ref.TableIndex),
		zap.Error(err),
	)
	return FailedRecord(ref, err, time.Now()), nil
}

// FailedRecord builds the record of a table whose processing did not finish.
func FailedRecord(ref port.TableRef, cause error, at time.Time) *domain.TableRecord {
	prov := domain.Provenance{SourceDocument: ref.Document, Page: ref.Page, TableIndex: ref.TableIndex}
	flags := []domain.ValidationFlag{{
		Severity:       domain.SeverityCritical,
		Kind:           KindProcessingFailed,
		Message:        fmt.Sprintf("Processing did not finish: %v", cause),
		Recommendation: "Re-run the table or extract it manually",
	}}
	report := validator.NewReport(flags)
	return &domain.TableRecord{
		ID:          RecordID(prov),
		Provenance:  prov,
		System:      domain.ChemicalSystem{Confidence: domain.SystemConfidenceNone, Page: ref.Page},
		Table:       &domain.Table{Provenance: prov},
		Flags:       report.Flags,
		Score:       report.Score,
		Priority:    report.Priority,
		NeedsReview: true,
		TableTypes:  []domain.ColumnType{},
		ProcessedAt: at.UTC(),
	}
}

func hasFlag(r *domain.TableRecord, kind string) bool {
	for _, f := range r.Flags {
		if f.Kind == kind {
			return true
		}
	}
	return false
}
