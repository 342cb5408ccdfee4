package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"soltab/internal/consolidate"
	"soltab/internal/domain"
)

// RunSummary reports what a pipeline run produced.
type RunSummary struct {
	Tables       int        `json:"tables"`
	Processed    int        `json:"processed"`
	NoExtraction int        `json:"no_extraction"`
	Failed       int        `json:"failed"`
	NeedsReview  int        `json:"needs_review"`
	MergedTables int        `json:"merged_tables"`
	TotalRows    int        `json:"total_rows"`
	Artifacts    []Artifact `json:"artifacts"`
	Stored       bool       `json:"stored"`
	Published    bool       `json:"published"`
}

// Pipeline runs a batch, consolidates it and hands the result to the sinks.
type Pipeline struct {
	batch        *BatchRunner
	consolidator *consolidate.Consolidator
	exports      ExportService
	datasets     DatasetService
	publish      bool
	logger       *zap.Logger
}

// NewPipeline creates a Pipeline. datasets may be nil to skip persistence;
// publish uploads the written exports to object storage.
func NewPipeline(batch *BatchRunner, consolidator *consolidate.Consolidator, exports ExportService, datasets DatasetService, publish bool, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		batch:        batch,
		consolidator: consolidator,
		exports:      exports,
		datasets:     datasets,
		publish:      publish,
		logger:       logger,
	}
}

// Run executes the whole pipeline. Sink failures after the exports are
// written are logged and reported in the summary rather than returned.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, *domain.Dataset, error) {
	res, err := p.batch.Run(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("processing tables: %w", err)
	}

	ds := p.consolidator.Consolidate(res.Records)
	sum := &RunSummary{
		Tables:       len(res.Records),
		Processed:    res.Processed,
		NoExtraction: res.NoExtraction,
		Failed:       res.Failed,
		NeedsReview:  ds.Index.NeedsReview,
		MergedTables: len(ds.Tables),
		TotalRows:    ds.Index.TotalRows,
	}

	artifacts, err := p.exports.Write(ctx, ds, res.Records)
	if err != nil {
		return nil, nil, fmt.Errorf("writing exports: %w", err)
	}
	sum.Artifacts = artifacts

	if p.publish {
		published, err := p.exports.Publish(ctx, artifacts)
		switch {
		case err == nil:
			sum.Artifacts = published
			sum.Published = true
		case errors.Is(err, domain.ErrStorageNotConfig):
			p.logger.Info("service.Pipeline: object storage not configured, skipping publish")
		default:
			p.logger.Error("service.Pipeline: publishing exports failed", zap.Error(err))
		}
	}

	if p.datasets != nil {
		if err := p.datasets.Store(ctx, res.Records, ds); err != nil {
			p.logger.Error("service.Pipeline: storing dataset failed", zap.Error(err))
		} else {
			sum.Stored = true
		}
	}

	p.logger.Info("service.Pipeline: run complete",
		zap.Int("tables", sum.Tables),
		zap.Int("merged_tables", sum.MergedTables),
		zap.Int("needs_review", sum.NeedsReview),
		zap.Bool("stored", sum.Stored),
		zap.Bool("published", sum.Published),
	)
	return sum, ds, nil
}
