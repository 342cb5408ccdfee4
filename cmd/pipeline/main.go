// Command pipeline extracts, validates and consolidates every solubility
// table found under the configured method directories and writes the
// dataset exports.
// Usage: go run ./cmd/pipeline
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"soltab/internal/config"
	"soltab/internal/consensus"
	"soltab/internal/consolidate"
	"soltab/internal/header"
	"soltab/internal/ingest"
	"soltab/internal/logger"
	"soltab/internal/metrics"
	"soltab/internal/normalize"
	"soltab/internal/phase"
	"soltab/internal/repository/postgres"
	"soltab/internal/service"
	s3storage "soltab/internal/storage/s3"
	"soltab/internal/systems"
	"soltab/internal/validator"
	"soltab/internal/validator/science"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(cfg.Log, "pipeline")
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := metrics.NewRecorder(prometheus.DefaultRegisterer)

	// Extraction methods
	ingest.RegisterMethods()
	methods, err := consensus.NewMethods(cfg.Pipeline.Methods)
	if err != nil {
		return fmt.Errorf("failed to build extraction methods: %w", err)
	}
	roots := make([]string, len(cfg.Pipeline.Methods))
	for i, m := range cfg.Pipeline.Methods {
		roots[i] = m.Root
	}
	reconciler := consensus.NewReconciler(consensus.Options{
		Tolerance:        cfg.Consensus.Tolerance,
		ReviewAgreement:  cfg.Consensus.ReviewAgreement,
		MaxDiscrepancies: cfg.Consensus.MaxDiscrepancies,
	}, l)
	runner := consensus.NewRunner(methods, reconciler, cfg.Pipeline.MethodConcurrency, l)

	// Chemical systems come from the booklet PDFs when they are available.
	var resolver service.SystemResolver
	if cfg.Pipeline.PDFDir != "" {
		resolver = systems.NewResolver(systems.NewPDFPageReader(cfg.Pipeline.PDFDir), l)
	}

	engine := validator.NewEngine(validator.NewDefaultRegistry(science.Thresholds{
		MinHeaderConfidence:   cfg.Validation.MinHeaderConfidence,
		MinTypeConfidence:     cfg.Validation.MinTypeConfidence,
		MassBalanceLow:        cfg.Validation.MassBalanceLow,
		MassBalanceHigh:       cfg.Validation.MassBalanceHigh,
		MassBalanceMaxOutside: cfg.Validation.MassBalanceMaxOutside,
		MaxColumns:            cfg.Validation.MaxColumns,
	}), l)

	processor := service.NewProcessor(
		runner,
		phase.NewSplitter(normalize.Default(), cfg.Pipeline.PhaseSampleSize, l),
		header.DefaultInferencer(l),
		resolver,
		engine,
		rec,
		service.ProcessorConfig{UseColumnAnalysis: cfg.Pipeline.UseColumnAnalysis},
		l,
	)
	batch := service.NewBatchRunner(ingest.NewDirCatalog(roots, l), processor, service.BatchConfig{
		Concurrency:  cfg.Pipeline.Concurrency,
		TableTimeout: cfg.Pipeline.TableTimeout,
	}, l)

	// Sinks
	var datasets service.DatasetService
	if cfg.DB.Enabled {
		db, err := postgres.NewDB(&cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() { _ = db.Close() }()
		datasets = service.NewDatasetService(postgres.NewTableRecordRepo(db), postgres.NewDatasetRepo(db), l)
	}

	var publish bool
	exportCfg := service.ExportConfig{
		OutputDir:     cfg.Pipeline.OutputDir,
		Formats:       cfg.Export.Formats,
		Prefix:        cfg.Export.S3Prefix,
		PresignExpiry: time.Duration(cfg.S3.PresignExpiry) * time.Second,
	}
	var exports service.ExportService
	if cfg.S3.Bucket != "" {
		storage, err := s3storage.NewS3Client(ctx, &cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		exports = service.NewExportService(exportCfg, storage, l)
		publish = true
	} else {
		exports = service.NewExportService(exportCfg, nil, l)
	}

	pipeline := service.NewPipeline(
		batch,
		consolidate.New(consolidate.Options{MaxColumnDelta: cfg.Consolidate.MaxColumnDelta}, l),
		exports,
		datasets,
		publish,
		l,
	)

	l.Info("pipeline: starting",
		zap.Strings("methods", runner.Methods()),
		zap.String("output_dir", cfg.Pipeline.OutputDir),
		zap.Bool("database", datasets != nil),
		zap.Bool("publish", publish),
	)
	summary, _, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
