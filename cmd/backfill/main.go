// Command backfill loads the dataset written by a previous pipeline run from
// the output directory into PostgreSQL, replacing what is stored there.
// Usage: go run ./cmd/backfill [output-dir]
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"soltab/internal/config"
	"soltab/internal/logger"
	"soltab/internal/repository/postgres"
	"soltab/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	l, err := logger.New(cfg.Log, "backfill")
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	dir := cfg.Pipeline.OutputDir
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	ds, records, err := service.LoadRun(dir)
	if err != nil {
		return fmt.Errorf("loading run from %s: %w", dir, err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	svc := service.NewDatasetService(postgres.NewTableRecordRepo(db), postgres.NewDatasetRepo(db), l)
	if err := svc.Store(context.Background(), records, ds); err != nil {
		return err
	}

	l.Info("backfill: complete",
		zap.String("dir", dir),
		zap.Int("records", len(records)),
		zap.Int("merged_tables", len(ds.Tables)),
	)
	return nil
}
