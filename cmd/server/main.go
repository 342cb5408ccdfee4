package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"soltab/internal/config"
	"soltab/internal/handler"
	"soltab/internal/logger"
	"soltab/internal/metrics"
	"soltab/internal/port"
	"soltab/internal/repository/postgres"
	"soltab/internal/router"
	"soltab/internal/service"
	s3storage "soltab/internal/storage/s3"
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

	l, err := logger.New(cfg.Log, "server")
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewRecorder(reg)

	// Database-backed routes are only served when a database is configured.
	var db *sqlx.DB
	var tableH *handler.TableHandler
	var searchH *handler.SearchHandler
	if cfg.DB.Enabled {
		db, err = postgres.NewDB(&cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() { _ = db.Close() }()

		datasetSvc := service.NewDatasetService(postgres.NewTableRecordRepo(db), postgres.NewDatasetRepo(db), l)
		tableH = handler.NewTableHandler(datasetSvc, l)
		searchH = handler.NewSearchHandler(datasetSvc, l)
	}

	var storage port.ObjectStorage
	if cfg.S3.Bucket != "" {
		storage, err = s3storage.NewS3Client(ctx, &cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}
	exportSvc := service.NewExportService(service.ExportConfig{
		OutputDir:     cfg.Pipeline.OutputDir,
		Formats:       cfg.Export.Formats,
		Prefix:        cfg.Export.S3Prefix,
		PresignExpiry: time.Duration(cfg.S3.PresignExpiry) * time.Second,
	}, storage, l)

	r := router.Setup(
		router.Options{Logger: l, Metrics: rec, Gatherer: reg, AllowedOrigins: cfg.Server.AllowedOrigins},
		tableH,
		searchH,
		handler.NewExportHandler(exportSvc, l),
		handler.NewHealthHandler(db),
	)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("server: starting", zap.String("addr", cfg.Server.Port), zap.Bool("database", db != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	l.Info("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
