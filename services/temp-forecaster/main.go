package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := LoadConfig()
	if err != nil {
		slog.Error("Configuration invalide", "error", err)
		return 1
	}

	// stdout carries the report, diagnostics go to stderr.
	logger := NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)

	clock := clockwork.NewRealClock()
	runAt := clock.Now()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var loader Loader
	switch cfg.Source {
	case "csv":
		loader = NewCSVLoader(cfg.CSVFile)
	default:
		pg, err := NewPostgresLoader(ctx, cfg.PostgresURL, cfg.PostgresTable, logger)
		if err != nil {
			logger.Error("Erreur de connexion à PostgreSQL", "error", err)
			return 1
		}
		defer pg.Close()
		loader = pg
	}

	pipeline := NewPipeline(cfg, loader, NewRidge(cfg.RidgeLambda), os.Stdout, logger)
	res, err := pipeline.Run(ctx)
	if errors.Is(err, ErrNoData) {
		fmt.Println("Aucune donnée trouvée dans la base.")
		return 1
	}
	if err != nil {
		logger.Error("Prévision impossible", "error", err)
		return 1
	}
	logger.Info("Prévision terminée",
		"mse", res.Evaluation.MSE,
		"forecast", res.Forecast,
		"decision", res.Decision,
		"duration", clock.Since(runAt),
	)

	if cfg.S3Endpoint == "" {
		return 0
	}
	store, err := NewArtifactStore(cfg, logger)
	if err != nil {
		logger.Error("Archivage S3 désactivé", "error", err)
		return 0
	}
	if _, err := store.Upload(ctx, runAt, cfg.ComparisonCSV, cfg.ComparisonPNG); err != nil {
		logger.Error("Archivage S3 incomplet", "error", err)
	}
	return 0
}
