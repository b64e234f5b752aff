package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
)

func main() {
	os.Exit(run())
}

// run wires the relay and blocks until SIGINT/SIGTERM. Every resource acquired
// here is released by a defer, whichever way run returns.
func run() int {
	// 1. Configuration
	cfg, err := LoadConfig()
	if err != nil {
		slog.Error("Configuration invalide", "error", err)
		return 1
	}

	// 2. Logger. The MQTT log writer gets its client once the listener exists.
	var out io.Writer = os.Stdout
	var logWriter *MqttLogWriter
	if cfg.LogTopic != "" {
		logWriter = NewMqttLogWriter(cfg.LogTopic)
		out = io.MultiWriter(os.Stdout, logWriter)
	}
	logger := NewLogger(cfg.LogLevel, cfg.LogFormat, out)
	slog.SetDefault(logger)

	metrics := NewMetrics()
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Durable store. Without it there is nothing to relay to.
	repo, err := NewRepository(ctx, cfg, clock, logger)
	if err != nil {
		logger.Error("Erreur de connexion à PostgreSQL", "error", err)
		return 1
	}
	defer repo.Close()
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("Erreur de connexion à PostgreSQL", "error", err)
		return 1
	}
	logger.Info("Connexion à PostgreSQL réussie.", "table", cfg.PostgresTable, "valkey", cfg.ValkeyAddr != "")

	if cfg.ThingSpeakAPIKey == "" {
		logger.Warn("THINGSPEAK_API_KEY vide, ThingSpeak refusera les mises à jour")
	}

	// 4. Sinks in their fixed order: store, flat file, telemetry.
	router := NewRouter(logger, metrics, cfg.SinkTimeout,
		repo,
		NewCSVSink(cfg.CSVFile, clock, logger),
		NewThingSpeakClient(cfg.ThingSpeakURL, cfg.ThingSpeakAPIKey, cfg.ThingSpeakFields, cfg.ThingSpeakTimeout, logger),
	)

	// Messages are still routed while the listener drains, so they get their own context.
	msgCtx, cancelMsgs := context.WithCancel(context.Background())
	defer cancelMsgs()

	handler := NewRelayHandler(msgCtx, router, metrics, logger)
	listener := NewListener(cfg, handler, logger)
	if logWriter != nil {
		logWriter.Attach(listener.Client())
	}

	// 5. Health, metrics and latest-reading API
	srv := NewHealthServer(cfg.HTTPAddr, repo, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Serveur HTTP arrêté", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Arrêt du serveur HTTP", "error", err)
		}
	}()

	// 6. MQTT session
	if err := listener.Start(); err != nil {
		logger.Error("Erreur critique : Impossible de se connecter au broker MQTT.", "error", err)
		return 1
	}

	<-ctx.Done()
	logger.Info("Script arrêté par l'utilisateur.")
	listener.Stop()
	metrics.Connected.Set(0)
	return 0
}
