package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LatestReader looks up the last stored reading of a device.
type LatestReader interface {
	Latest(ctx context.Context, deviceID string) ([]byte, error)
}

// HealthServer exposes /health, /metrics and /api/latest/{device}.
type HealthServer struct {
	httpServer *http.Server
	latest     LatestReader
	logger     *slog.Logger
}

func NewHealthServer(addr string, latest LatestReader, logger *slog.Logger) *HealthServer {
	mux := http.NewServeMux()
	s := &HealthServer{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		latest: latest,
		logger: logger,
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/latest/{device}", s.handleLatest)

	return s
}

// Start blocks serving requests. Returns http.ErrServerClosed after Shutdown.
func (s *HealthServer) Start() error {
	s.logger.Info("Serveur HTTP démarré", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *HealthServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *HealthServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *HealthServer) handleLatest(w http.ResponseWriter, r *http.Request) {
	device := r.PathValue("device")

	data, err := s.latest.Latest(r.Context(), device)
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "aucune mesure pour ce capteur", http.StatusNotFound)
		return
	case errors.Is(err, ErrCacheDisabled):
		http.Error(w, "cache désactivé", http.StatusServiceUnavailable)
		return
	case err != nil:
		s.logger.Error("Lecture Valkey impossible", "device", device, "error", err)
		http.Error(w, "erreur interne", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
