package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Sink stores or forwards one uplink. Implementations report failures as errors,
// the Router decides what a failure means (log and move on).
type Sink interface {
	Name() string
	Handle(ctx context.Context, u Uplink) error
}

// Router fans one uplink out to every sink, in order, exactly once each.
type Router struct {
	sinks   []Sink
	timeout time.Duration
	logger  *slog.Logger
	metrics *Metrics
}

// NewRouter keeps the sinks in the given order: durable store, flat file, telemetry forward.
func NewRouter(logger *slog.Logger, metrics *Metrics, timeout time.Duration, sinks ...Sink) *Router {
	return &Router{
		sinks:   sinks,
		timeout: timeout,
		logger:  logger,
		metrics: metrics,
	}
}

// Route delivers u to all sinks. A failing or panicking sink never stops the next one,
// and nothing is retried: once Route returns the message is done.
func (r *Router) Route(ctx context.Context, u Uplink) {
	for _, s := range r.sinks {
		start := time.Now()
		err := r.call(ctx, s, u)
		r.metrics.SinkDuration.WithLabelValues(s.Name()).Observe(time.Since(start).Seconds())

		if err != nil {
			r.metrics.SinkCalls.WithLabelValues(s.Name(), "error").Inc()
			r.logger.Error("Échec du sink", "sink", s.Name(), "device", u.DeviceID, "error", err)
			continue
		}
		r.metrics.SinkCalls.WithLabelValues(s.Name(), "success").Inc()
	}
}

func (r *Router) call(ctx context.Context, s Sink, u Uplink) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return s.Handle(ctx, u)
}
