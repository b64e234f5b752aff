package main

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Message outcomes for relay_messages_total.
const (
	outcomeRouted  = "routed"
	outcomeIgnored = "ignored"
	outcomeInvalid = "invalid"
)

// Metrics holds the Prometheus collectors of the relay.
type Metrics struct {
	Messages     *prometheus.CounterVec   // labels: outcome={routed,ignored,invalid}
	SinkCalls    *prometheus.CounterVec   // labels: sink, outcome={success,error}
	SinkDuration *prometheus.HistogramVec // labels: sink
	Connected    prometheus.Gauge
}

func newCollectors() *Metrics {
	return &Metrics{
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "messages_total",
			Help:      "MQTT messages received, by outcome.",
		}, []string{"outcome"}),
		SinkCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "sink_calls_total",
			Help:      "Sink invocations by sink and outcome.",
		}, []string{"sink", "outcome"}),
		SinkDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "relay",
			Name:      "sink_duration_seconds",
			Help:      "Duration of a single sink call.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"sink"}),
		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "relay",
			Name:      "broker_connected",
			Help:      "1 while the MQTT session is up.",
		}),
	}
}

// NewMetrics creates the collectors and registers them with the default registry.
func NewMetrics() *Metrics {
	m := newCollectors()
	prometheus.MustRegister(m.Messages, m.SinkCalls, m.SinkDuration, m.Connected)
	return m
}

// NewMetricsForTesting returns unregistered collectors so tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newCollectors()
}
