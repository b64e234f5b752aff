package main

import (
	"context"
	"errors"
	"log/slog"
)

// RelayHandler is the EventHandler of the relay: decode, then route.
type RelayHandler struct {
	ctx     context.Context
	router  *Router
	metrics *Metrics
	logger  *slog.Logger
}

func NewRelayHandler(ctx context.Context, router *Router, metrics *Metrics, logger *slog.Logger) *RelayHandler {
	return &RelayHandler{ctx: ctx, router: router, metrics: metrics, logger: logger}
}

func (h *RelayHandler) OnConnect(res ConnectResult) {
	if res.Err != nil {
		h.logger.Error("Échec de l'abonnement MQTT", "topic", res.Topic, "error", res.Err)
		return
	}
	h.metrics.Connected.Set(1)
	h.logger.Info("Connecté au broker MQTT avec succès !", "broker", res.Broker)
	h.logger.Info("Abonné au topic", "topic", res.Topic)
}

func (h *RelayHandler) OnConnectionLost(_ error) {
	h.metrics.Connected.Set(0)
}

// OnMessage drops undecodable messages and routes the rest. It never fails:
// the next message is processed whatever happened to this one.
func (h *RelayHandler) OnMessage(topic string, payload []byte) {
	h.logger.Info("Message reçu", "topic", topic)

	u, err := DecodeUplink(topic, payload)
	switch {
	case errors.Is(err, ErrNoPayload):
		h.metrics.Messages.WithLabelValues(outcomeIgnored).Inc()
		h.logger.Info("Message ignoré : ne contient pas de 'decoded_payload'.", "topic", topic)
		return
	case err != nil:
		h.metrics.Messages.WithLabelValues(outcomeInvalid).Inc()
		h.logger.Warn("Message rejeté", "topic", topic, "error", err)
		return
	}

	if h.logger.Enabled(h.ctx, slog.LevelDebug) {
		if b, err := u.Payload.MarshalJSON(); err == nil {
			h.logger.Debug("Payload décodé reçu", "device", u.DeviceID, "payload", string(b))
		}
	}

	h.router.Route(h.ctx, u)
	h.metrics.Messages.WithLabelValues(outcomeRouted).Inc()
}
