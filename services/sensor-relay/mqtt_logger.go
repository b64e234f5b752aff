package main

import (
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// publisher is the slice of mqtt.Client the log writer needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MqttLogWriter implements io.Writer and publishes every log line to an MQTT topic.
// The client is attached after the logger exists (the listener needs the logger);
// lines written before Attach only reach the other writers.
type MqttLogWriter struct {
	topic string

	mu     sync.RWMutex
	client publisher
}

func NewMqttLogWriter(topic string) *MqttLogWriter {
	return &MqttLogWriter{topic: topic}
}

// Attach sets the client used for publishing.
func (w *MqttLogWriter) Attach(client publisher) {
	w.mu.Lock()
	w.client = client
	w.mu.Unlock()
}

// Write publishes p without waiting for the broker, so logging never blocks
// the message loop. Publish errors are ignored.
func (w *MqttLogWriter) Write(p []byte) (n int, err error) {
	w.mu.RLock()
	client := w.client
	w.mu.RUnlock()
	if client == nil {
		return len(p), nil
	}

	// slog reuses its buffer after Write returns.
	payload := make([]byte, len(p))
	copy(payload, p)

	client.Publish(w.topic, 0, false, payload)
	return len(p), nil
}
