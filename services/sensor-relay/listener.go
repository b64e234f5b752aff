package main

import (
	"fmt"
	"log/slog"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ConnectResult describes one (re)connection of the MQTT session.
// Err is set when the wildcard subscription failed.
type ConnectResult struct {
	Broker string
	Topic  string
	Err    error
}

// EventHandler receives the events of the MQTT session. paho calls OnMessage
// from a single goroutine, one message at a time.
type EventHandler interface {
	OnConnect(result ConnectResult)
	OnMessage(topic string, payload []byte)
}

// connectionLostHandler is optionally implemented by an EventHandler.
type connectionLostHandler interface {
	OnConnectionLost(err error)
}

// Listener keeps one authenticated session to the broker and feeds the handler.
// Reconnects are left to paho; subscribing in the connect callback makes every
// reconnect resubscribe.
type Listener struct {
	client  mqtt.Client
	broker  string
	topic   string
	qos     byte
	handler EventHandler
	logger  *slog.Logger
}

// NewListener builds the paho client. Nothing touches the network until Start.
func NewListener(cfg Config, handler EventHandler, logger *slog.Logger) *Listener {
	l := &Listener{
		broker:  cfg.MQTTBroker,
		topic:   cfg.MQTTTopic,
		qos:     byte(cfg.MQTTQoS),
		handler: handler,
		logger:  logger,
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID).
		SetUsername(cfg.MQTTUsername).
		SetPassword(cfg.MQTTPassword).
		SetKeepAlive(cfg.MQTTKeepAlive).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetOrderMatters(true)

	opts.SetDefaultPublishHandler(l.onMessage)
	opts.SetOnConnectHandler(l.onConnect)
	opts.SetConnectionLostHandler(l.onConnectionLost)

	l.client = mqtt.NewClient(opts)
	return l
}

// Client exposes the underlying paho client, used by the MQTT log writer.
func (l *Listener) Client() mqtt.Client { return l.client }

// Start performs the initial connection. A failure here is fatal for the caller,
// later losses are handled by paho's auto-reconnect.
func (l *Listener) Start() error {
	l.logger.Info("Connexion au broker MQTT...", "broker", l.broker)
	token := l.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("impossible de se connecter au broker MQTT %s: %w", l.broker, err)
	}
	return nil
}

// Stop disconnects, giving in-flight work 250ms to finish.
func (l *Listener) Stop() {
	l.client.Disconnect(250)
}

func (l *Listener) onConnect(c mqtt.Client) {
	token := c.Subscribe(l.topic, l.qos, nil)
	token.Wait()
	l.handler.OnConnect(ConnectResult{
		Broker: l.broker,
		Topic:  l.topic,
		Err:    token.Error(),
	})
}

func (l *Listener) onConnectionLost(_ mqtt.Client, err error) {
	l.logger.Warn("Connexion MQTT perdue, reconnexion automatique", "error", err)
	if h, ok := l.handler.(connectionLostHandler); ok {
		h.OnConnectionLost(err)
	}
}

func (l *Listener) onMessage(_ mqtt.Client, msg mqtt.Message) {
	l.handler.OnMessage(msg.Topic(), msg.Payload())
}
