package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// maxChannelFields is the number of fieldN slots a ThingSpeak channel has.
const maxChannelFields = 8

// ThingSpeakClient forwards readings to a ThingSpeak channel update endpoint.
type ThingSpeakClient struct {
	endpoint   string
	apiKey     string
	fields     []string // explicit field -> channel mapping, position i is field(i+1)
	httpClient *http.Client
	logger     *slog.Logger
}

// NewThingSpeakClient creates a forwarder. With an empty mapping the first
// eight payload fields are sent in the order the network server encoded them;
// that order is whatever the payload decoder emits and may change with it.
func NewThingSpeakClient(endpoint, apiKey string, fields []string, timeout time.Duration, logger *slog.Logger) *ThingSpeakClient {
	if len(fields) > maxChannelFields {
		fields = fields[:maxChannelFields]
	}
	return &ThingSpeakClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		fields:   fields,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *ThingSpeakClient) Name() string { return "thingspeak" }

// ChannelParams builds the query parameters for one update, without the api key.
func (c *ThingSpeakClient) ChannelParams(rec Record) url.Values {
	params := url.Values{}
	if len(c.fields) > 0 {
		for i, key := range c.fields {
			if v, ok := rec.Get(key); ok {
				params.Set("field"+strconv.Itoa(i+1), FormatValue(v))
			}
		}
		return params
	}

	for i, f := range rec.Fields() {
		if i >= maxChannelFields {
			break
		}
		params.Set("field"+strconv.Itoa(i+1), FormatValue(f.Value))
	}
	return params
}

// Handle sends the mapped fields. Nothing is sent when no field maps to a channel.
func (c *ThingSpeakClient) Handle(ctx context.Context, u Uplink) error {
	params := c.ChannelParams(u.Payload)
	if len(params) == 0 {
		c.logger.Info("Aucune donnée pertinente à envoyer à ThingSpeak.")
		return nil
	}
	c.logger.Debug("Mapping ThingSpeak", "fields", params.Encode())
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("création de la requête: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("erreur lors de l'envoi à ThingSpeak: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("ThingSpeak a répondu %d: %s", resp.StatusCode, body)
	}

	c.logger.Info("Réponse de ThingSpeak", "status", resp.StatusCode, "body", string(body))
	return nil
}
