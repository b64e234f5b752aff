package main

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// DecodeUplink turns one raw MQTT message into an Uplink.
// It returns ErrNoPayload (wrapped) when the message carries no decoded payload,
// any other error means the message is not valid JSON of the expected shape.
func DecodeUplink(topic string, raw []byte) (Uplink, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Uplink{}, fmt.Errorf("le message reçu n'est pas un JSON valide: %w", err)
	}

	u := Uplink{
		Topic:    topic,
		DeviceID: env.EndDeviceIDs.DeviceID,
	}
	if ts := env.UplinkMessage.ReceivedAt; ts != "" {
		// received_at is informative only, a bad value does not drop the reading.
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			u.ReceivedAt = t.UTC()
		}
	}

	if len(env.UplinkMessage.DecodedPayload) == 0 {
		return Uplink{}, fmt.Errorf("topic %s: %w", topic, ErrNoPayload)
	}
	if err := u.Payload.UnmarshalJSON(env.UplinkMessage.DecodedPayload); err != nil {
		return Uplink{}, fmt.Errorf("decoded_payload invalide: %w", err)
	}
	if u.Payload.Len() == 0 {
		return Uplink{}, fmt.Errorf("topic %s: %w", topic, ErrNoPayload)
	}

	return u, nil
}
