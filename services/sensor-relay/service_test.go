package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ttnUplink = `{
  "end_device_ids": {"device_id": "eui-70b3d57ed0054b1a", "application_ids": {"application_id": "fiek-702"}},
  "received_at": "2024-05-02T09:14:03.123456789Z",
  "uplink_message": {
    "f_port": 1,
    "decoded_payload": {"air_quality": 12, "humidity": 48.5, "light_level": 310, "pressure": 1012.8, "sound_level": 41, "temperature": 22.4},
    "received_at": "2024-05-02T09:14:03.001Z"
  }
}`

func TestDecodeUplink_TTNMessage(t *testing.T) {
	u, err := DecodeUplink("v3/fiek-702@ttn/devices/eui-70b3d57ed0054b1a/up", []byte(ttnUplink))
	require.NoError(t, err)

	assert.Equal(t, "v3/fiek-702@ttn/devices/eui-70b3d57ed0054b1a/up", u.Topic)
	assert.Equal(t, "eui-70b3d57ed0054b1a", u.DeviceID)
	assert.Equal(t, time.Date(2024, 5, 2, 9, 14, 3, 1_000_000, time.UTC), u.ReceivedAt)
	assert.Equal(t, []string{"air_quality", "humidity", "light_level", "pressure", "sound_level", "temperature"}, keys(u.Payload))
	assert.Equal(t, "22.4", u.Payload.Text("temperature"))
}

func TestDecodeUplink_NoDecodedPayload(t *testing.T) {
	cases := map[string]string{
		"join accept":   `{"end_device_ids":{"device_id":"d1"},"join_accept":{}}`,
		"no payload":    `{"uplink_message":{"f_port":1}}`,
		"null payload":  `{"uplink_message":{"decoded_payload":null}}`,
		"empty payload": `{"uplink_message":{"decoded_payload":{}}}`,
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeUplink("t", []byte(msg))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNoPayload)
		})
	}
}

func TestDecodeUplink_InvalidJSON(t *testing.T) {
	_, err := DecodeUplink("t", []byte("not json"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoPayload)
}

func TestDecodeUplink_PayloadNotObject(t *testing.T) {
	_, err := DecodeUplink("t", []byte(`{"uplink_message":{"decoded_payload":[1,2]}}`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoPayload)
}

func TestDecodeUplink_BadReceivedAtIsIgnored(t *testing.T) {
	u, err := DecodeUplink("t", []byte(`{"uplink_message":{"received_at":"yesterday","decoded_payload":{"temperature":20}}}`))
	require.NoError(t, err)
	assert.True(t, u.ReceivedAt.IsZero())
	assert.Equal(t, "", u.DeviceID)
}
