package main

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// Field is one named value of a decoded payload.
type Field struct {
	Key   string
	Value any
}

// Record is the flat key-value payload of one uplink.
// Unlike a Go map it keeps the order in which the keys appeared in the JSON,
// the telemetry forwarder relies on that order when no explicit mapping is configured.
type Record struct {
	fields []Field
}

// NewRecord builds a record from fields in the given order.
// A repeated key keeps its first position and its last value.
func NewRecord(fields ...Field) Record {
	var r Record
	for _, f := range fields {
		r.Set(f.Key, f.Value)
	}
	return r
}

func (r Record) Len() int { return len(r.fields) }

// Fields returns a copy of the fields in payload order.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

func (r Record) Get(key string) (any, bool) {
	for _, f := range r.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Set replaces the value of an existing key in place or appends a new one.
func (r *Record) Set(key string, value any) {
	for i := range r.fields {
		if r.fields[i].Key == key {
			r.fields[i].Value = value
			return
		}
	}
	r.fields = append(r.fields, Field{Key: key, Value: value})
}

// Clone returns an independent copy. Sinks enrich clones, never the shared payload.
func (r Record) Clone() Record {
	return Record{fields: r.Fields()}
}

// Text renders a field the way it is written to flat files and query strings.
// Missing fields render as the empty string.
func (r Record) Text(key string) string {
	v, ok := r.Get(key)
	if !ok {
		return ""
	}
	return FormatValue(v)
}

// FormatValue renders a scalar as its JSON text, strings without quotes.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

// MarshalJSON encodes the record as a JSON object in field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("champ %q: %w", f.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping key order. Numbers stay json.Number
// so they are forwarded exactly as the network server decoded them.
// A JSON null decodes to an empty record.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		r.fields = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("decoded_payload n'est pas un objet JSON: %v", tok)
	}

	var fields []Field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("clé JSON inattendue: %v", keyTok)
		}
		val, err := readValue(dec)
		if err != nil {
			return fmt.Errorf("champ %q: %w", key, err)
		}
		fields = append(fields, Field{Key: key, Value: val})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = NewRecord(fields...)
	return nil
}

// readValue consumes one complete JSON value from the token stream.
// Nested objects are rare in decoded payloads and decode to plain maps.
func readValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch d {
	case '{':
		obj := make(map[string]any)
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := keyTok.(string)
			val, err := readValue(dec)
			if err != nil {
				return nil, err
			}
			obj[key] = val
		}
		_, err = dec.Token()
		return obj, err
	case '[':
		arr := []any{}
		for dec.More() {
			val, err := readValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		_, err = dec.Token()
		return arr, err
	default:
		return nil, fmt.Errorf("délimiteur inattendu %v", d)
	}
}

// ErrNoPayload marks an uplink without decoded_payload (join requests, downlink acks...).
var ErrNoPayload = errors.New("message sans 'decoded_payload'")

// Uplink is one decoded telemetry event from the network server.
type Uplink struct {
	Topic      string
	DeviceID   string
	ReceivedAt time.Time
	Payload    Record
}

// envelope mirrors the parts of a TTN v3 uplink message the relay reads.
type envelope struct {
	EndDeviceIDs struct {
		DeviceID string `json:"device_id"`
	} `json:"end_device_ids"`
	UplinkMessage struct {
		DecodedPayload json.RawMessage `json:"decoded_payload"`
		ReceivedAt     string          `json:"received_at"`
	} `json:"uplink_message"`
}
