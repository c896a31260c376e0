package light

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Codec translates between commands or state updates and wire payloads.
type Codec interface {
	// Name returns the schema name used in configuration.
	Name() string

	// EncodeCommand serialises an outbound command.
	EncodeCommand(cmd Command) ([]byte, error)

	// DecodeState parses an inbound state message. Colour and brightness are
	// only read when caps includes them. A payload that is not a JSON object
	// returns ErrMalformedPayload; individual bad fields are skipped.
	DecodeState(payload []byte, caps Capabilities) (Update, error)
}

// Schema names.
const (
	SchemaPlain = "plain"
	SchemaJSON  = "json"
)

// CodecByName returns the codec for a schema name. An empty name selects
// the json codec.
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case SchemaPlain:
		return PlainCodec{}, nil
	case SchemaJSON, "":
		return JSONCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// commandPayload is the outbound wire shape. Field order matches what
// devices have always received.
type commandPayload struct {
	State      string `json:"state"`
	Color      *RGB   `json:"color,omitempty"`
	Transition *int   `json:"transition,omitempty"`
	Brightness *int   `json:"brightness,omitempty"`
	Flash      string `json:"flash,omitempty"`
}

func encodeCommand(cmd Command, withFlash bool) ([]byte, error) {
	msg := commandPayload{
		State:      cmd.State,
		Color:      cmd.Color,
		Transition: cmd.Transition,
		Brightness: cmd.Brightness,
	}
	if withFlash && cmd.Flash.Valid() {
		msg.Flash = string(cmd.Flash)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding command: %w", err)
	}
	return data, nil
}

// decodeState holds the decode rules shared by both codecs.
func decodeState(payload []byte, caps Capabilities) (Update, error) {
	var values map[string]json.RawMessage
	if err := json.Unmarshal(payload, &values); err != nil {
		return Update{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if values == nil {
		return Update{}, fmt.Errorf("%w: not a JSON object", ErrMalformedPayload)
	}

	var u Update
	if on, ok := decodeOnOff(values["state"]); ok {
		u.On = &on
	}
	if caps.Has(CapColor) {
		if c, ok := decodeColor(values["color"]); ok {
			u.Color = &c
		}
	}
	if caps.Has(CapBrightness) {
		if b, ok := decodeLevel(values["brightness"]); ok {
			u.Brightness = &b
		}
	}
	return u, nil
}

// decodeOnOff accepts exactly "ON" or "OFF".
func decodeOnOff(raw json.RawMessage) (bool, bool) {
	if len(raw) == 0 {
		return false, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false, false
	}
	switch s {
	case PayloadOn:
		return true, true
	case PayloadOff:
		return false, true
	default:
		return false, false
	}
}

// decodeColor requires all three channels; a partial colour is skipped.
func decodeColor(raw json.RawMessage) (RGB, bool) {
	if len(raw) == 0 {
		return RGB{}, false
	}
	var channels map[string]json.RawMessage
	if err := json.Unmarshal(raw, &channels); err != nil || channels == nil {
		return RGB{}, false
	}

	r, okR := decodeLevel(channels["r"])
	g, okG := decodeLevel(channels["g"])
	b, okB := decodeLevel(channels["b"])
	if !okR || !okG || !okB {
		return RGB{}, false
	}
	return RGB{R: r, G: g, B: b}, true
}

// decodeLevel coerces a JSON number (truncated) or an integer string to an
// int in 0..255.
func decodeLevel(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}

	var f float64
	switch t := v.(type) {
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = math.Trunc(n)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		f = float64(n)
	default:
		return 0, false
	}

	if f < MinLevel || f > MaxLevel {
		return 0, false
	}
	return int(f), true
}
