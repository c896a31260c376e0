package light

import (
	"math"
	"strings"
	"time"
)

// DefaultName is used for a light configured without a name.
const DefaultName = "MQTT Light"

// State payload values.
const (
	PayloadOn  = "ON"
	PayloadOff = "OFF"
)

// Level limits shared by brightness and colour channels.
const (
	MinLevel = 0
	MaxLevel = 255

	// DefaultBrightness is the initial brightness of a dimmable light.
	DefaultBrightness = MaxLevel

	maxQoS = 2
)

// MaxTransition is the longest transition, in seconds, sent on the wire.
const MaxTransition = math.MaxInt32

// Config describes one light. It is fixed once the controller is built.
type Config struct {
	Name         string
	StateTopic   string // optional; empty forces optimistic mode
	CommandTopic string
	QoS          byte
	Retain       bool
	Optimistic   bool // requested optimistic mode
	Brightness   bool // light models brightness
	RGB          bool // light models colour
}

// Capabilities is the set of optional features a light models.
type Capabilities uint8

// Capability flags.
const (
	CapBrightness Capabilities = 1 << iota
	CapColor
)

// capabilitiesFor derives the capability set from configuration.
func capabilitiesFor(cfg Config) Capabilities {
	var caps Capabilities
	if cfg.Brightness {
		caps |= CapBrightness
	}
	if cfg.RGB {
		caps |= CapColor
	}
	return caps
}

// Has reports whether every capability in c is present.
func (caps Capabilities) Has(c Capabilities) bool {
	return c != 0 && caps&c == c
}

// String returns a comma separated list such as "brightness,color".
func (caps Capabilities) String() string {
	var names []string
	if caps.Has(CapBrightness) {
		names = append(names, "brightness")
	}
	if caps.Has(CapColor) {
		names = append(names, "color")
	}
	if len(names) == 0 {
		return "onoff"
	}
	return strings.Join(names, ",")
}

// RGB is a colour with each channel in 0..255.
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Valid reports whether every channel is within 0..255.
func (c RGB) Valid() bool {
	return validLevel(c.R) && validLevel(c.G) && validLevel(c.B)
}

func validLevel(v int) bool {
	return v >= MinLevel && v <= MaxLevel
}

// FlashKind selects the flash effect sent with a turn-on command.
type FlashKind string

// Flash kinds understood by the json codec.
const (
	FlashShort FlashKind = "short"
	FlashLong  FlashKind = "long"
)

// Valid reports whether k is a recognised flash kind.
func (k FlashKind) Valid() bool {
	return k == FlashShort || k == FlashLong
}

// TurnOnOptions are the optional parameters of a turn-on command.
// Nil fields are left out of the outbound message.
type TurnOnOptions struct {
	Color      *RGB
	Brightness *int
	Transition *float64 // truncated to whole units on the wire
	Flash      FlashKind
}

// transitionSeconds truncates t to whole seconds within 0..MaxTransition.
// NaN becomes 0.
func transitionSeconds(t float64) int {
	switch {
	case math.IsNaN(t) || t <= 0:
		return 0
	case t >= MaxTransition:
		return MaxTransition
	}
	return int(t)
}

// TurnOffOptions are the optional parameters of a turn-off command.
type TurnOffOptions struct {
	Transition *float64
}

// Command is the codec-independent form of an outbound message.
type Command struct {
	State      string
	Color      *RGB
	Brightness *int
	Transition *int
	Flash      FlashKind
}

// Update is the result of decoding an inbound state message.
// Nil fields were absent, invalid, or gated off by capability.
type Update struct {
	On         *bool
	Brightness *int
	Color      *RGB
}

// ChangeSource records what caused a state notification.
type ChangeSource string

// Change sources.
const (
	SourceCommand ChangeSource = "command" // optimistic update after a command
	SourceDevice  ChangeSource = "device"  // inbound state message
)

// State is a point-in-time view of a light, passed to ChangeFunc.
type State struct {
	Name         string       `json:"name"`
	On           bool         `json:"on"`
	Brightness   *int         `json:"brightness,omitempty"`
	Color        *RGB         `json:"color,omitempty"`
	Capabilities string       `json:"capabilities"`
	Optimistic   bool         `json:"optimistic"`
	Source       ChangeSource `json:"source,omitempty"`
	At           time.Time    `json:"at"`
}

// ChangeFunc is called once per command or inbound message that changed
// observable state.
type ChangeFunc func(State)

// Publisher sends outbound messages. It must be safe for concurrent use.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Subscriber delivers inbound messages for a topic to a handler.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error
}

// Logger is the logging surface used by the controller.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
