package simulator

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-lightbridge/internal/light"
)

// Kind is the LED strip type, which decides what the device reports.
type Kind string

const (
	// KindBrightness is a single-channel strip. Reports state and brightness.
	KindBrightness Kind = "brightness"

	// KindRGB is an RGB strip. Reports state, colour and brightness.
	KindRGB Kind = "rgb"
)

// Firmware power-on defaults.
const (
	defaultLevel      = light.MaxLevel
	effectFlash       = "flash"
	fallbackFlashTime = 2 * time.Second
)

// DeviceConfig describes one simulated light.
type DeviceConfig struct {
	Name         string
	StateTopic   string
	CommandTopic string
	Kind         Kind
	QoS          byte

	// Flash lengths for "short", "long" and effect-only flashes.
	FlashShort   time.Duration
	FlashLong    time.Duration
	DefaultFlash time.Duration
}

// statePayload is what the firmware publishes on its state topic.
type statePayload struct {
	State      string     `json:"state"`
	Color      *light.RGB `json:"color,omitempty"`
	Brightness *int       `json:"brightness,omitempty"`
}

// flashState is an in-progress flash. Its colour is shown instead of the
// real colour until the timer fires.
type flashState struct {
	color      light.RGB
	brightness int
	timer      *time.Timer
}

// Device emulates the ESP8266 light firmware.
//
// It accepts JSON commands, keeps on/off, colour and brightness, and emits
// its full state after every accepted command. Emission goes through emit so
// the caller decides how it reaches the broker.
type Device struct {
	cfg    DeviceConfig
	emit   func(topic string, payload []byte)
	logger Logger

	mu         sync.Mutex
	on         bool
	color      light.RGB
	brightness int
	flash      *flashState
	flashGen   uint64
}

// NewDevice creates a device in the firmware's power-on state: off, white,
// full brightness.
func NewDevice(cfg DeviceConfig, emit func(topic string, payload []byte), logger Logger) *Device {
	if cfg.Kind == "" {
		cfg.Kind = KindBrightness
	}
	if cfg.DefaultFlash <= 0 {
		cfg.DefaultFlash = fallbackFlashTime
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Device{
		cfg:        cfg,
		emit:       emit,
		logger:     logger,
		color:      light.RGB{R: light.MaxLevel, G: light.MaxLevel, B: light.MaxLevel},
		brightness: defaultLevel,
	}
}

// Name returns the light name.
func (d *Device) Name() string {
	return d.cfg.Name
}

// Config returns the device configuration.
func (d *Device) Config() DeviceConfig {
	return d.cfg
}

// Flashing reports whether a flash is in progress.
func (d *Device) Flashing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flash != nil
}

// HandleCommand applies a command payload and reports the resulting state.
//
// Recognised keys are state, color, brightness, transition, flash and
// effect. Unknown or out-of-range values are ignored. A payload that is not
// a JSON object is rejected without reporting.
func (d *Device) HandleCommand(_ string, payload []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil || fields == nil {
		return fmt.Errorf("%w: %s: payload is not a JSON object", ErrInvalidCommand, d.cfg.Name)
	}

	d.mu.Lock()

	if raw, ok := fields["state"]; ok {
		var state string
		if json.Unmarshal(raw, &state) == nil {
			switch strings.ToUpper(state) {
			case light.PayloadOn:
				d.on = true
			case light.PayloadOff:
				d.on = false
				d.stopFlashLocked()
			}
		}
	}

	color, hasColor := decodeColor(fields)
	level, hasLevel := decodeLevel(fields)

	if length, ok := d.flashLength(fields); ok && d.on {
		f := &flashState{color: d.color, brightness: d.brightness}
		if hasColor {
			f.color = color
		}
		if hasLevel {
			f.brightness = level
		}
		d.startFlashLocked(f, length)
	} else {
		if hasColor && d.cfg.Kind == KindRGB {
			d.color = color
		}
		if hasLevel {
			d.brightness = level
		}
	}

	if raw, ok := fields["transition"]; ok {
		d.logger.Debug("transition applied instantly", "light", d.cfg.Name, "transition", string(raw))
	}

	data := d.stateLocked()
	d.mu.Unlock()

	d.emit(d.cfg.StateTopic, data)
	return nil
}

// Report emits the current state without changing it.
func (d *Device) Report() {
	d.mu.Lock()
	data := d.stateLocked()
	d.mu.Unlock()
	d.emit(d.cfg.StateTopic, data)
}

// Stop cancels any running flash.
func (d *Device) Stop() {
	d.mu.Lock()
	d.stopFlashLocked()
	d.mu.Unlock()
}

// flashLength resolves the flash duration requested by a command.
// "flash" may be "short", "long" or a number of seconds; "effect":"flash"
// alone uses the default length.
func (d *Device) flashLength(fields map[string]json.RawMessage) (time.Duration, bool) {
	if raw, ok := fields["flash"]; ok {
		var kind string
		if json.Unmarshal(raw, &kind) == nil {
			switch light.FlashKind(kind) {
			case light.FlashShort:
				return d.cfg.FlashShort, d.cfg.FlashShort > 0
			case light.FlashLong:
				return d.cfg.FlashLong, d.cfg.FlashLong > 0
			}
			return 0, false
		}
		var seconds float64
		if json.Unmarshal(raw, &seconds) == nil && seconds > 0 {
			return time.Duration(seconds * float64(time.Second)), true
		}
		return 0, false
	}

	if raw, ok := fields["effect"]; ok {
		var effect string
		if json.Unmarshal(raw, &effect) == nil && effect == effectFlash {
			return d.cfg.DefaultFlash, true
		}
	}
	return 0, false
}

// startFlashLocked replaces any running flash. Caller must hold d.mu.
func (d *Device) startFlashLocked(f *flashState, length time.Duration) {
	d.stopFlashLocked()
	d.flashGen++
	gen := d.flashGen
	f.timer = time.AfterFunc(length, func() { d.endFlash(gen) })
	d.flash = f
	d.logger.Debug("flash started", "light", d.cfg.Name, "length", length.String())
}

// stopFlashLocked cancels a running flash. Caller must hold d.mu.
func (d *Device) stopFlashLocked() {
	if d.flash == nil {
		return
	}
	d.flash.timer.Stop()
	d.flash = nil
}

// endFlash reverts to the real colour and reports it. A timer from a
// superseded flash is ignored.
func (d *Device) endFlash(gen uint64) {
	d.mu.Lock()
	if d.flash == nil || gen != d.flashGen {
		d.mu.Unlock()
		return
	}
	d.flash = nil
	data := d.stateLocked()
	d.mu.Unlock()

	d.logger.Debug("flash finished", "light", d.cfg.Name)
	d.emit(d.cfg.StateTopic, data)
}

// stateLocked encodes the reported state. Caller must hold d.mu.
func (d *Device) stateLocked() []byte {
	color, level := d.color, d.brightness
	if d.flash != nil {
		color, level = d.flash.color, d.flash.brightness
	}

	msg := statePayload{State: light.PayloadOff, Brightness: &level}
	if d.on {
		msg.State = light.PayloadOn
	}
	if d.cfg.Kind == KindRGB {
		msg.Color = &color
	}

	//nolint:errchkjson // statePayload contains only strings and ints
	data, _ := json.Marshal(msg)
	return data
}

func decodeColor(fields map[string]json.RawMessage) (light.RGB, bool) {
	raw, ok := fields["color"]
	if !ok {
		return light.RGB{}, false
	}
	var c light.RGB
	if err := json.Unmarshal(raw, &c); err != nil || !c.Valid() {
		return light.RGB{}, false
	}
	return c, true
}

func decodeLevel(fields map[string]json.RawMessage) (int, bool) {
	raw, ok := fields["brightness"]
	if !ok {
		return 0, false
	}
	var level int
	if err := json.Unmarshal(raw, &level); err != nil || level < light.MinLevel || level > light.MaxLevel {
		return 0, false
	}
	return level, true
}
