package light

import (
	"fmt"
	"sync"
	"time"
)

// Options carries the optional collaborators of a Controller.
type Options struct {
	// Logger receives decode and publish failures. Defaults to a no-op logger.
	Logger Logger

	// OnChange is called when observable state changes. May be nil.
	OnChange ChangeFunc
}

// Controller is the single authoritative holder of one light's state.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - OnChange is called without the state lock held, so it may read the
//     controller. Notifications are serialised in the order their state
//     changes were applied; OnChange must not call TurnOn, TurnOff or
//     HandleMessage on the same controller.
type Controller struct {
	cfg        Config
	codec      Codec
	publisher  Publisher
	logger     Logger
	onChange   ChangeFunc
	caps       Capabilities
	optimistic bool
	now        func() time.Time

	// notifyMu spans a state change and its OnChange call.
	notifyMu sync.Mutex

	mu         sync.RWMutex
	on         bool
	brightness int
	color      RGB
}

// New builds a controller for one light.
//
// Optimistic mode is enabled when requested or when the light has no state
// topic. Brightness starts at 255 and colour at (0,0,0) when modelled.
//
// Parameters:
//   - cfg: Light configuration
//   - codec: Wire format for commands and state messages
//   - pub: Transport for outbound commands
//   - opts: Optional logger and change callback
//
// Returns:
//   - *Controller: Ready controller, not yet subscribed (see Register)
//   - error: If the configuration or dependencies are invalid
func New(cfg Config, codec Codec, pub Publisher, opts Options) (*Controller, error) {
	if cfg.CommandTopic == "" {
		return nil, ErrCommandTopicRequired
	}
	if cfg.QoS > maxQoS {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQoS, cfg.QoS)
	}
	if codec == nil {
		return nil, ErrNilCodec
	}
	if pub == nil {
		return nil, ErrNilPublisher
	}
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}

	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	c := &Controller{
		cfg:        cfg,
		codec:      codec,
		publisher:  pub,
		logger:     logger,
		onChange:   opts.OnChange,
		caps:       capabilitiesFor(cfg),
		optimistic: cfg.Optimistic || cfg.StateTopic == "",
		now:        time.Now,
	}
	if c.caps.Has(CapBrightness) {
		c.brightness = DefaultBrightness
	}
	return c, nil
}

// Register subscribes HandleMessage to the light's state topic.
// Lights without a state topic need no subscription and return nil.
func (c *Controller) Register(sub Subscriber) error {
	if c.cfg.StateTopic == "" {
		return nil
	}
	if sub == nil {
		return ErrNilSubscriber
	}
	if err := sub.Subscribe(c.cfg.StateTopic, c.cfg.QoS, c.handleStateMessage); err != nil {
		return fmt.Errorf("subscribing to %s: %w", c.cfg.StateTopic, err)
	}
	return nil
}

// Name returns the light's name.
func (c *Controller) Name() string {
	return c.cfg.Name
}

// Config returns the configuration the controller was built with.
func (c *Controller) Config() Config {
	return c.cfg
}

// Codec returns the wire format in use.
func (c *Controller) Codec() Codec {
	return c.codec
}

// Capabilities returns the features this light models.
func (c *Controller) Capabilities() Capabilities {
	return c.caps
}

// IsOptimistic reports whether local state follows commands without
// waiting for confirmation.
func (c *Controller) IsOptimistic() bool {
	return c.optimistic
}

// IsOn reports whether the light is on.
func (c *Controller) IsOn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.on
}

// Brightness returns the current brightness. ok is false when the light
// does not model brightness.
func (c *Controller) Brightness() (level int, ok bool) {
	if !c.caps.Has(CapBrightness) {
		return 0, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.brightness, true
}

// ColorRGB returns the current colour. ok is false when the light does not
// model colour.
func (c *Controller) ColorRGB() (color RGB, ok bool) {
	if !c.caps.Has(CapColor) {
		return RGB{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.color, true
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked("")
}

// TurnOn publishes an ON command with the requested options.
//
// The command is always published. In optimistic mode the light is marked
// on, requested brightness and colour are applied for modelled
// capabilities, and OnChange fires once. In confirmed mode local state is
// left for the device to report.
func (c *Controller) TurnOn(opts TurnOnOptions) {
	cmd := Command{State: PayloadOn}

	if opts.Color != nil {
		color := *opts.Color
		cmd.Color = &color
	}
	if opts.Flash != "" {
		if opts.Flash.Valid() {
			cmd.Flash = opts.Flash
		} else {
			c.logger.Debug("ignoring unknown flash kind", "light", c.cfg.Name, "flash", string(opts.Flash))
		}
	}
	if opts.Transition != nil {
		t := transitionSeconds(*opts.Transition)
		cmd.Transition = &t
	}
	if opts.Brightness != nil {
		level := *opts.Brightness
		cmd.Brightness = &level
	}

	c.publish(cmd)

	if !c.optimistic {
		return
	}

	c.apply(SourceCommand, func() {
		if cmd.Color != nil && c.caps.Has(CapColor) {
			c.color = *cmd.Color
		}
		if cmd.Brightness != nil && c.caps.Has(CapBrightness) {
			c.brightness = *cmd.Brightness
		}
		// The on bit is always marked dirty here, so one notification covers
		// every field set above.
		c.on = true
	})
}

// TurnOff publishes an OFF command. In optimistic mode the light is marked
// off and OnChange fires.
func (c *Controller) TurnOff(opts TurnOffOptions) {
	cmd := Command{State: PayloadOff}
	if opts.Transition != nil {
		t := transitionSeconds(*opts.Transition)
		cmd.Transition = &t
	}

	c.publish(cmd)

	if !c.optimistic {
		return
	}

	c.apply(SourceCommand, func() {
		c.on = false
	})
}

// HandleMessage merges an inbound state payload.
//
// A payload that is not a JSON object is logged and discarded without a
// notification. Otherwise every field that decodes is applied and OnChange
// fires exactly once, even if nothing changed.
func (c *Controller) HandleMessage(payload []byte) {
	update, err := c.codec.DecodeState(payload, c.caps)
	if err != nil {
		c.logger.Warn("discarding state message",
			"light", c.cfg.Name,
			"topic", c.cfg.StateTopic,
			"error", err,
		)
		return
	}

	c.apply(SourceDevice, func() {
		if update.On != nil {
			c.on = *update.On
		}
		if update.Color != nil && c.caps.Has(CapColor) {
			c.color = *update.Color
		}
		if update.Brightness != nil && c.caps.Has(CapBrightness) {
			c.brightness = *update.Brightness
		}
	})
}

// handleStateMessage adapts HandleMessage to the subscriber callback.
func (c *Controller) handleStateMessage(_ string, payload []byte) error {
	c.HandleMessage(payload)
	return nil
}

func (c *Controller) publish(cmd Command) {
	payload, err := c.codec.EncodeCommand(cmd)
	if err != nil {
		c.logger.Error("encoding command failed", "light", c.cfg.Name, "error", err)
		return
	}
	if err := c.publisher.Publish(c.cfg.CommandTopic, payload, c.cfg.QoS, c.cfg.Retain); err != nil {
		c.logger.Warn("publishing command failed",
			"light", c.cfg.Name,
			"topic", c.cfg.CommandTopic,
			"error", err,
		)
	}
}

// apply runs mutate under the state lock and delivers the resulting
// snapshot before any later change can deliver its own.
func (c *Controller) apply(source ChangeSource, mutate func()) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	mutate()
	state := c.snapshotLocked(source)
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange(state)
	}
}

// snapshotLocked builds a State. Caller must hold c.mu.
func (c *Controller) snapshotLocked(source ChangeSource) State {
	s := State{
		Name:         c.cfg.Name,
		On:           c.on,
		Capabilities: c.caps.String(),
		Optimistic:   c.optimistic,
		Source:       source,
		At:           c.now().UTC(),
	}
	if c.caps.Has(CapBrightness) {
		level := c.brightness
		s.Brightness = &level
	}
	if c.caps.Has(CapColor) {
		color := c.color
		s.Color = &color
	}
	return s
}
