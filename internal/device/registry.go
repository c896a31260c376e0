package device

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/nerrad567/gray-logic-lightbridge/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-lightbridge/internal/light"
)

// defaultQueueSize bounds state notifications waiting for listeners.
const defaultQueueSize = 256

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Listener receives every state notification from every registered light.
type Listener func(light.State)

// Options configures a Registry.
type Options struct {
	// Publisher carries outbound commands for every light. Required.
	Publisher light.Publisher

	// Logger is shared with the controllers. Defaults to a no-op logger.
	Logger Logger

	// QueueSize bounds notifications waiting for listeners. Defaults to 256.
	QueueSize int
}

// Registry owns the light controllers built from configuration and fans
// their state notifications out to listeners.
//
// Controllers call back on the transport's delivery goroutine, so the
// registry queues notifications and delivers them from its own goroutine
// (see Start). A full queue drops the notification with a warning.
//
// All public methods are thread-safe.
type Registry struct {
	pub    light.Publisher
	logger Logger

	mu     sync.RWMutex
	lights map[string]*light.Controller

	listenerMu sync.RWMutex
	listeners  []Listener

	events   chan light.State
	runMu    sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewRegistry creates an empty registry.
func NewRegistry(opts Options) (*Registry, error) {
	if opts.Publisher == nil {
		return nil, light.ErrNilPublisher
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	size := opts.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}

	return &Registry{
		pub:    opts.Publisher,
		logger: logger,
		lights: make(map[string]*light.Controller),
		events: make(chan light.State, size),
	}, nil
}

// Add builds a controller for cfg and registers it under its name.
// The controller is not subscribed until Subscribe is called.
func (r *Registry) Add(cfg config.LightConfig) (*light.Controller, error) {
	codec, err := light.CodecByName(cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidLight, cfg.Name, err)
	}
	if cfg.QoS < 0 {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidLight, cfg.Name, light.ErrInvalidQoS)
	}

	ctrl, err := light.New(lightConfig(cfg), codec, r.pub, light.Options{
		Logger:   r.logger,
		OnChange: r.enqueue,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidLight, cfg.Name, err)
	}

	key := normaliseName(ctrl.Name())

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.lights[key]; exists {
		return nil, fmt.Errorf("%w: %s", ErrLightExists, ctrl.Name())
	}
	r.lights[key] = ctrl

	r.logger.Debug("light registered",
		"light", ctrl.Name(),
		"schema", codec.Name(),
		"capabilities", ctrl.Capabilities().String(),
		"optimistic", ctrl.IsOptimistic(),
	)
	return ctrl, nil
}

// AddAll registers every configured light, stopping at the first error.
func (r *Registry) AddAll(lights []config.LightConfig) error {
	for _, cfg := range lights {
		if _, err := r.Add(cfg); err != nil {
			return err
		}
	}
	return nil
}

// lightConfig maps a config.yaml entry onto the controller configuration.
func lightConfig(cfg config.LightConfig) light.Config {
	return light.Config{
		Name:         cfg.Name,
		StateTopic:   cfg.StateTopic,
		CommandTopic: cfg.CommandTopic,
		QoS:          byte(cfg.QoS), //nolint:gosec // negative rejected by Add, upper bound by light.New
		Retain:       cfg.Retain,
		Optimistic:   cfg.Optimistic,
		Brightness:   cfg.Brightness,
		RGB:          cfg.RGB,
	}
}

// normaliseName makes lookups case-insensitive.
func normaliseName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Get returns the controller registered under name (case-insensitive).
// Returns ErrLightNotFound if there is none.
func (r *Registry) Get(name string) (*light.Controller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ctrl, ok := r.lights[normaliseName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLightNotFound, name)
	}
	return ctrl, nil
}

// List returns every controller sorted by name.
func (r *Registry) List() []*light.Controller {
	r.mu.RLock()
	out := make([]*light.Controller, 0, len(r.lights))
	for _, ctrl := range r.lights {
		out = append(out, ctrl)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return normaliseName(out[i].Name()) < normaliseName(out[j].Name())
	})
	return out
}

// Snapshots returns the current state of every light, sorted by name.
func (r *Registry) Snapshots() []light.State {
	lights := r.List()
	states := make([]light.State, 0, len(lights))
	for _, ctrl := range lights {
		states = append(states, ctrl.Snapshot())
	}
	return states
}

// Count returns the number of registered lights.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lights)
}

// Subscribe registers every controller's state topic with sub.
// All lights are attempted; the returned error joins every failure.
func (r *Registry) Subscribe(sub light.Subscriber) error {
	var failed []string
	var firstErr error
	for _, ctrl := range r.List() {
		if err := ctrl.Register(sub); err != nil {
			r.logger.Error("light subscription failed", "light", ctrl.Name(), "error", err)
			failed = append(failed, ctrl.Name())
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return fmt.Errorf("subscribing %d light(s) [%s]: %w", len(failed), strings.Join(failed, ", "), firstErr)
	}
	return nil
}

// AddListener appends a listener. Listeners run in registration order on
// the dispatch goroutine and must not block for long.
func (r *Registry) AddListener(l Listener) {
	if l == nil {
		return
	}
	r.listenerMu.Lock()
	r.listeners = append(r.listeners, l)
	r.listenerMu.Unlock()
}
