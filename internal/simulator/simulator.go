package simulator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-lightbridge/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-lightbridge/internal/light"
)

// outboxSize bounds state reports waiting to be published.
const outboxSize = 64

// Logger is the logging surface used by the simulator.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Simulator.
type Options struct {
	Publisher light.Publisher
	Logger    Logger
	Lights    []config.LightConfig
	Config    config.SimulatorConfig
}

// report is one queued state publication.
type report struct {
	topic   string
	payload []byte
	qos     byte
}

// Simulator runs a set of simulated lights against an MQTT broker.
//
// Devices are driven from MQTT handler goroutines, so their state reports
// are queued and published by a separate goroutine.
type Simulator struct {
	pub     light.Publisher
	logger  Logger
	devices []*Device

	outbox   chan report
	done     chan struct{}
	started  bool
	stopOnce sync.Once
	mu       sync.Mutex
}

// New builds a Simulator for the configured lights.
//
// Lights listed in Config.Lights are simulated; an empty list selects every
// light with a state topic.
func New(opts Options) (*Simulator, error) {
	if opts.Publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	selected, err := selectLights(opts.Lights, opts.Config.Lights)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		pub:    opts.Publisher,
		logger: logger,
		outbox: make(chan report, outboxSize),
		done:   make(chan struct{}),
	}

	for _, lc := range selected {
		dc := DeviceConfig{
			Name:         lc.Name,
			StateTopic:   lc.StateTopic,
			CommandTopic: lc.CommandTopic,
			Kind:         KindBrightness,
			QoS:          byte(lc.QoS),
			FlashShort:   seconds(opts.Config.FlashShortSeconds),
			FlashLong:    seconds(opts.Config.FlashLongSeconds),
			DefaultFlash: seconds(opts.Config.DefaultFlashSeconds),
		}
		if lc.RGB {
			dc.Kind = KindRGB
		}
		qos := dc.QoS
		s.devices = append(s.devices, NewDevice(dc, func(topic string, payload []byte) {
			s.enqueue(report{topic: topic, payload: payload, qos: qos})
		}, logger))
	}

	return s, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// selectLights picks the lights to simulate, sorted by name.
func selectLights(lights []config.LightConfig, names []string) ([]config.LightConfig, error) {
	var out []config.LightConfig

	if len(names) == 0 {
		for _, l := range lights {
			if l.StateTopic != "" {
				out = append(out, l)
			}
		}
	} else {
		byName := make(map[string]config.LightConfig, len(lights))
		for _, l := range lights {
			byName[strings.ToLower(l.Name)] = l
		}
		for _, name := range names {
			l, ok := byName[strings.ToLower(strings.TrimSpace(name))]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownLight, name)
			}
			if l.StateTopic == "" {
				return nil, fmt.Errorf("%w: %q", ErrNoStateTopic, name)
			}
			out = append(out, l)
		}
	}

	if len(out) == 0 {
		return nil, ErrNoLights
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Devices returns the simulated devices sorted by name.
func (s *Simulator) Devices() []*Device {
	return append([]*Device(nil), s.devices...)
}

// Start subscribes every device to its command topic and publishes its
// initial state.
func (s *Simulator) Start(ctx context.Context, sub light.Subscriber) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	go s.publishLoop(ctx)

	for _, d := range s.devices {
		cfg := d.Config()
		if err := sub.Subscribe(cfg.CommandTopic, cfg.QoS, d.HandleCommand); err != nil {
			return fmt.Errorf("subscribing %s to %s: %w", cfg.Name, cfg.CommandTopic, err)
		}
		s.logger.Info("simulated light online",
			"light", cfg.Name,
			"kind", string(cfg.Kind),
			"command_topic", cfg.CommandTopic,
			"state_topic", cfg.StateTopic,
		)
		d.Report()
	}
	return nil
}

// Stop cancels running flashes and waits for queued reports to be published.
func (s *Simulator) Stop() {
	s.stopOnce.Do(func() {
		for _, d := range s.devices {
			d.Stop()
		}

		s.mu.Lock()
		started := s.started
		s.mu.Unlock()

		if started {
			close(s.outbox)
			<-s.done
		}
		s.logger.Info("simulator stopped")
	})
}

// enqueue queues a report, dropping it if the queue is full or stopped.
func (s *Simulator) enqueue(r report) {
	defer func() {
		recover() //nolint:errcheck // Absorb send-on-closed-channel after Stop
	}()

	select {
	case s.outbox <- r:
	default:
		s.logger.Warn("state report queue full, dropping report", "topic", r.topic)
	}
}

func (s *Simulator) publishLoop(ctx context.Context) {
	defer close(s.done)

	for {
		select {
		case r, ok := <-s.outbox:
			if !ok {
				return
			}
			s.publish(r)
		case <-ctx.Done():
			s.drain()
			return
		}
	}
}

// drain publishes whatever is queued without waiting for more.
func (s *Simulator) drain() {
	for {
		select {
		case r, ok := <-s.outbox:
			if !ok {
				return
			}
			s.publish(r)
		default:
			return
		}
	}
}

// publish sends a retained state report, as the firmware does.
func (s *Simulator) publish(r report) {
	if err := s.pub.Publish(r.topic, r.payload, r.qos, true); err != nil {
		s.logger.Warn("publishing simulated state failed", "topic", r.topic, "error", err)
	}
}
