package device

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-lightbridge/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-lightbridge/internal/light"
)

type publishedMsg struct {
	topic    string
	payload  string
	qos      byte
	retained bool
}

type fakePublisher struct {
	mu          sync.Mutex
	msgs        []publishedMsg
	err         error
	retainedQoS byte
}

func (p *fakePublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, publishedMsg{topic: topic, payload: string(payload), qos: qos, retained: retained})
	return p.err
}

func (p *fakePublisher) PublishRetained(topic string, payload []byte) error {
	return p.Publish(topic, payload, p.retainedQoS, true)
}

func (p *fakePublisher) messages() []publishedMsg {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedMsg(nil), p.msgs...)
}

type fakeSubscriber struct {
	mu       sync.Mutex
	handlers map[string]func(topic string, payload []byte) error
	failOn   map[string]bool
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{
		handlers: make(map[string]func(string, []byte) error),
		failOn:   make(map[string]bool),
	}
}

func (s *fakeSubscriber) Subscribe(topic string, _ byte, handler func(topic string, payload []byte) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn[topic] {
		return fmt.Errorf("broker rejected %s", topic)
	}
	s.handlers[topic] = handler
	return nil
}

func (s *fakeSubscriber) deliver(t *testing.T, topic, payload string) {
	t.Helper()
	s.mu.Lock()
	h, ok := s.handlers[topic]
	s.mu.Unlock()
	require.True(t, ok, "no handler for %s", topic)
	require.NoError(t, h(topic, []byte(payload)))
}

type logEntry struct {
	level string
	msg   string
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, msg string) {
	l.mu.Lock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg})
	l.mu.Unlock()
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.add("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.add("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.add("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.add("error", msg) }

func (l *recordingLogger) count(level, msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			n++
		}
	}
	return n
}

// stateSink collects listener deliveries.
type stateSink struct {
	ch chan light.State
}

func newStateSink() *stateSink {
	return &stateSink{ch: make(chan light.State, 64)}
}

func (s *stateSink) listener() Listener {
	return func(st light.State) { s.ch <- st }
}

func (s *stateSink) next(t *testing.T) light.State {
	t.Helper()
	select {
	case st := <-s.ch:
		return st
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for state notification")
		return light.State{}
	}
}

func (s *stateSink) none(t *testing.T) {
	t.Helper()
	select {
	case st := <-s.ch:
		t.Fatalf("unexpected notification: %+v", st)
	case <-time.After(50 * time.Millisecond):
	}
}

func porchConfig() config.LightConfig {
	return config.LightConfig{
		Name:         "porch",
		Schema:       "json",
		StateTopic:   "home/porch",
		CommandTopic: "home/porch/set",
		Brightness:   true,
	}
}

func stripConfig() config.LightConfig {
	return config.LightConfig{
		Name:         "strip",
		Schema:       "plain",
		CommandTopic: "home/strip/set",
		RGB:          true,
	}
}

var errBroker = errors.New("broker unavailable")
