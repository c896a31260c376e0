package simulator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-lightbridge/internal/infrastructure/config"
)

type published struct {
	topic    string
	payload  string
	qos      byte
	retained bool
}

type fakeBroker struct {
	mu       sync.Mutex
	msgs     []published
	handlers map[string]func(string, []byte) error
	subErr   error
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{handlers: make(map[string]func(string, []byte) error)}
}

func (b *fakeBroker) Publish(topic string, payload []byte, qos byte, retained bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, published{topic: topic, payload: string(payload), qos: qos, retained: retained})
	return nil
}

func (b *fakeBroker) Subscribe(topic string, _ byte, handler func(string, []byte) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subErr != nil {
		return b.subErr
	}
	b.handlers[topic] = handler
	return nil
}

func (b *fakeBroker) send(t *testing.T, topic, payload string) {
	t.Helper()
	b.mu.Lock()
	h := b.handlers[topic]
	b.mu.Unlock()
	require.NotNil(t, h, "no handler for %s", topic)
	require.NoError(t, h(topic, []byte(payload)))
}

func (b *fakeBroker) messages() []published {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]published(nil), b.msgs...)
}

func testLights() []config.LightConfig {
	return []config.LightConfig{
		{Name: "porch", StateTopic: "home/porch", CommandTopic: "home/porch/set", QoS: 1, Brightness: true},
		{Name: "desk", StateTopic: "home/desk", CommandTopic: "home/desk/set", RGB: true},
		{Name: "strip", CommandTopic: "home/strip/set"},
	}
}

func TestNew_SelectsLights(t *testing.T) {
	broker := newFakeBroker()

	sim, err := New(Options{Publisher: broker, Lights: testLights()})
	require.NoError(t, err)
	devices := sim.Devices()
	require.Len(t, devices, 2, "lights without a state topic are skipped")
	assert.Equal(t, "desk", devices[0].Name())
	assert.Equal(t, KindRGB, devices[0].Config().Kind)
	assert.Equal(t, "porch", devices[1].Name())
	assert.Equal(t, KindBrightness, devices[1].Config().Kind)

	sim, err = New(Options{Publisher: broker, Lights: testLights(), Config: config.SimulatorConfig{Lights: []string{"PORCH"}}})
	require.NoError(t, err)
	require.Len(t, sim.Devices(), 1)
}

func TestNew_Errors(t *testing.T) {
	broker := newFakeBroker()

	tests := []struct {
		name string
		opts Options
		want error
	}{
		{"unknown light", Options{Publisher: broker, Lights: testLights(), Config: config.SimulatorConfig{Lights: []string{"garage"}}}, ErrUnknownLight},
		{"no state topic", Options{Publisher: broker, Lights: testLights(), Config: config.SimulatorConfig{Lights: []string{"strip"}}}, ErrNoStateTopic},
		{"nothing to simulate", Options{Publisher: broker}, ErrNoLights},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := New(Options{Lights: testLights()})
	assert.Error(t, err, "publisher is required")
}

func TestSimulator_StartPublishesInitialState(t *testing.T) {
	broker := newFakeBroker()
	sim, err := New(Options{Publisher: broker, Lights: testLights()})
	require.NoError(t, err)

	require.NoError(t, sim.Start(context.Background(), broker))
	sim.Stop()

	msgs := broker.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "home/desk", msgs[0].topic)
	assert.JSONEq(t, `{"state":"OFF","color":{"r":255,"g":255,"b":255},"brightness":255}`, msgs[0].payload)
	assert.True(t, msgs[0].retained)
	assert.Equal(t, "home/porch", msgs[1].topic)
	assert.JSONEq(t, `{"state":"OFF","brightness":255}`, msgs[1].payload)
	assert.Equal(t, byte(1), msgs[1].qos)
}

func TestSimulator_CommandRoundTrip(t *testing.T) {
	broker := newFakeBroker()
	sim, err := New(Options{Publisher: broker, Lights: testLights()})
	require.NoError(t, err)
	require.NoError(t, sim.Start(context.Background(), broker))

	broker.send(t, "home/porch/set", `{"state":"ON","brightness":12}`)

	require.Eventually(t, func() bool { return len(broker.messages()) == 3 }, 2*time.Second, 10*time.Millisecond)
	sim.Stop()

	last := broker.messages()[2]
	assert.Equal(t, "home/porch", last.topic)
	assert.JSONEq(t, `{"state":"ON","brightness":12}`, last.payload)
}

func TestSimulator_SubscribeFailure(t *testing.T) {
	broker := newFakeBroker()
	broker.subErr = errors.New("not authorised")
	sim, err := New(Options{Publisher: broker, Lights: testLights()})
	require.NoError(t, err)

	err = sim.Start(context.Background(), broker)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "home/desk/set")
	sim.Stop()
}

func TestSimulator_StopWithoutStart(t *testing.T) {
	sim, err := New(Options{Publisher: newFakeBroker(), Lights: testLights()})
	require.NoError(t, err)
	sim.Stop()
	sim.Stop()
}
