package device

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-lightbridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-lightbridge/internal/light"
)

func sampleState() light.State {
	return light.State{
		Name:         "Porch",
		On:           true,
		Brightness:   intPtr(90),
		Capabilities: "brightness",
		Source:       light.SourceDevice,
		At:           time.Date(2026, 2, 2, 2, 2, 2, 0, time.UTC),
	}
}

func TestStateMirror(t *testing.T) {
	pub := &fakePublisher{retainedQoS: 1}
	logger := &recordingLogger{}
	mirror := StateMirror(pub, mqtt.Topics{Prefix: "lightbridge"}, logger)

	mirror(sampleState())

	msgs := pub.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "lightbridge/lights/porch/state", msgs[0].topic)
	assert.True(t, msgs[0].retained)
	assert.Equal(t, byte(1), msgs[0].qos)

	var got light.State
	require.NoError(t, json.Unmarshal([]byte(msgs[0].payload), &got))
	assert.Equal(t, "Porch", got.Name)
	assert.True(t, got.On)
	require.NotNil(t, got.Brightness)
	assert.Equal(t, 90, *got.Brightness)
}

func TestStateMirror_PublishFailureLogged(t *testing.T) {
	pub := &fakePublisher{err: errBroker}
	logger := &recordingLogger{}

	StateMirror(pub, mqtt.Topics{}, logger)(sampleState())

	assert.Equal(t, 1, logger.count("warn", "mirroring light state failed"))
}

type fakeHistory struct {
	mu     sync.Mutex
	states []light.State
	err    error
}

func (f *fakeHistory) RecordStateChange(_ context.Context, s light.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, s)
	return f.err
}

func (f *fakeHistory) GetHistory(context.Context, string, int) ([]StateHistoryEntry, error) {
	return nil, nil
}

func (f *fakeHistory) PruneHistory(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

func TestHistoryRecorder(t *testing.T) {
	repo := &fakeHistory{}
	logger := &recordingLogger{}

	HistoryRecorder(repo, logger)(sampleState())
	require.Len(t, repo.states, 1)
	assert.Equal(t, "Porch", repo.states[0].Name)

	repo.err = errBroker
	HistoryRecorder(repo, logger)(sampleState())
	assert.Equal(t, 1, logger.count("warn", "recording light state history failed"))
}

type fakeWriter struct{ states []light.State }

func (f *fakeWriter) WriteLightState(s light.State) { f.states = append(f.states, s) }

func TestTelemetryRecorder(t *testing.T) {
	w := &fakeWriter{}
	TelemetryRecorder(w)(sampleState())
	require.Len(t, w.states, 1)
	assert.Equal(t, "Porch", w.states[0].Name)
}

func TestLogListener(t *testing.T) {
	logger := &recordingLogger{}
	s := sampleState()
	s.Color = &light.RGB{R: 1, G: 2, B: 3}

	LogListener(logger)(s)
	assert.Equal(t, 1, logger.count("info", "light state changed"))
}

func TestRegistry_EndToEndWithHistory(t *testing.T) {
	repo := setupHistoryRepo(t)
	reg, _ := newTestRegistry(t, Options{})
	strip, err := reg.Add(stripConfig())
	require.NoError(t, err)

	reg.AddListener(HistoryRecorder(repo, noopLogger{}))
	reg.Start(context.Background())

	strip.TurnOn(light.TurnOnOptions{Color: &light.RGB{R: 9, G: 8, B: 7}})
	strip.TurnOff(light.TurnOffOptions{})
	reg.Stop()

	entries, err := repo.GetHistory(context.Background(), "strip", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.False(t, entries[0].On)
	assert.True(t, entries[1].On)
	require.NotNil(t, entries[1].Color)
	assert.Equal(t, light.RGB{R: 9, G: 8, B: 7}, *entries[1].Color)
}
