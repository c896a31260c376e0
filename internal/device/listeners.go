package device

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nerrad567/gray-logic-lightbridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-lightbridge/internal/light"
)

// historyWriteTimeout bounds one history insert.
const historyWriteTimeout = 5 * time.Second

// StateWriter is the telemetry sink, satisfied by *influxdb.Client.
type StateWriter interface {
	WriteLightState(state light.State)
}

// RetainedPublisher publishes retained messages at the transport's default
// QoS, satisfied by *mqtt.Client.
type RetainedPublisher interface {
	PublishRetained(topic string, payload []byte) error
}

// LogListener logs every notification at info level.
func LogListener(logger Logger) Listener {
	return func(s light.State) {
		args := []any{
			"light", s.Name,
			"on", s.On,
			"source", string(s.Source),
		}
		if s.Brightness != nil {
			args = append(args, "brightness", *s.Brightness)
		}
		if s.Color != nil {
			args = append(args, "color", []int{s.Color.R, s.Color.G, s.Color.B})
		}
		logger.Info("light state changed", args...)
	}
}

// StateMirror republishes each notification as retained JSON on the
// bridge's own topic for the light, so dashboards can follow lights that
// have no state topic of their own.
func StateMirror(pub RetainedPublisher, topics mqtt.Topics, logger Logger) Listener {
	return func(s light.State) {
		payload, err := json.Marshal(s)
		if err != nil {
			logger.Error("encoding mirrored state", "light", s.Name, "error", err)
			return
		}
		topic := topics.LightState(s.Name)
		if err := pub.PublishRetained(topic, payload); err != nil {
			logger.Warn("mirroring light state failed", "light", s.Name, "topic", topic, "error", err)
		}
	}
}

// HistoryRecorder appends each notification to the audit trail.
func HistoryRecorder(repo StateHistoryRepository, logger Logger) Listener {
	return func(s light.State) {
		ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
		defer cancel()
		if err := repo.RecordStateChange(ctx, s); err != nil {
			logger.Warn("recording light state history failed", "light", s.Name, "error", err)
		}
	}
}

// TelemetryRecorder forwards each notification to a time-series sink.
func TelemetryRecorder(w StateWriter) Listener {
	return func(s light.State) {
		w.WriteLightState(s)
	}
}
