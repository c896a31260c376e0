package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-lightbridge/internal/light"
)

// Measurement names.
const (
	measurementLightState = "light_state"
)

// WriteLightState records one light state notification.
//
// Tags: light, source, capabilities. Fields: on and optimistic always,
// brightness and r/g/b only when the light supports them.
//
// Example:
//
//	client.WriteLightState(ctrl.Snapshot())
func (c *Client) WriteLightState(state light.State) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(LightStatePoint(state))
}

// LightStatePoint converts a light state to an InfluxDB point.
// A zero At is replaced with the current time.
func LightStatePoint(state light.State) *write.Point {
	tags := map[string]string{
		"light":        state.Name,
		"capabilities": state.Capabilities,
	}
	if state.Source != "" {
		tags["source"] = string(state.Source)
	}

	fields := map[string]interface{}{
		"on":         state.On,
		"optimistic": state.Optimistic,
	}
	if state.Brightness != nil {
		fields["brightness"] = int64(*state.Brightness)
	}
	if state.Color != nil {
		fields["r"] = int64(state.Color.R)
		fields["g"] = int64(state.Color.G)
		fields["b"] = int64(state.Color.B)
	}

	at := state.At
	if at.IsZero() {
		at = time.Now()
	}
	return write.NewPoint(measurementLightState, tags, fields, at)
}
