// Package api implements the HTTP REST API and WebSocket server for the
// light bridge.
//
// This package provides:
//   - REST endpoints to list lights, read their state and send on/off commands
//   - State history queries backed by the SQLite audit trail
//   - A WebSocket hub that pushes every light state change to subscribers
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Architecture
//
// Commands go from the API straight to the light's controller, which
// publishes them over MQTT. State changes come back through the device
// registry's listener fan-out and are broadcast to WebSocket clients
// subscribed to "light.state_changed".
//
// A command is accepted (202) once it is handed to the controller. In
// confirmed mode the returned state is the last reported state; the new
// state arrives later over the WebSocket.
package api
