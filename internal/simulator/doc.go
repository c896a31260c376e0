// Package simulator emulates the ESP8266 MQTT light firmware so the bridge
// can be exercised without hardware.
//
// Each simulated Device listens on its command topic, accepts the same JSON
// commands as the firmware (state, color, brightness, transition, flash,
// effect) and publishes its retained state on the state topic after every
// accepted command and once at start-up.
//
// Flashes show the requested colour and brightness for the flash length
// ("short", "long", a number of seconds, or effect "flash" for the default)
// and then revert to the real state, which is reported again. Transitions
// are accepted and applied instantly.
//
// Usage:
//
//	sim, err := simulator.New(simulator.Options{
//	    Publisher: mqttClient,
//	    Logger:    log,
//	    Lights:    cfg.Lights,
//	    Config:    cfg.Simulator,
//	})
//	if err := sim.Start(ctx, mqttClient); err != nil { ... }
//	defer sim.Stop()
package simulator
