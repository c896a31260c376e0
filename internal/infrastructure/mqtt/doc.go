// Package mqtt provides MQTT client connectivity for the light bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS and topic validation
//   - Topic subscriptions, restored after every reconnect
//   - Last Will and Testament (LWT) on the bridge status topic
//   - Connection health monitoring
//
// # Architecture
//
// Lights are remote devices that speak MQTT directly. The bridge publishes
// commands on each light's command topic and listens on its state topic:
//
//	light.Controller ↔ mqtt.Client ↔ Broker ↔ Device (ESP8266 or simulator)
//
// The bridge's own topics live under a configurable prefix (Topics).
//
// # Ordering
//
// Ordered delivery is enabled, so a handler sees messages one at a time in
// arrival order. Handlers must not wait on a publish acknowledgement; the
// acknowledgement is read by the goroutine the handler is blocking.
//
// # Security Considerations
//
//   - Enable TLS (cfg.Broker.TLS=true) when the broker is not on localhost
//   - Credentials are validated against broker ACL
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe("home/kitchen", 0,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	client.Publish("home/kitchen/set", []byte(`{"state":"ON"}`), 0, false)
package mqtt
