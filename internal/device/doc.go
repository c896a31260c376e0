// Package device manages the bridge's lights.
//
// A Registry builds one light.Controller per configured light, subscribes
// them to the MQTT transport and fans every state notification out to
// listeners:
//
//	            ┌──────────────┐  OnChange   ┌───────┐
//	MQTT ──────▶│  Controller  │────────────▶│ queue │
//	            └──────────────┘             └───┬───┘
//	                                             │ dispatch goroutine
//	         ┌──────────┬──────────────┬─────────┴───┬──────────────┐
//	         ▼          ▼              ▼             ▼              ▼
//	      logging   state mirror    history      telemetry      websocket
//	                 (MQTT)        (SQLite)     (InfluxDB)        (API)
//
// Notifications are queued because controllers call back on the MQTT
// delivery goroutine, and listeners such as the state mirror publish and
// wait for an acknowledgement that the same goroutine has to read.
//
// # Usage
//
//	reg, err := device.NewRegistry(device.Options{Publisher: mqttClient, Logger: log})
//	if err != nil {
//	    return err
//	}
//	if err := reg.AddAll(cfg.Lights); err != nil {
//	    return err
//	}
//	reg.AddListener(device.LogListener(log))
//	reg.AddListener(device.HistoryRecorder(history, log))
//	reg.Start(ctx)
//	defer reg.Stop()
//
//	if err := reg.Subscribe(mqttClient); err != nil {
//	    return err
//	}
//
//	porch, _ := reg.Get("porch")
//	porch.TurnOn(light.TurnOnOptions{})
//
// # History
//
// StateHistoryRepository keeps an audit trail of notifications in the
// light_state_history table. It is never used to restore controller state.
package device
