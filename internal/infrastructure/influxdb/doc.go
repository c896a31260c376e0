// Package influxdb records light state telemetry in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Every state
// notification from a light controller becomes one "light_state" point,
// which makes on/off duty cycles and brightness trends queryable.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteLightState(ctrl.Snapshot())
//
// # Error Handling
//
// Writes are non-blocking and batched (batch_size, flush_interval).
// Batch errors are delivered to the SetOnError callback; connection and
// health check errors are returned directly.
package influxdb
