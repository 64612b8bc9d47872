// Package influxdb provides InfluxDB connectivity for device readings.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, batched writes and health monitoring. Every reading is
// written to the "readings" measurement tagged with device and resource.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteReading("thermostat-01", "Temperature", 21.5, time.Now())
//
// # Error Handling
//
// Writes are non-blocking; batch failures are delivered to the callback set
// with SetOnError. Connection and health check errors are returned directly.
package influxdb
