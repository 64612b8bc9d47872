// Package readings ingests device readings from MQTT into InfluxDB.
//
// Devices publish on {prefix}/reading/{device}/{resource} with a JSON body:
//
//	{"value": 215, "timestamp": "2026-10-19T12:00:00Z"}
//
// The Ingester resolves the device and resource through the local cache,
// passes the value through the transform.Transformer, and writes a point to
// the "readings" measurement tagged with device and resource. Readings for
// unknown or locked devices, unknown resources, or with bad payloads are
// logged and dropped.
package readings
