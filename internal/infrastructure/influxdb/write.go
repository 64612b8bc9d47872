package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementReadings is the measurement every device reading is written to.
const MeasurementReadings = "readings"

// WriteReading records one resource value reported by a device.
//
// The write is non-blocking; points are batched and flushed asynchronously.
// Calls on a closed client are dropped.
//
// Example:
//
//	client.WriteReading("thermostat-01", "Temperature", 21.5, time.Now())
func (c *Client) WriteReading(device, resource string, value float64, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(readingPoint(device, resource, value, ts))
}

func readingPoint(device, resource string, value float64, ts time.Time) *write.Point {
	if ts.IsZero() {
		ts = time.Now()
	}
	return write.NewPoint(
		MeasurementReadings,
		map[string]string{
			"device":   device,
			"resource": resource,
		},
		map[string]interface{}{
			"value": value,
		},
		ts,
	)
}
