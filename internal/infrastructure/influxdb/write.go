package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteClimateMetric writes a single numeric climate measurement.
//
// This is the primary method for recording proxy telemetry data.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - instanceID: Proxy instance identifier (e.g., "living-room")
//   - metric: The metric name (e.g., "current_temperature", "current_humidity")
//   - value: The numeric value to record
//
// Example:
//
//	client.WriteClimateMetric("living-room", "current_temperature", 21.5)
//	client.WriteClimateMetric("living-room", "current_humidity", 45.0)
func (c *Client) WriteClimateMetric(instanceID string, metric string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"climate_metrics",
		map[string]string{
			"instance_id": instanceID,
			"metric":      metric,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteHvacState writes the current HVAC operating state for a proxy.
//
// Recorded as a separate measurement because the values are strings
// (mode names), not numerics.
//
// Parameters:
//   - instanceID: Proxy instance identifier
//   - state: Raw HVAC state (e.g., "heat", "cool", "off")
//   - fanMode: Current fan mode (empty string if unknown)
func (c *Client) WriteHvacState(instanceID string, state string, fanMode string) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"state": state,
	}
	if fanMode != "" {
		fields["fan_mode"] = fanMode
	}

	point := write.NewPoint(
		"hvac_state",
		map[string]string{
			"instance_id": instanceID,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteAvailability records whether a proxy is currently available.
//
// Availability transitions are useful for tracking source-entity
// dropouts over time.
//
// Parameters:
//   - instanceID: Proxy instance identifier
//   - available: Whether both source entities are currently reporting
func (c *Client) WriteAvailability(instanceID string, available bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"availability",
		map[string]string{
			"instance_id": instanceID,
		},
		map[string]interface{}{
			"available": available,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "bridge-01"},
//	    map[string]interface{}{"goroutines": 42, "memory_mb": 18.5})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
