// Package influxdb provides time-series telemetry storage for the bridge.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, climate metric writing, and health monitoring.
//
// # Purpose
//
// This package handles time-series data storage for:
//   - Temperature and humidity readings per proxy instance
//   - HVAC operating state and fan mode transitions
//   - Source-entity availability tracking
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    Enabled: true,
//	    URL:     "http://localhost:8086",
//	    Token:   "your-token",
//	    Org:     "nestmatters",
//	    Bucket:  "climate",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Write climate metrics
//	client.WriteClimateMetric("living-room", "current_temperature", 21.5)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// This reduces network overhead when many instances update frequently.
package influxdb
