// Package metrics provides InfluxDB connectivity for Sceneforge Core.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, non-blocking batched writes, and health monitoring.
//
// # Purpose
//
// This package records time-series data for the render pipeline:
//   - Per-scene render durations and artifact sizes, tagged by framework
//   - Attempt counts (primary vs fallback template renders)
//   - Batch-level success ratios and total content duration
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "sceneforge",
//	    Bucket: "render_metrics",
//	}
//
//	client, err := metrics.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteRenderOutcome("intro-01", "manim", true, 42.5, 1048576, 1)
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
package metrics
