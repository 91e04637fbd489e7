package metrics

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteRenderOutcome records the result of one scene render.
//
// This is the primary method for recording render telemetry.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - sceneID: Scene identifier (e.g., "intro-01")
//   - framework: Rendering back-end name ("manim", "motioncanvas", "remotion")
//   - success: Whether the render produced a verified artifact
//   - durationSeconds: Wall-clock render time including retries
//   - fileSizeBytes: Size of the output artifact (0 on failure)
//   - attempts: Number of render attempts (1, or 2 when the fallback ran)
func (c *Client) WriteRenderOutcome(sceneID, framework string, success bool, durationSeconds float64, fileSizeBytes int64, attempts int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"render_outcome",
		map[string]string{
			"framework": framework,
			"scene_id":  sceneID,
		},
		map[string]interface{}{
			"success":          success,
			"duration_seconds": durationSeconds,
			"file_size_bytes":  fileSizeBytes,
			"attempts":         attempts,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteBatchSummary records aggregate figures for a completed batch.
//
// Parameters:
//   - batchID: Batch identifier
//   - sceneCount: Total scenes in the batch
//   - successCount: Scenes that rendered successfully
//   - totalDurationSeconds: Sum of successful scenes' content durations
func (c *Client) WriteBatchSummary(batchID string, sceneCount, successCount int, totalDurationSeconds float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"render_batch",
		map[string]string{
			"batch_id": batchID,
		},
		map[string]interface{}{
			"scene_count":            sceneCount,
			"success_count":          successCount,
			"total_duration_seconds": totalDurationSeconds,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
