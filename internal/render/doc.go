// Package render implements the multi-framework scene rendering pipeline.
//
// A batch of scene render requests is partitioned by target framework
// (manim, motioncanvas, remotion) and each framework's queue is processed
// sequentially on its own goroutine. Every attempt runs the external
// rendering toolchain inside an isolated sandbox directory, with a hard
// wall-clock timeout enforced by killing the whole process group.
//
// Failures never propagate: a failed scene yields a failed RenderOutcome
// with captured tool logs, one retry with the framework's fallback template
// when one exists, and the rest of the batch continues. The Coordinator
// merges per-framework results into a single BatchResult.
//
// The package accepts its collaborators as interfaces (TemplateEngine,
// EventPublisher, MetricsRecorder) so the surrounding service can wire in
// the template store, MQTT events and InfluxDB metrics without this
// package depending on them.
package render
