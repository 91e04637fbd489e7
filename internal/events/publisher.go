package events

import (
	"encoding/json"

	"github.com/sceneforge/sceneforge-core/internal/infrastructure/mqtt"
	"github.com/sceneforge/sceneforge-core/internal/render"
)

// Broker is the slice of the MQTT client used by this package.
// Satisfied by *mqtt.Client.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Logger is the logging interface for event adapters.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Publisher publishes render lifecycle events to MQTT.
//
// Publishing is best effort: a broker hiccup is logged and dropped, never
// surfaced to the render pipeline.
type Publisher struct {
	broker Broker
	topics mqtt.Topics
	qos    byte
	logger Logger
}

// NewPublisher creates a lifecycle event publisher.
func NewPublisher(broker Broker, qos byte, logger Logger) *Publisher {
	return &Publisher{
		broker: broker,
		qos:    qos,
		logger: logger,
	}
}

// SceneStarted publishes a scene start event.
func (p *Publisher) SceneStarted(req render.SceneRenderRequest) {
	p.publish(p.topics.SceneStarted(req.SceneID), map[string]any{
		"scene_id":  req.SceneID,
		"framework": req.Framework,
	})
}

// SceneFinished publishes the outcome of one scene.
func (p *Publisher) SceneFinished(outcome render.RenderOutcome) {
	p.publish(p.topics.SceneOutcome(outcome.SceneID), outcome)
}

// BatchCompleted publishes the aggregate result of a batch.
// Per-scene logs are already on the outcome topics, so the batch payload
// carries summary figures only.
func (p *Publisher) BatchCompleted(result render.BatchResult) {
	p.publish(p.topics.BatchComplete(result.BatchID), map[string]any{
		"batch_id":                result.BatchID,
		"scene_count":             result.SceneCount(),
		"success_count":           result.SuccessCount(),
		"total_rendered_duration": result.TotalRenderedDuration,
		"common_resolution":       result.CommonResolution,
		"completed_at":            result.CompletedAt,
	})
}

// publish marshals and publishes one event, logging failures.
func (p *Publisher) publish(topic string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("encoding event failed", "topic", topic, "error", err)
		return
	}
	if err := p.broker.Publish(topic, data, p.qos, false); err != nil {
		p.logger.Warn("publishing event failed", "topic", topic, "error", err)
	}
}
