package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sceneforge/sceneforge-core/internal/infrastructure/mqtt"
	"github.com/sceneforge/sceneforge-core/internal/render"
)

// Dispatcher renders a batch of scenes. Satisfied by *render.Coordinator.
type Dispatcher interface {
	Dispatch(ctx context.Context, requests []render.SceneRenderRequest) render.BatchResult
}

// BatchStore persists batch results. Satisfied by *render.Repository.
type BatchStore interface {
	SaveBatch(ctx context.Context, result render.BatchResult) error
}

// BatchRequest is the MQTT intake payload.
type BatchRequest struct {
	Scenes []render.SceneRenderRequest `json:"scenes"`
}

// Listener receives batch render requests over MQTT.
//
// Results flow back through the Publisher's lifecycle topics; the request
// payload itself gets no direct reply.
type Listener struct {
	broker     Broker
	dispatcher Dispatcher
	store      BatchStore
	qos        byte
	logger     Logger
}

// NewListener creates a render request listener. store may be nil to skip
// persistence.
func NewListener(broker Broker, dispatcher Dispatcher, store BatchStore, qos byte, logger Logger) *Listener {
	return &Listener{
		broker:     broker,
		dispatcher: dispatcher,
		store:      store,
		qos:        qos,
		logger:     logger,
	}
}

// Start subscribes to the render request topic.
func (l *Listener) Start() error {
	if err := l.broker.Subscribe(mqtt.Topics{}.RenderRequests(), l.qos, l.handleRequest); err != nil {
		return fmt.Errorf("subscribing to render requests: %w", err)
	}
	return nil
}

// handleRequest decodes a batch request and dispatches it.
//
// Rendering happens on a fresh goroutine: paho invokes handlers on its own
// workers and a batch render can run for minutes.
func (l *Listener) handleRequest(_ string, payload []byte) error {
	var req BatchRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("decoding render request: %w", err)
	}

	go func() {
		result := l.dispatcher.Dispatch(context.Background(), req.Scenes)
		if l.store == nil {
			return
		}
		if err := l.store.SaveBatch(context.Background(), result); err != nil {
			l.logger.Error("persisting batch failed",
				"batch_id", result.BatchID,
				"error", err,
			)
		}
	}()

	return nil
}
