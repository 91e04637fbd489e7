package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sceneforge/sceneforge-core/internal/infrastructure/mqtt"
	"github.com/sceneforge/sceneforge-core/internal/render"
)

// fakeBroker records publishes and captures the subscription handler.
type fakeBroker struct {
	mu         sync.Mutex
	published  map[string][]byte
	handler    mqtt.MessageHandler
	subTopic   string
	publishErr error
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{published: make(map[string][]byte)}
}

func (f *fakeBroker) Publish(topic string, payload []byte, _ byte, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published[topic] = payload
	return nil
}

func (f *fakeBroker) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subTopic = topic
	f.handler = handler
	return nil
}

func (f *fakeBroker) payloadFor(topic string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payload, ok := f.published[topic]
	return payload, ok
}

type testLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *testLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, msg)
}

func (l *testLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, msg)
}

func TestPublisher_SceneFinished(t *testing.T) {
	broker := newFakeBroker()
	p := NewPublisher(broker, 1, &testLogger{})

	p.SceneFinished(render.RenderOutcome{
		SceneID:   "intro-01",
		Framework: render.FrameworkManim,
		Success:   true,
	})

	payload, ok := broker.payloadFor("sceneforge/render/scene/intro-01/outcome")
	if !ok {
		t.Fatalf("no outcome published, topics: %v", broker.published)
	}

	var outcome render.RenderOutcome
	if err := json.Unmarshal(payload, &outcome); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if outcome.SceneID != "intro-01" || !outcome.Success {
		t.Errorf("payload = %+v", outcome)
	}
}

func TestPublisher_BatchCompleted(t *testing.T) {
	broker := newFakeBroker()
	p := NewPublisher(broker, 1, &testLogger{})

	p.BatchCompleted(render.BatchResult{
		BatchID: "b1",
		Outcomes: []render.RenderOutcome{
			{SceneID: "a", Success: true},
			{SceneID: "b", Success: false},
		},
		TotalRenderedDuration: 4,
		CommonResolution:      "1920x1080",
	})

	payload, ok := broker.payloadFor("sceneforge/render/batch/b1/complete")
	if !ok {
		t.Fatal("no batch completion published")
	}
	if !strings.Contains(string(payload), `"success_count":1`) {
		t.Errorf("payload = %s", payload)
	}
}

func TestPublisher_PublishFailureIsSwallowed(t *testing.T) {
	broker := newFakeBroker()
	broker.publishErr = errors.New("broker down")
	logger := &testLogger{}
	p := NewPublisher(broker, 1, logger)

	// Must not panic or block the pipeline.
	p.SceneStarted(render.SceneRenderRequest{SceneID: "x", Framework: render.FrameworkManim})

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.entries) == 0 {
		t.Error("publish failure not logged")
	}
}

// fakeDispatcher records dispatched batches.
type fakeDispatcher struct {
	mu      sync.Mutex
	batches [][]render.SceneRenderRequest
	done    chan struct{}
}

func (f *fakeDispatcher) Dispatch(_ context.Context, requests []render.SceneRenderRequest) render.BatchResult {
	f.mu.Lock()
	f.batches = append(f.batches, requests)
	f.mu.Unlock()
	close(f.done)
	return render.BatchResult{BatchID: "dispatched"}
}

func TestListener_DispatchesDecodedBatch(t *testing.T) {
	broker := newFakeBroker()
	dispatcher := &fakeDispatcher{done: make(chan struct{})}
	l := NewListener(broker, dispatcher, nil, 1, &testLogger{})

	if err := l.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if broker.subTopic != "sceneforge/render/requests" {
		t.Fatalf("subscribed to %q", broker.subTopic)
	}

	payload := []byte(`{"scenes":[{"scene_id":"a","framework":"manim","template_id":"t","target_duration":2}]}`)
	if err := broker.handler("sceneforge/render/requests", payload); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	select {
	case <-dispatcher.done:
	case <-time.After(2 * time.Second):
		t.Fatal("batch never dispatched")
	}

	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()
	if len(dispatcher.batches) != 1 || len(dispatcher.batches[0]) != 1 {
		t.Fatalf("batches = %v", dispatcher.batches)
	}
	if dispatcher.batches[0][0].SceneID != "a" {
		t.Errorf("scene = %+v", dispatcher.batches[0][0])
	}
}

func TestListener_RejectsMalformedPayload(t *testing.T) {
	broker := newFakeBroker()
	dispatcher := &fakeDispatcher{done: make(chan struct{})}
	l := NewListener(broker, dispatcher, nil, 1, &testLogger{})

	if err := l.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := broker.handler("sceneforge/render/requests", []byte("not json")); err == nil {
		t.Error("handler accepted malformed payload")
	}

	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()
	if len(dispatcher.batches) != 0 {
		t.Errorf("malformed payload dispatched: %v", dispatcher.batches)
	}
}
