package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventPublisher receives render lifecycle notifications.
// Implementations must not block; publishing failures are theirs to log.
type EventPublisher interface {
	SceneStarted(req SceneRenderRequest)
	SceneFinished(outcome RenderOutcome)
	BatchCompleted(result BatchResult)
}

// MetricsRecorder receives render telemetry.
// Implementations must not block.
type MetricsRecorder interface {
	RecordOutcome(outcome RenderOutcome)
	RecordBatch(result BatchResult)
}

// CoordinatorConfig holds batch-level rendering settings.
type CoordinatorConfig struct {
	// OutputRoot is where verified artifacts are written (<scene_id>.mp4).
	OutputRoot string

	// Resolution is the common output resolution for all frameworks.
	Resolution string
}

// Coordinator dispatches scene batches across framework renderers.
//
// Scenes targeting the same framework render sequentially on one
// goroutine; distinct frameworks render concurrently. Each framework
// writes into its own result slot, so no cross-goroutine mutation of
// shared slices occurs, and the merge after the join preserves a
// deterministic order: frameworks by first appearance in the input,
// scenes by input order within each framework.
type Coordinator struct {
	registry  *Registry
	templates TemplateEngine
	cfg       CoordinatorConfig
	logger    Logger

	events  EventPublisher
	metrics MetricsRecorder
}

// NewCoordinator creates a coordinator. A nil logger disables logging.
func NewCoordinator(registry *Registry, templates TemplateEngine, cfg CoordinatorConfig, logger Logger) *Coordinator {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Coordinator{
		registry:  registry,
		templates: templates,
		cfg:       cfg,
		logger:    logger,
	}
}

// SetEventPublisher wires an optional lifecycle event sink (e.g. MQTT).
func (c *Coordinator) SetEventPublisher(events EventPublisher) {
	c.events = events
}

// SetMetricsRecorder wires an optional telemetry sink (e.g. InfluxDB).
func (c *Coordinator) SetMetricsRecorder(metrics MetricsRecorder) {
	c.metrics = metrics
}

// Dispatch renders a batch of scenes and blocks until every outcome is in.
//
// Dispatch never fails: invalid requests, missing renderers, tool crashes
// and even panics inside a framework task all become failed outcomes for
// the scenes involved, while the rest of the batch continues. There is no
// cross-framework cancellation; one framework's failures do not stop
// another framework's queue. Cancelling ctx aborts in-flight tool
// invocations, which then surface as failed outcomes.
//
// An empty batch yields an empty result, not an error.
func (c *Coordinator) Dispatch(ctx context.Context, requests []SceneRenderRequest) BatchResult {
	result := BatchResult{
		BatchID:   uuid.NewString(),
		Outcomes:  []RenderOutcome{},
		StartedAt: time.Now(),
	}

	c.logger.Info("dispatching batch",
		"batch_id", result.BatchID,
		"scenes", len(requests),
	)

	if len(requests) == 0 {
		result.CompletedAt = time.Now()
		c.finish(result)
		return result
	}

	if err := os.MkdirAll(c.cfg.OutputRoot, outputDirPerms); err != nil {
		c.logger.Warn("creating output root failed", "path", c.cfg.OutputRoot, "error", err)
	}

	order, queues := partitionByFramework(requests)

	slots := make([][]RenderOutcome, len(order))
	var wg sync.WaitGroup
	for i, fw := range order {
		wg.Add(1)
		go func(slot int, fw Framework, queue []SceneRenderRequest) {
			defer wg.Done()
			slots[slot] = c.renderQueue(ctx, fw, queue)
		}(i, fw, queues[fw])
	}
	wg.Wait()

	for i, fw := range order {
		queue := queues[fw]
		for j, outcome := range slots[i] {
			result.Outcomes = append(result.Outcomes, outcome)
			if outcome.Success {
				result.TotalRenderedDuration += queue[j].TargetDuration
			}
		}
	}
	if result.SuccessCount() > 0 {
		result.CommonResolution = c.cfg.Resolution
	}
	result.CompletedAt = time.Now()

	c.logger.Info("batch complete",
		"batch_id", result.BatchID,
		"scenes", result.SceneCount(),
		"succeeded", result.SuccessCount(),
		"total_duration", result.TotalRenderedDuration,
	)

	c.finish(result)
	return result
}

// finish notifies the optional event and metrics sinks.
func (c *Coordinator) finish(result BatchResult) {
	if c.events != nil {
		c.events.BatchCompleted(result)
	}
	if c.metrics != nil {
		c.metrics.RecordBatch(result)
	}
}

// renderQueue renders one framework's scenes sequentially.
//
// A panic anywhere in the queue is recovered here: the scenes without an
// outcome yet are marked failed, keeping the one-outcome-per-request
// invariant intact without taking down sibling framework goroutines.
func (c *Coordinator) renderQueue(ctx context.Context, fw Framework, queue []SceneRenderRequest) (outcomes []RenderOutcome) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("framework task panicked",
				"framework", fw,
				"panic", r,
			)
			for _, req := range queue[len(outcomes):] {
				outcomes = append(outcomes,
					failureOutcome(req, req.TemplateID, time.Now(), nil, fmt.Errorf("internal error: %v", r)))
			}
		}
	}()

	renderer, ok := c.registry.Renderer(fw)
	if !ok {
		for _, req := range queue {
			outcomes = append(outcomes,
				failureOutcome(req, req.TemplateID, time.Now(), nil, fmt.Errorf("%w: %s", ErrUnknownFramework, fw)))
		}
		return outcomes
	}

	if missing := renderer.ValidateEnvironment(); len(missing) > 0 {
		// Renders will likely fail with launch errors; say why up front.
		c.logger.Warn("framework toolchain incomplete",
			"framework", fw,
			"missing", missing,
		)
	}

	controller := NewRetryController(renderer, c.templates, c.logger)

	for _, req := range queue {
		if err := req.Validate(); err != nil {
			outcomes = append(outcomes, failureOutcome(req, req.TemplateID, time.Now(), nil, err))
			continue
		}

		if c.events != nil {
			c.events.SceneStarted(req)
		}

		outcome := controller.Render(ctx, req, filepath.Join(c.cfg.OutputRoot, req.SceneID+".mp4"))
		outcomes = append(outcomes, outcome)

		if c.events != nil {
			c.events.SceneFinished(outcome)
		}
		if c.metrics != nil {
			c.metrics.RecordOutcome(outcome)
		}
	}

	return outcomes
}

// partitionByFramework groups requests by framework, preserving both the
// frameworks' first-appearance order and the input order within each group.
func partitionByFramework(requests []SceneRenderRequest) ([]Framework, map[Framework][]SceneRenderRequest) {
	var order []Framework
	queues := make(map[Framework][]SceneRenderRequest)
	for _, req := range requests {
		if _, seen := queues[req.Framework]; !seen {
			order = append(order, req.Framework)
		}
		queues[req.Framework] = append(queues[req.Framework], req)
	}
	return order, queues
}
