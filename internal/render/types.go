package render

import (
	"fmt"
	"time"
)

// Framework identifies a rendering back-end.
type Framework string

const (
	FrameworkManim        Framework = "manim"
	FrameworkMotionCanvas Framework = "motioncanvas"
	FrameworkRemotion     Framework = "remotion"
)

// Valid reports whether f is a known framework.
func (f Framework) Valid() bool {
	switch f {
	case FrameworkManim, FrameworkMotionCanvas, FrameworkRemotion:
		return true
	}
	return false
}

// ParseFramework converts a string to a Framework.
//
// Returns:
//   - Framework: The parsed framework
//   - error: ErrUnknownFramework if the name is not recognised
func ParseFramework(s string) (Framework, error) {
	f := Framework(s)
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownFramework, s)
	}
	return f, nil
}

// SceneRenderRequest describes one scene to render.
type SceneRenderRequest struct {
	// SceneID uniquely identifies the scene within its batch. It also names
	// the output artifact (<scene_id>.mp4).
	SceneID string `json:"scene_id"`

	// Framework selects the rendering back-end.
	Framework Framework `json:"framework"`

	// TemplateID names the code template used to generate the scene source.
	TemplateID string `json:"template_id"`

	// Parameters are substituted into the template (text, colours, timing).
	Parameters map[string]any `json:"parameters,omitempty"`

	// TargetDuration is the intended content length of the scene in seconds.
	TargetDuration float64 `json:"target_duration"`
}

// Validate checks the request for structural errors.
func (r SceneRenderRequest) Validate() error {
	if r.SceneID == "" {
		return fmt.Errorf("%w: scene_id is required", ErrInvalidRequest)
	}
	if !r.Framework.Valid() {
		return fmt.Errorf("%w: unknown framework %q", ErrInvalidRequest, r.Framework)
	}
	if r.TemplateID == "" {
		return fmt.Errorf("%w: template_id is required", ErrInvalidRequest)
	}
	if r.TargetDuration <= 0 {
		return fmt.Errorf("%w: target_duration must be positive", ErrInvalidRequest)
	}
	return nil
}

// RenderOutcome is the terminal result of rendering one scene.
// Exactly one outcome is produced per request, success or failure.
type RenderOutcome struct {
	SceneID    string    `json:"scene_id"`
	Framework  Framework `json:"framework"`
	TemplateID string    `json:"template_id"`

	// Success is true only when a verified, non-empty artifact exists at
	// OutputPath.
	Success bool `json:"success"`

	OutputPath    string  `json:"output_path,omitempty"`
	Resolution    string  `json:"resolution,omitempty"`
	FileSizeBytes int64   `json:"file_size_bytes,omitempty"`

	// RenderDurationSeconds is wall-clock time for the terminal attempt.
	RenderDurationSeconds float64 `json:"render_duration_seconds"`

	// Attempts is 1 for a first-attempt result, 2 when the fallback
	// template ran.
	Attempts int `json:"attempts"`

	// ErrorDetail is a human-readable failure description, empty on success.
	ErrorDetail string `json:"error_detail,omitempty"`

	// CapturedLogs holds stdout/stderr lines from the rendering tool,
	// accumulated across attempts.
	CapturedLogs []string `json:"captured_logs,omitempty"`
}

// BatchResult aggregates the outcomes of one dispatched batch.
type BatchResult struct {
	BatchID string `json:"batch_id"`

	// Outcomes are ordered by framework first appearance in the input,
	// then by input order within each framework.
	Outcomes []RenderOutcome `json:"outcomes"`

	// TotalRenderedDuration is the sum of the successful scenes' target
	// durations in seconds.
	TotalRenderedDuration float64 `json:"total_rendered_duration"`

	// CommonResolution is the configured output resolution when at least
	// one scene succeeded, empty otherwise.
	CommonResolution string `json:"common_resolution,omitempty"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// SceneCount returns the number of outcomes in the batch.
func (b BatchResult) SceneCount() int {
	return len(b.Outcomes)
}

// SuccessCount returns the number of successful outcomes.
func (b BatchResult) SuccessCount() int {
	count := 0
	for _, outcome := range b.Outcomes {
		if outcome.Success {
			count++
		}
	}
	return count
}
