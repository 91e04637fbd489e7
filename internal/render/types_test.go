package render

import (
	"errors"
	"testing"
)

func TestParseFramework(t *testing.T) {
	tests := []struct {
		input   string
		want    Framework
		wantErr bool
	}{
		{"manim", FrameworkManim, false},
		{"motioncanvas", FrameworkMotionCanvas, false},
		{"remotion", FrameworkRemotion, false},
		{"blender", "", true},
		{"", "", true},
		{"Manim", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFramework(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownFramework) {
					t.Fatalf("ParseFramework(%q) error = %v, want ErrUnknownFramework", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFramework(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseFramework(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSceneRenderRequest_Validate(t *testing.T) {
	valid := SceneRenderRequest{
		SceneID:        "intro-01",
		Framework:      FrameworkManim,
		TemplateID:     "title-card",
		TargetDuration: 5,
	}

	tests := []struct {
		name    string
		mutate  func(*SceneRenderRequest)
		wantErr bool
	}{
		{"valid", func(*SceneRenderRequest) {}, false},
		{"missing scene_id", func(r *SceneRenderRequest) { r.SceneID = "" }, true},
		{"unknown framework", func(r *SceneRenderRequest) { r.Framework = "blender" }, true},
		{"missing template_id", func(r *SceneRenderRequest) { r.TemplateID = "" }, true},
		{"zero duration", func(r *SceneRenderRequest) { r.TargetDuration = 0 }, true},
		{"negative duration", func(r *SceneRenderRequest) { r.TargetDuration = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRequest) {
					t.Errorf("Validate() error = %v, want ErrInvalidRequest", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestBatchResult_Counts(t *testing.T) {
	result := BatchResult{
		Outcomes: []RenderOutcome{
			{SceneID: "a", Success: true},
			{SceneID: "b", Success: false},
			{SceneID: "c", Success: true},
		},
	}

	if got := result.SceneCount(); got != 3 {
		t.Errorf("SceneCount() = %d, want 3", got)
	}
	if got := result.SuccessCount(); got != 2 {
		t.Errorf("SuccessCount() = %d, want 2", got)
	}
}
