package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestParseResolution(t *testing.T) {
	tests := []struct {
		input      string
		wantWidth  int
		wantHeight int
		wantErr    bool
	}{
		{"1920x1080", 1920, 1080, false},
		{"854x480", 854, 480, false},
		{"1920", 0, 0, true},
		{"x1080", 0, 0, true},
		{"1920x", 0, 0, true},
		{"-1x1080", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			width, height, err := parseResolution(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseResolution(%q) succeeded, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseResolution(%q) error = %v", tt.input, err)
			}
			if width != tt.wantWidth || height != tt.wantHeight {
				t.Errorf("parseResolution(%q) = %dx%d, want %dx%d", tt.input, width, height, tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestTemplateParams(t *testing.T) {
	req := SceneRenderRequest{
		SceneID:        "intro-01",
		Framework:      FrameworkManim,
		TemplateID:     "title-card",
		TargetDuration: 4.5,
		Parameters: map[string]any{
			"title":      "Hello",
			"resolution": "custom",
		},
	}

	params := templateParams(req, "1920x1080")

	if params["scene_id"] != "intro-01" {
		t.Errorf("scene_id = %v", params["scene_id"])
	}
	if params["target_duration"] != 4.5 {
		t.Errorf("target_duration = %v", params["target_duration"])
	}
	if params["width"] != 1920 || params["height"] != 1080 {
		t.Errorf("width/height = %v/%v", params["width"], params["height"])
	}
	if params["title"] != "Hello" {
		t.Errorf("request parameter missing: %v", params["title"])
	}
	// Request parameters win on collision.
	if params["resolution"] != "custom" {
		t.Errorf("resolution = %v, want request override", params["resolution"])
	}
}

func TestCaptureLogs(t *testing.T) {
	result := RunResult{
		Stdout: "line one\nline two\n\n",
		Stderr: "warning: something\r\n",
	}

	logs := captureLogs(result)
	want := []string{"line one", "line two", "warning: something"}
	if len(logs) != len(want) {
		t.Fatalf("captureLogs() = %v, want %v", logs, want)
	}
	for i := range want {
		if logs[i] != want[i] {
			t.Errorf("logs[%d] = %q, want %q", i, logs[i], want[i])
		}
	}
}

func TestCaptureLogs_KeepsTail(t *testing.T) {
	var stdout string
	for i := 0; i < maxCapturedLines+50; i++ {
		stdout += fmt.Sprintf("line %d\n", i)
	}

	logs := captureLogs(RunResult{Stdout: stdout})
	if len(logs) != maxCapturedLines {
		t.Fatalf("len(logs) = %d, want %d", len(logs), maxCapturedLines)
	}
	if logs[len(logs)-1] != fmt.Sprintf("line %d", maxCapturedLines+49) {
		t.Errorf("last line = %q, tail not kept", logs[len(logs)-1])
	}
}

func TestVerifyArtifact(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.mp4")
	if _, err := verifyArtifact(missing); !errors.Is(err, ErrNoOutput) {
		t.Errorf("verifyArtifact(missing) error = %v, want ErrNoOutput", err)
	}

	empty := filepath.Join(dir, "empty.mp4")
	if err := os.WriteFile(empty, nil, 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := verifyArtifact(empty); !errors.Is(err, ErrNoOutput) {
		t.Errorf("verifyArtifact(empty) error = %v, want ErrNoOutput", err)
	}

	good := filepath.Join(dir, "good.mp4")
	if err := os.WriteFile(good, []byte("data"), 0600); err != nil {
		t.Fatal(err)
	}
	size, err := verifyArtifact(good)
	if err != nil {
		t.Fatalf("verifyArtifact(good) error = %v", err)
	}
	if size != 4 {
		t.Errorf("size = %d, want 4", size)
	}
}

func TestFindArtifact(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "videos", "scene", "1080p30")
	if err := os.MkdirAll(nested, 0750); err != nil {
		t.Fatal(err)
	}

	// Empty files are skipped.
	if err := os.WriteFile(filepath.Join(dir, "empty.mp4"), nil, 0600); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(nested, "scene.mp4")
	if err := os.WriteFile(want, []byte("video"), 0600); err != nil {
		t.Fatal(err)
	}

	got, err := findArtifact(dir, ".mp4")
	if err != nil {
		t.Fatalf("findArtifact() error = %v", err)
	}
	if got != want {
		t.Errorf("findArtifact() = %q, want %q", got, want)
	}
}

func TestFindArtifact_NoneFound(t *testing.T) {
	if _, err := findArtifact(t.TempDir(), ".mp4"); !errors.Is(err, ErrNoOutput) {
		t.Errorf("findArtifact() error = %v, want ErrNoOutput", err)
	}
}

func TestCopyArtifact(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp4")
	if err := os.WriteFile(src, []byte("rendered video"), 0600); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(dir, "out", "intro-01.mp4")
	size, err := copyArtifact(src, dst)
	if err != nil {
		t.Fatalf("copyArtifact() error = %v", err)
	}
	if size != int64(len("rendered video")) {
		t.Errorf("size = %d", size)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("reading copy: %v", err)
	}
	if string(data) != "rendered video" {
		t.Errorf("copied content = %q", data)
	}
}

func TestRegistry(t *testing.T) {
	manim := &fakeRenderer{framework: FrameworkManim}
	remotion := &fakeRenderer{framework: FrameworkRemotion}
	registry := NewRegistry(manim, remotion)

	if got, ok := registry.Renderer(FrameworkManim); !ok || got != FrameworkRenderer(manim) {
		t.Errorf("Renderer(manim) = %v, %v", got, ok)
	}
	if _, ok := registry.Renderer(FrameworkMotionCanvas); ok {
		t.Error("Renderer(motioncanvas) found, want missing")
	}

	frameworks := registry.Frameworks()
	if len(frameworks) != 2 || frameworks[0] != FrameworkManim || frameworks[1] != FrameworkRemotion {
		t.Errorf("Frameworks() = %v", frameworks)
	}
}
