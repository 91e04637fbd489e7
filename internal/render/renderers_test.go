package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// stubTool writes an executable shell script that stands in for a rendering
// toolchain binary.
func stubTool(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0700); err != nil {
		t.Fatalf("writing stub tool: %v", err)
	}
	return path
}

// assertSandboxReleased fails if any sandbox directory survived the render.
func assertSandboxReleased(t *testing.T, tempRoot string) {
	t.Helper()
	entries, err := os.ReadDir(tempRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		t.Fatalf("reading temp root: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("sandboxes not released: %v", entries)
	}
}

type erroringTemplates struct{}

func (erroringTemplates) GenerateSource(string, map[string]any) (string, error) {
	return "", errors.New("template: unknown template \"missing\"")
}

func (erroringTemplates) FallbackTemplate(Framework) (string, bool) { return "", false }

func TestManimRenderer_Success(t *testing.T) {
	tempRoot := t.TempDir()
	outputPath := filepath.Join(t.TempDir(), "intro-01.mp4")

	binary := stubTool(t, `
mkdir -p media/videos/scene/1080p60
printf video > media/videos/scene/1080p60/scene.mp4
echo "rendered ok"
`)

	r := NewManimRenderer(ManimOptions{
		Binary:        binary,
		RenderTimeout: 10 * time.Second,
		Resolution:    "1920x1080",
	}, NewRunner(nil), fakeTemplates{}, tempRoot, nil)

	outcome := r.Render(context.Background(), req("intro-01", FrameworkManim, "title-card", 4), outputPath)

	if !outcome.Success {
		t.Fatalf("render failed: %s", outcome.ErrorDetail)
	}
	if outcome.OutputPath != outputPath {
		t.Errorf("OutputPath = %q", outcome.OutputPath)
	}
	if outcome.FileSizeBytes != int64(len("video")) {
		t.Errorf("FileSizeBytes = %d", outcome.FileSizeBytes)
	}
	if outcome.Resolution != "1920x1080" {
		t.Errorf("Resolution = %q", outcome.Resolution)
	}
	if len(outcome.CapturedLogs) == 0 {
		t.Error("no logs captured")
	}
	if _, err := os.Stat(outputPath); err != nil {
		t.Errorf("artifact not copied: %v", err)
	}
	assertSandboxReleased(t, tempRoot)
}

func TestManimRenderer_ExitFailure(t *testing.T) {
	tempRoot := t.TempDir()
	binary := stubTool(t, `
echo "Traceback (most recent call last):" >&2
exit 2
`)

	r := NewManimRenderer(ManimOptions{
		Binary:        binary,
		RenderTimeout: 10 * time.Second,
		Resolution:    "1920x1080",
	}, NewRunner(nil), fakeTemplates{}, tempRoot, nil)

	outcome := r.Render(context.Background(), req("x", FrameworkManim, "t", 2), filepath.Join(t.TempDir(), "x.mp4"))

	if outcome.Success {
		t.Fatal("render succeeded, want exit failure")
	}
	if !strings.Contains(outcome.ErrorDetail, "code 2") {
		t.Errorf("ErrorDetail = %q, want exit code mentioned", outcome.ErrorDetail)
	}
	found := false
	for _, line := range outcome.CapturedLogs {
		if strings.Contains(line, "Traceback") {
			found = true
		}
	}
	if !found {
		t.Errorf("stderr not captured: %v", outcome.CapturedLogs)
	}
	assertSandboxReleased(t, tempRoot)
}

func TestManimRenderer_Timeout(t *testing.T) {
	tempRoot := t.TempDir()
	binary := stubTool(t, "sleep 30\n")

	r := NewManimRenderer(ManimOptions{
		Binary:        binary,
		RenderTimeout: 100 * time.Millisecond,
		Resolution:    "1920x1080",
	}, NewRunner(nil), fakeTemplates{}, tempRoot, nil)

	start := time.Now()
	outcome := r.Render(context.Background(), req("x", FrameworkManim, "t", 2), filepath.Join(t.TempDir(), "x.mp4"))

	if outcome.Success {
		t.Fatal("render succeeded, want timeout")
	}
	if !strings.Contains(outcome.ErrorDetail, "timed out") {
		t.Errorf("ErrorDetail = %q, want timeout", outcome.ErrorDetail)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("timeout not enforced promptly")
	}
	assertSandboxReleased(t, tempRoot)
}

func TestManimRenderer_NoOutput(t *testing.T) {
	tempRoot := t.TempDir()
	binary := stubTool(t, "exit 0\n")

	r := NewManimRenderer(ManimOptions{
		Binary:        binary,
		RenderTimeout: 10 * time.Second,
		Resolution:    "1920x1080",
	}, NewRunner(nil), fakeTemplates{}, tempRoot, nil)

	outcome := r.Render(context.Background(), req("x", FrameworkManim, "t", 2), filepath.Join(t.TempDir(), "x.mp4"))

	if outcome.Success {
		t.Fatal("render succeeded with no artifact")
	}
	if !strings.Contains(outcome.ErrorDetail, "no output") {
		t.Errorf("ErrorDetail = %q, want no-output", outcome.ErrorDetail)
	}
}

func TestManimRenderer_TemplateFailure(t *testing.T) {
	tempRoot := t.TempDir()

	r := NewManimRenderer(ManimOptions{
		Binary:        "/bin/true",
		RenderTimeout: 10 * time.Second,
		Resolution:    "1920x1080",
	}, NewRunner(nil), erroringTemplates{}, tempRoot, nil)

	outcome := r.Render(context.Background(), req("x", FrameworkManim, "missing", 2), filepath.Join(t.TempDir(), "x.mp4"))

	if outcome.Success {
		t.Fatal("render succeeded with broken template")
	}
	if !strings.Contains(outcome.ErrorDetail, "unknown template") {
		t.Errorf("ErrorDetail = %q", outcome.ErrorDetail)
	}
	assertSandboxReleased(t, tempRoot)
}

func TestManimRenderer_ValidateEnvironment(t *testing.T) {
	r := NewManimRenderer(ManimOptions{
		Binary: "definitely-not-installed-manim",
	}, NewRunner(nil), fakeTemplates{}, t.TempDir(), nil)

	missing := r.ValidateEnvironment()
	found := false
	for _, name := range missing {
		if name == "definitely-not-installed-manim" {
			found = true
		}
	}
	if !found {
		t.Errorf("ValidateEnvironment() = %v, want missing binary reported", missing)
	}
}

func TestMotionCanvasRenderer_Success(t *testing.T) {
	tempRoot := t.TempDir()
	outputPath := filepath.Join(t.TempDir(), "scene.mp4")

	binary := stubTool(t, `
mkdir -p output
printf video > output/scene.mp4
`)

	r := NewMotionCanvasRenderer(MotionCanvasOptions{
		Binary:        binary,
		RenderTimeout: 10 * time.Second,
		Resolution:    "1920x1080",
	}, NewRunner(nil), fakeTemplates{}, tempRoot, nil)

	outcome := r.Render(context.Background(), req("mc-01", FrameworkMotionCanvas, "slide", 3), outputPath)

	if !outcome.Success {
		t.Fatalf("render failed: %s", outcome.ErrorDetail)
	}
	if _, err := os.Stat(outputPath); err != nil {
		t.Errorf("artifact not copied: %v", err)
	}
	assertSandboxReleased(t, tempRoot)
}

func TestMotionCanvasRenderer_WritesScaffold(t *testing.T) {
	tempRoot := t.TempDir()

	// The stub checks the scaffold exists before "rendering".
	binary := stubTool(t, `
test -f package.json || exit 10
test -f src/project.ts || exit 11
test -f src/scene.tsx || exit 12
mkdir -p output
printf video > output/scene.mp4
`)

	r := NewMotionCanvasRenderer(MotionCanvasOptions{
		Binary:        binary,
		RenderTimeout: 10 * time.Second,
		Resolution:    "1920x1080",
	}, NewRunner(nil), fakeTemplates{}, tempRoot, nil)

	outcome := r.Render(context.Background(), req("mc-01", FrameworkMotionCanvas, "slide", 3), filepath.Join(t.TempDir(), "o.mp4"))

	if !outcome.Success {
		t.Fatalf("scaffold incomplete: %s", outcome.ErrorDetail)
	}
}

func TestRemotionRenderer_Success(t *testing.T) {
	tempRoot := t.TempDir()
	outputPath := filepath.Join(t.TempDir(), "r.mp4")

	bootstrap := stubTool(t, "echo installed\n")
	render := stubTool(t, `
test -f src/index.ts || exit 10
test -f src/Root.tsx || exit 11
test -f src/Scene.tsx || exit 12
mkdir -p out
printf video > out/scene.mp4
`)

	r := NewRemotionRenderer(RemotionOptions{
		Binary:           render,
		BootstrapBinary:  bootstrap,
		RenderTimeout:    10 * time.Second,
		BootstrapTimeout: 10 * time.Second,
		Resolution:       "1920x1080",
	}, NewRunner(nil), fakeTemplates{}, tempRoot, nil)

	outcome := r.Render(context.Background(), req("r-01", FrameworkRemotion, "outro", 6), outputPath)

	if !outcome.Success {
		t.Fatalf("render failed: %s", outcome.ErrorDetail)
	}
	// Bootstrap output is part of the captured logs.
	found := false
	for _, line := range outcome.CapturedLogs {
		if strings.Contains(line, "installed") {
			found = true
		}
	}
	if !found {
		t.Errorf("bootstrap logs missing: %v", outcome.CapturedLogs)
	}
	assertSandboxReleased(t, tempRoot)
}

func TestRemotionRenderer_BootstrapFailure(t *testing.T) {
	tempRoot := t.TempDir()

	bootstrap := stubTool(t, `
echo "npm ERR! network timeout" >&2
exit 1
`)

	r := NewRemotionRenderer(RemotionOptions{
		Binary:           "/bin/true",
		BootstrapBinary:  bootstrap,
		RenderTimeout:    10 * time.Second,
		BootstrapTimeout: 10 * time.Second,
		Resolution:       "1920x1080",
	}, NewRunner(nil), fakeTemplates{}, tempRoot, nil)

	outcome := r.Render(context.Background(), req("r-01", FrameworkRemotion, "outro", 6), filepath.Join(t.TempDir(), "r.mp4"))

	if outcome.Success {
		t.Fatal("render succeeded, want bootstrap failure")
	}
	if !strings.Contains(outcome.ErrorDetail, "bootstrap failed") {
		t.Errorf("ErrorDetail = %q, want bootstrap classification", outcome.ErrorDetail)
	}
	assertSandboxReleased(t, tempRoot)
}

func TestRemotionRenderer_BootstrapTimeoutIsBootstrapFailure(t *testing.T) {
	tempRoot := t.TempDir()

	bootstrap := stubTool(t, "sleep 30\n")

	r := NewRemotionRenderer(RemotionOptions{
		Binary:           "/bin/true",
		BootstrapBinary:  bootstrap,
		RenderTimeout:    10 * time.Second,
		BootstrapTimeout: 100 * time.Millisecond,
		Resolution:       "1920x1080",
	}, NewRunner(nil), fakeTemplates{}, tempRoot, nil)

	outcome := r.Render(context.Background(), req("r-01", FrameworkRemotion, "outro", 6), filepath.Join(t.TempDir(), "r.mp4"))

	if outcome.Success {
		t.Fatal("render succeeded, want bootstrap timeout")
	}
	if !strings.Contains(outcome.ErrorDetail, "bootstrap failed") {
		t.Errorf("ErrorDetail = %q, want bootstrap classification for timeout", outcome.ErrorDetail)
	}
}
