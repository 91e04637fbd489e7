package render

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRunner_Run_Success(t *testing.T) {
	r := NewRunner(nil)

	result, err := r.Run(context.Background(), Command{
		Binary: "/bin/sh",
		Args:   []string{"-c", "echo out; echo err >&2"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", result.ExitCode)
	}
	if !strings.Contains(result.Stdout, "out") {
		t.Errorf("Stdout = %q, want to contain %q", result.Stdout, "out")
	}
	if !strings.Contains(result.Stderr, "err") {
		t.Errorf("Stderr = %q, want to contain %q", result.Stderr, "err")
	}
	if result.Duration <= 0 {
		t.Errorf("Duration = %v, want > 0", result.Duration)
	}
}

func TestRunner_Run_NonZeroExitIsNotAnError(t *testing.T) {
	r := NewRunner(nil)

	result, err := r.Run(context.Background(), Command{
		Binary: "/bin/sh",
		Args:   []string{"-c", "echo partial; exit 3"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v, want nil for non-zero exit", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", result.ExitCode)
	}
	if !strings.Contains(result.Stdout, "partial") {
		t.Errorf("Stdout = %q, want output captured before failure", result.Stdout)
	}
}

func TestRunner_Run_Timeout(t *testing.T) {
	r := NewRunner(nil)

	start := time.Now()
	result, err := r.Run(context.Background(), Command{
		Binary:  "/bin/sh",
		Args:    []string{"-c", "echo started; sleep 30"},
		Timeout: 100 * time.Millisecond,
	})
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Run() error = %v, want ErrTimeout", err)
	}
	if elapsed > 5*time.Second {
		t.Errorf("timeout enforcement took %v, process group not killed promptly", elapsed)
	}
	if !strings.Contains(result.Stdout, "started") {
		t.Errorf("Stdout = %q, want output captured before the kill", result.Stdout)
	}
}

func TestRunner_Run_LaunchFailure(t *testing.T) {
	r := NewRunner(nil)

	_, err := r.Run(context.Background(), Command{
		Binary: "/nonexistent/render-binary",
	})
	if !errors.Is(err, ErrLaunch) {
		t.Errorf("Run() error = %v, want ErrLaunch", err)
	}
}

func TestRunner_Run_ContextCancelled(t *testing.T) {
	r := NewRunner(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, Command{
		Binary: "/bin/sh",
		Args:   []string{"-c", "sleep 30"},
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRunner_Run_WorkingDirectory(t *testing.T) {
	r := NewRunner(nil)
	dir := t.TempDir()

	result, err := r.Run(context.Background(), Command{
		Binary: "/bin/sh",
		Args:   []string{"-c", "pwd"},
		Dir:    dir,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(result.Stdout, dir) {
		t.Errorf("pwd = %q, want %q", strings.TrimSpace(result.Stdout), dir)
	}
}

func TestRunner_Run_ExtraEnv(t *testing.T) {
	r := NewRunner(nil)

	result, err := r.Run(context.Background(), Command{
		Binary: "/bin/sh",
		Args:   []string{"-c", "echo $RENDER_TEST_VAR"},
		Env:    []string{"RENDER_TEST_VAR=sceneforge"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(result.Stdout, "sceneforge") {
		t.Errorf("Stdout = %q, want extra env visible to the child", result.Stdout)
	}
}
