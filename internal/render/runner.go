package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// Logger defines the logging interface for the render pipeline.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Command describes one external toolchain invocation.
type Command struct {
	// Binary is the executable to run.
	Binary string

	// Args are command-line arguments to pass to the binary.
	Args []string

	// Dir is the working directory, typically a sandbox root.
	Dir string

	// Env are additional environment variables (key=value format),
	// appended to the parent environment.
	Env []string

	// Timeout is the hard wall-clock limit. Zero means no limit.
	Timeout time.Duration
}

// RunResult holds the captured result of a completed invocation.
type RunResult struct {
	// ExitCode is the process exit code. -1 when the process was killed.
	ExitCode int

	Stdout string
	Stderr string

	// Duration is wall-clock time from launch to exit.
	Duration time.Duration
}

// Runner executes external rendering toolchains with timeout enforcement.
//
// Each invocation runs in its own process group so that a timeout kill
// reaches the tool's children as well (npx spawns node, manim spawns
// ffmpeg). Without that, killing only the direct child leaks orphaned
// renderers that keep burning CPU.
type Runner struct {
	logger Logger
}

// NewRunner creates a Runner. A nil logger disables logging.
func NewRunner(logger Logger) *Runner {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Runner{logger: logger}
}

// Run executes the command and waits for it to finish.
//
// A non-zero exit code is not an error here: the result carries the code
// and the caller decides how to classify it. Errors are reserved for the
// process failing to launch (ErrLaunch) or being killed on timeout
// (ErrTimeout); in both cases the partial result still carries any output
// captured before the failure.
//
// Parameters:
//   - ctx: Cancels the invocation when done (the process group is killed)
//   - cmd: The invocation to run
//
// Returns:
//   - RunResult: Exit code, captured output and duration
//   - error: ErrLaunch, ErrTimeout, or a context/wait error
func (r *Runner) Run(ctx context.Context, cmd Command) (RunResult, error) {
	start := time.Now()

	runCtx := ctx
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.Command(cmd.Binary, cmd.Args...) //nolint:gosec // Binary comes from validated configuration
	c.Dir = cmd.Dir
	if cmd.Env != nil {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	// New process group so the timeout kill reaches all children.
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	r.logger.Debug("launching command",
		"binary", cmd.Binary,
		"args", cmd.Args,
		"dir", cmd.Dir,
		"timeout", cmd.Timeout,
	)

	if err := c.Start(); err != nil {
		return RunResult{ExitCode: -1, Duration: time.Since(start)},
			fmt.Errorf("%w: %s: %w", ErrLaunch, cmd.Binary, err)
	}

	exitCh := make(chan error, 1)
	go func() {
		exitCh <- c.Wait()
	}()

	select {
	case err := <-exitCh:
		result := RunResult{
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Duration: time.Since(start),
		}
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				result.ExitCode = exitErr.ExitCode()
				return result, nil
			}
			result.ExitCode = -1
			return result, fmt.Errorf("waiting for %s: %w", cmd.Binary, err)
		}
		return result, nil

	case <-runCtx.Done():
		r.killProcessGroup(c)
		// Reap the process so Wait's goroutine finishes and the output
		// buffers are safe to read.
		<-exitCh

		result := RunResult{
			ExitCode: -1,
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Duration: time.Since(start),
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			r.logger.Warn("command timed out, process group killed",
				"binary", cmd.Binary,
				"timeout", cmd.Timeout,
			)
			return result, fmt.Errorf("%w: %s after %v", ErrTimeout, cmd.Binary, cmd.Timeout)
		}
		return result, fmt.Errorf("running %s: %w", cmd.Binary, runCtx.Err())
	}
}

// killProcessGroup kills the process group of c.
// Use negative PID to signal the whole group (created via Setpgid).
func (r *Runner) killProcessGroup(c *exec.Cmd) {
	if c.Process == nil {
		return
	}
	pid := c.Process.Pid
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		r.logger.Warn("failed to kill process group", "pid", pid, "error", err)
		c.Process.Kill() //nolint:errcheck // Best effort fallback on the direct child
	}
}
