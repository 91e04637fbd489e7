package render

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// ManimOptions configures the manim renderer.
type ManimOptions struct {
	// Binary is the manim executable (usually "manim").
	Binary string

	// RenderTimeout is the hard wall-clock limit per attempt.
	RenderTimeout time.Duration

	// Resolution is the target output resolution ("WxH").
	Resolution string
}

// ManimRenderer renders scenes with the manim Python toolchain.
//
// Manim needs no bootstrap step: the toolchain is installed system-wide
// and generated scenes import only the manim package itself.
type ManimRenderer struct {
	opts      ManimOptions
	runner    *Runner
	templates TemplateEngine
	tempRoot  string
	logger    Logger
}

// NewManimRenderer creates a manim renderer.
func NewManimRenderer(opts ManimOptions, runner *Runner, templates TemplateEngine, tempRoot string, logger Logger) *ManimRenderer {
	if logger == nil {
		logger = noopLogger{}
	}
	return &ManimRenderer{
		opts:      opts,
		runner:    runner,
		templates: templates,
		tempRoot:  tempRoot,
		logger:    logger,
	}
}

// Framework returns FrameworkManim.
func (r *ManimRenderer) Framework() Framework {
	return FrameworkManim
}

// ValidateEnvironment reports missing toolchain binaries.
// Manim shells out to ffmpeg for encoding, so both must be on PATH.
func (r *ManimRenderer) ValidateEnvironment() []string {
	var missing []string
	if _, err := exec.LookPath(r.opts.Binary); err != nil {
		missing = append(missing, r.opts.Binary)
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		missing = append(missing, "ffmpeg")
	}
	return missing
}

// Render performs one manim render attempt.
//
// The generated scene source is written to a sandbox, manim is invoked
// with the configured resolution, and the resulting mp4 is located under
// the media directory, verified non-empty and copied to outputPath.
func (r *ManimRenderer) Render(ctx context.Context, req SceneRenderRequest, outputPath string) RenderOutcome {
	start := time.Now()

	sandbox, err := NewSandbox(r.tempRoot, "manim-"+req.SceneID)
	if err != nil {
		return failureOutcome(req, req.TemplateID, start, nil, err)
	}
	defer releaseSandbox(sandbox, r.logger)

	source, err := r.templates.GenerateSource(req.TemplateID, templateParams(req, r.opts.Resolution))
	if err != nil {
		return failureOutcome(req, req.TemplateID, start, nil, err)
	}
	if err := sandbox.WriteFile("scene.py", []byte(source)); err != nil {
		return failureOutcome(req, req.TemplateID, start, nil, err)
	}

	width, height, err := parseResolution(r.opts.Resolution)
	if err != nil {
		return failureOutcome(req, req.TemplateID, start, nil, err)
	}

	result, runErr := r.runner.Run(ctx, Command{
		Binary: r.opts.Binary,
		Args: []string{
			"render",
			"--format", "mp4",
			"--resolution", fmt.Sprintf("%d,%d", width, height),
			"--media_dir", "media",
			"--output_file", "scene.mp4",
			"scene.py",
		},
		Dir:     sandbox.Root(),
		Timeout: r.opts.RenderTimeout,
	})
	logs := captureLogs(result)
	if runErr != nil {
		return failureOutcome(req, req.TemplateID, start, logs, runErr)
	}
	if result.ExitCode != 0 {
		return failureOutcome(req, req.TemplateID, start, logs,
			fmt.Errorf("%w: manim exited with code %d", ErrExit, result.ExitCode))
	}

	// Manim nests output in quality-dependent directories under media/.
	artifact, err := findArtifact(sandbox.Path("media"), ".mp4")
	if err != nil {
		return failureOutcome(req, req.TemplateID, start, logs, err)
	}

	size, err := copyArtifact(artifact, outputPath)
	if err != nil {
		return failureOutcome(req, req.TemplateID, start, logs, err)
	}

	r.logger.Info("scene rendered",
		"framework", FrameworkManim,
		"scene_id", req.SceneID,
		"duration", result.Duration,
		"size_bytes", size,
	)

	return successOutcome(req, req.TemplateID, outputPath, r.opts.Resolution, size, start, logs)
}
