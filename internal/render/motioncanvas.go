package render

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// Motion Canvas project scaffold. The generated scene source is dropped in
// alongside these static files; npx resolves the toolchain itself, so no
// per-sandbox install is needed.
const (
	motionCanvasPackageJSON = `{
  "name": "sceneforge-scene",
  "private": true,
  "type": "module"
}
`

	motionCanvasProject = `import {makeProject} from '@motion-canvas/core';

import scene from './scene?scene';

export default makeProject({
  scenes: [scene],
});
`
)

// MotionCanvasOptions configures the Motion Canvas renderer.
type MotionCanvasOptions struct {
	// Binary is the launcher executable (usually "npx").
	Binary string

	// RenderTimeout is the hard wall-clock limit per attempt.
	RenderTimeout time.Duration

	// Resolution is the target output resolution ("WxH").
	Resolution string
}

// MotionCanvasRenderer renders scenes with the Motion Canvas toolchain.
type MotionCanvasRenderer struct {
	opts      MotionCanvasOptions
	runner    *Runner
	templates TemplateEngine
	tempRoot  string
	logger    Logger
}

// NewMotionCanvasRenderer creates a Motion Canvas renderer.
func NewMotionCanvasRenderer(opts MotionCanvasOptions, runner *Runner, templates TemplateEngine, tempRoot string, logger Logger) *MotionCanvasRenderer {
	if logger == nil {
		logger = noopLogger{}
	}
	return &MotionCanvasRenderer{
		opts:      opts,
		runner:    runner,
		templates: templates,
		tempRoot:  tempRoot,
		logger:    logger,
	}
}

// Framework returns FrameworkMotionCanvas.
func (r *MotionCanvasRenderer) Framework() Framework {
	return FrameworkMotionCanvas
}

// ValidateEnvironment reports missing toolchain binaries.
func (r *MotionCanvasRenderer) ValidateEnvironment() []string {
	var missing []string
	if _, err := exec.LookPath(r.opts.Binary); err != nil {
		missing = append(missing, r.opts.Binary)
	}
	return missing
}

// Render performs one Motion Canvas render attempt.
//
// A minimal project scaffold is written to the sandbox with the generated
// scene source, the CLI renders it headlessly, and the resulting mp4 is
// verified and copied to outputPath.
func (r *MotionCanvasRenderer) Render(ctx context.Context, req SceneRenderRequest, outputPath string) RenderOutcome {
	start := time.Now()

	sandbox, err := NewSandbox(r.tempRoot, "motioncanvas-"+req.SceneID)
	if err != nil {
		return failureOutcome(req, req.TemplateID, start, nil, err)
	}
	defer releaseSandbox(sandbox, r.logger)

	source, err := r.templates.GenerateSource(req.TemplateID, templateParams(req, r.opts.Resolution))
	if err != nil {
		return failureOutcome(req, req.TemplateID, start, nil, err)
	}

	if err := r.writeScaffold(sandbox, source); err != nil {
		return failureOutcome(req, req.TemplateID, start, nil, err)
	}

	result, runErr := r.runner.Run(ctx, Command{
		Binary: r.opts.Binary,
		Args: []string{
			"--yes",
			"@motion-canvas/cli",
			"render",
			"--project", "src/project.ts",
			"--output", "output",
			"--resolution", r.opts.Resolution,
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
			fmt.Errorf("%w: motion-canvas exited with code %d", ErrExit, result.ExitCode))
	}

	artifact, err := findArtifact(sandbox.Path("output"), ".mp4")
	if err != nil {
		return failureOutcome(req, req.TemplateID, start, logs, err)
	}

	size, err := copyArtifact(artifact, outputPath)
	if err != nil {
		return failureOutcome(req, req.TemplateID, start, logs, err)
	}

	r.logger.Info("scene rendered",
		"framework", FrameworkMotionCanvas,
		"scene_id", req.SceneID,
		"duration", result.Duration,
		"size_bytes", size,
	)

	return successOutcome(req, req.TemplateID, outputPath, r.opts.Resolution, size, start, logs)
}

// writeScaffold lays out the Motion Canvas project in the sandbox.
func (r *MotionCanvasRenderer) writeScaffold(sandbox *Sandbox, source string) error {
	if err := sandbox.WriteFile("package.json", []byte(motionCanvasPackageJSON)); err != nil {
		return err
	}
	if err := sandbox.WriteFile("src/project.ts", []byte(motionCanvasProject)); err != nil {
		return err
	}
	return sandbox.WriteFile("src/scene.tsx", []byte(source))
}
