package render

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// Remotion project scaffold. Unlike the other frameworks, Remotion bundles
// the scene with its own dependencies, so every sandbox needs an npm
// install before the render can run.
const (
	remotionPackageJSON = `{
  "name": "sceneforge-scene",
  "private": true,
  "dependencies": {
    "@remotion/cli": "^4.0.0",
    "react": "^18.3.1",
    "react-dom": "^18.3.1",
    "remotion": "^4.0.0"
  }
}
`

	remotionIndex = `import {registerRoot} from 'remotion';

import {Root} from './Root';

registerRoot(Root);
`

	// remotionRootTemplate is instantiated with fps, width and height.
	// The generated scene source must export Scene and sceneDurationInFrames.
	remotionRootTemplate = `import React from 'react';
import {Composition} from 'remotion';

import {Scene, sceneDurationInFrames} from './Scene';

export const Root: React.FC = () => {
  return (
    <Composition
      id="scene"
      component={Scene}
      durationInFrames={sceneDurationInFrames}
      fps={%d}
      width={%d}
      height={%d}
    />
  );
};
`

	remotionFPS = 30
)

// RemotionOptions configures the Remotion renderer.
type RemotionOptions struct {
	// Binary is the launcher executable (usually "npx").
	Binary string

	// BootstrapBinary runs the dependency install (defaults to "npm").
	BootstrapBinary string

	// RenderTimeout is the hard wall-clock limit per render attempt.
	RenderTimeout time.Duration

	// BootstrapTimeout is the limit for the npm install step. A cold
	// install routinely outlasts the render itself, hence the separate
	// budget.
	BootstrapTimeout time.Duration

	// Resolution is the target output resolution ("WxH").
	Resolution string
}

// RemotionRenderer renders scenes with the Remotion toolchain.
type RemotionRenderer struct {
	opts      RemotionOptions
	runner    *Runner
	templates TemplateEngine
	tempRoot  string
	logger    Logger
}

// NewRemotionRenderer creates a Remotion renderer.
func NewRemotionRenderer(opts RemotionOptions, runner *Runner, templates TemplateEngine, tempRoot string, logger Logger) *RemotionRenderer {
	if logger == nil {
		logger = noopLogger{}
	}
	if opts.BootstrapBinary == "" {
		opts.BootstrapBinary = "npm"
	}
	return &RemotionRenderer{
		opts:      opts,
		runner:    runner,
		templates: templates,
		tempRoot:  tempRoot,
		logger:    logger,
	}
}

// Framework returns FrameworkRemotion.
func (r *RemotionRenderer) Framework() Framework {
	return FrameworkRemotion
}

// ValidateEnvironment reports missing toolchain binaries.
// The bootstrap step shells out to npm directly.
func (r *RemotionRenderer) ValidateEnvironment() []string {
	var missing []string
	if _, err := exec.LookPath(r.opts.Binary); err != nil {
		missing = append(missing, r.opts.Binary)
	}
	if _, err := exec.LookPath(r.opts.BootstrapBinary); err != nil {
		missing = append(missing, r.opts.BootstrapBinary)
	}
	return missing
}

// Render performs one Remotion render attempt.
//
// The scaffold and generated scene source are written to the sandbox, npm
// install bootstraps the project under its own timeout, then the Remotion
// CLI renders the composition. Bootstrap failures of any kind (launch,
// timeout, non-zero exit) are reported as ErrBootstrap so callers can
// tell an environment problem from a scene problem.
func (r *RemotionRenderer) Render(ctx context.Context, req SceneRenderRequest, outputPath string) RenderOutcome {
	start := time.Now()

	sandbox, err := NewSandbox(r.tempRoot, "remotion-"+req.SceneID)
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

	logs, err := r.bootstrap(ctx, sandbox)
	if err != nil {
		return failureOutcome(req, req.TemplateID, start, logs, err)
	}

	result, runErr := r.runner.Run(ctx, Command{
		Binary: r.opts.Binary,
		Args: []string{
			"--yes",
			"remotion",
			"render",
			"src/index.ts",
			"scene",
			"out/scene.mp4",
		},
		Dir:     sandbox.Root(),
		Timeout: r.opts.RenderTimeout,
	})
	logs = append(logs, captureLogs(result)...)
	if runErr != nil {
		return failureOutcome(req, req.TemplateID, start, logs, runErr)
	}
	if result.ExitCode != 0 {
		return failureOutcome(req, req.TemplateID, start, logs,
			fmt.Errorf("%w: remotion exited with code %d", ErrExit, result.ExitCode))
	}

	if _, err := verifyArtifact(sandbox.Path("out", "scene.mp4")); err != nil {
		return failureOutcome(req, req.TemplateID, start, logs, err)
	}

	size, err := copyArtifact(sandbox.Path("out", "scene.mp4"), outputPath)
	if err != nil {
		return failureOutcome(req, req.TemplateID, start, logs, err)
	}

	r.logger.Info("scene rendered",
		"framework", FrameworkRemotion,
		"scene_id", req.SceneID,
		"duration", result.Duration,
		"size_bytes", size,
	)

	return successOutcome(req, req.TemplateID, outputPath, r.opts.Resolution, size, start, logs)
}

// bootstrap installs the project dependencies into the sandbox.
// All failure modes are wrapped in ErrBootstrap.
func (r *RemotionRenderer) bootstrap(ctx context.Context, sandbox *Sandbox) ([]string, error) {
	r.logger.Debug("bootstrapping remotion sandbox", "sandbox", sandbox.Root())

	result, err := r.runner.Run(ctx, Command{
		Binary:  r.opts.BootstrapBinary,
		Args:    []string{"install", "--no-audit", "--no-fund", "--loglevel", "error"},
		Dir:     sandbox.Root(),
		Timeout: r.opts.BootstrapTimeout,
	})
	logs := captureLogs(result)
	if err != nil {
		return logs, fmt.Errorf("%w: %w", ErrBootstrap, err)
	}
	if result.ExitCode != 0 {
		return logs, fmt.Errorf("%w: npm install exited with code %d", ErrBootstrap, result.ExitCode)
	}
	return logs, nil
}

// writeScaffold lays out the Remotion project in the sandbox.
func (r *RemotionRenderer) writeScaffold(sandbox *Sandbox, source string) error {
	width, height, err := parseResolution(r.opts.Resolution)
	if err != nil {
		return err
	}

	if err := sandbox.WriteFile("package.json", []byte(remotionPackageJSON)); err != nil {
		return err
	}
	if err := sandbox.WriteFile("src/index.ts", []byte(remotionIndex)); err != nil {
		return err
	}
	root := fmt.Sprintf(remotionRootTemplate, remotionFPS, width, height)
	if err := sandbox.WriteFile("src/Root.tsx", []byte(root)); err != nil {
		return err
	}
	return sandbox.WriteFile("src/Scene.tsx", []byte(source))
}
