package render

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// maxCapturedLines caps the stdout/stderr lines kept per attempt.
// Rendering tools can be extremely chatty; the tail is what matters.
const maxCapturedLines = 200

// TemplateEngine generates scene source code from templates.
//
// Implemented by the template package; defined here so renderers and the
// retry controller can be tested with fakes.
type TemplateEngine interface {
	// GenerateSource renders the template identified by templateID with the
	// given parameters and returns the generated source text.
	GenerateSource(templateID string, params map[string]any) (string, error)

	// FallbackTemplate returns the fallback template ID for a framework,
	// and whether one is configured.
	FallbackTemplate(framework Framework) (string, bool)
}

// FrameworkRenderer renders scenes for one framework.
//
// Render never returns an error: every failure mode is converted into a
// failed RenderOutcome so batch processing continues.
type FrameworkRenderer interface {
	// Framework returns the back-end this renderer handles.
	Framework() Framework

	// ValidateEnvironment reports missing toolchain binaries.
	// An empty slice means the environment looks usable.
	ValidateEnvironment() []string

	// Render performs one render attempt for req, writing the verified
	// artifact to outputPath on success.
	Render(ctx context.Context, req SceneRenderRequest, outputPath string) RenderOutcome
}

// Registry holds the configured framework renderers.
type Registry struct {
	renderers map[Framework]FrameworkRenderer
}

// NewRegistry creates a registry from the given renderers.
func NewRegistry(renderers ...FrameworkRenderer) *Registry {
	r := &Registry{renderers: make(map[Framework]FrameworkRenderer, len(renderers))}
	for _, renderer := range renderers {
		r.renderers[renderer.Framework()] = renderer
	}
	return r
}

// Renderer returns the renderer for a framework, if registered.
func (r *Registry) Renderer(fw Framework) (FrameworkRenderer, bool) {
	renderer, ok := r.renderers[fw]
	return renderer, ok
}

// Frameworks returns the registered frameworks in sorted order.
func (r *Registry) Frameworks() []Framework {
	frameworks := make([]Framework, 0, len(r.renderers))
	for fw := range r.renderers {
		frameworks = append(frameworks, fw)
	}
	sort.Slice(frameworks, func(i, j int) bool { return frameworks[i] < frameworks[j] })
	return frameworks
}

// parseResolution splits a "WxH" resolution string into width and height.
func parseResolution(resolution string) (int, int, error) {
	parts := strings.SplitN(resolution, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid resolution %q: expected WxH", resolution)
	}
	width, err := strconv.Atoi(parts[0])
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("invalid resolution width %q", parts[0])
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("invalid resolution height %q", parts[1])
	}
	return width, height, nil
}

// templateParams merges the request parameters with the well-known values
// every template can rely on (scene_id, target_duration, resolution).
// Request parameters win on collision.
func templateParams(req SceneRenderRequest, resolution string) map[string]any {
	params := map[string]any{
		"scene_id":        req.SceneID,
		"target_duration": req.TargetDuration,
		"resolution":      resolution,
	}
	if width, height, err := parseResolution(resolution); err == nil {
		params["width"] = width
		params["height"] = height
	}
	for k, v := range req.Parameters {
		params[k] = v
	}
	return params
}

// captureLogs extracts log lines from a run result, keeping at most
// maxCapturedLines of the combined tail.
func captureLogs(result RunResult) []string {
	var lines []string
	for _, stream := range []string{result.Stdout, result.Stderr} {
		for _, line := range strings.Split(stream, "\n") {
			line = strings.TrimRight(line, "\r")
			if strings.TrimSpace(line) != "" {
				lines = append(lines, line)
			}
		}
	}
	if len(lines) > maxCapturedLines {
		lines = lines[len(lines)-maxCapturedLines:]
	}
	return lines
}

// failureOutcome builds the failed outcome for one attempt.
func failureOutcome(req SceneRenderRequest, templateID string, start time.Time, logs []string, err error) RenderOutcome {
	return RenderOutcome{
		SceneID:               req.SceneID,
		Framework:             req.Framework,
		TemplateID:            templateID,
		Success:               false,
		RenderDurationSeconds: time.Since(start).Seconds(),
		Attempts:              1,
		ErrorDetail:           err.Error(),
		CapturedLogs:          logs,
	}
}

// successOutcome builds the successful outcome for one attempt.
func successOutcome(req SceneRenderRequest, templateID, outputPath, resolution string, size int64, start time.Time, logs []string) RenderOutcome {
	return RenderOutcome{
		SceneID:               req.SceneID,
		Framework:             req.Framework,
		TemplateID:            templateID,
		Success:               true,
		OutputPath:            outputPath,
		Resolution:            resolution,
		FileSizeBytes:         size,
		RenderDurationSeconds: time.Since(start).Seconds(),
		Attempts:              1,
		CapturedLogs:          logs,
	}
}

// verifyArtifact checks that path exists and is non-empty.
//
// Returns:
//   - int64: The artifact size in bytes
//   - error: ErrNoOutput when the file is missing or empty
func verifyArtifact(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrNoOutput, path)
	}
	if info.Size() == 0 {
		return 0, fmt.Errorf("%w: %s is empty", ErrNoOutput, path)
	}
	return info.Size(), nil
}

// findArtifact locates the first non-empty file with the given extension
// under dir. Some toolchains nest output in quality-dependent directories
// (manim writes media/videos/<scene>/<quality>/), so the exact path cannot
// be predicted up front.
func findArtifact(dir, ext string) (string, error) {
	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ext {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() == 0 {
			return nil
		}
		found = path
		return fs.SkipAll
	})
	if err != nil || found == "" {
		return "", fmt.Errorf("%w: no %s artifact under %s", ErrNoOutput, ext, dir)
	}
	return found, nil
}

// copyArtifact copies the verified artifact from the sandbox to its final
// location, creating parent directories as needed.
//
// Returns:
//   - int64: The number of bytes copied
//   - error: If the copy fails
func copyArtifact(src, dst string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), outputDirPerms); err != nil {
		return 0, fmt.Errorf("creating output directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("opening artifact: %w", err)
	}
	defer in.Close() //nolint:errcheck // Read-only file

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0640)
	if err != nil {
		return 0, fmt.Errorf("creating output file: %w", err)
	}

	size, err := io.Copy(out, in)
	if err != nil {
		out.Close() //nolint:errcheck // Copy already failed
		return 0, fmt.Errorf("copying artifact: %w", err)
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("closing output file: %w", err)
	}

	return size, nil
}
