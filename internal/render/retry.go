package render

import "context"

// RetryController wraps a FrameworkRenderer with the fallback-template
// retry policy: at most two attempts per scene, the second using the
// framework's fallback template.
type RetryController struct {
	renderer  FrameworkRenderer
	templates TemplateEngine
	logger    Logger
}

// NewRetryController creates a retry controller for one renderer.
func NewRetryController(renderer FrameworkRenderer, templates TemplateEngine, logger Logger) *RetryController {
	if logger == nil {
		logger = noopLogger{}
	}
	return &RetryController{
		renderer:  renderer,
		templates: templates,
		logger:    logger,
	}
}

// Render runs one attempt and, on failure, retries once with the
// framework's fallback template.
//
// The fallback runs only when one is configured and it differs from the
// template that just failed; retrying the identical template would just
// reproduce the failure. The returned outcome reflects the terminal
// attempt, with captured logs accumulated across both attempts.
func (c *RetryController) Render(ctx context.Context, req SceneRenderRequest, outputPath string) RenderOutcome {
	outcome := c.renderer.Render(ctx, req, outputPath)
	if outcome.Success {
		return outcome
	}

	fallbackID, ok := c.templates.FallbackTemplate(req.Framework)
	if !ok || fallbackID == req.TemplateID {
		return outcome
	}

	c.logger.Warn("render failed, retrying with fallback template",
		"scene_id", req.SceneID,
		"framework", req.Framework,
		"template_id", req.TemplateID,
		"fallback_id", fallbackID,
		"error", outcome.ErrorDetail,
	)

	retryReq := req
	retryReq.TemplateID = fallbackID

	retry := c.renderer.Render(ctx, retryReq, outputPath)
	retry.Attempts = 2
	retry.CapturedLogs = append(outcome.CapturedLogs, retry.CapturedLogs...)
	return retry
}
