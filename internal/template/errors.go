package template

import "errors"

// Sentinel errors for template operations.
var (
	// ErrUnknownTemplate is returned when no template has the requested ID.
	ErrUnknownTemplate = errors.New("template: unknown template")

	// ErrInvalidManifest is returned when the manifest fails validation.
	ErrInvalidManifest = errors.New("template: invalid manifest")

	// ErrRenderFailed is returned when template execution fails.
	ErrRenderFailed = errors.New("template: render failed")
)
