package render

import "errors"

// Sentinel errors for render operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrLaunch indicates the external tool could not be started at all
	// (binary missing, not executable, fork failure).
	ErrLaunch = errors.New("render: launch failed")

	// ErrTimeout indicates a render or bootstrap attempt exceeded its
	// wall-clock limit and the process group was killed.
	ErrTimeout = errors.New("render: timed out")

	// ErrExit indicates the external tool ran but exited non-zero.
	ErrExit = errors.New("render: command failed")

	// ErrBootstrap indicates the dependency-bootstrap step failed before
	// the render itself could start.
	ErrBootstrap = errors.New("render: bootstrap failed")

	// ErrNoOutput indicates the tool exited successfully but produced no
	// usable artifact (missing or empty output file).
	ErrNoOutput = errors.New("render: no output produced")

	// ErrUnknownFramework indicates a request targets a framework with no
	// registered renderer.
	ErrUnknownFramework = errors.New("render: unknown framework")

	// ErrInvalidRequest indicates a scene render request failed validation.
	ErrInvalidRequest = errors.New("render: invalid request")

	// ErrBatchNotFound indicates the requested batch does not exist in the store.
	ErrBatchNotFound = errors.New("render: batch not found")
)
