package render

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Directory permission modes.
const (
	// sandboxPerms restricts sandbox contents to the service user; generated
	// source may embed request parameters.
	sandboxPerms = 0700

	// outputDirPerms is the mode for shared output directories.
	outputDirPerms = 0750
)

// Sandbox is an isolated working directory for one render attempt.
//
// Each attempt gets a fresh sandbox so generated source, toolchain caches
// and partial output never leak between attempts or scenes. The sandbox is
// removed after the attempt regardless of outcome.
type Sandbox struct {
	root      string
	createdAt time.Time
}

// NewSandbox creates a uniquely named sandbox directory under tempRoot.
//
// The label (typically "<framework>-<scene_id>") keeps directory listings
// readable during debugging; a UUID suffix guarantees uniqueness.
//
// Parameters:
//   - tempRoot: Parent directory for sandboxes (created if missing)
//   - label: Human-readable prefix for the sandbox directory name
//
// Returns:
//   - *Sandbox: The created sandbox
//   - error: If the directory cannot be created
func NewSandbox(tempRoot, label string) (*Sandbox, error) {
	if err := os.MkdirAll(tempRoot, outputDirPerms); err != nil {
		return nil, fmt.Errorf("creating sandbox root: %w", err)
	}

	root := filepath.Join(tempRoot, fmt.Sprintf("%s-%s", label, uuid.NewString()))
	if err := os.Mkdir(root, sandboxPerms); err != nil {
		return nil, fmt.Errorf("creating sandbox: %w", err)
	}

	return &Sandbox{
		root:      root,
		createdAt: time.Now(),
	}, nil
}

// Root returns the absolute-or-relative path of the sandbox directory.
func (s *Sandbox) Root() string {
	return s.root
}

// CreatedAt returns when the sandbox was created.
func (s *Sandbox) CreatedAt() time.Time {
	return s.createdAt
}

// Path joins the given elements onto the sandbox root.
func (s *Sandbox) Path(elem ...string) string {
	return filepath.Join(append([]string{s.root}, elem...)...)
}

// WriteFile writes a file inside the sandbox, creating parent directories
// as needed.
func (s *Sandbox) WriteFile(rel string, data []byte) error {
	path := s.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), sandboxPerms); err != nil {
		return fmt.Errorf("creating sandbox subdirectory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing sandbox file %s: %w", rel, err)
	}
	return nil
}

// Release removes the sandbox directory and everything in it.
//
// Callers treat release as best effort: the returned error is logged and
// swallowed, never turned into a failed outcome.
func (s *Sandbox) Release() error {
	if err := os.RemoveAll(s.root); err != nil {
		return fmt.Errorf("releasing sandbox %s: %w", s.root, err)
	}
	return nil
}

// releaseSandbox releases sb and logs failures instead of returning them.
func releaseSandbox(sb *Sandbox, logger Logger) {
	if err := sb.Release(); err != nil {
		logger.Warn("sandbox release failed", "sandbox", sb.Root(), "error", err)
	}
}
