package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrOutsideWorkspace = errors.New("access denied: path outside workspace")

// Workspace confines every tool-visible path to one root directory.
type Workspace struct {
	root string
}

func New(root string) (*Workspace, error) {
	trimmed := strings.TrimSpace(root)
	if trimmed == "" {
		return nil, errors.New("workspace root is required")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	return &Workspace{root: abs}, nil
}

func (w *Workspace) Root() string {
	return w.root
}

// Resolve maps a tool-supplied path onto the workspace root and rejects
// any path that escapes it.
func (w *Workspace) Resolve(path string) (string, error) {
	full := filepath.Join(w.root, filepath.FromSlash(path))
	full = filepath.Clean(full)

	rel, err := filepath.Rel(w.root, full)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutsideWorkspace, path)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideWorkspace, path)
	}
	return full, nil
}

// Ensure creates the workspace root when it does not exist yet.
func (w *Workspace) Ensure() error {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return fmt.Errorf("create workspace %s: %w", w.root, err)
	}
	return nil
}

// Clean removes every entry under the root, leaving the root itself.
// Entries that cannot be removed are skipped.
func (w *Workspace) Clean() error {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("read workspace %s: %w", w.root, err)
	}
	for _, entry := range entries {
		_ = os.RemoveAll(filepath.Join(w.root, entry.Name()))
	}
	return nil
}
