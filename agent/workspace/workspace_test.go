package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveInsideRoot(t *testing.T) {
	t.Parallel()

	ws, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	full, err := ws.Resolve("sub/dir/file.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(full, ws.Root()) {
		t.Fatalf("resolved path %q not under root %q", full, ws.Root())
	}
}

func TestResolveRejectsEscape(t *testing.T) {
	t.Parallel()

	ws, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, path := range []string{"..", "../outside.txt", "a/../../b"} {
		if _, err := ws.Resolve(path); !errors.Is(err, ErrOutsideWorkspace) {
			t.Fatalf("path %q: expected ErrOutsideWorkspace, got %v", path, err)
		}
	}
}

func TestCleanRemovesEntries(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	ws, err := New(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "nested", "deep"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := ws.Clean(); err != nil {
		t.Fatalf("clean: %v", err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty workspace, got %d entries", len(entries))
	}
}
