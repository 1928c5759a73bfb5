package tool

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestScratchpadRoundTrip(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)
	group := Scratchpad(ws)
	ctx := context.Background()

	mustSucceed(t, toolFn(t, group, "write_to_scratchpad")(ctx, map[string]any{
		"key": "api_endpoint", "value": "https://example.com/v1",
	}))
	mustSucceed(t, toolFn(t, group, "write_to_scratchpad")(ctx, map[string]any{
		"key": "api_endpoint", "value": "https://example.com/v2",
	}))

	data := mustSucceed(t, toolFn(t, group, "read_from_scratchpad")(ctx, map[string]any{
		"key": "api_endpoint",
	}))
	if data != "https://example.com/v2" {
		t.Fatalf("value = %v", data)
	}
}

func TestScratchpadMissingKey(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)
	group := Scratchpad(ws)

	mustFail(t, toolFn(t, group, "read_from_scratchpad")(context.Background(), map[string]any{
		"key": "never_written",
	}), "no information found")
}

func TestScratchpadToleratesCorruptFile(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)
	if err := os.WriteFile(filepath.Join(ws.Root(), scratchpadFileName), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("seed corrupt scratchpad: %v", err)
	}

	group := Scratchpad(ws)
	ctx := context.Background()

	mustSucceed(t, toolFn(t, group, "write_to_scratchpad")(ctx, map[string]any{
		"key": "k", "value": "v",
	}))
	data := mustSucceed(t, toolFn(t, group, "read_from_scratchpad")(ctx, map[string]any{"key": "k"}))
	if data != "v" {
		t.Fatalf("value = %v", data)
	}
}
