package history

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	contractx "github.com/hansobored/hanagent/agent/contract"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	turns := []contractx.Turn{
		{Role: contractx.RoleUser, Parts: []contractx.Part{contractx.TextPart("create hello.txt")}},
		{Role: contractx.RoleAgent, Parts: []contractx.Part{
			contractx.TextPart("writing the file"),
			contractx.CallPart("write_file", map[string]any{
				"filename": "hello.txt",
				"content":  "hi",
				"nested":   map[string]any{"depth": float64(2), "flag": true, "none": nil},
				"list":     []any{"a", float64(1)},
			}),
		}},
		{Role: contractx.RoleTool, Parts: []contractx.Part{
			contractx.ResponsePart("write_file", map[string]any{"success": true, "data": "file 'hello.txt' written"}),
		}},
	}
	for _, turn := range turns {
		store.Append(turn)
	}
	if err := store.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reflect.DeepEqual(reloaded.Snapshot(), turns) {
		t.Fatalf("round trip mismatch:\nwant %#v\ngot  %#v", turns, reloaded.Snapshot())
	}
}

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	t.Parallel()

	store, err := Open(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty transcript, got %d turns", store.Len())
	}
}

func TestOpenQuarantinesCorruptArtifact(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open must not fail on corrupt content: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty transcript, got %d turns", store.Len())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var quarantined bool
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".corrupt-") {
			quarantined = true
		}
		if entry.Name() == "history.json" {
			t.Fatal("corrupt artifact was left in place")
		}
	}
	if !quarantined {
		t.Fatal("expected quarantined artifact alongside history path")
	}
}

func TestLoadIgnoresUnknownFields(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")
	doc := `[{"role":"user","parts":[{"text":"hi","future_field":123}],"extra":"x"}]`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 turn, got %d", store.Len())
	}
	if got := store.Snapshot()[0].TextContent(); got != "hi" {
		t.Fatalf("unexpected text: %q", got)
	}
}
