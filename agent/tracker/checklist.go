package tracker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	uncheckedMarker = "[ ]"
	checkedMarker   = "[x]"
)

// Item is one checklist entry.
type Item struct {
	Text string
	Done bool
}

// Parse reads a line-oriented checklist document. Lines may carry an
// optional leading "- " before the marker; lines without a marker are
// not items and are dropped.
func Parse(doc string) []Item {
	var items []Item
	for _, line := range strings.Split(doc, "\n") {
		text, done, ok := parseLine(line)
		if !ok {
			continue
		}
		items = append(items, Item{Text: text, Done: done})
	}
	return items
}

// Render writes items back in the canonical "- [ ] item" form.
func Render(items []Item) string {
	var b strings.Builder
	for _, item := range items {
		marker := uncheckedMarker
		if item.Done {
			marker = checkedMarker
		}
		fmt.Fprintf(&b, "- %s %s\n", marker, item.Text)
	}
	return b.String()
}

// NextPending returns the first item whose marker is unset. The second
// return is false when every item is done, which is the orchestrator's
// success-termination signal.
func NextPending(doc string) (string, bool) {
	for _, item := range Parse(doc) {
		if !item.Done {
			return item.Text, true
		}
	}
	return "", false
}

// MarkDone flips the first unset item whose text matches exactly,
// byte-for-byte after marker strip. No match leaves the document
// unchanged; callers re-read to confirm the mutation occurred.
func MarkDone(itemText string, doc string) string {
	items := Parse(doc)
	for i := range items {
		if !items[i].Done && items[i].Text == itemText {
			items[i].Done = true
			return Render(items)
		}
	}
	return doc
}

func parseLine(line string) (text string, done bool, ok bool) {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimPrefix(trimmed, "- ")
	switch {
	case strings.HasPrefix(trimmed, uncheckedMarker):
		return strings.TrimPrefix(trimmed[len(uncheckedMarker):], " "), false, true
	case strings.HasPrefix(trimmed, checkedMarker):
		return strings.TrimPrefix(trimmed[len(checkedMarker):], " "), true, true
	default:
		return "", false, false
	}
}

// File persists the checklist artifact with whole-document reads and
// atomic whole-document overwrites.
type File struct {
	path string
}

func NewFile(path string) (*File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("checklist path is required")
	}
	return &File{path: trimmed}, nil
}

func (f *File) Path() string {
	return f.path
}

// Read returns the whole document. A missing file reads as empty.
func (f *File) Read() (string, error) {
	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read checklist %s: %w", f.path, err)
	}
	return string(raw), nil
}

// Write overwrites the whole document via a temp file and rename so a
// crash mid-write never loses the prior artifact.
func (f *File) Write(doc string) error {
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".todo-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp checklist file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(doc); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write checklist: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close checklist: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace checklist %s: %w", f.path, err)
	}
	return nil
}
