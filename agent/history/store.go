package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/hansobored/hanagent/agent/contract"
)

var ErrNilStore = errors.New("history store is nil")

// FileStore owns the session transcript and persists it as a JSON array
// of {role, parts} documents. A session must always be able to start:
// content that cannot be parsed is quarantined, never propagated.
type FileStore struct {
	path  string
	turns []contractx.Turn
}

// Open loads the transcript at path. A missing file yields an empty
// transcript; an unreadable one is renamed aside and the store starts
// empty.
func Open(path string) (*FileStore, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, errors.New("history path is required")
	}

	store := &FileStore{path: trimmed}

	raw, err := os.ReadFile(trimmed)
	if errors.Is(err, os.ErrNotExist) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", trimmed, err)
	}

	var turns []contractx.Turn
	if err := json.Unmarshal(raw, &turns); err != nil {
		quarantine := trimmed + ".corrupt-" + uuid.NewString()
		if renameErr := os.Rename(trimmed, quarantine); renameErr != nil {
			log.Warn().Err(renameErr).Str("path", trimmed).Msg("failed to quarantine corrupt history")
		} else {
			log.Warn().Str("path", trimmed).Str("quarantine", quarantine).Msg("quarantined corrupt history")
		}
		return store, nil
	}

	store.turns = turns
	return store, nil
}

func (s *FileStore) Append(turn contractx.Turn) {
	s.turns = append(s.turns, turn)
}

func (s *FileStore) Snapshot() []contractx.Turn {
	out := make([]contractx.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *FileStore) Len() int {
	return len(s.turns)
}

// Save writes the transcript atomically: marshal to a temp file in the
// same directory, then rename over the destination.
func (s *FileStore) Save() error {
	if s == nil {
		return ErrNilStore
	}

	payload, err := json.MarshalIndent(s.turns, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".history-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close history: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace history %s: %w", s.path, err)
	}
	return nil
}
