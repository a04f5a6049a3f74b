// Package backup writes local copies of aggregated model payloads. Backups
// are best-effort convenience copies; the relay store stays authoritative.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

type Store struct {
	dir string
	mu  sync.Mutex
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	return &Store{dir: dir}, nil
}

// Save writes the aggregated payload for one model round.
func (s *Store) Save(modelName string, round uint64, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	model := sanitize(modelName)
	if model == "" {
		return fmt.Errorf("invalid model name: %s", modelName)
	}

	modelDir := filepath.Join(s.dir, model)
	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return fmt.Errorf("failed to create model backup directory: %w", err)
	}

	name := fmt.Sprintf("round_%020d.bin", round)
	if err := os.WriteFile(filepath.Join(modelDir, name), payload, 0o644); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}

	return nil
}

// Latest returns the most recent backup payload for a model, or
// os.ErrNotExist when none has been written.
func (s *Store) Latest(modelName string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	model := sanitize(modelName)
	if model == "" {
		return nil, fmt.Errorf("invalid model name: %s", modelName)
	}

	entries, err := os.ReadDir(filepath.Join(s.dir, model))
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".bin") {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, os.ErrNotExist
	}
	sort.Strings(names)

	return os.ReadFile(filepath.Join(s.dir, model, names[len(names)-1]))
}

func sanitize(name string) string {
	var out strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			out.WriteRune(r)
		}
	}

	result := strings.ReplaceAll(out.String(), "..", "")

	return strings.TrimSpace(result)
}
