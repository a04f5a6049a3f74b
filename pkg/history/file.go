package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

type fileSink struct {
	dir string
	mu  sync.RWMutex
}

// NewFileSink stores one JSON file per record under dir/<model>/.
func NewFileSink(dir string) (Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	return &fileSink{dir: dir}, nil
}

func (fs *fileSink) Append(_ context.Context, rec Record) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	model := sanitizeName(rec.ModelName)
	if model == "" {
		return fmt.Errorf("invalid model name: %s", rec.ModelName)
	}
	id := sanitizeName(rec.ID)
	if id == "" {
		return fmt.Errorf("invalid record id: %s", rec.ID)
	}

	modelDir := filepath.Join(fs.dir, model)
	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return fmt.Errorf("failed to create model history directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	name := fmt.Sprintf("%s_round_%d_%s.json", rec.Timestamp.UTC().Format("20060102T150405.000000000"), rec.Round, id)
	if err := os.WriteFile(filepath.Join(modelDir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write record file: %w", err)
	}

	return nil
}

func (fs *fileSink) List(_ context.Context, modelName string, offset, limit uint64) (Page, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	model := sanitizeName(modelName)
	if model == "" {
		return Page{}, fmt.Errorf("invalid model name: %s", modelName)
	}

	entries, err := os.ReadDir(filepath.Join(fs.dir, model))
	if err != nil {
		if os.IsNotExist(err) {
			return Page{Offset: offset, Limit: limit}, nil
		}

		return Page{}, fmt.Errorf("failed to read history directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	// Timestamp prefix makes lexicographic order chronological.
	sort.Strings(names)

	total := uint64(len(names))
	if offset >= total {
		return Page{Offset: offset, Limit: limit, Total: total}, nil
	}
	end := offset + limit
	if limit == 0 || end > total {
		end = total
	}

	records := make([]Record, 0, end-offset)
	for _, name := range names[offset:end] {
		data, err := os.ReadFile(filepath.Join(fs.dir, model, name))
		if err != nil {
			return Page{}, fmt.Errorf("failed to read record file: %w", err)
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return Page{}, fmt.Errorf("failed to unmarshal record: %w", err)
		}
		records = append(records, rec)
	}

	return Page{
		Offset:  offset,
		Limit:   limit,
		Total:   total,
		Records: records,
	}, nil
}

// sanitizeName strips path separators, traversal sequences and control
// characters so names are safe for use in file paths.
func sanitizeName(name string) string {
	var cleaned strings.Builder
	for _, r := range name {
		if r < 32 || r == 127 {
			continue
		}
		cleaned.WriteRune(r)
	}

	result := strings.ReplaceAll(cleaned.String(), "..", "")
	result = strings.TrimSpace(result)

	var final strings.Builder
	for _, r := range result {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			final.WriteRune(r)
		}
	}

	return final.String()
}
