package evidence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alexisbeaulieu97/cmdsync/internal/model"
)

// Store persists run evidence to an evidence directory, one JSON record and
// one human-readable rendering per run. Files are written atomically and
// never rewritten.
type Store struct {
	dir string
}

// NewStore creates the evidence directory if needed and returns a Store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create evidence directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Write persists the evidence and returns the JSON file path. Filenames
// carry the run timestamp and ID, so concurrent runs against different
// scopes never collide.
func (s *Store) Write(ev model.RunEvidence) (string, error) {
	base := fmt.Sprintf("run-%s-%s", ev.Timestamp.Format("20060102T150405Z"), shortID(ev.RunID))

	data, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal evidence: %w", err)
	}

	jsonPath := filepath.Join(s.dir, base+".json")
	if err := writeAtomic(jsonPath, data); err != nil {
		return "", err
	}

	txtPath := filepath.Join(s.dir, base+".txt")
	if err := writeAtomic(txtPath, []byte(Render(ev, false))); err != nil {
		return "", err
	}

	return jsonPath, nil
}

// writeAtomic writes via a temporary file and rename so a crashed run never
// leaves a truncated record behind.
func writeAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temporary file: %w", err)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
