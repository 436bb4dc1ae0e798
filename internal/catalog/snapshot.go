package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/flowsmith/flowsmith/pkg/domain"
)

// Snapshot is the single serialized form of a built index, produced by the
// offline build step and consumed at load.
type Snapshot struct {
	GeneratedAt time.Time                       `json:"generated_at"`
	Count       int                             `json:"count"`
	Order       []string                        `json:"order"`
	Entries     map[string]domain.NodeTypeEntry `json:"entries"`
	Categories  map[string][]string             `json:"categories"`
	Triggers    []string                        `json:"triggers"`
	Aliases     map[string]string               `json:"aliases"`
}

// ReadSnapshot loads a snapshot file.
func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode index snapshot: %w", err)
	}

	return &snapshot, nil
}

// WriteSnapshot persists a snapshot atomically.
func WriteSnapshot(path string, snapshot Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode index snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}
