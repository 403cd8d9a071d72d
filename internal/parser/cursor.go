package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cursor marks how far a backfill has progressed.
type Cursor struct {
	LastBlock uint64 `json:"last_block"`
	UpdatedAt string `json:"updated_at"`
}

// CursorStore persists the backfill cursor so an interrupted run resumes
// where it stopped. A disabled store loads nothing and saves nothing.
type CursorStore struct {
	path    string
	enabled bool
}

func NewCursorStore(path string, enabled bool) *CursorStore {
	return &CursorStore{path: path, enabled: enabled}
}

func (c *CursorStore) Load() (Cursor, bool, error) {
	if !c.enabled {
		return Cursor{}, false, nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Cursor{}, false, nil
		}
		return Cursor{}, false, fmt.Errorf("read cursor: %w", err)
	}

	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return Cursor{}, false, fmt.Errorf("parse cursor: %w", err)
	}
	return cursor, true, nil
}

// Save writes the cursor atomically via rename.
func (c *CursorStore) Save(lastBlock uint64) error {
	if !c.enabled {
		return nil
	}

	dir := filepath.Dir(c.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cursor dir: %w", err)
		}
	}

	data, err := json.Marshal(Cursor{
		LastBlock: lastBlock,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal cursor: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write cursor tmp: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("rename cursor: %w", err)
	}
	return nil
}
