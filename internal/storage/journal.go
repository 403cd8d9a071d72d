package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/yagosupro/ethparser/internal/model"
)

// DropJournal appends dropped-log records to a JSONL file for offline
// diagnosis. A nil journal discards everything.
type DropJournal struct {
	path string
	mu   sync.Mutex
}

func NewDropJournal(path string) *DropJournal {
	if path == "" {
		return nil
	}
	return &DropJournal{path: path}
}

// Record appends one drop record with the offending log's coordinates.
func (j *DropJournal) Record(lg model.LogRecord, reason error) error {
	if j == nil {
		return nil
	}

	rec := model.DropRecord{
		BlockNumber: lg.BlockNumber,
		TxHash:      lg.TxHash,
		LogIndex:    lg.LogIndex,
		Address:     lg.Address,
		Topic0:      lg.Topic0(),
		Error:       reason.Error(),
		DroppedAt:   time.Now().UTC().Format(time.RFC3339Nano),
	}

	dir := filepath.Dir(j.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal drop record: %w", err)
	}
	if _, err := writer.Write(line); err != nil {
		return fmt.Errorf("write drop record: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush journal: %w", err)
	}
	return nil
}
