package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vitos/perp_leverage_bot/internal/domain"
)

// JSONJournal persists the trade history as a single JSON array, rewritten in
// full on every save. The write goes through a temp file and rename so a
// crash mid-save never leaves a half-written history behind.
type JSONJournal struct {
	path string
	mu   sync.Mutex
}

func NewJSONJournal(path string) *JSONJournal {
	return &JSONJournal{path: path}
}

// Load reads the full history. A missing file is an empty history.
func (j *JSONJournal) Load() ([]domain.TradeRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := os.ReadFile(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}

	var records []domain.TradeRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return records, nil
}

func (j *JSONJournal) Save(records []domain.TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	tmp := j.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	if err := os.Rename(tmp, j.path); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	return nil
}
