// Package freshness tracks the dataset file's modification time against the
// value recorded at the last successful rebuild.
package freshness

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Monitor compares the dataset's current mtime with the persisted record.
type Monitor struct {
	datasetPath string
	recordPath  string
}

// NewMonitor creates a monitor for datasetPath, persisting the record at recordPath.
func NewMonitor(datasetPath, recordPath string) *Monitor {
	return &Monitor{datasetPath: datasetPath, recordPath: recordPath}
}

// CurrentModified returns the dataset file's mtime as unix seconds.
func (m *Monitor) CurrentModified() (float64, error) {
	info, err := os.Stat(m.datasetPath)
	if err != nil {
		return 0, fmt.Errorf("stat dataset: %w", err)
	}
	return float64(info.ModTime().UnixNano()) / 1e9, nil
}

// ShouldRebuild reports whether the dataset mtime differs from the record.
// Any difference counts, not just newer. A missing or corrupt record reads
// as 0 and therefore always reports stale.
func (m *Monitor) ShouldRebuild() (bool, error) {
	current, err := m.CurrentModified()
	if err != nil {
		return false, err
	}
	return current != m.LastRebuilt(), nil
}

// LastRebuilt returns the recorded mtime, or 0 when no record exists or it
// cannot be parsed.
func (m *Monitor) LastRebuilt() float64 {
	data, err := os.ReadFile(m.recordPath)
	if err != nil {
		return 0
	}
	t, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0
	}
	return t
}

// MarkRebuilt persists t as the new record, overwriting any prior value.
func (m *Monitor) MarkRebuilt(t float64) error {
	if dir := filepath.Dir(m.recordPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create record dir: %w", err)
		}
	}
	value := strconv.FormatFloat(t, 'f', -1, 64)
	if err := os.WriteFile(m.recordPath, []byte(value), 0644); err != nil {
		return fmt.Errorf("write freshness record: %w", err)
	}
	return nil
}
