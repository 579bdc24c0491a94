// Package status persists one JSON status record per restore run. The file
// is overwritten on every lifecycle transition; only the latest state
// matters for a given run.
package status

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Lifecycle states of a restore run.
const (
	StateInitializing = "INITIALIZING"
	StateCompleted    = "COMPLETED"
	StateFailed       = "FAILED"
)

// Record is the durable status of one restore run.
type Record struct {
	RunID        string            `json:"restore_id"`
	State        string            `json:"status"`
	RestorePoint string            `json:"restore_point_in_time"`
	StartedAt    time.Time         `json:"started_at"`
	Environment  string            `json:"environment"`
	Tables       map[string]string `json:"tables"`
	ErrorMessage string            `json:"error_message,omitempty"`
}

// NewRunID returns a run identifier embedding the start timestamp, with a
// short random suffix so two runs started within the same second stay
// distinguishable.
func NewRunID(now time.Time) string {
	return fmt.Sprintf("restore-%s-%s",
		now.UTC().Format("2006-01-02T15-04-05Z"),
		uuid.NewString()[:8])
}

// Writer persists run records under a directory, one file per run.
type Writer struct {
	dir string
}

// NewWriter creates a status writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Path returns the status file path for a run.
func (w *Writer) Path(runID string) string {
	return filepath.Join(w.dir, fmt.Sprintf("restore_status_%s.json", runID))
}

// Write persists the record, replacing any previous state for the run.
func (w *Writer) Write(rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode status record: %w", err)
	}
	if err := os.WriteFile(w.Path(rec.RunID), data, 0644); err != nil {
		return fmt.Errorf("failed to write status file: %w", err)
	}
	return nil
}

// Read loads the record of a single run.
func (w *Writer) Read(runID string) (Record, error) {
	data, err := os.ReadFile(w.Path(runID))
	if err != nil {
		return Record{}, fmt.Errorf("failed to read status file: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to decode status record: %w", err)
	}
	return rec, nil
}

// List returns all run records found under the writer's directory, most
// recent first.
func (w *Writer) List() ([]Record, error) {
	matches, err := filepath.Glob(filepath.Join(w.dir, "restore_status_*.json"))
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})
	return records, nil
}
