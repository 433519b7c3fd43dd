// Package audit persists one JSON record per recommendation, timestamped so
// a calculation can be reviewed after the fact.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lake-health/lakecalc-ai/internal/recommend"
)

// Record is what lands on disk for one exam.
type Record struct {
	ID        string                `json:"id"`
	CreatedAt time.Time             `json:"created_at"`
	Patient   string                `json:"patient,omitempty"`
	Policy    string                `json:"policy"`
	FamilyID  string                `json:"family_id"`
	Result    *recommend.ExamResult `json:"result"`
}

// Writer appends records to a directory. A Writer with an empty directory
// discards everything, so callers never branch on whether auditing is on.
type Writer struct {
	dir string
}

// NewWriter creates the audit directory if needed. An empty dir yields a
// no-op writer.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		return &Writer{}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Write stores one record and returns its file path, or "" for a no-op
// writer.
func (w *Writer) Write(rec Record) (string, error) {
	if w.dir == "" {
		return "", nil
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode audit record: %w", err)
	}

	name := fmt.Sprintf("%s-%s.json", rec.CreatedAt.Format("20060102-150405"), rec.ID)
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write audit record: %w", err)
	}
	return path, nil
}

// List returns every stored record, oldest first.
func (w *Writer) List() ([]Record, error) {
	if w.dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("read audit dir: %w", err)
	}

	var records []Record
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(w.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("parse audit record %s: %w", e.Name(), err)
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}
