// internal/sink/file.go

// Package sink persists run records: a progressive JSON file for consumers
// tailing the run, plus optional Postgres and Elasticsearch exports.
package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sneakscout/internal/common/logger"
	"sneakscout/internal/models"
)

// FileSink writes the run record to a JSON file. Writes are atomic, a
// temp file is renamed over the target so a reader never observes a
// half-written record.
type FileSink struct {
	path   string
	logger logger.Logger
}

func NewFileSink(path string, log logger.Logger) *FileSink {
	return &FileSink{
		path:   path,
		logger: log.WithFields(map[string]interface{}{"sink": "file"}),
	}
}

// Write validates and persists the record. A partial record carries
// IsRunning=true; consumers treat the file as live until a final write
// flips it off.
func (s *FileSink) Write(record *models.RunRecord) error {
	record.UpdatedAt = time.Now().UTC()
	if record.Results == nil {
		record.Results = []models.FinalItem{}
	}
	if record.AppliedPatterns == nil {
		record.AppliedPatterns = []string{}
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run record: %w", err)
	}

	if err := ValidateRunRecord(data); err != nil {
		return fmt.Errorf("run record failed schema validation: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".run-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return err
	}

	s.logger.Debug("run record written", map[string]interface{}{
		"path":    s.path,
		"results": len(record.Results),
		"running": record.IsRunning,
	})
	return nil
}
