// internal/sink/postgres.go
package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"sneakscout/internal/common/logger"
	"sneakscout/internal/models"
)

// PostgresSink keeps one row per search term in the search_runs table so a
// repeated search overwrites its previous run.
type PostgresSink struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresSink(db *sql.DB, log logger.Logger) *PostgresSink {
	return &PostgresSink{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"sink": "postgres"}),
	}
}

// EnsureSchema creates the search_runs table if it does not exist.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS search_runs (
			search_term  TEXT PRIMARY KEY,
			size_filter  TEXT NOT NULL DEFAULT '',
			is_running   BOOLEAN NOT NULL,
			result_count INTEGER NOT NULL,
			record       JSONB NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure search_runs schema: %w", err)
	}
	return nil
}

// Write upserts the run record for its search term.
func (s *PostgresSink) Write(ctx context.Context, record *models.RunRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO search_runs (search_term, size_filter, is_running, result_count, record, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (search_term) DO UPDATE SET
			size_filter  = EXCLUDED.size_filter,
			is_running   = EXCLUDED.is_running,
			result_count = EXCLUDED.result_count,
			record       = EXCLUDED.record,
			updated_at   = EXCLUDED.updated_at`,
		record.SearchTerm,
		record.SizeFilter,
		record.IsRunning,
		len(record.Results),
		payload,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert search run: %w", err)
	}

	s.logger.Debug("run record upserted", map[string]interface{}{
		"searchTerm": record.SearchTerm,
		"results":    len(record.Results),
	})
	return nil
}
