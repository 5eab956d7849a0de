// internal/models/run.go
package models

import "time"

// RunRecord is the persisted output of one search run. Partial records may be
// written repeatedly mid-run with IsRunning=true; the final write carries
// IsRunning=false and the deduplicated, price-sorted, badged result list.
type RunRecord struct {
	UpdatedAt       time.Time      `json:"updatedAt"`
	IsRunning       bool           `json:"isRunning"`
	SearchTerm      string         `json:"searchTerm"`
	SizeFilter      string         `json:"sizeFilter"`
	AppliedPatterns []string       `json:"appliedPatterns"`
	Results         []FinalItem    `json:"results"`
	Workers         []WorkerResult `json:"workers,omitempty"`
}
