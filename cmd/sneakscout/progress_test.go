// cmd/sneakscout/progress_test.go
package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sneakscout/internal/common/logger"
	"sneakscout/internal/models"
	"sneakscout/internal/orchestrator"
	"sneakscout/internal/sink"
)

func TestProgressWriter_PartialsAreSortedSnapshots(t *testing.T) {
	log := logger.NewTestLogger(t)
	path := filepath.Join(t.TempDir(), "results.json")
	fileSink := sink.NewFileSink(path, log)
	agg := orchestrator.NewAggregator()

	query := models.Query{Brand: "Nike", Model: "Dunk Low", Size: "*"}
	p := newProgressWriter(fileSink, nil, nil, agg, query, "Nike Dunk Low", true, log)

	expensive := &models.FinalItem{
		ID: "a", Title: "Nike Dunk Low Grey Fog", Price: 520,
		ProductURL: "https://s.example.com/p/grey", Store: "test-store", Badges: []string{},
	}
	cheap := &models.FinalItem{
		ID: "b", Title: "Nike Dunk Low Panda", Price: 450,
		ProductURL: "https://s.example.com/p/panda", Store: "test-store", Badges: []string{},
	}

	// The expensive item arrives first; the partial record must still come
	// out price-sorted because it reads the aggregator snapshot.
	agg.Add(expensive)
	p.onEvent(models.Event{Kind: models.EventItemFound, Item: expensive})
	agg.Add(cheap)
	p.onEvent(models.Event{Kind: models.EventItemFound, Item: cheap})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var record models.RunRecord
	require.NoError(t, json.Unmarshal(data, &record))

	assert.True(t, record.IsRunning)
	require.Len(t, record.Results, 2)
	assert.Equal(t, 450.0, record.Results[0].Price)
	assert.Equal(t, 520.0, record.Results[1].Price)
}
