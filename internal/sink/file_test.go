// internal/sink/file_test.go
package sink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"sneakscout/internal/common/logger"
	"sneakscout/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() *models.RunRecord {
	return &models.RunRecord{
		IsRunning:       true,
		SearchTerm:      "Nike Dunk Low",
		SizeFilter:      "42.5",
		AppliedPatterns: []string{`Dunk[. \-]?Low`},
		Results: []models.FinalItem{{
			ID:         "id-1",
			Title:      "Nike Dunk Low Panda",
			Price:      450,
			Currency:   "ILS",
			ProductURL: "https://store.example.com/p/1",
			Store:      "kicks-tlv",
			StoreLabel: "Kicks TLV",
			Badges:     []string{},
		}},
	}
}

func TestFileSink_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.json")
	s := NewFileSink(path, logger.NewTestLogger(t))

	require.NoError(t, s.Write(validRecord()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var parsed models.RunRecord
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.True(t, parsed.IsRunning)
	assert.Equal(t, "Nike Dunk Low", parsed.SearchTerm)
	assert.False(t, parsed.UpdatedAt.IsZero())

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileSink_ProgressiveOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	s := NewFileSink(path, logger.NewTestLogger(t))

	partial := validRecord()
	require.NoError(t, s.Write(partial))

	final := validRecord()
	final.IsRunning = false
	final.Results[0].Badges = []string{models.BadgeBestPrice}
	require.NoError(t, s.Write(final))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var parsed models.RunRecord
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.False(t, parsed.IsRunning, "final write flips the running flag")
	assert.Equal(t, []string{models.BadgeBestPrice}, parsed.Results[0].Badges)
}

func TestFileSink_NilSlicesSerializeAsEmptyArrays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	s := NewFileSink(path, logger.NewTestLogger(t))

	require.NoError(t, s.Write(&models.RunRecord{SearchTerm: "anything"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"results": []`)
	assert.NotContains(t, string(data), `"results": null`)
}

func TestValidateRunRecord(t *testing.T) {
	good, err := json.Marshal(func() *models.RunRecord {
		r := validRecord()
		r.AppliedPatterns = []string{}
		return r
	}())
	require.NoError(t, err)
	assert.NoError(t, ValidateRunRecord(good))

	t.Run("zero price rejected", func(t *testing.T) {
		r := validRecord()
		r.Results[0].Price = 0
		data, _ := json.Marshal(r)
		assert.Error(t, ValidateRunRecord(data))
	})

	t.Run("non-http product url rejected", func(t *testing.T) {
		r := validRecord()
		r.Results[0].ProductURL = "/p/relative"
		data, _ := json.Marshal(r)
		assert.Error(t, ValidateRunRecord(data))
	})

	t.Run("unknown worker status rejected", func(t *testing.T) {
		r := validRecord()
		r.Workers = []models.WorkerResult{{Store: "x", Status: "exploded"}}
		data, _ := json.Marshal(r)
		assert.Error(t, ValidateRunRecord(data))
	})
}
