// internal/pipeline/format_test.go
package pipeline

import (
	"testing"

	"sneakscout/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestTidyTitle(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		budget   int
		expected string
	}{
		{
			name:     "short title untouched",
			in:       "Nike Dunk Low Panda",
			budget:   60,
			expected: "Nike Dunk Low Panda",
		},
		{
			name:     "doubled words removed",
			in:       "Nike Nike Dunk Low Low Panda",
			budget:   60,
			expected: "Nike Dunk Low Panda",
		},
		{
			name:     "truncated at last whole word",
			in:       "Nike Dunk Low Retro Premium Basketball Edition White Black Colorway",
			budget:   30,
			expected: "Nike Dunk Low Retro Premium…",
		},
		{
			name:     "zero budget disables truncation",
			in:       "Nike Dunk Low Panda",
			budget:   0,
			expected: "Nike Dunk Low Panda",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TidyTitle(tt.in, tt.budget))
		})
	}
}

func TestFormatter_Format(t *testing.T) {
	f := NewFormatter(60, map[string]string{"kicks-tlv": "Kicks TLV"})

	final := f.Format(&models.NormalizedItem{
		ID:         "id-1",
		Title:      "Nike Dunk Low",
		Price:      450,
		Currency:   "ILS",
		ProductURL: "https://store.example.com/p/1",
		Store:      "kicks-tlv",
	})

	assert.Equal(t, "Kicks TLV", final.StoreLabel)
	assert.NotNil(t, final.Badges, "badges serialize as an empty list, not null")
	assert.Empty(t, final.Badges)

	unknown := f.Format(&models.NormalizedItem{Store: "other-store"})
	assert.Equal(t, "other-store", unknown.StoreLabel, "unknown store falls back to its key")
}

func TestApplyCohortBadges(t *testing.T) {
	mk := func(id string, price float64) *models.FinalItem {
		return &models.FinalItem{ID: id, Price: price, Badges: []string{}}
	}

	t.Run("cheapest fifth is badged", func(t *testing.T) {
		items := []*models.FinalItem{
			mk("e", 500), mk("a", 100), mk("c", 300), mk("b", 200), mk("d", 400),
			mk("j", 1000), mk("f", 600), mk("h", 800), mk("g", 700), mk("i", 900),
		}
		ApplyCohortBadges(items)

		assert.Equal(t, "a", items[0].ID, "sorted by ascending price")
		assert.Equal(t, []string{models.BadgeBestPrice}, items[0].Badges)
		assert.Equal(t, []string{models.BadgeBestPrice}, items[1].Badges)
		assert.Empty(t, items[2].Badges, "only floor(10*0.2)=2 items badged")
	})

	t.Run("small result sets badge at least one", func(t *testing.T) {
		items := []*models.FinalItem{mk("b", 200), mk("a", 100)}
		ApplyCohortBadges(items)
		assert.Equal(t, []string{models.BadgeBestPrice}, items[0].Badges)
		assert.Empty(t, items[1].Badges)
	})

	t.Run("idempotent", func(t *testing.T) {
		items := []*models.FinalItem{mk("a", 100), mk("b", 200), mk("c", 300)}
		ApplyCohortBadges(items)
		ApplyCohortBadges(items)
		assert.Equal(t, []string{models.BadgeBestPrice}, items[0].Badges)
	})

	t.Run("empty set is a no-op", func(t *testing.T) {
		ApplyCohortBadges(nil)
	})
}
