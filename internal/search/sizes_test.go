// internal/search/sizes_test.go
package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelatedSizes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []float64
	}{
		{"wildcard means no filter", "*", nil},
		{"empty means no filter", "", nil},
		{"unparseable means no filter", "large", nil},
		{"EU size returns both representations", "42.5", []float64{42.5, 9}},
		{"US size returns both representations", "9", []float64{42.5, 9}},
		{"unknown size returns the literal alone", "36", []float64{36}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RelatedSizes(tt.input))
		})
	}
}

func TestSizeMatches(t *testing.T) {
	wanted := RelatedSizes("42.5")

	assert.True(t, SizeMatches([]string{"41", "42.5"}, wanted))
	assert.True(t, SizeMatches([]string{"EU 42.5"}, wanted), "regional prefix is stripped")
	assert.True(t, SizeMatches([]string{"US 9"}, wanted), "US representation matches")
	assert.False(t, SizeMatches([]string{"40", "41"}, wanted))

	// Best-effort defaults: no filter or no published sizes pass.
	assert.True(t, SizeMatches([]string{"40"}, nil))
	assert.True(t, SizeMatches(nil, wanted))
}
