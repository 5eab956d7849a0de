// internal/search/sizes.go
package search

import (
	"strconv"
	"strings"

	"sneakscout/internal/models"
)

// sizePairs maps EU sizes to their US men's equivalents. The table is not
// exhaustive; unknown sizes fall through to a best-effort literal match.
var sizePairs = [][2]float64{
	{38, 5.5},
	{38.5, 6},
	{39, 6.5},
	{40, 7},
	{40.5, 7.5},
	{41, 8},
	{42, 8.5},
	{42.5, 9},
	{43, 9.5},
	{44, 10},
	{44.5, 10.5},
	{45, 11},
	{45.5, 11.5},
	{46, 12},
	{47, 12.5},
	{47.5, 13},
}

// RelatedSizes maps a single size token to the set of equivalent size values
// across regional sizing systems.
//
// A wildcard (or unparseable) input returns nil, meaning "no size filter".
// A concrete size found in the table returns both regional representations;
// one missing from the table returns the literal value alone. The function
// is pure and total over its domain.
func RelatedSizes(input string) []float64 {
	input = strings.TrimSpace(input)
	if input == "" || input == models.SizeWildcard {
		return nil
	}

	v, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return nil
	}

	for _, pair := range sizePairs {
		if pair[0] == v || pair[1] == v {
			return []float64{pair[0], pair[1]}
		}
	}
	return []float64{v}
}

// SizeMatches reports whether any of the item's size labels denotes one of
// the wanted size values. Items that publish no sizes pass by default, since
// many storefront tiles omit the size list entirely.
func SizeMatches(itemSizes []string, wanted []float64) bool {
	if len(wanted) == 0 || len(itemSizes) == 0 {
		return true
	}
	for _, label := range itemSizes {
		v, err := strconv.ParseFloat(strings.TrimSpace(stripRegionPrefix(label)), 64)
		if err != nil {
			continue
		}
		for _, w := range wanted {
			if v == w {
				return true
			}
		}
	}
	return false
}

// stripRegionPrefix removes a leading regional convention marker ("EU 42",
// "US 9") from a size label.
func stripRegionPrefix(label string) string {
	upper := strings.ToUpper(strings.TrimSpace(label))
	for _, prefix := range []string{"EU", "US", "UK"} {
		if strings.HasPrefix(upper, prefix) {
			return strings.TrimSpace(label[len(prefix):])
		}
	}
	return label
}
