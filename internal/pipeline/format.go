// internal/pipeline/format.go
package pipeline

import (
	"sort"
	"strings"
	"unicode/utf8"

	"sneakscout/internal/models"
	"sneakscout/internal/search"
)

// Formatter produces the display-ready record from a validated item.
type Formatter struct {
	titleBudget int
	storeLabels map[string]string
}

// NewFormatter builds a formatter with the given title length budget in
// runes. storeLabels maps store keys to human-facing names; unknown stores
// fall back to their key.
func NewFormatter(titleBudget int, storeLabels map[string]string) *Formatter {
	return &Formatter{titleBudget: titleBudget, storeLabels: storeLabels}
}

// Format never rejects: by this stage the item has survived every gate, so
// formatting only tidies presentation.
func (f *Formatter) Format(item *models.NormalizedItem) *models.FinalItem {
	label := f.storeLabels[item.Store]
	if label == "" {
		label = item.Store
	}

	return &models.FinalItem{
		ID:         item.ID,
		Title:      TidyTitle(item.Title, f.titleBudget),
		Price:      item.Price,
		Currency:   item.Currency,
		ImageURL:   item.ImageURL,
		ProductURL: item.ProductURL,
		Store:      item.Store,
		StoreLabel: label,
		Sizes:      item.Sizes,
		Badges:     []string{},
	}
}

// TidyTitle removes doubled words and truncates to budget runes, cutting at
// the last whole word and appending an ellipsis.
func TidyTitle(title string, budget int) string {
	title = search.DedupeWords(title)
	if budget <= 0 || utf8.RuneCountInString(title) <= budget {
		return title
	}

	runes := []rune(title)
	cut := string(runes[:budget])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ") + "…"
}

// ApplyCohortBadges sorts items by ascending price and marks the cheapest
// 20% cohort, always at least one item, with the best-price badge. Calling
// it twice yields the same result.
func ApplyCohortBadges(items []*models.FinalItem) {
	if len(items) == 0 {
		return
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Price < items[j].Price
	})

	n := len(items) / 5
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		if !hasBadge(items[i], models.BadgeBestPrice) {
			items[i].Badges = append(items[i].Badges, models.BadgeBestPrice)
		}
	}
}

func hasBadge(item *models.FinalItem, badge string) bool {
	for _, b := range item.Badges {
		if b == badge {
			return true
		}
	}
	return false
}
