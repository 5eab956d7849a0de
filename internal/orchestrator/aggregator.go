// internal/orchestrator/aggregator.go
package orchestrator

import (
	"net/url"
	"sort"
	"strings"
	"sync"

	"sneakscout/internal/models"
	"sneakscout/internal/pipeline"
)

// Aggregator collects validated items from concurrently running workers and
// produces the final deduplicated, sorted, badged result list.
type Aggregator struct {
	mu      sync.Mutex
	items   []*models.FinalItem
	seen    map[string]bool
	workers []models.WorkerResult
}

func NewAggregator() *Aggregator {
	return &Aggregator{seen: make(map[string]bool)}
}

// Add records one validated item. The first item to claim a canonical URL
// wins; later duplicates are dropped regardless of which worker or query
// variant produced them.
func (a *Aggregator) Add(item *models.FinalItem) bool {
	key := CanonicalURL(item.ProductURL)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.seen[key] {
		return false
	}
	a.seen[key] = true
	a.items = append(a.items, item)
	return true
}

// RecordWorker appends one worker's terminal outcome.
func (a *Aggregator) RecordWorker(result models.WorkerResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.workers = append(a.workers, result)
}

// Count returns the number of distinct items collected so far.
func (a *Aggregator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.items)
}

// Snapshot returns a copy of the current items, price-sorted, for partial
// record writes while the run is still in flight.
func (a *Aggregator) Snapshot() []models.FinalItem {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sortedCopyLocked()
}

// Workers returns a copy of the worker outcomes recorded so far.
func (a *Aggregator) Workers() []models.WorkerResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.WorkerResult, len(a.workers))
	copy(out, a.workers)
	return out
}

// Finalize applies the cheapest-cohort badges and returns the completed
// result list. Calling it more than once yields the same list.
func (a *Aggregator) Finalize() []models.FinalItem {
	a.mu.Lock()
	defer a.mu.Unlock()

	pipeline.ApplyCohortBadges(a.items)
	return a.sortedCopyLocked()
}

func (a *Aggregator) sortedCopyLocked() []models.FinalItem {
	out := make([]models.FinalItem, 0, len(a.items))
	sorted := make([]*models.FinalItem, len(a.items))
	copy(sorted, a.items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Price < sorted[j].Price
	})
	for _, item := range sorted {
		out = append(out, *item)
	}
	return out
}

// CanonicalURL is the dedup key for a product link: scheme, host and path
// only. Query strings carry per-worker tracking noise and fragments never
// change the product.
func CanonicalURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/")
}
