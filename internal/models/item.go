// internal/models/item.go
package models

// RawItem is an unvalidated candidate extracted by a storefront worker.
// Nothing about it can be trusted: the price may carry currency noise, the
// product URL may be relative, and the title may describe anything a site
// search decided to return.
type RawItem struct {
	Title      string   `json:"title"`
	Price      string   `json:"price"`
	ImageURL   string   `json:"imageUrl"`
	ProductURL string   `json:"productUrl"`
	Sizes      []string `json:"sizes,omitempty"`
	Context    string   `json:"context,omitempty"` // surrounding free text used for disambiguation
	ID         string   `json:"id,omitempty"`
}

// SizeWildcard means "no size filter — accept all."
const SizeWildcard = "*"

// Query is a single search request against the worker fleet.
type Query struct {
	Brand string `json:"brand"`
	Model string `json:"model"`
	Size  string `json:"size"` // literal size token or SizeWildcard
}

// SizeIsWildcard reports whether the query accepts any size.
func (q Query) SizeIsWildcard() bool {
	return q.Size == "" || q.Size == SizeWildcard
}

// NormalizedItem is the canonical representation of a validated candidate.
//
// Invariants: Price is a finite, non-negative number; ProductURL is absolute.
// The Link and Image fields repeat ProductURL and ImageURL under the legacy
// names some downstream consumers still read.
type NormalizedItem struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Price      float64  `json:"price"`
	Currency   string   `json:"currency"`
	ImageURL   string   `json:"imageUrl"`
	ProductURL string   `json:"productUrl"`
	Store      string   `json:"store"`
	Sizes      []string `json:"sizes,omitempty"`

	// Legacy aliases
	Link  string `json:"link"`
	Image string `json:"image"`
}

// FinalItem is the display-ready record exposed at the system boundary.
type FinalItem struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Price      float64  `json:"price"`
	Currency   string   `json:"currency"`
	ImageURL   string   `json:"imageUrl"`
	ProductURL string   `json:"productUrl"`
	Store      string   `json:"store"`
	StoreLabel string   `json:"storeLabel"`
	Sizes      []string `json:"sizes,omitempty"`
	Badges     []string `json:"badges"`
}

// BadgeBestPrice marks items in the cheapest 20% cohort of a run.
const BadgeBestPrice = "Best Price"

// WorkerStatus is the terminal outcome of one worker dispatch.
type WorkerStatus string

const (
	WorkerStatusSuccess WorkerStatus = "success"
	WorkerStatusTimeout WorkerStatus = "timeout"
	WorkerStatusError   WorkerStatus = "error"
)

// WorkerResult is a run-level observability record, not a data correctness
// signal: a store with zero items is a valid outcome.
type WorkerResult struct {
	Store     string       `json:"store"`
	Status    WorkerStatus `json:"status"`
	ItemCount int          `json:"itemCount"`
}
