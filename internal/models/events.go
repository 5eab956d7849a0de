// internal/models/events.go
package models

// EventKind enumerates the run lifecycle events exposed to consumers.
type EventKind string

const (
	EventSearchStarted   EventKind = "search_started"
	EventItemFound       EventKind = "item_found"
	EventSearchCompleted EventKind = "search_completed"
)

// Event is a single entry on the run event stream. Only the fields relevant
// to the Kind are populated.
type Event struct {
	Kind EventKind `json:"kind"`

	// search_started
	Brand       string `json:"brand,omitempty"`
	Model       string `json:"model,omitempty"`
	Size        string `json:"size,omitempty"`
	WorkerCount int    `json:"workerCount,omitempty"`

	// item_found
	Item *FinalItem `json:"item,omitempty"`

	// search_completed
	TotalResults int `json:"totalResults,omitempty"`
}
