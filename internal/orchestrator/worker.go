// internal/orchestrator/worker.go
package orchestrator

import (
	"context"

	"sneakscout/internal/models"
)

// Worker is one storefront adapter in the fleet. The orchestrator drives the
// lifecycle strictly as Open, Scrape, Close; Close is called even when an
// earlier phase failed or timed out.
type Worker interface {
	// Name is the stable store key, used in logs, metrics and results.
	Name() string

	// Open prepares the worker session. Open time does not count against
	// the scrape deadline.
	Open(ctx context.Context) error

	// Scrape runs the storefront search for the query string and returns
	// every candidate tile it can extract, unvalidated.
	Scrape(ctx context.Context, query string) ([]models.RawItem, error)

	// Close releases the session. It must be safe to call after a failed
	// Open and must not block indefinitely.
	Close() error
}

// BrandFilter is an optional worker capability: a store that only carries
// certain brands can skip queries it will never answer.
type BrandFilter interface {
	MatchesBrand(brand string) bool
}

// workerWantsQuery applies the optional brand affinity check.
func workerWantsQuery(w Worker, brand string) bool {
	if f, ok := w.(BrandFilter); ok {
		return f.MatchesBrand(brand)
	}
	return true
}
