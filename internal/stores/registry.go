// internal/stores/registry.go

// Package stores holds the storefront registry: the declarative catalog of
// sites the worker fleet knows how to search.
package stores

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Registry is the parsed storefront catalog file.
type Registry struct {
	Version     string            `json:"version"`
	LastUpdated string            `json:"lastUpdated"`
	Stores      []StoreDefinition `json:"stores"`
}

// StoreDefinition declares one storefront: where to search and how to pull
// listing tiles out of the result markup.
type StoreDefinition struct {
	Name        string    `json:"name"`        // stable store key
	DisplayName string    `json:"displayName"` // human-facing label
	BaseURL     string    `json:"baseUrl"`     // origin used to resolve relative links
	SearchURL   string    `json:"searchUrl"`   // template containing {query}
	Selectors   Selectors `json:"selectors"`
	Brands      []string  `json:"brands,omitempty"` // brand affinity, empty means all
	Enabled     bool      `json:"enabled"`
}

// Selectors are the CSS selectors for one storefront's listing markup.
type Selectors struct {
	Item     string `json:"item"`     // one listing tile
	Title    string `json:"title"`    // within the tile
	Price    string `json:"price"`    // within the tile
	Link     string `json:"link"`     // anchor carrying the product href
	Image    string `json:"image"`    // img carrying the product photo
	Sizes    string `json:"sizes"`    // optional, one element per size label
	NextPage string `json:"nextPage"` // optional pagination anchor
}

// LoadRegistry reads and validates the catalog file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read store registry: %w", err)
	}
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse store registry: %w", err)
	}
	for i := range reg.Stores {
		if err := reg.Stores[i].validate(); err != nil {
			return nil, fmt.Errorf("store %q: %w", reg.Stores[i].Name, err)
		}
	}
	return &reg, nil
}

func (d StoreDefinition) validate() error {
	if d.Name == "" {
		return fmt.Errorf("missing name")
	}
	if !strings.Contains(d.SearchURL, "{query}") {
		return fmt.Errorf("searchUrl missing {query} placeholder")
	}
	if d.Selectors.Item == "" || d.Selectors.Title == "" {
		return fmt.Errorf("item and title selectors are required")
	}
	return nil
}

// SearchURLFor expands the search template for a query string.
func (d StoreDefinition) SearchURLFor(query string) string {
	return strings.ReplaceAll(d.SearchURL, "{query}", url.QueryEscape(query))
}

// Label returns the display name, falling back to the store key.
func (d StoreDefinition) Label() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.Name
}

// Enabled filters the registry down to enabled stores, optionally
// restricted to an allowlist of store keys.
func (r *Registry) EnabledStores(allowlist []string) []StoreDefinition {
	allowed := make(map[string]bool, len(allowlist))
	for _, name := range allowlist {
		allowed[strings.TrimSpace(name)] = true
	}

	var out []StoreDefinition
	for _, s := range r.Stores {
		if !s.Enabled {
			continue
		}
		if len(allowlist) > 0 && !allowed[s.Name] {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Labels maps store keys to display names for result formatting.
func (r *Registry) Labels() map[string]string {
	labels := make(map[string]string, len(r.Stores))
	for _, s := range r.Stores {
		labels[s.Name] = s.Label()
	}
	return labels
}
