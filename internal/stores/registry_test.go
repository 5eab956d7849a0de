// internal/stores/registry_test.go
package stores

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRegistryJSON = `{
  "version": "1.0",
  "lastUpdated": "2026-08-01",
  "stores": [
    {
      "name": "kicks-tlv",
      "displayName": "Kicks TLV",
      "baseUrl": "https://kicks-tlv.example.com",
      "searchUrl": "https://kicks-tlv.example.com/search?q={query}",
      "selectors": {"item": ".product-tile", "title": ".title", "price": ".price", "link": "a", "image": "img"},
      "enabled": true
    },
    {
      "name": "nb-house",
      "baseUrl": "https://nb-house.example.com",
      "searchUrl": "https://nb-house.example.com/s/{query}",
      "selectors": {"item": ".card", "title": "h3", "price": ".amount", "link": "a", "image": "img"},
      "brands": ["New Balance"],
      "enabled": true
    },
    {
      "name": "closed-store",
      "searchUrl": "https://closed.example.com/q={query}",
      "selectors": {"item": ".x", "title": ".y"},
      "enabled": false
    }
  ]
}`

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stores.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRegistry(t *testing.T) {
	reg, err := LoadRegistry(writeRegistry(t, testRegistryJSON))
	require.NoError(t, err)
	assert.Len(t, reg.Stores, 3)
	assert.Equal(t, "Kicks TLV", reg.Stores[0].Label())
	assert.Equal(t, "nb-house", reg.Stores[1].Label(), "display name falls back to the key")
}

func TestLoadRegistry_RejectsBadDefinitions(t *testing.T) {
	_, err := LoadRegistry(writeRegistry(t, `{"stores":[{"name":"x","searchUrl":"https://x.example.com/search","selectors":{"item":".a","title":".b"}}]}`))
	assert.ErrorContains(t, err, "{query}")

	_, err = LoadRegistry(writeRegistry(t, `{"stores":[{"name":"x","searchUrl":"https://x.example.com/?q={query}","selectors":{}}]}`))
	assert.ErrorContains(t, err, "selectors")

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRegistry_EnabledStores(t *testing.T) {
	reg, err := LoadRegistry(writeRegistry(t, testRegistryJSON))
	require.NoError(t, err)

	all := reg.EnabledStores(nil)
	require.Len(t, all, 2, "disabled stores are excluded")

	only := reg.EnabledStores([]string{"nb-house"})
	require.Len(t, only, 1)
	assert.Equal(t, "nb-house", only[0].Name)
}

func TestStoreDefinition_SearchURLFor(t *testing.T) {
	d := StoreDefinition{SearchURL: "https://s.example.com/search?q={query}"}
	assert.Equal(t, "https://s.example.com/search?q=New+Balance+MB.05", d.SearchURLFor("New Balance MB.05"))
}
