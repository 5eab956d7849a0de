// internal/sink/schema.go
package sink

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// runRecordSchema is the contract for the persisted run record. Consumers
// parse this file without access to the Go types, so the shape is enforced
// on every write.
const runRecordSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["updatedAt", "isRunning", "searchTerm", "appliedPatterns", "results"],
  "properties": {
    "updatedAt": {"type": "string"},
    "isRunning": {"type": "boolean"},
    "searchTerm": {"type": "string"},
    "sizeFilter": {"type": "string"},
    "appliedPatterns": {"type": "array", "items": {"type": "string"}},
    "results": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "title", "price", "productUrl", "store", "badges"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "title": {"type": "string"},
          "price": {"type": "number", "exclusiveMinimum": 0},
          "currency": {"type": "string"},
          "imageUrl": {"type": "string"},
          "productUrl": {"type": "string", "pattern": "^https?://"},
          "store": {"type": "string", "minLength": 1},
          "storeLabel": {"type": "string"},
          "sizes": {"type": "array", "items": {"type": "string"}},
          "badges": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "workers": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["store", "status"],
        "properties": {
          "store": {"type": "string"},
          "status": {"type": "string", "enum": ["success", "timeout", "error"]},
          "itemCount": {"type": "integer", "minimum": 0}
        }
      }
    }
  }
}`

var compiledSchema = gojsonschema.NewStringLoader(runRecordSchema)

// ValidateRunRecord checks serialized record bytes against the schema.
func ValidateRunRecord(data []byte) error {
	result, err := gojsonschema.Validate(compiledSchema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var problems []string
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return fmt.Errorf("invalid run record: %s", strings.Join(problems, "; "))
}
