package rules

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// TierSchema is the JSON Schema for tier-configuration documents. Kinds
// are free-form strings: unrecognised kinds load as inert blocks.
const TierSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "high":   {"$ref": "#/definitions/tier"},
    "medium": {"$ref": "#/definitions/tier"},
    "low":    {"$ref": "#/definitions/tier"}
  },
  "definitions": {
    "tier": {
      "type": ["array", "null"],
      "items": {"$ref": "#/definitions/block"}
    },
    "block": {
      "type": "object",
      "additionalProperties": false,
      "required": ["kind", "weight"],
      "properties": {
        "kind":   {"type": "string", "minLength": 1},
        "weight": {"type": "number", "minimum": 0},
        "mode":   {"type": "string", "enum": ["left", "right", "avoid", "seek", "follow"]}
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func tierSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("tiers.json", strings.NewReader(TierSchema)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = c.Compile("tiers.json")
	})
	return compiledSchema, schemaErr
}

// validateJSON checks a JSON document against TierSchema.
func validateJSON(b []byte) error {
	schema, err := tierSchema()
	if err != nil {
		return fmt.Errorf("compile tier schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("tier config does not match schema: %w", err)
	}
	return nil
}
