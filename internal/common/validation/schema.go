// Package validation checks external payloads against JSON Schemas before
// they are mapped into domain types.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// directoryRecordSchema describes the shape a raw directory record must have
// before it is mapped to a candidate venue. Only the identifying fields are
// required; every other field is optional and may be absent or null.
const directoryRecordSchema = `{
	"type": "object",
	"properties": {
		"id":             {"type": "string"},
		"name":           {"type": "string", "minLength": 1},
		"brewery_type":   {"type": ["string", "null"]},
		"address_1":      {"type": ["string", "null"]},
		"address_2":      {"type": ["string", "null"]},
		"address_3":      {"type": ["string", "null"]},
		"city":           {"type": ["string", "null"]},
		"state":          {"type": ["string", "null"]},
		"state_province": {"type": ["string", "null"]},
		"postal_code":    {"type": ["string", "null"]},
		"country":        {"type": ["string", "null"]},
		"phone":          {"type": ["string", "null"]},
		"website_url":    {"type": ["string", "null"]},
		"latitude":       {"type": ["string", "number", "null"]},
		"longitude":      {"type": ["string", "number", "null"]}
	},
	"required": ["id", "name"]
}`

var directorySchemaLoader = gojsonschema.NewStringLoader(directoryRecordSchema)

// ValidateDirectoryRecord validates a single raw directory record.
// Returns a descriptive error listing every violated constraint.
func ValidateDirectoryRecord(raw []byte) error {
	documentLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(directorySchemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("invalid directory record: %s", strings.Join(msgs, "; "))
}
