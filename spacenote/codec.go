// Package spacenote wires the field, filter, query and storage pieces
// into the application services: spaces, users, notes, comments and
// attachments. Services cache space and user state in memory; a schema
// or membership change is visible only after the explicit refresh call
// returns.
package spacenote

import (
	"encoding/json"
	"fmt"
)

// Entities cross the storage boundary as JSON-compatible primitives. The
// round-trip below is the single codec for every backend: structs
// serialize through their json tags, and the struct "id" field maps to
// the document "_id" key. After a round-trip, numeric field values come
// back as float64 and timestamps as RFC 3339 strings; readers must not
// assume the originally written Go types.

// toDoc converts an entity struct to a storage document.
func toDoc(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	if id, ok := doc["id"]; ok {
		delete(doc, "id")
		doc["_id"] = id
	}
	return doc, nil
}

// fromDoc decodes a storage document into an entity struct.
func fromDoc(doc map[string]any, out any) error {
	mapped := make(map[string]any, len(doc))
	for key, value := range doc {
		if key == "_id" {
			key = "id"
		}
		mapped[key] = value
	}
	raw, err := json.Marshal(mapped)
	if err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}
