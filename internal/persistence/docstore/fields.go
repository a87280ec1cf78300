package docstore

import (
	"encoding/json"
	"fmt"
)

// MergeFields overlays the top level fields of partial onto existing and
// returns the merged JSON object.
func MergeFields(existing, partial []byte) ([]byte, error) {
	base := map[string]json.RawMessage{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &base); err != nil {
			return nil, fmt.Errorf("docstore: decode stored document: %w", err)
		}
	}
	var patch map[string]json.RawMessage
	if err := json.Unmarshal(partial, &patch); err != nil {
		return nil, fmt.Errorf("docstore: decode partial document: %w", err)
	}
	for key, value := range patch {
		base[key] = value
	}
	return json.Marshal(base)
}

// FieldEquals reports whether the top level string field of data equals value.
func FieldEquals(data []byte, field, value string) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return false
	}
	raw, ok := fields[field]
	if !ok {
		return false
	}
	var actual string
	if err := json.Unmarshal(raw, &actual); err != nil {
		return false
	}
	return actual == value
}
