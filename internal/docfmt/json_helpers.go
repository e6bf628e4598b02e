package docfmt

import (
	"encoding/json"

	"github.com/google/uuid"
)

// normalizeForJSON converts document field values to JSON-friendly
// representations before marshaling, so a uuid.UUID written by a caller
// (e.g. via NewDocumentID) round-trips as its canonical string form.
func normalizeForJSON(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case uuid.UUID:
		return x.String()
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, vv := range x {
			m[k] = normalizeForJSON(vv)
		}
		return m
	case []any:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = normalizeForJSON(vv)
		}
		return out
	default:
		return v
	}
}

// marshalJSON marshals v after converting document-field types to
// JSON-friendly representations.
func marshalJSON(v any) ([]byte, error) {
	return json.Marshal(normalizeForJSON(v))
}
