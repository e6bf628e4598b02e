// Package docfmt implements the external document codec: the wire
// representation a caller's fields are marshaled into before pager.Append
// stores them, and the match predicate used by Collection.Update/Remove.
package docfmt

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/klaasdb/kaasdb/internal/bytesutil"
)

// Document holds the on-disk payload for one stored value: a 4-byte
// little-endian total length followed by a JSON body. Bytes is exactly
// what pager.Append/pager.Update expect to receive.
type Document struct {
	Bytes []byte
}

// NewDocument marshals fields into a Document. Field values pass through
// normalizeForJSON first, so a uuid.UUID value is stored in its canonical
// string form.
func NewDocument(fields map[string]any) (*Document, error) {
	body, err := marshalJSON(fields)
	if err != nil {
		return nil, fmt.Errorf("docfmt: marshal fields: %w", err)
	}
	buf := make([]byte, 4+len(body))
	bytesutil.PutUint32(buf, uint32(len(buf)))
	copy(buf[4:], body)
	return &Document{Bytes: buf}, nil
}

// NewDocumentWithID mints a fresh document identifier, stamps it onto a
// copy of fields under "_id", and marshals the result. It is opt-in: a
// caller only gets an "_id" field by calling this instead of NewDocument.
func NewDocumentWithID(fields map[string]any) (*Document, uuid.UUID, error) {
	id := NewDocumentID()
	stamped := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		stamped[k] = v
	}
	stamped["_id"] = id
	doc, err := NewDocument(stamped)
	if err != nil {
		return nil, uuid.UUID{}, err
	}
	return doc, id, nil
}

// Parse reinterprets raw bytes read back from the pager as a Document,
// validating the embedded length prefix against the buffer it came in.
func Parse(buf []byte) (*Document, error) {
	if len(buf) < 4 {
		return nil, fmt.Errorf("docfmt: document shorter than length prefix")
	}
	total, err := bytesutil.Uint32(buf)
	if err != nil {
		return nil, fmt.Errorf("docfmt: read length prefix: %w", err)
	}
	if int(total) != len(buf) {
		return nil, fmt.Errorf("docfmt: length prefix %d does not match buffer length %d", total, len(buf))
	}
	return &Document{Bytes: buf}, nil
}

// fields decodes the JSON body into a generic field map.
func (d *Document) fields() (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(d.Bytes[4:], &m); err != nil {
		return nil, fmt.Errorf("docfmt: decode body: %w", err)
	}
	return m, nil
}

// Field looks up a single field by key. ok is false if the document body
// does not decode to an object or the key is absent.
func (d *Document) Field(key string) (value any, ok bool) {
	m, err := d.fields()
	if err != nil {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

// Matches reports whether d satisfies match: for every key in match's
// field map, d must carry the same key and its value must encode to the
// same JSON bytes as match's value for that key. Keys absent from d never
// match, even if match's value for that key is JSON null.
func (d *Document) Matches(match *Document) bool {
	matchFields, err := match.fields()
	if err != nil {
		return false
	}
	if len(matchFields) == 0 {
		return true
	}
	candidateFields, err := d.fields()
	if err != nil {
		return false
	}
	for key, wantValue := range matchFields {
		gotValue, present := candidateFields[key]
		if !present {
			return false
		}
		wantBytes, err := json.Marshal(wantValue)
		if err != nil {
			return false
		}
		gotBytes, err := json.Marshal(gotValue)
		if err != nil {
			return false
		}
		if !bytes.Equal(wantBytes, gotBytes) {
			return false
		}
	}
	return true
}

// ID returns the document's "_id" field as a uuid.UUID, parsed back from
// its on-disk string form. ok is false if the field is absent or not a
// valid UUID string.
func (d *Document) ID() (id uuid.UUID, ok bool) {
	v, present := d.Field("_id")
	if !present {
		return uuid.UUID{}, false
	}
	s, isString := v.(string)
	if !isString {
		return uuid.UUID{}, false
	}
	id, err := ParseUUID(s)
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}

// IDBytes returns the document's "_id" field as its 16-byte
// representation, suitable for binary comparison or use as a map key.
func (d *Document) IDBytes() ([]byte, bool) {
	id, ok := d.ID()
	if !ok {
		return nil, false
	}
	return UUIDToBytes(id), true
}

// ByteLength returns the size of the document's on-disk encoding.
func (d *Document) ByteLength() int {
	return len(d.Bytes)
}
