package docfmt

import (
	"github.com/google/uuid"
)

// ParseUUID parses a UUID string into uuid.UUID.
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// UUIDToBytes returns the 16-byte representation of a uuid.UUID.
func UUIDToBytes(u uuid.UUID) []byte {
	return u[:]
}

// NewDocumentID returns a fresh random identifier suitable for stamping
// onto a document's "_id" field.
func NewDocumentID() uuid.UUID {
	return uuid.New()
}
