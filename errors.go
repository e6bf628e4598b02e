package kaasdb

import (
	"errors"
	"fmt"

	"github.com/klaasdb/kaasdb/internal/pager"
)

// The five error kinds a caller can distinguish with errors.Is. The
// pager package detects InvalidFileStructure/InvalidPage/InvalidDocument/
// InvalidDocumentReference at the point a structural check fails; kaasdb
// wraps them so callers never need to import internal/pager directly.
var (
	ErrNotAccessible            = errors.New("kaasdb: database file not accessible")
	ErrInvalidFileStructure     = pager.ErrInvalidFileStructure
	ErrInvalidPage              = pager.ErrInvalidPage
	ErrInvalidDocument          = pager.ErrInvalidDocument
	ErrInvalidDocumentReference = pager.ErrInvalidDocumentReference
)

// ErrCollectionNotFound is returned by Database.Collection when no
// collection with the given name has been created.
var ErrCollectionNotFound = errors.New("kaasdb: collection not found")

func notAccessible(path string, err error) error {
	return fmt.Errorf("kaasdb: %s: %w: %w", path, err, ErrNotAccessible)
}
