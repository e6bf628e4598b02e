package pager

import "errors"

// Sentinel errors surfaced by the page and file layer. Callers should use
// errors.Is against these, since every return site wraps one of them with
// fmt.Errorf("...: %w", ...) for context.
var (
	// ErrInvalidFileStructure signals a file shorter than expected or an
	// unreadable/unsupported version prefix.
	ErrInvalidFileStructure = errors.New("invalid file structure")

	// ErrInvalidPage signals a page that fails structural validation:
	// truncated buffer, bad size/type discriminant, or a type mismatch
	// against the expected chain.
	ErrInvalidPage = errors.New("invalid page")

	// ErrInvalidDocument signals a referenced document whose declared
	// length does not match the bytes actually read.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidDocumentReference signals a slot offset outside its
	// containing page.
	ErrInvalidDocumentReference = errors.New("invalid document reference")
)
