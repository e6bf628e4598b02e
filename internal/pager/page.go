// Package pager implements the on-disk page format: the fixed-size,
// typed, linked pages that back a kaasdb database file — the master
// directory, collection header pages, and collection body pages — plus
// the file backend they are read from and written to.
//
// The format is bit-exact: byte 0 of every page is a PageSize
// discriminant, byte 1 a PageType discriminant, bytes [2..10) the file
// offset of the next page in this page's chain (zero if none), and
// bytes [10..) a type-specific body. Pages are never freed, moved, or
// shrunk once allocated; they are appended at end-of-file and linked by
// rewriting the previous page's next-offset field.
package pager

import (
	"fmt"

	"github.com/klaasdb/kaasdb/internal/bytesutil"
)

// HeaderSize is the size in bytes of the common page header present at
// the start of every page.
const HeaderSize = 10

// PageSize enumerates the supported page byte-lengths. PageSizeNone is a
// sentinel for decoding failures and must never be written to disk.
type PageSize uint8

const (
	PageSizeNone   PageSize = 0
	PageSizeSmall  PageSize = 1 // 1000 bytes
	PageSizeMedium PageSize = 2 // 1,000,000 bytes — reserved, unused

	smallByteLength  = 1000
	mediumByteLength = 1_000_000
)

// ByteLength returns the number of bytes a page of this size occupies on
// disk, or 0 for PageSizeNone or any unrecognized value.
func (s PageSize) ByteLength() int {
	switch s {
	case PageSizeSmall:
		return smallByteLength
	case PageSizeMedium:
		return mediumByteLength
	default:
		return 0
	}
}

// Valid reports whether s is a persistable page size.
func (s PageSize) Valid() bool {
	return s == PageSizeSmall || s == PageSizeMedium
}

func (s PageSize) String() string {
	switch s {
	case PageSizeSmall:
		return "Small"
	case PageSizeMedium:
		return "Medium"
	default:
		return "None"
	}
}

// PageType enumerates the kinds of pages that can appear in a kaasdb
// file. Unknown and Index are reserved; readers must reject them.
type PageType uint8

const (
	PageTypeUnknown          PageType = 0
	PageTypeMaster           PageType = 1
	PageTypeCollectionHeader PageType = 2
	PageTypeCollectionBody   PageType = 3
	PageTypeIndex            PageType = 4
)

// Readable reports whether readers are allowed to resolve a page of this
// type. Unknown and Index are reserved and always rejected.
func (t PageType) Readable() bool {
	switch t {
	case PageTypeMaster, PageTypeCollectionHeader, PageTypeCollectionBody:
		return true
	default:
		return false
	}
}

func (t PageType) String() string {
	switch t {
	case PageTypeMaster:
		return "Master"
	case PageTypeCollectionHeader:
		return "CollectionHeader"
	case PageTypeCollectionBody:
		return "CollectionBody"
	case PageTypeIndex:
		return "Index"
	default:
		return "Unknown"
	}
}

// PageReference is a value, not an owner: the referenced bytes live in
// the file, addressed by FileOffset. Resolve reads them on demand.
type PageReference struct {
	Size       PageSize
	Type       PageType
	FileOffset uint64
}

// Page is the common header shared by every page variant, plus its raw
// buffer. Concrete variants (MasterPage, CollectionHeaderPage,
// CollectionBodyPage) wrap a *Page and interpret its body.
type Page struct {
	Size       PageSize
	Type       PageType
	FileOffset uint64 // offset of this page in the database file; 0 until known
	Buf        []byte
}

// NewPage allocates a zeroed page buffer of the given size and type,
// with the header already written. FileOffset is left at 0 until the
// page is appended to the file.
func NewPage(size PageSize, typ PageType) *Page {
	buf := make([]byte, size.ByteLength())
	buf[0] = byte(size)
	buf[1] = byte(typ)
	return &Page{Size: size, Type: typ, Buf: buf}
}

// NextOffset reads the chain pointer at bytes [2..10).
func (p *Page) NextOffset() uint64 {
	v, _ := bytesutil.Uint64(p.Buf[2:10])
	return v
}

// SetNextOffset writes the chain pointer at bytes [2..10).
func (p *Page) SetNextOffset(off uint64) {
	bytesutil.PutUint64(p.Buf[2:10], off)
}

// NextReference returns the PageReference for this page's next pointer,
// carrying this page's own type (spec invariant 3: a chain's next
// pointer always leads to a page of the same type, except a
// CollectionHeader's next pointer leads to a CollectionBody). It
// reports ok=false if the next pointer is zero (no next page).
func (p *Page) NextReference() (PageReference, bool) {
	off := p.NextOffset()
	if off == 0 {
		return PageReference{}, false
	}
	nextType := p.Type
	if p.Type == PageTypeCollectionHeader {
		nextType = PageTypeCollectionBody
	}
	return PageReference{Size: p.Size, Type: nextType, FileOffset: off}, true
}

// Validate checks structural well-formedness: the buffer must be at
// least HeaderSize bytes, byte 0 must be a valid PageSize whose byte
// length equals len(Buf), byte 1 must equal expected, and expected
// itself must be a readable type.
func (p *Page) Validate(expected PageType) error {
	if len(p.Buf) < HeaderSize {
		return fmt.Errorf("pager: page shorter than header (%d bytes): %w", len(p.Buf), ErrInvalidPage)
	}
	size := PageSize(p.Buf[0])
	if !size.Valid() {
		return fmt.Errorf("pager: unrecognized page size byte %d: %w", p.Buf[0], ErrInvalidPage)
	}
	if size.ByteLength() != len(p.Buf) {
		return fmt.Errorf("pager: page declares size %s (%d bytes) but buffer is %d bytes: %w",
			size, size.ByteLength(), len(p.Buf), ErrInvalidPage)
	}
	if !expected.Readable() {
		return fmt.Errorf("pager: expected type %s is not readable: %w", expected, ErrInvalidPage)
	}
	typ := PageType(p.Buf[1])
	if typ != expected {
		return fmt.Errorf("pager: page declares type %s, expected %s: %w", typ, expected, ErrInvalidPage)
	}
	p.Size = size
	p.Type = typ
	return nil
}

// Resolve reads a page of the size and type named by ref from fb, then
// validates it. It fails with ErrInvalidPage on any structural mismatch
// or if ref names an unreadable type (Unknown, Index).
func Resolve(fb *FileBackend, ref PageReference) (*Page, error) {
	if !ref.Type.Readable() {
		return nil, fmt.Errorf("pager: cannot resolve unreadable type %s: %w", ref.Type, ErrInvalidPage)
	}
	n := ref.Size.ByteLength()
	if n == 0 {
		return nil, fmt.Errorf("pager: cannot resolve page of size %s: %w", ref.Size, ErrInvalidPage)
	}
	buf, err := fb.Read(ref.FileOffset, n)
	if err != nil {
		return nil, err
	}
	p := &Page{FileOffset: ref.FileOffset, Buf: buf}
	if err := p.Validate(ref.Type); err != nil {
		return nil, err
	}
	return p, nil
}
