package pager

import (
	"fmt"

	"github.com/klaasdb/kaasdb/internal/bytesutil"
)

// slotEntrySize is the byte size of one document slot: an 8-byte
// little-endian file offset. Zero means empty/removed.
const slotEntrySize = 8

// DocumentReference locates a document payload and the slot that points
// to it, so a mutation can resolve the existing document and, on
// update/remove, rewrite the slot in its containing page.
type DocumentReference struct {
	DocumentOffset uint64 // file offset of the document payload
	PageOffset     uint64 // file offset of the page containing the slot
	PageSize       PageSize
	PageType       PageType // PageTypeCollectionHeader or PageTypeCollectionBody
	SlotOffset     int      // byte offset of the slot within its page
}

// CollectionHeaderPage is a collection's root page: it carries the
// collection name and the first node of the document-slot chain.
type CollectionHeaderPage struct {
	page *Page
	name string
}

// NewCollectionHeaderPage allocates a fresh header page for a collection
// named name. name must encode to at most 255 UTF-8 bytes.
func NewCollectionHeaderPage(size PageSize, name string) (*CollectionHeaderPage, error) {
	p := NewPage(size, PageTypeCollectionHeader)
	if err := bytesutil.PutString(p.Buf[HeaderSize:], name); err != nil {
		return nil, fmt.Errorf("pager: collection name: %w", err)
	}
	return &CollectionHeaderPage{page: p, name: name}, nil
}

// ResolveCollectionHeader reads and validates a CollectionHeader page
// from fb at ref, decoding its name.
func ResolveCollectionHeader(fb *FileBackend, ref PageReference) (*CollectionHeaderPage, error) {
	p, err := Resolve(fb, ref)
	if err != nil {
		return nil, err
	}
	name, _, err := bytesutil.String(p.Buf[HeaderSize:])
	if err != nil {
		return nil, fmt.Errorf("pager: decode collection name: %w: %w", err, ErrInvalidPage)
	}
	return &CollectionHeaderPage{page: p, name: name}, nil
}

// Page returns the underlying raw page.
func (h *CollectionHeaderPage) Page() *Page { return h.page }

// Name returns the collection's name.
func (h *CollectionHeaderPage) Name() string { return h.name }

func (h *CollectionHeaderPage) firstEntryOffset() int {
	return HeaderSize + 1 + len(h.name)
}

// CollectionBodyPage is a continuation node in a collection's
// document-slot chain.
type CollectionBodyPage struct {
	page *Page
}

// NewCollectionBodyPage allocates a fresh, empty body page.
func NewCollectionBodyPage(size PageSize) *CollectionBodyPage {
	return &CollectionBodyPage{page: NewPage(size, PageTypeCollectionBody)}
}

// ResolveCollectionBody reads and validates a CollectionBody page from
// fb at ref.
func ResolveCollectionBody(fb *FileBackend, ref PageReference) (*CollectionBodyPage, error) {
	p, err := Resolve(fb, ref)
	if err != nil {
		return nil, err
	}
	return &CollectionBodyPage{page: p}, nil
}

// Page returns the underlying raw page.
func (b *CollectionBodyPage) Page() *Page { return b.page }

func (b *CollectionBodyPage) firstEntryOffset() int { return HeaderSize }

// slotPage is implemented by both collection page variants so the
// append/iterate algorithm (identical past the first-entry offset) is
// written once.
type slotPage interface {
	Page() *Page
	firstEntryOffset() int
}

func slotCapacity(sp slotPage) int {
	return (len(sp.Page().Buf) - sp.firstEntryOffset()) / slotEntrySize
}

// localSlots returns the non-zero document offsets in this page alone,
// stopping at the first zero slot (spec.md §4.5/§9: iteration halts at
// the first zero slot rather than scanning to end of page).
func localSlots(sp slotPage) []uint64 {
	cap := slotCapacity(sp)
	buf := sp.Page().Buf
	first := sp.firstEntryOffset()
	out := make([]uint64, 0, cap)
	for i := 0; i < cap; i++ {
		off := first + i*slotEntrySize
		v, _ := bytesutil.Uint64(buf[off : off+slotEntrySize])
		if v == 0 {
			break
		}
		out = append(out, v)
	}
	return out
}

// Iterate walks sp and every linked CollectionBody page after it,
// yielding a DocumentReference per non-zero slot. Enumeration stops at
// the first zero slot encountered in any page in the chain.
func Iterate(fb *FileBackend, sp slotPage) ([]DocumentReference, error) {
	var out []DocumentReference
	first := sp.firstEntryOffset()
	for {
		p := sp.Page()
		slots := localSlots(sp)
		for i, docOff := range slots {
			out = append(out, DocumentReference{
				DocumentOffset: docOff,
				PageOffset:     p.FileOffset,
				PageSize:       p.Size,
				PageType:       p.Type,
				SlotOffset:     first + i*slotEntrySize,
			})
		}
		if len(slots) < slotCapacity(sp) {
			return out, nil
		}
		next, ok := p.NextReference()
		if !ok {
			return out, nil
		}
		nextPage, err := Resolve(fb, next)
		if err != nil {
			return nil, err
		}
		body := &CollectionBodyPage{page: nextPage}
		sp = body
		first = body.firstEntryOffset()
	}
}

// Append appends doc (already length-prefixed per spec.md §3) to the
// file tail and records its offset in the first available slot reached
// by walking sp's chain, spilling into a new CollectionBody page when
// the tail page's slot array is full.
func Append(fb *FileBackend, sp slotPage, doc []byte) (DocumentReference, error) {
	tail, err := tailBodyOrSelf(fb, sp)
	if err != nil {
		return DocumentReference{}, err
	}
	docOffset, err := fb.Append(doc)
	if err != nil {
		return DocumentReference{}, err
	}
	return appendSlot(fb, tail, docOffset)
}

// tailBodyOrSelf follows sp's next-page chain (only ever CollectionBody
// pages past the head) to the last page, without regard to how full its
// slot array is — step 1 of spec.md §4.5's append algorithm only cares
// whether a next page exists.
func tailBodyOrSelf(fb *FileBackend, sp slotPage) (slotPage, error) {
	for {
		next, ok := sp.Page().NextReference()
		if !ok {
			return sp, nil
		}
		nextPage, err := Resolve(fb, next)
		if err != nil {
			return nil, err
		}
		sp = &CollectionBodyPage{page: nextPage}
	}
}

// appendSlot writes docOffset into the first free slot of sp, spilling
// into a newly allocated CollectionBody page (linked from sp) if sp's
// slot array is full.
func appendSlot(fb *FileBackend, sp slotPage, docOffset uint64) (DocumentReference, error) {
	count := len(localSlots(sp))
	offset := sp.firstEntryOffset() + count*slotEntrySize
	p := sp.Page()
	if offset+slotEntrySize > len(p.Buf) {
		next := NewCollectionBodyPage(p.Size)
		nextOff, err := fb.Append(next.page.Buf)
		if err != nil {
			return DocumentReference{}, err
		}
		next.page.FileOffset = nextOff
		p.SetNextOffset(nextOff)
		if err := fb.Write(p.FileOffset, p.Buf); err != nil {
			return DocumentReference{}, err
		}
		return appendSlot(fb, next, docOffset)
	}
	bytesutil.PutUint64(p.Buf[offset:offset+slotEntrySize], docOffset)
	if err := fb.Write(p.FileOffset, p.Buf); err != nil {
		return DocumentReference{}, err
	}
	return DocumentReference{
		DocumentOffset: docOffset,
		PageOffset:     p.FileOffset,
		PageSize:       p.Size,
		PageType:       p.Type,
		SlotOffset:     offset,
	}, nil
}

// validateSlotOffset checks ref.SlotOffset ∈ (0, page_size), the
// precondition spec.md §4.5 gives for Remove (and, by the same
// reasoning, Update).
func validateSlotOffset(ref DocumentReference) error {
	pageSize := ref.PageSize.ByteLength()
	if ref.SlotOffset <= 0 || ref.SlotOffset >= pageSize {
		return fmt.Errorf("pager: slot offset %d outside (0, %d): %w", ref.SlotOffset, pageSize, ErrInvalidDocumentReference)
	}
	return nil
}

// Remove zeroes ref's slot and rewrites its containing page. The
// document bytes themselves remain on disk as dead space (spec.md §3
// Lifecycle — no compaction/GC).
func Remove(fb *FileBackend, ref DocumentReference) error {
	if err := validateSlotOffset(ref); err != nil {
		return err
	}
	buf, err := fb.Read(ref.PageOffset, ref.PageSize.ByteLength())
	if err != nil {
		return err
	}
	for i := 0; i < slotEntrySize; i++ {
		buf[ref.SlotOffset+i] = 0
	}
	return fb.Write(ref.PageOffset, buf)
}

// Update resolves ref's existing document and either overwrites it in
// place (newDoc no longer than the existing document) or appends newDoc
// at end-of-file and rewrites ref's slot to point at it. It returns the
// DocumentReference valid after the update.
func Update(fb *FileBackend, ref DocumentReference, newDoc []byte) (DocumentReference, error) {
	if err := validateSlotOffset(ref); err != nil {
		return DocumentReference{}, err
	}
	existing, err := ReadDocument(fb, ref.DocumentOffset)
	if err != nil {
		return DocumentReference{}, fmt.Errorf("pager: resolve existing document: %w: %w", err, ErrInvalidDocumentReference)
	}
	if len(newDoc) <= len(existing) {
		if err := fb.Write(ref.DocumentOffset, newDoc); err != nil {
			return DocumentReference{}, err
		}
		return ref, nil
	}

	newOffset, err := fb.Append(newDoc)
	if err != nil {
		return DocumentReference{}, err
	}
	buf, err := fb.Read(ref.PageOffset, ref.PageSize.ByteLength())
	if err != nil {
		return DocumentReference{}, err
	}
	bytesutil.PutUint64(buf[ref.SlotOffset:ref.SlotOffset+slotEntrySize], newOffset)
	if err := fb.Write(ref.PageOffset, buf); err != nil {
		return DocumentReference{}, err
	}
	ref.DocumentOffset = newOffset
	return ref, nil
}

// ReadDocument reads the length-prefixed document payload at offset:
// first its 4-byte little-endian total length, then the remaining
// length-4 bytes. It fails with ErrInvalidDocument if the declared
// length is shorter than the prefix itself or the file ends before the
// declared length.
func ReadDocument(fb *FileBackend, offset uint64) ([]byte, error) {
	head, err := fb.Read(offset, 4)
	if err != nil {
		return nil, err
	}
	total, _ := bytesutil.Uint32(head)
	if total < 4 {
		return nil, fmt.Errorf("pager: document at %d declares length %d: %w", offset, total, ErrInvalidDocument)
	}
	if total == 4 {
		return head, nil
	}
	rest, err := fb.Read(offset+4, int(total)-4)
	if err != nil {
		return nil, fmt.Errorf("pager: read document body at %d: %w: %w", offset, err, ErrInvalidDocument)
	}
	return append(head, rest...), nil
}
