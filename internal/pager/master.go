package pager

import (
	"fmt"

	"github.com/klaasdb/kaasdb/internal/bytesutil"
)

// masterEntrySize is the byte size of one master-directory entry:
// (page-size:1, page-type:1, file-offset:8 LE).
const masterEntrySize = 10

// MasterPage wraps a directory page listing CollectionHeader page
// references. Master pages themselves form a linked chain (spec.md §4.4)
// once a single page's ~99-entry directory (for Small pages) fills up.
type MasterPage struct {
	page *Page
}

// NewMasterPage allocates a fresh, empty master page of the given size.
func NewMasterPage(size PageSize) *MasterPage {
	return &MasterPage{page: NewPage(size, PageTypeMaster)}
}

// WrapMasterPage wraps an already-resolved raw page as a MasterPage. The
// caller is responsible for having validated it as PageTypeMaster.
func WrapMasterPage(p *Page) *MasterPage { return &MasterPage{page: p} }

// Page returns the underlying raw page.
func (m *MasterPage) Page() *Page { return m.page }

func masterEntryOffset(i int) int { return HeaderSize + i*masterEntrySize }

func readMasterEntry(buf []byte, off int) (PageReference, bool) {
	fileOffset, _ := bytesutil.Uint64(buf[off+2 : off+10])
	if fileOffset == 0 {
		return PageReference{}, false
	}
	return PageReference{
		Size:       PageSize(buf[off]),
		Type:       PageType(buf[off+1]),
		FileOffset: fileOffset,
	}, true
}

func writeMasterEntry(buf []byte, off int, ref PageReference) {
	buf[off] = byte(ref.Size)
	buf[off+1] = byte(ref.Type)
	bytesutil.PutUint64(buf[off+2:off+10], ref.FileOffset)
}

// entryCapacity is the number of directory entries that fit in one
// master page of this size: floor((pageSize-10)/10).
func (m *MasterPage) entryCapacity() int {
	return (len(m.page.Buf) - HeaderSize) / masterEntrySize
}

// localEntries returns the references stored in this page alone (not
// following the chain), stopping at the first zero-offset entry.
func (m *MasterPage) localEntries() []PageReference {
	cap := m.entryCapacity()
	out := make([]PageReference, 0, cap)
	for i := 0; i < cap; i++ {
		ref, ok := readMasterEntry(m.page.Buf, masterEntryOffset(i))
		if !ok {
			break
		}
		out = append(out, ref)
	}
	return out
}

// Iterate walks the entire master chain starting at m, yielding every
// CollectionHeader PageReference in order. It stops at the first
// zero-offset entry in a page (the enumeration is finite and
// restartable — a fresh call walks the chain again from scratch).
func (m *MasterPage) Iterate(fb *FileBackend) ([]PageReference, error) {
	var out []PageReference
	cur := m
	for {
		local := cur.localEntries()
		out = append(out, local...)
		if len(local) < cur.entryCapacity() {
			// Hit a zero entry before filling the page: chain ends here
			// even if a next pointer happens to be set.
			return out, nil
		}
		next, ok := cur.page.NextReference()
		if !ok {
			return out, nil
		}
		nextPage, err := Resolve(fb, next)
		if err != nil {
			return nil, err
		}
		cur = WrapMasterPage(nextPage)
	}
}

// Append registers page (which must be a CollectionHeader page) in the
// master directory: it is appended at end-of-file, then a directory
// entry is written in the tail master page, spilling into a freshly
// allocated master page if the tail's directory is full.
func (m *MasterPage) Append(fb *FileBackend, page *Page) error {
	if page.Type != PageTypeCollectionHeader {
		return fmt.Errorf("pager: master directory only holds CollectionHeader pages, got %s: %w", page.Type, ErrInvalidPage)
	}
	if next, ok := m.page.NextReference(); ok {
		nextPage, err := Resolve(fb, next)
		if err != nil {
			return err
		}
		return WrapMasterPage(nextPage).Append(fb, page)
	}

	off, err := fb.Append(page.Buf)
	if err != nil {
		return err
	}
	page.FileOffset = off
	ref := PageReference{Size: page.Size, Type: page.Type, FileOffset: off}
	return m.appendEntry(fb, ref)
}

// appendEntry writes ref into the first free directory slot of m,
// spilling into a new master page if m's directory is full.
func (m *MasterPage) appendEntry(fb *FileBackend, ref PageReference) error {
	count := len(m.localEntries())
	offset := masterEntryOffset(count)
	if offset+masterEntrySize > len(m.page.Buf) {
		next := NewMasterPage(m.page.Size)
		nextOff, err := fb.Append(next.page.Buf)
		if err != nil {
			return err
		}
		next.page.FileOffset = nextOff
		m.page.SetNextOffset(nextOff)
		if err := fb.Write(m.page.FileOffset, m.page.Buf); err != nil {
			return err
		}
		return next.appendEntry(fb, ref)
	}
	writeMasterEntry(m.page.Buf, offset, ref)
	return fb.Write(m.page.FileOffset, m.page.Buf)
}
