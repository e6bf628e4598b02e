package pager

import (
	"fmt"
	"path/filepath"
	"testing"
)

func TestMasterPage_AppendThenIterate(t *testing.T) {
	fb, err := OpenFileBackend(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer fb.Close()

	master := NewMasterPage(PageSizeSmall)
	masterOff, err := fb.Append(master.page.Buf)
	if err != nil {
		t.Fatalf("append master: %v", err)
	}
	master.page.FileOffset = masterOff

	var wantOffsets []uint64
	for i := 0; i < 5; i++ {
		h, err := NewCollectionHeaderPage(PageSizeSmall, fmt.Sprintf("coll%d", i))
		if err != nil {
			t.Fatalf("new header: %v", err)
		}
		if err := master.Append(fb, h.page); err != nil {
			t.Fatalf("master append %d: %v", i, err)
		}
		wantOffsets = append(wantOffsets, h.page.FileOffset)
	}

	refs, err := master.Iterate(fb)
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if len(refs) != len(wantOffsets) {
		t.Fatalf("got %d refs, want %d", len(refs), len(wantOffsets))
	}
	for i, ref := range refs {
		if ref.FileOffset != wantOffsets[i] {
			t.Fatalf("ref %d offset = %d, want %d", i, ref.FileOffset, wantOffsets[i])
		}
		if ref.Type != PageTypeCollectionHeader {
			t.Fatalf("ref %d type = %s, want CollectionHeader", i, ref.Type)
		}
	}
}

func TestMasterPage_SpillsAcrossMultiplePages(t *testing.T) {
	fb, err := OpenFileBackend(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer fb.Close()

	master := NewMasterPage(PageSizeSmall)
	off, err := fb.Append(master.page.Buf)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	master.page.FileOffset = off

	capacity := master.entryCapacity() // 99 for Small pages
	n := capacity + 10                 // force at least one spill
	var want []uint64
	for i := 0; i < n; i++ {
		h, err := NewCollectionHeaderPage(PageSizeSmall, fmt.Sprintf("c%d", i))
		if err != nil {
			t.Fatalf("new header %d: %v", i, err)
		}
		if err := master.Append(fb, h.page); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		want = append(want, h.page.FileOffset)
	}

	refs, err := master.Iterate(fb)
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if len(refs) != n {
		t.Fatalf("got %d entries, want %d", len(refs), n)
	}
	for i := range want {
		if refs[i].FileOffset != want[i] {
			t.Fatalf("entry %d offset mismatch: got %d want %d", i, refs[i].FileOffset, want[i])
		}
	}
	if _, ok := master.page.NextReference(); !ok {
		t.Fatal("expected the original master page to have spilled into a next page")
	}
}

func TestMasterPage_RejectsNonHeaderPage(t *testing.T) {
	fb, err := OpenFileBackend(filepath.Join(t.TempDir(), "db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer fb.Close()

	master := NewMasterPage(PageSizeSmall)
	off, err := fb.Append(master.page.Buf)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	master.page.FileOffset = off

	body := NewCollectionBodyPage(PageSizeSmall)
	if err := master.Append(fb, body.page); err == nil {
		t.Fatal("expected error appending a non-header page to the master directory")
	}
}
