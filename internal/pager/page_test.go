package pager

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestPage_HeaderRoundTrip(t *testing.T) {
	p := NewPage(PageSizeSmall, PageTypeCollectionBody)
	p.SetNextOffset(123456)
	if got := p.NextOffset(); got != 123456 {
		t.Fatalf("got next offset %d, want 123456", got)
	}
	if p.Buf[0] != byte(PageSizeSmall) || p.Buf[1] != byte(PageTypeCollectionBody) {
		t.Fatalf("header bytes not written: %v", p.Buf[:2])
	}
}

func TestPage_Validate_RejectsShortBuffer(t *testing.T) {
	p := &Page{Buf: make([]byte, 4)}
	if err := p.Validate(PageTypeMaster); !errors.Is(err, ErrInvalidPage) {
		t.Fatalf("expected ErrInvalidPage, got %v", err)
	}
}

func TestPage_Validate_RejectsBadSizeByte(t *testing.T) {
	p := NewPage(PageSizeSmall, PageTypeMaster)
	p.Buf[0] = 9
	if err := p.Validate(PageTypeMaster); !errors.Is(err, ErrInvalidPage) {
		t.Fatalf("expected ErrInvalidPage, got %v", err)
	}
}

func TestPage_Validate_RejectsLengthMismatch(t *testing.T) {
	p := NewPage(PageSizeSmall, PageTypeMaster)
	p.Buf = p.Buf[:500]
	if err := p.Validate(PageTypeMaster); !errors.Is(err, ErrInvalidPage) {
		t.Fatalf("expected ErrInvalidPage, got %v", err)
	}
}

func TestPage_Validate_RejectsTypeMismatch(t *testing.T) {
	p := NewPage(PageSizeSmall, PageTypeCollectionHeader)
	if err := p.Validate(PageTypeMaster); !errors.Is(err, ErrInvalidPage) {
		t.Fatalf("expected ErrInvalidPage, got %v", err)
	}
}

func TestPage_NextReference_HeaderPointsToBody(t *testing.T) {
	p := NewPage(PageSizeSmall, PageTypeCollectionHeader)
	p.SetNextOffset(2000)
	ref, ok := p.NextReference()
	if !ok {
		t.Fatal("expected a next reference")
	}
	if ref.Type != PageTypeCollectionBody {
		t.Fatalf("got type %s, want CollectionBody", ref.Type)
	}
}

func TestPage_NextReference_ZeroMeansNone(t *testing.T) {
	p := NewPage(PageSizeSmall, PageTypeMaster)
	if _, ok := p.NextReference(); ok {
		t.Fatal("expected no next reference on a fresh page")
	}
}

func TestResolve_RejectsUnreadableType(t *testing.T) {
	fb, _ := OpenFileBackend(filepath.Join(t.TempDir(), "db"))
	defer fb.Close()
	if _, err := Resolve(fb, PageReference{Size: PageSizeSmall, Type: PageTypeIndex, FileOffset: 0}); !errors.Is(err, ErrInvalidPage) {
		t.Fatalf("expected ErrInvalidPage, got %v", err)
	}
}

func TestResolve_CorruptedPageFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	fb, err := OpenFileBackend(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer fb.Close()

	p := NewPage(PageSizeSmall, PageTypeMaster)
	off, err := fb.Append(p.Buf)
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	// Flip the type byte: a master page chain should now reject it.
	corrupt := append([]byte(nil), p.Buf...)
	corrupt[1] = byte(PageTypeUnknown)
	if err := fb.Write(off, corrupt); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Resolve(fb, PageReference{Size: PageSizeSmall, Type: PageTypeMaster, FileOffset: off}); !errors.Is(err, ErrInvalidPage) {
		t.Fatalf("expected ErrInvalidPage after corrupting type byte, got %v", err)
	}
}
