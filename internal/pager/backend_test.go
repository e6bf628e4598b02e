package pager

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestFileBackend_AppendWriteReadLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	fb, err := OpenFileBackend(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer fb.Close()

	off1, err := fb.Append([]byte("hello"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if off1 != 0 {
		t.Fatalf("first append offset = %d, want 0", off1)
	}

	off2, err := fb.Append([]byte("world!"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if off2 != 5 {
		t.Fatalf("second append offset = %d, want 5", off2)
	}

	got, err := fb.Read(0, 5)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}

	if err := fb.Write(0, []byte("HELLO")); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err = fb.Read(0, 5)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "HELLO" {
		t.Fatalf("got %q after overwrite, want %q", got, "HELLO")
	}

	length, err := fb.Length()
	if err != nil {
		t.Fatalf("length: %v", err)
	}
	if length != 11 {
		t.Fatalf("length = %d, want 11", length)
	}
}

func TestFileBackend_ShortReadFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	fb, err := OpenFileBackend(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer fb.Close()

	if _, err := fb.Append([]byte("ab")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := fb.Read(0, 10); !errors.Is(err, ErrInvalidFileStructure) {
		t.Fatalf("expected ErrInvalidFileStructure, got %v", err)
	}
}

func TestFileBackend_ReopenPersistsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	fb, err := OpenFileBackend(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := fb.Append([]byte("persisted")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := fb.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	fb2, err := OpenFileBackend(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer fb2.Close()
	got, err := fb2.Read(0, len("persisted"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "persisted" {
		t.Fatalf("got %q, want %q", got, "persisted")
	}
}
