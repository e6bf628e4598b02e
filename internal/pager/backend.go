package pager

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// FileBackend is a thin wrapper over an OS file handle: random-access
// read/write, append-at-end-of-file, and length query. It promises
// nothing about crash durability (spec.md §7) — writes are not fsynced.
type FileBackend struct {
	mu   sync.Mutex
	file *os.File
}

// OpenFileBackend opens path for read/write, creating it if it does not
// exist.
func OpenFileBackend(path string) (*FileBackend, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("pager: open %s: %w", path, err)
	}
	return &FileBackend{file: f}, nil
}

// Read returns exactly length bytes starting at offset. A short read
// (including EOF before length bytes are available) is reported as
// ErrInvalidFileStructure — callers treat any short read as a corrupt or
// truncated file.
func (fb *FileBackend) Read(offset uint64, length int) ([]byte, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	buf := make([]byte, length)
	n, err := fb.file.ReadAt(buf, int64(offset))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("pager: read %d bytes at %d: %w", length, offset, err)
	}
	if n != length {
		return nil, fmt.Errorf("pager: short read at %d: got %d of %d bytes: %w", offset, n, length, ErrInvalidFileStructure)
	}
	return buf, nil
}

// Write writes data at offset, overwriting whatever was there.
func (fb *FileBackend) Write(offset uint64, data []byte) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if _, err := fb.file.WriteAt(data, int64(offset)); err != nil {
		return fmt.Errorf("pager: write %d bytes at %d: %w", len(data), offset, err)
	}
	return nil
}

// Append writes data at the current end of file and returns the offset
// it was written at.
func (fb *FileBackend) Append(data []byte) (uint64, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	off, err := fb.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("pager: seek to end: %w", err)
	}
	if _, err := fb.file.Write(data); err != nil {
		return 0, fmt.Errorf("pager: append %d bytes: %w", len(data), err)
	}
	return uint64(off), nil
}

// Length returns the current size of the file in bytes.
func (fb *FileBackend) Length() (uint64, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	info, err := fb.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("pager: stat: %w", err)
	}
	return uint64(info.Size()), nil
}

// Close closes the underlying file handle.
func (fb *FileBackend) Close() error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.file.Close()
}
