// Package kaasdb implements a single-file, embedded document store:
// named collections of self-describing binary documents persisted as a
// linked chain of fixed-size pages inside one file. See internal/pager
// for the on-disk page format and internal/docfmt for the document
// codec; this package is the public facade over both.
package kaasdb

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/klaasdb/kaasdb/internal/bytesutil"
	"github.com/klaasdb/kaasdb/internal/pager"
)

// formatVersion is the only version this module writes or accepts.
const formatVersion = 1

// Database is a handle on one open database file. It owns the file
// backend and the master page chain; Collection handles borrow it for
// I/O (the arena model of spec.md §9 — pages carry no owning pointer
// back to a Database, every operation takes the backend explicitly).
type Database struct {
	mu         sync.Mutex
	fb         *pager.FileBackend
	master     *pager.MasterPage
	opts       OpenOptions
	instanceID uuid.UUID

	headerCache     map[string]*pager.CollectionHeaderPage
	headerCacheKeys []string
}

// Open opens or creates the database file at path using DefaultOptions.
func Open(path string) (*Database, error) {
	return OpenWith(path, DefaultOptions())
}

// OpenWith opens or creates the database file at path. If the file is
// empty (newly created), it is initialized with the 4-byte format
// version and an empty Small master page at offset 4. Otherwise the
// version is verified and the existing master page is read and
// validated.
func OpenWith(path string, opts OpenOptions) (*Database, error) {
	fb, err := pager.OpenFileBackend(path)
	if err != nil {
		return nil, notAccessible(path, err)
	}

	db := &Database{
		fb:          fb,
		opts:        opts,
		instanceID:  uuid.New(),
		headerCache: make(map[string]*pager.CollectionHeaderPage, opts.HeaderCacheSize),
	}

	length, err := fb.Length()
	if err != nil {
		fb.Close()
		return nil, err
	}

	if length == 0 {
		if err := db.bootstrap(); err != nil {
			fb.Close()
			return nil, err
		}
		log.Printf("kaasdb: created %s (instance %s)", path, db.instanceID)
		return db, nil
	}

	if err := db.loadExisting(); err != nil {
		fb.Close()
		return nil, err
	}
	log.Printf("kaasdb: opened %s (instance %s)", path, db.instanceID)
	return db, nil
}

func (db *Database) bootstrap() error {
	verBuf := make([]byte, 4)
	bytesutil.PutUint32(verBuf, formatVersion)
	if _, err := db.fb.Append(verBuf); err != nil {
		return err
	}
	master := pager.NewMasterPage(pager.PageSizeSmall)
	off, err := db.fb.Append(master.Page().Buf)
	if err != nil {
		return err
	}
	master.Page().FileOffset = off
	db.master = master
	return nil
}

func (db *Database) loadExisting() error {
	verBuf, err := db.fb.Read(0, 4)
	if err != nil {
		return err
	}
	version, _ := bytesutil.Uint32(verBuf)
	if version != formatVersion {
		return fmt.Errorf("kaasdb: file declares version %d, this module writes version %d: %w",
			version, formatVersion, ErrInvalidFileStructure)
	}
	masterPage, err := pager.Resolve(db.fb, pager.PageReference{
		Size: pager.PageSizeSmall, Type: pager.PageTypeMaster, FileOffset: 4,
	})
	if err != nil {
		return err
	}
	db.master = pager.WrapMasterPage(masterPage)
	return nil
}

// InstanceID identifies this open handle for log correlation; it is
// generated fresh on every Open/OpenWith call, not persisted.
func (db *Database) InstanceID() uuid.UUID {
	return db.instanceID
}

// ReadPage returns the master page when number is 0. Every other number
// currently returns ok=false; spec.md §4.7 reserves the numbering for a
// future page index.
func (db *Database) ReadPage(number uint64) (*pager.Page, bool) {
	if number != 0 {
		return nil, false
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.master.Page(), true
}

// normalizeName applies NFC normalization to a collection name when the
// database was opened with NormalizeCollectionNames (the default).
func (db *Database) normalizeName(name string) string {
	if !db.opts.NormalizeCollectionNames {
		return name
	}
	return norm.NFC.String(name)
}

// MakeCollection creates a new, empty collection named name and
// registers it in the master directory. name is NFC-normalized first
// unless the database was opened with NormalizeCollectionNames off.
func (db *Database) MakeCollection(name string) (*Collection, error) {
	name = db.normalizeName(name)

	db.mu.Lock()
	defer db.mu.Unlock()

	header, err := pager.NewCollectionHeaderPage(pager.PageSizeSmall, name)
	if err != nil {
		return nil, err
	}
	if err := db.master.Append(db.fb, header.Page()); err != nil {
		return nil, err
	}
	db.cachePut(name, header)
	return &Collection{db: db, header: header}, nil
}

// Collection looks up an already-created collection by name.
func (db *Database) Collection(name string) (*Collection, error) {
	name = db.normalizeName(name)

	db.mu.Lock()
	defer db.mu.Unlock()

	if header, ok := db.headerCache[name]; ok {
		return &Collection{db: db, header: header}, nil
	}

	refs, err := db.master.Iterate(db.fb)
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		header, err := pager.ResolveCollectionHeader(db.fb, ref)
		if err != nil {
			return nil, err
		}
		if db.normalizeName(header.Name()) == name {
			db.cachePut(name, header)
			return &Collection{db: db, header: header}, nil
		}
	}
	return nil, fmt.Errorf("kaasdb: collection %q: %w", name, ErrCollectionNotFound)
}

// cachePut records header under name, evicting the oldest entry (FIFO)
// once HeaderCacheSize is exceeded. Called with db.mu held.
func (db *Database) cachePut(name string, header *pager.CollectionHeaderPage) {
	if db.opts.HeaderCacheSize <= 0 {
		return
	}
	if _, exists := db.headerCache[name]; !exists {
		db.headerCacheKeys = append(db.headerCacheKeys, name)
	}
	db.headerCache[name] = header
	for len(db.headerCacheKeys) > db.opts.HeaderCacheSize {
		oldest := db.headerCacheKeys[0]
		db.headerCacheKeys = db.headerCacheKeys[1:]
		delete(db.headerCache, oldest)
	}
}

// Close closes the underlying file handle.
func (db *Database) Close() error {
	log.Printf("kaasdb: closing instance %s", db.instanceID)
	return db.fb.Close()
}
