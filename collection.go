package kaasdb

import (
	"github.com/google/uuid"

	"github.com/klaasdb/kaasdb/internal/docfmt"
	"github.com/klaasdb/kaasdb/internal/pager"
)

// Collection is a handle on one named collection's document chain,
// rooted at a CollectionHeaderPage. It borrows its owning Database's
// file backend for every operation rather than holding one itself.
type Collection struct {
	db     *Database
	header *pager.CollectionHeaderPage
}

// Name returns the collection's name.
func (c *Collection) Name() string {
	return c.header.Name()
}

// Append stores fields as a new document at the end of the collection's
// chain.
func (c *Collection) Append(fields map[string]any) error {
	doc, err := docfmt.NewDocument(fields)
	if err != nil {
		return err
	}
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	_, err = pager.Append(c.db.fb, c.header, doc.Bytes)
	return err
}

// AppendWithID stores fields as a new document stamped with a fresh
// "_id" field, returning the minted identifier.
func (c *Collection) AppendWithID(fields map[string]any) (uuid.UUID, error) {
	doc, id, err := docfmt.NewDocumentWithID(fields)
	if err != nil {
		return uuid.UUID{}, err
	}
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	if _, err := pager.Append(c.db.fb, c.header, doc.Bytes); err != nil {
		return uuid.UUID{}, err
	}
	return id, nil
}

// Count returns the number of documents currently reachable by
// iterating the collection's chain.
func (c *Collection) Count() (int, error) {
	refs, err := c.references()
	if err != nil {
		return 0, err
	}
	return len(refs), nil
}

// Iterate returns every document currently reachable in the collection,
// in chain order. Each call walks the chain fresh; it is not a live
// view.
func (c *Collection) Iterate() ([]*docfmt.Document, error) {
	refs, err := c.references()
	if err != nil {
		return nil, err
	}
	docs := make([]*docfmt.Document, 0, len(refs))
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	for _, ref := range refs {
		buf, err := pager.ReadDocument(c.db.fb, ref.DocumentOffset)
		if err != nil {
			return nil, err
		}
		doc, err := docfmt.Parse(buf)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Update rewrites every document matching matchFields to newFields,
// returning the number of documents updated. See docfmt.Document.Matches
// for the matching predicate.
func (c *Collection) Update(matchFields, newFields map[string]any) (int, error) {
	match, err := docfmt.NewDocument(matchFields)
	if err != nil {
		return 0, err
	}
	newDoc, err := docfmt.NewDocument(newFields)
	if err != nil {
		return 0, err
	}

	refs, err := c.references()
	if err != nil {
		return 0, err
	}

	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	defer c.reloadHeader()

	count := 0
	for _, ref := range refs {
		buf, err := pager.ReadDocument(c.db.fb, ref.DocumentOffset)
		if err != nil {
			return count, err
		}
		candidate, err := docfmt.Parse(buf)
		if err != nil {
			return count, err
		}
		if !candidate.Matches(match) {
			continue
		}
		if _, err := pager.Update(c.db.fb, ref, newDoc.Bytes); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// Remove zeroes the slot of every document matching matchFields,
// returning the number of documents removed. The document bytes
// themselves remain on disk as dead space (spec.md §3 Lifecycle).
func (c *Collection) Remove(matchFields map[string]any) (int, error) {
	match, err := docfmt.NewDocument(matchFields)
	if err != nil {
		return 0, err
	}

	refs, err := c.references()
	if err != nil {
		return 0, err
	}

	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	defer c.reloadHeader()

	count := 0
	for _, ref := range refs {
		buf, err := pager.ReadDocument(c.db.fb, ref.DocumentOffset)
		if err != nil {
			return count, err
		}
		candidate, err := docfmt.Parse(buf)
		if err != nil {
			return count, err
		}
		if !candidate.Matches(match) {
			continue
		}
		if err := pager.Remove(c.db.fb, ref); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// reloadHeader re-reads the header page's buffer from disk, since
// pager.Update and pager.Remove rewrite slots in the file rather than in
// c.header's in-memory copy. Called with db.mu held.
func (c *Collection) reloadHeader() {
	p := c.header.Page()
	if buf, err := c.db.fb.Read(p.FileOffset, len(p.Buf)); err == nil {
		copy(p.Buf, buf)
	}
}

// references walks the collection's slot-array chain under the
// database lock.
func (c *Collection) references() ([]pager.DocumentReference, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	return pager.Iterate(c.db.fb, c.header)
}
