// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package content owns the guide document: its canonical shape, loading it
// from the durable store with self-healing defaults, applying edits, and
// writing it back. Every mutation is one whole-document read-modify-write
// cycle serialised by the repository's lock.
package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"masteraccount/internal/catalog"
	"masteraccount/internal/models"
)

var (
	// ErrNotFound is returned when a (platform, action) pair is not part of
	// the catalog. No mutation is performed.
	ErrNotFound = errors.New("guide not found")

	// ErrIndexOutOfRange is returned by RemoveMedia when the index is outside
	// the gallery. The gallery is left unchanged and nothing is written.
	ErrIndexOutOfRange = errors.New("media index out of range")

	// ErrInvalidMediaKind is returned for a media kind other than image or video.
	ErrInvalidMediaKind = errors.New("invalid media kind")

	// ErrStoreUnwritable is matched by every Save failure.
	ErrStoreUnwritable = errors.New("content store unwritable")
)

// StoreError reports a failed write of the document. The in-memory document
// that was being saved is not rolled back.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return "content save: " + e.Err.Error()
}

// Unwrap exposes both ErrStoreUnwritable and the underlying cause.
func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreUnwritable, e.Err}
}

// Repository loads, edits, and saves the guide document.
type Repository struct {
	mu      sync.Mutex
	store   Store
	catalog *catalog.Catalog
}

// NewRepository creates a repository over store, shaped by cat.
func NewRepository(store Store, cat *catalog.Catalog) *Repository {
	return &Repository{store: store, catalog: cat}
}

// Catalog returns the catalog the repository validates against.
func (r *Repository) Catalog() *catalog.Catalog {
	return r.catalog
}

// Load returns the current document. It never fails: when the store is
// absent, unreadable, or corrupt the problem is logged and a default
// document is built. Pairs missing from an otherwise valid document are
// filled with defaults.
func (r *Repository) Load() models.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

// Save overwrites the store with doc. Failures are returned as *StoreError.
func (r *Repository) Save(doc models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(doc)
}

// Validate reports ErrNotFound unless the pair is in the catalog.
func (r *Repository) Validate(platform, actionKey string) error {
	if !r.catalog.Contains(platform, actionKey) {
		return fmt.Errorf("%s/%s: %w", platform, actionKey, ErrNotFound)
	}
	return nil
}

// Entry returns a copy of the entry for a pair.
func (r *Repository) Entry(platform, actionKey string) (models.GuideEntry, error) {
	if err := r.Validate(platform, actionKey); err != nil {
		return models.GuideEntry{}, err
	}
	doc := r.Load()
	return doc.Lookup(platform, actionKey).Clone(), nil
}

// Edit runs one Load → mutate → Save cycle on a single entry. If fn
// returns an error the document is not written and the error is returned
// unchanged.
func (r *Repository) Edit(platform, actionKey string, fn func(*models.GuideEntry) error) error {
	if err := r.Validate(platform, actionKey); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.load()
	if err := fn(doc.Lookup(platform, actionKey)); err != nil {
		return err
	}
	return r.save(doc)
}

// UpdateText overwrites the text and additional content of a guide.
// Empty strings are written as given.
func (r *Repository) UpdateText(platform, actionKey, text, additional string) error {
	return r.Edit(platform, actionKey, func(e *models.GuideEntry) error {
		e.SetText(text, additional)
		return nil
	})
}

// AppendMedia adds one reference to the end of a guide's gallery.
func (r *Repository) AppendMedia(platform, actionKey string, kind models.MediaKind, ref models.MediaRef) error {
	return r.AppendMediaBatch(platform, actionKey, kind, []models.MediaRef{ref})
}

// AppendMediaBatch adds refs to the end of a guide's gallery in order.
// An empty batch writes nothing.
func (r *Repository) AppendMediaBatch(platform, actionKey string, kind models.MediaKind, refs []models.MediaRef) error {
	if err := r.Validate(platform, actionKey); err != nil {
		return err
	}
	if _, err := models.ParseMediaKind(string(kind)); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidMediaKind, kind)
	}
	if len(refs) == 0 {
		return nil
	}
	return r.Edit(platform, actionKey, func(e *models.GuideEntry) error {
		e.Append(kind, refs...)
		return nil
	})
}

// RemoveMedia deletes the reference at index from a guide's gallery and
// returns it. Backing files are not touched; see RemoveMediaFunc.
func (r *Repository) RemoveMedia(platform, actionKey string, kind models.MediaKind, index int) (models.MediaRef, error) {
	return r.RemoveMediaFunc(platform, actionKey, kind, index, nil)
}

// RemoveMediaFunc is RemoveMedia with a release hook. When the index is in
// range, release is called with the reference before the document is
// saved, inside the same cycle, so the caller can delete the backing file
// of exactly the element being removed.
func (r *Repository) RemoveMediaFunc(platform, actionKey string, kind models.MediaKind, index int, release func(models.MediaRef)) (models.MediaRef, error) {
	if _, err := models.ParseMediaKind(string(kind)); err != nil {
		return models.MediaRef{}, fmt.Errorf("%w: %q", ErrInvalidMediaKind, kind)
	}

	var removed models.MediaRef
	err := r.Edit(platform, actionKey, func(e *models.GuideEntry) error {
		ref, ok := e.Remove(kind, index)
		if !ok {
			return fmt.Errorf("%s %d of %d: %w", kind, index, len(e.Media(kind)), ErrIndexOutOfRange)
		}
		if release != nil {
			release(ref)
		}
		removed = ref
		return nil
	})
	return removed, err
}

// load reads and repairs the document. Caller holds r.mu.
func (r *Repository) load() models.Document {
	raw, err := r.store.Read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Info("content store empty, using defaults")
		} else {
			slog.Warn("content store unreadable, using defaults", "error", err)
		}
		return r.defaults()
	}

	var doc models.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		slog.Warn("content store corrupt, using defaults", "error", err)
		return r.defaults()
	}
	if doc == nil {
		slog.Warn("content store holds no document, using defaults")
		return r.defaults()
	}

	r.fill(doc)
	return doc
}

// save serialises doc and writes it. Caller holds r.mu.
func (r *Repository) save(doc models.Document) error {
	doc.Normalize()
	data, err := Encode(doc)
	if err != nil {
		return &StoreError{Err: err}
	}
	if err := r.store.Write(data); err != nil {
		slog.Error("content save failed", "error", err)
		return &StoreError{Err: err}
	}
	return nil
}

// defaults builds a complete document with placeholder text.
func (r *Repository) defaults() models.Document {
	doc := make(models.Document)
	r.fill(doc)
	return doc
}

// fill adds a default entry for every catalog pair missing from doc and
// normalises null galleries.
func (r *Repository) fill(doc models.Document) {
	for _, platform := range r.catalog.Platforms() {
		actions := doc[platform]
		if actions == nil {
			actions = make(map[string]*models.GuideEntry)
			doc[platform] = actions
		}
		for _, a := range r.catalog.Actions() {
			if actions[a.Key] == nil {
				actions[a.Key] = models.NewGuideEntry(catalog.Placeholder(a.Name, platform))
			}
		}
	}
	doc.Normalize()
}

// Encode renders doc the way it is persisted: indented JSON with HTML
// characters and non-ASCII text left unescaped.
func Encode(doc models.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}
	return buf.Bytes(), nil
}
