// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the shapes persisted in the content document.
package models

// GuideEntry is the editable content for one (platform, action) pair.
// Field order and JSON names match the persisted document.
type GuideEntry struct {
	Text              string     `json:"text"`
	Images            []MediaRef `json:"images"`
	Videos            []MediaRef `json:"videos"`
	AdditionalContent string     `json:"additional_content"`
}

// Document maps platform name → action key → guide entry.
type Document map[string]map[string]*GuideEntry

// NewGuideEntry returns an entry with the given text and empty galleries.
func NewGuideEntry(text string) *GuideEntry {
	return &GuideEntry{
		Text:   text,
		Images: []MediaRef{},
		Videos: []MediaRef{},
	}
}

// Lookup returns the entry for a pair, or nil.
func (d Document) Lookup(platform, actionKey string) *GuideEntry {
	actions, ok := d[platform]
	if !ok {
		return nil
	}
	return actions[actionKey]
}

// Media returns the gallery for kind, or nil for an unknown kind.
func (e *GuideEntry) Media(kind MediaKind) []MediaRef {
	switch kind {
	case MediaImage:
		return e.Images
	case MediaVideo:
		return e.Videos
	default:
		return nil
	}
}

// SetText overwrites both text fields, empty strings included.
func (e *GuideEntry) SetText(text, additional string) {
	e.Text = text
	e.AdditionalContent = additional
}

// Append adds refs to the end of the gallery for kind, in order.
// Returns false for an unknown kind.
func (e *GuideEntry) Append(kind MediaKind, refs ...MediaRef) bool {
	switch kind {
	case MediaImage:
		e.Images = append(e.Images, refs...)
	case MediaVideo:
		e.Videos = append(e.Videos, refs...)
	default:
		return false
	}
	return true
}

// Remove deletes the element at index from the gallery for kind, shifting
// later elements down. Returns the removed reference and false when the
// index is out of range or the kind is unknown; the gallery is then unchanged.
func (e *GuideEntry) Remove(kind MediaKind, index int) (MediaRef, bool) {
	var list *[]MediaRef
	switch kind {
	case MediaImage:
		list = &e.Images
	case MediaVideo:
		list = &e.Videos
	default:
		return MediaRef{}, false
	}

	if index < 0 || index >= len(*list) {
		return MediaRef{}, false
	}

	removed := (*list)[index]
	next := make([]MediaRef, 0, len(*list)-1)
	next = append(next, (*list)[:index]...)
	next = append(next, (*list)[index+1:]...)
	*list = next
	return removed, true
}

// Clone returns a deep copy of the entry.
func (e *GuideEntry) Clone() GuideEntry {
	c := *e
	c.Images = append([]MediaRef{}, e.Images...)
	c.Videos = append([]MediaRef{}, e.Videos...)
	return c
}

// normalize replaces null galleries with empty ones.
func (e *GuideEntry) normalize() {
	if e.Images == nil {
		e.Images = []MediaRef{}
	}
	if e.Videos == nil {
		e.Videos = []MediaRef{}
	}
}

// Normalize replaces null galleries with empty ones on every entry, so the
// document always serialises media lists as JSON arrays.
func (d Document) Normalize() {
	for _, actions := range d {
		for _, e := range actions {
			if e != nil {
				e.normalize()
			}
		}
	}
}
