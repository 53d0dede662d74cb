// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// MediaKind selects which gallery of a guide entry a reference belongs to.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// ParseMediaKind validates a media kind coming from a request.
func ParseMediaKind(s string) (MediaKind, error) {
	switch MediaKind(s) {
	case MediaImage, MediaVideo:
		return MediaKind(s), nil
	default:
		return "", fmt.Errorf("unknown media kind %q", s)
	}
}

// RefKind tags how a media reference is resolved.
type RefKind int

const (
	// RefURL is an absolute external URL, used as-is.
	RefURL RefKind = iota
	// RefStored is a path relative to the uploads store, e.g. "uploads/x.png".
	RefStored
)

// MediaRef is one image or video reference. It is persisted as a bare
// string; Kind is fixed when the reference is created and recovered from
// the string's scheme when decoded.
type MediaRef struct {
	Kind  RefKind
	Value string
}

// URLRef builds a reference to an external URL.
func URLRef(u string) MediaRef {
	return MediaRef{Kind: RefURL, Value: u}
}

// StoredRef builds a reference to a file in the uploads store.
func StoredRef(path string) MediaRef {
	return MediaRef{Kind: RefStored, Value: path}
}

// ParseRef classifies a persisted reference string.
func ParseRef(s string) MediaRef {
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return URLRef(s)
	}
	return StoredRef(s)
}

// IsURL reports whether the reference points outside the uploads store.
func (r MediaRef) IsURL() bool {
	return r.Kind == RefURL
}

// String returns the persisted form of the reference.
func (r MediaRef) String() string {
	return r.Value
}

// MarshalJSON writes the reference as a plain JSON string. HTML characters
// are left as they are; an enclosing encoder that escapes HTML still does.
func (r MediaRef) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r.Value); err != nil {
		return nil, fmt.Errorf("media reference: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalJSON reads a plain JSON string and classifies it.
func (r *MediaRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("media reference: %w", err)
	}
	*r = ParseRef(s)
	return nil
}
