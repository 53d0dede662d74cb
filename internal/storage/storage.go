// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage holds uploaded media files. The content document only
// ever stores the reference string a backend returns ("uploads/<name>");
// the backend maps it to bytes on disk or in a bucket and to a public URL.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// RefPrefix starts every reference produced by a backend.
const RefPrefix = "uploads/"

// ErrInvalidRef is returned for references that don't name a stored upload.
var ErrInvalidRef = errors.New("storage: invalid upload reference")

// Backend stores and removes uploaded files.
type Backend interface {
	// Put stores body under name and returns its reference.
	Put(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error)
	// Delete removes the file behind ref. Deleting a missing file is not an error.
	Delete(ctx context.Context, ref string) error
	// URL returns the address browsers load ref from.
	URL(ref string) string
}

// nameFromRef extracts the flat file name from a reference. Only the last
// path element is used, matching how references are resolved when served.
func nameFromRef(ref string) (string, error) {
	if !strings.HasPrefix(ref, RefPrefix) {
		return "", ErrInvalidRef
	}
	name := path.Base(ref)
	if name == "." || name == "/" || name == ".." || name == "uploads" {
		return "", ErrInvalidRef
	}
	return name, nil
}
