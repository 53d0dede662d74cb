// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug derives stable identifiers from display names and
// user-supplied file names.
package slug

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

var (
	// unsafeFilename matches anything that isn't safe in a stored file name.
	unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	// multipleUnderscores collapses consecutive underscores into one.
	multipleUnderscores = regexp.MustCompile(`_{2,}`)
)

// Key derives an action key from a display name: lower-cased with spaces
// replaced by underscores. Example: "Create Account" → "create_account".
func Key(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// Title reverses Key for display: underscores become spaces and every word
// is title-cased. Example: "prevent_hacking" → "Prevent Hacking".
func Title(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Filename turns an arbitrary client-supplied name into a flat, ASCII-only
// file name. Directory components are dropped, so the result can never
// escape the directory it is joined to. Returns "" if nothing usable remains.
func Filename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	name = unsafeFilename.ReplaceAllString(name, "")
	name = multipleUnderscores.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._-")
	return name
}
