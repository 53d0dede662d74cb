package handlers

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// Validation limits for guide form fields.
const (
	maxTextLen       = 100_000
	maxAdditionalLen = 100_000
	maxURLLen        = 2_048
)

// validateGuide checks the guide text fields and returns the first error found.
// Empty values are allowed; they clear the field.
func validateGuide(text, additional string) string {
	if utf8.RuneCountInString(text) > maxTextLen {
		return "Main content is too long (max 100,000 characters)."
	}
	if utf8.RuneCountInString(additional) > maxAdditionalLen {
		return "Additional content is too long (max 100,000 characters)."
	}
	return ""
}

// splitURLs parses a comma-separated URL field. Entries are trimmed and
// empty ones dropped; order is kept.
func splitURLs(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// validMediaURL reports whether raw is an absolute http(s) URL. Anything
// else would be read back from the document as a stored file.
func validMediaURL(raw string) bool {
	if len(raw) > maxURLLen {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
