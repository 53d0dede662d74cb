// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown converts guide text into HTML using goldmark. Admins
// write guides as Markdown or plain paragraphs with raw HTML, so raw HTML
// is passed through and single newlines become line breaks.
package markdown

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// md is the configured goldmark instance, reused across calls.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,         // tables, strikethrough, autolinks, task lists
		extension.Typographer, // smart quotes and dashes
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(), // a newline in the editor is a line break on the page
		html.WithUnsafe(),    // guides are written by admins only
	),
)

// ToHTML converts guide source into HTML.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render is ToHTML for templates. Conversion errors fall back to the
// escaped source.
func Render(source string) template.HTML {
	out, err := ToHTML(source)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(out)
}
