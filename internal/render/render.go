// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the guide pages.
// Pages share the base layout except for the standalone verify page.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"masteraccount/internal/markdown"
	"masteraccount/internal/middleware"
	"masteraccount/internal/models"
	"masteraccount/internal/session"
	"masteraccount/internal/slug"
)

//go:embed templates/*.html
var templateFS embed.FS

// MediaResolver turns a stored upload reference into a browser URL.
type MediaResolver interface {
	URL(ref string) string
}

// PageData holds all data passed to templates.
type PageData struct {
	Title     string          // Page title for <title> tag
	Section   string          // Active nav section ("home", "guide")
	Session   *session.Data   // Current session (nil for first-time visitors)
	CSRFToken string          // CSRF token for forms and fetch headers
	DarkMode  bool            // Render the dark colour scheme
	Data      map[string]any  // Page-specific data
	Flashes   []session.Flash // One-time notification messages
}

// IsAdmin reports whether the page is rendered for an authenticated admin.
func (p *PageData) IsAdmin() bool {
	return p.Session.IsAdmin()
}

// Renderer handles template parsing and execution.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
}

// standaloneTemplates lists templates that render as full HTML pages
// without the base layout.
var standaloneTemplates = map[string]bool{
	"2fa_verify": true,
}

// New creates a Renderer by parsing all templates from the embedded
// filesystem. Each page template is paired with the base layout.
func New(media MediaResolver) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		funcMap: template.FuncMap{
			// mediaURL resolves a gallery entry to the address the browser loads.
			"mediaURL": func(ref models.MediaRef) string {
				if ref.IsURL() {
					return ref.Value
				}
				return media.URL(ref.Value)
			},
			"markdown":    markdown.Render,
			"actionTitle": slug.Title,
			// guideURL builds the link to a guide page.
			"guideURL": func(platform, actionKey string) string {
				return "/content/" + url.PathEscape(platform) + "/" + url.PathEscape(actionKey)
			},
			// entry looks up a guide in the document for the admin forms.
			"entry": func(doc models.Document, platform, actionKey string) *models.GuideEntry {
				if e := doc.Lookup(platform, actionKey); e != nil {
					return e
				}
				return models.NewGuideEntry("")
			},
			"domID": func(parts ...string) string {
				return strings.ToLower(strings.Join(parts, "-"))
			},
		},
	}

	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "base.html" || !strings.HasSuffix(name, ".html") {
			continue
		}
		tmplName := strings.TrimSuffix(name, ".html")

		var tmpl *template.Template
		var parseErr error
		if standaloneTemplates[tmplName] {
			tmpl, parseErr = template.New(name).Funcs(r.funcMap).ParseFS(
				templateFS, "templates/"+name,
			)
		} else {
			tmpl, parseErr = template.New("base.html").Funcs(r.funcMap).ParseFS(
				templateFS, "templates/base.html", "templates/"+name,
			)
		}
		if parseErr != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, parseErr)
		}

		r.templates[tmplName] = tmpl
	}

	return r, nil
}

// Page renders the named page. The page is executed into a buffer first so
// a template error produces a clean 500 instead of half a page.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	// Inject CSRF token from context (set by CSRF middleware).
	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())

	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(r.Context())
	}
	if data.Session != nil {
		data.DarkMode = data.Session.DarkMode
	}
	if data.Data == nil {
		data.Data = map[string]any{}
	}

	execName := "base.html"
	if standaloneTemplates[name] {
		execName = name + ".html"
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, execName, data); err != nil {
		slog.Error("template execute failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
