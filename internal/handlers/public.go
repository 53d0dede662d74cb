// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"masteraccount/internal/cache"
	"masteraccount/internal/catalog"
	"masteraccount/internal/content"
	"masteraccount/internal/markdown"
	"masteraccount/internal/middleware"
	"masteraccount/internal/render"
	"masteraccount/internal/session"
	"masteraccount/internal/store"
)

// Public groups handlers for the visitor-facing pages. Rendered guide
// bodies are kept in the Valkey fragment cache.
type Public struct {
	renderer *render.Renderer
	repo     *content.Repository
	sessions *session.Store
	guides   *cache.GuideCache
	counter  *cache.VisitCounter
	visits   *store.VisitStore
}

// NewPublic creates a new Public handler group. guides, counter, and
// visits may be nil when Valkey or PostgreSQL are not configured.
func NewPublic(renderer *render.Renderer, repo *content.Repository, sessions *session.Store, guides *cache.GuideCache, counter *cache.VisitCounter, visits *store.VisitStore) *Public {
	return &Public{
		renderer: renderer,
		repo:     repo,
		sessions: sessions,
		guides:   guides,
		counter:  counter,
		visits:   visits,
	}
}

// Home renders the catalog listing with the search box and either the
// login form or the admin panel. Every view counts as a visit.
func (p *Public) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total := p.counter.Incr(ctx)
	p.visits.Record(ctx, middleware.ClientIP(r), r.URL.Path, r.UserAgent())
	if total == 0 {
		if n, err := p.visits.Count(ctx); err == nil {
			total = n
		}
	}

	cat := p.repo.Catalog()
	sess := middleware.SessionFromCtx(ctx)

	data := map[string]any{
		"Categories": cat.Categories(),
		"Actions":    cat.Actions(),
		"Visits":     total,
		"LoginError": r.URL.Query().Get("login_error"),
	}
	if sess.IsAdmin() {
		data["Doc"] = p.repo.Load()
	}

	p.renderer.Page(w, r, "home", &render.PageData{
		Title:   "Master Account",
		Section: "home",
		Session: sess,
		Data:    data,
		Flashes: takeFlashes(ctx, p.sessions, sess),
	})
}

// Guide renders one guide page. Unknown platforms and actions redirect
// home with a flash.
func (p *Public) Guide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	platform := chi.URLParam(r, "platform")
	actionKey := chi.URLParam(r, "action")

	cat := p.repo.Catalog()
	if !cat.HasPlatform(platform) {
		flashRedirect(w, r, p.sessions, session.FlashError, "Platform not found", "/")
		return
	}
	action, ok := cat.Action(actionKey)
	if !ok || !cat.Contains(platform, actionKey) {
		flashRedirect(w, r, p.sessions, session.FlashError, "Action not found for this platform", "/")
		return
	}

	entry, err := p.repo.Entry(platform, actionKey)
	if err != nil {
		slog.Error("guide lookup failed", "platform", platform, "action", actionKey, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sess := middleware.SessionFromCtx(ctx)
	p.renderer.Page(w, r, "guide", &render.PageData{
		Title:   platform + " - " + action.Name,
		Section: "guide",
		Session: sess,
		Data: map[string]any{
			"Platform": platform,
			"Action":   action,
			"Entry":    entry,
			"Body":     p.guideBody(r, platform, actionKey, entry.Text),
		},
		Flashes: takeFlashes(ctx, p.sessions, sess),
	})
}

// guideBody returns the rendered main text of a guide, from the fragment
// cache when possible.
func (p *Public) guideBody(r *http.Request, platform, actionKey, text string) template.HTML {
	ctx := r.Context()
	if cached, ok := p.guides.Get(ctx, platform, actionKey, text); ok {
		return template.HTML(cached)
	}

	html, err := markdown.ToHTML(text)
	if err != nil {
		slog.Warn("guide markdown failed, using plain text", "platform", platform, "action", actionKey, "error", err)
		escaped := template.HTMLEscapeString(text)
		return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
	}

	p.guides.Set(ctx, platform, actionKey, text, []byte(html))
	return template.HTML(html)
}

// Search returns the guides matching the q query parameter as JSON.
func (p *Public) Search(w http.ResponseWriter, r *http.Request) {
	matches := p.repo.Catalog().Search(r.URL.Query().Get("q"))
	if matches == nil {
		matches = []catalog.Match{}
	}
	writeJSON(w, http.StatusOK, matches)
}

// ToggleDarkMode stores the visitor's colour scheme preference. Only JSON
// bodies are accepted.
func (p *Public) ToggleDarkMode(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeJSON(w, http.StatusOK, map[string]bool{"success": false})
		return
	}

	var req struct {
		DarkMode bool `json:"dark_mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]bool{"success": false})
		return
	}

	sess := currentSession(r)
	sess.DarkMode = req.DarkMode
	if err := p.sessions.Save(r.Context(), w, sess); err != nil {
		slog.Error("session save failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]bool{"success": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
