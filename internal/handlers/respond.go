// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the HTTP handlers of the guide site, grouped
// into Public, Auth, and Admin.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"masteraccount/internal/middleware"
	"masteraccount/internal/session"
)

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", "error", err)
	}
}

// writeMediaError writes a JSON error response for media operations.
func writeMediaError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// currentSession returns the request's session, or an unsaved visitor
// session when there is none yet.
func currentSession(r *http.Request) *session.Data {
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		return sess
	}
	return &session.Data{}
}

// flashRedirect queues a flash message, saves the session, and redirects.
func flashRedirect(w http.ResponseWriter, r *http.Request, sessions *session.Store, kind, msg, target string) {
	sess := currentSession(r)
	sess.AddFlash(kind, msg)
	if err := sessions.Save(r.Context(), w, sess); err != nil {
		slog.Error("session save failed", "error", err)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// takeFlashes pops the queued flashes of sess and persists the now empty
// queue so they are shown once.
func takeFlashes(ctx context.Context, sessions *session.Store, sess *session.Data) []session.Flash {
	if sess == nil || len(sess.Flashes) == 0 {
		return nil
	}
	flashes := sess.TakeFlashes()
	if err := sessions.Update(ctx, sess); err != nil {
		slog.Warn("session update failed", "error", err)
	}
	return flashes
}
