// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"masteraccount/internal/cache"
	"masteraccount/internal/content"
	"masteraccount/internal/models"
	"masteraccount/internal/session"
	"masteraccount/internal/storage"
)

const (
	adminPanel = "/#admin"

	msgUnauthorized   = "Unauthorized access"
	msgInvalidRequest = "Invalid request"
	msgInvalidPair    = "Invalid platform or action"
	msgUpdated        = "Content updated successfully"
	msgSaveFailed     = "Error saving content"
)

// mediaInput names the form fields that feed one gallery.
type mediaInput struct {
	kind       models.MediaKind
	filesField string
	urlsField  string
}

// mediaInputs is processed in order: image files, image URLs, video
// files, video URLs.
var mediaInputs = []mediaInput{
	{kind: models.MediaImage, filesField: "image_files", urlsField: "image_urls"},
	{kind: models.MediaVideo, filesField: "video_files", urlsField: "video_urls"},
}

// Admin groups the content editing handlers. All of them are mounted
// behind middleware.RequireAdmin.
type Admin struct {
	repo      *content.Repository
	uploads   storage.Backend
	sessions  *session.Store
	guides    *cache.GuideCache
	maxUpload int64
}

// NewAdmin creates a new Admin handler group. guides may be nil.
func NewAdmin(repo *content.Repository, uploads storage.Backend, sessions *session.Store, guides *cache.GuideCache, maxUpload int64) *Admin {
	return &Admin{
		repo:      repo,
		uploads:   uploads,
		sessions:  sessions,
		guides:    guides,
		maxUpload: maxUpload,
	}
}

// UpdateContent applies one admin form submission: both text fields plus
// any uploaded files and URLs for images and videos. Files are stored
// first; the document is then changed in a single edit cycle.
func (a *Admin) UpdateContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(a.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			flashRedirect(w, r, a.sessions, session.FlashError, "Upload too large", adminPanel)
			return
		}
		flashRedirect(w, r, a.sessions, session.FlashError, msgInvalidRequest, "/")
		return
	}

	platform := r.FormValue("platform")
	actionKey := r.FormValue("action_type")
	if platform == "" || actionKey == "" {
		flashRedirect(w, r, a.sessions, session.FlashError, msgInvalidRequest, "/")
		return
	}
	if err := a.repo.Validate(platform, actionKey); err != nil {
		flashRedirect(w, r, a.sessions, session.FlashError, msgInvalidPair, "/")
		return
	}

	text := r.FormValue("content_text")
	additional := r.FormValue("additional_content")
	if msg := validateGuide(text, additional); msg != "" {
		flashRedirect(w, r, a.sessions, session.FlashError, msg, adminPanel)
		return
	}

	sess := currentSession(r)
	added := make(map[models.MediaKind][]models.MediaRef)
	var stored []models.MediaRef

	for _, in := range mediaInputs {
		if r.MultipartForm != nil {
			for _, fh := range r.MultipartForm.File[in.filesField] {
				if fh.Filename == "" {
					continue
				}
				ref, err := storeUpload(ctx, a.uploads, platform, actionKey, in.kind, fh)
				switch {
				case errors.Is(err, errInvalidFileType):
					slog.Warn("upload rejected", "file", fh.Filename, "kind", in.kind, "error", err)
					sess.AddFlash(session.FlashError, fmt.Sprintf("Invalid %s file type", in.kind))
					continue
				case errors.Is(err, errImageTooLarge):
					sess.AddFlash(session.FlashError, "Image dimensions too large")
					continue
				case err != nil:
					slog.Error("upload failed", "file", fh.Filename, "kind", in.kind, "error", err)
					sess.AddFlash(session.FlashError, fmt.Sprintf("Error uploading %s file", in.kind))
					continue
				}
				added[in.kind] = append(added[in.kind], ref)
				stored = append(stored, ref)
			}
		}

		for _, raw := range splitURLs(r.FormValue(in.urlsField)) {
			if !validMediaURL(raw) {
				sess.AddFlash(session.FlashError, fmt.Sprintf("Invalid %s URL", in.kind))
				continue
			}
			added[in.kind] = append(added[in.kind], models.URLRef(raw))
		}
	}

	err := a.repo.Edit(platform, actionKey, func(e *models.GuideEntry) error {
		e.SetText(text, additional)
		for _, in := range mediaInputs {
			e.Append(in.kind, added[in.kind]...)
		}
		return nil
	})
	if err != nil {
		slog.Error("content update failed", "platform", platform, "action", actionKey, "error", err)
		a.discard(ctx, stored)
		sess.AddFlash(session.FlashError, msgSaveFailed)
	} else {
		a.guides.Invalidate(ctx, platform, actionKey)
		slog.Info("content updated", "platform", platform, "action", actionKey,
			"images", len(added[models.MediaImage]), "videos", len(added[models.MediaVideo]))
		sess.AddFlash(session.FlashSuccess, msgUpdated)
	}

	if err := a.sessions.Save(ctx, w, sess); err != nil {
		slog.Error("session save failed", "error", err)
	}
	http.Redirect(w, r, adminPanel, http.StatusSeeOther)
}

// removeMediaRequest is the JSON body of RemoveMedia.
type removeMediaRequest struct {
	Platform  string `json:"platform"`
	Action    string `json:"action"`
	MediaType string `json:"media_type"`
	Index     *int   `json:"index"`
}

// RemoveMedia deletes one entry from a guide gallery. A stored file is
// deleted from the uploads backend before its reference is dropped.
func (a *Admin) RemoveMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req removeMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMediaError(w, msgInvalidRequest, http.StatusBadRequest)
		return
	}
	kind, err := models.ParseMediaKind(req.MediaType)
	if err != nil || req.Platform == "" || req.Action == "" || req.Index == nil {
		writeMediaError(w, msgInvalidRequest, http.StatusBadRequest)
		return
	}
	if err := a.repo.Validate(req.Platform, req.Action); err != nil {
		writeMediaError(w, "Content not found", http.StatusNotFound)
		return
	}

	removed, err := a.repo.RemoveMediaFunc(req.Platform, req.Action, kind, *req.Index, func(ref models.MediaRef) {
		if ref.IsURL() {
			return
		}
		if err := a.uploads.Delete(ctx, ref.Value); err != nil {
			slog.Warn("failed to delete upload", "ref", ref.Value, "error", err)
		}
	})
	switch {
	case errors.Is(err, content.ErrIndexOutOfRange):
		slog.Info("remove media index out of range", "platform", req.Platform, "action", req.Action,
			"kind", kind, "index", *req.Index)
	case err != nil:
		slog.Error("remove media failed", "platform", req.Platform, "action", req.Action, "error", err)
		writeMediaError(w, msgSaveFailed, http.StatusInternalServerError)
		return
	default:
		a.guides.Invalidate(ctx, req.Platform, req.Action)
		slog.Info("media removed", "platform", req.Platform, "action", req.Action, "kind", kind, "ref", removed.Value)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// DenyForm answers form posts from non-admins.
func (a *Admin) DenyForm(w http.ResponseWriter, r *http.Request) {
	flashRedirect(w, r, a.sessions, session.FlashError, msgUnauthorized, "/")
}

// DenyJSON answers JSON requests from non-admins.
func (a *Admin) DenyJSON(w http.ResponseWriter, r *http.Request) {
	writeMediaError(w, "Unauthorized", http.StatusUnauthorized)
}

// discard deletes uploads whose references never made it into the document.
func (a *Admin) discard(ctx context.Context, refs []models.MediaRef) {
	for _, ref := range refs {
		if err := a.uploads.Delete(ctx, ref.Value); err != nil {
			slog.Warn("failed to delete orphaned upload", "ref", ref.Value, "error", err)
		}
	}
}
