// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"masteraccount/internal/models"
	"masteraccount/internal/slug"
	"masteraccount/internal/storage"
)

// maxImagePixels caps the number of pixels to prevent memory bombs.
// 10000x10000 = 100 million pixels, ~400 MB decoded in RGBA.
const maxImagePixels = 100_000_000

var (
	errInvalidFileType = errors.New("invalid file type")
	errImageTooLarge   = errors.New("image dimensions too large")
)

// allowedExtensions lists the accepted file extensions per media kind.
var allowedExtensions = map[models.MediaKind]map[string]bool{
	models.MediaImage: {".png": true, ".jpg": true, ".jpeg": true, ".gif": true},
	models.MediaVideo: {".mp4": true, ".webm": true, ".ogg": true},
}

// allowedMediaTypes defines sniffed MIME types accepted per media kind.
var allowedMediaTypes = map[models.MediaKind]map[string]bool{
	models.MediaImage: {"image/png": true, "image/jpeg": true, "image/gif": true},
	models.MediaVideo: {"video/mp4": true, "video/webm": true, "application/ogg": true},
}

// kindTag is the short kind marker used in generated upload names.
var kindTag = map[models.MediaKind]string{
	models.MediaImage: "img",
	models.MediaVideo: "vid",
}

// uploadName builds the stored name of an upload:
// {platform}_{action}_{img|vid}_{uuid}{.ext}.
func uploadName(platform, actionKey string, kind models.MediaKind, ext string) string {
	base := slug.Filename(fmt.Sprintf("%s_%s_%s_%s", platform, actionKey, kindTag[kind], uuid.NewString()))
	return base + strings.ToLower(ext)
}

// storeUpload validates one uploaded file and writes it to the backend.
// The extension must be on the allow-list for kind and the sniffed
// content type must agree with it.
func storeUpload(ctx context.Context, backend storage.Backend, platform, actionKey string, kind models.MediaKind, fh *multipart.FileHeader) (models.MediaRef, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExtensions[kind][ext] {
		return models.MediaRef{}, fmt.Errorf("%s extension %q: %w", kind, ext, errInvalidFileType)
	}

	f, err := fh.Open()
	if err != nil {
		return models.MediaRef{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	// Detect content type by sniffing the first 512 bytes.
	sniffBuf := make([]byte, 512)
	n, err := f.Read(sniffBuf)
	if err != nil && err != io.EOF {
		return models.MediaRef{}, fmt.Errorf("read upload: %w", err)
	}
	contentType := http.DetectContentType(sniffBuf[:n])
	if !allowedMediaTypes[kind][contentType] {
		return models.MediaRef{}, fmt.Errorf("%s content %q: %w", kind, contentType, errInvalidFileType)
	}

	if kind == models.MediaImage {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return models.MediaRef{}, fmt.Errorf("rewind upload: %w", err)
		}
		cfg, _, err := image.DecodeConfig(f)
		if err != nil {
			return models.MediaRef{}, fmt.Errorf("decode image: %w", errInvalidFileType)
		}
		if cfg.Width*cfg.Height > maxImagePixels {
			return models.MediaRef{}, errImageTooLarge
		}
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return models.MediaRef{}, fmt.Errorf("rewind upload: %w", err)
	}

	ref, err := backend.Put(ctx, uploadName(platform, actionKey, kind, ext), contentType, f, fh.Size)
	if err != nil {
		return models.MediaRef{}, err
	}
	return models.StoredRef(ref), nil
}
