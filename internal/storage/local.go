// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Local stores uploads in a directory on disk.
type Local struct {
	dir     string
	urlBase string
}

// NewLocal creates the upload directory if needed. urlBase is the path the
// directory is served under, e.g. "/static/uploads".
func NewLocal(dir, urlBase string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: dir, urlBase: strings.TrimRight(urlBase, "/")}, nil
}

// Dir returns the upload directory.
func (l *Local) Dir() string {
	return l.dir
}

// Put writes body to <dir>/<name>. name must be a flat file name.
func (l *Local) Put(_ context.Context, name, _ string, body io.Reader, _ int64) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("local put %q: %w", name, ErrInvalidRef)
	}

	dst := filepath.Join(l.dir, name)
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("local put %s: %w", name, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("local write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("local close %s: %w", name, err)
	}
	return RefPrefix + name, nil
}

// Delete removes the file behind ref.
func (l *Local) Delete(_ context.Context, ref string) error {
	name, err := nameFromRef(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(l.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("local delete %s: %w", name, err)
	}
	return nil
}

// URL returns the served path of ref. Only the last path element of ref
// is used.
func (l *Local) URL(ref string) string {
	return l.urlBase + "/" + path.Base(ref)
}
