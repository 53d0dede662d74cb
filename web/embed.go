// Package web provides the embedded stylesheet and script of the public and
// admin pages. They are served at /static/.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:static
var staticFS embed.FS

// Static returns the asset tree rooted at web/static, so css/app.css is
// served as /static/css/app.css.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("web: " + err.Error())
	}
	return sub
}
