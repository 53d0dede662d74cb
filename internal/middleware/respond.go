package middleware

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"
)

// wantsJSON reports whether the caller is a script expecting a JSON reply:
// it sent a JSON body or asked for JSON.
func wantsJSON(r *http.Request) bool {
	if ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && ct == "application/json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// fail writes an error in the shape the caller expects. Scripts get the
// {"success": false, "error": msg} body the admin endpoints use.
func fail(w http.ResponseWriter, r *http.Request, msg string, status int) {
	if !wantsJSON(r) {
		http.Error(w, msg, status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}
