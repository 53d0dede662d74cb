// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import "net/http"

// contentSecurityPolicy lets guide galleries load images and video from any
// host while pages, scripts and styles stay on this origin.
const contentSecurityPolicy = "default-src 'self'; " +
	"img-src * data:; media-src *; " +
	"style-src 'self'; script-src 'self'; " +
	"frame-ancestors 'self'"

// staticHeaders are sent unchanged on every response. The admin panel must
// not be framed by another site, and no page needs the camera, microphone
// or location.
var staticHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "SAMEORIGIN"},
	{"X-XSS-Protection", "0"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Content-Security-Policy", contentSecurityPolicy},
	{"Permissions-Policy", "camera=(), microphone=(), geolocation=()"},
}

// SecureHeaders sets the browser policy headers of the guides site.
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range staticHeaders {
			h.Set(kv[0], kv[1])
		}
		next.ServeHTTP(w, r)
	})
}
