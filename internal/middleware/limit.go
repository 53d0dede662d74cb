package middleware

import "net/http"

// LimitBody rejects requests whose body exceeds max bytes. Declared sizes
// are refused up front with 413; undeclared bodies are cut off by
// http.MaxBytesReader so form parsing fails instead of buffering them.
func LimitBody(max int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > max {
				http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, max)
			next.ServeHTTP(w, r)
		})
	}
}
