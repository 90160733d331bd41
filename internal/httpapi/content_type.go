package httpapi

import (
	"mime"
	"net/http"
)

// requireJSON rejects bodies that are not declared as application/json with 415.
func requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mt != "application/json" {
			writeErr(w, http.StatusUnsupportedMediaType, "content type must be application/json", "unsupported_media_type")
			return
		}
		next.ServeHTTP(w, r)
	})
}
