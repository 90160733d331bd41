package httpapi

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeErr(w, http.StatusBadRequest, msg, "validation_error")
}

func notFound(w http.ResponseWriter, msg string) {
	writeErr(w, http.StatusNotFound, msg, "not_found")
}

func forbidden(w http.ResponseWriter, msg string) {
	writeErr(w, http.StatusForbidden, msg, "forbidden")
}

func internalError(w http.ResponseWriter) {
	writeErr(w, http.StatusInternalServerError, "internal server error", "internal")
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeErr(w, http.StatusUnauthorized, msg, "unauthorized")
}

// unexpected logs err at ERROR with request context and writes a generic 500.
func (s *Server) unexpected(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.log.ErrorContext(r.Context(), "unexpected error", "req_id", chimw.GetReqID(r.Context()), "op", op, "err", err)
	internalError(w)
}
