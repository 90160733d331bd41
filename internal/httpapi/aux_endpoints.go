package httpapi

import (
	"net/http"
)

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	toJSON(w, http.StatusOK, map[string]string{"message": "Hello, World!"})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

// readyz pings the store when one is configured.
func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready.Ready(r.Context()); err != nil {
			s.log.WarnContext(r.Context(), "readiness check failed", "err", err)
			writeErr(w, http.StatusServiceUnavailable, "store unavailable", "not_ready")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}
