package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/tinoosan/accounts/internal/errs"
)

// validatePostUser decodes and checks the registration body.
func (s *Server) validatePostUser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postUserRequest
			if err := decodeJSON(r, &req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			req.Username = strings.TrimSpace(req.Username)
			req.Email = strings.TrimSpace(req.Email)
			if err := s.validate.Struct(req); err != nil {
				badRequest(w, validationMessage(err))
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostUser, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validatePostToken accepts either a JSON body or an OAuth2 password form.
func (s *Server) validatePostToken() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postTokenRequest
			if strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/x-www-form-urlencoded") {
				if err := r.ParseForm(); err != nil {
					badRequest(w, "invalid form body")
					return
				}
				req.Username = r.PostForm.Get("username")
				req.Password = r.PostForm.Get("password")
			} else if err := decodeJSON(r, &req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			if err := s.validate.Struct(req); err != nil {
				badRequest(w, validationMessage(err))
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostToken, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validatePostAccount decodes the create body into a CreateIntent for the handler.
func (s *Server) validatePostAccount() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req postAccountRequest
			if err := decodeJSON(r, &req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			if err := s.validate.Struct(req); err != nil {
				badRequest(w, validationMessage(err))
				return
			}
			in, err := s.toCreateIntent(req)
			if err != nil {
				badRequest(w, errs.Reason(err))
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPostAccount, in)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validatePatchAccount decodes a partial update. Business rules run in the service.
func (s *Server) validatePatchAccount() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req patchAccountRequest
			if err := decodeJSON(r, &req); err != nil {
				badRequest(w, "invalid JSON: "+err.Error())
				return
			}
			if err := s.validate.Struct(req); err != nil {
				badRequest(w, validationMessage(err))
				return
			}
			p, err := s.toPatch(req)
			if err != nil {
				badRequest(w, errs.Reason(err))
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyPatchAccount, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
