package httpapi

import (
	"errors"
	"net/http"

	chi "github.com/go-chi/chi/v5"

	"github.com/tinoosan/accounts/internal/auth"
	"github.com/tinoosan/accounts/internal/errs"
)

func (s *Server) postUser(w http.ResponseWriter, r *http.Request) {
	req, _ := r.Context().Value(ctxKeyPostUser).(postUserRequest)
	u, err := s.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if errors.Is(err, errs.ErrInvalid) {
		badRequest(w, errs.Reason(err))
		return
	}
	if err != nil {
		s.unexpected(w, r, "register user", err)
		return
	}
	s.log.InfoContext(r.Context(), "user registered", "user_id", u.ID)
	toJSON(w, http.StatusOK, toUserResponse(u))
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.GetByUsername(r.Context(), chi.URLParam(r, "username"))
	if errors.Is(err, errs.ErrNotFound) {
		notFound(w, "user not found")
		return
	}
	if err != nil {
		s.unexpected(w, r, "get user", err)
		return
	}
	toJSON(w, http.StatusOK, toUserResponse(u))
}

func (s *Server) postToken(w http.ResponseWriter, r *http.Request) {
	req, _ := r.Context().Value(ctxKeyPostToken).(postTokenRequest)
	u, err := s.users.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, errs.ErrUnauthorized) {
		unauthorized(w, "incorrect username or password")
		return
	}
	if err != nil {
		s.unexpected(w, r, "authenticate", err)
		return
	}
	tok, err := s.tokens.Issue(u.Username)
	if err != nil {
		s.unexpected(w, r, "issue token", err)
		return
	}
	toJSON(w, http.StatusOK, tokenResponse{AccessToken: tok, TokenType: auth.TokenType})
}
