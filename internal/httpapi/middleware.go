package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tinoosan/accounts/internal/banking"
	"github.com/tinoosan/accounts/internal/errs"
)

type ctxKey string

const (
	ctxKeyUser         ctxKey = "authenticatedUser"
	ctxKeyAccountID    ctxKey = "accountID"
	ctxKeyPostUser     ctxKey = "validatedPostUser"
	ctxKeyPostToken    ctxKey = "validatedPostToken"
	ctxKeyPostAccount  ctxKey = "validatedPostAccount"
	ctxKeyPatchAccount ctxKey = "validatedPatchAccount"
)

// requestLogger logs basic request info at INFO.
func requestLogger(l *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			reqID := chimw.GetReqID(r.Context())
			l.Info("request started", "req_id", reqID, "method", r.Method, "path", r.URL.Path)

			next.ServeHTTP(ww, r)

			l.Info("request complete",
				"req_id", reqID,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).String(),
			)
		})
	}
}

// recoverer logs panics as ERROR and returns 500.
func recoverer(l *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					reqID := chimw.GetReqID(r.Context())
					l.Error("panic", "req_id", reqID, "err", rec, "stack", string(debug.Stack()))
					internalError(w)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// authenticate resolves the bearer token to a live user and stores it in the context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := parseBearerToken(r)
		if !ok {
			unauthorized(w, "not authenticated")
			return
		}
		username, err := s.tokens.Verify(tok)
		if err != nil {
			s.log.DebugContext(r.Context(), "token rejected", "req_id", chimw.GetReqID(r.Context()), "err", err)
			unauthorized(w, "could not validate credentials")
			return
		}
		u, err := s.users.GetByUsername(r.Context(), username)
		if errors.Is(err, errs.ErrNotFound) {
			unauthorized(w, "could not validate credentials")
			return
		}
		if err != nil {
			s.unexpected(w, r, "load token subject", err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyUser, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func parseBearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, tok, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

// currentUser returns the user stored by authenticate.
func currentUser(r *http.Request) banking.User {
	u, _ := r.Context().Value(ctxKeyUser).(banking.User)
	return u
}

// accountID parses the {id} URL parameter.
func (s *Server) accountID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			badRequest(w, "invalid account id")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyAccountID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func accountIDFrom(r *http.Request) int64 {
	id, _ := r.Context().Value(ctxKeyAccountID).(int64)
	return id
}

// requireOwner rejects mutations on accounts the caller does not own.
func (s *Server) requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := currentUser(r)
		id := accountIDFrom(r)
		ok, err := s.accounts.IsOwner(r.Context(), id, u.ID)
		if err != nil {
			s.unexpected(w, r, "ownership check", err)
			return
		}
		if !ok {
			s.log.WarnContext(r.Context(), "account access denied", "req_id", chimw.GetReqID(r.Context()), "account_id", id, "user_id", u.ID)
			forbidden(w, "account does not belong to user")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// throttleLogin limits token requests per client address. Limiter faults let the request through.
func (s *Server) throttleLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, retryAfter, err := s.limiter.Allow(r.Context(), "token:"+clientIP(r))
		if err != nil {
			s.log.WarnContext(r.Context(), "login rate limiter unavailable", "req_id", chimw.GetReqID(r.Context()), "err", err)
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeErr(w, http.StatusTooManyRequests, "too many login attempts", "rate_limited")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr, which RealIP has already rewritten.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
