// Package httpapi wires the HTTP surface of the accounts service.
// It keeps handlers thin, delegating business rules to the service layer.
package httpapi

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/govalues/money"

	"github.com/tinoosan/accounts/internal/ratelimit"
	"github.com/tinoosan/accounts/internal/service/account"
	"github.com/tinoosan/accounts/internal/service/user"
)

// Options carries the collaborators of the HTTP server.
// Limiter and Ready may be nil.
type Options struct {
	Accounts       account.Service
	Users          user.Service
	Tokens         TokenService
	Limiter        ratelimit.Limiter
	Ready          ReadinessChecker
	Currency       string
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server wires handlers and middleware using Chi.
type Server struct {
	accounts account.Service
	users    user.Service
	tokens   TokenService
	limiter  ratelimit.Limiter
	ready    ReadinessChecker
	curr     money.Currency
	validate *validator.Validate
	log      *slog.Logger
	rt       *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
func New(opts Options) (*Server, error) {
	curr, err := money.ParseCurr(opts.Currency)
	if err != nil {
		return nil, fmt.Errorf("currency %q: %w", opts.Currency, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s := &Server{
		accounts: opts.Accounts,
		users:    opts.Users,
		tokens:   opts.Tokens,
		limiter:  limiter,
		ready:    opts.Ready,
		curr:     curr,
		validate: newValidator(),
		log:      logger,
		rt:       r,
	}
	s.routes()
	return s, nil
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route middleware.
func (s *Server) routes() {
	s.rt.Get("/", s.root)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())

	// Users and tokens
	s.rt.With(requireJSON, s.validatePostUser()).Post("/users", s.postUser)
	s.rt.With(requireJSON, s.validatePostUser()).Post("/users/", s.postUser)
	s.rt.Get("/users/{username}", s.getUser)
	s.rt.With(s.throttleLogin, s.validatePostToken()).Post("/token", s.postToken)

	// Accounts, all scoped to the authenticated caller
	s.rt.Route("/accounts", func(r chi.Router) {
		r.Use(s.authenticate)
		r.With(requireJSON, s.validatePostAccount()).Post("/", s.postAccount)
		r.Get("/", s.listAccounts)
		r.With(s.accountID).Get("/{id}", s.getAccount)
		r.With(s.accountID, s.requireOwner, requireJSON, s.validatePatchAccount()).Patch("/{id}", s.updateAccount)
		r.With(s.accountID, s.requireOwner).Delete("/{id}", s.deleteAccount)
	})
}
