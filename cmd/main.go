package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/govalues/decimal"

	"github.com/tinoosan/accounts/internal/auth"
	"github.com/tinoosan/accounts/internal/banking"
	"github.com/tinoosan/accounts/internal/config"
	"github.com/tinoosan/accounts/internal/errs"
	"github.com/tinoosan/accounts/internal/events"
	"github.com/tinoosan/accounts/internal/httpapi"
	"github.com/tinoosan/accounts/internal/ratelimit"
	"github.com/tinoosan/accounts/internal/service/account"
	"github.com/tinoosan/accounts/internal/service/user"
	"github.com/tinoosan/accounts/internal/storage/memory"
	pgstore "github.com/tinoosan/accounts/internal/storage/postgres"
)

// backend is satisfied by both the memory and the Postgres store.
type backend interface {
	account.Repo
	account.Writer
	user.Repo
	user.Writer
	Ready(ctx context.Context) error
}

const (
	devUsername = "demo"
	devPassword = "demo-password"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Warn("failed to load .env; using environment values", "err", err)
	}
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	// Logger (slog to stdout). Level via LOG_LEVEL; format via LOG_FORMAT (json|text, default json)
	logger := buildLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	var store backend
	var closeFn func()
	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		pg, err := pgstore.Open(ctx, dsn, cfg.DBMaxConns)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		store = pg
		closeFn = pg.Close
		logger.Info("storage backend: postgres")
	} else {
		store = memory.New()
		logger.Info("storage backend: memory")
	}

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()
	limiter, closeLimiter := newLimiter(ctx, cfg, logger)
	defer closeLimiter()

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.JWTIssuer, cfg.AccessTokenTTL())
	if err != nil {
		logger.Error("invalid token settings", "err", err)
		os.Exit(1)
	}
	accounts := account.New(store, store, publisher, logger)
	users := user.New(store, store, auth.NewHasher(cfg.BcryptCost))

	if cfg.DevSeed {
		u, accs, err := devSeed(ctx, users, accounts)
		if err != nil {
			logger.Error("dev seed failed", "err", err)
		} else {
			logDevSeed(logger, u, accs)
			printDevSeedBanner(u, accs)
		}
	}

	api, err := httpapi.New(httpapi.Options{
		Accounts:       accounts,
		Users:          users,
		Tokens:         tokens,
		Limiter:        limiter,
		Ready:          store,
		Currency:       cfg.Currency,
		AllowedOrigins: cfg.AllowedOrigins(),
		Logger:         logger,
	})
	if err != nil {
		logger.Error("failed to build http api", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("accounts service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

// newPublisher connects to RabbitMQ when configured and falls back to logging events.
func newPublisher(cfg config.Config, l *slog.Logger) events.Publisher {
	if strings.TrimSpace(cfg.RabbitMQURL) == "" {
		l.Info("event publisher: log only")
		return events.NewLogPublisher(l)
	}
	p, err := events.NewProducer(cfg.RabbitMQURL, cfg.AccountEventsExchange, l)
	if err != nil {
		l.Warn("rabbitmq unavailable; events will only be logged", "err", err)
		return events.NewLogPublisher(l)
	}
	l.Info("event publisher: rabbitmq", "exchange", cfg.AccountEventsExchange)
	return p
}

// newLimiter builds the login throttle and a func that releases its connection.
// Without Redis logins are not throttled.
func newLimiter(ctx context.Context, cfg config.Config, l *slog.Logger) (ratelimit.Limiter, func()) {
	noop := func() {}
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return ratelimit.Noop{}, noop
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	client, err := ratelimit.Connect(pingCtx, cfg.RedisURL)
	if err != nil {
		l.Warn("redis unavailable; login throttle disabled", "err", err)
		return ratelimit.Noop{}, noop
	}
	l.Info("login throttle: redis", "limit", cfg.LoginRateLimit, "window", cfg.LoginRateWindow.String())
	closeFn := func() {
		if err := client.Close(); err != nil {
			l.Warn("close redis client", "err", err)
		}
	}
	return ratelimit.NewRedis(client, "accounts:rate_limit", cfg.LoginRateLimit, cfg.LoginRateWindow), closeFn
}

// devSeed creates the demo user with one debit and one credit account.
// Running it again against a persistent store reuses what exists.
func devSeed(ctx context.Context, users user.Service, accounts account.Service) (banking.User, []banking.Account, error) {
	u, err := users.Register(ctx, devUsername, "demo@example.com", devPassword)
	if errors.Is(err, errs.ErrInvalid) {
		u, err = users.Authenticate(ctx, devUsername, devPassword)
	}
	if err != nil {
		return banking.User{}, nil, fmt.Errorf("seed user: %w", err)
	}
	checking := decimal.MustParse("1500.00")
	limit := decimal.MustParse("2000.00")
	due := 10
	intents := []banking.CreateIntent{
		{Name: "Checking", Classification: banking.ClassificationDebit, Balance: &checking},
		{Name: "Credit Card", Classification: banking.ClassificationCredit, CreditLimit: &limit, DueDay: &due},
	}
	for _, in := range intents {
		if _, err := accounts.Create(ctx, in, u.ID); err != nil && !errors.Is(err, errs.ErrInvalid) {
			return banking.User{}, nil, fmt.Errorf("seed account %q: %w", in.Name, err)
		}
	}
	accs, err := accounts.List(ctx, u.ID)
	if err != nil {
		return banking.User{}, nil, err
	}
	return u, accs, nil
}

// logDevSeed emits structured logs with useful IDs
func logDevSeed(l *slog.Logger, u banking.User, accs []banking.Account) {
	ids := map[string]int64{}
	for _, a := range accs {
		ids[strings.ToLower(string(a.Classification))+"_account_id"] = a.ID
	}
	l.Info("DEV seed", "user_id", u.ID, "username", u.Username, "ids", ids)
}

// printDevSeedBanner prints a simple banner to stdout for easy copy/paste of credentials
func printDevSeedBanner(u banking.User, accs []banking.Account) {
	fmt.Println("==================== DEV SEED ====================")
	fmt.Printf("username: %s\npassword: %s\n", u.Username, devPassword)
	for _, a := range accs {
		fmt.Printf("%s account %q: id=%d\n", strings.ToLower(string(a.Classification)), a.Name, a.ID)
	}
	fmt.Println("==================================================")
}

// parseLogLevel maps config values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
