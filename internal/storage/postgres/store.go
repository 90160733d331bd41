// Package postgres provides a pgx-backed storage implementation that satisfies
// the repository and writer interfaces used by the services.
//
// Migrations that create the expected schema live under db/migrations. Amounts
// travel as text in both directions so numeric(15,2) values never pass through
// a float.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/govalues/decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tinoosan/accounts/internal/banking"
	"github.com/tinoosan/accounts/internal/errs"
)

const uniqueViolation = "23505"

// Store holds a pgx connection pool. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
// maxConns <= 0 keeps the pgx default.
func Open(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// --- Users ---

func (s *Store) CreateUser(ctx context.Context, u banking.User) (banking.User, error) {
	err := s.pool.QueryRow(ctx, `
		insert into users (username, email, hashed_password)
		values ($1, $2, $3)
		returning id
	`, u.Username, u.Email, u.HashedPassword).Scan(&u.ID)
	if err != nil {
		return banking.User{}, mapWriteErr(err)
	}
	return u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (banking.User, error) {
	return s.getUser(ctx, `select id, username, email, hashed_password from users where username = $1`, username)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (banking.User, error) {
	return s.getUser(ctx, `select id, username, email, hashed_password from users where lower(email) = lower($1)`, email)
}

func (s *Store) getUser(ctx context.Context, query string, arg any) (banking.User, error) {
	var u banking.User
	err := s.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword)
	if errors.Is(err, pgx.ErrNoRows) {
		return banking.User{}, errs.ErrNotFound
	}
	if err != nil {
		return banking.User{}, err
	}
	return u, nil
}

// --- Account reads ---

const accountColumns = `id, user_id, name, is_credit, balance::text, credit_limit::text, due_day`

func (s *Store) GetAccount(ctx context.Context, accountID int64) (banking.Account, error) {
	row := s.pool.QueryRow(ctx, `select `+accountColumns+` from accounts where id = $1`, accountID)
	return scanAccount(row)
}

func (s *Store) GetAccountByName(ctx context.Context, userID int64, name string) (banking.Account, error) {
	row := s.pool.QueryRow(ctx, `select `+accountColumns+` from accounts where user_id = $1 and name = $2`, userID, name)
	return scanAccount(row)
}

// GetUserAccount fetches a single account by id for a user.
func (s *Store) GetUserAccount(ctx context.Context, userID, accountID int64) (banking.Account, error) {
	row := s.pool.QueryRow(ctx, `select `+accountColumns+` from accounts where id = $1 and user_id = $2`, accountID, userID)
	return scanAccount(row)
}

// ListAccounts returns all accounts for a user ordered by id.
func (s *Store) ListAccounts(ctx context.Context, userID int64) ([]banking.Account, error) {
	rows, err := s.pool.Query(ctx, `select `+accountColumns+` from accounts where user_id = $1 order by id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]banking.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- Account writes ---

func (s *Store) CreateAccount(ctx context.Context, a banking.Account) (banking.Account, error) {
	err := s.pool.QueryRow(ctx, `
		insert into accounts (user_id, name, is_credit, balance, credit_limit, due_day)
		values ($1, $2, $3, $4::numeric, $5::numeric, $6)
		returning id
	`, a.UserID, a.Name, a.IsCredit(), decimalArg(a.Balance), decimalArg(a.CreditLimit), a.DueDay).Scan(&a.ID)
	if err != nil {
		return banking.Account{}, mapWriteErr(err)
	}
	return a, nil
}

// UpdateAccount writes every mutable column of a. The owner never changes.
func (s *Store) UpdateAccount(ctx context.Context, a banking.Account) (banking.Account, error) {
	ct, err := s.pool.Exec(ctx, `
		update accounts
		set name = $1, is_credit = $2, balance = $3::numeric, credit_limit = $4::numeric, due_day = $5
		where id = $6
	`, a.Name, a.IsCredit(), decimalArg(a.Balance), decimalArg(a.CreditLimit), a.DueDay, a.ID)
	if err != nil {
		return banking.Account{}, mapWriteErr(err)
	}
	if ct.RowsAffected() == 0 {
		return banking.Account{}, errs.ErrNotFound
	}
	return s.GetAccount(ctx, a.ID)
}

func (s *Store) DeleteAccount(ctx context.Context, accountID int64) error {
	ct, err := s.pool.Exec(ctx, `delete from accounts where id = $1`, accountID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// scanAccount reads one row selected with accountColumns.
func scanAccount(row pgx.Row) (banking.Account, error) {
	var (
		a              banking.Account
		isCredit       bool
		balance, limit *string
		dueDay         *int32
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &isCredit, &balance, &limit, &dueDay)
	if errors.Is(err, pgx.ErrNoRows) {
		return banking.Account{}, errs.ErrNotFound
	}
	if err != nil {
		return banking.Account{}, err
	}
	a.Classification = banking.ClassificationOf(isCredit)
	if a.Balance, err = parseDecimal(balance); err != nil {
		return banking.Account{}, fmt.Errorf("account %d balance: %w", a.ID, err)
	}
	if a.CreditLimit, err = parseDecimal(limit); err != nil {
		return banking.Account{}, fmt.Errorf("account %d credit_limit: %w", a.ID, err)
	}
	if dueDay != nil {
		d := int(*dueDay)
		a.DueDay = &d
	}
	return a, nil
}

func parseDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func decimalArg(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// mapWriteErr turns unique violations into errs.ErrConflict.
func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", errs.ErrConflict, pgErr.ConstraintName)
	}
	return err
}
