// Package account implements the account rules: debit/credit field legality,
// validated partial updates, per-user unique names, and the ownership gate
// in front of every mutation.
package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tinoosan/accounts/internal/banking"
	"github.com/tinoosan/accounts/internal/errs"
	"github.com/tinoosan/accounts/internal/events"
)

type Repo interface {
	// GetAccount returns an account by id regardless of owner.
	GetAccount(ctx context.Context, accountID int64) (banking.Account, error)
	// GetAccountByName returns the user's account with the given name.
	GetAccountByName(ctx context.Context, userID int64, name string) (banking.Account, error)
	// GetUserAccount returns an account filtered by both id and owner.
	GetUserAccount(ctx context.Context, userID, accountID int64) (banking.Account, error)
	ListAccounts(ctx context.Context, userID int64) ([]banking.Account, error)
}

type Writer interface {
	// CreateAccount inserts a and returns it with the store-assigned id.
	CreateAccount(ctx context.Context, a banking.Account) (banking.Account, error)
	UpdateAccount(ctx context.Context, a banking.Account) (banking.Account, error)
	DeleteAccount(ctx context.Context, accountID int64) error
}

// Service is the account validation and mutation engine.
//
// Create returns a *errs.ValidationError for rule violations. Update never returns an
// error for business outcomes: they are reported through UpdateResult. Delete returns
// errs.ErrNotOwned or errs.ErrDeleteFailed for expected failures. Any other error
// from these methods is an unexpected fault.
type Service interface {
	ValidateCreate(ctx context.Context, in banking.CreateIntent, userID int64) (banking.Account, error)
	Create(ctx context.Context, in banking.CreateIntent, userID int64) (banking.Account, error)
	Update(ctx context.Context, accountID int64, p banking.Patch) (UpdateResult, error)
	Delete(ctx context.Context, accountID, userID int64) error
	IsOwner(ctx context.Context, accountID, userID int64) (bool, error)
	List(ctx context.Context, userID int64) ([]banking.Account, error)
	Get(ctx context.Context, accountID, userID int64) (banking.Account, error)
}

// Outcome classifies the result of an update.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNotFound
	OutcomeInvalid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// UpdateResult is the tri-state result of Update. Account is set only for OutcomeOK.
type UpdateResult struct {
	Outcome Outcome
	Message string
	Account banking.Account
}

const (
	msgUpdated         = "account updated successfully"
	msgAccountNotFound = "account not found"
)

type service struct {
	repo      Repo
	writer    Writer
	publisher events.Publisher
	log       *slog.Logger
}

// New builds the service. A nil publisher or logger falls back to a no-op.
func New(repo Repo, writer Writer, publisher events.Publisher, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if publisher == nil {
		publisher = events.NewLogPublisher(logger)
	}
	return &service{repo: repo, writer: writer, publisher: publisher, log: logger}
}

func (s *service) ValidateCreate(ctx context.Context, in banking.CreateIntent, userID int64) (banking.Account, error) {
	_, err := s.repo.GetAccountByName(ctx, userID, in.Name)
	switch {
	case err == nil:
		return banking.Account{}, errs.Invalid(MsgDuplicateName)
	case !errors.Is(err, errs.ErrNotFound):
		return banking.Account{}, fmt.Errorf("lookup account name: %w", err)
	}
	if err := CheckCreate(in); err != nil {
		return banking.Account{}, err
	}
	return banking.Account{
		UserID:         userID,
		Name:           in.Name,
		Classification: in.Classification,
		Balance:        in.Balance,
		CreditLimit:    in.CreditLimit,
		DueDay:         in.DueDay,
	}, nil
}

func (s *service) Create(ctx context.Context, in banking.CreateIntent, userID int64) (banking.Account, error) {
	acc, err := s.ValidateCreate(ctx, in, userID)
	if err != nil {
		if reason := errs.Reason(err); reason != "" {
			s.log.WarnContext(ctx, "account validation failed", "op", "create", "user_id", userID, "reason", reason)
			observe("create", "invalid")
		}
		return banking.Account{}, err
	}
	created, err := s.writer.CreateAccount(ctx, acc)
	if err != nil {
		if errors.Is(err, errs.ErrConflict) {
			s.log.WarnContext(ctx, "account name conflict on insert", "user_id", userID, "name", in.Name)
			observe("create", "invalid")
			return banking.Account{}, errs.Invalid(MsgDuplicateName)
		}
		return banking.Account{}, fmt.Errorf("create account: %w", err)
	}
	observe("create", "ok")
	s.emit(ctx, events.AccountCreated, created)
	return created, nil
}

func (s *service) Update(ctx context.Context, accountID int64, p banking.Patch) (UpdateResult, error) {
	existing, err := s.repo.GetAccount(ctx, accountID)
	if errors.Is(err, errs.ErrNotFound) {
		observe("update", "not_found")
		return UpdateResult{Outcome: OutcomeNotFound, Message: msgAccountNotFound}, nil
	}
	if err != nil {
		return UpdateResult{}, fmt.Errorf("load account %d: %w", accountID, err)
	}
	if p.Empty() {
		return UpdateResult{Outcome: OutcomeOK, Message: msgUpdated, Account: existing}, nil
	}
	if err := CheckPatch(p); err != nil {
		return s.invalid(ctx, accountID, err), nil
	}
	merged := Merge(existing, p)
	if err := CheckAccount(merged); err != nil {
		return s.invalid(ctx, accountID, err), nil
	}
	if p.Name != nil && *p.Name != existing.Name {
		other, err := s.repo.GetAccountByName(ctx, existing.UserID, *p.Name)
		switch {
		case err == nil && other.ID != existing.ID:
			return s.invalid(ctx, accountID, errs.Invalid(MsgDuplicateName)), nil
		case err != nil && !errors.Is(err, errs.ErrNotFound):
			return UpdateResult{}, fmt.Errorf("lookup account name: %w", err)
		}
	}
	updated, err := s.writer.UpdateAccount(ctx, merged)
	switch {
	case errors.Is(err, errs.ErrConflict):
		return s.invalid(ctx, accountID, errs.Invalid(MsgDuplicateName)), nil
	case errors.Is(err, errs.ErrNotFound):
		observe("update", "not_found")
		return UpdateResult{Outcome: OutcomeNotFound, Message: msgAccountNotFound}, nil
	case err != nil:
		return UpdateResult{}, fmt.Errorf("update account %d: %w", accountID, err)
	}
	observe("update", "ok")
	s.emit(ctx, events.AccountUpdated, updated)
	return UpdateResult{Outcome: OutcomeOK, Message: msgUpdated, Account: updated}, nil
}

func (s *service) invalid(ctx context.Context, accountID int64, err error) UpdateResult {
	reason := errs.Reason(err)
	s.log.WarnContext(ctx, "account validation failed", "op", "update", "account_id", accountID, "reason", reason)
	observe("update", "invalid")
	return UpdateResult{Outcome: OutcomeInvalid, Message: reason}
}

// Delete re-checks ownership itself and never calls the store delete for a foreign account.
func (s *service) Delete(ctx context.Context, accountID, userID int64) error {
	acc, err := s.repo.GetAccount(ctx, accountID)
	if errors.Is(err, errs.ErrNotFound) {
		observe("delete", "not_owned")
		return errs.ErrNotOwned
	}
	if err != nil {
		return fmt.Errorf("load account %d: %w", accountID, err)
	}
	if acc.UserID != userID {
		observe("delete", "not_owned")
		return errs.ErrNotOwned
	}
	if err := s.writer.DeleteAccount(ctx, accountID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			observe("delete", "failed")
			return fmt.Errorf("%w: account %d already removed", errs.ErrDeleteFailed, accountID)
		}
		return fmt.Errorf("delete account %d: %w", accountID, err)
	}
	observe("delete", "ok")
	s.emit(ctx, events.AccountDeleted, acc)
	return nil
}

func (s *service) IsOwner(ctx context.Context, accountID, userID int64) (bool, error) {
	_, err := s.repo.GetUserAccount(ctx, userID, accountID)
	if errors.Is(err, errs.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *service) List(ctx context.Context, userID int64) ([]banking.Account, error) {
	accs, err := s.repo.ListAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(accs) == 0 {
		s.log.DebugContext(ctx, "no accounts for user", "user_id", userID)
	}
	return accs, nil
}

func (s *service) Get(ctx context.Context, accountID, userID int64) (banking.Account, error) {
	return s.repo.GetUserAccount(ctx, userID, accountID)
}

// emit publishes a lifecycle event; failures are logged and never fail the mutation.
func (s *service) emit(ctx context.Context, kind string, a banking.Account) {
	ev := events.NewAccountEvent(kind, a.ID, a.UserID)
	if err := s.publisher.Publish(ctx, kind, ev); err != nil {
		s.log.WarnContext(ctx, "publish account event failed", "routing_key", kind, "account_id", a.ID, "err", err)
	}
}
