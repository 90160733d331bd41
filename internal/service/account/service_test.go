package account_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/tinoosan/accounts/internal/banking"
	"github.com/tinoosan/accounts/internal/errs"
	"github.com/tinoosan/accounts/internal/events"
	"github.com/tinoosan/accounts/internal/service/account"
	"github.com/tinoosan/accounts/internal/storage/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// recordingPublisher captures routing keys of published events.
type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return p.err
}

func (p *recordingPublisher) Close() {}

// failingWriter wraps a store and fails the chosen write.
type failingWriter struct {
	account.Writer
	deleteErr error
	createErr error
	updateErr error
}

func (f failingWriter) CreateAccount(ctx context.Context, a banking.Account) (banking.Account, error) {
	if f.createErr != nil {
		return banking.Account{}, f.createErr
	}
	return f.Writer.CreateAccount(ctx, a)
}

func (f failingWriter) UpdateAccount(ctx context.Context, a banking.Account) (banking.Account, error) {
	if f.updateErr != nil {
		return banking.Account{}, f.updateErr
	}
	return f.Writer.UpdateAccount(ctx, a)
}

func (f failingWriter) DeleteAccount(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Writer.DeleteAccount(ctx, id)
}

func setup(t *testing.T) (*memory.Store, account.Service, *recordingPublisher, banking.User, banking.User) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	alice, err := store.CreateUser(ctx, banking.User{Username: "alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("seed alice: %v", err)
	}
	bob, err := store.CreateUser(ctx, banking.User{Username: "bob", Email: "bob@example.com"})
	if err != nil {
		t.Fatalf("seed bob: %v", err)
	}
	pub := &recordingPublisher{}
	return store, account.New(store, store, pub, testLogger()), pub, alice, bob
}

func wallet() banking.CreateIntent {
	return banking.CreateIntent{Name: "Wallet", Classification: banking.ClassificationDebit, Balance: dec("100.00")}
}

func TestCreate_AssignsOwnerAndPublishes(t *testing.T) {
	_, svc, pub, alice, _ := setup(t)
	acc, err := svc.Create(context.Background(), wallet(), alice.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if acc.ID == 0 || acc.UserID != alice.ID || acc.Balance.String() != "100.00" {
		t.Fatalf("unexpected account: %+v", acc)
	}
	if len(pub.keys) != 1 || pub.keys[0] != events.AccountCreated {
		t.Fatalf("expected created event, got %v", pub.keys)
	}
}

func TestCreate_DuplicateNamePerOwner(t *testing.T) {
	_, svc, _, alice, bob := setup(t)
	ctx := context.Background()
	if _, err := svc.Create(ctx, wallet(), alice.ID); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(ctx, wallet(), alice.ID)
	if errs.Reason(err) != account.MsgDuplicateName {
		t.Fatalf("expected duplicate name, got %v", err)
	}
	if _, err := svc.Create(ctx, wallet(), bob.ID); err != nil {
		t.Fatalf("other owner may reuse the name: %v", err)
	}
}

func TestCreate_StoreConflictBecomesDuplicateName(t *testing.T) {
	store, _, _, alice, _ := setup(t)
	svc := account.New(store, failingWriter{Writer: store, createErr: errs.ErrConflict}, nil, testLogger())
	_, err := svc.Create(context.Background(), wallet(), alice.ID)
	if !errors.Is(err, errs.ErrInvalid) || errs.Reason(err) != account.MsgDuplicateName {
		t.Fatalf("expected duplicate name, got %v", err)
	}
}

func TestCreate_PublishFailureDoesNotFail(t *testing.T) {
	store, _, _, alice, _ := setup(t)
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := account.New(store, store, pub, testLogger())
	if _, err := svc.Create(context.Background(), wallet(), alice.ID); err != nil {
		t.Fatalf("create must succeed without the broker: %v", err)
	}
}

func TestUpdate_Outcomes(t *testing.T) {
	_, svc, pub, alice, _ := setup(t)
	ctx := context.Background()
	acc, err := svc.Create(ctx, wallet(), alice.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	visa, err := svc.Create(ctx, banking.CreateIntent{Name: "Visa", Classification: banking.ClassificationCredit, CreditLimit: dec("500"), DueDay: day(10)}, alice.ID)
	if err != nil {
		t.Fatalf("create visa: %v", err)
	}

	res, err := svc.Update(ctx, 9999, banking.Patch{Balance: dec("1")})
	if err != nil || res.Outcome != account.OutcomeNotFound {
		t.Fatalf("expected not found, got %+v %v", res, err)
	}

	res, err = svc.Update(ctx, acc.ID, banking.Patch{Balance: dec("-5")})
	if err != nil || res.Outcome != account.OutcomeInvalid || res.Message != account.MsgBalancePositive {
		t.Fatalf("expected invalid balance, got %+v %v", res, err)
	}

	res, err = svc.Update(ctx, acc.ID, banking.Patch{Name: str("Visa")})
	if err != nil || res.Outcome != account.OutcomeInvalid || res.Message != account.MsgDuplicateName {
		t.Fatalf("expected duplicate name on rename, got %+v %v", res, err)
	}

	res, err = svc.Update(ctx, visa.ID, banking.Patch{CreditLimit: dec("750"), DueDay: day(20)})
	if err != nil || res.Outcome != account.OutcomeOK {
		t.Fatalf("expected ok, got %+v %v", res, err)
	}
	if res.Account.CreditLimit.String() != "750" || *res.Account.DueDay != 20 || res.Message != "account updated successfully" {
		t.Fatalf("unexpected updated account: %+v", res)
	}

	res, err = svc.Update(ctx, acc.ID, banking.Patch{Balance: dec("42")})
	if err != nil || res.Outcome != account.OutcomeOK || res.Account.Balance.String() != "42" {
		t.Fatalf("expected balance update, got %+v %v", res, err)
	}
	got, _ := svc.Get(ctx, acc.ID, alice.ID)
	if got.Balance.String() != "42" || got.Name != "Wallet" {
		t.Fatalf("update not persisted: %+v", got)
	}
	if n := len(pub.keys); n != 4 || pub.keys[n-1] != events.AccountUpdated {
		t.Fatalf("unexpected events: %v", pub.keys)
	}
}

func TestUpdate_EmptyPatchIsNoop(t *testing.T) {
	_, svc, _, alice, _ := setup(t)
	ctx := context.Background()
	acc, _ := svc.Create(ctx, wallet(), alice.ID)
	res, err := svc.Update(ctx, acc.ID, banking.Patch{})
	if err != nil || res.Outcome != account.OutcomeOK || res.Account.Balance.Cmp(*acc.Balance) != 0 {
		t.Fatalf("unexpected result: %+v %v", res, err)
	}
}

func TestIsOwner(t *testing.T) {
	_, svc, _, alice, bob := setup(t)
	ctx := context.Background()
	acc, _ := svc.Create(ctx, wallet(), alice.ID)
	cases := []struct {
		name      string
		accountID int64
		userID    int64
		want      bool
	}{
		{"owner", acc.ID, alice.ID, true},
		{"other user", acc.ID, bob.ID, false},
		{"missing account", acc.ID + 100, alice.ID, false},
	}
	for _, tc := range cases {
		ok, err := svc.IsOwner(ctx, tc.accountID, tc.userID)
		if err != nil || ok != tc.want {
			t.Fatalf("%s: got %v %v", tc.name, ok, err)
		}
	}
}

func TestDelete(t *testing.T) {
	store, svc, pub, alice, bob := setup(t)
	ctx := context.Background()
	acc, _ := svc.Create(ctx, wallet(), alice.ID)

	if err := svc.Delete(ctx, acc.ID, bob.ID); !errors.Is(err, errs.ErrNotOwned) {
		t.Fatalf("expected not owned, got %v", err)
	}
	if _, err := store.GetAccount(ctx, acc.ID); err != nil {
		t.Fatalf("foreign delete removed the account: %v", err)
	}
	if err := svc.Delete(ctx, acc.ID, alice.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, acc.ID, alice.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := svc.Delete(ctx, acc.ID, alice.ID); !errors.Is(err, errs.ErrNotOwned) {
		t.Fatalf("expected not owned for missing account, got %v", err)
	}
	if pub.keys[len(pub.keys)-1] != events.AccountDeleted {
		t.Fatalf("expected deleted event, got %v", pub.keys)
	}
}

func TestDelete_StoreFailures(t *testing.T) {
	store, _, _, alice, _ := setup(t)
	ctx := context.Background()

	gone := account.New(store, failingWriter{Writer: store, deleteErr: errs.ErrNotFound}, nil, testLogger())
	acc, _ := gone.Create(ctx, wallet(), alice.ID)
	if err := gone.Delete(ctx, acc.ID, alice.ID); !errors.Is(err, errs.ErrDeleteFailed) {
		t.Fatalf("expected delete failed, got %v", err)
	}

	boom := errors.New("connection reset")
	broken := account.New(store, failingWriter{Writer: store, deleteErr: boom}, nil, testLogger())
	err := broken.Delete(ctx, acc.ID, alice.ID)
	if !errors.Is(err, boom) || errors.Is(err, errs.ErrDeleteFailed) || errors.Is(err, errs.ErrNotOwned) {
		t.Fatalf("expected unexpected error, got %v", err)
	}
}

func TestList_ScopedToOwner(t *testing.T) {
	_, svc, _, alice, bob := setup(t)
	ctx := context.Background()
	_, _ = svc.Create(ctx, wallet(), alice.ID)
	mine, err := svc.List(ctx, alice.ID)
	if err != nil || len(mine) != 1 {
		t.Fatalf("alice list: %v %v", mine, err)
	}
	theirs, err := svc.List(ctx, bob.ID)
	if err != nil || len(theirs) != 0 {
		t.Fatalf("bob list: %v %v", theirs, err)
	}
}

func TestUpdate_StoreFailures(t *testing.T) {
	store, svc, _, alice, _ := setup(t)
	ctx := context.Background()
	acc, err := svc.Create(ctx, wallet(), alice.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	rename := "Savings"

	raced := account.New(store, failingWriter{Writer: store, updateErr: errs.ErrConflict}, nil, testLogger())
	res, err := raced.Update(ctx, acc.ID, banking.Patch{Name: &rename})
	if err != nil {
		t.Fatalf("conflict must be an outcome, got error %v", err)
	}
	if res.Outcome != account.OutcomeInvalid || res.Message != account.MsgDuplicateName {
		t.Fatalf("expected duplicate name outcome, got %+v", res)
	}

	broken := account.New(store, failingWriter{Writer: store, updateErr: errors.New("connection reset")}, nil, testLogger())
	res, err = broken.Update(ctx, acc.ID, banking.Patch{Name: &rename})
	if err == nil {
		t.Fatalf("expected unexpected error to be returned, got outcome %+v", res)
	}
	if errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("store fault must not look like a validation error: %v", err)
	}

	got, err := svc.Get(ctx, acc.ID, alice.ID)
	if err != nil || got.Name != "Wallet" {
		t.Fatalf("account must be unchanged, got %+v %v", got, err)
	}
}
