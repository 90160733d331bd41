package httpapi

import (
	"errors"
	"net/http"

	"github.com/tinoosan/accounts/internal/banking"
	"github.com/tinoosan/accounts/internal/errs"
	"github.com/tinoosan/accounts/internal/service/account"
)

// postAccount creates an account for the caller from the validated CreateIntent.
func (s *Server) postAccount(w http.ResponseWriter, r *http.Request) {
	in, ok := r.Context().Value(ctxKeyPostAccount).(banking.CreateIntent)
	if !ok {
		badRequest(w, "invalid request")
		return
	}
	acc, err := s.accounts.Create(r.Context(), in, currentUser(r).ID)
	if errors.Is(err, errs.ErrInvalid) {
		badRequest(w, errs.Reason(err))
		return
	}
	if err != nil {
		s.unexpected(w, r, "create account", err)
		return
	}
	toJSON(w, http.StatusCreated, s.toAccountResponse(acc))
}

// listAccounts returns the caller's accounts; an empty list is a 404.
func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	accs, err := s.accounts.List(r.Context(), currentUser(r).ID)
	if err != nil {
		s.unexpected(w, r, "list accounts", err)
		return
	}
	if len(accs) == 0 {
		notFound(w, "no accounts found for this user")
		return
	}
	out := make([]accountResponse, 0, len(accs))
	for _, a := range accs {
		out = append(out, s.toAccountResponse(a))
	}
	toJSON(w, http.StatusOK, out)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	acc, err := s.accounts.Get(r.Context(), accountIDFrom(r), currentUser(r).ID)
	if errors.Is(err, errs.ErrNotFound) {
		notFound(w, "account not found")
		return
	}
	if err != nil {
		s.unexpected(w, r, "get account", err)
		return
	}
	toJSON(w, http.StatusOK, s.toAccountResponse(acc))
}

// updateAccount applies a partial update. Ownership was checked by requireOwner.
func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	p, ok := r.Context().Value(ctxKeyPatchAccount).(banking.Patch)
	if !ok {
		badRequest(w, "invalid request")
		return
	}
	res, err := s.accounts.Update(r.Context(), accountIDFrom(r), p)
	if err != nil {
		s.unexpected(w, r, "update account", err)
		return
	}
	switch res.Outcome {
	case account.OutcomeOK:
		toJSON(w, http.StatusOK, updateAccountResponse{Message: res.Message, Data: s.toAccountResponse(res.Account)})
	case account.OutcomeNotFound:
		notFound(w, res.Message)
	default:
		badRequest(w, res.Message)
	}
}

// deleteAccount removes the caller's account. Ownership was checked by requireOwner.
func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	err := s.accounts.Delete(r.Context(), accountIDFrom(r), currentUser(r).ID)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, errs.ErrNotOwned), errors.Is(err, errs.ErrDeleteFailed):
		s.log.WarnContext(r.Context(), "account delete failed", "account_id", accountIDFrom(r), "err", err)
		writeErr(w, http.StatusBadRequest, "failed to delete account", "delete_failed")
	default:
		s.unexpected(w, r, "delete account", err)
	}
}
