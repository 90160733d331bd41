package banking

import (
	"github.com/govalues/decimal"
)

// Classification governs which amount fields an account may carry.
type Classification string

const (
	// ClassificationDebit accounts hold a balance.
	ClassificationDebit Classification = "DEBIT"
	// ClassificationCredit accounts hold a credit limit and a monthly due day.
	ClassificationCredit Classification = "CREDIT"
)

// ClassificationOf maps the persisted is_credit flag to a Classification.
func ClassificationOf(isCredit bool) Classification {
	if isCredit {
		return ClassificationCredit
	}
	return ClassificationDebit
}

// User owns zero or more accounts.
type User struct {
	ID             int64
	Username       string
	Email          string
	HashedPassword string
}

// Account is a personal debit or credit account belonging to a single user.
// Balance is set only for debit accounts; CreditLimit and DueDay only for credit accounts.
type Account struct {
	ID             int64
	UserID         int64
	Name           string
	Classification Classification
	Balance        *decimal.Decimal
	CreditLimit    *decimal.Decimal
	DueDay         *int
}

// IsCredit reports whether the account is a credit account.
func (a Account) IsCredit() bool { return a.Classification == ClassificationCredit }

// CreateIntent carries the caller-supplied fields for a new account.
type CreateIntent struct {
	Name           string
	Classification Classification
	Balance        *decimal.Decimal
	CreditLimit    *decimal.Decimal
	DueDay         *int
}

// Patch is a partial account update; nil fields are left untouched.
// A nil Classification means the update does not touch the account type.
type Patch struct {
	Name           *string
	Classification *Classification
	Balance        *decimal.Decimal
	CreditLimit    *decimal.Decimal
	DueDay         *int
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Classification == nil && p.Balance == nil && p.CreditLimit == nil && p.DueDay == nil
}
