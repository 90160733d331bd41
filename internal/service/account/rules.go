package account

import (
	"unicode/utf8"

	"github.com/govalues/decimal"
	"github.com/tinoosan/accounts/internal/banking"
	"github.com/tinoosan/accounts/internal/errs"
)

// Client-facing rule violation messages.
const (
	MsgDuplicateName          = "an account with this name already exists"
	MsgNameLength             = "name must be between 2 and 50 characters"
	MsgCreditLimitRequired    = "credit accounts require a limit"
	MsgCreditNoBalance        = "credit accounts may not carry a balance"
	MsgCreditDueDay           = "credit accounts require a due day in range"
	MsgCreditLimitFormat      = "invalid credit limit format"
	MsgDebitNoCreditFields    = "debit accounts may not carry credit fields"
	MsgDebitBalanceRequired   = "debit accounts require a balance"
	MsgDebitBalancePositive   = "debit accounts require a positive balance"
	MsgBalanceFormat          = "invalid balance format"
	MsgBalancePositive        = "balance must be greater than zero"
	MsgCreditLimitNegative    = "credit limit must not be negative"
	MsgLimitAndDueDayTogether = "update limit and due day together"
	MsgUnknownClassification  = "classification must be DEBIT or CREDIT"
)

const (
	minNameLen = 2
	maxNameLen = 50
	minDueDay  = 1
	maxDueDay  = 31
)

// maxAmount is the exclusive upper bound of a numeric(15,2) column.
var maxAmount = decimal.MustParse("10000000000000")

// CheckCreate applies the debit/credit field rules to a create intent.
// The first violated rule wins. The duplicate-name rule needs the store and lives in Service.
func CheckCreate(in banking.CreateIntent) error {
	if err := checkName(in.Name); err != nil {
		return err
	}
	switch in.Classification {
	case banking.ClassificationCredit:
		if in.CreditLimit == nil || !in.CreditLimit.IsPos() {
			return errs.Invalid(MsgCreditLimitRequired)
		}
		if in.Balance != nil {
			return errs.Invalid(MsgCreditNoBalance)
		}
		if !dueDayInRange(in.DueDay) {
			return errs.Invalid(MsgCreditDueDay)
		}
		if !fitsColumn(*in.CreditLimit) {
			return errs.Invalid(MsgCreditLimitFormat)
		}
	case banking.ClassificationDebit:
		if in.CreditLimit != nil || in.DueDay != nil {
			return errs.Invalid(MsgDebitNoCreditFields)
		}
		if in.Balance == nil {
			return errs.Invalid(MsgDebitBalanceRequired)
		}
		if !fitsColumn(*in.Balance) {
			return errs.Invalid(MsgBalanceFormat)
		}
	default:
		return errs.Invalid(MsgUnknownClassification)
	}
	return nil
}

// CheckPatch validates a partial update on its own, before it is merged.
// A patch that names a classification is checked by that classification's rules alone.
func CheckPatch(p banking.Patch) error {
	if p.Name != nil {
		if err := checkName(*p.Name); err != nil {
			return err
		}
	}
	if p.Classification == nil {
		if p.Balance != nil && !p.Balance.IsPos() {
			return errs.Invalid(MsgBalancePositive)
		}
		if p.CreditLimit != nil && p.CreditLimit.IsNeg() {
			return errs.Invalid(MsgCreditLimitNegative)
		}
		if (p.CreditLimit == nil) != (p.DueDay == nil) {
			return errs.Invalid(MsgLimitAndDueDayTogether)
		}
		if p.DueDay != nil && !dueDayInRange(p.DueDay) {
			return errs.Invalid(MsgCreditDueDay)
		}
		return checkAmountFormats(p.Balance, p.CreditLimit)
	}
	switch *p.Classification {
	case banking.ClassificationCredit:
		if p.Balance != nil {
			return errs.Invalid(MsgCreditNoBalance)
		}
		if p.CreditLimit == nil || !p.CreditLimit.IsPos() {
			return errs.Invalid(MsgCreditLimitRequired)
		}
		if !dueDayInRange(p.DueDay) {
			return errs.Invalid(MsgCreditDueDay)
		}
	case banking.ClassificationDebit:
		if p.CreditLimit != nil || p.DueDay != nil {
			return errs.Invalid(MsgDebitNoCreditFields)
		}
		if p.Balance == nil || !p.Balance.IsPos() {
			return errs.Invalid(MsgDebitBalancePositive)
		}
	default:
		return errs.Invalid(MsgUnknownClassification)
	}
	return checkAmountFormats(p.Balance, p.CreditLimit)
}

// Merge applies p over existing. Re-specifying the classification clears the
// other classification's fields so the merged record keeps exactly one field set.
func Merge(existing banking.Account, p banking.Patch) banking.Account {
	out := existing
	if p.Classification != nil {
		out.Classification = *p.Classification
		if out.IsCredit() {
			out.Balance = nil
		} else {
			out.CreditLimit = nil
			out.DueDay = nil
		}
	}
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Balance != nil {
		b := *p.Balance
		out.Balance = &b
	}
	if p.CreditLimit != nil {
		l := *p.CreditLimit
		out.CreditLimit = &l
	}
	if p.DueDay != nil {
		d := *p.DueDay
		out.DueDay = &d
	}
	return out
}

// CheckAccount verifies the invariants every persisted account must satisfy.
func CheckAccount(a banking.Account) error {
	if err := checkName(a.Name); err != nil {
		return err
	}
	if a.IsCredit() {
		if a.Balance != nil {
			return errs.Invalid(MsgCreditNoBalance)
		}
		if a.CreditLimit == nil || !a.CreditLimit.IsPos() {
			return errs.Invalid(MsgCreditLimitRequired)
		}
		if !dueDayInRange(a.DueDay) {
			return errs.Invalid(MsgCreditDueDay)
		}
		return nil
	}
	if a.CreditLimit != nil || a.DueDay != nil {
		return errs.Invalid(MsgDebitNoCreditFields)
	}
	if a.Balance == nil {
		return errs.Invalid(MsgDebitBalanceRequired)
	}
	return nil
}

func checkName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < minNameLen || n > maxNameLen {
		return errs.Invalid(MsgNameLength)
	}
	return nil
}

func dueDayInRange(d *int) bool {
	return d != nil && *d >= minDueDay && *d <= maxDueDay
}

func fitsColumn(d decimal.Decimal) bool {
	return d.Abs().Cmp(maxAmount) < 0
}

func checkAmountFormats(balance, limit *decimal.Decimal) error {
	if balance != nil && !fitsColumn(*balance) {
		return errs.Invalid(MsgBalanceFormat)
	}
	if limit != nil && !fitsColumn(*limit) {
		return errs.Invalid(MsgCreditLimitFormat)
	}
	return nil
}
