package account_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/govalues/decimal"

	"github.com/tinoosan/accounts/internal/banking"
	"github.com/tinoosan/accounts/internal/errs"
	"github.com/tinoosan/accounts/internal/service/account"
)

func dec(s string) *decimal.Decimal {
	d := decimal.MustParse(s)
	return &d
}

func day(d int) *int { return &d }

func class(c banking.Classification) *banking.Classification { return &c }

func str(s string) *string { return &s }

func TestCheckCreate(t *testing.T) {
	credit, debit := banking.ClassificationCredit, banking.ClassificationDebit
	cases := []struct {
		name string
		in   banking.CreateIntent
		want string
	}{
		{"debit ok", banking.CreateIntent{Name: "Wallet", Classification: debit, Balance: dec("100.00")}, ""},
		{"debit zero balance ok", banking.CreateIntent{Name: "Wallet", Classification: debit, Balance: dec("0")}, ""},
		{"credit ok", banking.CreateIntent{Name: "Visa", Classification: credit, CreditLimit: dec("500.00"), DueDay: day(10)}, ""},
		{"name too short", banking.CreateIntent{Name: "X", Classification: debit, Balance: dec("1")}, account.MsgNameLength},
		{"name too long", banking.CreateIntent{Name: strings.Repeat("n", 51), Classification: debit, Balance: dec("1")}, account.MsgNameLength},
		{"credit no limit", banking.CreateIntent{Name: "Visa", Classification: credit, DueDay: day(10)}, account.MsgCreditLimitRequired},
		{"credit zero limit", banking.CreateIntent{Name: "Visa", Classification: credit, CreditLimit: dec("0"), DueDay: day(10)}, account.MsgCreditLimitRequired},
		{"credit with balance", banking.CreateIntent{Name: "Visa", Classification: credit, CreditLimit: dec("5"), DueDay: day(10), Balance: dec("1")}, account.MsgCreditNoBalance},
		{"credit no due day", banking.CreateIntent{Name: "Visa", Classification: credit, CreditLimit: dec("5")}, account.MsgCreditDueDay},
		{"credit due day 0", banking.CreateIntent{Name: "Visa", Classification: credit, CreditLimit: dec("5"), DueDay: day(0)}, account.MsgCreditDueDay},
		{"credit due day 32", banking.CreateIntent{Name: "Visa", Classification: credit, CreditLimit: dec("5"), DueDay: day(32)}, account.MsgCreditDueDay},
		{"credit limit too large", banking.CreateIntent{Name: "Visa", Classification: credit, CreditLimit: dec("10000000000000"), DueDay: day(1)}, account.MsgCreditLimitFormat},
		{"debit with limit", banking.CreateIntent{Name: "Cash", Classification: debit, Balance: dec("1"), CreditLimit: dec("5")}, account.MsgDebitNoCreditFields},
		{"debit with due day", banking.CreateIntent{Name: "Cash", Classification: debit, Balance: dec("1"), DueDay: day(5)}, account.MsgDebitNoCreditFields},
		{"debit no balance", banking.CreateIntent{Name: "Cash", Classification: debit}, account.MsgDebitBalanceRequired},
		{"unknown classification", banking.CreateIntent{Name: "Cash", Classification: "SAVINGS", Balance: dec("1")}, account.MsgUnknownClassification},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := account.CheckCreate(tc.in)
			if tc.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, errs.ErrInvalid) || errs.Reason(err) != tc.want {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCheckPatch(t *testing.T) {
	credit, debit := banking.ClassificationCredit, banking.ClassificationDebit
	cases := []struct {
		name string
		p    banking.Patch
		want string
	}{
		{"rename", banking.Patch{Name: str("New name")}, ""},
		{"positive balance", banking.Patch{Balance: dec("5")}, ""},
		{"zero balance", banking.Patch{Balance: dec("0")}, account.MsgBalancePositive},
		{"negative balance", banking.Patch{Balance: dec("-5")}, account.MsgBalancePositive},
		{"negative limit", banking.Patch{CreditLimit: dec("-1"), DueDay: day(3)}, account.MsgCreditLimitNegative},
		{"limit alone", banking.Patch{CreditLimit: dec("100")}, account.MsgLimitAndDueDayTogether},
		{"due day alone", banking.Patch{DueDay: day(3)}, account.MsgLimitAndDueDayTogether},
		{"limit and due day", banking.Patch{CreditLimit: dec("100"), DueDay: day(3)}, ""},
		{"due day out of range", banking.Patch{CreditLimit: dec("100"), DueDay: day(40)}, account.MsgCreditDueDay},
		{"to credit ok", banking.Patch{Classification: class(credit), CreditLimit: dec("100"), DueDay: day(3)}, ""},
		{"to credit with balance", banking.Patch{Classification: class(credit), CreditLimit: dec("100"), DueDay: day(3), Balance: dec("1")}, account.MsgCreditNoBalance},
		{"to credit zero limit", banking.Patch{Classification: class(credit), CreditLimit: dec("0"), DueDay: day(3)}, account.MsgCreditLimitRequired},
		{"to credit no due day", banking.Patch{Classification: class(credit), CreditLimit: dec("100")}, account.MsgCreditDueDay},
		{"to credit with negative balance", banking.Patch{Classification: class(credit), CreditLimit: dec("100"), DueDay: day(3), Balance: dec("-5")}, account.MsgCreditNoBalance},
		{"to credit negative limit", banking.Patch{Classification: class(credit), CreditLimit: dec("-1"), DueDay: day(3)}, account.MsgCreditLimitRequired},
		{"to debit negative balance", banking.Patch{Classification: class(debit), Balance: dec("-5")}, account.MsgDebitBalancePositive},
		{"to debit ok", banking.Patch{Classification: class(debit), Balance: dec("1")}, ""},
		{"to debit no balance", banking.Patch{Classification: class(debit)}, account.MsgDebitBalancePositive},
		{"to debit with limit", banking.Patch{Classification: class(debit), Balance: dec("1"), CreditLimit: dec("1")}, account.MsgDebitNoCreditFields},
		{"short name", banking.Patch{Name: str("a")}, account.MsgNameLength},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := account.CheckPatch(tc.p)
			if tc.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if errs.Reason(err) != tc.want {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
		})
	}
}

func TestMerge_ConversionClearsOtherFields(t *testing.T) {
	debitAcc := banking.Account{ID: 1, UserID: 7, Name: "Wallet", Classification: banking.ClassificationDebit, Balance: dec("10")}
	credit := banking.ClassificationCredit
	got := account.Merge(debitAcc, banking.Patch{Classification: &credit, CreditLimit: dec("100"), DueDay: day(5)})
	if !got.IsCredit() || got.Balance != nil || got.CreditLimit == nil || *got.DueDay != 5 {
		t.Fatalf("unexpected merge: %+v", got)
	}
	if got.ID != 1 || got.UserID != 7 || got.Name != "Wallet" {
		t.Fatalf("identity fields changed: %+v", got)
	}
	if err := account.CheckAccount(got); err != nil {
		t.Fatalf("merged account invalid: %v", err)
	}
	if debitAcc.Balance == nil {
		t.Fatalf("merge mutated the original")
	}
}

func TestMerge_OnlyPresentFieldsChange(t *testing.T) {
	acc := banking.Account{Name: "Visa", Classification: banking.ClassificationCredit, CreditLimit: dec("500"), DueDay: day(10)}
	got := account.Merge(acc, banking.Patch{Name: str("Visa Gold")})
	if got.Name != "Visa Gold" || got.CreditLimit.Cmp(*acc.CreditLimit) != 0 || *got.DueDay != 10 {
		t.Fatalf("unexpected merge: %+v", got)
	}
}

func TestCheckAccount_RejectsCreditFieldsOnDebit(t *testing.T) {
	acc := banking.Account{Name: "Wallet", Classification: banking.ClassificationDebit, Balance: dec("1")}
	merged := account.Merge(acc, banking.Patch{CreditLimit: dec("100"), DueDay: day(5)})
	if errs.Reason(account.CheckAccount(merged)) != account.MsgDebitNoCreditFields {
		t.Fatalf("expected debit accounts to reject credit fields")
	}
}
