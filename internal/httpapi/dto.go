package httpapi

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/govalues/decimal"
	"github.com/govalues/money"

	"github.com/tinoosan/accounts/internal/banking"
	"github.com/tinoosan/accounts/internal/errs"
	"github.com/tinoosan/accounts/internal/service/account"
)

// Users

type postUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type postTokenRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Accounts

// amountField keeps the literal text of a JSON number or numeric string so it
// reaches the decimal parser without passing through a float.
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	if s, err := strconv.Unquote(string(b)); err == nil {
		*a = amountField(s)
		return nil
	}
	*a = amountField(b)
	return nil
}

type postAccountRequest struct {
	Name        string       `json:"name" validate:"required,min=2,max=50"`
	IsCredit    bool         `json:"is_credit"`
	Balance     *amountField `json:"balance"`
	CreditLimit *amountField `json:"credit_limit"`
	DueDay      *int         `json:"due_day"`
}

type patchAccountRequest struct {
	Name        *string      `json:"name" validate:"omitempty,min=2,max=50"`
	IsCredit    *bool        `json:"is_credit"`
	Balance     *amountField `json:"balance"`
	CreditLimit *amountField `json:"credit_limit"`
	DueDay      *int         `json:"due_day"`
}

type accountResponse struct {
	ID             int64                  `json:"id"`
	UserID         int64                  `json:"user_id"`
	Name           string                 `json:"name"`
	IsCredit       bool                   `json:"is_credit"`
	Classification banking.Classification `json:"classification"`
	Balance        *string                `json:"balance"`
	CreditLimit    *string                `json:"credit_limit"`
	DueDay         *int                   `json:"due_day"`
	Currency       string                 `json:"currency"`
}

type updateAccountResponse struct {
	Message string          `json:"message"`
	Data    accountResponse `json:"data"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json field names in validation messages
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage turns validator errors into a single client-facing message.
func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch {
	case fe.Field() == "name" && (fe.Tag() == "min" || fe.Tag() == "max" || fe.Tag() == "required"):
		return account.MsgNameLength
	case fe.Tag() == "required":
		return fe.Field() + " is required"
	case fe.Tag() == "email":
		return "email is not a valid address"
	case fe.Tag() == "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case fe.Tag() == "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}

// parseAmount reads a JSON number as an amount in the server currency.
// A nil field stays nil. formatMsg is returned for anything that is not a decimal
// or that carries more significant decimal places than the currency allows.
func (s *Server) parseAmount(n *amountField, formatMsg string) (*decimal.Decimal, error) {
	if n == nil {
		return nil, nil
	}
	amt, err := money.ParseAmount(s.curr.Code(), strings.TrimSpace(string(*n)))
	if err != nil {
		return nil, errs.Invalid(formatMsg)
	}
	if amt.Decimal().Trim(0).Scale() > s.curr.Scale() {
		return nil, errs.Invalid(formatMsg)
	}
	rounded := amt.RoundToCurr().Decimal()
	return &rounded, nil
}

func (s *Server) toCreateIntent(req postAccountRequest) (banking.CreateIntent, error) {
	bal, err := s.parseAmount(req.Balance, account.MsgBalanceFormat)
	if err != nil {
		return banking.CreateIntent{}, err
	}
	limit, err := s.parseAmount(req.CreditLimit, account.MsgCreditLimitFormat)
	if err != nil {
		return banking.CreateIntent{}, err
	}
	return banking.CreateIntent{
		Name:           strings.TrimSpace(req.Name),
		Classification: banking.ClassificationOf(req.IsCredit),
		Balance:        bal,
		CreditLimit:    limit,
		DueDay:         req.DueDay,
	}, nil
}

func (s *Server) toPatch(req patchAccountRequest) (banking.Patch, error) {
	bal, err := s.parseAmount(req.Balance, account.MsgBalanceFormat)
	if err != nil {
		return banking.Patch{}, err
	}
	limit, err := s.parseAmount(req.CreditLimit, account.MsgCreditLimitFormat)
	if err != nil {
		return banking.Patch{}, err
	}
	p := banking.Patch{Balance: bal, CreditLimit: limit, DueDay: req.DueDay}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		p.Name = &name
	}
	if req.IsCredit != nil {
		c := banking.ClassificationOf(*req.IsCredit)
		p.Classification = &c
	}
	return p, nil
}

func (s *Server) toAccountResponse(a banking.Account) accountResponse {
	return accountResponse{
		ID:             a.ID,
		UserID:         a.UserID,
		Name:           a.Name,
		IsCredit:       a.IsCredit(),
		Classification: a.Classification,
		Balance:        s.formatAmount(a.Balance),
		CreditLimit:    s.formatAmount(a.CreditLimit),
		DueDay:         a.DueDay,
		Currency:       s.curr.Code(),
	}
}

// formatAmount renders d with exactly the currency's number of decimal places.
func (s *Server) formatAmount(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	str := d.Round(s.curr.Scale()).Pad(s.curr.Scale()).String()
	return &str
}

func toUserResponse(u banking.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}
