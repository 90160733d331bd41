package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound = errors.New("not_found")
	// ErrConflict is returned by stores when a uniqueness constraint rejects a write.
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")
	// ErrUnauthorized signals missing or bad credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotOwned is returned by delete when the account is absent or belongs to someone else.
	ErrNotOwned = errors.New("account not found or not owned by user")
	// ErrDeleteFailed wraps an expected store-level delete failure.
	ErrDeleteFailed = errors.New("delete failed")
)

// ValidationError is a user-correctable rule violation carrying a client-facing reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Unwrap lets errors.Is(err, ErrInvalid) match every validation failure.
func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Invalid builds a ValidationError.
func Invalid(reason string) error { return &ValidationError{Reason: reason} }

// Reason returns the client-facing message of a ValidationError, or "" if err is not one.
func Reason(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return ""
}
