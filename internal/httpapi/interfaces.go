package httpapi

import "context"

// TokenService issues and verifies bearer tokens whose subject is a username.
type TokenService interface {
	Issue(username string) (string, error)
	Verify(token string) (string, error)
}

// ReadinessChecker reports whether the backing store can serve requests.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}
