// Package user registers users and checks their credentials.
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tinoosan/accounts/internal/banking"
	"github.com/tinoosan/accounts/internal/errs"
)

type Repo interface {
	GetUserByUsername(ctx context.Context, username string) (banking.User, error)
	GetUserByEmail(ctx context.Context, email string) (banking.User, error)
}

type Writer interface {
	CreateUser(ctx context.Context, u banking.User) (banking.User, error)
}

// PasswordHasher hides the hashing scheme from the service.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) (bool, error)
}

type Service interface {
	Register(ctx context.Context, username, email, password string) (banking.User, error)
	// Authenticate returns errs.ErrUnauthorized when the username or password is wrong.
	Authenticate(ctx context.Context, username, password string) (banking.User, error)
	GetByUsername(ctx context.Context, username string) (banking.User, error)
}

const (
	MsgUsernameTaken = "username already registered"
	MsgEmailTaken    = "email already registered"
)

type service struct {
	repo   Repo
	writer Writer
	hasher PasswordHasher
}

func New(repo Repo, writer Writer, hasher PasswordHasher) Service {
	return &service{repo: repo, writer: writer, hasher: hasher}
}

func (s *service) Register(ctx context.Context, username, email, password string) (banking.User, error) {
	email = strings.TrimSpace(email)
	if _, err := s.repo.GetUserByUsername(ctx, username); err == nil {
		return banking.User{}, errs.Invalid(MsgUsernameTaken)
	} else if !errors.Is(err, errs.ErrNotFound) {
		return banking.User{}, fmt.Errorf("lookup username: %w", err)
	}
	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return banking.User{}, errs.Invalid(MsgEmailTaken)
	} else if !errors.Is(err, errs.ErrNotFound) {
		return banking.User{}, fmt.Errorf("lookup email: %w", err)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return banking.User{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.writer.CreateUser(ctx, banking.User{Username: username, Email: email, HashedPassword: hash})
	if errors.Is(err, errs.ErrConflict) {
		// lost a race with a concurrent registration
		return banking.User{}, errs.Invalid(MsgUsernameTaken)
	}
	if err != nil {
		return banking.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *service) Authenticate(ctx context.Context, username, password string) (banking.User, error) {
	u, err := s.repo.GetUserByUsername(ctx, username)
	if errors.Is(err, errs.ErrNotFound) {
		return banking.User{}, errs.ErrUnauthorized
	}
	if err != nil {
		return banking.User{}, err
	}
	ok, err := s.hasher.Verify(u.HashedPassword, password)
	if err != nil {
		return banking.User{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return banking.User{}, errs.ErrUnauthorized
	}
	return u, nil
}

func (s *service) GetByUsername(ctx context.Context, username string) (banking.User, error) {
	return s.repo.GetUserByUsername(ctx, username)
}
