// Package identity defines the account-provider contract used by the
// user lifecycle handler and the callable auth middleware.
package identity

import (
	"context"
	"errors"
)

// Provider failure modes the handlers branch on.
var (
	ErrEmailAlreadyExists = errors.New("identity: email already exists")
	ErrInvalidEmail       = errors.New("identity: invalid email")
	ErrWeakPassword       = errors.New("identity: password too weak")
	ErrUserNotFound       = errors.New("identity: user not found")
	ErrInvalidToken       = errors.New("identity: invalid id token")
)

// NewAccount describes the account to create.
type NewAccount struct {
	Email       string
	Password    string
	DisplayName string
}

// Account is the provider-side record of a created account.
type Account struct {
	UID         string
	Email       string
	DisplayName string
}

// Token is a verified caller identity.
type Token struct {
	UID string
}

// Provider manages accounts in the external identity service.
type Provider interface {
	// CreateAccount provisions a new account. Returns ErrEmailAlreadyExists,
	// ErrInvalidEmail, or ErrWeakPassword on the corresponding rejections.
	CreateAccount(ctx context.Context, acct NewAccount) (*Account, error)
	// DeleteAccount removes the account. Returns ErrUserNotFound when the
	// account no longer exists.
	DeleteAccount(ctx context.Context, uid string) error
	// VerifyIDToken validates a caller's bearer token and returns its
	// identity. Returns ErrInvalidToken when verification fails.
	VerifyIDToken(ctx context.Context, idToken string) (*Token, error)
}
