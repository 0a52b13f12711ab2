package identity

import (
	"context"
	"fmt"
	"strings"

	"firebase.google.com/go/v4/auth"
)

// FirebaseProvider implements Provider on Firebase Authentication.
type FirebaseProvider struct {
	client *auth.Client
}

// NewFirebase wraps an initialized Firebase Auth client.
func NewFirebase(client *auth.Client) *FirebaseProvider {
	return &FirebaseProvider{client: client}
}

func (p *FirebaseProvider) CreateAccount(ctx context.Context, acct NewAccount) (*Account, error) {
	params := (&auth.UserToCreate{}).
		Email(acct.Email).
		Password(acct.Password).
		DisplayName(acct.DisplayName).
		EmailVerified(true)

	rec, err := p.client.CreateUser(ctx, params)
	if err != nil {
		return nil, translateCreateError(err)
	}

	return &Account{
		UID:         rec.UID,
		Email:       rec.Email,
		DisplayName: rec.DisplayName,
	}, nil
}

func (p *FirebaseProvider) DeleteAccount(ctx context.Context, uid string) error {
	if err := p.client.DeleteUser(ctx, uid); err != nil {
		if auth.IsUserNotFound(err) {
			return fmt.Errorf("%w: %s", ErrUserNotFound, uid)
		}
		return fmt.Errorf("delete account %s: %w", uid, err)
	}
	return nil
}

func (p *FirebaseProvider) VerifyIDToken(ctx context.Context, idToken string) (*Token, error) {
	tok, err := p.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &Token{UID: tok.UID}, nil
}

// translateCreateError maps provider rejections onto the package sentinels.
// The SDK rejects malformed emails and short passwords locally with plain
// errors, so those two are classified by message.
func translateCreateError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case auth.IsEmailAlreadyExists(err):
		return fmt.Errorf("%w: %v", ErrEmailAlreadyExists, err)
	case strings.Contains(msg, "password"):
		return fmt.Errorf("%w: %v", ErrWeakPassword, err)
	case strings.Contains(msg, "email"):
		return fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	default:
		return fmt.Errorf("create account: %w", err)
	}
}
