// Package push defines the device push-notification gateway contract.
package push

import (
	"context"
	"errors"
)

// Gateway delivery errors. IsTokenInvalid groups the ones that mean the
// device token is dead and must be removed from the user's profile.
var (
	ErrInvalidToken       = errors.New("push: invalid registration token")
	ErrTokenNotRegistered = errors.New("push: registration token not registered")
)

// IsTokenInvalid reports whether the delivery failure indicates an invalid
// or unregistered device token rather than a transient delivery problem.
func IsTokenInvalid(err error) bool {
	return errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrTokenNotRegistered)
}

// Notification is the user-visible alert portion of a push message.
type Notification struct {
	Title string
	Body  string
}

// AndroidHints carries Android-specific delivery parameters.
type AndroidHints struct {
	Priority     string // "high" or "normal"
	ChannelID    string
	DefaultSound bool
}

// APNSHints carries Apple-specific delivery parameters.
type APNSHints struct {
	Sound string
	Badge int
}

// Message is a single device-targeted push message.
type Message struct {
	Token        string
	Notification Notification
	Data         map[string]string
	Android      AndroidHints
	APNS         APNSHints
}

// Gateway sends device push messages. Send returns the provider message id
// on success; token-related failures map onto ErrInvalidToken or
// ErrTokenNotRegistered so callers can clean up dead tokens.
type Gateway interface {
	Send(ctx context.Context, msg *Message) (string, error)
}
