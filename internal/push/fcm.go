package push

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
)

// FCMGateway implements Gateway on Firebase Cloud Messaging.
type FCMGateway struct {
	client *messaging.Client
}

// NewFCM wraps an initialized FCM messaging client.
func NewFCM(client *messaging.Client) *FCMGateway {
	return &FCMGateway{client: client}
}

func (g *FCMGateway) Send(ctx context.Context, msg *Message) (string, error) {
	badge := msg.APNS.Badge

	out := &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Notification.Title,
			Body:  msg.Notification.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: msg.Android.Priority,
			Notification: &messaging.AndroidNotification{
				ChannelID:    msg.Android.ChannelID,
				DefaultSound: msg.Android.DefaultSound,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: msg.APNS.Sound,
					Badge: &badge,
				},
			},
		},
	}

	id, err := g.client.Send(ctx, out)
	if err != nil {
		return "", translateSendError(err)
	}
	return id, nil
}

// translateSendError maps FCM token errors onto the gateway's sentinel
// errors so callers do not depend on the provider SDK.
func translateSendError(err error) error {
	switch {
	case messaging.IsUnregistered(err):
		return fmt.Errorf("%w: %v", ErrTokenNotRegistered, err)
	case errorutils.IsInvalidArgument(err):
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	default:
		return fmt.Errorf("fcm send: %w", err)
	}
}
