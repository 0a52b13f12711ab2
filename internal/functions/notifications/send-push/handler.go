// internal/functions/notifications/send-push/handler.go
package sendpush

import (
	"context"
	"fmt"
	"time"

	"byteplus-functions/internal/common/errors"
	"byteplus-functions/internal/common/logger"
	"byteplus-functions/internal/common/metrics"
	"byteplus-functions/internal/push"
	"byteplus-functions/internal/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
)

const HandlerName = "notifications.send-push"

type Handler struct {
	config  *Config
	logger  logger.Logger
	store   store.DocumentStore
	gateway push.Gateway
}

type HandlerOptions struct {
	Config  *Config
	Logger  logger.Logger
	Store   store.DocumentStore
	Gateway push.Gateway
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", HandlerName, err)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("%s requires a document store", HandlerName)
	}
	if opts.Gateway == nil {
		return nil, fmt.Errorf("%s requires a push gateway", HandlerName)
	}

	loggerInstance := opts.Logger
	if loggerInstance == nil {
		loggerInstance = logger.NewStructured("info", "json")
	}

	return &Handler{
		config:  cfg,
		logger:  loggerInstance.WithFields(map[string]interface{}{"handler": HandlerName}),
		store:   opts.Store,
		gateway: opts.Gateway,
	}, nil
}

// Execute processes one notification-created event. The trigger is
// fire-and-forget: delivery failures are reconciled onto the record,
// not surfaced to a caller, so an error return here means only that
// the reconciliation write itself failed.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, span := otel.Tracer(HandlerName).Start(ctx, "dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("notification.id", input.NotificationID))

	start := time.Now()
	output, err := h.execute(ctx, input)
	metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	if output != nil {
		metrics.NotificationsDispatched.WithLabelValues(output.Status).Inc()
		span.SetAttributes(attribute.String("dispatch.status", output.Status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "dispatch failed")
	}
	return output, err
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	// Duplicate trigger delivery: a record already in a terminal state is
	// never reprocessed.
	if input.Sent {
		h.logger.Info("notification already sent, skipping", map[string]interface{}{
			"notificationId": input.NotificationID,
		})
		return &Output{Status: StatusSkipped}, nil
	}

	if input.UserID == "" {
		h.logger.Warn("notification record has no userId", map[string]interface{}{
			"notificationId": input.NotificationID,
		})
		return nil, errors.NewInvalidArgumentError("notification record has no userId", input.NotificationID)
	}

	userFields, exists, err := h.store.Get(ctx, store.UsersCollection, input.UserID)
	if err != nil {
		return nil, errors.NewInternalError("document store", err)
	}
	if !exists {
		// Marked as a terminal failure instead of left pending so the
		// retention sweep eventually removes the record.
		h.logger.Warn("target user not found", map[string]interface{}{
			"notificationId": input.NotificationID,
			"userId":         input.UserID,
		})
		failMsg := fmt.Sprintf("user not found: %s", input.UserID)
		if err := h.markFailed(ctx, input.NotificationID, failMsg); err != nil {
			return nil, err
		}
		return &Output{Status: StatusFailed, Error: failMsg}, nil
	}

	token, _ := userFields["fcmToken"].(string)
	if token == "" {
		// Not an error: the user has no deliverable device.
		h.logger.Info("user has no device token", map[string]interface{}{
			"notificationId": input.NotificationID,
			"userId":         input.UserID,
		})
		err := h.store.Merge(ctx, store.NotificationsCollection, input.NotificationID, map[string]interface{}{
			"sent":   true,
			"sentAt": store.ServerTimestamp,
		})
		if err != nil {
			return nil, errors.NewInternalError("document store", err)
		}
		return &Output{Status: StatusNoToken}, nil
	}

	receipt, sendErr := h.gateway.Send(ctx, buildMessage(token, input))
	if sendErr != nil {
		if push.IsTokenInvalid(sendErr) {
			// Purge the stale token before the terminal write. The two
			// mutations are not transactional together; a crash in between
			// leaves a cleared token with an unsent record, which the next
			// dispatch resolves through the no-token path.
			h.logger.Info("clearing invalid device token", map[string]interface{}{
				"userId": input.UserID,
			})
			err := h.store.Merge(ctx, store.UsersCollection, input.UserID, map[string]interface{}{
				"fcmToken": store.FieldDelete,
			})
			if err != nil {
				h.logger.Error("failed to clear device token", map[string]interface{}{
					"userId": input.UserID,
					"error":  err.Error(),
				})
			}
		}

		h.logger.Error("push delivery failed", map[string]interface{}{
			"notificationId": input.NotificationID,
			"userId":         input.UserID,
			"error":          sendErr.Error(),
		})
		if err := h.markFailed(ctx, input.NotificationID, sendErr.Error()); err != nil {
			return nil, err
		}
		return &Output{Status: StatusFailed, Error: sendErr.Error()}, nil
	}

	err = h.store.Merge(ctx, store.NotificationsCollection, input.NotificationID, map[string]interface{}{
		"sent":        true,
		"sentAt":      store.ServerTimestamp,
		"fcmResponse": receipt,
	})
	if err != nil {
		return nil, errors.NewInternalError("document store", err)
	}

	h.logger.Info("push notification delivered", map[string]interface{}{
		"notificationId": input.NotificationID,
		"userId":         input.UserID,
		"messageId":      receipt,
	})
	return &Output{Status: StatusSent, MessageID: receipt}, nil
}

func (h *Handler) markFailed(ctx context.Context, notificationID, errMsg string) error {
	err := h.store.Merge(ctx, store.NotificationsCollection, notificationID, map[string]interface{}{
		"sent":   false,
		"error":  errMsg,
		"sentAt": store.ServerTimestamp,
	})
	if err != nil {
		return errors.NewInternalError("document store", err)
	}
	return nil
}

func buildMessage(token string, input *Input) *push.Message {
	title := input.Title
	if title == "" {
		title = DefaultTitle
	}
	body := input.Body
	if body == "" {
		body = DefaultBody
	}
	msgType := input.Type
	if msgType == "" {
		msgType = DefaultType
	}

	return &push.Message{
		Token:        token,
		Notification: push.Notification{Title: title, Body: body},
		Data: map[string]string{
			"type":         msgType,
			"orderId":      input.OrderID,
			"storeId":      input.StoreID,
			"click_action": ClickAction,
		},
		Android: push.AndroidHints{
			Priority:     "high",
			ChannelID:    AndroidChannelID,
			DefaultSound: true,
		},
		APNS: push.APNSHints{
			Sound: "default",
			Badge: 1,
		},
	}
}
