package sendpush

import (
	"context"
	"fmt"
	"testing"

	"byteplus-functions/internal/common/errors"
	"byteplus-functions/internal/common/logger"
	"byteplus-functions/internal/push"
	"byteplus-functions/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// ==========================
// Mock Collaborators
// ==========================

type mergeCall struct {
	Collection string
	Key        string
	Fields     map[string]interface{}
}

type mockStore struct {
	GetFunc func(ctx context.Context, collection, key string) (map[string]interface{}, bool, error)

	merges []mergeCall
}

func (m *mockStore) Get(ctx context.Context, collection, key string) (map[string]interface{}, bool, error) {
	return m.GetFunc(ctx, collection, key)
}

func (m *mockStore) Merge(ctx context.Context, collection, key string, fields map[string]interface{}) error {
	m.merges = append(m.merges, mergeCall{Collection: collection, Key: key, Fields: fields})
	return nil
}

func (m *mockStore) Create(ctx context.Context, collection, key string, fields map[string]interface{}) error {
	panic("unexpected Create call")
}

func (m *mockStore) Delete(ctx context.Context, collection, key string) error {
	panic("unexpected Delete call")
}

func (m *mockStore) Query(ctx context.Context, collection string, filter store.Filter, limit int) ([]store.Document, error) {
	panic("unexpected Query call")
}

func (m *mockStore) ListKeys(ctx context.Context, collection string) ([]string, error) {
	panic("unexpected ListKeys call")
}

func (m *mockStore) BatchDelete(ctx context.Context, collection string, keys []string) error {
	panic("unexpected BatchDelete call")
}

type mockGateway struct {
	SendFunc func(ctx context.Context, msg *push.Message) (string, error)
	sent     []*push.Message
}

func (m *mockGateway) Send(ctx context.Context, msg *push.Message) (string, error) {
	m.sent = append(m.sent, msg)
	return m.SendFunc(ctx, msg)
}

// ==========================
// Test Helpers
// ==========================

func userWithToken(token string) func(ctx context.Context, collection, key string) (map[string]interface{}, bool, error) {
	return func(ctx context.Context, collection, key string) (map[string]interface{}, bool, error) {
		fields := map[string]interface{}{"name": "Test User"}
		if token != "" {
			fields["fcmToken"] = token
		}
		return fields, true, nil
	}
}

func newTestHandler(t *testing.T, st *mockStore, gw *mockGateway) *Handler {
	handler, err := NewHandler(HandlerOptions{
		Logger:  logger.NewTestLogger(t),
		Store:   st,
		Gateway: gw,
	})
	require.NoError(t, err)
	return handler
}

func createTestInput() *Input {
	return &Input{
		NotificationID: "n1",
		UserID:         "u1",
		Title:          "Order ready",
		Body:           "Your order is ready for pickup",
		Type:           "order_update",
		OrderID:        "o-42",
		StoreID:        "s-7",
	}
}

// ==========================
// Dispatch Tests
// ==========================

func TestHandler_Execute_AlreadySent(t *testing.T) {
	st := &mockStore{GetFunc: func(ctx context.Context, collection, key string) (map[string]interface{}, bool, error) {
		t.Fatal("store must not be read for an already-sent record")
		return nil, false, nil
	}}
	gw := &mockGateway{}
	handler := newTestHandler(t, st, gw)

	input := createTestInput()
	input.Sent = true

	output, err := handler.Execute(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, StatusSkipped, output.Status)
	assert.Empty(t, st.merges)
	assert.Empty(t, gw.sent)
}

func TestHandler_Execute_MissingUserID(t *testing.T) {
	st := &mockStore{}
	handler := newTestHandler(t, st, &mockGateway{})

	input := createTestInput()
	input.UserID = ""

	output, err := handler.Execute(context.Background(), input)
	assert.Nil(t, output)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidArgument))
	assert.Empty(t, st.merges)
}

func TestHandler_Execute_UserNotFound(t *testing.T) {
	st := &mockStore{GetFunc: func(ctx context.Context, collection, key string) (map[string]interface{}, bool, error) {
		assert.Equal(t, store.UsersCollection, collection)
		assert.Equal(t, "u1", key)
		return nil, false, nil
	}}
	handler := newTestHandler(t, st, &mockGateway{})

	output, err := handler.Execute(context.Background(), createTestInput())
	assert.NoError(t, err)
	assert.Equal(t, StatusFailed, output.Status)

	require.Len(t, st.merges, 1)
	merge := st.merges[0]
	assert.Equal(t, store.NotificationsCollection, merge.Collection)
	assert.Equal(t, "n1", merge.Key)
	assert.Equal(t, false, merge.Fields["sent"])
	assert.Equal(t, store.ServerTimestamp, merge.Fields["sentAt"])
	assert.Contains(t, merge.Fields["error"], "user not found")
}

func TestHandler_Execute_NoToken(t *testing.T) {
	st := &mockStore{GetFunc: userWithToken("")}
	gw := &mockGateway{}
	handler := newTestHandler(t, st, gw)

	output, err := handler.Execute(context.Background(), createTestInput())
	assert.NoError(t, err)
	assert.Equal(t, StatusNoToken, output.Status)
	assert.Empty(t, gw.sent)

	require.Len(t, st.merges, 1)
	merge := st.merges[0]
	assert.Equal(t, store.NotificationsCollection, merge.Collection)
	assert.Equal(t, true, merge.Fields["sent"])
	assert.Equal(t, store.ServerTimestamp, merge.Fields["sentAt"])
	assert.NotContains(t, merge.Fields, "fcmResponse")
}

func TestHandler_Execute_Success(t *testing.T) {
	st := &mockStore{GetFunc: userWithToken("tok1")}
	gw := &mockGateway{SendFunc: func(ctx context.Context, msg *push.Message) (string, error) {
		assert.Equal(t, "tok1", msg.Token)
		return "msg123", nil
	}}
	handler := newTestHandler(t, st, gw)

	output, err := handler.Execute(context.Background(), createTestInput())
	assert.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	assert.Equal(t, "msg123", output.MessageID)

	require.Len(t, st.merges, 1)
	merge := st.merges[0]
	assert.Equal(t, "n1", merge.Key)
	assert.Equal(t, true, merge.Fields["sent"])
	assert.Equal(t, store.ServerTimestamp, merge.Fields["sentAt"])
	assert.Equal(t, "msg123", merge.Fields["fcmResponse"])
}

func TestHandler_Execute_MessageContent(t *testing.T) {
	tests := []struct {
		name            string
		input           *Input
		validateMessage func(t *testing.T, msg *push.Message)
	}{
		{
			name:  "explicit title and body",
			input: createTestInput(),
			validateMessage: func(t *testing.T, msg *push.Message) {
				assert.Equal(t, "Order ready", msg.Notification.Title)
				assert.Equal(t, "Your order is ready for pickup", msg.Notification.Body)
				assert.Equal(t, "order_update", msg.Data["type"])
				assert.Equal(t, "o-42", msg.Data["orderId"])
				assert.Equal(t, "s-7", msg.Data["storeId"])
			},
		},
		{
			name:  "fallback copy when title and body absent",
			input: &Input{NotificationID: "n2", UserID: "u1"},
			validateMessage: func(t *testing.T, msg *push.Message) {
				assert.Equal(t, DefaultTitle, msg.Notification.Title)
				assert.Equal(t, DefaultBody, msg.Notification.Body)
				assert.Equal(t, DefaultType, msg.Data["type"])
				assert.Equal(t, "", msg.Data["orderId"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &mockStore{GetFunc: userWithToken("tok1")}
			gw := &mockGateway{SendFunc: func(ctx context.Context, msg *push.Message) (string, error) {
				return "msg123", nil
			}}
			handler := newTestHandler(t, st, gw)

			_, err := handler.Execute(context.Background(), tt.input)
			assert.NoError(t, err)

			require.Len(t, gw.sent, 1)
			msg := gw.sent[0]
			tt.validateMessage(t, msg)

			assert.Equal(t, ClickAction, msg.Data["click_action"])
			assert.Equal(t, "high", msg.Android.Priority)
			assert.Equal(t, AndroidChannelID, msg.Android.ChannelID)
			assert.True(t, msg.Android.DefaultSound)
			assert.Equal(t, "default", msg.APNS.Sound)
			assert.Equal(t, 1, msg.APNS.Badge)
		})
	}
}

func TestHandler_Execute_TokenNotRegistered(t *testing.T) {
	st := &mockStore{GetFunc: userWithToken("tok1")}
	gw := &mockGateway{SendFunc: func(ctx context.Context, msg *push.Message) (string, error) {
		return "", fmt.Errorf("%w: stale", push.ErrTokenNotRegistered)
	}}
	handler := newTestHandler(t, st, gw)

	output, err := handler.Execute(context.Background(), createTestInput())
	assert.NoError(t, err)
	assert.Equal(t, StatusFailed, output.Status)
	assert.NotEmpty(t, output.Error)

	// Token purge is issued before the terminal record write.
	require.Len(t, st.merges, 2)

	tokenMerge := st.merges[0]
	assert.Equal(t, store.UsersCollection, tokenMerge.Collection)
	assert.Equal(t, "u1", tokenMerge.Key)
	assert.Equal(t, store.FieldDelete, tokenMerge.Fields["fcmToken"])

	statusMerge := st.merges[1]
	assert.Equal(t, store.NotificationsCollection, statusMerge.Collection)
	assert.Equal(t, false, statusMerge.Fields["sent"])
	assert.NotEmpty(t, statusMerge.Fields["error"])
	assert.Equal(t, store.ServerTimestamp, statusMerge.Fields["sentAt"])
}

func TestHandler_Execute_OtherGatewayFailure(t *testing.T) {
	st := &mockStore{GetFunc: userWithToken("tok1")}
	gw := &mockGateway{SendFunc: func(ctx context.Context, msg *push.Message) (string, error) {
		return "", fmt.Errorf("fcm send: service unavailable")
	}}
	handler := newTestHandler(t, st, gw)

	output, err := handler.Execute(context.Background(), createTestInput())
	assert.NoError(t, err)
	assert.Equal(t, StatusFailed, output.Status)

	// No token purge for non-token failures.
	require.Len(t, st.merges, 1)
	merge := st.merges[0]
	assert.Equal(t, store.NotificationsCollection, merge.Collection)
	assert.Equal(t, false, merge.Fields["sent"])
	assert.Contains(t, merge.Fields["error"], "service unavailable")
}

func TestHandler_Execute_TracesDispatch(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	st := &mockStore{GetFunc: userWithToken("tok1")}
	gw := &mockGateway{SendFunc: func(ctx context.Context, msg *push.Message) (string, error) {
		return "msg123", nil
	}}
	handler := newTestHandler(t, st, gw)

	_, err := handler.Execute(context.Background(), createTestInput())
	assert.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "dispatch", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("notification.id", "n1"))
	assert.Contains(t, spans[0].Attributes(), attribute.String("dispatch.status", StatusSent))
}

func TestFromRecord(t *testing.T) {
	fields := map[string]interface{}{
		"userId":  "u9",
		"title":   "Hi",
		"type":    "order_update",
		"orderId": "o1",
		"sent":    false,
	}

	input := FromRecord("n9", fields)
	assert.Equal(t, "n9", input.NotificationID)
	assert.Equal(t, "u9", input.UserID)
	assert.Equal(t, "Hi", input.Title)
	assert.Equal(t, "", input.Body)
	assert.Equal(t, "o1", input.OrderID)
	assert.False(t, input.Sent)
}

func TestNewHandler_MissingCollaborators(t *testing.T) {
	_, err := NewHandler(HandlerOptions{Gateway: &mockGateway{}})
	assert.Error(t, err)

	_, err = NewHandler(HandlerOptions{Store: &mockStore{}})
	assert.Error(t, err)
}
