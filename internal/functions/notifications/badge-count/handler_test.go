package badgecount

import (
	"context"
	"testing"
	"time"

	"byteplus-functions/internal/common/database"
	"byteplus-functions/internal/common/errors"
	"byteplus-functions/internal/common/logger"
	"byteplus-functions/internal/store"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	QueryFunc func(ctx context.Context, collection string, filter store.Filter, limit int) ([]store.Document, error)
	queries   int
}

func (m *mockStore) Query(ctx context.Context, collection string, filter store.Filter, limit int) ([]store.Document, error) {
	m.queries++
	return m.QueryFunc(ctx, collection, filter, limit)
}

func (m *mockStore) Get(ctx context.Context, collection, key string) (map[string]interface{}, bool, error) {
	panic("unexpected Get call")
}

func (m *mockStore) Create(ctx context.Context, collection, key string, fields map[string]interface{}) error {
	panic("unexpected Create call")
}

func (m *mockStore) Merge(ctx context.Context, collection, key string, fields map[string]interface{}) error {
	panic("unexpected Merge call")
}

func (m *mockStore) Delete(ctx context.Context, collection, key string) error {
	panic("unexpected Delete call")
}

func (m *mockStore) ListKeys(ctx context.Context, collection string) ([]string, error) {
	panic("unexpected ListKeys call")
}

func (m *mockStore) BatchDelete(ctx context.Context, collection string, keys []string) error {
	panic("unexpected BatchDelete call")
}

func unreadDocs(n int) []store.Document {
	docs := make([]store.Document, n)
	for i := range docs {
		docs[i] = store.Document{Key: "sub", Fields: map[string]interface{}{"read": false}}
	}
	return docs
}

func TestHandler_Execute_Unauthenticated(t *testing.T) {
	handler, err := NewHandler(HandlerOptions{
		Logger: logger.NewTestLogger(t),
		Store:  &mockStore{},
	})
	require.NoError(t, err)

	output, execErr := handler.Execute(context.Background(), &Input{UID: ""})
	assert.Nil(t, output)
	assert.True(t, errors.IsCode(execErr, errors.ErrCodeUnauthenticated))
}

func TestHandler_Execute_CountsUnread(t *testing.T) {
	st := &mockStore{QueryFunc: func(ctx context.Context, collection string, filter store.Filter, limit int) ([]store.Document, error) {
		assert.Equal(t, "users/u1/notifications", collection)
		assert.Equal(t, "read", filter.Field)
		assert.Equal(t, "==", filter.Op)
		assert.Equal(t, false, filter.Value)
		assert.Equal(t, 0, limit)
		return unreadDocs(4), nil
	}}

	handler, err := NewHandler(HandlerOptions{
		Logger: logger.NewTestLogger(t),
		Store:  st,
	})
	require.NoError(t, err)

	output, execErr := handler.Execute(context.Background(), &Input{UID: "u1"})
	assert.NoError(t, execErr)
	assert.Equal(t, 4, output.Count)
	assert.False(t, output.Cached)
}

func TestHandler_Execute_ZeroUnread(t *testing.T) {
	st := &mockStore{QueryFunc: func(ctx context.Context, collection string, filter store.Filter, limit int) ([]store.Document, error) {
		return nil, nil
	}}

	handler, err := NewHandler(HandlerOptions{
		Logger: logger.NewTestLogger(t),
		Store:  st,
	})
	require.NoError(t, err)

	output, execErr := handler.Execute(context.Background(), &Input{UID: "u1"})
	assert.NoError(t, execErr)
	assert.Equal(t, 0, output.Count)
}

func TestHandler_Execute_CacheMissThenSet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet("badge:u1").RedisNil()
	mock.ExpectSet("badge:u1", "2", 30*time.Second).SetVal("OK")

	st := &mockStore{QueryFunc: func(ctx context.Context, collection string, filter store.Filter, limit int) ([]store.Document, error) {
		return unreadDocs(2), nil
	}}

	handler, err := NewHandler(HandlerOptions{
		Config: &Config{Enabled: true, CacheTTL: 30 * time.Second, Timeout: time.Second},
		Logger: logger.NewTestLogger(t),
		Store:  st,
		Cache:  &database.RedisClient{Client: db},
	})
	require.NoError(t, err)

	output, execErr := handler.Execute(context.Background(), &Input{UID: "u1"})
	assert.NoError(t, execErr)
	assert.Equal(t, 2, output.Count)
	assert.False(t, output.Cached)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_CacheHitSkipsStore(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet("badge:u1").SetVal("7")

	st := &mockStore{QueryFunc: func(ctx context.Context, collection string, filter store.Filter, limit int) ([]store.Document, error) {
		return unreadDocs(99), nil
	}}

	handler, err := NewHandler(HandlerOptions{
		Config: &Config{Enabled: true, CacheTTL: 30 * time.Second, Timeout: time.Second},
		Logger: logger.NewTestLogger(t),
		Store:  st,
		Cache:  &database.RedisClient{Client: db},
	})
	require.NoError(t, err)

	output, execErr := handler.Execute(context.Background(), &Input{UID: "u1"})
	assert.NoError(t, execErr)
	assert.Equal(t, 7, output.Count)
	assert.True(t, output.Cached)
	assert.Equal(t, 0, st.queries, "cache hit must not query the store")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Invalidate(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectDel("badge:u1").SetVal(1)

	handler, err := NewHandler(HandlerOptions{
		Config: &Config{Enabled: true, CacheTTL: 30 * time.Second, Timeout: time.Second},
		Logger: logger.NewTestLogger(t),
		Store:  &mockStore{},
		Cache:  &database.RedisClient{Client: db},
	})
	require.NoError(t, err)

	handler.Invalidate(context.Background(), "u1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Invalidate_NoCache(t *testing.T) {
	handler, err := NewHandler(HandlerOptions{
		Logger: logger.NewTestLogger(t),
		Store:  &mockStore{},
	})
	require.NoError(t, err)

	// No cache configured: a plain no-op.
	handler.Invalidate(context.Background(), "u1")
}

func TestHandler_Invalidate_FailureTolerated(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectDel("badge:u1").SetErr(assert.AnError)

	handler, err := NewHandler(HandlerOptions{
		Config: &Config{Enabled: true, CacheTTL: 30 * time.Second, Timeout: time.Second},
		Logger: logger.NewTestLogger(t),
		Store:  &mockStore{},
		Cache:  &database.RedisClient{Client: db},
	})
	require.NoError(t, err)

	handler.Invalidate(context.Background(), "u1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_CacheFailureDegrades(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet("badge:u1").SetErr(assert.AnError)
	mock.ExpectSet("badge:u1", "1", 30*time.Second).SetErr(assert.AnError)

	st := &mockStore{QueryFunc: func(ctx context.Context, collection string, filter store.Filter, limit int) ([]store.Document, error) {
		return unreadDocs(1), nil
	}}

	handler, err := NewHandler(HandlerOptions{
		Config: &Config{Enabled: true, CacheTTL: 30 * time.Second, Timeout: time.Second},
		Logger: logger.NewTestLogger(t),
		Store:  st,
		Cache:  &database.RedisClient{Client: db},
	})
	require.NoError(t, err)

	output, execErr := handler.Execute(context.Background(), &Input{UID: "u1"})
	assert.NoError(t, execErr)
	assert.Equal(t, 1, output.Count)
}
