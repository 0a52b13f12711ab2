// Package store defines the document-store contract consumed by all handlers.
// Handlers receive a DocumentStore through construction, never through global
// state, so tests can substitute doubles for the managed backend.
package store

import (
	"context"
	"fmt"
)

// Sentinel marks field values with server-side meaning. The backing
// implementation translates them to its native write sentinels.
type Sentinel int

const (
	// FieldDelete removes the field from the document on merge.
	FieldDelete Sentinel = iota + 1
	// ServerTimestamp stamps the field with the store's server time on write.
	ServerTimestamp
)

// Document is a stored record: an opaque key plus a field map.
type Document struct {
	Key    string
	Fields map[string]interface{}
}

// Filter is a single-field inequality or equality constraint.
type Filter struct {
	Field string
	Op    string // "==", "<", "<=", ">", ">="
	Value interface{}
}

// DocumentStore is the contract over the managed document database.
// Collection arguments are slash-separated paths, so subcollections are
// addressed as "users/{id}/notifications".
type DocumentStore interface {
	// Get returns the document's field map and whether it exists.
	Get(ctx context.Context, collection, key string) (map[string]interface{}, bool, error)
	// Create writes a new document; fields may contain Sentinel values.
	Create(ctx context.Context, collection, key string, fields map[string]interface{}) error
	// Merge performs a partial field merge onto an existing document.
	Merge(ctx context.Context, collection, key string, fields map[string]interface{}) error
	// Delete removes a single document.
	Delete(ctx context.Context, collection, key string) error
	// Query returns documents matching the filter, up to limit (0 = no limit).
	Query(ctx context.Context, collection string, filter Filter, limit int) ([]Document, error)
	// ListKeys returns the keys of every document in the collection.
	ListKeys(ctx context.Context, collection string) ([]string, error)
	// BatchDelete removes the given documents as a single atomic batch.
	BatchDelete(ctx context.Context, collection string, keys []string) error
}

// Collection names of the mobile-ordering schema.
const (
	NotificationsCollection = "notifications"
	UsersCollection         = "users"
)

// UserSubcollection returns the path of a named subcollection under a user.
func UserSubcollection(userID, name string) string {
	return fmt.Sprintf("%s/%s/%s", UsersCollection, userID, name)
}
