package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements DocumentStore on Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestore wraps an initialized Firestore client.
func NewFirestore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) Get(ctx context.Context, collection, key string) (map[string]interface{}, bool, error) {
	snap, err := s.client.Collection(collection).Doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s/%s: %w", collection, key, err)
	}
	return snap.Data(), true, nil
}

func (s *FirestoreStore) Create(ctx context.Context, collection, key string, fields map[string]interface{}) error {
	if _, err := s.client.Collection(collection).Doc(key).Create(ctx, translateFields(fields)); err != nil {
		return fmt.Errorf("create %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *FirestoreStore) Merge(ctx context.Context, collection, key string, fields map[string]interface{}) error {
	if _, err := s.client.Collection(collection).Doc(key).Set(ctx, translateFields(fields), firestore.MergeAll); err != nil {
		return fmt.Errorf("merge %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, key string) error {
	if _, err := s.client.Collection(collection).Doc(key).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *FirestoreStore) Query(ctx context.Context, collection string, filter Filter, limit int) ([]Document, error) {
	q := s.client.Collection(collection).Query
	if filter.Field != "" {
		q = q.Where(filter.Field, filter.Op, filter.Value)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var docs []Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", collection, err)
		}
		docs = append(docs, Document{Key: snap.Ref.ID, Fields: snap.Data()})
	}
	return docs, nil
}

func (s *FirestoreStore) ListKeys(ctx context.Context, collection string) ([]string, error) {
	iter := s.client.Collection(collection).DocumentRefs(ctx)

	var keys []string
	for {
		ref, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", collection, err)
		}
		keys = append(keys, ref.ID)
	}
	return keys, nil
}

func (s *FirestoreStore) BatchDelete(ctx context.Context, collection string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	batch := s.client.Batch()
	for _, key := range keys {
		batch.Delete(s.client.Collection(collection).Doc(key))
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("batch delete %s: %w", collection, err)
	}
	return nil
}

// translateFields maps store sentinels to Firestore's native write sentinels.
// Nested field maps are translated recursively.
func translateFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case Sentinel:
			switch val {
			case FieldDelete:
				out[k] = firestore.Delete
			case ServerTimestamp:
				out[k] = firestore.ServerTimestamp
			}
		case map[string]interface{}:
			out[k] = translateFields(val)
		default:
			out[k] = v
		}
	}
	return out
}
