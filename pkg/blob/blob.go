// Package blob defines the external storage collaborator that holds the
// shared global model state. The engine treats the store as the single
// source of truth and never caches its contents between calls.
package blob

import "context"

// Store is the relay storage collaborator. Get returns
// pkg/errors.ErrNotFound when no value exists for the key. Put headers are
// advisory metadata; backends that cannot represent them may drop them.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, headers map[string]string) error
}
