// Package redis provides a blob store backed by Redis, for deployments
// where contributors already share a Redis instance as the relay.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/absmach/fedrelay/pkg/blob"
	pkgerrors "github.com/absmach/fedrelay/pkg/errors"
)

type store struct {
	client *redis.Client
}

func NewStore(url string) (blob.Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	return &store{client: redis.NewClient(opts)}, nil
}

func (s *store) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, pkgerrors.ErrEmptyKey
	}

	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, pkgerrors.ErrNotFound
		}

		return nil, fmt.Errorf("failed to fetch %s: %w", key, err)
	}

	return val, nil
}

func (s *store) Put(ctx context.Context, key string, value []byte, _ map[string]string) error {
	if key == "" {
		return pkgerrors.ErrEmptyKey
	}

	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	return nil
}
