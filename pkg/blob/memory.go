package blob

import (
	"context"
	"sync"

	"github.com/absmach/fedrelay/pkg/errors"
)

type inMemoryStore struct {
	sync.Mutex

	data map[string][]byte
}

// NewInMemoryStore returns a Store backed by a process-local map. It is
// meant for tests and single-node deployments.
func NewInMemoryStore() Store {
	return &inMemoryStore{
		data: make(map[string][]byte),
	}
}

func (s *inMemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	if val, ok := s.data[key]; ok {
		out := make([]byte, len(val))
		copy(out, val)

		return out, nil
	}

	return nil, errors.ErrNotFound
}

func (s *inMemoryStore) Put(_ context.Context, key string, value []byte, _ map[string]string) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	s.data[key] = stored

	return nil
}
