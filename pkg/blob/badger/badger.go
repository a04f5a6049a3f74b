// Package badger provides a blob store backed by an embedded BadgerDB,
// for single-node deployments that need durability without an external
// relay service.
package badger

import (
	"context"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/absmach/fedrelay/pkg/blob"
	pkgerrors "github.com/absmach/fedrelay/pkg/errors"
)

var (
	ErrDBConnection = errors.New("badger database connection error")
	ErrDBQuery      = errors.New("database query error")
	ErrDBWrite      = errors.New("database write error")
)

type store struct {
	db *badgerdb.DB
}

func NewStore(path string) (blob.Store, func() error, error) {
	opts := badgerdb.DefaultOptions(path)
	opts.Logger = nil
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	return &store{db: db}, db.Close, nil
}

func (s *store) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, pkgerrors.ErrEmptyKey
	}

	var val []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)

		return err
	})
	if err != nil {
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil, pkgerrors.ErrNotFound
		}

		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return val, nil
}

func (s *store) Put(_ context.Context, key string, value []byte, _ map[string]string) error {
	if key == "" {
		return pkgerrors.ErrEmptyKey
	}

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDBWrite, err)
	}

	return nil
}
