package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// LogPrefix namespaces log keys inside the badger keyspace
const LogPrefix = "log:"

// BadgerStore implements the Store interface using BadgerDB
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a BadgerDB database in path
func NewBadgerStore(path string) (*BadgerStore, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create badger directory: %w", err)
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	return &BadgerStore{db: db}, nil
}

// Put implements the Store interface Put method
func (b *BadgerStore) Put(_ context.Context, date string, payload []byte) error {
	if err := ValidateDate(date); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(LogPrefix+date), payload))
	})
}

// Get implements the Store interface Get method
func (b *BadgerStore) Get(_ context.Context, date string) ([]byte, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(LogPrefix + date))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}

		// Copy value to prevent access after transaction
		val, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Delete implements the Store interface Delete method
func (b *BadgerStore) Delete(_ context.Context, date string) error {
	if err := ValidateDate(date); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(LogPrefix + date))
	})
}

// List implements the Store interface List method.
// Badger iterates keys in byte order, which for YYYY-MM-DD is date order.
func (b *BadgerStore) List(_ context.Context) ([]string, error) {
	dates := []string{}
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(LogPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			dates = append(dates, strings.TrimPrefix(string(it.Item().Key()), LogPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dates, nil
}

// Close implements the Store interface Close method
func (b *BadgerStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

// RunGC reclaims value log space every interval until ctx is done
func (b *BadgerStore) RunGC(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for b.db.RunValueLogGC(0.7) == nil {
			}
		}
	}
}
