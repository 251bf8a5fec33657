package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// Common errors
var (
	ErrNotFound       = errors.New("log not found")
	ErrInvalidDate    = errors.New("log date must be YYYY-MM-DD")
	ErrUnknownBackend = errors.New("unknown store backend")
)

// DateLayout is the key format of every stored log
const DateLayout = "2006-01-02"

// Supported backends
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Store persists raw task log payloads keyed by date
type Store interface {
	// Put saves the payload of the log for date, replacing any previous one
	Put(ctx context.Context, date string, payload []byte) error

	// Get returns the payload stored for date or ErrNotFound
	Get(ctx context.Context, date string) ([]byte, error)

	// Delete removes the log for date. Deleting a missing log is not an error
	Delete(ctx context.Context, date string) error

	// List returns every stored date in ascending order
	List(ctx context.Context) ([]string, error)

	// Close properly shuts down the store
	Close() error
}

// ValidateDate checks that date is a YYYY-MM-DD key
func ValidateDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return nil
}

// Open creates the store for backend rooted in dir
func Open(backend, dir string) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(filepath.Join(dir, "logs.json"))
	case BackendBadger:
		return NewBadgerStore(filepath.Join(dir, "badger"))
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(dir, "logs.db"))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
	}
}
