package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openBackends(t *testing.T) map[string]Store {
	t.Helper()

	backends := map[string]Store{}
	for _, name := range []string{BackendFile, BackendBadger, BackendSQLite} {
		s, err := Open(name, t.TempDir())
		if err != nil {
			t.Fatalf("Failed to open %s store: %v", name, err)
		}
		t.Cleanup(func() { s.Close() })
		backends[name] = s
	}
	return backends
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			payload := []byte(`{"date":"2024-03-02","tasks":[],"memo":""}`)

			// Store data out of order
			for _, date := range []string{"2024-03-02", "2024-01-15", "2024-02-01"} {
				if err := s.Put(ctx, date, payload); err != nil {
					t.Fatalf("Failed to put %s: %v", date, err)
				}
			}

			got, err := s.Get(ctx, "2024-03-02")
			if err != nil {
				t.Fatalf("Failed to get log: %v", err)
			}
			if string(got) != string(payload) {
				t.Fatalf("Retrieved payload doesn't match: got %s, want %s", got, payload)
			}

			// Overwrite replaces
			updated := []byte(`{"date":"2024-03-02","tasks":[],"memo":"updated"}`)
			if err := s.Put(ctx, "2024-03-02", updated); err != nil {
				t.Fatalf("Failed to overwrite log: %v", err)
			}
			got, _ = s.Get(ctx, "2024-03-02")
			if string(got) != string(updated) {
				t.Fatalf("Overwrite not visible: got %s", got)
			}

			dates, err := s.List(ctx)
			if err != nil {
				t.Fatalf("Failed to list logs: %v", err)
			}
			want := []string{"2024-01-15", "2024-02-01", "2024-03-02"}
			if len(dates) != len(want) {
				t.Fatalf("List returned unexpected dates: %v", dates)
			}
			for i := range want {
				if dates[i] != want[i] {
					t.Fatalf("List not sorted: got %v, want %v", dates, want)
				}
			}

			if err := s.Delete(ctx, "2024-01-15"); err != nil {
				t.Fatalf("Failed to delete log: %v", err)
			}
			if _, err := s.Get(ctx, "2024-01-15"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Expected ErrNotFound, got: %v", err)
			}

			// Deleting twice is fine
			if err := s.Delete(ctx, "2024-01-15"); err != nil {
				t.Fatalf("Second delete failed: %v", err)
			}
		})
	}
}

func TestStoreRejectsInvalidDates(t *testing.T) {
	ctx := context.Background()

	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			for _, date := range []string{"", "2024-13-01", "yesterday", "2024/01/02"} {
				if err := s.Put(ctx, date, []byte(`[]`)); !errors.Is(err, ErrInvalidDate) {
					t.Errorf("Put(%q): expected ErrInvalidDate, got %v", date, err)
				}
				if _, err := s.Get(ctx, date); !errors.Is(err, ErrInvalidDate) {
					t.Errorf("Get(%q): expected ErrInvalidDate, got %v", date, err)
				}
			}
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("redis", t.TempDir())
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("Expected ErrUnknownBackend, got: %v", err)
	}
}

func TestFileStorePersistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "logs.json")

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("Failed to create FileStore: %v", err)
	}
	if err := s.Put(ctx, "2024-01-02", []byte(`[{"id":1,"text":"a"}]`)); err != nil {
		t.Fatalf("Failed to put log: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Failed to close FileStore: %v", err)
	}

	// Reopen and check the log survived
	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("Failed to reopen FileStore: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "2024-01-02")
	if err != nil {
		t.Fatalf("Failed to get log after reopen: %v", err)
	}
	if string(got) != `[{"id":1,"text":"a"}]` {
		t.Fatalf("Unexpected payload after reopen: %s", got)
	}
}

func TestFileStoreRejectsInvalidJSON(t *testing.T) {
	s, err := NewFileStore("")
	if err != nil {
		t.Fatalf("Failed to create FileStore: %v", err)
	}

	if err := s.Put(context.Background(), "2024-01-02", []byte("not json")); err == nil {
		t.Fatal("Expected an error for a non-JSON payload")
	}
}

func TestSQLiteStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "logs.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("Failed to open SQLite store: %v", err)
	}
	if err := s.Put(ctx, "2024-05-06", []byte(`[]`)); err != nil {
		t.Fatalf("Failed to put log: %v", err)
	}
	s.Close()

	// Migrations must not be applied twice
	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("Failed to reopen SQLite store: %v", err)
	}
	defer reopened.Close()

	dates, err := reopened.List(ctx)
	if err != nil {
		t.Fatalf("Failed to list logs: %v", err)
	}
	if len(dates) != 1 || dates[0] != "2024-05-06" {
		t.Fatalf("Unexpected dates after reopen: %v", dates)
	}
}
