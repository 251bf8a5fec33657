package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileStore keeps every log in memory and persists the whole set to a single
// JSON file on each write. Payloads are stored as JSON values, not strings,
// so the file stays readable.
type FileStore struct {
	data     map[string][]byte
	filePath string
	mutex    sync.RWMutex
}

// NewFileStore creates a file-backed store, loading filePath if it exists.
// An empty filePath keeps everything in memory.
func NewFileStore(filePath string) (*FileStore, error) {
	s := &FileStore{
		data:     make(map[string][]byte),
		filePath: filePath,
	}

	if filePath == "" {
		return s, nil
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	var stored map[string]json.RawMessage
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse store file: %w", err)
	}
	for date, payload := range stored {
		s.data[date] = []byte(payload)
	}

	return s, nil
}

// Put implements the Store interface Put method
func (s *FileStore) Put(_ context.Context, date string, payload []byte) error {
	if err := ValidateDate(date); err != nil {
		return err
	}
	if !json.Valid(payload) {
		return fmt.Errorf("payload for %s is not valid JSON", date)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data[date] = append([]byte(nil), payload...)
	return s.persistToDisk()
}

// Get implements the Store interface Get method
func (s *FileStore) Get(_ context.Context, date string) ([]byte, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	payload, ok := s.data[date]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), payload...), nil
}

// Delete implements the Store interface Delete method
func (s *FileStore) Delete(_ context.Context, date string) error {
	if err := ValidateDate(date); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.data[date]; !ok {
		return nil
	}
	delete(s.data, date)
	return s.persistToDisk()
}

// List implements the Store interface List method
func (s *FileStore) List(_ context.Context) ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	dates := make([]string, 0, len(s.data))
	for date := range s.data {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates, nil
}

// Close implements the Store interface Close method
func (s *FileStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.persistToDisk()
}

// persistToDisk writes the current state through a temp file.
// Callers must hold the write lock.
func (s *FileStore) persistToDisk() error {
	if s.filePath == "" {
		return nil
	}

	stored := make(map[string]json.RawMessage, len(s.data))
	for date, payload := range s.data {
		stored[date] = json.RawMessage(payload)
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	tmpPath := s.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmpPath, s.filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}
