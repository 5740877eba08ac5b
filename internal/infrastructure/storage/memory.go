// Package storage provides the S3-backed receipt object store.
package storage

import (
	"context"
	"errors"
	"io"
	"sync"

	financeapp "github.com/spendlens/backend/internal/application/finance"
)

// MemoryReceiptStore keeps receipt objects in process memory. Use it for
// development and tests when no S3-compatible backend is available.
type MemoryReceiptStore struct {
	// BaseURL prefixes the fake download URLs
	BaseURL string

	mu      sync.RWMutex
	objects map[string][]byte
	types   map[string]string
}

// NewMemoryReceiptStore creates a new MemoryReceiptStore
func NewMemoryReceiptStore() *MemoryReceiptStore {
	return &MemoryReceiptStore{
		BaseURL: "https://storage.invalid",
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

// Ensure MemoryReceiptStore implements the application storage interface
var _ financeapp.ReceiptStorage = (*MemoryReceiptStore)(nil)

// Upload stores the body in memory under the given key
func (s *MemoryReceiptStore) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

// PresignGet returns a fake download URL for a stored key
func (s *MemoryReceiptStore) PresignGet(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[key]; !ok {
		return "", errors.New("object not found")
	}
	return s.BaseURL + "/" + key, nil
}

// Delete removes a stored object. Deleting a missing key is a no-op.
func (s *MemoryReceiptStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	delete(s.types, key)
	return nil
}

// ObjectExists reports whether a key holds a stored object
func (s *MemoryReceiptStore) ObjectExists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("storage key is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok, nil
}

// Object returns a stored object's bytes and content type for assertions
func (s *MemoryReceiptStore) Object(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	return data, s.types[key], ok
}
