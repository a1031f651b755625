package blob

import (
	"context"
	"io"
	"sync"
)

// MemoryStore is an in-memory Store used by tests. PutErr and DeleteErr allow
// fault injection for exercising best-effort and rollback paths.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	PutErr    error
	DeleteErr error
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string][]byte{}}
}

// Put stores the content under a mem:// URL derived from the key.
func (s *MemoryStore) Put(_ context.Context, key string, _ string, content io.Reader) (string, error) {
	if s.PutErr != nil {
		return "", s.PutErr
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	assetURL := "mem://" + key
	s.objects[assetURL] = data
	return assetURL, nil
}

// Delete removes the asset; absent assets report ErrNotFound.
func (s *MemoryStore) Delete(_ context.Context, assetURL string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[assetURL]; !ok {
		return ErrNotFound
	}
	delete(s.objects, assetURL)
	return nil
}

// Len reports the number of stored assets.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// Get returns the stored bytes for a URL.
func (s *MemoryStore) Get(assetURL string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[assetURL]
	return data, ok
}
