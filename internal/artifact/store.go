// Package artifact stores the answers a batch produces. An answer artifact's
// existence is the only record that a question has been handled, so writes
// must be all-or-nothing.
package artifact

import (
	"context"
	"errors"
	"sync"

	"github.com/ahrav/go-groundqa/internal/domain"
)

// Artifact store errors.
var (
	ErrArtifactKeyEmpty   = errors.New("artifact key cannot be empty")
	ErrArtifactNotFound   = errors.New("artifact not found")
	ErrArtifactKeyInvalid = errors.New("artifact key must be a plain file name")
)

// Store persists artifacts by key.
type Store interface {
	// Get retrieves stored content using artifact reference key.
	Get(ctx context.Context, ref domain.ArtifactRef) (string, error)

	// Put stores content under key, replacing any previous content atomically.
	Put(ctx context.Context, content string, kind domain.ArtifactKind, key string) (domain.ArtifactRef, error)

	// Exists checks artifact presence without reading content.
	Exists(ctx context.Context, ref domain.ArtifactRef) (bool, error)

	// Delete removes an artifact. Deleting a missing artifact is not an error.
	Delete(ctx context.Context, ref domain.ArtifactRef) error
}

// InMemoryStore keeps artifacts in a map. Used by tests and the ask command.
type InMemoryStore struct {
	mu      sync.RWMutex
	storage map[string]string
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{storage: make(map[string]string)}
}

// Get returns the content stored under ref.Key.
func (s *InMemoryStore) Get(_ context.Context, ref domain.ArtifactRef) (string, error) {
	if ref.Key == "" {
		return "", ErrArtifactKeyEmpty
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	content, exists := s.storage[ref.Key]
	if !exists {
		return "", ErrArtifactNotFound
	}
	return content, nil
}

// Put stores content under key.
func (s *InMemoryStore) Put(
	_ context.Context, content string, kind domain.ArtifactKind, key string,
) (domain.ArtifactRef, error) {
	if key == "" {
		return domain.ArtifactRef{}, ErrArtifactKeyEmpty
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.storage[key] = content
	return domain.ArtifactRef{Key: key, Size: int64(len(content)), Kind: kind}, nil
}

// Exists reports whether ref.Key is stored.
func (s *InMemoryStore) Exists(_ context.Context, ref domain.ArtifactRef) (bool, error) {
	if ref.Key == "" {
		return false, ErrArtifactKeyEmpty
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.storage[ref.Key]
	return exists, nil
}

// Delete removes ref.Key; it is idempotent.
func (s *InMemoryStore) Delete(_ context.Context, ref domain.ArtifactRef) error {
	if ref.Key == "" {
		return ErrArtifactKeyEmpty
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.storage, ref.Key)
	return nil
}

// Len returns the number of stored artifacts.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.storage)
}
