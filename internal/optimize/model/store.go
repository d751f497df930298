package model

import (
	"context"
	"errors"
	"sync"
)

// ErrArtifactNotFound indicates no blob exists for the requested scope and
// name.
var ErrArtifactNotFound = errors.New("model artifact not found")

// ArtifactStore persists opaque model blobs keyed by account scope and
// model name.
type ArtifactStore interface {
	// SaveArtifact stores blob under (scope, name), replacing any previous
	// version.
	SaveArtifact(ctx context.Context, scope, name string, blob []byte) error

	// LoadArtifact returns the blob stored under (scope, name), or
	// ErrArtifactNotFound.
	LoadArtifact(ctx context.Context, scope, name string) ([]byte, error)
}

// MemoryStore is an in-process ArtifactStore for tests and single-run CLI
// use.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) key(scope, name string) string {
	return scope + ":" + name
}

func (s *MemoryStore) SaveArtifact(ctx context.Context, scope, name string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(blob))
	copy(cp, blob)
	s.blobs[s.key(scope, name)] = cp
	return nil
}

func (s *MemoryStore) LoadArtifact(ctx context.Context, scope, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[s.key(scope, name)]
	if !ok {
		return nil, ErrArtifactNotFound
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	return cp, nil
}
