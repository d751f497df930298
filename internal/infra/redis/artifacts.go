package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/adsctl/optimizer/internal/optimize/model"
)

// ArtifactStore implements model.ArtifactStore using Redis, so trained
// models survive restarts and are shared between processes.
type ArtifactStore struct {
	rdb *redis.Client
}

// NewArtifactStore creates a Redis-backed artifact store.
func NewArtifactStore(client *Client) *ArtifactStore {
	return &ArtifactStore{rdb: client.rdb}
}

// Key helpers
func artifactKey(scope, name string) string {
	return fmt.Sprintf("models:%s:%s", scope, name)
}

// SaveArtifact stores the blob without expiry; models are replaced by the
// next training run, not aged out.
func (s *ArtifactStore) SaveArtifact(ctx context.Context, scope, name string, blob []byte) error {
	if err := s.rdb.Set(ctx, artifactKey(scope, name), blob, 0).Err(); err != nil {
		return fmt.Errorf("failed to save artifact: %w", err)
	}
	return nil
}

// LoadArtifact retrieves a stored blob.
func (s *ArtifactStore) LoadArtifact(ctx context.Context, scope, name string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, artifactKey(scope, name)).Bytes()
	if err == redis.Nil {
		return nil, model.ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load artifact: %w", err)
	}
	return data, nil
}
