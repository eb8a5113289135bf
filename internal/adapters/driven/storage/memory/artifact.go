package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/medroute/internal/core/domain"
	"github.com/custodia-labs/medroute/internal/core/ports/driven"
)

// Ensure ArtifactStore implements the interface.
var _ driven.ArtifactStore = (*ArtifactStore)(nil)

// ArtifactStore keeps a router artifact in memory.
type ArtifactStore struct {
	mu       sync.RWMutex
	artifact *domain.RouterArtifact
	saves    int
}

// NewArtifactStore creates an empty artifact store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{}
}

// Save replaces the stored artifact.
func (s *ArtifactStore) Save(_ context.Context, artifact *domain.RouterArtifact) error {
	if err := artifact.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifact = artifact
	s.saves++
	return nil
}

// Load returns the stored artifact or domain.ErrSourceNotFound.
func (s *ArtifactStore) Load(_ context.Context) (*domain.RouterArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.artifact == nil {
		return nil, domain.ErrSourceNotFound
	}
	return s.artifact, nil
}

// Saves returns how many artifacts were saved.
func (s *ArtifactStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Location returns a fixed marker.
func (s *ArtifactStore) Location() string {
	return ":memory:"
}
