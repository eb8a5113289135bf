package driven

import (
	"context"

	"github.com/custodia-labs/medroute/internal/core/domain"
)

// ArtifactStore persists the router artifact.
// The centroid matrix and its metadata are always written and read together.
type ArtifactStore interface {
	// Save replaces the stored artifact.
	Save(ctx context.Context, artifact *domain.RouterArtifact) error

	// Load reads the stored artifact.
	// Returns domain.ErrSourceNotFound if either part is missing.
	Load(ctx context.Context) (*domain.RouterArtifact, error)

	// Location describes where the artifact lives, for log and error messages.
	Location() string
}

// BuildHistory records router build reports.
type BuildHistory interface {
	// Record stores a finished report.
	Record(ctx context.Context, report *domain.BuildReport) error

	// List returns the most recent reports, newest first.
	List(ctx context.Context, limit int) ([]domain.BuildReport, error)
}
