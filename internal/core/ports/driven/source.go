package driven

import (
	"context"

	"github.com/custodia-labs/medroute/internal/core/domain"
)

// DocumentSource loads topic documents from their backing files.
type DocumentSource interface {
	// Load returns the documents of one topic source in source order.
	// Records with neither title nor abstract are dropped.
	// Returns domain.ErrSourceNotFound or domain.ErrMalformedSource.
	Load(ctx context.Context, source string) ([]domain.Document, error)

	// List returns the topic sources in dir, sorted by name.
	List(ctx context.Context, dir string) ([]string, error)
}
