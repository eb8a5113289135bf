package driving

import (
	"context"

	"github.com/custodia-labs/medroute/internal/core/domain"
)

// QueryService routes free-text queries to topics and retrieves documents.
type QueryService interface {
	// Answer routes the query to its best topic and returns the top k documents there.
	Answer(ctx context.Context, query string, k int) (*domain.Answer, error)

	// Route ranks topics against the query and returns the best topN.
	Route(ctx context.Context, query string, topN int) ([]domain.RouteResult, error)

	// SearchTopic searches a named topic without routing.
	SearchTopic(ctx context.Context, topic, query string, k int) ([]domain.ScoredDocument, error)

	// Topics lists the routable topics in artifact order.
	Topics() []domain.TopicSummary

	// Warm builds every topic's retrieval index ahead of the first query.
	Warm(ctx context.Context) error

	// ModelName returns the embedding model the router was built with.
	ModelName() string
}

// BuildService runs the offline router build.
type BuildService interface {
	// Build computes centroids for every topic source and persists the artifact.
	// Per-topic failures are reported, not returned; an error means nothing was saved.
	Build(ctx context.Context, opts domain.BuildOptions) (*domain.BuildReport, error)

	// History returns recent build reports, newest first.
	History(ctx context.Context, limit int) ([]domain.BuildReport, error)
}
