package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/custodia-labs/medroute/internal/core/domain"
	"github.com/custodia-labs/medroute/internal/logger"
)

// TopicRouter ranks topics by the similarity of their centroids to a query.
// The artifact is read-only after construction, so a router is safe for
// concurrent use.
type TopicRouter struct {
	artifact *domain.RouterArtifact
	encoder  *Encoder
}

// NewTopicRouter validates the artifact and checks that it was built with
// the encoder's model. Centroids from a different model are not comparable
// with query vectors, so a mismatch is returned as domain.ErrModelMismatch.
func NewTopicRouter(artifact *domain.RouterArtifact, encoder *Encoder) (*TopicRouter, error) {
	if artifact == nil || artifact.NumTopics() == 0 {
		return nil, domain.ErrNoTopicsBuilt
	}
	if err := artifact.Validate(); err != nil {
		return nil, err
	}
	if encoder != nil && encoder.ModelName() != artifact.ModelName {
		return nil, fmt.Errorf("%w: artifact built with %q, configured model is %q",
			domain.ErrModelMismatch, artifact.ModelName, encoder.ModelName())
	}
	return &TopicRouter{artifact: artifact, encoder: encoder}, nil
}

// Artifact returns the loaded router artifact.
func (r *TopicRouter) Artifact() *domain.RouterArtifact {
	return r.artifact
}

// Route embeds the query and returns the topN most similar topics.
func (r *TopicRouter) Route(ctx context.Context, query string, topN int) ([]domain.RouteResult, error) {
	if err := domain.ValidateQuery(query); err != nil {
		return nil, err
	}
	if err := domain.ValidateTopN(topN, r.artifact.NumTopics()); err != nil {
		return nil, err
	}
	if r.encoder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	q, err := r.encoder.EncodeOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return r.RouteVector(q, topN)
}

// RouteVector ranks topics against a unit-norm query vector.
// Results are in descending similarity; equal similarities keep artifact order.
func (r *TopicRouter) RouteVector(q []float32, topN int) ([]domain.RouteResult, error) {
	n := r.artifact.NumTopics()
	if err := domain.ValidateTopN(topN, n); err != nil {
		return nil, err
	}
	if len(q) != r.artifact.Dimensions() {
		return nil, fmt.Errorf("%w: query has %d dimensions, centroids have %d",
			domain.ErrDimensionMismatch, len(q), r.artifact.Dimensions())
	}

	sims := make([]float64, n)
	order := make([]int, n)
	for i, c := range r.artifact.Centroids {
		sims[i] = domain.Dot(c, q)
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(sims[b], sims[a])
	})

	results := make([]domain.RouteResult, topN)
	for rank, i := range order[:topN] {
		results[rank] = domain.RouteResult{
			Topic:               r.artifact.Topics[i],
			Similarity:          sims[i],
			RepresentativeTitle: r.artifact.RepresentativeTitles[i],
			File:                r.artifact.TopicFiles[i],
		}
	}
	logger.Debug("Routed to %s (sim %.4f)", results[0].Topic, results[0].Similarity)
	return results, nil
}
