package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/medroute/internal/core/domain"
	"github.com/custodia-labs/medroute/internal/core/ports/driven"
	"github.com/custodia-labs/medroute/internal/core/ports/driving"
	"github.com/custodia-labs/medroute/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryConfig holds query-time settings.
type QueryConfig struct {
	// MaxAbstractChars truncates abstracts when embedding a topic's documents.
	MaxAbstractChars int
}

// QueryService answers queries: embed, route, fetch the topic index, search.
type QueryService struct {
	router   *TopicRouter
	encoder  *Encoder
	source   driven.DocumentSource
	newIndex driven.VectorIndexFactory
	cache    *IndexCache
	cfg      QueryConfig
}

// NewQueryService creates a new query service.
// A nil cache gets a fresh IndexCache.
func NewQueryService(
	router *TopicRouter,
	encoder *Encoder,
	source driven.DocumentSource,
	newIndex driven.VectorIndexFactory,
	cache *IndexCache,
	cfg QueryConfig,
) *QueryService {
	if cache == nil {
		cache = NewIndexCache()
	}
	if cfg.MaxAbstractChars < 1 {
		cfg.MaxAbstractChars = domain.DefaultQueryMaxAbstractChars
	}
	return &QueryService{
		router:   router,
		encoder:  encoder,
		source:   source,
		newIndex: newIndex,
		cache:    cache,
		cfg:      cfg,
	}
}

// Answer routes the query to its single best topic and returns the top k
// documents in that topic.
func (s *QueryService) Answer(ctx context.Context, query string, k int) (*domain.Answer, error) {
	logger.Section("Query")
	logger.Debug("Query: %q, k=%d", query, k)

	if err := domain.ValidateQuery(query); err != nil {
		return nil, err
	}
	if err := domain.ValidateK(k); err != nil {
		return nil, err
	}

	q, err := s.encoder.EncodeOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	routes, err := s.router.RouteVector(q, 1)
	if err != nil {
		return nil, err
	}
	best := routes[0]

	idx, err := s.topicIndex(ctx, best.Topic, best.File)
	if err != nil {
		return nil, err
	}
	hits, err := idx.Search(ctx, q, k)
	if err != nil {
		return nil, err
	}
	logger.Debug("Topic %s returned %d hit(s)", best.Topic, len(hits))

	return &domain.Answer{
		Topic:      best.Topic,
		Similarity: best.Similarity,
		Hits:       hits,
	}, nil
}

// Route returns the topN topics most similar to the query.
func (s *QueryService) Route(ctx context.Context, query string, topN int) ([]domain.RouteResult, error) {
	return s.router.Route(ctx, query, topN)
}

// SearchTopic searches the named topic without routing.
func (s *QueryService) SearchTopic(
	ctx context.Context, topic, query string, k int,
) ([]domain.ScoredDocument, error) {
	if err := domain.ValidateQuery(query); err != nil {
		return nil, err
	}
	if err := domain.ValidateK(k); err != nil {
		return nil, err
	}
	artifact := s.router.Artifact()
	i, err := artifact.TopicIndex(topic)
	if err != nil {
		return nil, err
	}

	q, err := s.encoder.EncodeOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	idx, err := s.topicIndex(ctx, topic, artifact.TopicFiles[i])
	if err != nil {
		return nil, err
	}
	return idx.Search(ctx, q, k)
}

// Topics lists routable topics in artifact order.
func (s *QueryService) Topics() []domain.TopicSummary {
	return s.router.Artifact().Summaries()
}

// ModelName returns the embedding model the router was built with.
func (s *QueryService) ModelName() string {
	return s.router.Artifact().ModelName
}

// Warm builds every topic's index. Failures are logged and joined; topics
// that built successfully stay cached.
func (s *QueryService) Warm(ctx context.Context) error {
	logger.Section("Warm Indexes")
	artifact := s.router.Artifact()
	var errs []error
	for i, topic := range artifact.Topics {
		if _, err := s.topicIndex(ctx, topic, artifact.TopicFiles[i]); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("Warm %s: %v", topic, err)
			errs = append(errs, fmt.Errorf("%s: %w", topic, err))
		}
	}
	return errors.Join(errs...)
}

// topicIndex returns the cached index for a topic source, building it on first use.
func (s *QueryService) topicIndex(ctx context.Context, topic, file string) (*TopicIndex, error) {
	return s.cache.GetOrBuild(ctx, file, func(ctx context.Context) (*TopicIndex, error) {
		return s.buildTopicIndex(ctx, topic, file)
	})
}

func (s *QueryService) buildTopicIndex(ctx context.Context, topic, file string) (*TopicIndex, error) {
	defer logger.Timed("Built index for " + topic)()

	docs, err := s.source.Load(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("load topic %s: %w", topic, err)
	}
	if len(docs) == 0 {
		logger.Warn("Topic %s has no usable documents", topic)
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.EmbeddingText(s.cfg.MaxAbstractChars)
	}
	vectors, err := s.encoder.Encode(ctx, texts, true)
	if err != nil {
		return nil, fmt.Errorf("embed topic %s: %w", topic, err)
	}

	index, err := s.newIndex(s.router.Artifact().Dimensions())
	if err != nil {
		return nil, fmt.Errorf("create index for %s: %w", topic, err)
	}
	return NewTopicIndex(ctx, file, topic, docs, vectors, index)
}
