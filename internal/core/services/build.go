package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/medroute/internal/core/domain"
	"github.com/custodia-labs/medroute/internal/core/ports/driven"
	"github.com/custodia-labs/medroute/internal/core/ports/driving"
	"github.com/custodia-labs/medroute/internal/logger"
)

// Ensure BuildService implements the interface.
var _ driving.BuildService = (*BuildService)(nil)

// BuildService computes topic centroids from a corpus directory and saves
// the resulting router artifact.
type BuildService struct {
	source  driven.DocumentSource
	encoder *Encoder
	store   driven.ArtifactStore
	history driven.BuildHistory

	now   func() time.Time
	newID func() string
}

// NewBuildService creates a new build service.
// The history parameter is optional (can be nil).
func NewBuildService(
	source driven.DocumentSource,
	encoder *Encoder,
	store driven.ArtifactStore,
	history driven.BuildHistory,
) *BuildService {
	return &BuildService{
		source:  source,
		encoder: encoder,
		store:   store,
		history: history,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Build computes the artifact, saves it and records the report.
// The report is returned even when the build fails, so callers can show
// which topics went wrong.
func (s *BuildService) Build(ctx context.Context, opts domain.BuildOptions) (*domain.BuildReport, error) {
	artifact, report, err := s.Compute(ctx, opts)
	if err != nil {
		report.Error = err.Error()
		s.record(ctx, report)
		return report, err
	}

	logger.Debug("Saving router artifact (%d topics, dim %d) to %s",
		artifact.NumTopics(), artifact.Dimensions(), s.store.Location())
	if err := s.store.Save(ctx, artifact); err != nil {
		err = fmt.Errorf("save router artifact: %w", err)
		report.Error = err.Error()
		s.record(ctx, report)
		return report, err
	}

	s.record(ctx, report)
	return report, nil
}

// History returns recent build reports, newest first.
func (s *BuildService) History(ctx context.Context, limit int) ([]domain.BuildReport, error) {
	if s.history == nil {
		return []domain.BuildReport{}, nil
	}
	return s.history.List(ctx, limit)
}

// Compute builds the router artifact in memory without persisting it.
//
// Topic sources are processed in name order. A topic that fails to load or
// embed is recorded in the report and skipped; a topic with no usable
// documents is skipped without producing a centroid. Compute fails with
// domain.ErrNoTopicsBuilt when no topic succeeds.
func (s *BuildService) Compute(
	ctx context.Context, opts domain.BuildOptions,
) (*domain.RouterArtifact, *domain.BuildReport, error) {
	report := &domain.BuildReport{
		ID:        s.newID(),
		StartedAt: s.now(),
		ModelName: s.encoder.ModelName(),
		Succeeded: []domain.TopicBuild{},
		Failed:    []domain.TopicFailure{},
		Skipped:   []string{},
	}
	defer func() { report.FinishedAt = s.now() }()

	if opts.CorpusDir == "" {
		return nil, report, fmt.Errorf("%w: corpus directory not set", domain.ErrInvalidParameter)
	}
	if opts.MaxDocsPerTopic < 1 {
		return nil, report, fmt.Errorf("%w: max docs per topic must be >= 1, got %d",
			domain.ErrInvalidParameter, opts.MaxDocsPerTopic)
	}

	logger.Section("Router Build")
	logger.Debug("Corpus: %s, cap %d, seed %d, model %s",
		opts.CorpusDir, opts.MaxDocsPerTopic, opts.Seed, report.ModelName)

	sources, err := s.source.List(ctx, opts.CorpusDir)
	if err != nil {
		return nil, report, fmt.Errorf("list topic sources: %w", err)
	}

	artifact := &domain.RouterArtifact{ModelName: report.ModelName}
	for _, src := range sources {
		topic := domain.TopicName(src)

		built, err := s.buildTopic(ctx, topic, src, opts)
		switch {
		case err == nil:
			artifact.Append(topic, built.centroid, built.summary.RepresentativeTitle, src)
			report.Succeeded = append(report.Succeeded, built.summary)
		case errors.Is(err, domain.ErrEmptyTopic):
			logger.Warn("Skipping topic %s: no usable documents", topic)
			report.Skipped = append(report.Skipped, topic)
		case ctx.Err() != nil:
			return nil, report, ctx.Err()
		default:
			logger.Error("Topic %s failed: %v", topic, err)
			report.Failed = append(report.Failed, domain.TopicFailure{
				Topic:  topic,
				File:   src,
				Reason: err.Error(),
			})
		}
	}

	if artifact.NumTopics() == 0 {
		return nil, report, fmt.Errorf("%w from %d source(s) in %s", domain.ErrNoTopicsBuilt, len(sources), opts.CorpusDir)
	}
	if err := artifact.Validate(); err != nil {
		return nil, report, err
	}
	return artifact, report, nil
}

type topicBuild struct {
	centroid []float32
	summary  domain.TopicBuild
}

func (s *BuildService) buildTopic(
	ctx context.Context, topic, src string, opts domain.BuildOptions,
) (*topicBuild, error) {
	docs, err := s.source.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, domain.ErrEmptyTopic
	}

	picked := sampleIndices(len(docs), opts.MaxDocsPerTopic, opts.Seed, topic)
	texts := make([]string, len(picked))
	for i, p := range picked {
		texts[i] = docs[p].EmbeddingText(opts.MaxAbstractChars)
	}

	stop := logger.Timed(fmt.Sprintf("Embedded %s (%d of %d docs)", topic, len(picked), len(docs)))
	rows, err := s.encoder.Encode(ctx, texts, true)
	stop()
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", topic, err)
	}

	centroid, err := domain.Centroid(rows)
	if err != nil {
		return nil, err
	}

	best, bestSim := 0, domain.Dot(rows[0], centroid)
	for i := 1; i < len(rows); i++ {
		if sim := domain.Dot(rows[i], centroid); sim > bestSim {
			best, bestSim = i, sim
		}
	}
	title := docs[picked[best]].Title
	if title == "" {
		title = domain.NoTitlePlaceholder
	}
	logger.Debug("Topic %s: representative %q (sim %.4f)", topic, title, bestSim)

	return &topicBuild{
		centroid: centroid,
		summary: domain.TopicBuild{
			Topic:               topic,
			File:                src,
			Documents:           len(docs),
			Sampled:             len(picked),
			RepresentativeTitle: title,
		},
	}, nil
}

// record stores the report even when ctx was cancelled mid-build.
func (s *BuildService) record(ctx context.Context, report *domain.BuildReport) {
	if s.history == nil || report == nil {
		return
	}
	if err := s.history.Record(context.WithoutCancel(ctx), report); err != nil {
		logger.Warn("Failed to record build %s: %v", report.ID, err)
	}
}

// sampleIndices returns the positions of the documents that feed a topic's
// centroid, in ascending order. Below the cap every position is used.
// Above it, a uniform sample without replacement is drawn from a PCG stream
// keyed by the seed and the topic name, so each topic's sample is
// reproducible and independent of the other topics in the corpus.
func sampleIndices(n, limit int, seed uint64, topic string) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if n <= limit {
		return idx
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(topic))
	r := rand.New(rand.NewPCG(seed, h.Sum64()))

	// Partial Fisher-Yates: the first limit slots end up a uniform sample.
	for i := 0; i < limit; i++ {
		j := i + r.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	out := idx[:limit]
	slices.Sort(out)
	return out
}
