// Package hashing provides a local, deterministic embedding service based on
// feature hashing. It needs no network and no model download, which makes it
// the default provider and the one used by tests.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/custodia-labs/medroute/internal/core/domain"
	"github.com/custodia-labs/medroute/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "hashing-v1"
	DefaultDimensions = 384

	bigramWeight = 0.5
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Config holds configuration for the hashing embedding service.
type Config struct {
	// Dimensions is the number of hash buckets (default: 384).
	Dimensions int
}

// EmbeddingService hashes unigrams and bigrams into signed buckets.
type EmbeddingService struct {
	dimensions int
	model      string
}

// NewEmbeddingService creates a new hashing embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.Dimensions < 1 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got %d", domain.ErrInvalidParameter, cfg.Dimensions)
	}

	// Vectors of different widths are not comparable, so the width is part of the model id.
	model := DefaultModel
	if cfg.Dimensions != DefaultDimensions {
		model = fmt.Sprintf("%s-d%d", DefaultModel, cfg.Dimensions)
	}

	return &EmbeddingService{dimensions: cfg.Dimensions, model: model}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.vector(text), nil
}

// EmbedBatch generates embeddings for multiple texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = s.vector(text)
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the model identifier.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *EmbeddingService) Close() error {
	return nil
}

// Tokens splits text into lower-cased letter/digit runs.
func Tokens(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func (s *EmbeddingService) vector(text string) []float32 {
	v := make([]float32, s.dimensions)
	tokens := Tokens(text)
	for i, tok := range tokens {
		s.add(v, tok, 1)
		if i > 0 {
			s.add(v, tokens[i-1]+" "+tok, bigramWeight)
		}
	}

	// Empty input or cancelling collisions would leave nothing to normalise.
	for _, x := range v {
		if x != 0 {
			return v
		}
	}
	s.add(v, "\x00"+text, 1)
	return v
}

func (s *EmbeddingService) add(v []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := int(sum % uint64(s.dimensions))
	if sum>>63 == 1 {
		weight = -weight
	}
	v[bucket] += weight
}
