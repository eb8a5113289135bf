package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/medroute/internal/core/domain"
	"github.com/custodia-labs/medroute/internal/core/ports/driven"
	"github.com/custodia-labs/medroute/internal/logger"
)

// EncoderConfig controls batching and concurrency of an Encoder.
type EncoderConfig struct {
	// BatchSize is the number of texts per provider call. Defaults to 16.
	BatchSize int

	// MaxWorkers caps concurrent provider calls across every caller of
	// this Encoder. Defaults to 1.
	MaxWorkers int
}

// Encoder turns texts into embedding matrices on top of an EmbeddingService.
// It is safe for concurrent use; the worker cap is shared by all callers.
type Encoder struct {
	svc       driven.EmbeddingService
	cache     driven.EmbeddingCache
	batchSize int
	workers   *semaphore.Weighted
	limit     int
}

// NewEncoder creates an encoder. The cache is optional (can be nil).
func NewEncoder(svc driven.EmbeddingService, cache driven.EmbeddingCache, cfg EncoderConfig) *Encoder {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = domain.DefaultBatchSize
	}
	if cfg.MaxWorkers < 1 {
		cfg.MaxWorkers = domain.DefaultMaxWorkers
	}
	return &Encoder{
		svc:       svc,
		cache:     cache,
		batchSize: cfg.BatchSize,
		workers:   semaphore.NewWeighted(int64(cfg.MaxWorkers)),
		limit:     cfg.MaxWorkers,
	}
}

// ModelName returns the underlying model identifier.
func (e *Encoder) ModelName() string {
	return e.svc.ModelName()
}

// Dimensions returns the underlying model's vector size.
func (e *Encoder) Dimensions() int {
	return e.svc.Dimensions()
}

// EncodeOne embeds a single text and normalises it to unit length.
func (e *Encoder) EncodeOne(ctx context.Context, text string) ([]float32, error) {
	rows, err := e.Encode(ctx, []string{text}, true)
	if err != nil {
		return nil, err
	}
	return rows[0], nil
}

// Encode embeds texts and returns one row per text, in input order.
// With normalize set every row has unit length; a row that cannot be
// normalised fails the call with domain.ErrDegenerateEmbedding.
func (e *Encoder) Encode(ctx context.Context, texts []string, normalize bool) ([][]float32, error) {
	if e.svc == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	rows := make([][]float32, len(texts))
	if len(texts) == 0 {
		return rows, nil
	}

	model := e.svc.ModelName()
	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = cacheKey(t)
	}

	missing := e.fillFromCache(ctx, model, keys, rows)
	if len(missing) > 0 {
		if err := e.embedMissing(ctx, texts, missing, rows); err != nil {
			return nil, err
		}
		e.storeInCache(ctx, model, keys, missing, rows)
	}

	dim := len(rows[0])
	for i, row := range rows {
		if len(row) == 0 || len(row) != dim {
			return nil, fmt.Errorf("%w: text %d has %d dimensions, want %d", domain.ErrDimensionMismatch, i, len(row), dim)
		}
		if !normalize {
			continue
		}
		unit, err := domain.Normalize(row)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		rows[i] = unit
	}
	return rows, nil
}

// fillFromCache copies cached vectors into rows and returns the positions still missing.
func (e *Encoder) fillFromCache(ctx context.Context, model string, keys []string, rows [][]float32) []int {
	missing := make([]int, 0, len(keys))
	var cached map[string][]float32
	if e.cache != nil {
		var err error
		cached, err = e.cache.Get(ctx, model, keys)
		if err != nil {
			logger.Warn("Embedding cache lookup failed: %v", err)
			cached = nil
		}
	}
	for i, k := range keys {
		if v, ok := cached[k]; ok {
			rows[i] = append([]float32(nil), v...)
			continue
		}
		missing = append(missing, i)
	}
	if e.cache != nil {
		logger.Debug("Embedding cache: %d hit(s), %d miss(es)", len(keys)-len(missing), len(missing))
	}
	return missing
}

// embedMissing calls the provider for the texts at the missing positions,
// one batch at a time under the worker semaphore.
func (e *Encoder) embedMissing(ctx context.Context, texts []string, missing []int, rows [][]float32) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)

	for start := 0; start < len(missing); start += e.batchSize {
		end := min(start+e.batchSize, len(missing))
		positions := missing[start:end]

		g.Go(func() error {
			if err := e.workers.Acquire(gctx, 1); err != nil {
				return err
			}
			defer e.workers.Release(1)

			batch := make([]string, len(positions))
			for j, p := range positions {
				batch[j] = texts[p]
			}
			vectors, err := e.svc.EmbedBatch(gctx, batch)
			if err != nil {
				return fmt.Errorf("embed batch of %d: %w", len(batch), err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("embed batch: got %d vectors for %d texts", len(vectors), len(batch))
			}
			for j, p := range positions {
				rows[p] = vectors[j]
			}
			return nil
		})
	}
	return g.Wait()
}

func (e *Encoder) storeInCache(ctx context.Context, model string, keys []string, missing []int, rows [][]float32) {
	if e.cache == nil {
		return
	}
	fresh := make(map[string][]float32, len(missing))
	for _, p := range missing {
		fresh[keys[p]] = rows[p]
	}
	if err := e.cache.Put(ctx, model, fresh); err != nil {
		logger.Warn("Embedding cache store failed: %v", err)
	}
}

// cacheKey is the hex SHA-256 digest of the embedded text.
func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
