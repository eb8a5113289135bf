package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidParameter indicates a caller-supplied value is outside its valid range
	// (top_n, k, an empty query).
	ErrInvalidParameter = errors.New("invalid parameter")

	// Corpus and artifact errors.

	// ErrSourceNotFound indicates a topic document file or a router artifact file is missing.
	ErrSourceNotFound = errors.New("source not found")

	// ErrMalformedSource indicates a document source is not a JSON array of objects.
	ErrMalformedSource = errors.New("malformed source")

	// ErrEmptyTopic indicates a topic has no usable documents after filtering.
	ErrEmptyTopic = errors.New("empty topic")

	// ErrNoTopicsBuilt indicates a router build finished without a single usable topic.
	ErrNoTopicsBuilt = errors.New("no topics built")

	// Embedding errors.

	// ErrModelMismatch indicates the router artifact was built with a different
	// embedding model than the one configured for querying.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrDegenerateEmbedding indicates a provider returned a vector that cannot
	// be normalised (zero norm or non-finite values).
	ErrDegenerateEmbedding = errors.New("degenerate embedding")

	// ErrDimensionMismatch indicates two vectors that must be compared have different lengths.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)
