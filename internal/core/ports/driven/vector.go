package driven

import "context"

// AbsentPosition marks a padding slot in a VectorIndex result.
// When fewer than k vectors are stored, indexes may append absent hits
// after the real ones. Callers must discard them.
const AbsentPosition = -1

// VectorIndex provides exact inner-product similarity search.
// Vectors are addressed by insertion position.
type VectorIndex interface {
	// Add appends vectors. Positions continue from the current Len.
	Add(ctx context.Context, vectors ...[]float32) error

	// Search returns at most k real hits in descending similarity order,
	// possibly followed by absent hits. Ties are broken by ascending position.
	// Memory use is bounded by Len, not by k.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of stored vectors.
	Len() int

	// Dimensions returns the vector size the index accepts.
	Dimensions() int

	// Close releases resources.
	Close() error
}

// VectorIndexFactory creates empty indexes of a given dimension.
type VectorIndexFactory func(dimensions int) (VectorIndex, error)

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Position is the insertion position of the matched vector, or AbsentPosition.
	Position int

	// Similarity is the inner product with the query.
	Similarity float64
}

// Absent reports whether the hit is padding.
func (h VectorHit) Absent() bool {
	return h.Position == AbsentPosition
}
