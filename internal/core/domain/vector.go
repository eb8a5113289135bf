package domain

import (
	"fmt"
	"math"
)

// CentroidEpsilon is added to the centroid norm before division so that a
// degenerate all-zero mean does not divide by zero.
const CentroidEpsilon = 1e-12

// UnitNormTolerance is how far from 1.0 a vector norm may drift and still count as unit length.
const UnitNormTolerance = 1e-5

// Dot returns the inner product of a and b.
// Both vectors must have the same length; extra elements of the longer one are ignored.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Norm returns the Euclidean length of v.
func Norm(v []float32) float64 {
	return math.Sqrt(Dot(v, v))
}

// IsUnit reports whether v has unit length within UnitNormTolerance.
func IsUnit(v []float32) bool {
	return math.Abs(Norm(v)-1) <= UnitNormTolerance
}

// Normalize returns a unit-length copy of v.
// Zero-length, zero-norm and non-finite vectors cannot be normalised.
func Normalize(v []float32) ([]float32, error) {
	if len(v) == 0 {
		return nil, fmt.Errorf("%w: empty vector", ErrDegenerateEmbedding)
	}
	norm := Norm(v)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, fmt.Errorf("%w: norm %v", ErrDegenerateEmbedding, norm)
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, nil
}

// Centroid returns the mean of rows re-normalised to unit length.
// Accumulation happens in float64. rows must be non-empty and share one dimension.
func Centroid(rows [][]float32) ([]float32, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyTopic
	}
	dim := len(rows[0])
	sum := make([]float64, dim)
	for i, row := range rows {
		if len(row) != dim {
			return nil, fmt.Errorf("%w: row %d has %d dimensions, want %d", ErrDimensionMismatch, i, len(row), dim)
		}
		for j, x := range row {
			sum[j] += float64(x)
		}
	}

	n := float64(len(rows))
	var sq float64
	for j := range sum {
		sum[j] /= n
		sq += sum[j] * sum[j]
	}
	denom := math.Sqrt(sq) + CentroidEpsilon

	c := make([]float32, dim)
	for j := range sum {
		c[j] = float32(sum[j] / denom)
	}
	return c, nil
}
