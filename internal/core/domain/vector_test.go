package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDot(t *testing.T) {
	assert.InDelta(t, 11.0, Dot([]float32{1, 2}, []float32{3, 4}), 1e-9)
	assert.InDelta(t, 0.0, Dot([]float32{1, 0}, []float32{0, 1}), 1e-9)
}

func TestNormalize(t *testing.T) {
	v, err := Normalize([]float32{3, 4})

	require.NoError(t, err)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
	assert.True(t, IsUnit(v))
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := []float32{3, 4}
	_, err := Normalize(in)

	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4}, in)
}

func TestNormalize_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		v    []float32
	}{
		{"empty", nil},
		{"zero", []float32{0, 0, 0}},
		{"nan", []float32{float32(math.NaN()), 1}},
		{"inf", []float32{float32(math.Inf(1)), 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.v)
			assert.ErrorIs(t, err, ErrDegenerateEmbedding)
		})
	}
}

func TestCentroid_IsUnitNorm(t *testing.T) {
	rows := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.6, 0.8, 0},
	}

	c, err := Centroid(rows)

	require.NoError(t, err)
	assert.InDelta(t, 1.0, Norm(c), UnitNormTolerance)
	assert.InDelta(t, 0.0, c[2], 1e-9)
}

func TestCentroid_SingleRow(t *testing.T) {
	c, err := Centroid([][]float32{{0, 1}})

	require.NoError(t, err)
	assert.InDelta(t, 0.0, c[0], 1e-9)
	assert.InDelta(t, 1.0, c[1], 1e-6)
}

func TestCentroid_OpposingRowsStayFinite(t *testing.T) {
	c, err := Centroid([][]float32{{1, 0}, {-1, 0}})

	require.NoError(t, err)
	for _, x := range c {
		assert.False(t, math.IsNaN(float64(x)))
	}
	assert.InDelta(t, 0.0, Norm(c), 1e-9)
}

func TestCentroid_Errors(t *testing.T) {
	_, err := Centroid(nil)
	assert.ErrorIs(t, err, ErrEmptyTopic)

	_, err = Centroid([][]float32{{1, 0}, {1}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}
