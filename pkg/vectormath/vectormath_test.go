package vectormath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenza-tech/matcher-backend/pkg/e"
)

func TestCosine_SelfSimilarityIsOne(t *testing.T) {
	v := []float32{0.3, -1.2, 4.5, 0.01}

	sim, err := Cosine(v, v)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestCosine_OrthogonalVectorsAreZero(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0, 1, 0}

	sim, err := Cosine(a, b)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)
}

func TestCosine_ZeroVectorIsZero(t *testing.T) {
	zero := []float32{0, 0, 0}
	v := []float32{0.5, -2, 3}

	sim, err := Cosine(zero, v)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)
	assert.False(t, math.IsNaN(sim))

	sim, err = Cosine(zero, zero)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)
}

func TestCosine_Symmetric(t *testing.T) {
	a := []float32{0.9, 0.1, -0.4, 2.2}
	b := []float32{-0.3, 1.7, 0.8, 0.05}

	ab, err := Cosine(a, b)
	require.NoError(t, err)
	ba, err := Cosine(b, a)
	require.NoError(t, err)

	assert.Equal(t, ab, ba)
}

func TestCosine_DimensionMismatchFailsLoudly(t *testing.T) {
	_, err := Cosine([]float32{1, 2}, []float32{1, 2, 3})
	require.ErrorIs(t, err, e.ErrDimensionMismatch)
}

func TestCosine_OppositeVectorsAreNegative(t *testing.T) {
	a := []float32{1, 1}
	b := []float32{-1, -1}

	sim, err := Cosine(a, b)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, 1e-9)
}

func TestCosineOrZero_MismatchIsZero(t *testing.T) {
	assert.Equal(t, 0.0, CosineOrZero([]float32{1}, []float32{1, 2}))
}

func TestCosineOrZero_MatchesCosine(t *testing.T) {
	a := []float32{0.2, 0.4}
	b := []float32{0.4, 0.8}

	want, err := Cosine(a, b)
	require.NoError(t, err)
	assert.Equal(t, want, CosineOrZero(a, b))
}
