package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenza-tech/matcher-backend/internal/domain"
)

func productsByID(products ...domain.Product) map[string]domain.Product {
	m := make(map[string]domain.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m
}

func TestGenerateCandidates_RecallFloor(t *testing.T) {
	query := unitVector(0)
	store := domain.NewEmbeddingStore(map[string][]float32{
		"high": unitVector(25.84),  // cos ≈ 0.9
		"mid":  unitVector(66.42),  // cos ≈ 0.4
		"low":  unitVector(84.26),  // cos ≈ 0.1
	})
	products := productsByID(
		*domain.NewProduct("high", "High", "shoes", "", 100),
		*domain.NewProduct("mid", "Mid", "bags", "", 100),
		*domain.NewProduct("low", "Low", "hats", "", 100),
	)

	out := GenerateCandidates(query, store, products, 0.3)

	require.Len(t, out, 2)
	got := map[string]bool{}
	for _, c := range out {
		got[c.Product.ID] = true
	}
	assert.True(t, got["high"])
	assert.True(t, got["mid"])
	assert.False(t, got["low"])
}

func TestGenerateCandidates_FloorIsInclusive(t *testing.T) {
	query := []float32{1, 0}
	store := domain.NewEmbeddingStore(map[string][]float32{
		"exact": {0.3, 0}, // cos = 1 по направлению... масштаб не влияет
	})
	products := productsByID(*domain.NewProduct("exact", "Exact", "shoes", "", 100))

	// близость коллинеарных векторов равна 1 независимо от длины
	out := GenerateCandidates(query, store, products, 1.0)
	require.Len(t, out, 1)
	assert.InDelta(t, 1.0, out[0].Similarity, 1e-6)
}

func TestGenerateCandidates_SkipsProductsMissingFromCatalog(t *testing.T) {
	query := unitVector(0)
	store := domain.NewEmbeddingStore(map[string][]float32{
		"known":   unitVector(10),
		"orphan":  unitVector(10),
	})
	products := productsByID(*domain.NewProduct("known", "Known", "shoes", "", 100))

	out := GenerateCandidates(query, store, products, 0.3)

	require.Len(t, out, 1)
	assert.Equal(t, "known", out[0].Product.ID)
}

func TestGenerateCandidates_DimensionMismatchScoresZero(t *testing.T) {
	query := []float32{1, 0, 0} // размерность 3 против 2 в хранилище
	store := domain.NewEmbeddingStore(map[string][]float32{
		"p": unitVector(0),
	})
	products := productsByID(*domain.NewProduct("p", "P", "shoes", "", 100))

	out := GenerateCandidates(query, store, products, 0.3)
	assert.Empty(t, out)
}
