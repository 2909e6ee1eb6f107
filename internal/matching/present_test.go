package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenza-tech/matcher-backend/internal/domain"
)

func TestPresent_ThresholdIsInclusive(t *testing.T) {
	results := []domain.ScoredProduct{
		scored("exact", "shoes", 0.5),
		scored("below", "shoes", 0.49999),
		scored("above", "shoes", 0.7),
	}

	out := Present(results, 0.5, domain.SortByHighest)

	require.Len(t, out, 2)
	assert.Equal(t, "above", out[0].Product.ID)
	assert.Equal(t, "exact", out[1].Product.ID)
}

func TestPresent_SortByLowest(t *testing.T) {
	results := []domain.ScoredProduct{
		scored("a", "shoes", 0.9),
		scored("b", "bags", 0.6),
		scored("c", "hats", 0.7),
	}

	out := Present(results, 0.0, domain.SortByLowest)

	require.Len(t, out, 3)
	assert.Equal(t, "b", out[0].Product.ID)
	assert.Equal(t, "c", out[1].Product.ID)
	assert.Equal(t, "a", out[2].Product.ID)
}

func TestPresent_SortByCategoryIgnoresScore(t *testing.T) {
	results := []domain.ScoredProduct{
		scored("z", "shoes", 0.99),
		scored("a", "bags", 0.51),
		scored("m", "hats", 0.75),
	}

	out := Present(results, 0.5, domain.SortByCategory)

	require.Len(t, out, 3)
	assert.Equal(t, "bags", out[0].Product.Category)
	assert.Equal(t, "hats", out[1].Product.Category)
	assert.Equal(t, "shoes", out[2].Product.Category)
}

func TestPresent_StableOnEqualKeys(t *testing.T) {
	results := []domain.ScoredProduct{
		scored("first", "shoes", 0.8),
		scored("second", "shoes", 0.8),
	}

	out := Present(results, 0.0, domain.SortByCategory)

	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Product.ID)
	assert.Equal(t, "second", out[1].Product.ID)
}

func TestPresent_DoesNotMutateResultSet(t *testing.T) {
	results := []domain.ScoredProduct{
		scored("a", "shoes", 0.9),
		scored("b", "bags", 0.6),
	}

	_ = Present(results, 0.7, domain.SortByLowest)

	assert.Equal(t, "a", results[0].Product.ID)
	assert.Equal(t, "b", results[1].Product.ID)
}

func TestPresent_EmptyResultSet(t *testing.T) {
	out := Present(nil, 0.5, domain.SortByHighest)
	assert.Empty(t, out)
}
