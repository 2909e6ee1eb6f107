package matching

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenza-tech/matcher-backend/internal/domain"
)

// unitVector возвращает единичный 2D-вектор под углом deg градусов.
// Косинусная близость двух таких векторов равна косинусу угла между ними.
func unitVector(deg float64) []float32 {
	rad := deg * math.Pi / 180
	return []float32{float32(math.Cos(rad)), float32(math.Sin(rad))}
}

func scored(id, category string, sim float64) domain.ScoredProduct {
	return domain.NewScoredProduct(
		*domain.NewProduct(id, "product "+id, category, "https://img.example/"+id+".jpg", 1000),
		sim,
	)
}

func TestDeduplicateIDs_FirstOccurrenceWins(t *testing.T) {
	input := []domain.ScoredProduct{
		scored("p1", "shoes", 0.9),
		scored("p2", "bags", 0.8),
		scored("p1", "shoes", 0.7),
	}

	out := DeduplicateIDs(input)

	require.Len(t, out, 2)
	assert.Equal(t, "p1", out[0].Product.ID)
	assert.Equal(t, 0.9, out[0].Similarity)
	assert.Equal(t, "p2", out[1].Product.ID)
}

func TestSuppressNearDuplicates_DropsNearIdenticalEmbedding(t *testing.T) {
	// cos(a, b) = cos(25.84°) ≈ 0.9 > 0.85 — b считается дубликатом a
	store := domain.NewEmbeddingStore(map[string][]float32{
		"a": unitVector(0),
		"b": unitVector(25.84),
	})

	input := []domain.ScoredProduct{
		scored("a", "shoes", 0.95),
		scored("b", "shoes", 0.90),
	}

	out := SuppressNearDuplicates(input, store, 0.85)

	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].Product.ID)
}

func TestSuppressNearDuplicates_KeepsDistinctEmbeddings(t *testing.T) {
	// cos(a, b) = cos(36.87°) ≈ 0.8 < 0.85 — оба остаются
	store := domain.NewEmbeddingStore(map[string][]float32{
		"a": unitVector(0),
		"b": unitVector(36.87),
	})

	input := []domain.ScoredProduct{
		scored("a", "shoes", 0.95),
		scored("b", "bags", 0.90),
	}

	out := SuppressNearDuplicates(input, store, 0.85)

	require.Len(t, out, 2)
}

func TestSuppressNearDuplicates_DropsCandidateWithoutEmbedding(t *testing.T) {
	store := domain.NewEmbeddingStore(map[string][]float32{
		"a": unitVector(0),
	})

	input := []domain.ScoredProduct{
		scored("a", "shoes", 0.95),
		scored("ghost", "shoes", 0.90),
	}

	out := SuppressNearDuplicates(input, store, 0.85)

	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].Product.ID)
}

func TestBalanceCategories_TopFiveAlwaysKept(t *testing.T) {
	input := make([]domain.ScoredProduct, 0, 8)
	for i := 0; i < 8; i++ {
		input = append(input, scored(fmt.Sprintf("p%d", i), "shoes", 0.9-float64(i)*0.05))
	}

	out := BalanceCategories(input, 5, 3)

	// Первые 5 сохраняются безусловно; их вклад (5 >= 3) исчерпывает лимит
	// категории, хвост из той же категории отбрасывается целиком.
	require.Len(t, out, 5)
	for i := 0; i < 5; i++ {
		assert.Equal(t, fmt.Sprintf("p%d", i), out[i].Product.ID)
	}
}

func TestBalanceCategories_TailCappedPerCategory(t *testing.T) {
	input := []domain.ScoredProduct{
		scored("s1", "shoes", 0.95),
		scored("b1", "bags", 0.94),
		scored("h1", "hats", 0.93),
		scored("s2", "shoes", 0.92),
		scored("b2", "bags", 0.91),
		// хвост
		scored("h2", "hats", 0.80), // hats: 1 -> 2, проходит
		scored("b3", "bags", 0.79), // bags: 2 -> 3, проходит
		scored("b4", "bags", 0.78), // bags: 3 >= 3, отбрасывается
		scored("h3", "hats", 0.77), // hats: 2 -> 3, проходит
	}

	out := BalanceCategories(input, 5, 3)

	ids := make([]string, 0, len(out))
	for _, r := range out {
		ids = append(ids, r.Product.ID)
	}

	assert.Equal(t, []string{"s1", "b1", "h1", "s2", "b2", "h2", "b3", "h3"}, ids)
}

func TestBalanceCategories_ShortInput(t *testing.T) {
	input := []domain.ScoredProduct{
		scored("a", "shoes", 0.9),
		scored("b", "bags", 0.8),
	}

	out := BalanceCategories(input, 5, 3)
	assert.Equal(t, input, out)
}

func TestRefine_FullPipelineOrder(t *testing.T) {
	store := domain.NewEmbeddingStore(map[string][]float32{
		"a": unitVector(0),
		"b": unitVector(5), // дубликат a: cos(5°) ≈ 0.996
		"c": unitVector(-53.13),
	})

	input := []domain.ScoredProduct{
		scored("c", "bags", 0.60),
		scored("a", "shoes", 0.92),
		scored("b", "shoes", 0.88),
		scored("a", "shoes", 0.92), // повтор идентификатора
	}

	out := Refine(input, store, DefaultParams())

	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Product.ID)
	assert.Equal(t, "c", out[1].Product.ID)
}

func TestRefine_DoesNotMutateInput(t *testing.T) {
	store := domain.NewEmbeddingStore(map[string][]float32{
		"a": unitVector(0),
		"c": unitVector(-53.13),
	})

	input := []domain.ScoredProduct{
		scored("c", "bags", 0.60),
		scored("a", "shoes", 0.92),
	}

	_ = Refine(input, store, DefaultParams())

	assert.Equal(t, "c", input[0].Product.ID)
	assert.Equal(t, "a", input[1].Product.ID)
}
