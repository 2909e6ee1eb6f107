package matching

import (
	"github.com/lenza-tech/matcher-backend/internal/domain"
	"github.com/lenza-tech/matcher-backend/pkg/vectormath"
)

// GenerateCandidates выполняет линейный проход по хранилищу эмбеддингов и
// возвращает все продукты с близостью к запросу не ниже floor (включительно).
// Порядок результата не определён. Продукты, присутствующие в хранилище,
// но отсутствующие в каталоге, пропускаются без ошибки. Несовпадение
// размерностей трактуется как нулевая близость.
func GenerateCandidates(
	query []float32,
	store *domain.EmbeddingStore,
	products map[string]domain.Product,
	floor float64,
) []domain.ScoredProduct {
	candidates := make([]domain.ScoredProduct, 0)

	for _, id := range store.IDs() {
		product, ok := products[id]
		if !ok {
			continue
		}

		vector, ok := store.Get(id)
		if !ok {
			continue
		}

		sim := vectormath.CosineOrZero(query, vector)
		if sim >= floor {
			candidates = append(candidates, domain.NewScoredProduct(product, sim))
		}
	}

	return candidates
}
