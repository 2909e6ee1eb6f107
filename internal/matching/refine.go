package matching

import (
	"sort"

	"github.com/lenza-tech/matcher-backend/internal/domain"
	"github.com/lenza-tech/matcher-backend/pkg/vectormath"
)

// Refine применяет к кандидатам фиксированную последовательность стадий:
// стабильная сортировка по убыванию близости, дедупликация идентификаторов,
// подавление визуальных дубликатов, балансировка категорий.
// Каждая стадия строит новую последовательность.
func Refine(candidates []domain.ScoredProduct, store *domain.EmbeddingStore, params Params) []domain.ScoredProduct {
	sorted := sortByScoreDesc(candidates)
	deduped := DeduplicateIDs(sorted)
	suppressed := SuppressNearDuplicates(deduped, store, params.DiversityThreshold)

	return BalanceCategories(suppressed, params.GuaranteedTop, params.MaxPerCategory)
}

// sortByScoreDesc возвращает копию, отсортированную по убыванию близости.
// Сортировка стабильная: при равных оценках сохраняется исходный порядок.
func sortByScoreDesc(results []domain.ScoredProduct) []domain.ScoredProduct {
	sorted := make([]domain.ScoredProduct, len(results))
	copy(sorted, results)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Similarity > sorted[j].Similarity
	})

	return sorted
}

// DeduplicateIDs удаляет повторные вхождения идентификаторов продуктов,
// оставляя первое по порядку входа.
func DeduplicateIDs(results []domain.ScoredProduct) []domain.ScoredProduct {
	seen := make(map[string]struct{}, len(results))
	unique := make([]domain.ScoredProduct, 0, len(results))

	for _, r := range results {
		if _, ok := seen[r.Product.ID]; ok {
			continue
		}
		seen[r.Product.ID] = struct{}{}
		unique = append(unique, r)
	}

	return unique
}

// SuppressNearDuplicates схлопывает продукты, почти неотличимые в пространстве
// эмбеддингов (один и тот же товар, снятый с разных ракурсов), до одного
// представителя с наибольшей оценкой. Вход должен быть отсортирован по
// убыванию близости; кандидат отбрасывается, если его эмбеддинг ближе
// diversityThreshold к эмбеддингу любого уже оставленного продукта.
// Кандидаты без эмбеддинга в хранилище отбрасываются: их не с чем сравнивать.
func SuppressNearDuplicates(
	results []domain.ScoredProduct,
	store *domain.EmbeddingStore,
	diversityThreshold float64,
) []domain.ScoredProduct {
	kept := make([]domain.ScoredProduct, 0, len(results))
	keptVectors := make([][]float32, 0, len(results))

	for _, r := range results {
		vector, ok := store.Get(r.Product.ID)
		if !ok {
			continue
		}

		isDuplicate := false
		for _, keptVector := range keptVectors {
			if vectormath.CosineOrZero(vector, keptVector) > diversityThreshold {
				isDuplicate = true
				break
			}
		}

		if isDuplicate {
			continue
		}

		kept = append(kept, r)
		keptVectors = append(keptVectors, vector)
	}

	return kept
}

// BalanceCategories не позволяет одной категории заполнить всю выдачу,
// не скрывая при этом сильнейшие совпадения: первые guaranteedTop позиций
// (вход уже отсортирован по близости) сохраняются безусловно, остальные
// добавляются, пока счётчик их категории — с учётом вклада гарантированной
// части — меньше maxPerCategory.
func BalanceCategories(results []domain.ScoredProduct, guaranteedTop int, maxPerCategory int) []domain.ScoredProduct {
	categoryCount := make(map[string]int)
	balanced := make([]domain.ScoredProduct, 0, len(results))

	top := guaranteedTop
	if top > len(results) {
		top = len(results)
	}

	for _, r := range results[:top] {
		balanced = append(balanced, r)
		categoryCount[r.Product.Category]++
	}

	for _, r := range results[top:] {
		if categoryCount[r.Product.Category] >= maxPerCategory {
			continue
		}
		balanced = append(balanced, r)
		categoryCount[r.Product.Category]++
	}

	return balanced
}
