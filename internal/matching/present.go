package matching

import (
	"sort"

	"github.com/lenza-tech/matcher-backend/internal/domain"
)

// Present строит отображаемое представление сохранённого результата поиска:
// фильтрует по пользовательскому порогу (включительно, >=) и сортирует в
// выбранном режиме. Чистая дешёвая производная — пересчитывается при каждом
// изменении порога или режима без повторного запуска пайплайна.
func Present(results []domain.ScoredProduct, threshold float64, mode domain.SortMode) []domain.ScoredProduct {
	displayed := make([]domain.ScoredProduct, 0, len(results))
	for _, r := range results {
		if r.Similarity >= threshold {
			displayed = append(displayed, r)
		}
	}

	switch mode {
	case domain.SortByLowest:
		sort.SliceStable(displayed, func(i, j int) bool {
			return displayed[i].Similarity < displayed[j].Similarity
		})
	case domain.SortByCategory:
		sort.SliceStable(displayed, func(i, j int) bool {
			return displayed[i].Product.Category < displayed[j].Product.Category
		})
	default: // domain.SortByHighest
		sort.SliceStable(displayed, func(i, j int) bool {
			return displayed[i].Similarity > displayed[j].Similarity
		})
	}

	return displayed
}
