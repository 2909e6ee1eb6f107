package domain

import "github.com/lenza-tech/matcher-backend/pkg/e"

// SortMode определяет порядок сортировки отображаемых результатов поиска.
type SortMode string

const (
	SortByHighest  SortMode = "highest"  // по убыванию близости
	SortByLowest   SortMode = "lowest"   // по возрастанию близости
	SortByCategory SortMode = "category" // по имени категории (лексикографически)
)

// ParseSortMode валидирует строковое представление режима сортировки.
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(s) {
	case SortByHighest, SortByLowest, SortByCategory:
		return SortMode(s), nil
	default:
		return "", e.ErrInvalidSortMode
	}
}
