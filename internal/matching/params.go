// Package matching реализует пайплайн ранжирования результатов визуального поиска:
// отбор кандидатов по нижнему порогу близости, дедупликацию, подавление
// визуальных дубликатов и балансировку категорий. Все функции пакета чистые:
// входные последовательности не мутируются.
package matching

// Params — параметры пайплайна ранжирования.
type Params struct {
	// RecallFloor — нижний порог близости для отбора кандидатов.
	// Намеренно ниже пользовательского порога отображения, чтобы
	// у стадий диверсификации было из чего выбирать.
	RecallFloor float64

	// DiversityThreshold — близость эмбеддингов, выше которой два продукта
	// считаются визуальными дубликатами (один товар с разных ракурсов).
	DiversityThreshold float64

	// MaxPerCategory — максимум продуктов одной категории в «хвосте» выдачи.
	MaxPerCategory int

	// GuaranteedTop — количество лучших совпадений, которые показываются
	// всегда, независимо от категории.
	GuaranteedTop int

	// DefaultThreshold — пользовательский порог отображения по умолчанию.
	DefaultThreshold float64
}

// DefaultParams возвращает параметры пайплайна по умолчанию.
func DefaultParams() Params {
	return Params{
		RecallFloor:        0.3,
		DiversityThreshold: 0.85,
		MaxPerCategory:     3,
		GuaranteedTop:      5,
		DefaultThreshold:   0.5,
	}
}
