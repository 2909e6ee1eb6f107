// Package vectormath содержит примитивы векторной математики для сравнения эмбеддингов.
package vectormath

import (
	"math"

	"github.com/lenza-tech/matcher-backend/pkg/e"
)

// Cosine возвращает косинусную близость двух векторов: dot(a,b) / (|a|*|b|).
// Векторы разной длины — ошибка вызывающей стороны, возвращается e.ErrDimensionMismatch.
// Если хотя бы один вектор нулевой, возвращается 0 (без деления на ноль).
// Накопление ведётся за один проход в float64, результат не ограничивается диапазоном.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, e.ErrDimensionMismatch
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}

	if magA == 0 || magB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}

// CosineOrZero возвращает косинусную близость, трактуя несовпадение размерностей
// как несравнимость (0). Используется внутри пайплайна ранжирования, где один
// некорректный вектор не должен прерывать обработку остальных кандидатов.
func CosineOrZero(a, b []float32) float64 {
	sim, err := Cosine(a, b)
	if err != nil {
		return 0
	}

	return sim
}
