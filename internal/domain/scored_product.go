package domain

// ScoredProduct — продукт с косинусной близостью к запросу.
// Создаётся заново на каждый запрос; стадии ранжирования не мутируют
// существующие экземпляры, а строят новые последовательности.
type ScoredProduct struct {
	Product    Product
	Similarity float64
}

func NewScoredProduct(product Product, similarity float64) ScoredProduct {
	return ScoredProduct{
		Product:    product,
		Similarity: similarity,
	}
}
