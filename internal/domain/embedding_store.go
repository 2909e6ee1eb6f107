package domain

// EmbeddingStore — неизменяемое отображение productID -> вектор эмбеддинга.
// Строится целиком один раз при индексации каталога и публикуется атомарно;
// после публикации безопасно читается из нескольких горутин без блокировок.
// Продукты, для которых вычисление эмбеддинга не удалось, в хранилище отсутствуют.
type EmbeddingStore struct {
	vectors map[string][]float32
	dim     int
}

// NewEmbeddingStore создает хранилище из готового набора векторов.
// dim определяется по первому вектору; все векторы модели имеют одну размерность.
func NewEmbeddingStore(vectors map[string][]float32) *EmbeddingStore {
	dim := 0
	for _, v := range vectors {
		dim = len(v)
		break
	}

	return &EmbeddingStore{
		vectors: vectors,
		dim:     dim,
	}
}

// Get возвращает вектор продукта и признак его наличия.
func (s *EmbeddingStore) Get(productID string) ([]float32, bool) {
	v, ok := s.vectors[productID]
	return v, ok
}

// Len возвращает количество проиндексированных продуктов.
func (s *EmbeddingStore) Len() int {
	return len(s.vectors)
}

// Dim возвращает размерность векторов хранилища.
func (s *EmbeddingStore) Dim() int {
	return s.dim
}

// IDs возвращает идентификаторы всех проиндексированных продуктов.
// Порядок не гарантируется.
func (s *EmbeddingStore) IDs() []string {
	ids := make([]string, 0, len(s.vectors))
	for id := range s.vectors {
		ids = append(ids, id)
	}

	return ids
}
