package usecase

import (
	"time"

	"github.com/lenza-tech/matcher-backend/internal/domain"
)

// PRODUCT USECASE

// RegisterProductReq — запрос на регистрацию нового продукта каталога.
type RegisterProductReq struct {
	ID           string // внешний идентификатор; пустой — будет сгенерирован
	Name         string
	CategoryName string
	Price        int64
	Images       []ProductImage
}

// ProductImage представляет изображение, переданное через multipart/form-data или скачанное по URL.
type ProductImage struct {
	Data     []byte // байты изображения
	MimeType string // Content-Type (image/jpeg)
	Size     int64  // фактический размер в байтах
	Name     string // оригинальное имя файла (для логов)
}

// SEARCH USECASE

// MatchInfo — DTO одного результата визуального поиска.
type MatchInfo struct {
	ID         string
	Name       string
	Category   string
	ImageURL   string
	Price      int64
	Similarity float64
}

// SearchRes — отображаемое представление результата поиска с текущими
// порогом и режимом сортировки сеанса.
type SearchRes struct {
	Results   []MatchInfo
	Threshold float64
	SortMode  domain.SortMode
}

// INDEX USECASE

// IndexFailure — продукт, для которого не удалось вычислить эмбеддинг при индексации.
type IndexFailure struct {
	ProductID string
	Reason    string
}

// BuildIndexRes — итог прохода индексации каталога.
type BuildIndexRes struct {
	Indexed      int // всего векторов в опубликованном хранилище
	WarmLoaded   int // восстановлено из Qdrant без повторной векторизации
	Failed       []IndexFailure
	ModelVersion string
}

// IndexStatus — состояние опубликованного индекса.
type IndexStatus struct {
	Ready        bool
	Products     int
	Indexed      int
	Failed       int
	ModelVersion string
	BuiltAt      time.Time
}

// INFRASTRUCTURE

// VectorizeReq — запрос на векторизацию набора изображений.
type VectorizeReq struct {
	Images []ProductImage
}

// VectorizeRes — результат векторизации одного изображения.
type VectorizeRes struct {
	Vector       []float32
	ModelVersion string
}

// ModelInfoRes — сведения о модели эмбеддингов внешнего ML-сервиса.
type ModelInfoRes struct {
	Version string
	Dim     int
}

// UploadImagesReq — запрос на загрузку изображений продукта.
type UploadImagesReq struct {
	Name   string
	Images []ProductImage
}

// UploadImagesRes — результат загрузки изображений (ключи и публичные URL в MinIO).
type UploadImagesRes struct {
	ImagesKeys []string
	ImagesURLs []string
}

// WriteMessageReq — событие продукта/индекса для публикации в Kafka.
type WriteMessageReq struct {
	ProductID string
	EventType string
}

// MAPPERS

func NewRegisterProductReq(id string, name string, category string, price int64, images []ProductImage) *RegisterProductReq {
	return &RegisterProductReq{
		ID:           id,
		Name:         name,
		CategoryName: category,
		Price:        price,
		Images:       images,
	}
}

func NewProductImage(data []byte, mimeType string, size int64, name string) *ProductImage {
	return &ProductImage{
		Data:     data,
		MimeType: mimeType,
		Size:     size,
		Name:     name,
	}
}

func NewMatchInfo(sp domain.ScoredProduct) MatchInfo {
	return MatchInfo{
		ID:         sp.Product.ID,
		Name:       sp.Product.Name,
		Category:   sp.Product.Category,
		ImageURL:   sp.Product.ImageURL,
		Price:      sp.Product.Price,
		Similarity: sp.Similarity,
	}
}

func NewSearchRes(displayed []domain.ScoredProduct, threshold float64, mode domain.SortMode) *SearchRes {
	results := make([]MatchInfo, 0, len(displayed))
	for _, sp := range displayed {
		results = append(results, NewMatchInfo(sp))
	}

	return &SearchRes{
		Results:   results,
		Threshold: threshold,
		SortMode:  mode,
	}
}

func NewVectorizeReq(images []ProductImage) *VectorizeReq {
	return &VectorizeReq{
		Images: images,
	}
}

func NewVectorizeRes(vector []float32, modelVersion string) *VectorizeRes {
	return &VectorizeRes{
		Vector:       vector,
		ModelVersion: modelVersion,
	}
}

func NewUploadImagesReq(name string, images []ProductImage) *UploadImagesReq {
	return &UploadImagesReq{
		Name:   name,
		Images: images,
	}
}

func NewUploadImagesRes(keys []string, urls []string) *UploadImagesRes {
	return &UploadImagesRes{
		ImagesKeys: keys,
		ImagesURLs: urls,
	}
}

func NewWriteMessageReq(productID string, eventType string) *WriteMessageReq {
	return &WriteMessageReq{
		ProductID: productID,
		EventType: eventType,
	}
}

func NewIndexFailure(productID string, err error) IndexFailure {
	return IndexFailure{
		ProductID: productID,
		Reason:    err.Error(),
	}
}
