package usecase

import (
	"context"

	"github.com/lenza-tech/matcher-backend/internal/domain"
)

type ProductRepository interface {
	Upsert(ctx context.Context, product *domain.Product, categoryID int64) (*domain.Product, error)
	GetAllProducts(ctx context.Context) ([]domain.Product, error)
	Count(ctx context.Context) (int64, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) (*domain.Category, error)
}

type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Delete(ctx context.Context, key string) error
}

type EmbeddingRepository interface {
	Upsert(ctx context.Context, vectors []domain.Embedding) error
	LoadByModelVersion(ctx context.Context, modelVersion string) ([]domain.Embedding, error)
}

type CacheRepository interface {
	GetQueryVector(ctx context.Context, imageHash string) ([]float32, error)
	SetQueryVector(ctx context.Context, imageHash string, vector []float32) error
}
