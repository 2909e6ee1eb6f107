package usecase

import (
	"context"

	"github.com/lenza-tech/matcher-backend/internal/domain"
)

type ProductUC interface {
	RegisterNewProduct(ctx context.Context, req *RegisterProductReq) (*domain.Product, error)
	SeedFromJSON(ctx context.Context, path string) (int, error)
}

type SearchUC interface {
	SearchByUpload(ctx context.Context, image ProductImage) (*SearchRes, error)
	SearchByURL(ctx context.Context, url string) (*SearchRes, error)
	Results() (*SearchRes, error)
	SetThreshold(threshold float64) error
	SetSortMode(mode string) error
	Reset()
}

type IndexUC interface {
	Rebuild(ctx context.Context) (*BuildIndexRes, error)
	Status() *IndexStatus
}

// EmbeddingIndex — опубликованный индекс каталога, читаемый поисковым сеансом.
type EmbeddingIndex interface {
	Store() *domain.EmbeddingStore
	Products() map[string]domain.Product
}
