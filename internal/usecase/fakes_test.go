package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/lenza-tech/matcher-backend/internal/domain"
	"github.com/lenza-tech/matcher-backend/pkg/logger"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)        {}
func (nopLogger) Infof(string, ...any)         {}
func (nopLogger) Warnf(string, ...any)         {}
func (nopLogger) Errorf(error, string, ...any) {}

var _ logger.Logger = nopLogger{}

type fakeIndex struct {
	store    *domain.EmbeddingStore
	products map[string]domain.Product
}

func (f *fakeIndex) Store() *domain.EmbeddingStore       { return f.store }
func (f *fakeIndex) Products() map[string]domain.Product { return f.products }

type fakeMlService struct {
	mu        sync.Mutex
	vectors   map[string][]float32 // по имени изображения
	version   string
	dim       int
	infoErr   error
	calls     int
	vectorErr error
	block     chan struct{} // если задан, VectorizeImage ждет закрытия канала
}

func (f *fakeMlService) VectorizeImage(_ context.Context, image ProductImage) (*VectorizeRes, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	vectorErr := f.vectorErr
	v, ok := f.vectors[image.Name]
	version := f.version
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if vectorErr != nil {
		return nil, vectorErr
	}
	if !ok {
		return nil, fmt.Errorf("no vector for image %q", image.Name)
	}

	return NewVectorizeRes(v, version), nil
}

func (f *fakeMlService) VectorizeBatch(ctx context.Context, req *VectorizeReq) ([]VectorizeRes, error) {
	out := make([]VectorizeRes, 0, len(req.Images))
	for _, img := range req.Images {
		res, err := f.VectorizeImage(ctx, img)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}

	return out, nil
}

func (f *fakeMlService) ModelInfo(context.Context) (*ModelInfoRes, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}

	return &ModelInfoRes{Version: f.version, Dim: f.dim}, nil
}

func (f *fakeMlService) vectorizeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeImageSource struct {
	mu     sync.Mutex
	broken map[string]bool // URL -> ошибка загрузки
}

func (f *fakeImageSource) FetchFromURL(_ context.Context, url string) (*ProductImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.broken[url] {
		return nil, fmt.Errorf("fetch %s: connection refused", url)
	}

	return NewProductImage([]byte(url), "image/jpeg", int64(len(url)), url), nil
}

type fakeCacheRepo struct {
	mu      sync.Mutex
	vectors map[string][]float32
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{vectors: make(map[string][]float32)}
}

func (f *fakeCacheRepo) GetQueryVector(_ context.Context, imageHash string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vectors[imageHash], nil
}

func (f *fakeCacheRepo) SetQueryVector(_ context.Context, imageHash string, vector []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vectors[imageHash] = vector
	return nil
}

type fakeProductRepo struct {
	products []domain.Product
}

func (f *fakeProductRepo) Upsert(_ context.Context, product *domain.Product, _ int64) (*domain.Product, error) {
	f.products = append(f.products, *product)
	return product, nil
}

func (f *fakeProductRepo) GetAllProducts(context.Context) ([]domain.Product, error) {
	return f.products, nil
}

func (f *fakeProductRepo) Count(context.Context) (int64, error) {
	return int64(len(f.products)), nil
}

type fakeEmbeddingRepo struct {
	mu       sync.Mutex
	stored   []domain.Embedding
	loadErr  error
	upserted int
}

func (f *fakeEmbeddingRepo) Upsert(_ context.Context, vectors []domain.Embedding) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted += len(vectors)
	f.stored = append(f.stored, vectors...)
	return nil
}

func (f *fakeEmbeddingRepo) LoadByModelVersion(_ context.Context, modelVersion string) ([]domain.Embedding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.loadErr != nil {
		return nil, f.loadErr
	}

	out := make([]domain.Embedding, 0, len(f.stored))
	for _, emb := range f.stored {
		if emb.Payload["model_version"] == modelVersion {
			out = append(out, emb)
		}
	}

	return out, nil
}

type fakeProducer struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeProducer) WriteMessage(_ context.Context, req *WriteMessageReq) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, req.EventType)
	return nil
}
