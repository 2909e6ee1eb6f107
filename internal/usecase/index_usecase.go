package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lenza-tech/matcher-backend/internal/domain"
	"github.com/lenza-tech/matcher-backend/pkg/e"
	"github.com/lenza-tech/matcher-backend/pkg/logger"
	"github.com/google/uuid"
)

// indexSnapshot — результат одного прохода индексации; публикуется целиком.
type indexSnapshot struct {
	store        *domain.EmbeddingStore
	products     map[string]domain.Product
	failed       []IndexFailure
	modelVersion string
	builtAt      time.Time
}

// IndexUseCase строит хранилище эмбеддингов каталога: для каждого продукта
// скачивает изображение, получает вектор у ML-сервиса и сохраняет его в Qdrant.
// Сбой обработки одного продукта не прерывает проход — продукт фиксируется
// в списке отказов, остальные продолжают обрабатываться. Готовое хранилище
// публикуется атомарно и заменяется целиком при повторной индексации.
type IndexUseCase struct {
	productRepo   ProductRepository
	embeddingRepo EmbeddingRepository
	mlService     MlServiceInfra
	imageSource   ImageSource
	producer      MessageProducer
	logger        logger.Logger
	maxConcurrent int

	current    atomic.Pointer[indexSnapshot]
	rebuilding atomic.Bool
}

func NewIndexUC(
	productRepo ProductRepository,
	embeddingRepo EmbeddingRepository,
	mlService MlServiceInfra,
	imageSource ImageSource,
	producer MessageProducer,
	logger logger.Logger,
	maxConcurrent int,
) *IndexUseCase {
	return &IndexUseCase{
		productRepo:   productRepo,
		embeddingRepo: embeddingRepo,
		mlService:     mlService,
		imageSource:   imageSource,
		producer:      producer,
		logger:        logger,
		maxConcurrent: maxConcurrent,
	}
}

// Rebuild выполняет полный проход индексации каталога и публикует новое хранилище.
// Повторный вызов во время выполняющегося прохода возвращает ошибку.
func (u *IndexUseCase) Rebuild(ctx context.Context) (*BuildIndexRes, error) {
	const op = "IndexUseCase.Rebuild"

	if !u.rebuilding.CompareAndSwap(false, true) {
		return nil, e.Wrap(op, e.ErrQueryInFlight)
	}
	defer u.rebuilding.Store(false)

	products, err := u.productRepo.GetAllProducts(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if len(products) == 0 {
		return nil, e.Wrap(op, e.ErrNoProducts)
	}

	model, err := u.mlService.ModelInfo(ctx)
	if err != nil {
		u.logger.Errorf(err, "Failed to fetch model info")
		return nil, e.Wrap(op, e.ErrModelInit)
	}

	vectors := make(map[string][]float32, len(products))
	warmLoaded := u.warmLoad(ctx, products, model.Version, vectors)

	failed := u.vectorizeMissing(ctx, products, model.Version, vectors)

	snapshot := &indexSnapshot{
		store:        domain.NewEmbeddingStore(vectors),
		products:     productsByID(products),
		failed:       failed,
		modelVersion: model.Version,
		builtAt:      time.Now().UTC(),
	}
	u.current.Store(snapshot)

	if err := u.producer.WriteMessage(ctx, NewWriteMessageReq("", "index.rebuilt")); err != nil {
		u.logger.Warnf("Failed to publish index.rebuilt event: %v", err)
	}

	u.logger.Infof("Catalog index published: %d products, %d vectors (%d warm), %d failed, model %s",
		len(products), len(vectors), warmLoaded, len(failed), model.Version)

	return &BuildIndexRes{
		Indexed:      len(vectors),
		WarmLoaded:   warmLoaded,
		Failed:       failed,
		ModelVersion: model.Version,
	}, nil
}

// Status возвращает состояние опубликованного индекса.
func (u *IndexUseCase) Status() *IndexStatus {
	snapshot := u.current.Load()
	if snapshot == nil {
		return &IndexStatus{Ready: false}
	}

	return &IndexStatus{
		Ready:        true,
		Products:     len(snapshot.products),
		Indexed:      snapshot.store.Len(),
		Failed:       len(snapshot.failed),
		ModelVersion: snapshot.modelVersion,
		BuiltAt:      snapshot.builtAt,
	}
}

// Store возвращает опубликованное хранилище эмбеддингов или nil до первой индексации.
func (u *IndexUseCase) Store() *domain.EmbeddingStore {
	snapshot := u.current.Load()
	if snapshot == nil {
		return nil
	}

	return snapshot.store
}

// Products возвращает каталог, соответствующий опубликованному хранилищу.
func (u *IndexUseCase) Products() map[string]domain.Product {
	snapshot := u.current.Load()
	if snapshot == nil {
		return nil
	}

	return snapshot.products
}

// warmLoad восстанавливает векторы текущей версии модели из Qdrant,
// чтобы не векторизовать каталог заново при каждом старте.
// Ошибка чтения не фатальна: недостающие векторы будут вычислены заново.
func (u *IndexUseCase) warmLoad(ctx context.Context, products []domain.Product, modelVersion string, vectors map[string][]float32) int {
	known := productsByID(products)

	stored, err := u.embeddingRepo.LoadByModelVersion(ctx, modelVersion)
	if err != nil {
		u.logger.Warnf("Warm load from embedding storage failed, falling back to full vectorization: %v", err)
		return 0
	}

	loaded := 0
	for _, emb := range stored {
		productID, ok := emb.Payload["product_id"].(string)
		if !ok {
			continue
		}
		if _, ok := known[productID]; !ok {
			continue // продукт удалён из каталога, вектор устарел
		}
		if len(emb.Vector) == 0 {
			continue
		}

		vectors[productID] = emb.Vector
		loaded++
	}

	return loaded
}

// vectorizeMissing вычисляет векторы продуктов, не покрытых тёплой загрузкой,
// с ограниченным параллелизмом. Отказ по одному продукту изолирован: продукт
// попадает в список отказов, остальные обрабатываются дальше.
func (u *IndexUseCase) vectorizeMissing(ctx context.Context, products []domain.Product, modelVersion string, vectors map[string][]float32) []IndexFailure {
	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		failed     []IndexFailure
		embeddings []domain.Embedding
	)

	sem := make(chan struct{}, u.maxConcurrent)

	for _, product := range products {
		if _, ok := vectors[product.ID]; ok {
			continue
		}

		wg.Add(1)
		go func(p domain.Product) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			vector, err := u.vectorizeProduct(ctx, p)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				u.logger.Warnf("Failed to index product %s (%s): %v", p.ID, p.Name, err)
				failed = append(failed, NewIndexFailure(p.ID, err))
				return
			}

			vectors[p.ID] = vector
			payload := domain.NewPayload(p.ID, p.ImageURL, modelVersion)
			embeddings = append(embeddings, *domain.NewEmbedding(uuid.NewString(), vector, payload))
		}(product)
	}

	wg.Wait()

	if len(embeddings) > 0 {
		if err := u.embeddingRepo.Upsert(ctx, embeddings); err != nil {
			// хранилище в памяти уже собрано, потеря персистентности не фатальна
			u.logger.Warnf("Failed to persist %d embeddings: %v", len(embeddings), err)
		}
	}

	return failed
}

// vectorizeProduct скачивает изображение продукта и получает его вектор у ML-сервиса.
func (u *IndexUseCase) vectorizeProduct(ctx context.Context, product domain.Product) ([]float32, error) {
	image, err := u.imageSource.FetchFromURL(ctx, product.ImageURL)
	if err != nil {
		return nil, err
	}

	res, err := u.mlService.VectorizeImage(ctx, *image)
	if err != nil {
		return nil, err
	}
	if len(res.Vector) == 0 {
		return nil, e.ErrEmptyVector
	}

	return res.Vector, nil
}

func productsByID(products []domain.Product) map[string]domain.Product {
	m := make(map[string]domain.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}

	return m
}
