package usecase

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lenza-tech/matcher-backend/internal/domain"
	"github.com/lenza-tech/matcher-backend/pkg/e"
	"github.com/lenza-tech/matcher-backend/pkg/logger"
)

// ProductUseCase реализует бизнес-логику управления каталогом продуктов.
type ProductUseCase struct {
	productRepo   ProductRepository
	categoryRepo  CategoryRepository
	dbPool        transaction.Transactional
	mlService     MlServiceInfra
	imagesInfra   ImagesInfra
	embeddingRepo EmbeddingRepository
	producer      MessageProducer
	logger        logger.Logger
}

func NewProductUC(
	productRepo ProductRepository,
	categoryRepo CategoryRepository,
	dbPool transaction.Transactional,
	mlService MlServiceInfra,
	imagesInfra ImagesInfra,
	embeddingRepo EmbeddingRepository,
	producer MessageProducer,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo:   productRepo,
		categoryRepo:  categoryRepo,
		dbPool:        dbPool,
		mlService:     mlService,
		imagesInfra:   imagesInfra,
		embeddingRepo: embeddingRepo,
		producer:      producer,
		logger:        logger,
	}
}

// RegisterNewProduct обрабатывает регистрацию нового продукта: изображения,
// категория, векторы и сохранение в хранилища. Новый продукт попадает в
// поисковый индекс при следующей переиндексации каталога.
func (p *ProductUseCase) RegisterNewProduct(ctx context.Context, req *RegisterProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.RegisterNewProduct"

	// Валидация данных
	var err error
	err = p.validateProduct(req)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	var (
		imagesRes *UploadImagesRes
		uploaded  bool
	)

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	// Если произошла ошибка, происходит Rollback транзакции и очистка загруженных изображений
	defer func() {
		if err != nil {
			if tx.IsActive() {
				tx.Rollback(ctx)
			}

			if uploaded && imagesRes != nil {
				p.logger.Warnf(
					"Cleaning up orphaned images after transaction failure. product_name: %s, error: %v",
					req.Name,
					e.Wrap(op, err),
				)

				p.imagesInfra.CleanupImages(imagesRes.ImagesKeys)
			}
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	// идемпотентное создание категории
	category, err := p.categoryRepo.Create(ctx, domain.NewCategory(req.CategoryName))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Отправка изображений на ML Service для получения векторов
	vectors, err := p.getVectors(ctx, req.Images)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Сохранение изображений в MinIO
	imagesRes, err = p.imagesInfra.UploadImages(ctx, NewUploadImagesReq(req.Name, req.Images))
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	uploaded = true

	// идемпотентное создание продукта; первое изображение становится витринным
	product, err := p.productRepo.Upsert(
		ctx,
		domain.NewProduct(req.ID, req.Name, req.CategoryName, imagesRes.ImagesURLs[0], req.Price),
		category.ID,
	)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Сохранение векторов с дополнительной информацией (URL изображения, Product ID, Model Version)
	err = p.upsertEmbeddings(ctx, product.ID, imagesRes.ImagesURLs, vectors)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Коммит изменений в бд
	err = tx.Commit(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := p.producer.WriteMessage(ctx, NewWriteMessageReq(product.ID, "product.registered")); err != nil {
		p.logger.Warnf("Failed to publish product.registered event: %v", e.Wrap(op, err))
	}

	return product, nil
}

// SeedFromJSON загружает записи каталога {id, name, category, image} из
// JSON-файла в базу. Используется для первичного наполнения пустого каталога;
// изображения при сидинге не скачиваются и не векторизуются — этим занимается
// проход индексации.
func (p *ProductUseCase) SeedFromJSON(ctx context.Context, path string) (int, error) {
	const op = "ProductUseCase.SeedFromJSON"

	count, err := p.productRepo.Count(ctx)
	if err != nil {
		return 0, e.Wrap(op, err)
	}
	if count > 0 {
		p.logger.Infof("Catalog already has %d products, seed skipped", count)
		return 0, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, e.Wrap(op, err)
	}

	var records []catalogRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, e.Wrap(op, err)
	}

	seeded := 0
	for _, rec := range records {
		if err := p.seedProduct(ctx, rec); err != nil {
			p.logger.Warnf("Failed to seed product %s: %v", rec.ID, e.Wrap(op, err))
			continue
		}
		seeded++
	}

	p.logger.Infof("Seeded %d/%d catalog products from %s", seeded, len(records), path)
	return seeded, nil
}

// catalogRecord — внешний контракт записи каталога.
type catalogRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Image    string `json:"image"`
	Price    int64  `json:"price,omitempty"`
}

// seedProduct записывает одну запись каталога в собственной транзакции.
func (p *ProductUseCase) seedProduct(ctx context.Context, rec catalogRecord) error {
	if rec.ID == "" || rec.Name == "" {
		return e.ErrMissingFields
	}

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.dbPool)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	category, err := p.categoryRepo.Create(ctx, domain.NewCategory(rec.Category))
	if err != nil {
		return err
	}

	_, err = p.productRepo.Upsert(ctx, domain.NewProduct(rec.ID, rec.Name, rec.Category, rec.Image, rec.Price), category.ID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// getVectors запрашивает векторные представления изображений у ML-сервиса.
func (p *ProductUseCase) getVectors(ctx context.Context, images []ProductImage) ([]VectorizeRes, error) {
	vectors, err := p.mlService.VectorizeBatch(ctx, NewVectorizeReq(images))
	if err != nil {
		return nil, err
	}

	if len(vectors) == 0 {
		return nil, e.ErrEmptyVector
	}

	return vectors, nil
}

// upsertEmbeddings сохраняет векторы изображений в Qdrant с привязкой к продукту.
func (p *ProductUseCase) upsertEmbeddings(ctx context.Context, productID string, imageURLs []string, vectors []VectorizeRes) error {
	if len(imageURLs) != len(vectors) {
		return e.ErrImageVectorMismatch
	}

	embeddings := make([]domain.Embedding, 0, len(imageURLs))
	for i, url := range imageURLs {
		if len(vectors[i].Vector) == 0 {
			return e.ErrEmptyVector
		}
		payload := domain.NewPayload(productID, url, vectors[i].ModelVersion)
		embeddings = append(embeddings, *domain.NewEmbedding(uuid.NewString(), vectors[i].Vector, payload))
	}

	return p.embeddingRepo.Upsert(ctx, embeddings)
}

// validateProduct проверяет корректность входных данных запроса на регистрацию продукта.
func (p *ProductUseCase) validateProduct(req *RegisterProductReq) error {
	if strings.TrimSpace(req.Name) == "" {
		return e.ErrProductNameRequired
	}

	if strings.TrimSpace(req.CategoryName) == "" {
		return e.ErrMissingFields
	}

	if req.Price <= 0 {
		return e.ErrPriceMustBePositive
	}

	if len(req.Images) == 0 {
		return e.ErrNoImages
	}

	return nil
}
