package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/lenza-tech/matcher-backend/internal/cfg"
	v1Http "github.com/lenza-tech/matcher-backend/internal/delivery/v1/http"
	"github.com/lenza-tech/matcher-backend/internal/infrastructure/imageloader"
	"github.com/lenza-tech/matcher-backend/internal/infrastructure/kafka"
	minioInfra "github.com/lenza-tech/matcher-backend/internal/infrastructure/minio"
	ml_service "github.com/lenza-tech/matcher-backend/internal/infrastructure/ml-service"
	"github.com/lenza-tech/matcher-backend/internal/matching"
	s3Repo "github.com/lenza-tech/matcher-backend/internal/repository/minio"
	"github.com/lenza-tech/matcher-backend/internal/repository/pgdb"
	pgdbConv "github.com/lenza-tech/matcher-backend/internal/repository/pgdb/converter"
	qdrantRepo "github.com/lenza-tech/matcher-backend/internal/repository/qdrant"
	"github.com/lenza-tech/matcher-backend/internal/repository/redis"
	"github.com/lenza-tech/matcher-backend/internal/usecase"
	"github.com/lenza-tech/matcher-backend/pkg/clients"
	"github.com/lenza-tech/matcher-backend/pkg/closer"
	"github.com/lenza-tech/matcher-backend/pkg/e"
	"github.com/lenza-tech/matcher-backend/pkg/logger"
	"github.com/lenza-tech/matcher-backend/pkg/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const shutdownTimeout = 10 * time.Second

// App собирает все компоненты сервиса и управляет их жизненным циклом.
type App struct {
	cfg    *config.Config
	logger logger.Logger

	httpSrv     *v1Http.Server
	imagesInfra *minioInfra.MinioInfrastructure
	productUC   usecase.ProductUC
	indexUC     usecase.IndexUC

	closer         *closer.Closer
	shutdownCancel context.CancelFunc
}

// NewApp инициализирует подключения к хранилищам, репозитории, usecase-слой
// и HTTP-сервер. Ресурсы регистрируются в closer в порядке создания и
// закрываются в обратном порядке.
func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	cl := closer.NewCloser(2 * time.Second)
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	app := &App{
		cfg:            cfg,
		logger:         log,
		closer:         cl,
		shutdownCancel: shutdownCancel,
	}

	db, err := initPGDB(log, cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(context.Context) error {
		db.Close()
		return nil
	})

	prConv := pgdbConv.ProductConverter{}
	catConv := pgdbConv.CategoryConverter{}

	productRepo := pgdb.NewProductRepo(db.Pool, prConv)
	categoryRepo := pgdb.NewCategoryRepo(db.Pool, catConv)

	minioClient, err := clients.NewMinIOClient(cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minioCtx, minioCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := clients.EnsureBucket(minioCtx, minioClient, cfg.Minio.BucketName); err != nil {
		minioCancel()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	minioCancel()

	imageRepo := s3Repo.NewImageRepo(minioClient, cfg.Minio)

	qdrantClient, err := clients.NewQdrantClient(cfg.Qdrant)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(context.Context) error {
		return qdrantClient.Client.Close()
	})

	qdrantCtx, qdrantCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := clients.EnsureCollection(qdrantCtx, qdrantClient); err != nil {
		qdrantCancel()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	qdrantCancel()

	embRepo := qdrantRepo.NewEmbeddingRepo(qdrantClient.Client, cfg.Qdrant)

	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer redisCancel()
	if err := redisClient.Ping(redisCtx); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(context.Context) error {
		return redisClient.Close()
	})
	cacheRepo := redis.NewCacheRepo(redisClient, cfg.Redis, log)

	httpClient := &http.Client{Timeout: cfg.Ml.Timeout}
	ml := ml_service.NewMLService(httpClient, cfg.Ml.Addr, cfg.Ml.MaxConcurrent, cfg.Ml.MaxRetries, log)
	imageSource := imageloader.NewImageLoader(&http.Client{Timeout: 30 * time.Second}, log)

	imagesInfra := minioInfra.NewMinioInfrastructure(imageRepo, cfg.Minio, log, shutdownCtx)
	app.imagesInfra = imagesInfra
	cl.Add(func(ctx context.Context) error {
		return imagesInfra.WaitForCleanup(ctx)
	})

	producer, err := kafka.NewProducer(log, cfg.Kafka)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		log.Warnf("Kafka topic check failed, events may be dropped: %v", err)
	}
	cl.Add(func(context.Context) error {
		return producer.Close()
	})

	params := matching.Params{
		RecallFloor:        cfg.Matching.RecallFloor,
		DiversityThreshold: cfg.Matching.DiversityThreshold,
		MaxPerCategory:     cfg.Matching.MaxPerCategory,
		GuaranteedTop:      cfg.Matching.GuaranteedTop,
		DefaultThreshold:   cfg.Matching.DefaultThreshold,
	}

	productUC := usecase.NewProductUC(productRepo, categoryRepo, db.Pool, ml, imagesInfra, embRepo, producer, log)
	indexUC := usecase.NewIndexUC(productRepo, embRepo, ml, imageSource, producer, log, cfg.Ml.MaxConcurrent)
	searchUC := usecase.NewSearchUC(indexUC, ml, imageSource, cacheRepo, params, log)

	app.productUC = productUC
	app.indexUC = indexUC

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, log)
	router.Init(productUC, searchUC, indexUC)

	app.httpSrv = v1Http.NewServer(r, cfg.Http)

	return app, nil
}

// Run запускает HTTP-сервер, при необходимости наполняет каталог из JSON
// и строит начальный индекс. Блокируется до сигнала завершения или
// фатальной ошибки сервера.
func (a *App) Run() error {
	a.seedCatalog()
	go a.buildInitialIndex()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Errorf(err, "HTTP server failed: %v", err)
			errCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := a.httpSrv.Stop(shutdownCtx); err != nil {
		a.logger.Errorf(err, "HTTP server shutdown error")
	} else {
		a.logger.Infof("HTTP server stopped")
	}

	// фоновые компенсации MinIO получают сигнал завершения
	a.shutdownCancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("Resource shutdown finished with errors: %v", err)
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}

// seedCatalog наполняет пустой каталог продуктами из JSON-файла, если он задан.
func (a *App) seedCatalog() {
	if a.cfg.Catalog.SeedPath == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	seeded, err := a.productUC.SeedFromJSON(ctx, a.cfg.Catalog.SeedPath)
	if err != nil {
		a.logger.Warnf("Catalog seeding failed: %v", err)
		return
	}
	if seeded > 0 {
		a.logger.Infof("Catalog seeded with %d products from %s", seeded, a.cfg.Catalog.SeedPath)
	}
}

// buildInitialIndex строит индекс при старте. Сбой не фатален: индекс можно
// построить позже через /index/rebuild.
func (a *App) buildInitialIndex() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	res, err := a.indexUC.Rebuild(ctx)
	if err != nil {
		a.logger.Warnf("Initial index build failed: %v", err)
		return
	}

	a.logger.Infof("Initial index ready: %d vectors, %d failed", res.Indexed, len(res.Failed))
}

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		logger.Errorf(err, "failed to ping database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
