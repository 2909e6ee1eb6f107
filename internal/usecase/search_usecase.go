package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"sync/atomic"

	"github.com/lenza-tech/matcher-backend/internal/domain"
	"github.com/lenza-tech/matcher-backend/internal/matching"
	"github.com/lenza-tech/matcher-backend/pkg/e"
	"github.com/lenza-tech/matcher-backend/pkg/logger"
)

// SearchUseCase выполняет визуальный поиск по каталогу и владеет состоянием
// поискового сеанса: набором результатов текущего запроса и параметрами
// отображения (порог, режим сортировки). Новый запрос замещает набор целиком;
// изменение порога или сортировки пересчитывает только представление.
type SearchUseCase struct {
	index       EmbeddingIndex
	mlService   MlServiceInfra
	imageSource ImageSource
	cacheRepo   CacheRepository
	params      matching.Params
	logger      logger.Logger

	mu        sync.RWMutex
	results   []domain.ScoredProduct
	threshold float64
	sortMode  domain.SortMode
	version   uint64

	inFlight atomic.Bool
}

func NewSearchUC(
	index EmbeddingIndex,
	mlService MlServiceInfra,
	imageSource ImageSource,
	cacheRepo CacheRepository,
	params matching.Params,
	logger logger.Logger,
) *SearchUseCase {
	return &SearchUseCase{
		index:       index,
		mlService:   mlService,
		imageSource: imageSource,
		cacheRepo:   cacheRepo,
		params:      params,
		logger:      logger,
		threshold:   params.DefaultThreshold,
		sortMode:    domain.SortByHighest,
	}
}

// SearchByUpload выполняет запрос по загруженному изображению.
func (s *SearchUseCase) SearchByUpload(ctx context.Context, image ProductImage) (*SearchRes, error) {
	const op = "SearchUseCase.SearchByUpload"

	res, err := s.search(ctx, image)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return res, nil
}

// SearchByURL скачивает изображение по внешней ссылке и выполняет запрос.
func (s *SearchUseCase) SearchByURL(ctx context.Context, url string) (*SearchRes, error) {
	const op = "SearchUseCase.SearchByURL"

	image, err := s.imageSource.FetchFromURL(ctx, url)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	res, err := s.search(ctx, *image)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return res, nil
}

// search — общий путь запроса: эмбеддинг изображения, отбор кандидатов,
// пайплайн уточнения, публикация набора результатов сеанса.
// Второй одновременный запрос отклоняется; устаревшее завершение не может
// перезаписать результат более нового запроса (штамп версии).
func (s *SearchUseCase) search(ctx context.Context, image ProductImage) (*SearchRes, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, e.ErrQueryInFlight
	}
	defer s.inFlight.Store(false)

	store := s.index.Store()
	products := s.index.Products()
	if store == nil || products == nil {
		return nil, e.ErrIndexNotReady
	}

	s.mu.Lock()
	s.version++
	version := s.version
	s.mu.Unlock()

	query, err := s.queryEmbedding(ctx, image)
	if err != nil {
		// прежний набор результатов остаётся нетронутым
		return nil, err
	}

	candidates := matching.GenerateCandidates(query, store, products, s.params.RecallFloor)
	refined := matching.Refine(candidates, store, s.params)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != version {
		return nil, e.ErrQueryInFlight
	}
	s.results = refined

	return s.presentLocked(), nil
}

// Results возвращает текущее представление набора результатов.
func (s *SearchUseCase) Results() (*SearchRes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.presentLocked(), nil
}

// SetThreshold задает пользовательский порог близости отображения.
func (s *SearchUseCase) SetThreshold(threshold float64) error {
	if threshold < 0 || threshold > 1 {
		return e.ErrInvalidThreshold
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.threshold = threshold

	return nil
}

// SetSortMode задает режим сортировки отображения.
func (s *SearchUseCase) SetSortMode(mode string) error {
	parsed, err := domain.ParseSortMode(mode)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortMode = parsed

	return nil
}

// Reset очищает набор результатов, возвращая сеанс в состояние до запроса.
// Параметры отображения сохраняются.
func (s *SearchUseCase) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	s.results = nil
}

// presentLocked строит отображаемое представление. Вызывается под s.mu.
func (s *SearchUseCase) presentLocked() *SearchRes {
	displayed := matching.Present(s.results, s.threshold, s.sortMode)
	return NewSearchRes(displayed, s.threshold, s.sortMode)
}

// queryEmbedding возвращает вектор изображения запроса: из кэша по хэшу
// содержимого либо от ML-сервиса с последующим кэшированием.
func (s *SearchUseCase) queryEmbedding(ctx context.Context, image ProductImage) ([]float32, error) {
	const op = "SearchUseCase.queryEmbedding"

	hash := hashImage(image.Data)

	if cached, err := s.cacheRepo.GetQueryVector(ctx, hash); err != nil {
		s.logger.Warnf("Query vector cache lookup failed: %v", err)
	} else if cached != nil {
		return cached, nil
	}

	res, err := s.mlService.VectorizeImage(ctx, image)
	if err != nil {
		s.logger.Errorf(err, "Failed to vectorize query image %s", image.Name)
		return nil, e.Wrap(op, e.ErrEmbedding)
	}
	if len(res.Vector) == 0 {
		return nil, e.ErrEmptyVector
	}

	if err := s.cacheRepo.SetQueryVector(ctx, hash, res.Vector); err != nil {
		s.logger.Warnf("Query vector cache store failed: %v", err)
	}

	return res.Vector, nil
}

func hashImage(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
