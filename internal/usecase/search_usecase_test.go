package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/lenza-tech/matcher-backend/internal/domain"
	"github.com/lenza-tech/matcher-backend/internal/matching"
	"github.com/lenza-tech/matcher-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitVector возвращает двумерный единичный вектор под углом deg к оси X.
// Косинусная близость двух таких векторов равна косинусу угла между ними.
func unitVector(deg float64) []float32 {
	rad := deg * math.Pi / 180
	return []float32{float32(math.Cos(rad)), float32(math.Sin(rad))}
}

func catalogProduct(id string, category string) domain.Product {
	return *domain.NewProduct(id, "Product "+id, category, "https://img.example/"+id+".jpg", 1990_00)
}

// searchFixture собирает поисковый usecase поверх заранее построенного индекса.
func searchFixture(vectors map[string][]float32, products map[string]domain.Product, queryVec []float32) (*SearchUseCase, *fakeMlService, *fakeCacheRepo) {
	ml := &fakeMlService{
		vectors: map[string][]float32{"query.jpg": queryVec},
		version: "v1",
		dim:     2,
	}
	cache := newFakeCacheRepo()
	index := &fakeIndex{store: domain.NewEmbeddingStore(vectors), products: products}
	uc := NewSearchUC(index, ml, &fakeImageSource{}, cache, matching.DefaultParams(), nopLogger{})

	return uc, ml, cache
}

func queryImage() ProductImage {
	return *NewProductImage([]byte("query-bytes"), "image/jpeg", 11, "query.jpg")
}

func TestSearchByUpload_EndToEnd(t *testing.T) {
	// a близок к запросу, b — почти дубликат a, c умеренно похож,
	// d ниже порога отбора.
	vectors := map[string][]float32{
		"a": unitVector(23.07),  // cos ≈ 0.92
		"b": unitVector(28.36),  // cos ≈ 0.88, к a ≈ 0.996 — подавляется
		"c": unitVector(-53.13), // cos ≈ 0.60
		"d": unitVector(-78.46), // cos ≈ 0.20 — ниже пола отбора
	}
	products := map[string]domain.Product{
		"a": catalogProduct("a", "shoes"),
		"b": catalogProduct("b", "shoes"),
		"c": catalogProduct("c", "bags"),
		"d": catalogProduct("d", "hats"),
	}

	uc, _, _ := searchFixture(vectors, products, unitVector(0))

	res, err := uc.SearchByUpload(context.Background(), queryImage())
	require.NoError(t, err)

	require.Len(t, res.Results, 2)
	assert.Equal(t, "a", res.Results[0].ID)
	assert.Equal(t, "c", res.Results[1].ID)
	assert.InDelta(t, 0.92, res.Results[0].Similarity, 0.01)
	assert.InDelta(t, 0.60, res.Results[1].Similarity, 0.01)
	assert.Equal(t, 0.5, res.Threshold)
	assert.Equal(t, domain.SortByHighest, res.SortMode)
}

func TestSearchByUpload_IndexNotReady(t *testing.T) {
	ml := &fakeMlService{vectors: map[string][]float32{}, version: "v1"}
	uc := NewSearchUC(&fakeIndex{}, ml, &fakeImageSource{}, newFakeCacheRepo(), matching.DefaultParams(), nopLogger{})

	_, err := uc.SearchByUpload(context.Background(), queryImage())
	assert.ErrorIs(t, err, e.ErrIndexNotReady)
	assert.Equal(t, 0, ml.vectorizeCalls())
}

func TestSearchByUpload_EmbeddingFailureKeepsResults(t *testing.T) {
	vectors := map[string][]float32{"a": unitVector(10)}
	products := map[string]domain.Product{"a": catalogProduct("a", "shoes")}

	uc, ml, _ := searchFixture(vectors, products, unitVector(0))

	res, err := uc.SearchByUpload(context.Background(), queryImage())
	require.NoError(t, err)
	require.Len(t, res.Results, 1)

	// следующий запрос падает на векторизации — прежний набор сохраняется
	ml.vectorErr = assert.AnError
	_, err = uc.SearchByUpload(context.Background(), *NewProductImage([]byte("other"), "image/jpeg", 5, "other.jpg"))
	assert.ErrorIs(t, err, e.ErrEmbedding)

	kept, err := uc.Results()
	require.NoError(t, err)
	assert.Len(t, kept.Results, 1)
}

func TestSearchByUpload_QueryVectorCached(t *testing.T) {
	vectors := map[string][]float32{"a": unitVector(10)}
	products := map[string]domain.Product{"a": catalogProduct("a", "shoes")}

	uc, ml, cache := searchFixture(vectors, products, unitVector(0))

	_, err := uc.SearchByUpload(context.Background(), queryImage())
	require.NoError(t, err)
	require.Equal(t, 1, ml.vectorizeCalls())
	assert.Len(t, cache.vectors, 1)

	// повторный запрос тем же изображением обслуживается из кэша
	_, err = uc.SearchByUpload(context.Background(), queryImage())
	require.NoError(t, err)
	assert.Equal(t, 1, ml.vectorizeCalls())
}

func TestSearchByUpload_RejectsConcurrentQuery(t *testing.T) {
	vectors := map[string][]float32{"a": unitVector(10)}
	products := map[string]domain.Product{"a": catalogProduct("a", "shoes")}

	uc, ml, _ := searchFixture(vectors, products, unitVector(0))
	ml.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := uc.SearchByUpload(context.Background(), queryImage())
		done <- err
	}()

	require.Eventually(t, func() bool { return ml.vectorizeCalls() == 1 },
		time.Second, time.Millisecond)

	// второй запрос, пока первый еще векторизуется
	_, err := uc.SearchByUpload(context.Background(), *NewProductImage([]byte("other"), "image/jpeg", 5, "other.jpg"))
	assert.ErrorIs(t, err, e.ErrQueryInFlight)

	close(ml.block)
	require.NoError(t, <-done)

	res, err := uc.Results()
	require.NoError(t, err)
	assert.Len(t, res.Results, 1)
}

func TestReset_DiscardsStaleCompletion(t *testing.T) {
	vectors := map[string][]float32{"a": unitVector(10)}
	products := map[string]domain.Product{"a": catalogProduct("a", "shoes")}

	uc, ml, _ := searchFixture(vectors, products, unitVector(0))
	ml.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := uc.SearchByUpload(context.Background(), queryImage())
		done <- err
	}()

	require.Eventually(t, func() bool { return ml.vectorizeCalls() == 1 },
		time.Second, time.Millisecond)

	// сброс во время векторизации: завершение запроса не публикует результаты
	uc.Reset()
	close(ml.block)
	assert.ErrorIs(t, <-done, e.ErrQueryInFlight)

	res, err := uc.Results()
	require.NoError(t, err)
	assert.Empty(t, res.Results)
}

func TestSearchByURL_FetchFailure(t *testing.T) {
	vectors := map[string][]float32{"a": unitVector(10)}
	products := map[string]domain.Product{"a": catalogProduct("a", "shoes")}

	uc, _, _ := searchFixture(vectors, products, unitVector(0))
	uc.imageSource = &fakeImageSource{broken: map[string]bool{"https://img.example/q.jpg": true}}

	_, err := uc.SearchByURL(context.Background(), "https://img.example/q.jpg")
	assert.Error(t, err)
}

func TestSetThreshold_RecomputesView(t *testing.T) {
	vectors := map[string][]float32{
		"a": unitVector(23.07),  // cos ≈ 0.92
		"c": unitVector(-53.13), // cos ≈ 0.60
	}
	products := map[string]domain.Product{
		"a": catalogProduct("a", "shoes"),
		"c": catalogProduct("c", "bags"),
	}

	uc, _, _ := searchFixture(vectors, products, unitVector(0))

	_, err := uc.SearchByUpload(context.Background(), queryImage())
	require.NoError(t, err)

	require.NoError(t, uc.SetThreshold(0.9))
	res, err := uc.Results()
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "a", res.Results[0].ID)

	// понижение порога возвращает отфильтрованный результат без нового запроса
	require.NoError(t, uc.SetThreshold(0.3))
	res, err = uc.Results()
	require.NoError(t, err)
	assert.Len(t, res.Results, 2)
}

func TestSetThreshold_Invalid(t *testing.T) {
	uc, _, _ := searchFixture(nil, nil, unitVector(0))

	assert.ErrorIs(t, uc.SetThreshold(-0.1), e.ErrInvalidThreshold)
	assert.ErrorIs(t, uc.SetThreshold(1.1), e.ErrInvalidThreshold)
}

func TestSetSortMode(t *testing.T) {
	vectors := map[string][]float32{
		"a": unitVector(23.07),
		"c": unitVector(-53.13),
	}
	products := map[string]domain.Product{
		"a": catalogProduct("a", "shoes"),
		"c": catalogProduct("c", "bags"),
	}

	uc, _, _ := searchFixture(vectors, products, unitVector(0))

	_, err := uc.SearchByUpload(context.Background(), queryImage())
	require.NoError(t, err)
	require.NoError(t, uc.SetThreshold(0.3))

	require.NoError(t, uc.SetSortMode("lowest"))
	res, err := uc.Results()
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "c", res.Results[0].ID)

	assert.ErrorIs(t, uc.SetSortMode("random"), e.ErrInvalidSortMode)
}

func TestReset_ClearsResultsKeepsView(t *testing.T) {
	vectors := map[string][]float32{"a": unitVector(10)}
	products := map[string]domain.Product{"a": catalogProduct("a", "shoes")}

	uc, _, _ := searchFixture(vectors, products, unitVector(0))

	_, err := uc.SearchByUpload(context.Background(), queryImage())
	require.NoError(t, err)
	require.NoError(t, uc.SetThreshold(0.7))
	require.NoError(t, uc.SetSortMode("lowest"))

	uc.Reset()

	res, err := uc.Results()
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	assert.Equal(t, 0.7, res.Threshold)
	assert.Equal(t, domain.SortByLowest, res.SortMode)
}
