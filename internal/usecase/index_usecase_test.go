package usecase

import (
	"context"
	"testing"

	"github.com/lenza-tech/matcher-backend/internal/domain"
	"github.com/lenza-tech/matcher-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexFixture(products []domain.Product, ml *fakeMlService, embeddings *fakeEmbeddingRepo) (*IndexUseCase, *fakeProducer) {
	producer := &fakeProducer{}
	uc := NewIndexUC(
		&fakeProductRepo{products: products},
		embeddings,
		ml,
		&fakeImageSource{},
		producer,
		nopLogger{},
		4,
	)

	return uc, producer
}

func TestRebuild_PublishesSnapshot(t *testing.T) {
	products := []domain.Product{
		catalogProduct("a", "shoes"),
		catalogProduct("b", "bags"),
	}
	ml := &fakeMlService{
		vectors: map[string][]float32{
			products[0].ImageURL: unitVector(10),
			products[1].ImageURL: unitVector(40),
		},
		version: "v1",
		dim:     2,
	}
	embeddings := &fakeEmbeddingRepo{}

	uc, producer := indexFixture(products, ml, embeddings)

	res, err := uc.Rebuild(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Indexed)
	assert.Equal(t, 0, res.WarmLoaded)
	assert.Empty(t, res.Failed)
	assert.Equal(t, "v1", res.ModelVersion)

	require.NotNil(t, uc.Store())
	assert.Equal(t, 2, uc.Store().Len())
	assert.Len(t, uc.Products(), 2)

	// векторы ушли в персистентное хранилище с версией модели в payload
	assert.Equal(t, 2, embeddings.upserted)
	for _, emb := range embeddings.stored {
		assert.Equal(t, "v1", emb.Payload["model_version"])
	}

	assert.Contains(t, producer.events, "index.rebuilt")
}

func TestRebuild_PartialFailureIsolated(t *testing.T) {
	products := []domain.Product{
		catalogProduct("a", "shoes"),
		catalogProduct("b", "bags"),
		catalogProduct("c", "hats"),
	}
	ml := &fakeMlService{
		vectors: map[string][]float32{
			products[0].ImageURL: unitVector(10),
			products[2].ImageURL: unitVector(40),
		},
		version: "v1",
		dim:     2,
	}

	uc, _ := indexFixture(products, ml, &fakeEmbeddingRepo{})
	uc.imageSource = &fakeImageSource{broken: map[string]bool{products[1].ImageURL: true}}

	res, err := uc.Rebuild(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Indexed)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "b", res.Failed[0].ProductID)
	assert.NotEmpty(t, res.Failed[0].Reason)

	// сбойный продукт не попал в опубликованное хранилище
	_, ok := uc.Store().Get("b")
	assert.False(t, ok)
}

func TestRebuild_WarmStartSkipsVectorization(t *testing.T) {
	products := []domain.Product{
		catalogProduct("a", "shoes"),
		catalogProduct("b", "bags"),
	}
	ml := &fakeMlService{
		vectors: map[string][]float32{
			products[1].ImageURL: unitVector(40),
		},
		version: "v1",
		dim:     2,
	}
	embeddings := &fakeEmbeddingRepo{
		stored: []domain.Embedding{
			*domain.NewEmbedding("e-a", unitVector(10), domain.NewPayload("a", products[0].ImageURL, "v1")),
			// вектор устаревшей версии модели не восстанавливается
			*domain.NewEmbedding("e-b", unitVector(40), domain.NewPayload("b", products[1].ImageURL, "v0")),
		},
	}

	uc, _ := indexFixture(products, ml, embeddings)

	res, err := uc.Rebuild(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Indexed)
	assert.Equal(t, 1, res.WarmLoaded)
	assert.Empty(t, res.Failed)
	// векторизовался только продукт без тёплого вектора
	assert.Equal(t, 1, ml.vectorizeCalls())
}

func TestRebuild_WarmLoadFailureFallsBack(t *testing.T) {
	products := []domain.Product{catalogProduct("a", "shoes")}
	ml := &fakeMlService{
		vectors: map[string][]float32{products[0].ImageURL: unitVector(10)},
		version: "v1",
		dim:     2,
	}
	embeddings := &fakeEmbeddingRepo{loadErr: assert.AnError}

	uc, _ := indexFixture(products, ml, embeddings)

	res, err := uc.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Indexed)
	assert.Equal(t, 0, res.WarmLoaded)
}

func TestRebuild_EmptyCatalog(t *testing.T) {
	ml := &fakeMlService{vectors: map[string][]float32{}, version: "v1"}
	uc, _ := indexFixture(nil, ml, &fakeEmbeddingRepo{})

	_, err := uc.Rebuild(context.Background())
	assert.ErrorIs(t, err, e.ErrNoProducts)
}

func TestRebuild_ModelNotReady(t *testing.T) {
	products := []domain.Product{catalogProduct("a", "shoes")}
	ml := &fakeMlService{infoErr: assert.AnError}

	uc, _ := indexFixture(products, ml, &fakeEmbeddingRepo{})

	_, err := uc.Rebuild(context.Background())
	assert.ErrorIs(t, err, e.ErrModelInit)
}

func TestStatus_BeforeAndAfterRebuild(t *testing.T) {
	products := []domain.Product{catalogProduct("a", "shoes")}
	ml := &fakeMlService{
		vectors: map[string][]float32{products[0].ImageURL: unitVector(10)},
		version: "v1",
		dim:     2,
	}

	uc, _ := indexFixture(products, ml, &fakeEmbeddingRepo{})

	assert.False(t, uc.Status().Ready)
	assert.Nil(t, uc.Store())

	_, err := uc.Rebuild(context.Background())
	require.NoError(t, err)

	status := uc.Status()
	assert.True(t, status.Ready)
	assert.Equal(t, 1, status.Products)
	assert.Equal(t, 1, status.Indexed)
	assert.Equal(t, "v1", status.ModelVersion)
	assert.False(t, status.BuiltAt.IsZero())
}
