package qdrant

import (
	"context"

	"github.com/lenza-tech/matcher-backend/internal/cfg"
	"github.com/lenza-tech/matcher-backend/internal/domain"
	"github.com/lenza-tech/matcher-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
)

// размер страницы при постраничном чтении коллекции
const scrollPageSize = 256

// EmbeddingRepo репозиторий для работы с embedding-векторами в Qdrant
type EmbeddingRepo struct {
	client *qdrant.Client
	cfg    *cfg.QdrantCfg
}

func NewEmbeddingRepo(client *qdrant.Client, cfg *cfg.QdrantCfg) *EmbeddingRepo {
	return &EmbeddingRepo{
		client: client,
		cfg:    cfg,
	}
}

// Upsert сохраняет или обновляет embedding-векторы в указанной коллекции Qdrant.
func (q *EmbeddingRepo) Upsert(ctx context.Context, vectors []domain.Embedding) error {
	reqVectors := make([]*qdrant.PointStruct, 0, len(vectors))
	for _, vector := range vectors {
		reqVectors = append(reqVectors, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(vector.ID),
			Vectors: qdrant.NewVectors(vector.Vector...),
			Payload: qdrant.NewValueMap(vector.Payload),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.cfg.QdrantCollectionName,
		Points:         reqVectors,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// LoadByModelVersion постранично вычитывает все векторы указанной версии модели.
// Используется для тёплого старта индекса без повторной векторизации каталога.
func (q *EmbeddingRepo) LoadByModelVersion(ctx context.Context, modelVersion string) ([]domain.Embedding, error) {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("model_version", modelVersion),
		},
	}

	result := make([]domain.Embedding, 0)
	var offset *qdrant.PointId
	for {
		points, err := q.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: q.cfg.QdrantCollectionName,
			Filter:         filter,
			Limit:          qdrant.PtrOf(uint32(scrollPageSize)),
			Offset:         offset,
			WithVectors:    qdrant.NewWithVectors(true),
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		if len(points) == 0 {
			break
		}

		for _, point := range points {
			result = append(result, *toEmbedding(point))
		}
		if len(points) < scrollPageSize {
			break
		}

		offset = points[len(points)-1].Id
	}

	return result, nil
}

// toEmbedding преобразует точку Qdrant в доменный эмбеддинг.
func toEmbedding(point *qdrant.RetrievedPoint) *domain.Embedding {
	var vector []float32
	if v := point.GetVectors().GetVector(); v != nil {
		vector = v.GetData()
	}

	payload := make(domain.Payload, len(point.GetPayload()))
	for key, value := range point.GetPayload() {
		switch v := value.GetKind().(type) {
		case *qdrant.Value_StringValue:
			payload[key] = v.StringValue
		case *qdrant.Value_IntegerValue:
			payload[key] = v.IntegerValue
		case *qdrant.Value_DoubleValue:
			payload[key] = v.DoubleValue
		case *qdrant.Value_BoolValue:
			payload[key] = v.BoolValue
		}
	}

	return domain.NewEmbedding(point.GetId().GetUuid(), vector, payload)
}
