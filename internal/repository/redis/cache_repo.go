package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lenza-tech/matcher-backend/internal/cfg"
	"github.com/lenza-tech/matcher-backend/pkg/clients"
	"github.com/lenza-tech/matcher-backend/pkg/e"
	"github.com/lenza-tech/matcher-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/redis/go-redis/v9"
)

// cachedQueryVector — сериализованное представление вектора запроса в кэше.
type cachedQueryVector struct {
	Hash   string    `json:"hash"`
	Vector []float32 `json:"vector"`
}

// CacheRepo кэширует векторы изображений запросов по хэшу содержимого.
// Повторная загрузка того же изображения не обращается к ML-сервису.
type CacheRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// GetQueryVector возвращает закэшированный вектор запроса или nil при промахе.
func (r *CacheRepo) GetQueryVector(ctx context.Context, imageHash string) ([]float32, error) {
	key := r.queryKey(imageHash)

	data, err := r.client.Client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var cached cachedQueryVector
	if err := json.Unmarshal(data, &cached); err != nil {
		r.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, nil
	}

	if cached.Hash != imageHash {
		r.logger.Warnf("Cache hash mismatch: key_hash: %s, cached_hash: %s", imageHash, cached.Hash)
		if err := r.client.Client.Del(context.Background(), key).Err(); err != nil {
			r.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
		return nil, nil // cache miss
	}

	return cached.Vector, nil
}

// SetQueryVector кэширует вектор запроса с TTL из конфигурации.
// Ошибки сериализации/записи не фатальны и только логируются.
func (r *CacheRepo) SetQueryVector(ctx context.Context, imageHash string, vector []float32) error {
	data, err := json.Marshal(cachedQueryVector{Hash: imageHash, Vector: vector})
	if err != nil {
		r.logger.Warnf("Failed to marshal query vector for caching (hash: %s): %v", imageHash, e.Wrap(whereami.WhereAmI(), err))
		return nil
	}

	if err := r.client.Client.Set(ctx, r.queryKey(imageHash), data, r.cfg.QueryTTL).Err(); err != nil {
		r.logger.Warnf("Redis SET failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

// queryKey возвращает Redis-ключ вектора запроса
func (r *CacheRepo) queryKey(hash string) string {
	return fmt.Sprintf("query-vec:%s", hash)
}
