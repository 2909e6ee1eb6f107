package ml_service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/lenza-tech/matcher-backend/internal/usecase"
	"github.com/lenza-tech/matcher-backend/pkg/e"
	"github.com/lenza-tech/matcher-backend/pkg/jitter"
	"github.com/lenza-tech/matcher-backend/pkg/logger"
)

const (
	baseJitter = 1 * time.Second
	maxJitter  = 30 * time.Second
)

// MLService клиент для взаимодействия с внешним ML-сервисом эмбеддингов
type MLService struct {
	httpClient    *http.Client
	addr          string
	maxConcurrent int
	maxRetries    int
	logger        logger.Logger
}

func NewMLService(httpClient *http.Client, addr string, maxConcurrent int, maxRetries int, logger logger.Logger) *MLService {
	return &MLService{
		httpClient:    httpClient,
		addr:          addr,
		maxConcurrent: maxConcurrent,
		maxRetries:    maxRetries,
		logger:        logger,
	}
}

type vectorizeResponse struct {
	Vector       []float32 `json:"vector"`
	ModelVersion string    `json:"model_version"`
}

type modelInfoResponse struct {
	Version string `json:"version"`
	Dim     int    `json:"dim"`
}

// VectorizeImage вычисляет вектор одного изображения с retry-логикой
// и экспоненциальной задержкой
func (m *MLService) VectorizeImage(ctx context.Context, image usecase.ProductImage) (*usecase.VectorizeRes, error) {
	const op = "MLService.VectorizeImage"

	for attempt := 0; attempt < m.maxRetries; attempt++ {
		res, err := m.vectorize(ctx, image)
		if err == nil {
			return res, nil
		}

		if attempt == m.maxRetries-1 {
			return nil, e.Wrap(op, fmt.Errorf("all %d attempts failed: %w", m.maxRetries, err))
		}

		sleepTime := jitter.ExponentialBackoff(
			baseJitter,
			maxJitter,
			attempt,
			jitter.DefaultJitter,
		)

		m.logger.Warnf("vectorization failed, retrying in %v (attempt %d)", sleepTime, attempt+1)
		select {
		case <-time.After(sleepTime):
		case <-ctx.Done():
			return nil, e.Wrap(op, ctx.Err())
		}
	}

	return nil, e.Wrap(op, fmt.Errorf("unreachable"))
}

// VectorizeBatch отправляет батч изображений на векторизацию параллельно
// с ограничением конкурентности
func (m *MLService) VectorizeBatch(ctx context.Context, req *usecase.VectorizeReq) ([]usecase.VectorizeRes, error) {
	const op = "MLService.VectorizeBatch"

	vectorCh := make(chan usecase.VectorizeRes, len(req.Images))
	errCh := make(chan error, len(req.Images))
	sem := make(chan struct{}, m.maxConcurrent)

	var wg sync.WaitGroup
	for _, image := range req.Images {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := m.VectorizeImage(ctx, image)
			if err != nil {
				errCh <- err
				return
			}

			vectorCh <- *res
		}()
	}

	go func() {
		wg.Wait()
		close(errCh)
		close(vectorCh)
	}()

	vectors := make([]usecase.VectorizeRes, 0, len(req.Images))
	for completed := 0; completed < len(req.Images); {
		select {
		case vector, ok := <-vectorCh:
			if ok {
				vectors = append(vectors, vector)
				completed++
			}
		case err, ok := <-errCh:
			if ok {
				return nil, e.Wrap(op, err)
			}
		case <-ctx.Done():
			return nil, e.Wrap(op, ctx.Err())
		}
	}

	return vectors, nil
}

// ModelInfo возвращает версию и размерность модели эмбеддингов
func (m *MLService) ModelInfo(ctx context.Context) (*usecase.ModelInfoRes, error) {
	const op = "MLService.ModelInfo"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, m.addr+"/model/info", nil)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, e.Wrap(op, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var info modelInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, e.Wrap(op, err)
	}

	return &usecase.ModelInfoRes{Version: info.Version, Dim: info.Dim}, nil
}

// vectorize выполняет один запрос векторизации без повторов
func (m *MLService) vectorize(ctx context.Context, image usecase.ProductImage) (*usecase.VectorizeRes, error) {
	const op = "MLService.vectorize"

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", image.Name)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if _, err := part.Write(image.Data); err != nil {
		return nil, e.Wrap(op, err)
	}
	if err := writer.Close(); err != nil {
		return nil, e.Wrap(op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.addr+"/vectorize", &body)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, e.Wrap(op, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, raw))
	}

	var vec vectorizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&vec); err != nil {
		return nil, e.Wrap(op, err)
	}
	if len(vec.Vector) == 0 {
		return nil, e.Wrap(op, e.ErrEmptyVector)
	}

	return usecase.NewVectorizeRes(vec.Vector, vec.ModelVersion), nil
}
