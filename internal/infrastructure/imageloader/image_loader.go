package imageloader

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/lenza-tech/matcher-backend/internal/infrastructure"
	"github.com/lenza-tech/matcher-backend/internal/usecase"
	"github.com/lenza-tech/matcher-backend/pkg/e"
	"github.com/lenza-tech/matcher-backend/pkg/logger"
)

// maxDownloadSize — предел размера скачиваемого изображения (10 МБ)
const maxDownloadSize = 10 << 20

// ImageLoader скачивает изображения продуктов и запросов по внешним ссылкам
type ImageLoader struct {
	httpClient *http.Client
	logger     logger.Logger
}

func NewImageLoader(httpClient *http.Client, logger logger.Logger) *ImageLoader {
	return &ImageLoader{
		httpClient: httpClient,
		logger:     logger,
	}
}

// FetchFromURL скачивает изображение и возвращает его байты с MIME-типом.
// Принимаются только ссылки http/https и ответы с Content-Type image/*.
func (l *ImageLoader) FetchFromURL(ctx context.Context, rawURL string) (*usecase.ProductImage, error) {
	const op = "ImageLoader.FetchFromURL"

	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, e.Wrap(op, e.ErrInvalidImageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, e.Wrap(op, e.ErrInvalidImageURL)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, e.Wrap(op, e.Wrap(err.Error(), e.ErrImageLoad))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		l.logger.Warnf("Image download returned status %d for %s", resp.StatusCode, rawURL)
		return nil, e.Wrap(op, e.ErrImageLoad)
	}

	mimeType := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, e.Wrap(op, e.ErrUnsupportedMediaType)
	}
	if !infrastructure.IsSupportedImageMIME(mimeType) {
		return nil, e.Wrap(op, e.ErrUnsupportedMediaType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return nil, e.Wrap(op, e.Wrap(err.Error(), e.ErrImageLoad))
	}
	if len(data) > maxDownloadSize {
		return nil, e.Wrap(op, e.ErrFileTooLarge)
	}
	if len(data) == 0 {
		return nil, e.Wrap(op, e.ErrImageLoad)
	}

	name := path.Base(parsed.Path)
	if name == "." || name == "/" || name == "" {
		name = "image"
	}

	return usecase.NewProductImage(data, mimeType, int64(len(data)), name), nil
}
