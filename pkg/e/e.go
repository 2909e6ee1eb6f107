package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Внутренние ошибки с векторами
	ErrDimensionMismatch   = fmt.Errorf("vector dimension mismatch")
	ErrEmptyVector         = fmt.Errorf("vector embedding is empty")
	ErrImageVectorMismatch = fmt.Errorf("image vector mismatch")
	ErrEmbedding           = fmt.Errorf("embedding computation failed")
	ErrModelInit           = fmt.Errorf("embedding model is not initialized")

	// Ошибки загрузки изображений
	ErrImageLoad            = fmt.Errorf("failed to load image")
	ErrInvalidImageURL      = fmt.Errorf("image url must use http or https scheme")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")

	// Ошибки поискового сеанса
	ErrQueryInFlight = fmt.Errorf("another search query is already in flight")
	ErrIndexNotReady = fmt.Errorf("embedding index is not ready")
	ErrNoProducts    = fmt.Errorf("no products in catalog")

	// 400 Bad Request
	ErrStatusBadRequest    = fmt.Errorf("bad request")
	ErrExpectedMultipart   = fmt.Errorf("expected multipart/form-data")
	ErrMissingFields       = fmt.Errorf("missing required fields")
	ErrInvalidPrice        = fmt.Errorf("invalid price")
	ErrPricePrecision      = fmt.Errorf("price must have at most 2 decimal places")
	ErrProductNameRequired = fmt.Errorf("product name is required")
	ErrPriceMustBePositive = fmt.Errorf("price must be positive")
	ErrNoImages            = fmt.Errorf("no images provided")
	ErrTooManyImages       = fmt.Errorf("too many images")
	ErrFileTooLarge        = fmt.Errorf("file too large")
	ErrInvalidThreshold    = fmt.Errorf("threshold must be a number between 0 and 1")
	ErrInvalidSortMode     = fmt.Errorf("unknown sort mode")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")

	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
