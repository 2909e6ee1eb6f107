package usecase

import "context"

type MlServiceInfra interface {
	VectorizeImage(ctx context.Context, image ProductImage) (*VectorizeRes, error)
	VectorizeBatch(ctx context.Context, req *VectorizeReq) ([]VectorizeRes, error)
	ModelInfo(ctx context.Context) (*ModelInfoRes, error)
}

type ImagesInfra interface {
	UploadImages(ctx context.Context, req *UploadImagesReq) (*UploadImagesRes, error)
	CleanupImages(keys []string)
}

// ImageSource получает байты изображения по внешней ссылке.
type ImageSource interface {
	FetchFromURL(ctx context.Context, url string) (*ProductImage, error)
}

type MessageProducer interface {
	WriteMessage(ctx context.Context, req *WriteMessageReq) error
}
