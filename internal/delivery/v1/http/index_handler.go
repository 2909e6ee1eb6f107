package http

import (
	"net/http"

	"github.com/lenza-tech/matcher-backend/internal/usecase"
	"github.com/lenza-tech/matcher-backend/pkg/logger"
)

type IndexHandler struct {
	indexUsecase usecase.IndexUC
	logger       logger.Logger
}

func NewIndexHandler(indexUsecase usecase.IndexUC, logger logger.Logger) *IndexHandler {
	return &IndexHandler{indexUsecase: indexUsecase, logger: logger}
}

// rebuild
//
//	@Summary		Переиндексация каталога
//	@Description	Строит хранилище эмбеддингов заново и публикует его атомарно.
//	@Description	Сбой отдельного товара не прерывает проход.
//	@Tags			index
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}	"Итог индексации"
//	@Failure		409	{object}	ErrorResponse			"Индексация уже выполняется"
//	@Router			/index/rebuild [post]
func (h *IndexHandler) rebuild(w http.ResponseWriter, r *http.Request) {
	res, err := h.indexUsecase.Rebuild(r.Context())
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"indexed":       res.Indexed,
		"warm_loaded":   res.WarmLoaded,
		"failed":        res.Failed,
		"model_version": res.ModelVersion,
	})
}

// status
//
//	@Summary		Состояние индекса
//	@Description	Возвращает готовность и размер опубликованного индекса
//	@Tags			index
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}	"Состояние индекса"
//	@Router			/index/status [get]
func (h *IndexHandler) status(w http.ResponseWriter, r *http.Request) {
	status := h.indexUsecase.Status()

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"ready":         status.Ready,
		"products":      status.Products,
		"indexed":       status.Indexed,
		"failed":        status.Failed,
		"model_version": status.ModelVersion,
		"built_at":      status.BuiltAt,
	})
}
