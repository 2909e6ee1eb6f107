package http

import (
	"encoding/json"
	"net/http"

	"github.com/lenza-tech/matcher-backend/internal/usecase"
	"github.com/lenza-tech/matcher-backend/pkg/e"
	"github.com/lenza-tech/matcher-backend/pkg/logger"
)

type SearchHandler struct {
	searchUsecase usecase.SearchUC
	logger        logger.Logger
}

func NewSearchHandler(searchUsecase usecase.SearchUC, logger logger.Logger) *SearchHandler {
	return &SearchHandler{searchUsecase: searchUsecase, logger: logger}
}

// searchByURLReq — тело запроса поиска по внешней ссылке.
type searchByURLReq struct {
	URL string `json:"url"`
}

// matchResponse — один результат поиска в ответе API.
type matchResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	ImageURL   string  `json:"image_url"`
	Price      int64   `json:"price"`
	Similarity float64 `json:"similarity"`
}

// searchResponse — отображаемый набор результатов с параметрами представления.
type searchResponse struct {
	Results   []matchResponse `json:"results"`
	Threshold float64         `json:"threshold"`
	SortMode  string          `json:"sort_mode"`
}

func newSearchResponse(res *usecase.SearchRes) *searchResponse {
	results := make([]matchResponse, 0, len(res.Results))
	for _, m := range res.Results {
		results = append(results, matchResponse{
			ID:         m.ID,
			Name:       m.Name,
			Category:   m.Category,
			ImageURL:   m.ImageURL,
			Price:      m.Price,
			Similarity: m.Similarity,
		})
	}

	return &searchResponse{
		Results:   results,
		Threshold: res.Threshold,
		SortMode:  string(res.SortMode),
	}
}

// searchByUpload
//
//	@Summary		Визуальный поиск по загруженному изображению
//	@Description	Принимает изображение и возвращает похожие товары каталога
//	@Tags			search
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image	formData	file			true	"Изображение запроса"
//	@Success		200		{object}	searchResponse	"Результаты поиска"
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Failure		409		{object}	ErrorResponse	"Запрос уже выполняется"
//	@Failure		503		{object}	ErrorResponse	"Индекс не готов"
//	@Router			/search [post]
func (s *SearchHandler) searchByUpload(w http.ResponseWriter, r *http.Request) {
	const (
		maxTotalRequestSize = 20 << 20
		maxMemory           = 16 << 20
	)

	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		s.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.Header.Get("Content-Type"))
		WriteError(w, err)
		return
	}

	images, err := parseImages(r.MultipartForm.File["image"])
	if err != nil {
		s.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	res, err := s.searchUsecase.SearchByUpload(r.Context(), images[0])
	if err != nil {
		s.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newSearchResponse(res))
}

// searchByURL
//
//	@Summary		Визуальный поиск по ссылке на изображение
//	@Description	Скачивает изображение по ссылке и возвращает похожие товары
//	@Tags			search
//	@Accept			json
//	@Produce		json
//	@Param			request	body		searchByURLReq	true	"Ссылка на изображение"
//	@Success		200		{object}	searchResponse	"Результаты поиска"
//	@Failure		400		{object}	ErrorResponse	"Некорректная ссылка"
//	@Router			/search/url [post]
func (s *SearchHandler) searchByURL(w http.ResponseWriter, r *http.Request) {
	var req searchByURLReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		s.logger.Warnf("%d %s", http.StatusBadRequest, e.ErrInvalidImageURL.Error())
		WriteError(w, e.ErrInvalidImageURL)
		return
	}

	res, err := s.searchUsecase.SearchByURL(r.Context(), req.URL)
	if err != nil {
		s.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newSearchResponse(res))
}

// results
//
//	@Summary		Текущие результаты поиска
//	@Description	Возвращает набор результатов последнего запроса с учётом порога и сортировки.
//	@Description	Параметры threshold и sort меняют представление без нового запроса.
//	@Tags			search
//	@Produce		json
//	@Param			threshold	query		number			false	"Порог близости [0, 1]"
//	@Param			sort		query		string			false	"Режим сортировки: highest, lowest, category"
//	@Success		200			{object}	searchResponse	"Результаты поиска"
//	@Failure		400			{object}	ErrorResponse	"Некорректные параметры"
//	@Router			/search/results [get]
func (s *SearchHandler) results(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		threshold, err := parseThreshold(raw)
		if err != nil {
			WriteError(w, err)
			return
		}
		if err := s.searchUsecase.SetThreshold(threshold); err != nil {
			WriteError(w, err)
			return
		}
	}

	if raw := r.URL.Query().Get("sort"); raw != "" {
		if err := s.searchUsecase.SetSortMode(raw); err != nil {
			WriteError(w, err)
			return
		}
	}

	res, err := s.searchUsecase.Results()
	if err != nil {
		s.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newSearchResponse(res))
}

// reset
//
//	@Summary		Сброс результатов поиска
//	@Description	Очищает набор результатов текущего сеанса, сохраняя порог и сортировку
//	@Tags			search
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}	"Сеанс сброшен"
//	@Router			/search/reset [post]
func (s *SearchHandler) reset(w http.ResponseWriter, r *http.Request) {
	s.searchUsecase.Reset()
	WriteSuccess(w, http.StatusOK, map[string]interface{}{"reset": true})
}
