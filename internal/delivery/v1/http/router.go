package http

import (
	_ "github.com/lenza-tech/matcher-backend/docs" // Импорт сгенерированных файлов
	"github.com/lenza-tech/matcher-backend/internal/usecase"
	"github.com/lenza-tech/matcher-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(prUC usecase.ProductUC, searchUC usecase.SearchUC, indexUC usecase.IndexUC) {
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"), // ссылка на JSON
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		prHandler := NewProductHandler(prUC, r.logger)
		registerProductRoutes(v1, prHandler)

		searchHandler := NewSearchHandler(searchUC, r.logger)
		registerSearchRoutes(v1, searchHandler)

		indexHandler := NewIndexHandler(indexUC, r.logger)
		registerIndexRoutes(v1, indexHandler)
	})
}

func registerProductRoutes(router chi.Router, prHandler *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Post("/", prHandler.registerNewProduct)
	})
}

func registerSearchRoutes(router chi.Router, searchHandler *SearchHandler) {
	router.Route("/search", func(sr chi.Router) {
		sr.Post("/", searchHandler.searchByUpload)
		sr.Post("/url", searchHandler.searchByURL)
		sr.Get("/results", searchHandler.results)
		sr.Post("/reset", searchHandler.reset)
	})
}

func registerIndexRoutes(router chi.Router, indexHandler *IndexHandler) {
	router.Route("/index", func(ir chi.Router) {
		ir.Post("/rebuild", indexHandler.rebuild)
		ir.Get("/status", indexHandler.status)
	})
}
