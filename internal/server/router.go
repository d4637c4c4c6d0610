package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vaporlogic/manualqa/internal/api"
	"github.com/vaporlogic/manualqa/internal/api/handlers"
	"github.com/vaporlogic/manualqa/internal/api/middleware"
)

type RouterConfig struct {
	QueryHandler *handlers.QueryHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/query", cfg.QueryHandler.Query)
	r.Post("/documents", cfg.QueryHandler.UploadDocument)
	r.Get("/collection/stats", cfg.QueryHandler.CollectionStats)

	return r
}
