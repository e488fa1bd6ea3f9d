package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"aitools-backend/internal/cache"
	"aitools-backend/internal/database"
	"aitools-backend/internal/inference"
	"aitools-backend/internal/metrics"
	"aitools-backend/internal/storage"
	"aitools-backend/internal/tools"
	"aitools-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type BindingResolver interface {
	Binding(provider string) (inference.Binding, error)
}

type ServiceOptions struct {
	// AllowedOrigins controls the static Access-Control-Allow-Origin header.
	// Empty or containing "*" means any origin.
	AllowedOrigins []string
	HistoryCache   cache.HistoryCache
	// ImageArchive is optional; generated images are mirrored into it when set.
	ImageArchive *storage.ImageArchive
}

type AIService struct {
	db             *gorm.DB
	bindings       BindingResolver
	catalog        *tools.Catalog
	cache          cache.HistoryCache
	archive        *storage.ImageArchive
	allowAnyOrigin bool
}

func NewAIService(db *gorm.DB, bindings BindingResolver, catalog *tools.Catalog, opts ServiceOptions) *AIService {
	historyCache := opts.HistoryCache
	if historyCache == nil {
		historyCache = cache.NoopCache{}
	}

	return &AIService{
		db:             db,
		bindings:       bindings,
		catalog:        catalog,
		cache:          historyCache,
		archive:        opts.ImageArchive,
		allowAnyOrigin: len(opts.AllowedOrigins) == 0 || slices.Contains(opts.AllowedOrigins, "*"),
	}
}

func (s *AIService) AddRoutes(r chi.Router) {
	r.MethodNotAllowed(s.methodNotAllowed)
	r.NotFound(s.notFound)

	r.Group(func(r chi.Router) {
		r.Use(s.corsHeaders)

		r.Post("/", RestHandler(s.Generate))
		r.Post("/generate", RestHandler(s.Generate))
		r.Post("/image", s.GenerateImage)

		r.Get("/history", RestHandler(s.ListHistory))
		r.Delete("/history/{id}", RestHandler(s.DeleteHistory))
		r.Get("/history/{id}/image", s.GetHistoryImage)

		r.Get("/tools", RestHandler(s.ListTools))
		r.Get("/health", RestHandler(s.Health))

		r.Options("/*", s.preflight)
	})
}

func (s *AIService) Health(r *http.Request) (any, error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, DetailedError(http.StatusInternalServerError, "Database unavailable", err)
	}
	if err := sqlDB.PingContext(r.Context()); err != nil {
		return nil, DetailedError(http.StatusInternalServerError, "Database unavailable", err)
	}
	return api.HealthResponse{Status: "ok"}, nil
}

func (s *AIService) ListTools(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.ToolsParams](r)
	if err != nil {
		return nil, err
	}

	return api.ToolsResponse{Tools: convertTools(s.catalog.Filter(params.Category, params.Search))}, nil
}

// recordHistory persists a completed generation and drops the user's cached
// listings so the next read sees it.
func (s *AIService) recordHistory(ctx context.Context, userID, toolName, prompt, responseType, response string) (database.History, error) {
	h, err := database.SaveHistory(ctx, s.db, userID, toolName, prompt, responseType, response)
	if err != nil {
		return database.History{}, fmt.Errorf("error saving history: %w", err)
	}
	metrics.HistoryWrites.WithLabelValues(responseType).Inc()

	s.invalidateHistory(ctx, userID)

	return h, nil
}

func (s *AIService) invalidateHistory(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		slog.Warn("error invalidating history cache", "user_id", userID, "error", err)
	}
}
