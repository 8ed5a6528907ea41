package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"popup-storybook/server/internal/config"
	"popup-storybook/server/internal/interfaces"
	"popup-storybook/server/internal/storage"
	"popup-storybook/server/internal/storybook"
)

const requestIDHeader = "X-Request-ID"

// ProviderCatalog dispatches image requests and lists the registered providers.
type ProviderCatalog interface {
	interfaces.ImageDispatcher
	Names() []string
}

type Handlers struct {
	store      *storage.Store
	storybooks *storybook.Service
	images     ProviderCatalog
	imageSize  string
	logger     *zap.Logger
}

func NewHandlers(store *storage.Store, storybooks *storybook.Service, images ProviderCatalog, cfg *config.Config, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		store:      store,
		storybooks: storybooks,
		images:     images,
		imageSize:  cfg.Generation.ImageSize,
		logger:     logger.Named("http"),
	}
}

// NewRouter mounts every route under /api plus /metrics.
func NewRouter(cfg *config.Config, h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HealthCheck)

		r.Route("/storybook", func(r chi.Router) {
			r.Get("/", h.ListStorybooks)
			r.Post("/generate", h.GenerateStorybook)
			r.Get("/{id}", h.GetStorybook)
			r.Get("/{id}/status", h.GetStorybookStatus)
			r.Patch("/{id}/favorite", h.ToggleStorybookFavorite)
			r.Delete("/{id}", h.DeleteStorybook)
		})

		r.Route("/generate", func(r chi.Router) {
			r.Post("/", h.GenerateImage)
			r.Get("/providers", h.GetProviders)
			r.Get("/styles", h.GetStyles)
		})

		// fixed paths before /{key}
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.ListSettings)
			r.Get("/llm-config", h.GetLLMConfig)
			r.Put("/llm-config", h.SaveLLMConfig)
			r.Get("/api-keys/list", h.ListAPIKeys)
			r.Get("/api-keys/{provider}", h.GetAPIKey)
			r.Put("/api-keys/{provider}", h.SaveAPIKey)
			r.Delete("/api-keys/{provider}", h.DeleteAPIKey)
			r.Get("/{key}", h.GetSetting)
			r.Put("/{key}", h.PutSetting)
		})

		r.Route("/images", func(r chi.Router) {
			r.Get("/", h.ListImages)
			r.Post("/", h.CreateImage)
			r.Post("/batch-delete", h.BatchDeleteImages)
			r.Get("/{id}", h.GetImage)
			r.Delete("/{id}", h.DeleteImage)
			r.Patch("/{id}/favorite", h.ToggleImageFavorite)
		})
	})

	return r
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	database := map[string]interface{}{
		"driver":    h.store.Driver(),
		"connected": true,
	}
	status := "ok"
	if err := h.store.Ping(ctx); err != nil {
		database["connected"] = false
		database["error"] = err.Error()
		status = "degraded"
	}

	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"status":      status,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"database":    database,
		"active_jobs": h.storybooks.ActiveJobs(),
	})
}

func corsMiddleware(allowed []string) func(http.Handler) http.Handler {
	allowAll := len(allowed) == 0
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
		}
		origins[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origins[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+requestIDHeader)
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type ctxKey struct{}

// requestID reuses the caller's X-Request-ID or mints a uuid.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zapcore.Field{
				zap.Int("status", status),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Duration("latency", time.Since(start)),
				zap.Int("bytes", ww.BytesWritten()),
				zap.String("request_id", requestIDFrom(r.Context())),
			}

			switch {
			case status >= http.StatusInternalServerError:
				logger.Error("request handled", fields...)
			case status >= http.StatusBadRequest:
				logger.Warn("request handled", fields...)
			default:
				logger.Info("request handled", fields...)
			}
		})
	}
}
