package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/marketpaper/quote-api/internal/config"
	"github.com/marketpaper/quote-api/internal/database"
	"github.com/marketpaper/quote-api/internal/http/handler"
	"github.com/marketpaper/quote-api/internal/http/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	db             *gorm.DB
	rateLimiter    *middleware.RateLimiter
	quoteHandler   *handler.QuoteHandler
	dealHandler    *handler.DealHandler
	contactHandler *handler.ContactHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	rateLimiter *middleware.RateLimiter,
	quoteHandler *handler.QuoteHandler,
	dealHandler *handler.DealHandler,
	contactHandler *handler.ContactHandler,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		rateLimiter:    rateLimiter,
		quoteHandler:   quoteHandler,
		dealHandler:    dealHandler,
		contactHandler: contactHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
			},
		})
	})

	// Combined readiness check
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		status := "healthy"
		code := http.StatusOK
		if !allHealthy {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": status,
			"checks": checks,
		})
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Quotes
		r.Route("/quotes", func(r chi.Router) {
			r.Get("/", rt.quoteHandler.List)
			r.Post("/", rt.quoteHandler.Create)
			r.Get("/{id}", rt.quoteHandler.Get)
			r.Put("/{id}", rt.quoteHandler.Update)
			r.Delete("/{id}", rt.quoteHandler.Delete)
			r.Post("/{id}/recalculate", rt.quoteHandler.Recalculate)
		})

		// Deals
		r.Route("/deals", func(r chi.Router) {
			r.Get("/", rt.dealHandler.List)
			r.Get("/{id}/associations", rt.dealHandler.Associations)
			r.Post("/{id}/associations", rt.dealHandler.RepairAssociations)
			r.Post("/{id}/publish", rt.dealHandler.Publish)
			r.Post("/{id}/duplicate", rt.dealHandler.Duplicate)
			r.Get("/{id}/chat-link", rt.dealHandler.ChatLink)
			r.Post("/{id}/send-quote", rt.dealHandler.SendQuote)
		})

		// Contacts
		r.Patch("/contacts/{id}", rt.contactHandler.Update)

		// Maintenance
		r.Post("/admin/recalculate-areas", rt.dealHandler.RecalculateAreas)
	})

	return r
}
