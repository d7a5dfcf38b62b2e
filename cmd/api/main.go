package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marketpaper/quote-api/internal/chat"
	"github.com/marketpaper/quote-api/internal/config"
	"github.com/marketpaper/quote-api/internal/crm"
	"github.com/marketpaper/quote-api/internal/database"
	"github.com/marketpaper/quote-api/internal/http/handler"
	"github.com/marketpaper/quote-api/internal/http/middleware"
	"github.com/marketpaper/quote-api/internal/http/router"
	"github.com/marketpaper/quote-api/internal/logger"
	"github.com/marketpaper/quote-api/internal/repository"
	"github.com/marketpaper/quote-api/internal/service"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
		zap.Int("port", cfg.App.Port),
	)

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Remote CRM store
	crmClient := crm.NewClient(cfg.CRM.BaseURL, cfg.CRM.Token, cfg.CRM.RequestTimeoutDuration(), log)
	if cfg.CRM.Token == "" {
		log.Warn("CRM token not configured; remote operations will be rejected upstream")
	}

	// Chat webhook (optional)
	notifier := chat.NewNotifier(cfg.Chat.WebhookURL, cfg.Chat.RequestTimeoutDuration(), log)
	if cfg.Chat.WebhookURL == "" {
		log.Info("Chat webhook not configured; send-quote is disabled")
	}

	// Repositories
	quoteRepo := repository.NewQuoteRepository(db)

	// Services
	quoteService := service.NewQuoteService(quoteRepo, log)
	associationService := service.NewAssociationService(crmClient, log)
	syncService := service.NewSyncService(crmClient, cfg.CRM.PurgeConcurrency, log)
	publishService := service.NewPublishService(quoteRepo, crmClient, syncService, cfg.CRM, log)
	dealService := service.NewDealService(crmClient, associationService, notifier, cfg.CRM, log)
	contactService := service.NewContactService(crmClient, log)

	// Middleware
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Handlers
	quoteHandler := handler.NewQuoteHandler(quoteService, log)
	dealHandler := handler.NewDealHandler(dealService, publishService, associationService, log)
	contactHandler := handler.NewContactHandler(contactService, log)

	rt := router.NewRouter(
		cfg,
		log,
		db,
		rateLimiter,
		quoteHandler,
		dealHandler,
		contactHandler,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
