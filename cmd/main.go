package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oskporuba/club-backend/config"
	"github.com/oskporuba/club-backend/db"
	"github.com/oskporuba/club-backend/handlers"
	"github.com/oskporuba/club-backend/live"
	"github.com/oskporuba/club-backend/middleware"
	"github.com/oskporuba/club-backend/repositories"
	api "github.com/oskporuba/club-backend/routes"
	"github.com/oskporuba/club-backend/services"
	"github.com/oskporuba/club-backend/storage"
)

const (
	schedulerInterval = 30 * time.Second
	sessionTokenTTL   = 7 * 24 * time.Hour
	shutdownTimeout   = 15 * time.Second
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	// Every repository query goes through the retrying decorator.
	querier := db.NewRetrying(dbConn, logger)

	caps, err := db.DetectSchemaCapabilities(context.Background(), querier)
	if err != nil {
		logger.Error("failed to detect schema capabilities", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("schema capabilities detected",
		slog.Bool("users_email", caps.HasUserEmail),
		slog.Bool("users_shirt_number", caps.HasUserShirtNumber),
	)

	var uploader storage.FileUploader
	if cfg.R2.AccountID != "" {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 storage not configured, blog cover uploads disabled")
	}

	wsHub := live.NewHub(logger)
	go wsHub.Run()
	logger.Info("websocket hub started")

	userRepo := repositories.NewPostgresUserRepository(querier, caps)
	trainingRepo := repositories.NewPostgresTrainingRepository(querier)
	pollRepo := repositories.NewPostgresPollRepository(querier)
	announcementRepo := repositories.NewPostgresAnnouncementRepository(querier)
	blogRepo := repositories.NewPostgresBlogRepository(querier)
	auditRepo := repositories.NewPostgresAuditRepository(querier)
	logger.Info("repositories initialized")

	emailService := services.NewEmailService(cfg)
	auditService := services.NewAuditService(auditRepo, logger)
	authService := services.NewAuthService(userRepo, auditService)
	userService := services.NewUserService(userRepo, auditService, emailService, logger)
	trainingService := services.NewTrainingService(trainingRepo, userRepo, auditService, wsHub, logger)
	pollService := services.NewPollService(pollRepo, auditService, wsHub)
	announcementService := services.NewAnnouncementService(announcementRepo, userRepo, auditService, emailService, logger)
	blogService := services.NewBlogService(blogRepo, uploader, auditService)
	sportsnetService := services.NewSportsnetService(cfg.Sportsnet, logger)
	logger.Info("services initialized")

	// Training sessions past their end are closed by this sweep; polls close
	// lazily on read and need no scheduler.
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("training auto-close scheduler started", slog.Duration("interval", schedulerInterval))

		if err := trainingService.AutoCloseElapsed(context.Background()); err != nil {
			logger.Error("scheduler: initial sweep failed", slog.Any("error", err))
		}
		for range ticker.C {
			if err := trainingService.AutoCloseElapsed(context.Background()); err != nil {
				logger.Error("scheduler: periodic sweep failed", slog.Any("error", err))
			}
		}
	}()

	authenticator := middleware.NewAuthenticator(cfg.JWTSecretKey, cfg.CookieName, sessionTokenTTL)
	csrfGuard := middleware.NewCSRFGuard(cfg.CSRFProtection, cfg.CookieSecure)

	routeHandlers := api.Handlers{
		Auth:          handlers.NewAuthHandler(authService, authenticator, cfg.CookieSecure),
		Users:         handlers.NewUserHandler(userService),
		Players:       handlers.NewPlayerHandler(userService),
		Trainings:     handlers.NewTrainingHandler(trainingService),
		Polls:         handlers.NewPollHandler(pollService),
		Announcements: handlers.NewAnnouncementHandler(announcementService),
		Blog:          handlers.NewBlogHandler(blogService),
		Sportsnet:     handlers.NewSportsnetHandler(sportsnetService),
		System:        handlers.NewSystemHandler(csrfGuard),
		WebSocket:     handlers.NewWebSocketHandler(wsHub, cfg.FrontendOrigins, logger),
	}
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(router, cfg.FrontendOrigins, authenticator, csrfGuard, routeHandlers)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		}
		logger.Info("server shut down gracefully")
	}
}
