package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/skill-swap/skillswap/internal/api/http"
	"github.com/skill-swap/skillswap/internal/api/http/handlers"
	"github.com/skill-swap/skillswap/internal/auth"
	"github.com/skill-swap/skillswap/internal/config"
	"github.com/skill-swap/skillswap/internal/events"
	"github.com/skill-swap/skillswap/internal/location"
	"github.com/skill-swap/skillswap/internal/observability"
	"github.com/skill-swap/skillswap/internal/persistence"
	"github.com/skill-swap/skillswap/internal/repository"
	"github.com/skill-swap/skillswap/internal/service"
	"github.com/skill-swap/skillswap/internal/storage"
	"github.com/skill-swap/skillswap/internal/worker"
)

func serve(parent context.Context, cfg *config.Config, logger *zap.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	pg, err := connectPostgres(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			return err
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewAccountTokenRepository(pool)
	requestRepo := repository.NewSwapRequestRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	announcementRepo := repository.NewAnnouncementRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(dispatcher, logger.Named("notifications"), cfg.Notification)
	notifier := worker.StartNotificationWorker(ctx, notifications, logger.Named("notifier"), 256, 2)
	defer notifier.Stop()

	resolver := location.NewResolver(cfg.Location, redis.Client, logger.Named("location"))
	lockout := service.NewLockoutService(repository.NewLockoutStore(redis.Client), cfg.Lockout, logger.Named("lockout"))

	var google service.GoogleAuthenticator
	if cfg.OAuth.Enabled() {
		google = auth.NewGoogleProvider(cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, cfg.OAuth.GoogleRedirectURL)
	}

	var objects storage.ObjectStore
	if cfg.ObjectStore.Bucket != "" {
		s3, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return err
		}
		objects = s3
	} else {
		logger.Warn("OBJECT_STORE_BUCKET not set; avatar uploads disabled")
	}

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:         userRepo,
		AccountTokenRepo: tokenRepo,
		Lockout:          lockout,
		Locator:          resolver,
		Google:           google,
		Dispatcher:       dispatcher,
		Logger:           logger.Named("auth"),
	})
	profileService := service.NewProfileService(userRepo, objects, resolver, cfg.Media, logger.Named("profiles"))
	swapService := service.NewSwapService(requestRepo, userRepo, dispatcher, logger.Named("swaps"))
	messageService := service.NewMessageService(messageRepo, userRepo, dispatcher, logger.Named("messages"))
	adminService := service.NewAdminService(service.AdminDependencies{
		UserRepo:         userRepo,
		SwapRequestRepo:  requestRepo,
		AnnouncementRepo: announcementRepo,
		Dispatcher:       dispatcher,
		Logger:           logger.Named("admin"),
	})

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.App.BodyLimitBytes,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	development := cfg.App.Env == "development"
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Auth:           handlers.NewAuthHandler(authService, development),
		Profiles:       handlers.NewProfileHandler(profileService),
		Requests:       handlers.NewRequestsHandler(swapService),
		Messages:       handlers.NewMessagesHandler(messageService),
		Location:       handlers.NewLocationHandler(resolver),
		Admin:          handlers.NewAdminHandler(adminService, swapService, lockout),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), userRepo),
		AuthLimiter:    httptransport.NewIPRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst, cfg.RateLimit.TTL),
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		errCh <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-waitForShutdown():
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}
	return app.ShutdownWithTimeout(10 * time.Second)
}

func waitForShutdown() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}
