package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/bootstrap"
	"github.com/spec-kit/helpdesk/internal/cache"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/directory"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := bootstrap.OpenDatabase(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := db.Migrate(); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	policy := lifecycle.NewPolicy(cfg.Helpdesk)
	store := db.Store

	var revoker auth.Revoker = auth.NewMemoryRevoker()
	categoryCache := cache.NewCategoryCache(nil, 0)
	if redis.Enabled() {
		revoker = auth.NewRedisRevoker(redis.Client)
		categoryCache = cache.NewCategoryCache(redis.Client, cfg.Redis.CategoryCacheTTL())
	}

	var forwarder *worker.Forwarder
	var sink service.EventSink
	if len(cfg.Notification.KafkaBrokers) > 0 {
		publisher := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers:      cfg.Notification.KafkaBrokers,
			Topic:        cfg.Notification.KafkaTopic,
			ClientID:     cfg.Notification.KafkaClientID,
			WriteTimeout: 5 * time.Second,
		})
		defer publisher.Close() //nolint:errcheck
		forwarder = worker.NewForwarder(publisher, worker.ForwarderConfig{
			Buffer:   cfg.Notification.QueueSize,
			Attempts: cfg.Notification.DeliveryAttempts,
		}, logger, metrics)
		forwarder.Start(ctx)
		sink = forwarder
		logger.Info("kafka event sink enabled", zap.Strings("brokers", cfg.Notification.KafkaBrokers))
	}

	dispatcher := events.NewInMemoryDispatcher()
	service.NewNotificationService(dispatcher, logger, cfg.Notification, sink).RegisterHandlers()

	providers := []directory.Provider{}
	if ldapProvider := directory.NewLDAPProvider(cfg.Directory); ldapProvider != nil {
		providers = append(providers, ldapProvider)
	}
	providers = append(providers, directory.NewLocalProvider(store.Repos().Users, cfg.Auth.BcryptCost))

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(service.AuthDependencies{
		Store:      store,
		Directory:  directory.NewChain(logger, providers...),
		Tokens:     tokens,
		Revoker:    revoker,
		Policy:     policy,
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		Policy:     policy,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	categoryService := service.NewCategoryService(store, categoryCache, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.App.RequestTimeout(),
		WriteTimeout: cfg.App.RequestTimeout(),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	health := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version,
		handlers.StoreCheck(db.Driver, store),
		handlers.SchemaCheck(db.SQL, db.Driver),
		handlers.RedisCheck(redis),
	)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         health,
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Technician:     handlers.NewTechnicianHandler(ticketService),
		Categories:     handlers.NewCategoriesHandler(categoryService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, revoker, store.Repos().Users),
		Policy:         policy,
		Gatherer:       registry,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.ShutdownWithTimeout(10 * time.Second)

	if forwarder != nil {
		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := forwarder.Stop(drainCtx); err != nil {
			logger.Warn("event backlog not drained", zap.Error(err))
		}
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
