package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httptransport "github.com/estatepro/leadsync/internal/api/http"
	"github.com/estatepro/leadsync/internal/api/http/handlers"
	"github.com/estatepro/leadsync/internal/auth"
	"github.com/estatepro/leadsync/internal/collaborator"
	"github.com/estatepro/leadsync/internal/config"
	"github.com/estatepro/leadsync/internal/events"
	"github.com/estatepro/leadsync/internal/observability"
	"github.com/estatepro/leadsync/internal/persistence"
	"github.com/estatepro/leadsync/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	client := collaborator.NewClient(collaborator.Options{
		BaseURL:    cfg.Collaborator.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.Collaborator.Timeout()},
		MaxRetries: cfg.Collaborator.MaxRetries,
		BaseDelay:  time.Duration(cfg.Collaborator.RetryBaseMS) * time.Millisecond,
		MaxDelay:   time.Duration(cfg.Collaborator.RetryMaxMS) * time.Millisecond,
		Logger:     observability.Component(logger, "collaborator"),
		Metrics:    metrics,
	})

	var publisher *events.AMQPPublisher
	if cfg.AMQP.URL != "" {
		conn, err := events.Dial(cfg.AMQP.URL)
		if err != nil {
			logger.Warn("amqp unavailable, event fan-out disabled", zap.Error(err))
		} else {
			defer conn.Close()
			publisher, err = events.NewAMQPPublisher(conn.Ch, cfg.AMQP.Exchange, observability.Component(logger, "amqp"))
			if err != nil {
				logger.Warn("amqp exchange setup failed, event fan-out disabled", zap.Error(err))
			}
		}
	}

	registry := service.NewRegistry(ctx, service.RegistryDeps{
		Config:    cfg,
		Client:    client,
		Tokens:    redis.SessionTokens(),
		Inspector: auth.NewTokenManager(cfg.Auth.JWTSecret, 0),
		Publisher: publisher,
		Logger:    logger,
		Metrics:   metrics,
	})
	defer registry.Shutdown()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:            handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{"redis": redis}),
		Session:           handlers.NewSessionHandler(registry),
		Staff:             handlers.NewStaffHandler(),
		Leads:             handlers.NewLeadsHandler(),
		Notifications:     handlers.NewNotificationsHandler(),
		Activity:          handlers.NewActivityHandler(),
		SessionMiddleware: auth.NewSessionMiddleware(registry),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
