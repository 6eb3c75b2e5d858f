package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-backoffice/internal/client"
	"github.com/spec-kit/restaurant-backoffice/internal/config"
	"github.com/spec-kit/restaurant-backoffice/internal/notify"
	"github.com/spec-kit/restaurant-backoffice/internal/observability"
	"github.com/spec-kit/restaurant-backoffice/internal/persistence"
	"github.com/spec-kit/restaurant-backoffice/internal/realtime"
	"github.com/spec-kit/restaurant-backoffice/internal/session"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var storage session.Storage
	switch cfg.Session.Backend {
	case "redis":
		redis := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		storage = session.NewRedisStorage(redis.Client, cfg.Session.KeyPrefix, cfg.Console.Username, cfg.Session.TTL())
	default:
		storage = session.NewMemoryStorage(cfg.Session.TTL())
	}

	metrics := observability.NewMetrics()
	notifier := notify.NewLogNotifier(logger)
	store := session.NewStore(storage, logger)

	api := client.New(store, logger, client.Options{
		BaseURL:  cfg.API.BaseURL,
		Timeout:  cfg.API.RequestTimeout(),
		Notifier: notifier,
		Metrics:  metrics,
	})

	endpoint, err := realtime.EndpointURL(cfg.API.BaseURL, cfg.Realtime.Path)
	if err != nil {
		logger.Fatal("invalid realtime endpoint", zap.Error(err))
	}
	channel := realtime.New(logger, realtime.Options{
		Endpoint:             endpoint,
		ReconnectDelay:       cfg.Realtime.ReconnectDelay(),
		MaxReconnectAttempts: cfg.Realtime.MaxReconnectAttempts,
		Heartbeat:            cfg.Realtime.Heartbeat(),
		Notifier:             notifier,
		Metrics:              metrics,
	})

	c := newConsole(cfg, logger, store, api, channel)
	defer c.logout()

	unsubscribe := api.Subscribe(client.ObserverFuncs{
		AuthExpired: c.sessionExpired,
		Forbidden: func() {
			logger.Warn("request forbidden for current role")
		},
	})
	defer unsubscribe()

	if err := c.signIn(ctx); err != nil {
		logger.Error("sign in failed", zap.Error(err))
		return
	}
	c.open(ctx)

	<-ctx.Done()
	logger.Info("shutting down")
}
