// Command notifyd serves the insurance dashboard notification surfaces for
// the signed-in identity, fed by Redis push channels and the REST API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/insurdash/dashboard/pkg/config"
	"github.com/insurdash/dashboard/pkg/httpserver"
	"github.com/insurdash/dashboard/pkg/logger"
	"github.com/insurdash/dashboard/pkg/notifyapi"
	"github.com/insurdash/dashboard/pkg/push"
	"github.com/insurdash/dashboard/pkg/redis"
	"github.com/insurdash/dashboard/pkg/session"
	"github.com/insurdash/dashboard/pkg/surface"
)

const serviceName = "notifyd"

func main() {
	os.Exit(run())
}

func run() int {
	if err := config.LoadEnv(); err != nil {
		slog.Error("failed to load .env", logger.Error(err))
		return 1
	}

	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		slog.Error("invalid configuration", logger.Error(err))
		return 2
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, serviceName),
		logger.WithContextExtractors(surface.RequestIDExtractor()),
	)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, log); err != nil {
		log.LogAttrs(ctx, slog.LevelError, "notifyd stopped with error", logger.Error(err))
		return 1
	}
	return 0
}

func serve(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	api, err := notifyapi.NewClient(cfg.API, notifyapi.WithLogger(log.With(logger.Component("notifyapi"))))
	if err != nil {
		return err
	}

	sessionOpts := []session.Option{
		session.WithBackend(session.APIBackend(api)),
		session.WithLogger(log),
	}
	var surfaceOpts []surface.Option

	if cfg.PushEnabled {
		rdb, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			log.LogAttrs(ctx, slog.LevelWarn, "push transport unavailable, running pull-only",
				logger.Error(errors.Join(push.ErrTransportUnavailable, err)))
		} else {
			defer func() { _ = rdb.Close() }()
			sessionOpts = append(sessionOpts, session.WithSource(push.NewRedisSource(rdb)))
			surfaceOpts = append(surfaceOpts, surface.WithHealthCheck("redis", redis.Healthcheck(rdb)))
		}
	}

	mgr := session.NewManager(cfg.Session, sessionOpts...)
	defer func() {
		if err := mgr.Close(); err != nil {
			log.LogAttrs(context.Background(), slog.LevelWarn, "session teardown failed", logger.Error(err))
		}
	}()

	if cfg.UserID != "" {
		id := session.Identity{UserID: cfg.UserID, Role: cfg.Role, Token: cfg.Token}
		if _, err := mgr.Switch(ctx, id); err != nil {
			return err
		}
	}

	handler := surface.New(mgr, append(surfaceOpts, surface.WithLogger(log.With(logger.Component("surface"))))...)
	srv := httpserver.New(cfg.HTTP, httpserver.WithLogger(log))
	return srv.Run(ctx, handler.Routes())
}
