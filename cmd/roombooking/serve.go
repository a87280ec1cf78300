package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/example/roombooking/internal/application"
	"github.com/example/roombooking/internal/config"
	httptransport "github.com/example/roombooking/internal/http"
	"github.com/example/roombooking/internal/identity"
	"github.com/example/roombooking/internal/logging"
	"github.com/example/roombooking/internal/metrics"
	"github.com/example/roombooking/internal/persistence/docstore"
	"github.com/example/roombooking/internal/persistence/rediscache"
	"github.com/example/roombooking/internal/persistence/sqlstore"
	"github.com/example/roombooking/internal/storeadapter"
	"github.com/example/roombooking/internal/web"
)

const sessionPurgeInterval = 10 * time.Minute

// app is the assembled service graph.
type app struct {
	handler  http.Handler
	identity *identity.Service
	db       *sqlstore.DB
	redis    *redis.Client
}

func (a *app) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)

	svc, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to assemble service", "error", err)
		return err
	}
	defer func() {
		if cerr := svc.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	go purgeExpiredSessions(ctx, svc.identity, sessionPurgeInterval, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           svc.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("room booking service listening", "addr", server.Addr, "store", cfg.StoreDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		return err
	}
	return nil
}

func runMigrate(ctx context.Context, configPath, command string, args ...string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)

	db, err := sqlstore.Open(ctx, sqlstore.DefaultConfig(cfg.StoreDriver, cfg.StoreDSN()))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := db.RunGoose(ctx, command, args...); err != nil {
		return err
	}
	logger.Info("migration command finished", "command", command)
	return nil
}

// buildApp opens storage, applies migrations and wires services, HTTP
// handlers and HTML pages together.
func buildApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	db, err := sqlstore.Open(ctx, sqlstore.DefaultConfig(cfg.StoreDriver, cfg.StoreDSN()))
	if err != nil {
		return nil, err
	}
	result := &app{db: db}

	applied, err := db.Migrate(ctx)
	if err != nil {
		_ = result.Close()
		return nil, err
	}
	if len(applied) > 0 {
		logger.Info("database migrations applied", "count", len(applied), "migrations", applied)
	}

	profiles, err := buildProfileCache(ctx, cfg, result)
	if err != nil {
		_ = result.Close()
		return nil, err
	}

	now := time.Now
	store := docstore.NewRepository(sqlstore.NewDocumentStore(db))
	userRepo := storeadapter.NewUserRepository(store)
	roomRepo := storeadapter.NewRoomRepository(store)
	bookingRepo := storeadapter.NewBookingRepository(store)

	identityService := identity.NewService(sqlstore.NewCredentialRepository(db), sqlstore.NewSessionRepository(db), identity.Options{
		Secret:      cfg.SessionSecret,
		SessionTTL:  cfg.SessionTTL,
		IDGenerator: uuid.NewString,
		Now:         now,
		Logger:      logger,
	})
	result.identity = identityService

	userService := application.NewUserServiceWithLogger(userRepo, now, logger)
	gateway := application.NewIdentityGateway(identityService, userService, profiles, logger)
	bookingService := application.NewBookingServiceWithLogger(bookingRepo, roomRepo, userRepo, uuid.NewString, now, logger)
	roomService := application.NewRoomServiceWithLogger(roomRepo, bookingService, uuid.NewString, now, logger).
		WithCascadeObserver(metrics.CascadeRecorder{})

	pages, err := web.NewServer(gateway, roomService, bookingService, userService, web.Options{
		RedirectDelay: cfg.RedirectDelay,
		Location:      cfg.Location(),
		Now:           now,
		Logger:        logger,
	})
	if err != nil {
		_ = result.Close()
		return nil, fmt.Errorf("parse page templates: %w", err)
	}

	result.handler = httptransport.NewRouter(httptransport.RouterConfig{
		Auth:           httptransport.NewAuthHandler(gateway, logger),
		Events:         httptransport.NewEventsHandler(gateway, logger),
		Users:          httptransport.NewUserHandler(userService, logger),
		Rooms:          httptransport.NewRoomHandler(roomService, logger),
		Bookings:       httptransport.NewBookingHandler(bookingService, logger),
		RequireSession: httptransport.RequireSession(gateway, logger),
		Metrics:        metrics.Handler(),
		Fallback:       pages.Handler(),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.Metrics(),
		},
	})
	return result, nil
}

// buildProfileCache returns a Redis backed cache when an address is
// configured and an in-process cache otherwise.
func buildProfileCache(ctx context.Context, cfg config.Config, result *app) (application.ProfileCache, error) {
	if cfg.RedisAddr == "" {
		return application.NewMemoryProfileCache(cfg.ProfileCacheTTL, 0, time.Now), nil
	}
	client, err := rediscache.NewClient(ctx, rediscache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, err
	}
	result.redis = client
	return storeadapter.NewProfileCache(rediscache.NewProfileCache(client, cfg.ProfileCacheTTL)), nil
}

type sessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) error
}

func purgeExpiredSessions(ctx context.Context, purger sessionPurger, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := purger.PurgeExpiredSessions(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("failed to purge expired sessions", "error", err)
			}
		}
	}
}
