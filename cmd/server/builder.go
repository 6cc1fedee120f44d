package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/solarity-seb/solarity-acres-courses/config"
	"github.com/solarity-seb/solarity-acres-courses/internal/application"
	"github.com/solarity-seb/solarity-acres-courses/internal/domain/session"
	"github.com/solarity-seb/solarity-acres-courses/internal/infrastructure/cache/redis"
	"github.com/solarity-seb/solarity-acres-courses/internal/infrastructure/memstore"
	apphttp "github.com/solarity-seb/solarity-acres-courses/internal/interfaces/http"
	"github.com/solarity-seb/solarity-acres-courses/internal/interfaces/http/handlers"
	"github.com/solarity-seb/solarity-acres-courses/internal/ratelimit"
	"github.com/solarity-seb/solarity-acres-courses/pkg/logger"
)

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, logWriter, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting identity service...",
		logger.Component("main"),
	)

	sessions, redisClient, err := initSessionStore(cfg, log)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	deps, err := application.NewDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	svcs := application.NewServices(sessions, deps, cfg, log)

	limiter := ratelimit.NewLimiter(ratelimit.DefaultClasses())
	limiter.StartSweeper(cfg.RateLimit.SweepInterval, ctx.Done())
	startSessionSweeper(ctx, sessions, cfg.Session.SweepInterval, log)

	if logWriter != nil {
		logWriter.StartCleanupJob(ctx)
		log.Info("Log cleanup job started",
			logger.Component("main"),
			logger.Int("retention_days", cfg.Logging.RetentionDays),
		)
	}

	server := newServer(cfg, svcs, sessions, limiter, redisClient, log)
	return startServer(server, log)
}

func initLogger(cfg *config.Config) (logger.Logger, *logger.SQLiteWriter, error) {
	logCfg := logger.Config{
		Level:           cfg.Logging.Level,
		Environment:     cfg.Logging.Environment,
		EnableConsole:   true,
		EnableSQLite:    cfg.Logging.DBEnabled,
		SQLiteDBPath:    cfg.Logging.DBPath,
		AsyncBufferSize: cfg.Logging.AsyncBufferSize,
		RetentionDays:   cfg.Logging.RetentionDays,
		FlushInterval:   100 * time.Millisecond,
		BatchSize:       100,
	}

	var writer *logger.SQLiteWriter
	var err error

	if logCfg.EnableSQLite {
		writer, err = logger.NewSQLiteWriter(logCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create SQLite log writer: %w", err)
		}
	}

	log, err := logger.New(logCfg, writer)
	if err != nil {
		if writer != nil {
			writer.Close()
		}
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, writer, nil
}

// initSessionStore picks the session backend. A single instance runs fine on
// the in-memory store; Redis shares sessions between replicas.
func initSessionStore(cfg *config.Config, log logger.Logger) (session.Store, *redis.Client, error) {
	if cfg.Session.StoreBackend != "redis" {
		log.Info("Using in-memory session store",
			logger.Component("infrastructure"),
			logger.Duration("ttl", cfg.Session.Duration),
		)
		return memstore.NewSessionStore(cfg.Session.Duration), nil, nil
	}

	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info("Connected to Redis",
		logger.Component("infrastructure"),
		logger.String("host", cfg.Redis.Host),
		logger.Int("port", cfg.Redis.Port),
	)

	return redis.NewSessionStore(redisClient, cfg.Session.Duration), redisClient, nil
}

func startSessionSweeper(ctx context.Context, sessions session.Store, interval time.Duration, log logger.Logger) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := sessions.Sweep(ctx); err != nil {
					log.Warn("Session sweep failed",
						logger.Component("infrastructure"),
						logger.Error(err),
					)
				}
			}
		}
	}()
}

func newServer(
	cfg *config.Config,
	svcs *application.Services,
	sessions session.Store,
	limiter *ratelimit.Limiter,
	redisClient *redis.Client,
	log logger.Logger,
) *http.Server {
	var redisHealth handlers.HealthChecker
	if redisClient != nil {
		redisHealth = redisClient
	}

	routerDeps := &apphttp.RouterDeps{
		AuthService:       svcs.Auth,
		FederationService: svcs.Federation,
		Sessions:          sessions,
		Limiter:           limiter,
		Logger:            log,
		RedisHealth:       redisHealth,
	}

	router := apphttp.NewRouter(cfg, routerDeps)

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

func startServer(server *http.Server, log logger.Logger) error {
	errChan := make(chan error, 1)
	go func() {
		log.Info("Server listening",
			logger.Component("server"),
			logger.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Info("Shutting down server...",
			logger.Component("server"),
			logger.String("signal", sig.String()),
		)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exited", logger.Component("server"))
	return nil
}
