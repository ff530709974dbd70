package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/potensiadev/onesns.ai-sub001/internal/adapter/lock"
	"github.com/potensiadev/onesns.ai-sub001/internal/adapter/meta"
	"github.com/potensiadev/onesns.ai-sub001/internal/bootstrap"
	"github.com/potensiadev/onesns.ai-sub001/internal/config"
	httptransport "github.com/potensiadev/onesns.ai-sub001/internal/http"
	"github.com/potensiadev/onesns.ai-sub001/internal/http/handler"
	"github.com/potensiadev/onesns.ai-sub001/internal/provider"
	"github.com/potensiadev/onesns.ai-sub001/internal/repository"
	"github.com/potensiadev/onesns.ai-sub001/internal/secrets"
	"github.com/potensiadev/onesns.ai-sub001/internal/server"
	"github.com/potensiadev/onesns.ai-sub001/internal/service/connect"
	"github.com/potensiadev/onesns.ai-sub001/internal/service/refresh"
	"github.com/potensiadev/onesns.ai-sub001/internal/telemetry"
	"github.com/potensiadev/onesns.ai-sub001/internal/token"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newPGXPool,
			newAccountRepository,
			newSweepLocker,
			newTokenCodec,
			provider.NewRegistry,
			newMetaClient,
			newSessionVerifier,
			connect.NewService,
			newSweeper,
			newScheduler,
			handler.NewConnectHandler,
			newInternalHandler,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, bootstrap.EnsureSchema, startSweepScheduler, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	tel, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return tel.Shutdown(stopCtx)
		},
	})

	return tel, nil
}

func newSnowflake() (*snowflake.Node, error) {
	node, err := snowflake.NewNode(1)
	return node, err
}

func newPGXPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newAccountRepository(pool *pgxpool.Pool) repository.AccountRepository {
	return repository.NewPostgresAccountRepo(pool)
}

// newSweepLocker prefers a Redis-backed lock so only one replica sweeps at a
// time. Without REDIS_ADDR the lock degrades to a local no-op, which is fine
// for single-instance deployments.
func newSweepLocker(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (lock.Locker, error) {
	if cfg.RedisAddr == "" {
		logger.Info("redis disabled, sweep lock is process-local")
		return lock.NewNoopLocker(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return lock.NewRedisLocker(client), nil
}

func newTokenCodec(cfg config.Config) (secrets.Codec, error) {
	return secrets.NewAESCodec(cfg.TokenCipherKey)
}

func newMetaClient(cfg config.Config) meta.Client {
	return meta.NewGraphClient(nil, cfg.ProviderRateRPS)
}

func newSessionVerifier(cfg config.Config) (*token.Verifier, error) {
	return token.NewVerifier(cfg.SessionJWTSecret)
}

func newSweeper(
	accounts repository.AccountRepository,
	client meta.Client,
	registry *provider.Registry,
	codec secrets.Codec,
	locker lock.Locker,
	cfg config.Config,
	logger *zap.Logger,
) *refresh.Sweeper {
	return refresh.NewSweeper(accounts, client, registry, codec, locker, cfg.SweepWindow, cfg.SweepConcurrency, logger)
}

func newScheduler(sweeper *refresh.Sweeper, cfg config.Config, logger *zap.Logger) *refresh.Scheduler {
	return refresh.NewScheduler(sweeper, cfg.SweepInterval, logger)
}

func newInternalHandler(sweeper *refresh.Sweeper, logger *zap.Logger) *handler.InternalHandler {
	return handler.NewInternalHandler(sweeper, logger)
}

func startSweepScheduler(lc fx.Lifecycle, scheduler *refresh.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			scheduler.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			scheduler.Stop()
			return nil
		},
	})
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
