package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/auth"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/bootstrap"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/config"
	httptransport "github.com/Lucasantunesribeiro/smart-finance-sub000/internal/http"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/http/handler"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/ratelimit"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/repository"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/server"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/telemetry"
	"github.com/Lucasantunesribeiro/smart-finance-sub000/internal/token"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newPGXPool,
			newUserRepository,
			newTokenRepository,
			newAccountRepository,
			newCategoryRepository,
			newBudgetRepository,
			newTransactionRepository,
			newAnalyticsRepository,
			newRateStore,
			newLimiters,
			token.NewService,
			newAuthenticator,
			newAuthHandler,
			handler.NewAccountHandler,
			handler.NewCategoryHandler,
			handler.NewBudgetHandler,
			handler.NewTransactionHandler,
			handler.NewAnalyticsHandler,
			newHandlers,
			newHTTPHandler,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, runMigrations, bootstrap.EnsureAdmin, startHTTPServer),
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
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
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

func newUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return repository.NewPostgresUserRepo(pool)
}

func newTokenRepository(pool *pgxpool.Pool) repository.TokenRepository {
	return repository.NewPostgresTokenRepo(pool)
}

func newAccountRepository(pool *pgxpool.Pool) repository.AccountRepository {
	return repository.NewPostgresAccountRepo(pool)
}

func newCategoryRepository(pool *pgxpool.Pool) repository.CategoryRepository {
	return repository.NewPostgresCategoryRepo(pool)
}

func newBudgetRepository(pool *pgxpool.Pool) repository.BudgetRepository {
	return repository.NewPostgresBudgetRepo(pool)
}

func newTransactionRepository(pool *pgxpool.Pool) repository.TransactionRepository {
	return repository.NewPostgresTransactionRepo(pool)
}

func newAnalyticsRepository(pool *pgxpool.Pool) repository.AnalyticsRepository {
	return repository.NewPostgresAnalyticsRepo(pool)
}

// newRateStore picks the counter backend for rate limiting. With REDIS_ADDR
// set the counters are shared across instances; otherwise an in-process store
// with a background sweeper is used.
func newRateStore(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (ratelimit.Store, error) {
	if cfg.RedisAddr == "" {
		store := ratelimit.NewMemoryStore(time.Minute, 2*cfg.RateLimitWindow)
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				store.Close()
				return nil
			},
		})
		return store, nil
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
	logger.Info("rate limit counters backed by redis", zap.String("addr", cfg.RedisAddr))
	return ratelimit.NewRedisStore(client, "ratelimit"), nil
}

// limiters bundles the three request budgets so fx can tell them apart.
type limiters struct {
	IP    *ratelimit.Limiter
	User  *ratelimit.Limiter
	Login *ratelimit.Limiter
}

func newLimiters(cfg config.Config, store ratelimit.Store) limiters {
	return limiters{
		IP:    ratelimit.New(store, cfg.RateLimitIPMax, cfg.RateLimitWindow),
		User:  ratelimit.New(store, cfg.RateLimitUserMax, cfg.RateLimitWindow),
		Login: ratelimit.New(store, cfg.RateLimitLoginMax, cfg.RateLimitWindow),
	}
}

func newAuthenticator(tokens *token.Service) *auth.Authenticator {
	return auth.New(tokens, httptransport.PublicPaths)
}

func newAuthHandler(users repository.UserRepository, tokens *token.Service, lims limiters, cfg config.Config, logger *zap.Logger) *handler.AuthHandler {
	return handler.NewAuthHandler(users, tokens, lims.Login, cfg, logger)
}

func newHandlers(
	authHandler *handler.AuthHandler,
	accounts *handler.AccountHandler,
	categories *handler.CategoryHandler,
	budgets *handler.BudgetHandler,
	transactions *handler.TransactionHandler,
	analytics *handler.AnalyticsHandler,
) httptransport.Handlers {
	return httptransport.Handlers{
		Auth:         authHandler,
		Accounts:     accounts,
		Categories:   categories,
		Budgets:      budgets,
		Transactions: transactions,
		Analytics:    analytics,
	}
}

func newHTTPHandler(cfg config.Config, h httptransport.Handlers, authn *auth.Authenticator, lims limiters, logger *zap.Logger) http.Handler {
	return httptransport.NewHandler(cfg, h, authn, lims.IP, lims.User, logger)
}

func runMigrations(lc fx.Lifecycle, pool *pgxpool.Pool, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := repository.Migrate(ctx, pool); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			logger.Info("database migrations applied")
			return nil
		},
	})
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
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
				if err := srv.Run(runCtx); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			logger.Info("http server listening", zap.String("port", cfg.HTTPPort))
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
