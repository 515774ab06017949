package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/pprofhandler"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/dealerhub/api/handler"
	"github.com/fastygo/dealerhub/internal/config"
	"github.com/fastygo/dealerhub/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/dealerhub/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/dealerhub/internal/infrastructure/redis"
	"github.com/fastygo/dealerhub/internal/metrics"
	"github.com/fastygo/dealerhub/internal/middleware"
	"github.com/fastygo/dealerhub/internal/router"
	"github.com/fastygo/dealerhub/internal/services/lifecycle"
	"github.com/fastygo/dealerhub/pkg/httpcontext"
	"github.com/fastygo/dealerhub/pkg/logger"
	"github.com/fastygo/dealerhub/pkg/security"
	"github.com/fastygo/dealerhub/repository/postgres"
	redisRepo "github.com/fastygo/dealerhub/repository/redis"
	"github.com/fastygo/dealerhub/usecase/access"
	authUC "github.com/fastygo/dealerhub/usecase/auth"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	db := pgInfra.OpenDB(pool)
	manager.Register("postgres", func(ctx context.Context) error {
		err := db.Close()
		pgInfra.Close(pool, zapLogger)
		return err
	})

	store := postgres.NewIdentityRepository(db)
	credentials := postgres.NewCredentialRepository(db)
	identities := store

	var redisPinger monitor.Pinger
	if cfg.Cache.IdentityTTL > 0 {
		redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.RegisterCloser("redis", redisClient)
		redisPinger = monitor.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		identities = redisRepo.NewIdentityCache(redisClient, store, postgres.NewAccessStateRepository(db), cfg.Cache.IdentityTTL, zapLogger)
		zapLogger.Info("identity cache enabled", zap.Duration("ttl", cfg.Cache.IdentityTTL))
	}

	mon := monitor.New(pool, redisPinger, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	codec, err := security.NewTokenCodec(cfg.JWT.Secret, cfg.JWT.Algorithm)
	if err != nil {
		zapLogger.Fatal("token codec setup failed", zap.Error(err))
	}
	hasher := security.NewPasswordHasher(cfg.Auth.PasswordHashCost)
	zapLogger.Info("auth configured",
		zap.String("jwt_algorithm", codec.Algorithm()),
		zap.Int("bcrypt_cost", hasher.Cost()),
		zap.Duration("access_ttl", cfg.JWT.AccessTTL),
		zap.Duration("refresh_ttl", cfg.JWT.RefreshTTL),
	)

	var appMetrics *metrics.Metrics
	if cfg.HTTP.EnableMetrics {
		appMetrics = metrics.New()
	}

	authUseCase := authUC.New(credentials, store, hasher, codec, authUC.Config{
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	}, zapLogger)
	guard := access.NewGuard(identities, codec, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)
	guards := router.NewGuards(middleware.NewAuth(guard, appMetrics, ctxAdapter, zapLogger))

	handlers := router.Handlers{
		Auth:   apiHandler.NewAuthHandler(authUseCase, apiHandler.CookieConfig{Secure: cfg.Auth.CookieSecure}, appMetrics, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}
	if appMetrics != nil {
		handlers.Metrics = appMetrics.Handler()
	}
	if cfg.HTTP.EnablePprof {
		handlers.Pprof = pprofhandler.PprofHandler
	}

	r := router.New(handlers, guards)

	server := &fasthttp.Server{
		Handler:      router.Handler(r, appMetrics, cfg.CORS.Origins),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()), zap.String("env", cfg.Environment))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
