// File: loadly/main.go
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loadly/config"
	"loadly/cron"
	"loadly/database"
	snapshotRepo "loadly/database/repository/snapshot"
	"loadly/handlers"
	"loadly/middleware"
	"loadly/routes"
	"loadly/services/session"
	"loadly/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"golang.org/x/time/rate"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	cfg := config.AppConfig

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Session storage.
	var (
		newStore    middleware.StoreFactory
		redisClient *redis.Client
		registry    *session.MemoryRegistry
	)
	switch cfg.SessionStore {
	case "memory":
		registry = session.NewMemoryRegistry()
		newStore = registry.Open
		logger.Sugar().Warn("main: sessions are kept in memory and are lost on restart")
	default:
		redisClient = utils.GetSessionCacheClient()
		ttl := config.SessionTTL()
		newStore = func(sid string) session.Store {
			return session.NewRedisStore(redisClient, sid, ttl)
		}
	}

	// Dashboard snapshots.
	var snapshots snapshotRepo.SnapshotRepository
	if cfg.DatabaseURL != "" {
		database.InitDB()
		snapshots = snapshotRepo.NewMongoSnapshotRepo()
	} else {
		snapshots = snapshotRepo.NewMemorySnapshotRepo()
	}

	rps := cfg.BackendRPS
	if rps <= 0 {
		rps = 20
	}
	backend := handlers.Backend{
		BaseURL: cfg.BackendURL,
		Timeout: config.BackendTimeout(),
		Limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))
	router.Use(middleware.SessionMiddleware(newStore, cfg.SecureCookies))

	handlerBundle := handlers.NewHandlerBundle(backend, snapshots, config.DashboardRefreshInterval(), cfg.SecureCookies)
	routes.RegisterRoutes(router, handlerBundle, cfg.AllowedOrigins, cfg.SecureCookies)

	utils.StartHealthMonitor(rootCtx, utils.HealthTargets{
		BackendURL: cfg.BackendURL,
		Redis:      redisClient,
		Mongo:      database.MongoClient,
	}, 30*time.Second)

	housekeeping := cron.Housekeeping{
		Snapshots:    snapshots,
		KeepSnapshot: 500,
		SessionIdle:  config.SessionTTL(),
		Interval:     time.Hour,
		Logger:       logger,
	}
	if registry != nil {
		housekeeping.Sessions = registry
	}
	housekeeping.Start(rootCtx)

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
		// Request contexts end with rootCtx so open SSE streams close on shutdown.
		BaseContext: func(net.Listener) context.Context { return rootCtx },
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}
	if err := database.Disconnect(ctx); err != nil {
		logger.Sugar().Warnf("main: mongo disconnect: %v", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
