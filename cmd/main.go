package main

import (
	"context"
	"fmt"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/knitworks/floortrack-backend/internal/config"
	"github.com/knitworks/floortrack-backend/internal/data/db"
	prodrepos "github.com/knitworks/floortrack-backend/internal/data/repos/production"
	"github.com/knitworks/floortrack-backend/internal/data/txn"
	"github.com/knitworks/floortrack-backend/internal/handlers"
	"github.com/knitworks/floortrack-backend/internal/middleware"
	"github.com/knitworks/floortrack-backend/internal/observability"
	"github.com/knitworks/floortrack-backend/internal/pkg/logger"
	"github.com/knitworks/floortrack-backend/internal/realtime"
	"github.com/knitworks/floortrack-backend/internal/realtime/bus"
	"github.com/knitworks/floortrack-backend/internal/server"
	"github.com/knitworks/floortrack-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	log.Info("Loading configuration from main...")
	cfg, err := config.Load(log)
	if err != nil {
		log.Error("Could not load configuration", "error", err)
		os.Exit(1)
	}

	// Tracing
	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "floortrack-backend",
		Environment: cfg.Env,
	})
	if shutdownOTel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOTel(ctx)
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(cfg.Postgres, log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()
	runner := txn.NewGormTxRunner(thePG)

	// Repos
	log.Info("Setting up Repos from main...")
	productRepo := prodrepos.NewProductRepo(thePG, log)
	orderRepo := prodrepos.NewOrderRepo(thePG, log)
	articleRepo := prodrepos.NewArticleRepo(thePG, log)
	floorEventRepo := prodrepos.NewFloorEventRepo(thePG, log)

	// SSE
	log.Info("Setting up SSE hub now...")
	sseHub := realtime.NewSSEHub(log)

	var sseBus bus.Bus
	var statsRedis *goredis.Client
	if cfg.Redis.Addr != "" {
		sseBus, err = bus.NewRedisBus(cfg.Redis, log)
		if err != nil {
			log.Warn("Could not init redis SSE bus; events stay process-local", "error", err)
		} else {
			if err := sseBus.StartForwarder(context.Background(), sseHub.Broadcast); err != nil {
				log.Warn("Could not start SSE forwarder", "error", err)
			}
			defer sseBus.Close()
		}
		statsRedis = goredis.NewClient(&goredis.Options{Addr: cfg.Redis.Addr, DialTimeout: 5 * time.Second})
		defer statsRedis.Close()
	} else {
		log.Warn("REDIS_ADDR not configured; SSE bus and stats cache disabled")
	}

	// Services
	log.Info("Setting up Services from main...")
	articleService := services.NewArticleService(log, runner, articleRepo, orderRepo, productRepo, floorEventRepo, sseBus)
	orderService := services.NewOrderService(log, runner, orderRepo, productRepo, articleRepo, articleService, sseBus)
	statsService := services.NewStatsService(log, articleRepo, orderRepo, productRepo, floorEventRepo, statsRedis, time.Duration(cfg.StatsCacheTTLSeconds)*time.Second)

	// Handlers
	log.Info("Setting up handlers from main...")
	articleHandler := handlers.NewArticleHandler(log, articleService)
	orderHandler := handlers.NewOrderHandler(log, orderService, articleService)
	statsHandler := handlers.NewStatsHandler(log, statsService)
	sseHandler := handlers.NewSSEHandler(log, sseHub)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, cfg.Auth.JWTSecretKey)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		Log:            log,
		AuthMiddleware: authMiddleware,
		ArticleHandler: articleHandler,
		OrderHandler:   orderHandler,
		StatsHandler:   statsHandler,
		SSEHandler:     sseHandler,
	})

	fmt.Printf("Server listening on :%s\n", cfg.HTTP.Port)
	if err := router.Run(":" + cfg.HTTP.Port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
