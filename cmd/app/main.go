package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "gift-store-backend/docs"
	"gift-store-backend/internal/common/cache"
	"gift-store-backend/internal/common/config"
	"gift-store-backend/internal/common/logger"
	"gift-store-backend/internal/common/middleware"
	adminHTTP "gift-store-backend/internal/features/admin/delivery/http"
	adminService "gift-store-backend/internal/features/admin/service"
	giftHTTP "gift-store-backend/internal/features/gift/delivery/http"
	giftRepo "gift-store-backend/internal/features/gift/repository/postgres"
	giftService "gift-store-backend/internal/features/gift/service"
	ledgerHTTP "gift-store-backend/internal/features/ledger/delivery/http"
	ledgerRepo "gift-store-backend/internal/features/ledger/repository/postgres"
	ledgerService "gift-store-backend/internal/features/ledger/service"
	paymentHTTP "gift-store-backend/internal/features/payment/delivery/http"
	paymentRepo "gift-store-backend/internal/features/payment/repository/redis"
	paymentService "gift-store-backend/internal/features/payment/service"
	statsHTTP "gift-store-backend/internal/features/stats/delivery/http"
	statsRepo "gift-store-backend/internal/features/stats/repository/postgres"
	statsService "gift-store-backend/internal/features/stats/service"
	userHTTP "gift-store-backend/internal/features/user/delivery/http"
	userRepo "gift-store-backend/internal/features/user/repository/postgres"
	userService "gift-store-backend/internal/features/user/service"
	"gift-store-backend/internal/platform/postgres"
	"gift-store-backend/internal/platform/redis"
	"gift-store-backend/internal/platform/telegram"
)

// @title           Gift Store API
// @version         1.0
// @description     Backend for the Telegram Mini App limited gifts store. Payments settle in Telegram Stars.

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey TelegramInitData
// @in header
// @name X-Telegram-Init-Data
// @description Telegram Mini App init data string

// @tag.name gifts
// @tag.description Store catalog

// @tag.name ledger
// @tag.description Holdings, purchases with balance, grants and transfers

// @tag.name payments
// @tag.description Telegram Stars invoices and the Bot API webhook

// @tag.name stats
// @tag.description Leaderboard

// @tag.name admin
// @tag.description Admin panel, requires the admin_session cookie

const serviceName = "gift-store-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.Debug, cfg.IsProduction())
	logger.Info().
		Str("env", cfg.Environment).
		Bool("debug", cfg.Debug).
		Msg("Starting Gift Store Backend")

	// Инициализируем базу данных
	postgresClient, err := postgres.NewClient(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer postgresClient.Close()

	if cfg.Postgres.AutoMigrate {
		if err := postgresClient.Migrate(); err != nil {
			logger.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	// Инициализируем Redis
	startCtx, cancelStart := context.WithTimeout(context.Background(), 10*time.Second)
	redisClient, err := redis.NewFromConfig(startCtx, cfg)
	cancelStart()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	cacheService := cache.NewCacheService(redisClient)

	// Репозитории
	db := postgresClient.DB()
	userRepository := userRepo.NewPostgresRepository(db)
	giftRepository := giftRepo.NewPostgresRepository(db)
	ledgerStore := ledgerRepo.NewPostgresStore(db)
	statsRepository := statsRepo.NewPostgresRepository(db)
	invoiceRegistry := paymentRepo.NewInvoiceRegistry(redisClient)

	// Сервисы
	userSvc := userService.NewUserService(userRepository)
	ledgerSvc := ledgerService.NewLedgerService(ledgerStore, cacheService)
	giftSvc := giftService.NewGiftService(giftRepository, cacheService, ledgerSvc, cfg.Cache.GiftsTTL)
	statsSvc := statsService.NewStatsService(statsRepository, cacheService, cfg.Cache.LeaderboardTTL)
	sessionSvc := adminService.NewSessionService(adminService.Credentials{
		Username: cfg.Admin.Username,
		Password: cfg.Admin.Password,
	})

	var paymentSvc paymentService.PaymentService
	if cfg.Telegram.BotToken != "" {
		tgClient, err := telegram.NewClient(cfg.Telegram.BotToken)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize Telegram client")
		}
		paymentSvc = paymentService.NewPaymentService(tgClient, invoiceRegistry, giftSvc, userSvc, ledgerSvc, paymentService.Options{
			StrictAmount: cfg.Payments.StrictAmount,
			InvoiceTTL:   cfg.Payments.InvoiceTTL,
		})
	} else {
		logger.Warn().Msg("BOT_TOKEN is empty, payment routes are disabled")
	}

	// Настраиваем Gin
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Accept", "init_data", middleware.HeaderInitData}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	api := router.Group("/api")
	tg := api.Group("", middleware.TelegramInitDataMiddleware(cfg.Telegram.BotToken, cfg.Telegram.InitDataTTL))
	buyer := tg.Group("", middleware.AutoCreateUser(userSvc))

	adminPublic := api.Group("/admin")
	admin := adminPublic.Group("", middleware.RequireAdmin(middleware.CookieAuthorizer{}))

	adminHTTP.NewSessionHandler(sessionSvc, cfg.Admin.SessionTTL, cfg.IsProduction()).RegisterRoutes(adminPublic)
	userHTTP.NewUserHandler(userSvc).RegisterRoutes(tg, admin)
	giftHTTP.NewGiftHandler(giftSvc).RegisterRoutes(api, admin)
	ledgerHTTP.NewLedgerHandler(ledgerSvc).RegisterRoutes(buyer, admin)
	statsHTTP.NewStatsHandler(statsSvc).RegisterRoutes(api, admin)
	if paymentSvc != nil {
		paymentHTTP.NewPaymentHandler(paymentSvc, cfg.Telegram.WebhookSecret).
			RegisterRoutes(api, middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	setupProbes(router, postgresClient, redisClient)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Ждем сигнала для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func setupProbes(router *gin.Engine, pg *postgres.Client, rdb *redis.Client) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})

	// Liveness probe
	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Readiness probe
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := pg.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "postgres unavailable",
				"details": err.Error(),
			})
			return
		}

		if err := rdb.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "redis unavailable",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})
}
