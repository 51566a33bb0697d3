package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	integrationapp "github.com/remitdesk/backend/internal/application/integration"
	ledgerapp "github.com/remitdesk/backend/internal/application/ledger"
	scheduleapp "github.com/remitdesk/backend/internal/application/schedule"
	"github.com/remitdesk/backend/internal/domain/ledger"
	"github.com/remitdesk/backend/internal/infrastructure/bank"
	"github.com/remitdesk/backend/internal/infrastructure/cache"
	"github.com/remitdesk/backend/internal/infrastructure/config"
	"github.com/remitdesk/backend/internal/infrastructure/exchange"
	"github.com/remitdesk/backend/internal/infrastructure/logger"
	"github.com/remitdesk/backend/internal/infrastructure/persistence"
	"github.com/remitdesk/backend/internal/infrastructure/scheduler"
	"github.com/remitdesk/backend/internal/infrastructure/tron"
	"github.com/remitdesk/backend/internal/interfaces/http/handler"
	"github.com/remitdesk/backend/internal/interfaces/http/middleware"
	"github.com/remitdesk/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting RemitDesk backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database with zap-backed gorm logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	bankTxRepo := persistence.NewGormBankTransactionRepository(db.DB)
	exchangeTxRepo := persistence.NewGormExchangeTransactionRepository(db.DB)
	cursorRepo := persistence.NewGormSyncCursorRepository(db.DB)
	broadcastRepo := persistence.NewGormBroadcastScheduleRepository(db.DB)
	withdrawalRepo := persistence.NewGormWithdrawalScheduleRepository(db.DB)
	uow := persistence.NewGormUnitOfWork(db)

	recalculator := ledger.NewRecalculator(log)

	// Partner token cache: Redis when configured, in-process otherwise
	var tokens cache.TokenCache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisTokenCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		tokens = redisCache
		log.Info("Using Redis token cache", zap.String("addr", cfg.Redis.Addr()))
	} else {
		tokens = cache.NewMemoryTokenCache()
	}

	// Partner API clients
	bankClient, err := bank.NewClient(&bank.Config{
		BaseURL:      cfg.Bank.BaseURL,
		TokenURL:     cfg.Bank.TokenURL,
		ClientID:     cfg.Bank.ClientID,
		ClientSecret: cfg.Bank.ClientSecret,
		Scope:        cfg.Bank.Scope,
		Account:      cfg.Bank.Account,
		CertFile:     cfg.Bank.CertFile,
		KeyFile:      cfg.Bank.KeyFile,
		Timeout:      cfg.Bank.Timeout,
	}, tokens, log)
	if err != nil {
		log.Fatal("Failed to create bank client", zap.Error(err))
	}

	exchangeClient, err := exchange.NewClient(&exchange.Config{
		BaseURL:  cfg.Exchange.BaseURL,
		APIKey:   cfg.Exchange.APIKey,
		APIToken: cfg.Exchange.APIToken,
		Timeout:  cfg.Exchange.Timeout,
	}, tokens, log)
	if err != nil {
		log.Fatal("Failed to create exchange client", zap.Error(err))
	}
	exchangeGateway := exchange.NewGateway(exchangeClient)

	tronClient, err := tron.NewClient(&tron.Config{
		BaseURL:         cfg.Tron.BaseURL,
		APIKey:          cfg.Tron.APIKey,
		ContractAddress: cfg.Tron.ContractAddress,
		Timeout:         cfg.Tron.Timeout,
	}, log)
	if err != nil {
		log.Fatal("Failed to create tron client", zap.Error(err))
	}
	tronGateway := tron.NewGateway(tronClient)

	// Application services
	invoiceService := ledgerapp.NewInvoiceService(uow, invoiceRepo, recalculator, log)
	syncService := integrationapp.NewBankSyncService(
		bankClient, bankTxRepo, cursorRepo, uow, recalculator,
		cfg.Sync.WindowDays, cfg.Sync.IngestLedger, log,
	)
	exchangeSyncService := integrationapp.NewExchangeSyncService(
		exchangeGateway, exchangeTxRepo, cursorRepo, cfg.Sync.WindowDays, log,
	)
	usdtService := integrationapp.NewUSDTService(tronGateway, cursorRepo, log)
	broadcastService := scheduleapp.NewBroadcastService(broadcastRepo, log)
	withdrawalService := scheduleapp.NewWithdrawalService(withdrawalRepo, log)

	// Background jobs
	sched := scheduler.NewScheduler(scheduler.Config{
		MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
		JobTimeout:        cfg.Scheduler.JobTimeout,
		RetryAttempts:     cfg.Scheduler.RetryAttempts,
		RetryDelay:        cfg.Scheduler.RetryDelay,
	}, log)

	broadcastRunner := scheduleapp.NewBroadcastRunner(broadcastRepo, scheduleapp.NewLogMessenger(log), log)
	withdrawalRunner := scheduleapp.NewWithdrawalRunner(withdrawalRepo, exchangeGateway, log)
	syncRunner := integrationapp.NewSyncRunner(cfg.Sync.Interval, log, syncService, exchangeSyncService)

	sched.Register(scheduler.JobKindBroadcast, broadcastRunner)
	sched.Register(scheduler.JobKindWithdrawal, withdrawalRunner)
	sched.Register(scheduler.JobKindSync, syncRunner)

	poller := scheduler.NewPoller(sched, cfg.Scheduler.TickInterval, log)
	poller.AddSource(broadcastRunner)
	poller.AddSource(withdrawalRunner)
	if cfg.Sync.Enabled {
		poller.AddSource(syncRunner)
	}

	schedulerCtx, cancelScheduler := context.WithCancel(context.Background())
	defer cancelScheduler()
	if cfg.Scheduler.Enabled {
		if err := sched.Start(schedulerCtx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		poller.Start(schedulerCtx)
	}

	// HTTP engine and middleware
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewInvoiceHandler(invoiceService)).
		Register(handler.NewBroadcastScheduleHandler(broadcastService)).
		Register(handler.NewWithdrawalScheduleHandler(withdrawalService)).
		Register(handler.NewSyncHandler(syncService, exchangeSyncService, usdtService, bankTxRepo, exchangeTxRepo))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cfg.Scheduler.Enabled {
		poller.Stop()
		if err := sched.Stop(ctx); err != nil {
			log.Warn("Scheduler stop timed out", zap.Error(err))
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
