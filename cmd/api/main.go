package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/nicholas-0101/event-management-api/internal/client"
	"github.com/nicholas-0101/event-management-api/internal/di"
	"github.com/nicholas-0101/event-management-api/internal/handler"
	"github.com/nicholas-0101/event-management-api/internal/service"
	"github.com/nicholas-0101/event-management-api/internal/worker"
	"github.com/nicholas-0101/event-management-api/pkg/config"
	"github.com/nicholas-0101/event-management-api/pkg/database"
	"github.com/nicholas-0101/event-management-api/pkg/logger"
	"github.com/nicholas-0101/event-management-api/pkg/middleware"
	"github.com/nicholas-0101/event-management-api/pkg/redis"
	"github.com/nicholas-0101/event-management-api/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logLevel := "info"
	if cfg.App.Debug {
		logLevel = "debug"
	}
	log, err := logger.New(&logger.Config{
		Level:       logLevel,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
	}); err != nil {
		log.Fatal("failed to init telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			log.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:           cfg.Database.Host,
		Port:           cfg.Database.Port,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		Database:       cfg.Database.DBName,
		SSLMode:        cfg.Database.SSLMode,
		MaxConns:       cfg.Database.MaxConns,
		MinConns:       cfg.Database.MinConns,
		MaxRetries:     3,
		RetryInterval:  2 * time.Second,
		ConnectTimeout: 5 * time.Second,
	})
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var cache *redis.Client
	if cfg.Redis.Enabled {
		cache, err = redis.New(ctx, &redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			// The cache is advisory; the API serves without it.
			log.Warn("redis unavailable, continuing without cache", zap.Error(err))
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	var notifier client.Notifier = client.NoOpNotifier{}
	if cfg.Notify.WebhookURL != "" {
		notifier = client.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Notify.Timeout)
	}

	container := di.NewContainer(&di.ContainerConfig{
		DB:       db,
		Cache:    cache,
		Notifier: notifier,
		Logger:   log.Logger,
		Transaction: service.TransactionConfig{
			PendingTTL:   cfg.Booking.PendingTTL,
			MaxLineItems: cfg.Booking.MaxLineItems,
		},
		Expiry: &worker.ExpiryWorkerConfig{
			ScanInterval: cfg.Expiry.ScanInterval,
			BatchSize:    cfg.Expiry.BatchSize,
		},
		Upload: handler.UploadConfig{
			Dir:          cfg.Upload.Dir,
			MaxSizeBytes: cfg.Upload.MaxSizeBytes,
		},
	})

	container.ExpiryWorker.Start(ctx)
	defer container.ExpiryWorker.Stop()

	router := buildRouter(cfg, container)
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
}

func buildRouter(cfg *config.Config, c *di.Container) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.OTel.ServiceName))

	router.GET("/health", c.HealthHandler.Check)
	router.Static("/uploads", cfg.Upload.Dir)

	// Public catalog
	router.GET("/event", c.EventHandler.List)
	router.GET("/event/:id", c.EventHandler.GetByID)
	router.GET("/event/slug/:slug", c.EventHandler.GetBySlug)
	router.GET("/ticket/event/:eventId", c.EventHandler.TicketsByEvent)
	router.GET("/voucher/event/:eventId", c.DiscountHandler.VouchersByEvent)

	auth := router.Group("/")
	auth.Use(middleware.JWTMiddleware(&middleware.JWTConfig{Secret: cfg.JWT.Secret}))
	{
		auth.POST("/event", middleware.RequireRole(middleware.RoleOrganizer), c.EventHandler.Create)

		auth.GET("/coupon/user/:userId", c.DiscountHandler.CouponsByUser)
		auth.GET("/point/user/:userId", c.DiscountHandler.PointsByUser)

		auth.POST("/transaction", c.TransactionHandler.Create)
		auth.GET("/transaction/user", c.TransactionHandler.ListMine)
		auth.GET("/transaction/:id", c.TransactionHandler.Get)
		auth.GET("/transaction/:id/transitions", c.TransactionHandler.Transitions)
		auth.POST("/transaction/upload-proof/:id", c.TransactionHandler.UploadProof)
		auth.POST("/transaction/cancel/:id", c.TransactionHandler.Cancel)

		organizer := auth.Group("/transaction/organizer")
		organizer.Use(middleware.RequireRole(middleware.RoleOrganizer))
		{
			organizer.GET("", c.TransactionHandler.ListOrganizer)
			organizer.POST("/accept/:id", c.TransactionHandler.Accept)
			organizer.POST("/reject/:id", c.TransactionHandler.Reject)
		}
	}

	return router
}
