package di

import (
	"go.uber.org/zap"

	"github.com/nicholas-0101/event-management-api/internal/client"
	"github.com/nicholas-0101/event-management-api/internal/handler"
	"github.com/nicholas-0101/event-management-api/internal/repository"
	"github.com/nicholas-0101/event-management-api/internal/service"
	"github.com/nicholas-0101/event-management-api/internal/worker"
	"github.com/nicholas-0101/event-management-api/pkg/database"
	"github.com/nicholas-0101/event-management-api/pkg/redis"
)

// Container holds all dependencies of the API
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Cache *redis.Client

	// Repositories
	EventRepo       repository.EventRepository
	TicketRepo      repository.TicketRepository
	DiscountRepo    repository.DiscountRepository
	TransactionRepo repository.TransactionRepository

	// Services
	CatalogService     service.CatalogService
	DiscountService    service.DiscountService
	TransactionService service.TransactionService

	// Workers
	ExpiryWorker *worker.ExpiryWorker

	// Handlers
	EventHandler       *handler.EventHandler
	DiscountHandler    *handler.DiscountHandler
	TransactionHandler *handler.TransactionHandler
	HealthHandler      *handler.HealthHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB       *database.PostgresDB
	Cache    *redis.Client // optional, nil disables caching
	Notifier client.Notifier
	Logger   *zap.Logger

	Transaction service.TransactionConfig
	Expiry      *worker.ExpiryWorkerConfig
	Upload      handler.UploadConfig
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:    cfg.DB,
		Cache: cfg.Cache,
	}

	pool := cfg.DB.Pool()
	c.EventRepo = repository.NewPostgresEventRepository(pool)
	c.TicketRepo = repository.NewPostgresTicketRepository(pool)
	c.DiscountRepo = repository.NewPostgresDiscountRepository(pool)
	c.TransactionRepo = repository.NewPostgresTransactionRepository(pool)

	var cache service.TicketCache
	if cfg.Cache != nil {
		cache = cfg.Cache
	}

	c.CatalogService = service.NewCatalogService(c.EventRepo, c.TicketRepo, cache, cfg.Logger)
	c.DiscountService = service.NewDiscountService(c.DiscountRepo)
	c.TransactionService = service.NewTransactionService(
		c.TransactionRepo,
		c.TicketRepo,
		c.EventRepo,
		c.DiscountService,
		cfg.Notifier,
		cache,
		cfg.Transaction,
		cfg.Logger,
	)

	c.ExpiryWorker = worker.NewExpiryWorker(c.TransactionService, cfg.Logger, cfg.Expiry)

	c.EventHandler = handler.NewEventHandler(c.CatalogService)
	c.DiscountHandler = handler.NewDiscountHandler(c.DiscountService)
	c.TransactionHandler = handler.NewTransactionHandler(c.TransactionService, cfg.Upload)

	checks := map[string]handler.HealthChecker{"postgres": cfg.DB}
	if cfg.Cache != nil {
		checks["redis"] = cfg.Cache
	}
	c.HealthHandler = handler.NewHealthHandler(checks)

	return c
}
