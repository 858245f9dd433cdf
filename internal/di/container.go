package di

import (
	"github.com/charliebuilding/fnl-website/internal/catalog"
	"github.com/charliebuilding/fnl-website/internal/gateway"
	"github.com/charliebuilding/fnl-website/internal/handler"
	"github.com/charliebuilding/fnl-website/internal/repository"
	"github.com/charliebuilding/fnl-website/internal/service"
	"github.com/charliebuilding/fnl-website/pkg/database"
	"github.com/charliebuilding/fnl-website/pkg/redis"
)

// Container holds all dependencies for the ticketing service
type Container struct {
	// Infrastructure
	DB      *database.PostgresDB
	Redis   *redis.Client
	Catalog *catalog.Catalog

	// Repositories
	Ledger        repository.CapacityLedger
	HoldStore     repository.HoldStore
	Registrations repository.RegistrationRepository

	// Gateways and publishers
	Gateway        gateway.CheckoutGateway
	EventPublisher service.EventPublisher

	// Services
	ReservationService service.ReservationService
	CheckoutService    service.CheckoutService
	TicketService      service.TicketService

	// Handlers
	HealthHandler   *handler.HealthHandler
	EventHandler    *handler.EventHandler
	CheckoutHandler *handler.CheckoutHandler
	WebhookHandler  *handler.WebhookHandler
	TicketHandler   *handler.TicketHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB             *database.PostgresDB
	Redis          *redis.Client
	Catalog        *catalog.Catalog
	Ledger         repository.CapacityLedger
	HoldStore      repository.HoldStore
	Registrations  repository.RegistrationRepository
	Gateway        gateway.CheckoutGateway
	EventPublisher service.EventPublisher
	WebhookSecret  string

	ReservationConfig *service.ReservationServiceConfig
	CheckoutConfig    *service.CheckoutServiceConfig
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:             cfg.DB,
		Redis:          cfg.Redis,
		Catalog:        cfg.Catalog,
		Ledger:         cfg.Ledger,
		HoldStore:      cfg.HoldStore,
		Registrations:  cfg.Registrations,
		Gateway:        cfg.Gateway,
		EventPublisher: cfg.EventPublisher,
	}

	// Initialize services
	c.ReservationService = service.NewReservationService(
		c.Catalog,
		c.Ledger,
		c.HoldStore,
		c.Registrations,
		c.EventPublisher,
		cfg.ReservationConfig,
	)
	c.CheckoutService = service.NewCheckoutService(
		c.Catalog,
		c.ReservationService,
		c.Gateway,
		cfg.CheckoutConfig,
	)
	c.TicketService = service.NewTicketService(c.Registrations)

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis)
	c.EventHandler = handler.NewEventHandler(c.Catalog, c.ReservationService)
	c.CheckoutHandler = handler.NewCheckoutHandler(c.CheckoutService)
	c.WebhookHandler = handler.NewWebhookHandler(c.ReservationService, cfg.WebhookSecret)
	c.TicketHandler = handler.NewTicketHandler(c.TicketService)

	return c
}
