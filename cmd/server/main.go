package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charliebuilding/fnl-website/internal/catalog"
	"github.com/charliebuilding/fnl-website/internal/di"
	"github.com/charliebuilding/fnl-website/internal/gateway"
	"github.com/charliebuilding/fnl-website/internal/repository"
	"github.com/charliebuilding/fnl-website/internal/service"
	"github.com/charliebuilding/fnl-website/internal/worker"
	"github.com/charliebuilding/fnl-website/pkg/config"
	"github.com/charliebuilding/fnl-website/pkg/database"
	"github.com/charliebuilding/fnl-website/pkg/logger"
	pkgredis "github.com/charliebuilding/fnl-website/pkg/redis"
	"github.com/charliebuilding/fnl-website/pkg/telemetry"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting FNL ticketing service...")

	ctx := context.Background()

	// Initialize tracing
	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	// Load the event catalog
	cat, err := catalog.Load()
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to load event catalog: %v", err))
	}
	appLog.Info(fmt.Sprintf("Event catalog loaded (%d events)", len(cat.Events())))

	// Initialize database connection
	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	})
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
	}
	defer db.Close()
	appLog.Info("Database connected")

	// Initialize Redis connection
	redisClient, err := pkgredis.NewClient(ctx, &pkgredis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MinIdleConns:  cfg.Redis.MinIdleConns,
		DialTimeout:   cfg.Redis.DialTimeout,
		ReadTimeout:   cfg.Redis.ReadTimeout,
		WriteTimeout:  cfg.Redis.WriteTimeout,
		MaxRetries:    3,
		RetryInterval: 100 * time.Millisecond,
	})
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Redis connection failed: %v", err))
	}
	defer redisClient.Close()
	appLog.Info("Redis connected")

	// Initialize Kafka event publisher
	var eventPublisher service.EventPublisher
	if cfg.Kafka.Enabled {
		eventPublisher, err = service.NewKafkaEventPublisher(ctx, &service.EventPublisherConfig{
			Brokers:     cfg.Kafka.Brokers,
			Topic:       cfg.Kafka.Topic,
			ServiceName: cfg.App.Name,
			ClientID:    cfg.Kafka.ClientID,
		})
		if err != nil {
			appLog.Warn(fmt.Sprintf("Kafka connection failed, using no-op publisher: %v", err))
			eventPublisher = service.NewNoOpEventPublisher()
		} else {
			appLog.Info("Kafka event publisher connected")
			defer eventPublisher.Close()
		}
	} else {
		eventPublisher = service.NewNoOpEventPublisher()
	}

	// Initialize repositories
	ledger := repository.NewRedisCapacityLedger(redisClient)
	holdStore := repository.NewRedisHoldStore(redisClient)
	registrations := repository.NewPostgresRegistrationRepository(db.Pool())

	// Pre-load Lua scripts into Redis
	if err := ledger.LoadScripts(ctx); err != nil {
		appLog.Warn(fmt.Sprintf("Failed to pre-load Lua scripts: %v", err))
	} else {
		appLog.Info("Lua scripts pre-loaded into Redis")
	}

	// Initialize payment gateway
	var checkoutGateway gateway.CheckoutGateway
	if cfg.Stripe.SecretKey != "" {
		checkoutGateway, err = gateway.NewStripeGateway(&gateway.StripeGatewayConfig{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
		})
		if err != nil {
			appLog.Fatal(fmt.Sprintf("Failed to initialize Stripe gateway: %v", err))
		}
		appLog.Info("Stripe gateway initialized")
	} else {
		appLog.Warn("STRIPE_SECRET_KEY not set, using mock gateway")
		checkoutGateway = gateway.NewMockGateway()
	}

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		DB:             db,
		Redis:          redisClient,
		Catalog:        cat,
		Ledger:         ledger,
		HoldStore:      holdStore,
		Registrations:  registrations,
		Gateway:        checkoutGateway,
		EventPublisher: eventPublisher,
		WebhookSecret:  cfg.Stripe.WebhookSecret,
		ReservationConfig: &service.ReservationServiceConfig{
			ReservationTTL: cfg.Reservation.TTL,
		},
		CheckoutConfig: &service.CheckoutServiceConfig{
			SuccessURL: cfg.Stripe.SuccessURL,
			CancelURL:  cfg.Stripe.CancelURL,
		},
	})

	// Start the in-process reaper
	reaper := worker.NewReaperWorker(container.ReservationService, &worker.ReaperWorkerConfig{
		SweepInterval: cfg.Reservation.SweepInterval,
		BatchSize:     cfg.Reservation.SweepBatchSize,
	})
	if err := reaper.Start(ctx); err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to start reaper worker: %v", err))
	}
	defer reaper.Stop()

	// Setup Gin
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(telemetry.TracingMiddleware(cfg.App.Name))

	// Health endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/health/ready", container.HealthHandler.Ready)

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/events", container.EventHandler.ListEvents)
		v1.GET("/events/:event_id", container.EventHandler.GetEvent)
		v1.GET("/events/:event_id/tiers/:tier_id/availability", container.EventHandler.GetTierAvailability)
		v1.GET("/events/:event_id/tiers/:tier_id/quote", container.CheckoutHandler.Quote)

		v1.POST("/checkout", container.CheckoutHandler.StartCheckout)
		v1.POST("/webhooks/stripe", container.WebhookHandler.HandleStripeWebhook)

		v1.GET("/sessions/:session_id/tickets", container.TicketHandler.GetSessionTickets)
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		appLog.Info(fmt.Sprintf("FNL ticketing service listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}
