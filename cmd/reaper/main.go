// The reaper releases expired capacity holds so abandoned checkouts
// return inventory to the pool. It runs in-process in the API server
// too; this standalone binary covers deployments that scale the sweep
// independently of request serving.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charliebuilding/fnl-website/internal/catalog"
	"github.com/charliebuilding/fnl-website/internal/repository"
	"github.com/charliebuilding/fnl-website/internal/service"
	"github.com/charliebuilding/fnl-website/internal/worker"
	"github.com/charliebuilding/fnl-website/pkg/config"
	"github.com/charliebuilding/fnl-website/pkg/logger"
	pkgredis "github.com/charliebuilding/fnl-website/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logCfg := &logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: "fnl-reaper",
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting reaper...")

	ctx := context.Background()

	cat, err := catalog.Load()
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to load event catalog: %v", err))
	}

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

	ledger := repository.NewRedisCapacityLedger(redisClient)
	holdStore := repository.NewRedisHoldStore(redisClient)

	if err := ledger.LoadScripts(ctx); err != nil {
		appLog.Warn(fmt.Sprintf("Failed to pre-load Lua scripts: %v", err))
	}

	// Kafka is best-effort for the reaper too
	var eventPublisher service.EventPublisher
	if cfg.Kafka.Enabled {
		eventPublisher, err = service.NewKafkaEventPublisher(ctx, &service.EventPublisherConfig{
			Brokers:     cfg.Kafka.Brokers,
			Topic:       cfg.Kafka.Topic,
			ServiceName: "fnl-reaper",
			ClientID:    cfg.Kafka.ClientID,
		})
		if err != nil {
			appLog.Warn(fmt.Sprintf("Kafka connection failed, using no-op publisher: %v", err))
			eventPublisher = service.NewNoOpEventPublisher()
		} else {
			defer eventPublisher.Close()
		}
	} else {
		eventPublisher = service.NewNoOpEventPublisher()
	}

	// The reaper never writes registrations; the in-memory repository
	// satisfies the service wiring without a database connection.
	reservations := service.NewReservationService(
		cat,
		ledger,
		holdStore,
		repository.NewMemoryRegistrationRepository(),
		eventPublisher,
		&service.ReservationServiceConfig{ReservationTTL: cfg.Reservation.TTL},
	)

	reaper := worker.NewReaperWorker(reservations, &worker.ReaperWorkerConfig{
		SweepInterval: cfg.Reservation.SweepInterval,
		BatchSize:     cfg.Reservation.SweepBatchSize,
	})
	if err := reaper.Start(ctx); err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to start reaper worker: %v", err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down reaper...")

	reaper.Stop()
	appLog.Info("Reaper exited gracefully")
}
