package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charliebuilding/fnl-website/internal/service"
	"github.com/charliebuilding/fnl-website/pkg/logger"
	"github.com/charliebuilding/fnl-website/pkg/retry"
)

// ReaperWorkerConfig contains configuration for the reaper worker
type ReaperWorkerConfig struct {
	// SweepInterval is the interval between scans for expired holds
	SweepInterval time.Duration
	// BatchSize is the number of holds to release in each sweep
	BatchSize int
}

// DefaultReaperWorkerConfig returns default configuration
func DefaultReaperWorkerConfig() *ReaperWorkerConfig {
	return &ReaperWorkerConfig{
		SweepInterval: 30 * time.Second,
		BatchSize:     100,
	}
}

// ReaperWorker periodically releases holds whose TTL has passed so
// abandoned checkouts return their capacity to the pool.
type ReaperWorker struct {
	reservations service.ReservationService
	config       *ReaperWorkerConfig
	retrier      *retry.Retrier
	log          *logger.Logger
	stopCh       chan struct{}
	wg           sync.WaitGroup
	mu           sync.Mutex
	running      bool

	// Stats
	totalReaped   int64
	lastSweepTime time.Time
	lastReaped    int
}

// NewReaperWorker creates a new reaper worker
func NewReaperWorker(reservations service.ReservationService, config *ReaperWorkerConfig) *ReaperWorker {
	if config == nil {
		config = DefaultReaperWorkerConfig()
	}
	return &ReaperWorker{
		reservations: reservations,
		config:       config,
		retrier: retry.New(&retry.Config{
			MaxRetries:      3,
			InitialInterval: time.Second,
			MaxInterval:     10 * time.Second,
		}),
		log:    logger.Get(),
		stopCh: make(chan struct{}),
	}
}

// Start starts the reaper worker
func (w *ReaperWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("reaper worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info(fmt.Sprintf("Starting reaper worker (interval: %s, batch: %d)",
		w.config.SweepInterval, w.config.BatchSize))

	w.wg.Add(1)
	go w.sweepLoop(ctx)

	return nil
}

// Stop stops the reaper worker and waits for the current sweep
func (w *ReaperWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("Stopping reaper worker")
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("Reaper worker stopped")
}

// sweepLoop scans on a fixed interval until stopped
func (w *ReaperWorker) sweepLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.SweepInterval)
	defer ticker.Stop()

	// Run immediately on start
	w.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one reap pass. Transient store errors are retried with
// backoff; a sweep that still fails waits for the next tick.
func (w *ReaperWorker) Sweep(ctx context.Context) {
	w.mu.Lock()
	w.lastSweepTime = time.Now()
	w.mu.Unlock()

	var reaped int
	err := w.retrier.Do(ctx, func(ctx context.Context) error {
		var reapErr error
		reaped, reapErr = w.reservations.ReapExpired(ctx, w.config.BatchSize)
		return reapErr
	})
	if err != nil {
		w.log.Error(fmt.Sprintf("Reap sweep failed: %v", err))
		return
	}

	w.mu.Lock()
	w.totalReaped += int64(reaped)
	w.lastReaped = reaped
	w.mu.Unlock()

	if reaped > 0 {
		w.log.Info(fmt.Sprintf("Reaped %d expired holds", reaped))
	}
}

// GetStats returns worker statistics
func (w *ReaperWorker) GetStats() *ReaperWorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return &ReaperWorkerStats{
		IsRunning:     w.running,
		TotalReaped:   w.totalReaped,
		LastSweepTime: w.lastSweepTime,
		LastReaped:    w.lastReaped,
	}
}

// ReaperWorkerStats contains worker statistics
type ReaperWorkerStats struct {
	IsRunning     bool      `json:"is_running"`
	TotalReaped   int64     `json:"total_reaped"`
	LastSweepTime time.Time `json:"last_sweep_time"`
	LastReaped    int       `json:"last_reaped"`
}
