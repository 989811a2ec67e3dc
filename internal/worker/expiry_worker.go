package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nicholas-0101/event-management-api/internal/service"
)

// ExpiryWorkerConfig holds expiry worker configuration
type ExpiryWorkerConfig struct {
	// ScanInterval is how often the worker scans for overdue transactions
	ScanInterval time.Duration
	// BatchSize is the maximum transactions expired per scan
	BatchSize int
}

// DefaultExpiryWorkerConfig returns default worker configuration
func DefaultExpiryWorkerConfig() *ExpiryWorkerConfig {
	return &ExpiryWorkerConfig{
		ScanInterval: 5 * time.Second,
		BatchSize:    100,
	}
}

// ExpiryWorkerStats is a snapshot of worker counters
type ExpiryWorkerStats struct {
	IsRunning        bool      `json:"is_running"`
	TotalExpired     int64     `json:"total_expired"`
	TotalReleased    int64     `json:"total_released"`
	LastScanTime     time.Time `json:"last_scan_time"`
	LastExpiredCount int       `json:"last_expired_count"`
}

// ExpiryWorker periodically expires transactions whose payment deadline
// passed. Expiry is a safety net behind lazy expiry on read; both paths go
// through the same status-guarded transition, so running them together never
// double-releases inventory.
type ExpiryWorker struct {
	txns   service.TransactionService
	logger *zap.Logger
	config *ExpiryWorkerConfig

	mu               sync.Mutex
	running          bool
	stop             chan struct{}
	done             chan struct{}
	totalExpired     int64
	totalReleased    int64
	lastScanTime     time.Time
	lastExpiredCount int
}

// NewExpiryWorker creates a new ExpiryWorker
func NewExpiryWorker(txns service.TransactionService, logger *zap.Logger, config *ExpiryWorkerConfig) *ExpiryWorker {
	if config == nil {
		config = DefaultExpiryWorkerConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpiryWorker{
		txns:   txns,
		logger: logger,
		config: config,
	}
}

// Start launches the scan loop. Calling Start on a running worker is a no-op.
func (w *ExpiryWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("expiry worker started",
		zap.Duration("scan_interval", w.config.ScanInterval),
		zap.Int("batch_size", w.config.BatchSize))

	go w.loop(ctx)
}

func (w *ExpiryWorker) loop(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.config.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

// scan runs one expiry pass
func (w *ExpiryWorker) scan(ctx context.Context) {
	expired, err := w.txns.ExpireOverdue(ctx, time.Now(), w.config.BatchSize)
	if err != nil {
		w.logger.Error("expiry scan failed", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.lastScanTime = time.Now()
	w.lastExpiredCount = expired
	w.totalExpired += int64(expired)
	w.totalReleased += int64(expired)
	w.mu.Unlock()

	if expired > 0 {
		w.logger.Info("expired overdue transactions", zap.Int("count", expired))
	}
}

// Stop halts the scan loop and waits for the current pass to finish
func (w *ExpiryWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stop)
	done := w.done
	w.mu.Unlock()

	<-done
	w.logger.Info("expiry worker stopped")
}

// GetStats returns a snapshot of worker counters
func (w *ExpiryWorker) GetStats() *ExpiryWorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return &ExpiryWorkerStats{
		IsRunning:        w.running,
		TotalExpired:     w.totalExpired,
		TotalReleased:    w.totalReleased,
		LastScanTime:     w.lastScanTime,
		LastExpiredCount: w.lastExpiredCount,
	}
}
