// Package worker keeps an external spreadsheet copy of the ledger in step
// with the server.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"receipts/internal/amqp"
	"receipts/internal/blob"
	"receipts/internal/log"
	"receipts/internal/sheets"
)

const (
	// DefaultResyncInterval is used when Config.ResyncInterval is zero.
	DefaultResyncInterval = 5 * time.Minute
	// DefaultLockKey guards the sheet when several workers share a backend.
	DefaultLockKey = "receipts:mirror-lock"
)

// Config holds configuration for the mirror worker
type Config struct {
	// ResyncInterval is how often the sheet is rewritten regardless of
	// events, covering lost messages.
	ResyncInterval time.Duration
	// Locker is optional. When set, each sync runs under LockKey.
	Locker  blob.Locker
	LockKey string
	Logger  *slog.Logger
}

// MirrorWorker rewrites the mirror from the persisted ledger whenever a
// ledger event arrives and on a fixed interval.
type MirrorWorker struct {
	reader sheets.LedgerReader
	mirror sheets.LedgerMirror
	config Config
	logger *slog.Logger
	now    func() time.Time

	syncMu   sync.Mutex
	lastRead time.Time
	syncs    int

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewMirrorWorker(reader sheets.LedgerReader, mirror sheets.LedgerMirror, config Config) *MirrorWorker {
	if config.ResyncInterval <= 0 {
		config.ResyncInterval = DefaultResyncInterval
	}
	if config.LockKey == "" {
		config.LockKey = DefaultLockKey
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &MirrorWorker{
		reader: reader,
		mirror: mirror,
		config: config,
		logger: logger.With(log.FieldComponent, log.ComponentWorker),
		now:    time.Now,
	}
}

// HandleLedgerEvent is the AMQP handler. Events stamped before the last
// ledger read are already reflected in the mirror and are acknowledged
// without work. Mirror failures are logged, not returned: requeueing would
// redeliver at once while the periodic resync retries on its own schedule.
func (w *MirrorWorker) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	w.syncMu.Lock()
	last := w.lastRead
	w.syncMu.Unlock()

	if !last.IsZero() && ev.Timestamp.Before(last) {
		w.logger.DebugContext(ctx, "Skipping stale ledger event",
			"type", ev.Type,
			"revision", ev.Revision,
			"event_time", ev.Timestamp,
			"last_read", last)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing ledger event",
		"type", ev.Type,
		log.FieldReceiptID, ev.ReceiptID,
		"revision", ev.Revision,
		"count", ev.Count)

	if err := w.Sync(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Mirror sync failed, waiting for resync",
			"type", ev.Type,
			log.FieldError, err)
	}
	return nil
}

// Sync reads the ledger and rewrites the mirror. Concurrent calls run one
// at a time.
func (w *MirrorWorker) Sync(ctx context.Context) error {
	w.syncMu.Lock()
	defer w.syncMu.Unlock()

	if w.config.Locker != nil {
		release, err := w.config.Locker.Lock(ctx, w.config.LockKey)
		if err != nil {
			return fmt.Errorf("acquire mirror lock: %w", err)
		}
		defer release()
	}

	readAt := w.now()
	records, err := w.reader.ReadLedger(ctx)
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}
	if err := w.mirror.Mirror(ctx, records); err != nil {
		return fmt.Errorf("mirror ledger: %w", err)
	}

	w.lastRead = readAt
	w.syncs++
	w.logger.InfoContext(ctx, "Ledger mirrored", "receipts", len(records))
	return nil
}

// Syncs reports how many syncs completed.
func (w *MirrorWorker) Syncs() int {
	w.syncMu.Lock()
	defer w.syncMu.Unlock()
	return w.syncs
}

// Start begins the resync loop. Returns an error if already running.
func (w *MirrorWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("mirror worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	stop, done := w.stopCh, w.doneCh
	w.mu.Unlock()

	go w.runLoop(ctx, stop, done)

	w.logger.InfoContext(ctx, "Mirror worker started",
		"resync_interval", w.config.ResyncInterval,
		"locking", w.config.Locker != nil)

	return nil
}

// Stop gracefully stops the resync loop and waits for completion. It is safe
// to call concurrently; every caller waits for the same loop to exit.
func (w *MirrorWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if w.doneCh == nil {
		w.mu.Unlock()
		return nil
	}
	if w.running {
		w.running = false
		close(w.stopCh)
	}
	done := w.doneCh
	w.mu.Unlock()

	select {
	case <-done:
		w.logger.InfoContext(ctx, "Mirror worker stopped gracefully")
	case <-ctx.Done():
		w.logger.WarnContext(ctx, "Mirror worker stop timed out")
		return ctx.Err()
	}
	return nil
}

// IsRunning returns whether the resync loop is active
func (w *MirrorWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *MirrorWorker) runLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.config.ResyncInterval)
	defer ticker.Stop()

	// Sync immediately on startup
	w.resync(ctx)

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.resync(ctx)
		}
	}
}

func (w *MirrorWorker) resync(ctx context.Context) {
	if err := w.Sync(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Periodic resync failed", log.FieldError, err)
	}
}
