// Package worker moves stored salary snapshots into the spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/ports"
)

// Config holds configuration for the export worker
type Config struct {
	// Interval is how often unexported snapshots are swept (default: 5m)
	Interval time.Duration

	// BatchSize is the max number of snapshots exported per sweep (default: 50)
	BatchSize int
}

func DefaultConfig() Config {
	return Config{
		Interval:  5 * time.Minute,
		BatchSize: 50,
	}
}

// ExportWorker exports snapshots announced over AMQP and periodically sweeps
// the ones whose message was lost.
type ExportWorker struct {
	store    ports.SnapshotStore
	exporter ports.SnapshotExporter
	config   Config
	now      func() time.Time

	// Serializes exports so a message and the sweep never write the same row twice.
	exportMu sync.Mutex

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewExportWorker(store ports.SnapshotStore, exporter ports.SnapshotExporter, config Config) *ExportWorker {
	def := DefaultConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	return &ExportWorker{
		store:    store,
		exporter: exporter,
		config:   config,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// HandleSnapshotMessage exports the snapshot named by msg. Snapshots already
// exported are skipped, so redelivered messages are harmless.
func (w *ExportWorker) HandleSnapshotMessage(ctx context.Context, msg *amqp.SnapshotMessage) error {
	ym, err := msg.Period()
	if err != nil {
		return fmt.Errorf("snapshot message period: %w", err)
	}

	w.exportMu.Lock()
	defer w.exportMu.Unlock()

	snap, err := w.store.GetSnapshot(ctx, msg.HouseholdID, ym)
	if err != nil {
		return fmt.Errorf("get snapshot: %w", err)
	}
	if snap.ExportedAt != nil {
		slog.DebugContext(ctx, "Snapshot already exported, skipping",
			"household_id", msg.HouseholdID,
			"year_month", msg.YearMonth)
		return nil
	}

	n, err := w.export(ctx, []core.SalarySnapshot{snap})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Exported snapshot",
		"household_id", msg.HouseholdID,
		"year_month", msg.YearMonth,
		"marked", n)
	return nil
}

// ExportPending exports one batch of unexported snapshots and returns how
// many were marked as exported.
func (w *ExportWorker) ExportPending(ctx context.Context) (int, error) {
	w.exportMu.Lock()
	defer w.exportMu.Unlock()

	pending, err := w.store.ListUnexportedSnapshots(ctx, w.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list unexported snapshots: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Exporting pending snapshots", "count", len(pending))
	return w.export(ctx, pending)
}

func (w *ExportWorker) export(ctx context.Context, snaps []core.SalarySnapshot) (int, error) {
	if err := w.exporter.ExportSnapshots(ctx, snaps); err != nil {
		return 0, fmt.Errorf("export snapshots: %w", err)
	}

	at := w.now()
	marked := 0
	var errs []error
	for _, s := range snaps {
		if err := w.store.MarkSnapshotExported(ctx, s.HouseholdID, s.YearMonth, at); err != nil {
			// The rows are already in the sheet; the next sweep would append them again.
			slog.ErrorContext(ctx, "Failed to mark snapshot exported",
				"household_id", s.HouseholdID,
				"year_month", s.YearMonth.String(),
				"error", err)
			errs = append(errs, err)
			continue
		}
		marked++
	}
	return marked, errors.Join(errs...)
}

// Start begins the sweep loop. Returns an error if already running.
func (w *ExportWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("export worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	go w.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Export worker started",
		"interval", w.config.Interval,
		"batch_size", w.config.BatchSize)
	return nil
}

// Stop signals the loop and waits for it to finish or ctx to expire.
func (w *ExportWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	stopCh, doneCh := w.stopCh, w.doneCh
	w.running = false
	w.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Export worker stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export worker stop timed out")
		return ctx.Err()
	}
}

func (w *ExportWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *ExportWorker) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	// Sweep immediately on startup
	w.sweep(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExportWorker) sweep(ctx context.Context) {
	n, err := w.ExportPending(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Snapshot export sweep failed", "error", err, "marked", n)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "Snapshot export sweep completed", "marked", n)
	}
}
