package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"donors/internal/core"
	"donors/internal/sheets"
	"donors/internal/storage"
)

// LedgerSyncConfig holds configuration for the ledger sync processor
type LedgerSyncConfig struct {
	// PollInterval is how often to check for unsynced donations (default: 30s)
	PollInterval time.Duration

	// BatchSize is the max number of donations exported per poll cycle (default: 10)
	BatchSize int

	// MaxAttempts stops retrying a donation after this many failed exports (default: 5)
	MaxAttempts int
}

// DefaultLedgerSyncConfig returns sensible defaults
func DefaultLedgerSyncConfig() LedgerSyncConfig {
	return LedgerSyncConfig{
		PollInterval: 30 * time.Second,
		BatchSize:    10,
		MaxAttempts:  5,
	}
}

// LedgerSyncProcessor exports recorded donations to the ledger and keeps
// the per-donation sync bookkeeping in SQLite.
type LedgerSyncProcessor struct {
	storage *storage.SQLiteRepository
	ledger  sheets.LedgerWriter
	config  LedgerSyncConfig
	now     func() time.Time

	// serializes exports so a message and a sweep never append the same donation twice
	syncMu sync.Mutex

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewLedgerSyncProcessor(storage *storage.SQLiteRepository, ledger sheets.LedgerWriter, config LedgerSyncConfig) *LedgerSyncProcessor {
	def := DefaultLedgerSyncConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = def.MaxAttempts
	}
	return &LedgerSyncProcessor{
		storage: storage,
		ledger:  ledger,
		config:  config,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Start begins the polling loop. Returns an error if already running.
func (p *LedgerSyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("ledger sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Ledger sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop signals the loop and waits for it to finish or for ctx to expire.
func (p *LedgerSyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Ledger sync processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Ledger sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

func (p *LedgerSyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *LedgerSyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Sweep immediately on startup
	if _, err := p.SyncPending(ctx); err != nil {
		slog.ErrorContext(ctx, "Ledger sweep failed", "error", err)
	}

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.SyncPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Ledger sweep failed", "error", err)
			}
		}
	}
}

// SyncPending exports one batch of unsynced donations and returns how many
// were written. Individual failures are recorded and do not stop the batch.
func (p *LedgerSyncProcessor) SyncPending(ctx context.Context) (int, error) {
	pending, err := p.storage.PendingLedgerDonations(ctx, p.config.BatchSize, p.config.MaxAttempts)
	if err != nil {
		return 0, fmt.Errorf("get pending donations: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.DebugContext(ctx, "Processing pending ledger donations", "count", len(pending))

	synced := 0
	for _, d := range pending {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		if err := p.export(ctx, d); err != nil {
			slog.WarnContext(ctx, "Ledger export failed",
				"donation_id", d.ID, "error", err)
			continue
		}
		synced++
	}
	return synced, nil
}

// SyncDonation exports a single donation by id. Donations already in the
// ledger are skipped.
func (p *LedgerSyncProcessor) SyncDonation(ctx context.Context, id string) error {
	d, err := p.storage.Donation(ctx, id)
	if err != nil {
		return fmt.Errorf("get donation %s: %w", id, err)
	}
	return p.export(ctx, d)
}

func (p *LedgerSyncProcessor) export(ctx context.Context, d core.Donation) error {
	p.syncMu.Lock()
	defer p.syncMu.Unlock()

	// Re-read under the lock; a concurrent export may have finished.
	current, err := p.storage.Donation(ctx, d.ID)
	if err != nil {
		return fmt.Errorf("get donation %s: %w", d.ID, err)
	}
	if current.LedgerSyncedAt != nil {
		slog.DebugContext(ctx, "Donation already in ledger, skipping", "donation_id", d.ID)
		return nil
	}

	ref, err := p.ledger.AppendDonation(ctx, current)
	if err != nil {
		if markErr := p.storage.MarkLedgerError(ctx, current.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to record ledger error",
				"donation_id", current.ID, "error", markErr)
		}
		return fmt.Errorf("append to ledger: %w", err)
	}

	if _, err := p.storage.MarkLedgerSynced(ctx, current.ID, p.now()); err != nil {
		// The row is in the ledger; the writer is idempotent by id so a
		// later retry does not duplicate it.
		slog.WarnContext(ctx, "Failed to mark donation as synced",
			"donation_id", current.ID, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "Exported donation to ledger",
		"donation_id", current.ID,
		"ledger_ref", ref)
	return nil
}
