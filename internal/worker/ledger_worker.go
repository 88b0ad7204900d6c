package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"donors/internal/amqp"
	"donors/internal/core"

	"golang.org/x/sync/errgroup"
)

// LedgerSyncer exports donations to the ledger. *services.LedgerSyncProcessor
// implements it.
type LedgerSyncer interface {
	SyncDonation(ctx context.Context, id string) error
	SyncPending(ctx context.Context) (int, error)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Consumer delivers donation.recorded messages. *amqp.Client implements it.
type Consumer interface {
	ConsumeDonationRecorded(ctx context.Context, handler func(context.Context, *amqp.DonationRecordedMessage) error) error
}

// LedgerWorker keeps the donation ledger in step with SQLite. Messages give
// low latency; the periodic sweep catches anything the broker lost.
type LedgerWorker struct {
	syncer      LedgerSyncer
	consumer    Consumer
	stopTimeout time.Duration
	// caps the startup drain so a broken ledger cannot stall the worker
	startupRounds int
}

// NewLedgerWorker builds the worker. consumer may be nil, in which case only
// the periodic sweep runs.
func NewLedgerWorker(syncer LedgerSyncer, consumer Consumer) *LedgerWorker {
	return &LedgerWorker{
		syncer:        syncer,
		consumer:      consumer,
		stopTimeout:   30 * time.Second,
		startupRounds: 50,
	}
}

// HandleDonationRecorded exports the donation named by msg. Unknown donations
// are dropped; ledger failures are left to the sweep so the message is not
// redelivered in a tight loop.
func (w *LedgerWorker) HandleDonationRecorded(ctx context.Context, msg *amqp.DonationRecordedMessage) error {
	slog.InfoContext(ctx, "Processing donation message",
		"donation_id", msg.DonationID,
		"donor_id", msg.DonorID,
		"amount_cents", msg.AmountCents)

	err := w.syncer.SyncDonation(ctx, msg.DonationID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, core.ErrNotFound):
		slog.WarnContext(ctx, "Dropping message for unknown donation", "donation_id", msg.DonationID)
		return nil
	case errors.Is(err, context.Canceled):
		return err
	default:
		slog.WarnContext(ctx, "Ledger export failed, leaving donation for the sweep",
			"donation_id", msg.DonationID, "error", err)
		return nil
	}
}

// StartupSyncCheck drains donations left unexported while the worker was down.
func (w *LedgerWorker) StartupSyncCheck(ctx context.Context) error {
	total := 0
	for i := 0; i < w.startupRounds; i++ {
		n, err := w.syncer.SyncPending(ctx)
		if err != nil {
			return fmt.Errorf("startup sync check: %w", err)
		}
		if n == 0 {
			break
		}
		total += n
	}
	if total == 0 {
		slog.InfoContext(ctx, "No pending donations found on startup")
		return nil
	}
	slog.InfoContext(ctx, "Startup sync completed", "synced", total)
	return nil
}

// Run blocks until ctx is cancelled or the consumer fails. A cancelled ctx
// is a clean shutdown and returns nil.
func (w *LedgerWorker) Run(ctx context.Context) error {
	if err := w.StartupSyncCheck(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed startup sync check", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if err := w.syncer.Start(gctx); err != nil {
		return fmt.Errorf("start ledger sweep: %w", err)
	}

	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), w.stopTimeout)
		defer cancel()
		return w.syncer.Stop(stopCtx)
	})

	if w.consumer != nil {
		g.Go(func() error {
			err := w.consumer.ConsumeDonationRecorded(gctx, w.HandleDonationRecorded)
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("consume donation messages: %w", err)
		})
	} else {
		slog.InfoContext(ctx, "No message consumer configured, relying on periodic sweep")
	}

	return g.Wait()
}
