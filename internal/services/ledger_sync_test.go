package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"donors/internal/core"
	"donors/internal/sheets/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyLedger struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (l *flakyLedger) AppendDonation(_ context.Context, _ core.Donation) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return "", l.err
}

func TestDefaultLedgerSyncConfig(t *testing.T) {
	cfg := DefaultLedgerSyncConfig()
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 5, cfg.MaxAttempts)

	p := NewLedgerSyncProcessor(nil, nil, LedgerSyncConfig{})
	assert.Equal(t, cfg, p.config)
}

func TestSyncPending_ExportsOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ledger := memory.New()
	p := NewLedgerSyncProcessor(env.repo, ledger, LedgerSyncConfig{BatchSize: 10})
	p.now = func() time.Time { return testNow }

	donor := env.addDonor(t, "Ada", "ada@example.org")
	first := env.give(t, donor.ID, 100, "Gala", testNow.Add(-time.Hour))
	second := env.give(t, donor.ID, 200, "Gala", testNow)

	n, err := p.SyncPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows := ledger.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, first.ID, rows[0].ID)
	assert.Equal(t, second.ID, rows[1].ID)

	stored, err := env.donations.GetDonation(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LedgerSyncedAt)
	assert.True(t, stored.LedgerSyncedAt.Equal(testNow))

	n, err = p.SyncPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// A late message for an exported donation is a no-op.
	require.NoError(t, p.SyncDonation(ctx, first.ID))
	assert.Len(t, ledger.Rows(), 2)
}

func TestSyncPending_BatchSize(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ledger := memory.New()
	p := NewLedgerSyncProcessor(env.repo, ledger, LedgerSyncConfig{BatchSize: 2})

	donor := env.addDonor(t, "Ada", "ada@example.org")
	for i := 0; i < 5; i++ {
		env.give(t, donor.ID, 10, "Gala", testNow.Add(time.Duration(i)*time.Minute))
	}

	var total int
	for i := 0; i < 3; i++ {
		n, err := p.SyncPending(ctx)
		require.NoError(t, err)
		total += n
	}
	assert.Equal(t, 5, total)
	assert.Len(t, ledger.Rows(), 5)
}

func TestSyncDonation_FailureCountsAttempts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ledger := &flakyLedger{err: errors.New("quota exceeded")}
	p := NewLedgerSyncProcessor(env.repo, ledger, LedgerSyncConfig{MaxAttempts: 2})

	donor := env.addDonor(t, "Ada", "ada@example.org")
	d := env.give(t, donor.ID, 100, "Gala", testNow)

	err := p.SyncDonation(ctx, d.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	n, err := p.SyncPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 2, ledger.calls)

	// Two failed attempts exhaust the budget.
	pending, err := env.repo.PendingLedgerDonations(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, pending)

	stored, err := env.donations.GetDonation(ctx, d.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LedgerSyncedAt)
}

func TestSyncDonation_Unknown(t *testing.T) {
	env := newTestEnv(t)
	p := NewLedgerSyncProcessor(env.repo, memory.New(), DefaultLedgerSyncConfig())

	err := p.SyncDonation(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestLedgerSyncProcessor_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	ledger := memory.New()
	p := NewLedgerSyncProcessor(env.repo, ledger, LedgerSyncConfig{PollInterval: 20 * time.Millisecond})

	donor := env.addDonor(t, "Ada", "ada@example.org")
	env.give(t, donor.ID, 100, "Gala", testNow)

	assert.False(t, p.IsRunning())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, p.Start(ctx))
	assert.True(t, p.IsRunning())
	assert.Error(t, p.Start(ctx), "second start must fail")

	assert.Eventually(t, func() bool { return len(ledger.Rows()) == 1 }, 2*time.Second, 10*time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, p.Stop(stopCtx))
	assert.False(t, p.IsRunning())

	// Stopping again is a no-op.
	require.NoError(t, p.Stop(stopCtx))
}
