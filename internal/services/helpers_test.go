package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"donors/internal/core"
	"donors/internal/storage"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	dbPath    string
	repo      *storage.SQLiteRepository
	donors    *DonorService
	donations *DonationService
	campaigns *CampaignService
	reports   *ReportService
	publisher *fakePublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "donors.db")
	repo, err := storage.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	pub := &fakePublisher{}
	env := &testEnv{
		dbPath:    dbPath,
		repo:      repo,
		donors:    NewDonorService(repo),
		donations: NewDonationService(repo, pub),
		campaigns: NewCampaignService(repo),
		reports:   NewReportService(repo),
		publisher: pub,
	}
	fixed := func() time.Time { return testNow }
	env.donors.now = fixed
	env.donations.now = fixed
	env.campaigns.now = fixed
	return env
}

func (e *testEnv) addDonor(t *testing.T, name, email string) core.Donor {
	t.Helper()
	d, err := e.donors.AddDonor(context.Background(), AddDonorParams{Name: name, Email: email})
	require.NoError(t, err)
	return d
}

func (e *testEnv) give(t *testing.T, donorID string, major int64, campaign string, at time.Time) core.Donation {
	t.Helper()
	d, err := e.donations.Record(context.Background(), RecordDonationParams{
		DonorID:    donorID,
		Amount:     core.FromMajor(major),
		Campaign:   campaign,
		ReceivedAt: &at,
	})
	require.NoError(t, err)
	return d
}

type fakePublisher struct {
	mu        sync.Mutex
	published []core.Donation
	err       error
}

func (p *fakePublisher) PublishDonationRecorded(_ context.Context, d core.Donation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, d)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}
