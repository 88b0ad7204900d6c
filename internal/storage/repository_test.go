package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"donors/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "donors.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func seedDonor(t *testing.T, repo *SQLiteRepository, id, email string) core.Donor {
	t.Helper()
	d := core.Donor{
		ID:        id,
		Name:      "Donor " + id,
		Email:     email,
		Type:      core.Individual,
		Tier:      core.Bronze,
		CreatedAt: epoch,
	}
	require.NoError(t, repo.CreateDonor(context.Background(), d))
	return d
}

func TestMigrationsApplied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "donors.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	version, dirty, err := SchemaVersion(DSN(path))
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(2), version)

	// Reopening an up-to-date database is a no-op.
	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())
}

func TestCreateAndGetDonor(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seedDonor(t, repo, "d1", "a@example.org")

	got, err := repo.Donor(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.org", got.Email)
	assert.Equal(t, core.Bronze, got.Tier)
	assert.Zero(t, got.TotalGiven.Cents)
	assert.Empty(t, got.Campaigns)
	assert.NotNil(t, got.Campaigns)
	assert.Nil(t, got.LastDonationAt)
	assert.True(t, got.CreatedAt.Equal(epoch))

	byEmail, err := repo.DonorByEmail(ctx, "a@example.org")
	require.NoError(t, err)
	assert.Equal(t, "d1", byEmail.ID)
}

func TestDonorNotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.Donor(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = repo.DonorByEmail(ctx, "nobody@example.org")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = repo.ApplyDonation(ctx, "missing", core.FromMajor(1), epoch, epoch)
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.ErrorIs(t, repo.SetDonorTier(ctx, "missing", core.Gold, epoch), core.ErrNotFound)
}

func TestDuplicateEmailConflicts(t *testing.T) {
	repo := newTestRepo(t)
	seedDonor(t, repo, "d1", "same@example.org")

	err := repo.CreateDonor(context.Background(), core.Donor{
		ID: "d2", Name: "Other", Email: "same@example.org",
		Type: core.Corporate, Tier: core.Bronze, CreatedAt: epoch,
	})
	assert.ErrorIs(t, err, core.ErrConflict)
}

func TestDuplicateCampaignConflicts(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	c := core.Campaign{ID: "c1", Name: "Spring", StartDate: "2025-03-01", EndDate: "2025-05-31", Status: "active", CreatedAt: epoch}
	require.NoError(t, repo.CreateCampaign(ctx, c))

	c.ID = "c2"
	assert.ErrorIs(t, repo.CreateCampaign(ctx, c), core.ErrConflict)

	// Names are matched exactly.
	c.ID, c.Name = "c3", "spring"
	assert.NoError(t, repo.CreateCampaign(ctx, c))
}

func TestApplyDonationAccumulates(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seedDonor(t, repo, "d1", "a@example.org")

	total, err := repo.ApplyDonation(ctx, "d1", core.FromMajor(600), epoch, epoch)
	require.NoError(t, err)
	assert.Equal(t, core.FromMajor(600), total)

	later := epoch.Add(48 * time.Hour)
	total, err = repo.ApplyDonation(ctx, "d1", core.FromMajor(500), later, later)
	require.NoError(t, err)
	assert.Equal(t, core.FromMajor(1100), total)

	// A backdated gift must not move last_donation_at backwards.
	_, err = repo.ApplyDonation(ctx, "d1", core.FromMinorUnits(1), epoch.AddDate(-1, 0, 0), later)
	require.NoError(t, err)

	d, err := repo.Donor(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, d.LastDonationAt)
	assert.True(t, d.LastDonationAt.Equal(later))
	assert.Equal(t, int64(110001), d.TotalGiven.Cents)
}

func TestDonorCampaignsDistinctInOrder(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seedDonor(t, repo, "d1", "a@example.org")

	for _, c := range []string{"Zeta", "Alpha", "Zeta", "Mid", "Alpha"} {
		require.NoError(t, repo.AddDonorCampaign(ctx, "d1", c))
	}

	d, err := repo.Donor(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Zeta", "Alpha", "Mid"}, d.Campaigns)
}

func TestInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seedDonor(t, repo, "d1", "a@example.org")

	boom := errors.New("boom")
	err := repo.InTx(ctx, func(tx *Records) error {
		require.NoError(t, tx.CreateDonation(ctx, core.Donation{
			ID: "g1", DonorID: "d1", Amount: core.FromMajor(5), Campaign: "Spring",
			Type: core.OneTime, Method: core.Cash, ReceivedAt: epoch,
		}))
		_, err := tx.ApplyDonation(ctx, "d1", core.FromMajor(5), epoch, epoch)
		require.NoError(t, err)
		require.NoError(t, tx.AddDonorCampaign(ctx, "d1", "Spring"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repo.Donation(ctx, "g1")
	assert.ErrorIs(t, err, core.ErrNotFound)

	d, err := repo.Donor(ctx, "d1")
	require.NoError(t, err)
	assert.Zero(t, d.TotalGiven.Cents)
	assert.Empty(t, d.Campaigns)
	assert.Nil(t, d.LastDonationAt)
}

func TestInTxRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seedDonor(t, repo, "d1", "a@example.org")

	assert.Panics(t, func() {
		_ = repo.InTx(ctx, func(tx *Records) error {
			_, err := tx.ApplyDonation(ctx, "d1", core.FromMajor(7), epoch, epoch)
			require.NoError(t, err)
			panic("mid-transaction")
		})
	})

	d, err := repo.Donor(ctx, "d1")
	require.NoError(t, err)
	assert.Zero(t, d.TotalGiven.Cents)
}

func TestDonationFlagsAndListing(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seedDonor(t, repo, "d1", "a@example.org")
	seedDonor(t, repo, "d2", "b@example.org")

	gifts := []core.Donation{
		{ID: "g1", DonorID: "d1", Amount: core.FromMajor(10), Campaign: "Spring", Type: core.OneTime, Method: core.Cash, ReceivedAt: epoch},
		{ID: "g2", DonorID: "d1", Amount: core.FromMajor(20), Campaign: "Fall", Type: core.Recurring, Method: core.Wire, ReceivedAt: epoch.Add(time.Hour)},
		{ID: "g3", DonorID: "d2", Amount: core.FromMajor(30), Campaign: "Spring", Type: core.OneTime, Method: core.Gateway, ReceivedAt: epoch.Add(2 * time.Hour), SettlementRef: "st_1"},
	}
	for _, g := range gifts {
		require.NoError(t, repo.CreateDonation(ctx, g))
	}

	all, err := repo.ListDonations(ctx, core.DonationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "g3", all[0].ID)
	assert.Equal(t, "st_1", all[0].SettlementRef)

	spring, err := repo.ListDonations(ctx, core.DonationFilter{Campaign: "Spring"})
	require.NoError(t, err)
	assert.Len(t, spring, 2)

	d1Spring, err := repo.ListDonations(ctx, core.DonationFilter{DonorID: "d1", Campaign: "Spring"})
	require.NoError(t, err)
	require.Len(t, d1Spring, 1)
	assert.Equal(t, "g1", d1Spring[0].ID)

	receiptOnly, err := repo.MarkReceiptSent(ctx, "g2")
	require.NoError(t, err)
	assert.True(t, receiptOnly.TaxReceiptSent)
	assert.True(t, receiptOnly.Acknowledged)

	acked, err := repo.AcknowledgeDonation(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, acked.Acknowledged)
	assert.False(t, acked.TaxReceiptSent)

	receipted, err := repo.MarkReceiptSent(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, receipted.TaxReceiptSent)

	_, err = repo.AcknowledgeDonation(ctx, "nope")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = repo.MarkReceiptSent(ctx, "nope")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDonationRequiresExistingDonor(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.CreateDonation(context.Background(), core.Donation{
		ID: "g1", DonorID: "ghost", Amount: core.FromMajor(1), Campaign: "X",
		Type: core.OneTime, Method: core.Cash, ReceivedAt: epoch,
	})
	assert.Error(t, err)
}

func TestAggregates(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seedDonor(t, repo, "d1", "a@example.org")
	seedDonor(t, repo, "d2", "b@example.org")

	lastYear := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)
	thisYear := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, g := range []core.Donation{
		{ID: "g1", DonorID: "d1", Amount: core.FromMajor(100), Campaign: "Gala", Type: core.OneTime, Method: core.Check, ReceivedAt: lastYear},
		{ID: "g2", DonorID: "d1", Amount: core.FromMajor(300), Campaign: "Gala", Type: core.Recurring, Method: core.Check, ReceivedAt: thisYear},
		{ID: "g3", DonorID: "d2", Amount: core.FromMajor(50), Campaign: "Other", Type: core.OneTime, Method: core.Cash, ReceivedAt: thisYear},
	} {
		require.NoError(t, repo.CreateDonation(ctx, g))
	}

	totals, err := repo.CampaignTotals(ctx, "Gala")
	require.NoError(t, err)
	assert.Equal(t, CampaignTotals{
		Donations: 2,
		Total:     core.FromMajor(400),
		Largest:   core.FromMajor(300),
		Recurring: 1,
	}, totals)

	empty, err := repo.CampaignTotals(ctx, "gala")
	require.NoError(t, err)
	assert.Zero(t, empty.Donations)

	ids, err := repo.DonorIDsForYear(ctx, 2024)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"d1"}, ids)
	ids, err = repo.DonorIDsForYear(ctx, 2025)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"d1", "d2"}, ids)

	stats, err := repo.DonorStats(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)
	require.NotNil(t, stats.First)
	assert.True(t, stats.First.Equal(lastYear))

	none, err := repo.DonorStats(ctx, "d-none")
	require.NoError(t, err)
	assert.Zero(t, none.Count)
	assert.Nil(t, none.First)
}

func TestMajorGiftsAndTierTotals(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seedDonor(t, repo, "d1", "a@example.org")
	seedDonor(t, repo, "d2", "b@example.org")
	seedDonor(t, repo, "d3", "c@example.org")

	_, err := repo.ApplyDonation(ctx, "d1", core.FromMajor(60000), epoch, epoch)
	require.NoError(t, err)
	require.NoError(t, repo.SetDonorTier(ctx, "d1", core.Platinum, epoch))
	_, err = repo.ApplyDonation(ctx, "d2", core.FromMajor(10000), epoch, epoch)
	require.NoError(t, err)
	require.NoError(t, repo.SetDonorTier(ctx, "d2", core.Gold, epoch))

	major, err := repo.MajorGiftDonors(ctx, core.FromMajor(10000))
	require.NoError(t, err)
	require.Len(t, major, 2)
	assert.Equal(t, "d1", major[0].ID)
	assert.Equal(t, "d2", major[1].ID)

	gold, err := repo.ListDonors(ctx, core.DonorFilter{Tier: core.Gold})
	require.NoError(t, err)
	require.Len(t, gold, 1)
	assert.Equal(t, "d2", gold[0].ID)

	tiers, err := repo.TierTotals(ctx)
	require.NoError(t, err)
	byTier := map[core.Tier]TierTotal{}
	for _, tt := range tiers {
		byTier[tt.Tier] = tt
	}
	assert.Equal(t, 1, byTier[core.Platinum].Donors)
	assert.Equal(t, core.FromMajor(60000), byTier[core.Platinum].Total)
	assert.Equal(t, 1, byTier[core.Bronze].Donors)
	assert.Zero(t, byTier[core.Bronze].Total.Cents)
	_, hasSilver := byTier[core.Silver]
	assert.False(t, hasSilver)
}

func TestLedgerSyncState(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	seedDonor(t, repo, "d1", "a@example.org")
	for i, id := range []string{"g1", "g2"} {
		require.NoError(t, repo.CreateDonation(ctx, core.Donation{
			ID: id, DonorID: "d1", Amount: core.FromMajor(1), Campaign: "X",
			Type: core.OneTime, Method: core.Cash, ReceivedAt: epoch.Add(time.Duration(i) * time.Minute),
		}))
	}

	pending, err := repo.PendingLedgerDonations(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "g1", pending[0].ID)

	flipped, err := repo.MarkLedgerSynced(ctx, "g1", epoch)
	require.NoError(t, err)
	assert.True(t, flipped)
	flipped, err = repo.MarkLedgerSynced(ctx, "g1", epoch)
	require.NoError(t, err)
	assert.False(t, flipped)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.MarkLedgerError(ctx, "g2"))
	}
	pending, err = repo.PendingLedgerDonations(ctx, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestListCampaignsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	for _, c := range []core.Campaign{
		{ID: "c1", Name: "Old", StartDate: "2024-01-01", EndDate: "2024-02-01", Status: "active", CreatedAt: epoch},
		{ID: "c2", Name: "New", Goal: core.FromMajor(500), StartDate: "2025-01-01", EndDate: "2025-02-01", Status: "active", CreatedAt: epoch},
	} {
		require.NoError(t, repo.CreateCampaign(ctx, c))
	}

	list, err := repo.ListCampaigns(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "New", list[0].Name)
	assert.Equal(t, core.FromMajor(500), list[0].Goal)

	got, err := repo.Campaign(ctx, "Old")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)

	_, err = repo.Campaign(ctx, "old")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
