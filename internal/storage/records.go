package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"donors/internal/core"
)

// TimeLayout is the stored timestamp format. Fixed width keeps text
// ordering chronological and the year in the first four characters.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Records exposes the store in terms of core types.
type Records struct {
	q *Queries
}

// DonorStats is the donation count and date range of one donor.
type DonorStats struct {
	Count int
	First *time.Time
	Last  *time.Time
}

// CampaignTotals aggregates the donations recorded against one campaign name.
type CampaignTotals struct {
	Donations int
	Total     core.Money
	Largest   core.Money
	Recurring int
}

// TierTotal is the donor count and giving of one tier.
type TierTotal struct {
	Tier   core.Tier
	Donors int
	Total  core.Money
}

func toDonor(d Donor) (core.Donor, error) {
	out := core.Donor{
		ID:         d.ID,
		Name:       d.Name,
		Email:      d.Email,
		Phone:      d.Phone,
		Type:       core.DonorType(d.Type),
		Tier:       core.Tier(d.Tier),
		TotalGiven: core.FromMinorUnits(d.TotalGivenCents),
		Campaigns:  []string{},
		Notes:      d.Notes,
		AssignedTo: d.AssignedTo,
		Address:    d.Address,
		TaxID:      d.TaxID,
	}
	if d.CampaignsJSON != "" {
		if err := json.Unmarshal([]byte(d.CampaignsJSON), &out.Campaigns); err != nil {
			return core.Donor{}, fmt.Errorf("decode campaigns of donor %s: %w", d.ID, err)
		}
	}
	var err error
	if out.CreatedAt, err = parseTime(d.CreatedAt); err != nil {
		return core.Donor{}, err
	}
	if out.UpdatedAt, err = parseTime(d.UpdatedAt); err != nil {
		return core.Donor{}, err
	}
	if out.LastDonationAt, err = parseNullTime(d.LastDonationAt); err != nil {
		return core.Donor{}, err
	}
	return out, nil
}

func toDonors(rows []Donor) ([]core.Donor, error) {
	out := make([]core.Donor, 0, len(rows))
	for _, r := range rows {
		d, err := toDonor(r)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func toDonation(d Donation) (core.Donation, error) {
	received, err := parseTime(d.ReceivedAt)
	if err != nil {
		return core.Donation{}, err
	}
	synced, err := parseNullTime(d.LedgerSyncedAt)
	if err != nil {
		return core.Donation{}, err
	}
	return core.Donation{
		ID:              d.ID,
		DonorID:         d.DonorID,
		Amount:          core.FromMinorUnits(d.AmountCents),
		Campaign:        d.Campaign,
		Type:            core.DonationType(d.Type),
		Method:          core.PaymentMethod(d.Method),
		Acknowledged:    d.Acknowledged,
		TaxReceiptSent:  d.TaxReceiptSent,
		ReceivedAt:      received,
		Notes:           d.Notes,
		ReferenceNumber: d.ReferenceNumber,
		SettlementRef:   d.SettlementRef,
		LedgerSyncedAt:  synced,
	}, nil
}

func toDonations(rows []Donation) ([]core.Donation, error) {
	out := make([]core.Donation, 0, len(rows))
	for _, r := range rows {
		d, err := toDonation(r)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func toCampaign(c Campaign) (core.Campaign, error) {
	created, err := parseTime(c.CreatedAt)
	if err != nil {
		return core.Campaign{}, err
	}
	return core.Campaign{
		ID:          c.ID,
		Name:        c.Name,
		Goal:        core.FromMinorUnits(c.GoalCents),
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		Description: c.Description,
		Status:      c.Status,
		CreatedAt:   created,
	}, nil
}

// Donors

func (r *Records) CreateDonor(ctx context.Context, d core.Donor) error {
	err := r.q.CreateDonor(ctx, CreateDonorParams{
		ID:         d.ID,
		Name:       d.Name,
		Email:      d.Email,
		Phone:      d.Phone,
		Type:       string(d.Type),
		Tier:       string(d.Tier),
		Notes:      d.Notes,
		AssignedTo: d.AssignedTo,
		Address:    d.Address,
		TaxID:      d.TaxID,
		CreatedAt:  formatTime(d.CreatedAt),
	})
	return mapErr(err, "create donor")
}

func (r *Records) Donor(ctx context.Context, id string) (core.Donor, error) {
	row, err := r.q.GetDonor(ctx, id)
	if err != nil {
		return core.Donor{}, mapErr(err, "get donor "+id)
	}
	return toDonor(row)
}

func (r *Records) DonorByEmail(ctx context.Context, email string) (core.Donor, error) {
	row, err := r.q.GetDonorByEmail(ctx, email)
	if err != nil {
		return core.Donor{}, mapErr(err, "get donor by email")
	}
	return toDonor(row)
}

func (r *Records) ListDonors(ctx context.Context, f core.DonorFilter) ([]core.Donor, error) {
	rows, err := r.q.ListDonors(ctx, ListDonorsParams{
		Tier:       string(f.Tier),
		Type:       string(f.Type),
		AssignedTo: f.AssignedTo,
	})
	if err != nil {
		return nil, mapErr(err, "list donors")
	}
	return toDonors(rows)
}

// MajorGiftDonors returns donors with a total at or above threshold, largest first.
func (r *Records) MajorGiftDonors(ctx context.Context, threshold core.Money) ([]core.Donor, error) {
	rows, err := r.q.ListMajorGiftDonors(ctx, threshold.Cents)
	if err != nil {
		return nil, mapErr(err, "list major gift donors")
	}
	return toDonors(rows)
}

// ApplyDonation adds amount to the donor's total and moves last_donation_at
// forward to receivedAt if it is later. It returns the new total.
func (r *Records) ApplyDonation(ctx context.Context, donorID string, amount core.Money, receivedAt, now time.Time) (core.Money, error) {
	total, err := r.q.ApplyDonationToDonor(ctx, ApplyDonationToDonorParams{
		ID:          donorID,
		AmountCents: amount.Cents,
		ReceivedAt:  formatTime(receivedAt),
		UpdatedAt:   formatTime(now),
	})
	if err != nil {
		return core.Money{}, mapErr(err, "apply donation to donor "+donorID)
	}
	return core.FromMinorUnits(total), nil
}

func (r *Records) AddDonorCampaign(ctx context.Context, donorID, campaign string) error {
	return mapErr(r.q.AddDonorCampaign(ctx, donorID, campaign), "add donor campaign")
}

func (r *Records) SetDonorTier(ctx context.Context, donorID string, tier core.Tier, now time.Time) error {
	n, err := r.q.UpdateDonorTier(ctx, UpdateDonorTierParams{
		ID:        donorID,
		Tier:      string(tier),
		UpdatedAt: formatTime(now),
	})
	if err != nil {
		return mapErr(err, "update donor tier")
	}
	if n == 0 {
		return fmt.Errorf("update donor tier %s: %w", donorID, core.ErrNotFound)
	}
	return nil
}

func (r *Records) TierTotals(ctx context.Context) ([]TierTotal, error) {
	rows, err := r.q.TierTotals(ctx)
	if err != nil {
		return nil, mapErr(err, "tier totals")
	}
	out := make([]TierTotal, 0, len(rows))
	for _, row := range rows {
		out = append(out, TierTotal{
			Tier:   core.Tier(row.Tier),
			Donors: int(row.Donors),
			Total:  core.FromMinorUnits(row.TotalCents),
		})
	}
	return out, nil
}

// Donations

func (r *Records) CreateDonation(ctx context.Context, d core.Donation) error {
	err := r.q.CreateDonation(ctx, CreateDonationParams{
		ID:              d.ID,
		DonorID:         d.DonorID,
		AmountCents:     d.Amount.Cents,
		Campaign:        d.Campaign,
		Type:            string(d.Type),
		Method:          string(d.Method),
		ReceivedAt:      formatTime(d.ReceivedAt),
		Notes:           d.Notes,
		ReferenceNumber: d.ReferenceNumber,
		SettlementRef:   d.SettlementRef,
	})
	return mapErr(err, "create donation")
}

func (r *Records) Donation(ctx context.Context, id string) (core.Donation, error) {
	row, err := r.q.GetDonation(ctx, id)
	if err != nil {
		return core.Donation{}, mapErr(err, "get donation "+id)
	}
	return toDonation(row)
}

func (r *Records) ListDonations(ctx context.Context, f core.DonationFilter) ([]core.Donation, error) {
	rows, err := r.q.ListDonations(ctx, ListDonationsParams{
		DonorID:  f.DonorID,
		Campaign: f.Campaign,
	})
	if err != nil {
		return nil, mapErr(err, "list donations")
	}
	return toDonations(rows)
}

// AcknowledgeDonation sets the acknowledged flag and returns the updated donation.
func (r *Records) AcknowledgeDonation(ctx context.Context, id string) (core.Donation, error) {
	n, err := r.q.AcknowledgeDonation(ctx, id)
	if err != nil {
		return core.Donation{}, mapErr(err, "acknowledge donation")
	}
	if n == 0 {
		return core.Donation{}, fmt.Errorf("acknowledge donation %s: %w", id, core.ErrNotFound)
	}
	return r.Donation(ctx, id)
}

// MarkReceiptSent sets the tax-receipt flag, which implies acknowledgement,
// and returns the updated donation.
func (r *Records) MarkReceiptSent(ctx context.Context, id string) (core.Donation, error) {
	n, err := r.q.MarkReceiptSent(ctx, id)
	if err != nil {
		return core.Donation{}, mapErr(err, "mark receipt sent")
	}
	if n == 0 {
		return core.Donation{}, fmt.Errorf("mark receipt sent %s: %w", id, core.ErrNotFound)
	}
	return r.Donation(ctx, id)
}

func (r *Records) DonorStats(ctx context.Context, donorID string) (DonorStats, error) {
	row, err := r.q.DonorDonationStats(ctx, donorID)
	if err != nil {
		return DonorStats{}, mapErr(err, "donor donation stats")
	}
	stats := DonorStats{Count: int(row.Count)}
	if stats.First, err = parseNullTime(row.First); err != nil {
		return DonorStats{}, err
	}
	if stats.Last, err = parseNullTime(row.Last); err != nil {
		return DonorStats{}, err
	}
	return stats, nil
}

func (r *Records) CampaignTotals(ctx context.Context, campaign string) (CampaignTotals, error) {
	row, err := r.q.CampaignTotals(ctx, campaign)
	if err != nil {
		return CampaignTotals{}, mapErr(err, "campaign totals")
	}
	return CampaignTotals{
		Donations: int(row.Donations),
		Total:     core.FromMinorUnits(row.TotalCents),
		Largest:   core.FromMinorUnits(row.MaxCents),
		Recurring: int(row.Recurring),
	}, nil
}

// DonorIDsForYear returns the distinct donors with a donation received in year (UTC).
func (r *Records) DonorIDsForYear(ctx context.Context, year int) ([]string, error) {
	ids, err := r.q.DonorIDsForYear(ctx, fmt.Sprintf("%04d", year))
	if err != nil {
		return nil, mapErr(err, "donors for year "+strconv.Itoa(year))
	}
	return ids, nil
}

// PendingLedgerDonations returns donations not yet exported to the ledger,
// oldest first, skipping those that failed maxAttempts times.
func (r *Records) PendingLedgerDonations(ctx context.Context, limit, maxAttempts int) ([]core.Donation, error) {
	rows, err := r.q.GetPendingLedgerDonations(ctx, GetPendingLedgerDonationsParams{
		MaxAttempts: int64(maxAttempts),
		Limit:       int64(limit),
	})
	if err != nil {
		return nil, mapErr(err, "pending ledger donations")
	}
	return toDonations(rows)
}

// MarkLedgerSynced reports whether this call flipped the donation to synced.
func (r *Records) MarkLedgerSynced(ctx context.Context, id string, at time.Time) (bool, error) {
	n, err := r.q.MarkDonationLedgerSynced(ctx, id, formatTime(at))
	if err != nil {
		return false, mapErr(err, "mark ledger synced")
	}
	return n > 0, nil
}

func (r *Records) MarkLedgerError(ctx context.Context, id string) error {
	return mapErr(r.q.MarkDonationLedgerError(ctx, id), "mark ledger error")
}

// Campaigns

func (r *Records) CreateCampaign(ctx context.Context, c core.Campaign) error {
	err := r.q.CreateCampaign(ctx, CreateCampaignParams{
		ID:          c.ID,
		Name:        c.Name,
		GoalCents:   c.Goal.Cents,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		Description: c.Description,
		Status:      c.Status,
		CreatedAt:   formatTime(c.CreatedAt),
	})
	return mapErr(err, "create campaign")
}

func (r *Records) Campaign(ctx context.Context, name string) (core.Campaign, error) {
	row, err := r.q.GetCampaignByName(ctx, name)
	if err != nil {
		return core.Campaign{}, mapErr(err, "get campaign "+name)
	}
	return toCampaign(row)
}

func (r *Records) ListCampaigns(ctx context.Context) ([]core.Campaign, error) {
	rows, err := r.q.ListCampaigns(ctx)
	if err != nil {
		return nil, mapErr(err, "list campaigns")
	}
	out := make([]core.Campaign, 0, len(rows))
	for _, row := range rows {
		c, err := toCampaign(row)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
