package storage

import (
	"context"
	"database/sql"
	"strings"
)

// Donors

const donorColumns = `id, name, email, phone, type, tier, total_given_cents,
    (SELECT json_group_array(dc.campaign ORDER BY dc.position)
       FROM donor_campaigns dc WHERE dc.donor_id = donors.id) AS campaigns,
    notes, assigned_to, address, tax_id, created_at, updated_at, last_donation_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDonor(row rowScanner) (Donor, error) {
	var i Donor
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Email,
		&i.Phone,
		&i.Type,
		&i.Tier,
		&i.TotalGivenCents,
		&i.CampaignsJSON,
		&i.Notes,
		&i.AssignedTo,
		&i.Address,
		&i.TaxID,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.LastDonationAt,
	)
	return i, err
}

func scanDonors(rows *sql.Rows) ([]Donor, error) {
	defer rows.Close()
	var items []Donor
	for rows.Next() {
		i, err := scanDonor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createDonor = `-- name: CreateDonor :exec
INSERT INTO donors (
    id, name, email, phone, type, tier, total_given_cents,
    notes, assigned_to, address, tax_id, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?, ?)`

type CreateDonorParams struct {
	ID         string
	Name       string
	Email      string
	Phone      string
	Type       string
	Tier       string
	Notes      string
	AssignedTo string
	Address    string
	TaxID      string
	CreatedAt  string
}

func (q *Queries) CreateDonor(ctx context.Context, arg CreateDonorParams) error {
	_, err := q.db.ExecContext(ctx, createDonor,
		arg.ID,
		arg.Name,
		arg.Email,
		arg.Phone,
		arg.Type,
		arg.Tier,
		arg.Notes,
		arg.AssignedTo,
		arg.Address,
		arg.TaxID,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	return err
}

const getDonor = `-- name: GetDonor :one
SELECT ` + donorColumns + ` FROM donors WHERE id = ?`

func (q *Queries) GetDonor(ctx context.Context, id string) (Donor, error) {
	return scanDonor(q.db.QueryRowContext(ctx, getDonor, id))
}

const getDonorByEmail = `-- name: GetDonorByEmail :one
SELECT ` + donorColumns + ` FROM donors WHERE email = ?`

func (q *Queries) GetDonorByEmail(ctx context.Context, email string) (Donor, error) {
	return scanDonor(q.db.QueryRowContext(ctx, getDonorByEmail, email))
}

// ListDonorsParams filters are ANDed; empty fields are ignored.
type ListDonorsParams struct {
	Tier       string
	Type       string
	AssignedTo string
}

func (q *Queries) ListDonors(ctx context.Context, arg ListDonorsParams) ([]Donor, error) {
	var (
		where []string
		args  []interface{}
	)
	if arg.Tier != "" {
		where = append(where, "tier = ?")
		args = append(args, arg.Tier)
	}
	if arg.Type != "" {
		where = append(where, "type = ?")
		args = append(args, arg.Type)
	}
	if arg.AssignedTo != "" {
		where = append(where, "assigned_to = ?")
		args = append(args, arg.AssignedTo)
	}
	query := "SELECT " + donorColumns + " FROM donors"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanDonors(rows)
}

const listMajorGiftDonors = `-- name: ListMajorGiftDonors :many
SELECT ` + donorColumns + ` FROM donors
WHERE total_given_cents >= ?
ORDER BY total_given_cents DESC, id`

func (q *Queries) ListMajorGiftDonors(ctx context.Context, thresholdCents int64) ([]Donor, error) {
	rows, err := q.db.QueryContext(ctx, listMajorGiftDonors, thresholdCents)
	if err != nil {
		return nil, err
	}
	return scanDonors(rows)
}

const applyDonationToDonor = `-- name: ApplyDonationToDonor :one
UPDATE donors
SET total_given_cents = total_given_cents + ?,
    last_donation_at = max(COALESCE(last_donation_at, ''), ?),
    updated_at = ?
WHERE id = ?
RETURNING total_given_cents`

type ApplyDonationToDonorParams struct {
	ID          string
	AmountCents int64
	ReceivedAt  string
	UpdatedAt   string
}

// ApplyDonationToDonor adds the amount to the running total and returns the new total.
func (q *Queries) ApplyDonationToDonor(ctx context.Context, arg ApplyDonationToDonorParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, applyDonationToDonor,
		arg.AmountCents,
		arg.ReceivedAt,
		arg.UpdatedAt,
		arg.ID,
	)
	var total int64
	err := row.Scan(&total)
	return total, err
}

const updateDonorTier = `-- name: UpdateDonorTier :execrows
UPDATE donors SET tier = ?, updated_at = ? WHERE id = ?`

type UpdateDonorTierParams struct {
	ID        string
	Tier      string
	UpdatedAt string
}

func (q *Queries) UpdateDonorTier(ctx context.Context, arg UpdateDonorTierParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateDonorTier, arg.Tier, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const addDonorCampaign = `-- name: AddDonorCampaign :exec
INSERT OR IGNORE INTO donor_campaigns (donor_id, campaign, position)
SELECT ?, ?, COUNT(*) FROM donor_campaigns WHERE donor_id = ?`

// AddDonorCampaign appends the campaign to the donor's set unless already present.
func (q *Queries) AddDonorCampaign(ctx context.Context, donorID, campaign string) error {
	_, err := q.db.ExecContext(ctx, addDonorCampaign, donorID, campaign, donorID)
	return err
}

const tierTotals = `-- name: TierTotals :many
SELECT tier, COUNT(*) AS donors, COALESCE(SUM(total_given_cents), 0) AS total_cents
FROM donors
GROUP BY tier`

type TierTotalsRow struct {
	Tier       string
	Donors     int64
	TotalCents int64
}

func (q *Queries) TierTotals(ctx context.Context) ([]TierTotalsRow, error) {
	rows, err := q.db.QueryContext(ctx, tierTotals)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TierTotalsRow
	for rows.Next() {
		var i TierTotalsRow
		if err := rows.Scan(&i.Tier, &i.Donors, &i.TotalCents); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Donations

const donationColumns = `id, donor_id, amount_cents, campaign, type, method,
    acknowledged, tax_receipt_sent, received_at, notes, reference_number,
    settlement_ref, ledger_synced_at, ledger_attempts`

func scanDonation(row rowScanner) (Donation, error) {
	var i Donation
	err := row.Scan(
		&i.ID,
		&i.DonorID,
		&i.AmountCents,
		&i.Campaign,
		&i.Type,
		&i.Method,
		&i.Acknowledged,
		&i.TaxReceiptSent,
		&i.ReceivedAt,
		&i.Notes,
		&i.ReferenceNumber,
		&i.SettlementRef,
		&i.LedgerSyncedAt,
		&i.LedgerAttempts,
	)
	return i, err
}

func scanDonations(rows *sql.Rows) ([]Donation, error) {
	defer rows.Close()
	var items []Donation
	for rows.Next() {
		i, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createDonation = `-- name: CreateDonation :exec
INSERT INTO donations (
    id, donor_id, amount_cents, campaign, type, method,
    received_at, notes, reference_number, settlement_ref
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type CreateDonationParams struct {
	ID              string
	DonorID         string
	AmountCents     int64
	Campaign        string
	Type            string
	Method          string
	ReceivedAt      string
	Notes           string
	ReferenceNumber string
	SettlementRef   string
}

func (q *Queries) CreateDonation(ctx context.Context, arg CreateDonationParams) error {
	_, err := q.db.ExecContext(ctx, createDonation,
		arg.ID,
		arg.DonorID,
		arg.AmountCents,
		arg.Campaign,
		arg.Type,
		arg.Method,
		arg.ReceivedAt,
		arg.Notes,
		arg.ReferenceNumber,
		arg.SettlementRef,
	)
	return err
}

const getDonation = `-- name: GetDonation :one
SELECT ` + donationColumns + ` FROM donations WHERE id = ?`

func (q *Queries) GetDonation(ctx context.Context, id string) (Donation, error) {
	return scanDonation(q.db.QueryRowContext(ctx, getDonation, id))
}

type ListDonationsParams struct {
	DonorID  string
	Campaign string
}

// ListDonations returns the newest donations first.
func (q *Queries) ListDonations(ctx context.Context, arg ListDonationsParams) ([]Donation, error) {
	var (
		where []string
		args  []interface{}
	)
	if arg.DonorID != "" {
		where = append(where, "donor_id = ?")
		args = append(args, arg.DonorID)
	}
	if arg.Campaign != "" {
		where = append(where, "campaign = ?")
		args = append(args, arg.Campaign)
	}
	query := "SELECT " + donationColumns + " FROM donations"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY received_at DESC, id"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanDonations(rows)
}

const acknowledgeDonation = `-- name: AcknowledgeDonation :execrows
UPDATE donations SET acknowledged = 1 WHERE id = ?`

func (q *Queries) AcknowledgeDonation(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, acknowledgeDonation, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const markReceiptSent = `-- name: MarkReceiptSent :execrows
UPDATE donations SET tax_receipt_sent = 1, acknowledged = 1 WHERE id = ?`

func (q *Queries) MarkReceiptSent(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, markReceiptSent, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const donorDonationStats = `-- name: DonorDonationStats :one
SELECT COUNT(*), MIN(received_at), MAX(received_at)
FROM donations
WHERE donor_id = ?`

type DonorDonationStatsRow struct {
	Count int64
	First sql.NullString
	Last  sql.NullString
}

func (q *Queries) DonorDonationStats(ctx context.Context, donorID string) (DonorDonationStatsRow, error) {
	var i DonorDonationStatsRow
	err := q.db.QueryRowContext(ctx, donorDonationStats, donorID).Scan(&i.Count, &i.First, &i.Last)
	return i, err
}

const campaignTotals = `-- name: CampaignTotals :one
SELECT COUNT(*),
       COALESCE(SUM(amount_cents), 0),
       COALESCE(MAX(amount_cents), 0),
       COUNT(CASE WHEN type = 'recurring' THEN 1 END)
FROM donations
WHERE campaign = ?`

type CampaignTotalsRow struct {
	Donations  int64
	TotalCents int64
	MaxCents   int64
	Recurring  int64
}

func (q *Queries) CampaignTotals(ctx context.Context, campaign string) (CampaignTotalsRow, error) {
	var i CampaignTotalsRow
	err := q.db.QueryRowContext(ctx, campaignTotals, campaign).Scan(
		&i.Donations,
		&i.TotalCents,
		&i.MaxCents,
		&i.Recurring,
	)
	return i, err
}

const donorIDsForYear = `-- name: DonorIDsForYear :many
SELECT DISTINCT donor_id FROM donations WHERE substr(received_at, 1, 4) = ?`

func (q *Queries) DonorIDsForYear(ctx context.Context, year string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, donorIDsForYear, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getPendingLedgerDonations = `-- name: GetPendingLedgerDonations :many
SELECT ` + donationColumns + ` FROM donations
WHERE ledger_synced_at IS NULL AND ledger_attempts < ?
ORDER BY received_at, id
LIMIT ?`

type GetPendingLedgerDonationsParams struct {
	MaxAttempts int64
	Limit       int64
}

func (q *Queries) GetPendingLedgerDonations(ctx context.Context, arg GetPendingLedgerDonationsParams) ([]Donation, error) {
	rows, err := q.db.QueryContext(ctx, getPendingLedgerDonations, arg.MaxAttempts, arg.Limit)
	if err != nil {
		return nil, err
	}
	return scanDonations(rows)
}

const markDonationLedgerSynced = `-- name: MarkDonationLedgerSynced :execrows
UPDATE donations SET ledger_synced_at = ? WHERE id = ? AND ledger_synced_at IS NULL`

func (q *Queries) MarkDonationLedgerSynced(ctx context.Context, id, syncedAt string) (int64, error) {
	result, err := q.db.ExecContext(ctx, markDonationLedgerSynced, syncedAt, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const markDonationLedgerError = `-- name: MarkDonationLedgerError :exec
UPDATE donations SET ledger_attempts = ledger_attempts + 1 WHERE id = ?`

func (q *Queries) MarkDonationLedgerError(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, markDonationLedgerError, id)
	return err
}

// Campaigns

const campaignColumns = `id, name, goal_cents, start_date, end_date, description, status, created_at`

func scanCampaign(row rowScanner) (Campaign, error) {
	var i Campaign
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.GoalCents,
		&i.StartDate,
		&i.EndDate,
		&i.Description,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}

const createCampaign = `-- name: CreateCampaign :exec
INSERT INTO campaigns (id, name, goal_cents, start_date, end_date, description, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

type CreateCampaignParams struct {
	ID          string
	Name        string
	GoalCents   int64
	StartDate   string
	EndDate     string
	Description string
	Status      string
	CreatedAt   string
}

func (q *Queries) CreateCampaign(ctx context.Context, arg CreateCampaignParams) error {
	_, err := q.db.ExecContext(ctx, createCampaign,
		arg.ID,
		arg.Name,
		arg.GoalCents,
		arg.StartDate,
		arg.EndDate,
		arg.Description,
		arg.Status,
		arg.CreatedAt,
	)
	return err
}

const getCampaignByName = `-- name: GetCampaignByName :one
SELECT ` + campaignColumns + ` FROM campaigns WHERE name = ?`

func (q *Queries) GetCampaignByName(ctx context.Context, name string) (Campaign, error) {
	return scanCampaign(q.db.QueryRowContext(ctx, getCampaignByName, name))
}

const listCampaigns = `-- name: ListCampaigns :many
SELECT ` + campaignColumns + ` FROM campaigns ORDER BY start_date DESC, name`

func (q *Queries) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	rows, err := q.db.QueryContext(ctx, listCampaigns)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Campaign
	for rows.Next() {
		i, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
