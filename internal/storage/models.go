package storage

import "database/sql"

// Row types mirror the tables in migrations/. Timestamps are fixed-width
// UTC text so that lexical order equals chronological order.

type Donor struct {
	ID              string
	Name            string
	Email           string
	Phone           string
	Type            string
	Tier            string
	TotalGivenCents int64
	CampaignsJSON   string
	Notes           string
	AssignedTo      string
	Address         string
	TaxID           string
	CreatedAt       string
	UpdatedAt       string
	LastDonationAt  sql.NullString
}

type Donation struct {
	ID              string
	DonorID         string
	AmountCents     int64
	Campaign        string
	Type            string
	Method          string
	Acknowledged    bool
	TaxReceiptSent  bool
	ReceivedAt      string
	Notes           string
	ReferenceNumber string
	SettlementRef   string
	LedgerSyncedAt  sql.NullString
	LedgerAttempts  int64
}

type Campaign struct {
	ID          string
	Name        string
	GoalCents   int64
	StartDate   string
	EndDate     string
	Description string
	Status      string
	CreatedAt   string
}
