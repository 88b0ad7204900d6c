package core

import "time"

// LifetimeValue summarises one donor's giving history.
type LifetimeValue struct {
	DonorID       string     `json:"donor_id"`
	Name          string     `json:"name"`
	Tier          Tier       `json:"tier,omitempty"`
	LTV           float64    `json:"ltv"`
	DonationCount int        `json:"donation_count"`
	AverageGift   float64    `json:"average_gift"`
	FirstDonation *time.Time `json:"first_donation,omitempty"`
	LastDonation  *time.Time `json:"last_donation,omitempty"`
	Campaigns     []string   `json:"campaigns"`
}

// MajorGift is one row of the major-gift listing.
type MajorGift struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Type         DonorType  `json:"type"`
	Tier         Tier       `json:"tier"`
	TotalGiven   float64    `json:"total_given"`
	LastDonation *time.Time `json:"last_donation"`
}

// CampaignSummary aggregates the donations made to one campaign name.
type CampaignSummary struct {
	Campaign    string  `json:"campaign"`
	Goal        float64 `json:"goal"`
	TotalRaised float64 `json:"total_raised"`
	ProgressPct float64 `json:"progress_pct"`
	// DonorCount counts donations, not distinct donors.
	DonorCount      int     `json:"donor_count"`
	AverageGift     float64 `json:"average_gift"`
	LargestGift     float64 `json:"largest_gift"`
	RecurringDonors int     `json:"recurring_donors"`
}

// RetentionReport compares the donors of the current and the prior calendar year.
type RetentionReport struct {
	Year           int     `json:"year"`
	RetainedDonors int     `json:"retained_donors"`
	LapsedDonors   int     `json:"lapsed_donors"`
	NewDonors      int     `json:"new_donors"`
	RetentionRate  float64 `json:"retention_rate"`
}

// TierStats is the donor count and summed giving of one tier.
type TierStats struct {
	Count      int     `json:"count"`
	TotalGiven float64 `json:"total_given"`
}

// TierSummary maps each populated tier to its stats.
type TierSummary map[Tier]TierStats
