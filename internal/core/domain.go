package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Individual DonorType = "individual"
	Corporate  DonorType = "corporate"
	Foundation DonorType = "foundation"
)

const (
	OneTime   DonationType = "one_time"
	Recurring DonationType = "recurring"
)

const (
	CreditCard PaymentMethod = "credit_card"
	Check      PaymentMethod = "check"
	Wire       PaymentMethod = "wire"
	Crypto     PaymentMethod = "crypto"
	Cash       PaymentMethod = "cash"
	Stock      PaymentMethod = "stock"
	// Gateway marks donations charged through an external payment capability.
	Gateway PaymentMethod = "gateway"
)

// DateLayout is the layout of campaign start and end dates.
const DateLayout = "2006-01-02"

type (
	DonorType     string
	DonationType  string
	PaymentMethod string

	Donor struct {
		ID             string     `json:"id"`
		Name           string     `json:"name"`
		Email          string     `json:"email"`
		Phone          string     `json:"phone"`
		Type           DonorType  `json:"type"`
		Tier           Tier       `json:"tier"`
		TotalGiven     Money      `json:"total_given"`
		Campaigns      []string   `json:"campaigns"` // distinct, in order of first donation
		Notes          string     `json:"notes"`
		AssignedTo     string     `json:"assigned_to"`
		Address        string     `json:"address"`
		TaxID          string     `json:"tax_id"`
		CreatedAt      time.Time  `json:"created_at"`
		UpdatedAt      time.Time  `json:"updated_at"`
		LastDonationAt *time.Time `json:"last_donation_at"`
	}

	Donation struct {
		ID              string        `json:"id"`
		DonorID         string        `json:"donor_id"`
		Amount          Money         `json:"amount"`
		Campaign        string        `json:"campaign"`
		Type            DonationType  `json:"type"`
		Method          PaymentMethod `json:"method"`
		Acknowledged    bool          `json:"acknowledged"`
		TaxReceiptSent  bool          `json:"tax_receipt_sent"`
		ReceivedAt      time.Time     `json:"received_at"`
		Notes           string        `json:"notes"`
		ReferenceNumber string        `json:"reference_number"`
		SettlementRef   string        `json:"settlement_ref,omitempty"`
		LedgerSyncedAt  *time.Time    `json:"ledger_synced_at,omitempty"`
	}

	Campaign struct {
		ID          string    `json:"id"`
		Name        string    `json:"name"`
		Goal        Money     `json:"goal"`
		StartDate   string    `json:"start_date"`
		EndDate     string    `json:"end_date"`
		Description string    `json:"description"`
		Status      string    `json:"status"`
		CreatedAt   time.Time `json:"created_at"`
	}

	// DonorFilter narrows a donor listing; zero fields match everything.
	DonorFilter struct {
		Tier       Tier
		Type       DonorType
		AssignedTo string
	}

	// DonationFilter narrows a donation listing; zero fields match everything.
	DonationFilter struct {
		DonorID  string
		Campaign string
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyName           = errors.New("empty name")
	ErrEmptyEmail          = errors.New("empty email")
	ErrEmptyCampaign       = errors.New("empty campaign name")
	ErrInvalidDonorType    = errors.New("invalid donor type")
	ErrInvalidDonationType = errors.New("invalid donation type")
	ErrInvalidMethod       = errors.New("invalid payment method")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidTier         = errors.New("invalid tier")
)

func (t DonorType) Valid() bool {
	switch t {
	case Individual, Corporate, Foundation:
		return true
	}
	return false
}

func (t DonationType) Valid() bool {
	switch t {
	case OneTime, Recurring:
		return true
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case CreditCard, Check, Wire, Crypto, Cash, Stock, Gateway:
		return true
	}
	return false
}

// HasCampaign reports whether the donor has already given to the named campaign.
func (d Donor) HasCampaign(name string) bool {
	for _, c := range d.Campaigns {
		if c == name {
			return true
		}
	}
	return false
}

func (d Donor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(d.Email) == "" {
		return ErrEmptyEmail
	}
	if !d.Type.Valid() {
		return ErrInvalidDonorType
	}
	return nil
}

func (d Donation) Validate() error {
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(d.Campaign) == "" {
		return ErrEmptyCampaign
	}
	if !d.Type.Valid() {
		return ErrInvalidDonationType
	}
	if !d.Method.Valid() {
		return ErrInvalidMethod
	}
	return nil
}

func (c Campaign) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCampaign
	}
	if c.Goal.Cents < 0 {
		return ErrInvalidAmount
	}
	start, err := time.Parse(DateLayout, c.StartDate)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", ErrInvalidDate)
	}
	// An open-ended campaign has no end date.
	if c.EndDate == "" {
		return nil
	}
	end, err := time.Parse(DateLayout, c.EndDate)
	if err != nil {
		return fmt.Errorf("invalid end date: %w", ErrInvalidDate)
	}
	if end.Before(start) {
		return fmt.Errorf("end date must not be before start date: %w", ErrInvalidDate)
	}
	return nil
}
