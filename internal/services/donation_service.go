package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"donors/internal/core"
	"donors/internal/storage"

	"github.com/google/uuid"
)

// Publisher announces committed donations. *amqp.Client implements it.
type Publisher interface {
	PublishDonationRecorded(ctx context.Context, d core.Donation) error
}

// DonationService records donations and keeps donor totals, campaign sets
// and tiers consistent with them.
type DonationService struct {
	storage   *storage.SQLiteRepository
	publisher Publisher
	now       func() time.Time
	newID     func() string
}

// NewDonationService builds the recorder. publisher may be nil, in which
// case no events are published.
func NewDonationService(storage *storage.SQLiteRepository, publisher Publisher) *DonationService {
	return &DonationService{
		storage:   storage,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// RecordDonationParams describes a gift to record. Zero Type and Method
// default to one_time and credit_card; a nil ReceivedAt means now.
type RecordDonationParams struct {
	DonorID         string
	Amount          core.Money
	Campaign        string
	Type            core.DonationType
	Method          core.PaymentMethod
	Notes           string
	ReferenceNumber string
	ReceivedAt      *time.Time
	SettlementRef   string
}

// Record stores the donation and applies it to the donor in one transaction.
func (s *DonationService) Record(ctx context.Context, p RecordDonationParams) (core.Donation, error) {
	now := s.now()
	d := core.Donation{
		ID:              s.newID(),
		DonorID:         p.DonorID,
		Amount:          p.Amount,
		Campaign:        p.Campaign,
		Type:            p.Type,
		Method:          p.Method,
		ReceivedAt:      now,
		Notes:           p.Notes,
		ReferenceNumber: p.ReferenceNumber,
		SettlementRef:   p.SettlementRef,
	}
	if d.Type == "" {
		d.Type = core.OneTime
	}
	if d.Method == "" {
		d.Method = core.CreditCard
	}
	if p.ReceivedAt != nil {
		d.ReceivedAt = p.ReceivedAt.UTC()
	}
	if err := d.Validate(); err != nil {
		return core.Donation{}, fmt.Errorf("record donation: %w", err)
	}

	var (
		oldTier, newTier core.Tier
		total            core.Money
	)
	err := s.storage.InTx(ctx, func(tx *storage.Records) error {
		donor, err := tx.Donor(ctx, d.DonorID)
		if err != nil {
			return err
		}
		oldTier = donor.Tier

		if err := tx.CreateDonation(ctx, d); err != nil {
			return err
		}
		if total, err = tx.ApplyDonation(ctx, d.DonorID, d.Amount, d.ReceivedAt, now); err != nil {
			return err
		}
		if err := tx.AddDonorCampaign(ctx, d.DonorID, d.Campaign); err != nil {
			return err
		}

		newTier = core.TierFor(total)
		if newTier != oldTier {
			return tx.SetDonorTier(ctx, d.DonorID, newTier, now)
		}
		return nil
	})
	if err != nil {
		return core.Donation{}, fmt.Errorf("record donation: %w", err)
	}

	slog.InfoContext(ctx, "Donation recorded",
		"donation_id", d.ID,
		"donor_id", d.DonorID,
		"amount_cents", d.Amount.Cents,
		"campaign", d.Campaign,
		"method", d.Method,
		"total_given_cents", total.Cents)
	if newTier != oldTier {
		slog.InfoContext(ctx, "Donor tier changed",
			"donor_id", d.DonorID,
			"from", oldTier,
			"to", newTier)
	}

	// The donation is committed; a failed publish is reconciled by the
	// worker's pending sweep.
	if err := s.publish(ctx, d); err != nil {
		slog.ErrorContext(ctx, "Failed to publish donation recorded message",
			"donation_id", d.ID, "error", err)
	}

	return d, nil
}

func (s *DonationService) publish(ctx context.Context, d core.Donation) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No publisher configured, skipping donation message")
		return nil
	}
	return s.publisher.PublishDonationRecorded(ctx, d)
}

// Acknowledge marks a donation as acknowledged. Repeating it is harmless.
func (s *DonationService) Acknowledge(ctx context.Context, id string) (core.Donation, error) {
	d, err := s.storage.AcknowledgeDonation(ctx, id)
	if err != nil {
		return core.Donation{}, err
	}
	slog.InfoContext(ctx, "Donation acknowledged", "donation_id", id)
	return d, nil
}

// SendReceipt marks the tax receipt as sent, which also acknowledges the donation.
func (s *DonationService) SendReceipt(ctx context.Context, id string) (core.Donation, error) {
	d, err := s.storage.MarkReceiptSent(ctx, id)
	if err != nil {
		return core.Donation{}, err
	}
	slog.InfoContext(ctx, "Tax receipt sent", "donation_id", id)
	return d, nil
}

// RecalculateTier re-derives the donor's tier from the stored total.
func (s *DonationService) RecalculateTier(ctx context.Context, donorID string) (core.Donor, error) {
	var donor core.Donor
	err := s.storage.InTx(ctx, func(tx *storage.Records) error {
		var err error
		if donor, err = tx.Donor(ctx, donorID); err != nil {
			return err
		}
		tier := core.TierFor(donor.TotalGiven)
		if tier == donor.Tier {
			return nil
		}
		if err := tx.SetDonorTier(ctx, donorID, tier, s.now()); err != nil {
			return err
		}
		slog.InfoContext(ctx, "Donor tier recalculated",
			"donor_id", donorID, "from", donor.Tier, "to", tier)
		donor, err = tx.Donor(ctx, donorID)
		return err
	})
	if err != nil {
		return core.Donor{}, fmt.Errorf("recalculate tier: %w", err)
	}
	return donor, nil
}

func (s *DonationService) GetDonation(ctx context.Context, id string) (core.Donation, error) {
	return s.storage.Donation(ctx, id)
}

func (s *DonationService) ListDonations(ctx context.Context, f core.DonationFilter) ([]core.Donation, error) {
	return s.storage.ListDonations(ctx, f)
}
