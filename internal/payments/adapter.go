// Package payments turns an external charge into a recorded donation.
package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"donors/internal/core"
	"donors/internal/services"
)

// Charger charges a payment method through an external gateway and returns
// the gateway's settlement reference. A failure that leaves the charge
// outcome unknown must wrap core.ErrInconsistentState rather than
// core.ErrGateway.
type Charger interface {
	Charge(ctx context.Context, amountMinor int64, paymentMethodToken, credential string) (settlementRef string, err error)
}

var errMissingSettlement = fmt.Errorf("gateway reported success without a settlement reference: %w", core.ErrInconsistentState)

// Recorder stores a donation. *services.DonationService implements it.
type Recorder interface {
	Record(ctx context.Context, p services.RecordDonationParams) (core.Donation, error)
}

// DonorLookup resolves donors before any money moves.
type DonorLookup interface {
	GetDonor(ctx context.Context, id string) (core.Donor, error)
}

// ChargeRequest is a gateway-charged gift.
type ChargeRequest struct {
	DonorID            string
	AmountMinor        int64
	Campaign           string
	PaymentMethodToken string
	Credential         string
	Type               core.DonationType
	Notes              string
}

type Adapter struct {
	charger  Charger
	recorder Recorder
	donors   DonorLookup
}

// NewAdapter wires the adapter. A nil charger means no gateway is configured
// and every charge fails with core.ErrConfiguration.
func NewAdapter(charger Charger, recorder Recorder, donors DonorLookup) *Adapter {
	return &Adapter{charger: charger, recorder: recorder, donors: donors}
}

// Configured reports whether a gateway is available.
func (a *Adapter) Configured() bool {
	return a.charger != nil
}

// ChargeAndRecord charges the payment method and records the settled amount
// as a gateway donation. The charge always completes before anything is
// written. If the write fails afterwards the returned error is a
// *core.ChargedNotRecordedError carrying the settlement reference.
func (a *Adapter) ChargeAndRecord(ctx context.Context, req ChargeRequest) (core.Donation, error) {
	if a.charger == nil {
		return core.Donation{}, fmt.Errorf("charge donation: no payment gateway: %w", core.ErrConfiguration)
	}
	amount := core.FromMinorUnits(req.AmountMinor)
	if err := amount.Validate(); err != nil {
		return core.Donation{}, fmt.Errorf("charge donation: %w", err)
	}
	if strings.TrimSpace(req.Campaign) == "" {
		return core.Donation{}, fmt.Errorf("charge donation: %w", core.ErrEmptyCampaign)
	}
	if req.Type != "" && !req.Type.Valid() {
		return core.Donation{}, fmt.Errorf("charge donation: %w", core.ErrInvalidDonationType)
	}
	if _, err := a.donors.GetDonor(ctx, req.DonorID); err != nil {
		return core.Donation{}, fmt.Errorf("charge donation: %w", err)
	}

	ref, err := a.charger.Charge(ctx, req.AmountMinor, req.PaymentMethodToken, req.Credential)
	if err == nil && ref == "" {
		err = errMissingSettlement
	}
	if errors.Is(err, core.ErrInconsistentState) {
		// Money may have moved; the caller must not retry.
		slog.ErrorContext(ctx, "Gateway charge outcome unknown, reconcile manually",
			"donor_id", req.DonorID,
			"amount_cents", req.AmountMinor,
			"error", err)
		return core.Donation{}, &core.ChargedNotRecordedError{
			DonorID: req.DonorID,
			Amount:  amount,
			Err:     err,
		}
	}
	if err != nil {
		if errors.Is(err, core.ErrGateway) {
			return core.Donation{}, fmt.Errorf("charge donor %s: %w", req.DonorID, err)
		}
		return core.Donation{}, fmt.Errorf("charge donor %s: %w: %w", req.DonorID, core.ErrGateway, err)
	}

	slog.InfoContext(ctx, "Gateway charge settled",
		"donor_id", req.DonorID,
		"amount_cents", req.AmountMinor,
		"settlement_ref", ref)

	d, err := a.recorder.Record(ctx, services.RecordDonationParams{
		DonorID:       req.DonorID,
		Amount:        amount,
		Campaign:      req.Campaign,
		Type:          req.Type,
		Method:        core.Gateway,
		Notes:         req.Notes,
		SettlementRef: ref,
	})
	if err != nil {
		slog.ErrorContext(ctx, "Charged donation could not be recorded, reconcile manually",
			"donor_id", req.DonorID,
			"amount_cents", req.AmountMinor,
			"settlement_ref", ref,
			"error", err)
		return core.Donation{}, &core.ChargedNotRecordedError{
			SettlementRef: ref,
			DonorID:       req.DonorID,
			Amount:        amount,
			Err:           err,
		}
	}
	return d, nil
}
