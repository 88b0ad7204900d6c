package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced donor, donation or campaign does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique key (donor email, campaign name) is already taken.
	ErrConflict = errors.New("conflict")
	// ErrConfiguration is returned when a required external capability is not configured.
	ErrConfiguration = errors.New("configuration error")
	// ErrGateway is returned when an external charge attempt fails.
	ErrGateway = errors.New("payment gateway error")
	// ErrInconsistentState marks a charge that succeeded without a matching local record.
	ErrInconsistentState = errors.New("inconsistent state")
)

var validationErrors = []error{
	ErrInvalidAmount,
	ErrEmptyName,
	ErrEmptyEmail,
	ErrEmptyCampaign,
	ErrInvalidDonorType,
	ErrInvalidDonationType,
	ErrInvalidMethod,
	ErrInvalidDate,
	ErrInvalidTier,
}

// IsValidation reports whether err is caused by invalid caller input.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ChargedNotRecordedError is returned when the gateway settled a charge but the
// donation could not be written. It needs manual reconciliation using SettlementRef.
type ChargedNotRecordedError struct {
	SettlementRef string
	DonorID       string
	Amount        Money
	Err           error
}

func (e *ChargedNotRecordedError) Error() string {
	return fmt.Sprintf("charged but not recorded (settlement %s, donor %s, amount %s): %v",
		e.SettlementRef, e.DonorID, e.Amount, e.Err)
}

func (e *ChargedNotRecordedError) Unwrap() []error {
	return []error{ErrInconsistentState, e.Err}
}
