package sheets

import (
	"context"

	"donors/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerWriter exports recorded donations to an external ledger.
	// Appending a donation that is already present returns its existing
	// row reference instead of writing it twice.
	LedgerWriter interface {
		AppendDonation(ctx context.Context, d core.Donation) (rowRef string, err error)
	}
)
