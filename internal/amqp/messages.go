package amqp

import (
	"encoding/json"
	"time"

	"donors/internal/core"
)

// DonationRecordedMessage announces a committed donation. Consumers look the
// donation up by ID; the remaining fields are for routing and logging.
type DonationRecordedMessage struct {
	DonationID  string    `json:"donation_id"`
	DonorID     string    `json:"donor_id"`
	AmountCents int64     `json:"amount_cents"`
	Campaign    string    `json:"campaign"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewDonationRecordedMessage builds the event for a stored donation.
func NewDonationRecordedMessage(d core.Donation) *DonationRecordedMessage {
	return &DonationRecordedMessage{
		DonationID:  d.ID,
		DonorID:     d.DonorID,
		AmountCents: d.Amount.Cents,
		Campaign:    d.Campaign,
		Timestamp:   time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DonationRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DonationRecordedMessageFromJSON parses a message body.
func DonationRecordedMessageFromJSON(data []byte) (*DonationRecordedMessage, error) {
	var msg DonationRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
