package http

import (
	"net/http"

	"donors/internal/core"
	"donors/internal/log"
	"donors/internal/payments"
	"donors/internal/services"
)

type recordDonationRequest struct {
	DonorID         string             `json:"donor_id"`
	Amount          core.Money         `json:"amount"`
	Campaign        string             `json:"campaign"`
	Type            core.DonationType  `json:"type"`
	Method          core.PaymentMethod `json:"method"`
	Notes           string             `json:"notes"`
	ReferenceNumber string             `json:"reference_number"`
	ReceivedAt      string             `json:"received_at"`
}

func (s *Server) handleRecordDonation(w http.ResponseWriter, r *http.Request) {
	var req recordDonationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	receivedAt, err := parseTimestamp(req.ReceivedAt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// Gateway donations are only created by a settled charge.
	if req.Method == core.Gateway {
		writeErrorMessage(w, http.StatusUnprocessableEntity, log.ErrorTypeValidation,
			"method gateway is reserved for POST /charges")
		return
	}

	d, err := s.svc.Donations.Record(r.Context(), services.RecordDonationParams{
		DonorID:         req.DonorID,
		Amount:          req.Amount,
		Campaign:        req.Campaign,
		Type:            req.Type,
		Method:          req.Method,
		Notes:           req.Notes,
		ReferenceNumber: req.ReferenceNumber,
		ReceivedAt:      receivedAt,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleGetDonation(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.svc.Donations.GetDonation(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleListDonations filters on the donor_id and campaign query parameters.
func (s *Server) handleListDonations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := s.svc.Donations.ListDonations(r.Context(), core.DonationFilter{
		DonorID:  q.Get("donor_id"),
		Campaign: q.Get("campaign"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []core.Donation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.svc.Donations.Acknowledge(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.svc.Donations.SendReceipt(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type chargeRequest struct {
	DonorID            string            `json:"donor_id"`
	AmountMinor        int64             `json:"amount_minor"`
	Campaign           string            `json:"campaign"`
	PaymentMethodToken string            `json:"payment_method_token"`
	Type               core.DonationType `json:"type"`
	Notes              string            `json:"notes"`
}

// handleCharge charges through the payment gateway and records the donation.
func (s *Server) handleCharge(w http.ResponseWriter, r *http.Request) {
	var req chargeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	adapter := s.svc.Charges
	if adapter == nil {
		adapter = payments.NewAdapter(nil, s.svc.Donations, s.svc.Donors)
	}
	d, err := adapter.ChargeAndRecord(r.Context(), payments.ChargeRequest{
		DonorID:            req.DonorID,
		AmountMinor:        req.AmountMinor,
		Campaign:           req.Campaign,
		PaymentMethodToken: req.PaymentMethodToken,
		Credential:         s.gatewayCredential,
		Type:               req.Type,
		Notes:              req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}
