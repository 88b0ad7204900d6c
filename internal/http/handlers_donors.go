package http

import (
	"net/http"

	"donors/internal/core"
	"donors/internal/services"
)

type addDonorRequest struct {
	Name       string         `json:"name"`
	Email      string         `json:"email"`
	Phone      string         `json:"phone"`
	Type       core.DonorType `json:"type"`
	Notes      string         `json:"notes"`
	AssignedTo string         `json:"assigned_to"`
	Address    string         `json:"address"`
	TaxID      string         `json:"tax_id"`
}

func (s *Server) handleAddDonor(w http.ResponseWriter, r *http.Request) {
	var req addDonorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	donor, err := s.svc.Donors.AddDonor(r.Context(), services.AddDonorParams(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, donor)
}

func (s *Server) handleGetDonor(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	donor, err := s.svc.Donors.GetDonor(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, donor)
}

func (s *Server) handleGetDonorByEmail(w http.ResponseWriter, r *http.Request) {
	email, err := pathParam(r, "email")
	if err != nil {
		writeError(w, r, err)
		return
	}
	donor, err := s.svc.Donors.GetDonorByEmail(r.Context(), email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, donor)
}

// handleListDonors filters on the tier, type and assigned_to query parameters.
func (s *Server) handleListDonors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	donors, err := s.svc.Donors.ListDonors(r.Context(), core.DonorFilter{
		Tier:       core.Tier(q.Get("tier")),
		Type:       core.DonorType(q.Get("type")),
		AssignedTo: q.Get("assigned_to"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if donors == nil {
		donors = []core.Donor{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": donors})
}

func (s *Server) handleRecalculateTier(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	donor, err := s.svc.Donations.RecalculateTier(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, donor)
}
