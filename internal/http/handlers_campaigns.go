package http

import (
	"net/http"

	"donors/internal/core"
	"donors/internal/services"
)

type createCampaignRequest struct {
	Name        string     `json:"name"`
	Goal        core.Money `json:"goal"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.svc.Campaigns.CreateCampaign(r.Context(), services.CreateCampaignParams(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.svc.Campaigns.GetCampaign(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Campaigns.ListCampaigns(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []core.Campaign{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
