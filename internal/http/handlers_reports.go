package http

import (
	"net/http"

	"donors/internal/core"
)

func (s *Server) handleLifetimeValue(w http.ResponseWriter, r *http.Request) {
	donorID, err := pathParam(r, "donorID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ltv, err := s.svc.Reports.LifetimeValue(r.Context(), donorID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ltv)
}

// handleMajorGifts lists donors whose total reaches ?threshold= (major units).
func (s *Server) handleMajorGifts(w http.ResponseWriter, r *http.Request) {
	threshold, err := parseAmountQuery(r, "threshold", DefaultMajorGiftThreshold)
	if err != nil {
		writeError(w, r, err)
		return
	}
	gifts, err := s.svc.Reports.MajorGifts(r.Context(), threshold)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if gifts == nil {
		gifts = []core.MajorGift{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"threshold": threshold,
		"items":     gifts,
	})
}

func (s *Server) handleCampaignSummary(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.svc.Reports.CampaignSummary(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRetention(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Reports.Retention(r.Context(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleTierSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.Reports.TierSummary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
