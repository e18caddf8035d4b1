package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/research-hub/internal/model"
	"github.com/sells-group/research-hub/internal/research"
)

func (s *Server) handleStartResearch(w http.ResponseWriter, r *http.Request) {
	company := s.ownedCompany(w, r)
	if company == nil {
		return
	}

	rec, err := s.runner.Start(r.Context(), *company)
	if err != nil {
		if errors.Is(err, research.ErrAlreadyRunning) {
			writeError(w, http.StatusConflict, "research already in progress for this company")
			return
		}
		zap.L().Error("start research failed", zap.String("company_id", company.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to start research")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     rec.ID,
		"status": string(rec.Status),
	})
}

func (s *Server) handleGetResearch(w http.ResponseWriter, r *http.Request) {
	company := s.ownedCompany(w, r)
	if company == nil {
		return
	}

	rec, err := s.store.LatestResearch(r.Context(), company.ID)
	if err != nil {
		zap.L().Error("load research failed", zap.String("company_id", company.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load research")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "no research found for this company")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateResearch(w http.ResponseWriter, r *http.Request) {
	company := s.ownedCompany(w, r)
	if company == nil {
		return
	}

	rec, err := s.store.LatestResearch(r.Context(), company.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load research")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "no research found for this company")
		return
	}

	var upd model.ResearchUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if upd.Empty() {
		writeError(w, http.StatusBadRequest, "no recognized field to update")
		return
	}

	if err := s.store.ApplyResearchUpdate(r.Context(), rec.ID, upd); err != nil {
		zap.L().Error("update research failed", zap.String("research_id", rec.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update research")
		return
	}

	updated, err := s.store.GetResearch(r.Context(), rec.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load research")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
