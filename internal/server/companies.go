package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/research-hub/internal/model"
)

type companyRequest struct {
	Name        string `json:"name"`
	Website     string `json:"website"`
	Industry    string `json:"industry"`
	Description string `json:"description"`
}

// ownedCompany loads the company and enforces ownership. It writes the
// error response and returns nil when the caller may not proceed.
func (s *Server) ownedCompany(w http.ResponseWriter, r *http.Request) *model.Company {
	companyID := chi.URLParam(r, "companyID")

	company, err := s.store.GetOwnedCompany(r.Context(), companyID, userEmail(r))
	if err != nil {
		zap.L().Error("load company failed", zap.String("company_id", companyID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load company")
		return nil
	}
	if company == nil {
		writeError(w, http.StatusNotFound, "company not found")
		return nil
	}
	return company
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	company, err := s.store.CreateCompany(r.Context(), model.Company{
		OwnerEmail:  userEmail(r),
		Name:        req.Name,
		Website:     req.Website,
		Industry:    req.Industry,
		Description: req.Description,
	})
	if err != nil {
		zap.L().Error("create company failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create company")
		return
	}

	writeJSON(w, http.StatusCreated, company)
}

func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.store.ListCompanies(r.Context(), userEmail(r))
	if err != nil {
		zap.L().Error("list companies failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list companies")
		return
	}
	if companies == nil {
		companies = []model.Company{}
	}
	writeJSON(w, http.StatusOK, companies)
}

func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	company := s.ownedCompany(w, r)
	if company == nil {
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (s *Server) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	company := s.ownedCompany(w, r)
	if company == nil {
		return
	}

	var req companyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	company.Name = req.Name
	company.Website = req.Website
	company.Industry = req.Industry
	company.Description = req.Description

	if err := s.store.UpdateCompany(r.Context(), *company); err != nil {
		zap.L().Error("update company failed", zap.String("company_id", company.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update company")
		return
	}

	updated, err := s.store.GetCompany(r.Context(), company.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load company")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	company := s.ownedCompany(w, r)
	if company == nil {
		return
	}

	if err := s.store.DeleteCompany(r.Context(), company.ID); err != nil {
		zap.L().Error("delete company failed", zap.String("company_id", company.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete company")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
