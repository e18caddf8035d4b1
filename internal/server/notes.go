package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/research-hub/internal/model"
)

type noteRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	company := s.ownedCompany(w, r)
	if company == nil {
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	note, err := s.store.CreateNote(r.Context(), model.Note{
		CompanyID: company.ID,
		Content:   req.Content,
	})
	if err != nil {
		zap.L().Error("create note failed", zap.String("company_id", company.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create note")
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	company := s.ownedCompany(w, r)
	if company == nil {
		return
	}

	notes, err := s.store.ListNotes(r.Context(), company.ID)
	if err != nil {
		zap.L().Error("list notes failed", zap.String("company_id", company.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list notes")
		return
	}
	if notes == nil {
		notes = []model.Note{}
	}
	writeJSON(w, http.StatusOK, notes)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	company := s.ownedCompany(w, r)
	if company == nil {
		return
	}

	note, err := s.store.GetNote(r.Context(), company.ID, chi.URLParam(r, "noteID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	note.Content = req.Content
	if err := s.store.UpdateNote(r.Context(), *note); err != nil {
		zap.L().Error("update note failed", zap.String("note_id", note.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update note")
		return
	}

	updated, err := s.store.GetNote(r.Context(), company.ID, note.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load note")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	company := s.ownedCompany(w, r)
	if company == nil {
		return
	}

	if err := s.store.DeleteNote(r.Context(), company.ID, chi.URLParam(r, "noteID")); err != nil {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
