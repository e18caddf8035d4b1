package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/research-hub/internal/model"
)

type taskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

func validTaskStatus(s string) bool {
	switch model.TaskStatus(s) {
	case model.TaskStatusPending, model.TaskStatusCompleted:
		return true
	}
	return false
}

func validTaskPriority(p string) bool {
	switch model.TaskPriority(p) {
	case model.TaskPriorityLow, model.TaskPriorityMedium, model.TaskPriorityHigh:
		return true
	}
	return false
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	company := s.ownedCompany(w, r)
	if company == nil {
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Status != "" && !validTaskStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if req.Priority != "" && !validTaskPriority(req.Priority) {
		writeError(w, http.StatusBadRequest, "invalid priority")
		return
	}

	task, err := s.store.CreateTask(r.Context(), model.Task{
		CompanyID:   company.ID,
		Title:       req.Title,
		Description: req.Description,
		Status:      model.TaskStatus(req.Status),
		Priority:    model.TaskPriority(req.Priority),
		DueDate:     req.DueDate,
	})
	if err != nil {
		zap.L().Error("create task failed", zap.String("company_id", company.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	company := s.ownedCompany(w, r)
	if company == nil {
		return
	}

	tasks, err := s.store.ListTasks(r.Context(), company.ID)
	if err != nil {
		zap.L().Error("list tasks failed", zap.String("company_id", company.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	company := s.ownedCompany(w, r)
	if company == nil {
		return
	}

	task, err := s.store.GetTask(r.Context(), company.ID, chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	company := s.ownedCompany(w, r)
	if company == nil {
		return
	}

	task, err := s.store.GetTask(r.Context(), company.ID, chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title != "" {
		task.Title = req.Title
	}
	task.Description = req.Description
	if req.Status != "" {
		if !validTaskStatus(req.Status) {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		task.Status = model.TaskStatus(req.Status)
	}
	if req.Priority != "" {
		if !validTaskPriority(req.Priority) {
			writeError(w, http.StatusBadRequest, "invalid priority")
			return
		}
		task.Priority = model.TaskPriority(req.Priority)
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}

	if err := s.store.UpdateTask(r.Context(), *task); err != nil {
		zap.L().Error("update task failed", zap.String("task_id", task.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}

	updated, err := s.store.GetTask(r.Context(), company.ID, task.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load task")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	company := s.ownedCompany(w, r)
	if company == nil {
		return
	}

	if err := s.store.DeleteTask(r.Context(), company.ID, chi.URLParam(r, "taskID")); err != nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
