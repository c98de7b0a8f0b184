package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/taskflowhq/taskflow/models"
	"github.com/taskflowhq/taskflow/store"
	"github.com/taskflowhq/taskflow/types"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the shared error taxonomy onto HTTP statuses and the
// error envelope. Internal detail leaks only in development mode.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		ve *types.ValidationError
		nf *types.NotFoundError
		mi *types.MalformedIDError
		de *types.DuplicateError
		ce *types.ConnectionError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, APIErrorResponse{
			Error: "Validation failed", Details: ve.Details,
		})
	case errors.As(err, &mi):
		writeJSON(w, http.StatusBadRequest, APIErrorResponse{
			Error: "Invalid task ID", Details: mi.Error(),
		})
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, APIErrorResponse{
			Error: "Task not found", Details: nf.Error(),
		})
	case errors.As(err, &de):
		writeJSON(w, http.StatusConflict, APIErrorResponse{
			Error: "Task already exists", Details: de.Error(),
		})
	case errors.As(err, &ce):
		writeJSON(w, http.StatusServiceUnavailable, APIErrorResponse{
			Error: "Storage backend unavailable", Details: "retry later",
		})
	default:
		resp := APIErrorResponse{Error: "Internal server error"}
		if s.cfg.IsDevelopment() {
			resp.Details = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}

func parseBoolPtr(s string) *bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		b := true
		return &b
	case "0", "false", "no":
		b := false
		return &b
	}
	return nil
}

func parseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

// defaultQuery seeds a query with the configured paging defaults.
func (s *Server) defaultQuery() store.Query {
	q := store.DefaultQuery()
	if s.cfg.Pagination.DefaultLimit > 0 {
		q.Limit = s.cfg.Pagination.DefaultLimit
	}
	return q
}

func (s *Server) maxLimit() int {
	if s.cfg.Pagination.MaxLimit > 0 {
		return s.cfg.Pagination.MaxLimit
	}
	return store.MaxLimit
}

// clampLimit enforces the configured page-size ceiling on a requested
// limit.
func (s *Server) clampLimit(limit int) int {
	if ceiling := s.maxLimit(); limit > ceiling {
		return ceiling
	}
	return limit
}

// queryFromRequest translates list query parameters into a store query.
func (s *Server) queryFromRequest(r *http.Request) store.Query {
	v := r.URL.Query()
	q := s.defaultQuery()
	q.Page = parseIntDefault(v.Get("page"), q.Page)
	q.Limit = s.clampLimit(parseIntDefault(v.Get("limit"), q.Limit))
	q.Completed = parseBoolPtr(v.Get("completed"))
	q.Priority = v.Get("priority")
	q.Category = v.Get("category")
	q.Search = v.Get("search")
	if sortBy := v.Get("sortBy"); sortBy != "" {
		q.SortBy = sortBy
	}
	if order := v.Get("sortOrder"); order != "" {
		q.SortOrder = strings.ToLower(order)
	}
	if b := parseBoolPtr(v.Get("includeOverdue")); b != nil {
		q.IncludeOverdue = *b
	}
	return q
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "TaskFlow is running",
		Data:    HealthData{Status: "ok", Backend: s.store.Backend()},
	})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := s.queryFromRequest(r)
	tasks, total, err := s.store.List(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	q.Normalize()
	pagination := store.NewPagination(q, total)
	writeJSON(w, http.StatusOK, APIResponse{
		Success:    true,
		Message:    "Tasks retrieved successfully",
		Data:       tasks,
		Pagination: &pagination,
	})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Task retrieved successfully",
		Data:    task,
	})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var input models.Task
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, APIErrorResponse{
			Error: "Invalid request body", Details: err.Error(),
		})
		return
	}
	task, err := s.store.Create(r.Context(), input)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Message: "Task created successfully",
		Data:    task,
	})
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var patch models.TaskPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, APIErrorResponse{
			Error: "Invalid request body", Details: err.Error(),
		})
		return
	}
	task, err := s.store.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Task updated successfully",
		Data:    task,
	})
}

// handleDeleteTask hard-deletes and returns 204 with no body.
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearchTasks(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q := s.defaultQuery()
	q.Search = v.Get("q")
	q.Page = parseIntDefault(v.Get("page"), q.Page)
	q.Limit = s.clampLimit(parseIntDefault(v.Get("limit"), q.Limit))

	if strings.TrimSpace(q.Search) == "" {
		writeJSON(w, http.StatusBadRequest, APIErrorResponse{
			Error:   "Validation failed",
			Details: []string{"search query must be at least 2 characters"},
		})
		return
	}

	tasks, total, err := s.store.List(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	q.Normalize()
	pagination := store.NewPagination(q, total)
	writeJSON(w, http.StatusOK, APIResponse{
		Success:    true,
		Message:    "Search completed successfully",
		Data:       tasks,
		Pagination: &pagination,
	})
}

func (s *Server) handleOverdueTasks(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q := store.Query{
		Page:           parseIntDefault(v.Get("page"), 1),
		Limit:          s.clampLimit(parseIntDefault(v.Get("limit"), s.maxLimit())),
		IncludeOverdue: true,
		SortBy:         "dueDate",
		SortOrder:      store.SortAsc,
	}
	tasks, total, err := s.store.List(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	q.Normalize()
	pagination := store.NewPagination(q, total)
	writeJSON(w, http.StatusOK, APIResponse{
		Success:    true,
		Message:    "Overdue tasks retrieved successfully",
		Data:       tasks,
		Pagination: &pagination,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Statistics retrieved successfully",
		Data:    stats,
	})
}

func (s *Server) handleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req BulkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIErrorResponse{
			Error: "Invalid request body", Details: err.Error(),
		})
		return
	}
	if len(req.TaskIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, APIErrorResponse{
			Error:   "Validation failed",
			Details: []string{"taskIds must be a non-empty array"},
		})
		return
	}
	result, err := s.store.BulkUpdate(r.Context(), req.TaskIDs, req.UpdateData)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Bulk update completed",
		Data:    result,
	})
}
