package server

import "net/http"

// registerRoutes sets up all API endpoints
func (s *Server) registerRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	mux.HandleFunc("POST /api/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /api/tasks/search", s.handleSearchTasks)
	mux.HandleFunc("GET /api/tasks/overdue", s.handleOverdueTasks)
	mux.HandleFunc("GET /api/tasks/stats", s.handleStats)
	mux.HandleFunc("POST /api/tasks/bulk", s.handleBulkUpdate)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PUT /api/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)

	return s.corsMiddleware(s.loggingMiddleware(s.backendHeaderMiddleware(mux)))
}
