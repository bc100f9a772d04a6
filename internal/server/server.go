package server

import (
	"net/http"

	"retail-dashboard/internal/handlers"
)

type Server struct {
	mux          *http.ServeMux
	apiHandlers  *handlers.APIHandlers
	sseHandlers  *handlers.SSEHandlers
	pageHandlers *handlers.PageHandlers
}

func NewServer(deps handlers.Deps) *Server {
	s := &Server{
		mux:          http.NewServeMux(),
		apiHandlers:  handlers.NewAPIHandlers(deps),
		sseHandlers:  handlers.NewSSEHandlers(deps),
		pageHandlers: handlers.NewPageHandlers(deps),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", s.pageHandlers.HandleDashboard)
	s.mux.HandleFunc("POST /upload", s.pageHandlers.HandleUploadForm)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("POST /api/datasets", s.apiHandlers.HandleUpload)
	s.mux.HandleFunc("DELETE /api/datasets/current", s.apiHandlers.HandleInvalidate)
	s.mux.HandleFunc("GET /api/summary", s.apiHandlers.HandleSummary)
	s.mux.HandleFunc("GET /api/records", s.apiHandlers.HandleRecords)
	s.mux.HandleFunc("GET /api/options", s.apiHandlers.HandleOptions)

	// Datastar SSE endpoints
	s.mux.HandleFunc("POST /sse/filter", s.sseHandlers.HandleFilter)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
