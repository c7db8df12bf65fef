// Package server assembles the routes and owns graceful shutdown.
package server

import (
	"log/slog"
	"net/http"

	"retail-dashboard/internal/handlers"
	"retail-dashboard/internal/services"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	handlers *handlers.TransactionHandlers
}

func NewServer(service *services.TransactionService, logger *slog.Logger) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		handlers: handlers.NewTransactionHandlers(service, logger),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /health", s.handlers.HandleHealth)

	// Fixed paths before the {id} wildcard so "search" never parses as
	// an id.
	s.mux.HandleFunc("GET /api/transactions", s.handlers.HandleList)
	s.mux.HandleFunc("GET /api/transactions/search", s.handlers.HandleSearch)
	s.mux.HandleFunc("GET /api/transactions/statistics", s.handlers.HandleStatistics)
	s.mux.HandleFunc("GET /api/transactions/filter-options", s.handlers.HandleFilterOptions)
	s.mux.HandleFunc("GET /api/transactions/{id}", s.handlers.HandleGetByID)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
