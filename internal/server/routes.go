package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bobmcallan/fundval/internal/common"
)

// registerRoutes sets up all REST API routes on the router.
func (s *Server) registerRoutes() {
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "Not found")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	s.router.Route("/api", func(r chi.Router) {
		// System
		r.Get("/health", s.handleHealth)
		r.Head("/health", s.handleHealth)
		r.Get("/version", s.handleVersion)

		// Holdings
		r.Post("/resolve", s.handleResolve)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/ocr", s.handleOCR)

		// Funds
		r.Get("/quote/{code}", s.handleQuote)
		r.Get("/chart/{code}", s.handleChart)
		r.Get("/search", s.handleSearch)
		r.Post("/estimate", s.handleEstimate)

		// Market
		r.Get("/market", s.handleMarket)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"version":      common.GetVersion(),
		"build":        common.GetBuild(),
		"commit":       common.GetGitCommit(),
		"quote_source": s.app.QuoteSource,
		"uptime":       time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}
