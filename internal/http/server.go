// Package http exposes the REST API: authentication, transactions,
// categories, budgets and analytics under /api.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/csrf"
	"fintrack/internal/services"
	"fintrack/internal/storage"
	"fintrack/internal/token"
)

// Server wires the REST handlers over their dependencies.
type Server struct {
	http.Server

	storage        *storage.SQLiteRepository
	transactions   *services.TransactionService
	auth           *auth.Service
	tokens         *token.Issuer
	guard          *csrf.Guard
	alertThreshold float64

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
// The alert threshold is the same one the transaction service publishes with.
func NewServer(addr string, repo *storage.SQLiteRepository, transactions *services.TransactionService,
	authSvc *auth.Service, tokens *token.Issuer, guard *csrf.Guard, alertThreshold float64) *Server {

	if alertThreshold <= 0 {
		alertThreshold = core.DefaultAlertThreshold
	}

	s := &Server{
		storage:        repo,
		transactions:   transactions,
		auth:           authSvc,
		tokens:         tokens,
		guard:          guard,
		alertThreshold: alertThreshold,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)
	r.Use(securityHeaders)
	r.Use(httprate.LimitByIP(120, time.Minute))
	r.Use(guard.Protect)

	r.Route("/api", func(r chi.Router) {
		r.Get("/csrf-token", s.handleCSRFToken)

		r.Route("/auth", func(r chi.Router) {
			// Tighter limit against credential stuffing.
			r.Use(httprate.LimitByIP(10, time.Minute))
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/health", s.handleHealth)

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", s.handleListTransactions)
				r.Post("/", s.handleCreateTransaction)
				r.Put("/{id}", s.handleUpdateTransaction)
				r.Delete("/{id}", s.handleDeleteTransaction)
				r.Get("/analytics/category", s.handleCategoryBreakdown)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", s.handleListCategories)
				r.Post("/", s.handleCreateCategory)
			})

			r.Route("/budgets", func(r chi.Router) {
				r.Get("/", s.handleListBudgets)
				r.Post("/", s.handleSetBudget)
				r.Get("/alerts", s.handleBudgetAlerts)
			})
		})
	})

	// Unauthenticated probes for orchestration.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/readyz", s.handleReady)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondMessage(w, http.StatusNotFound, "Route not found")
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s
}

// Shutdown drains in-flight requests and closes the underlying service.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondMessage(w, http.StatusOK, "Finance Tracker API is running!")
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.storage.Ping(r.Context()); err != nil {
		respondMessage(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	w.WriteHeader(http.StatusOK)
}
