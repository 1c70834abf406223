package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/security"
	"ledger/internal/middleware/trace"
	"ledger/internal/services"
	"ledger/internal/storage"
)

// Services groups the application services the API exposes.
type Services struct {
	Transactions *services.TransactionService
	Categories   *services.CategoryService
	Budgets      *services.BudgetService
	Recurring    *services.RecurringService
	Reports      *services.ReportService
}

// NewServices wires every service over one store.
func NewServices(store storage.Store, publisher services.EventPublisher, now func() time.Time) Services {
	return Services{
		Transactions: services.NewTransactionService(store, publisher),
		Categories:   services.NewCategoryService(store),
		Budgets:      services.NewBudgetService(store),
		Recurring:    services.NewRecurringService(store),
		Reports:      services.NewReportService(store, now),
	}
}

// Options tunes the middleware stack.
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	Logger         *log.Logger
	// Ready reports whether dependencies are reachable; nil means always ready.
	Ready func(context.Context) error
}

type Server struct {
	http.Server
	svc         Services
	ready       func(context.Context) error
	logger      *log.Logger
	rateLimiter *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, svc Services, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		svc:    svc,
		ready:  opts.Ready,
		logger: logger,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerSecond: opts.RateLimitRPS,
			Burst:             opts.RateLimitBurst,
		}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/transactions", s.handleListTransactions)
	api.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	api.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	api.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	api.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	api.HandleFunc("GET /api/categories", s.handleListCategories)
	api.HandleFunc("POST /api/categories", s.handleCreateCategory)
	api.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	api.HandleFunc("GET /api/budgets", s.handleListBudgets)
	api.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	api.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	api.HandleFunc("GET /api/recurring", s.handleListRecurring)
	api.HandleFunc("POST /api/recurring", s.handleCreateRecurring)
	api.HandleFunc("PATCH /api/recurring/{id}", s.handleSetRecurringActive)
	api.HandleFunc("DELETE /api/recurring/{id}", s.handleDeleteRecurring)

	api.HandleFunc("GET /api/reports/monthly", s.handleMonthlyReport)
	api.HandleFunc("GET /api/reports/by-category", s.handleCategoryReport)
	api.HandleFunc("GET /api/reports/spending-trend", s.handleSpendingTrend)

	clientIP := security.NewClientIP()
	limited := s.rateLimiter.Middleware(clientIP.Extract, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
	})
	mux.Handle("/api/", limited(requireOwner(api)))

	var handler http.Handler = mux
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(logger, clientIP.Extract).Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		m := s.rateLimiter.GetMetrics()
		s.logger.Info("Rate limiter stopped", "rejected_requests", m.TotalHits, "tracked_clients", m.ClientCount)
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
