package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/security"
	"ledger/internal/middleware/trace"
	"ledger/internal/proxy"
	"ledger/internal/services"
)

// Querier runs raw SQL through the query proxy.
type Querier interface {
	Query(ctx context.Context, sql string, params []any, method proxy.Method) (proxy.Result, error)
}

type Server struct {
	http.Server
	ledger   *services.LedgerService
	sql      Querier
	ready    func(context.Context) error
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	logger   *log.Logger

	requestsPerMinute int
}

type Option func(*Server)

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithReadiness sets the check behind /readyz, typically a database ping.
func WithReadiness(check func(context.Context) error) Option {
	return func(s *Server) { s.ready = check }
}

// WithRateLimit sets the per-client request budget per minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.requestsPerMinute = perMinute }
}

// NewServer wires the router. Shutdown must be called to release the rate
// limiter.
func NewServer(addr string, ledger *services.LedgerService, q Querier, opts ...Option) *Server {
	s := &Server{
		ledger: ledger,
		sql:    q,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentHTTP)
	s.detector = security.NewDetector(s.logger)
	s.tracer = trace.NewMiddleware(s.logger, s.detector.ExtractClientIP)
	s.limiter = ratelimit.NewLimiter(ratelimit.Config{Requests: s.requestsPerMinute, Window: time.Minute})

	s.Addr = addr
	s.Handler = s.routes()
	s.ReadTimeout = 10 * time.Second
	s.WriteTimeout = 30 * time.Second
	s.IdleTimeout = 60 * time.Second
	s.MaxHeaderBytes = 1 << 16
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.tracer.Handler)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(s.detector.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		withRequestID(NotFoundError("No such route"), r).Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		withRequestID(ErrorResponse(http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" is not allowed here"), r).Write(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			withRequestID(TooManyRequestsError(), r).Write(w)
		}))

		r.Post("/sql", s.handleSQL)

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", s.handleListAccounts)
			r.Post("/", s.handleCreateAccount)
			r.Get("/{id}", s.handleGetAccount)
			r.Put("/{id}", s.handleUpdateAccount)
			r.Delete("/{id}", s.handleDeleteAccount)
			r.Get("/{id}/transactions", s.handleAccountTransactions)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Post("/", s.handleCreateCategory)
			r.Get("/{id}", s.handleGetCategory)
			r.Put("/{id}", s.handleRenameCategory)
			r.Delete("/{id}", s.handleDeleteCategory)
			r.Get("/{id}/transactions", s.handleCategoryTransactions)
			r.Get("/{id}/budgets", s.handleCategoryBudgets)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Get("/{id}", s.handleGetTransaction)
			r.Put("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
			r.Get("/{id}/detail", s.handleTransactionDetail)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", s.handleListBudgets)
			r.Post("/", s.handleCreateBudget)
			r.Get("/{id}", s.handleGetBudget)
			r.Put("/{id}", s.handleUpdateBudget)
			r.Delete("/{id}", s.handleDeleteBudget)
			r.Get("/{id}/category", s.handleBudgetCategory)
		})

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", s.handleListGoals)
			r.Post("/", s.handleCreateGoal)
			r.Get("/{id}", s.handleGetGoal)
			r.Put("/{id}", s.handleUpdateGoal)
			r.Delete("/{id}", s.handleDeleteGoal)
		})
	})

	return r
}

// Shutdown stops the rate limiter and gracefully shuts down the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			withRequestID(ErrorResponse(http.StatusServiceUnavailable, "not_ready", "Database unavailable"), r).Write(w)
			return
		}
	}
	NewJSONResponse().Data(map[string]string{"status": "ready"}).Write(w)
}
