// Package http exposes the ledger and its aggregations as a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"budgetly/internal/analytics"
	"budgetly/internal/cache"
	"budgetly/internal/clock"
	"budgetly/internal/ledger"
	"budgetly/internal/log"
	"budgetly/internal/middleware/ratelimit"
	"budgetly/internal/middleware/security"
	"budgetly/internal/middleware/trace"
)

// maxBodyBytes caps request bodies; a single expense is far smaller.
const maxBodyBytes = 1 << 20

const (
	viewCacheSize    = 64
	viewCacheTTL     = 5 * time.Minute
	viewCacheCleanup = time.Minute
)

type Server struct {
	http.Server
	store    *ledger.Store
	clock    clock.Clock
	currency string
	logger   *slog.Logger

	limiterConfig ratelimit.Config
	limiter       *ratelimit.Limiter
	detector      *security.Detector
	tracer        *trace.Middleware

	caches     *cache.Manager
	dashboards *cache.LRUCache[analytics.DashboardView]
	analyses   *cache.LRUCache[analytics.AnalyticsView]

	shutdownOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithClock sets the clock used as the default reference date for
// aggregations.
func WithClock(c clock.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// WithCurrencySymbol sets the symbol used in insight messages.
func WithCurrencySymbol(symbol string) Option {
	return func(s *Server) { s.currency = symbol }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRateLimit overrides the per-client limit on mutating requests.
func WithRateLimit(cfg ratelimit.Config) Option {
	return func(s *Server) { s.limiterConfig = cfg }
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, store *ledger.Store, opts ...Option) *Server {
	s := &Server{
		store:         store,
		clock:         clock.System{},
		currency:      "₹",
		limiterConfig: ratelimit.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default().With(log.FieldComponent, log.ComponentHTTP)
	}

	s.limiter = ratelimit.NewLimiter(s.limiterConfig)
	s.detector = security.NewDetector(s.logger)
	s.tracer = trace.NewMiddleware(s.logger, s.detector.ExtractClientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	s.dashboards = cache.NewLRUCache[analytics.DashboardView](viewCacheSize, viewCacheTTL)
	s.analyses = cache.NewLRUCache[analytics.AnalyticsView](viewCacheSize, viewCacheTTL)
	s.caches = cache.NewManager(s.logger)
	s.caches.Register(s.dashboards)
	s.caches.Register(s.analyses)
	s.caches.StartCleanup(viewCacheCleanup)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/categories", s.handleCategories)

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /api/budget", s.handleGetBudget)
	mux.HandleFunc("PUT /api/budget", s.handleSetBudget)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/analytics", s.handleAnalytics)

	limit := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again later")
	})

	var handler http.Handler = mux
	handler = limit(handler)
	handler = headers.Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16, // 64KB
	}
	return s
}

// Shutdown gracefully shuts down the server and the background cleanup loops.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.caches.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
