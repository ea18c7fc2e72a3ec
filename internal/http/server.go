package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"cmoney/internal/cache"
	"cmoney/internal/core"
	applog "cmoney/internal/log"
	"cmoney/internal/middleware/ratelimit"
	"cmoney/internal/middleware/security"
	"cmoney/internal/middleware/trace"
	"cmoney/internal/services"
	"cmoney/internal/storage"
)

const apiPrefix = "/api/v1"

// Options configures NewServer.
type Options struct {
	Addr       string
	Services   *services.Services
	Repository *storage.Repository
	Logger     *applog.Logger

	// Limiter defaults to an in-process limiter at RateLimitPerMinute.
	Limiter            ratelimit.Limiter
	RateLimitPerMinute int

	AuthCacheSize int
	AuthCacheTTL  time.Duration
}

type Server struct {
	http.Server
	svc    *services.Services
	repo   *storage.Repository
	logger *applog.Logger

	detector  *security.Detector
	tracer    *trace.Middleware
	limiter   ratelimit.Limiter
	rateLimit *ratelimit.Middleware

	// Bearer token to user, so authenticated requests skip the users table.
	authCache *cache.LRUCache[core.User]
	caches    *cache.Manager

	startedAt    time.Time
	shutdownOnce sync.Once
}

// NewServer wires middleware and routes, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.NewMemoryLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
	}
	ttl := opts.AuthCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	s := &Server{
		svc:       opts.Services,
		repo:      opts.Repository,
		logger:    logger.WithComponent(applog.ComponentHTTP),
		detector:  security.NewDetector(),
		limiter:   limiter,
		authCache: cache.NewLRUCache[core.User](opts.AuthCacheSize, ttl),
		caches:    cache.NewManager(),
		startedAt: time.Now(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)
	s.rateLimit = ratelimit.NewMiddleware(limiter, s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		MessageResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
	})
	s.caches.Register(s.authCache)
	s.caches.StartCleanup(time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("route not found").Write(w)
	})
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.rateLimit.Handler(handler)
	handler = applog.RequestMiddleware(logger, func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(handler)
	handler = s.tracer.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.detector.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	handle := func(pattern string, h http.HandlerFunc) {
		method, path, _ := strings.Cut(pattern, " ")
		mux.Handle(method+" "+apiPrefix+path, s.authenticated(h))
	}

	handle("POST /me/token", s.handleRotateToken)

	handle("GET /categories", s.handleListCategories)
	handle("POST /categories", s.handleCreateCategory)
	handle("GET /categories/stats", s.handleCategoryStats)
	handle("POST /categories/init-defaults", s.handleInitDefaultCategories)
	handle("GET /categories/{id}", s.handleGetCategory)
	handle("PUT /categories/{id}", s.handleUpdateCategory)
	handle("DELETE /categories/{id}", s.handleDeleteCategory)

	handle("GET /transactions", s.handleListTransactions)
	handle("POST /transactions", s.handleCreateTransaction)
	handle("GET /transactions/{id}", s.handleGetTransaction)
	handle("PUT /transactions/{id}", s.handleUpdateTransaction)
	handle("DELETE /transactions/{id}", s.handleDeleteTransaction)

	handle("GET /budgets", s.handleListBudgets)
	handle("POST /budgets", s.handleCreateBudget)
	handle("GET /budgets/current-month", s.handleCurrentMonthBudgets)
	handle("GET /budgets/alerts", s.handleBudgetAlerts)
	handle("POST /budgets/batch-create", s.handleBatchCreateBudgets)
	handle("GET /budgets/{id}", s.handleGetBudget)
	handle("PUT /budgets/{id}", s.handleUpdateBudget)
	handle("DELETE /budgets/{id}", s.handleDeleteBudget)
	handle("POST /budgets/{id}/copy-to-next-month", s.handleCopyBudget)

	handle("GET /reports/summary", s.handleSummary)
	handle("GET /reports/monthly", s.handleMonthlyReport)
	handle("GET /reports/yearly", s.handleYearlyReport)
	handle("GET /reports/expense-analysis", s.handleExpenseAnalysis)
	handle("GET /reports/trend", s.handleTrend)

	handle("GET /organizations", s.handleListOrganizations)
	handle("POST /organizations", s.handleCreateOrganization)
	handle("GET /organizations/{id}", s.handleGetOrganization)
	handle("GET /organizations/{id}/members", s.handleListMembers)
	handle("POST /organizations/{id}/members", s.handleAddMember)
	handle("PUT /organizations/{id}/members/{user_id}", s.handleUpdateMember)
	handle("DELETE /organizations/{id}/members/{user_id}", s.handleRemoveMember)

	handle("GET /claims", s.handleListClaims)
	handle("POST /claims", s.handleCreateClaim)
	handle("GET /claims/pending", s.handlePendingClaims)
	handle("GET /claims/{id}", s.handleGetClaim)
	handle("POST /claims/{id}/review", s.handleReviewClaim)
}

// Shutdown stops background loops and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// fail writes err as a JSON error. Unclassified errors are logged with the
// request-scoped logger since their detail never reaches the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if StatusFor(err) == http.StatusInternalServerError {
		applog.FromContext(r.Context()).Failure(r.Context(), "Request failed", err,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
	}
	ErrorResponse(err).Write(w)
}

// respond writes v with status, or the error if err is non-nil.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Status(status).Body(v).Write(w)
}
