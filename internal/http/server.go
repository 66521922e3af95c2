// Package http serves the ledger and emotion analysis JSON API.
package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"finmood/internal/core"
	"finmood/internal/emotion"
	"finmood/internal/log"
	"finmood/internal/metrics"
	"finmood/internal/middleware/ratelimit"
	"finmood/internal/middleware/security"
	"finmood/internal/middleware/trace"
)

// LedgerService is the ledger surface the handlers need.
type LedgerService interface {
	List(ctx context.Context) (core.Statement, error)
	Get(ctx context.Context, id int64) (core.Transaction, error)
	Create(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	Update(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, r core.AmountRange) (core.Statement, error)
	Balance(ctx context.Context) (core.Money, error)
}

// EmotionAnalyzer classifies text.
type EmotionAnalyzer interface {
	Analyze(ctx context.Context, text string) (emotion.Result, error)
}

// ReadyCheck reports whether a dependency can serve traffic.
type ReadyCheck func(ctx context.Context) error

type Config struct {
	Addr               string
	RateLimitPerMinute int
	Logger             *log.Logger
	Metrics            *metrics.Metrics
	// ReadyChecks are run by /readyz, keyed by dependency name.
	ReadyChecks map[string]ReadyCheck
}

type Server struct {
	http.Server
	ledger      LedgerService
	analyzer    EmotionAnalyzer
	validate    *validator.Validate
	logger      *log.Logger
	events      *log.StructuredLogger
	metrics     *metrics.Metrics
	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	readyChecks map[string]ReadyCheck
	startedAt   time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, ledgerSvc LedgerService, analyzer EmotionAnalyzer) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}

	s := &Server{
		ledger:      ledgerSvc,
		analyzer:    analyzer,
		validate:    newValidator(),
		logger:      cfg.Logger,
		events:      log.NewStructuredLogger(cfg.Logger),
		metrics:     cfg.Metrics,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		detector:    security.NewDetector(),
		readyChecks: cfg.ReadyChecks,
		startedAt:   time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /transactions", s.handleListTransactions)
	mux.HandleFunc("POST /transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /transactions/search", s.handleSearchTransactions)
	mux.HandleFunc("POST /transactions/search", s.handleSearchTransactions)
	mux.HandleFunc("GET /transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("POST /transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /balance", s.handleBalance)
	mux.HandleFunc("POST /emotions", s.handleAnalyzeEmotion)
	mux.HandleFunc("GET /emotionDetector", s.handleEmotionDetector)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	tracer := trace.NewMiddleware(s.observeRequest)
	limited := ratelimit.MutatingOnly(s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited))

	s.Server = http.Server{
		Addr: cfg.Addr,
		Handler: chain(captureRoute(mux),
			withRoute,
			tracer.Middleware,
			log.Middleware(s.logger),
			log.RequestIDMiddleware(func(r *http.Request) string { return trace.GetRequestID(r.Context()) }),
			security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
			s.detector.Middleware,
			limited,
		),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// chain wraps h so that the first middleware is the outermost.
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.ObserveRateLimited(r.Method)
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}

// observeRequest is the access log and request metrics hook.
func (s *Server) observeRequest(r *http.Request, status int, elapsed time.Duration) {
	s.metrics.ObserveHTTPRequest(r.Method, routeFrom(r.Context()), status, elapsed)
	s.events.LogHTTPEnd(r.Context(), r, status, elapsed.Milliseconds(), s.detector.ExtractClientIP(r))
}

type routeKey struct{}

type routeHolder struct {
	pattern string
}

// withRoute gives inner handlers a slot to report the matched mux pattern.
func withRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), routeKey{}, &routeHolder{})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// captureRoute copies the pattern the mux matched into the route slot.
func captureRoute(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		if h, ok := r.Context().Value(routeKey{}).(*routeHolder); ok {
			h.pattern = r.Pattern
		}
	})
}

// routeFrom returns the path part of the matched pattern, or "unmatched".
func routeFrom(ctx context.Context) string {
	h, ok := ctx.Value(routeKey{}).(*routeHolder)
	if !ok || h.pattern == "" {
		return "unmatched"
	}
	if _, path, found := strings.Cut(h.pattern, " "); found {
		return path
	}
	return h.pattern
}
