// Package http serves the dashboard page and its JSON API.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"gofinances/internal/core"
	"gofinances/internal/dashboard"
	"gofinances/internal/format"
	applog "gofinances/internal/log"
	"gofinances/internal/middleware/ratelimit"
	"gofinances/internal/middleware/security"
	"gofinances/internal/middleware/trace"
	appweb "gofinances/web"
)

// maxBodyBytes bounds request bodies accepted by the API.
const maxBodyBytes = 64 << 10

// TransactionRecorder appends a transaction to storage.
type TransactionRecorder interface {
	Record(ctx context.Context, in core.NewTransaction) (core.TransactionRecord, error)
}

type Server struct {
	http.Server

	screen    *dashboard.Screen
	formats   *format.Registry
	recorder  TransactionRecorder
	templates *template.Template
	logger    *applog.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	ready           func(context.Context) error
	refreshOnRecord bool
	rateLimit       int

	closing      chan struct{}
	shutdownOnce sync.Once
}

type Option func(*Server)

// WithReadiness sets the check behind /readyz.
func WithReadiness(check func(context.Context) error) Option {
	return func(s *Server) { s.ready = check }
}

// WithRefreshOnRecord makes a successful POST /api/transactions reload the
// dashboard in the same request. Use it when no change consumer runs.
func WithRefreshOnRecord(enabled bool) Option {
	return func(s *Server) { s.refreshOnRecord = enabled }
}

// WithRateLimit sets the allowed POST requests per client per minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.rateLimit = perMinute }
}

func WithLogger(logger *applog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server. recorder may be nil, which disables POST /api/transactions.
func NewServer(addr string, screen *dashboard.Screen, formats *format.Registry, recorder TransactionRecorder, opts ...Option) *Server {
	s := &Server{
		screen:    screen,
		formats:   formats,
		recorder:  recorder,
		logger:    applog.Default(applog.ComponentHTTP),
		detector:  security.NewDetector(),
		rateLimit: ratelimit.DefaultConfig().RequestsPerMinute,
		closing:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: s.rateLimit})
	s.tracer = trace.NewMiddleware(s.logger, s.detector.ExtractClientIP)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/api/dashboard", s.handleDashboard)
	mux.HandleFunc("/api/dashboard/focus", s.handleFocus)
	mux.HandleFunc("/api/dashboard/stream", s.handleStream)
	mux.HandleFunc("/api/transactions", s.handleRecord)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited, http.MethodPost)(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = s.detector.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter, closes open dashboard streams and
// gracefully shuts down the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.closing)
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}
