// Package web provides the HTTP server and handlers for the set decoder UI
// and its JSON API.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/JonMunkholm/setdecoder/internal/config"
	"github.com/JonMunkholm/setdecoder/internal/core"
	"github.com/JonMunkholm/setdecoder/internal/history"
	mw "github.com/JonMunkholm/setdecoder/internal/web/middleware"
	"github.com/JonMunkholm/setdecoder/internal/workspace"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// RunLister reads recorded runs. It is nil when history is disabled.
type RunLister interface {
	List(ctx context.Context, limit int) ([]history.Run, error)
	Get(ctx context.Context, id uuid.UUID) (history.Run, error)
}

// Server is the HTTP server for one decoding workspace.
type Server struct {
	ws       *workspace.Workspace
	cfg      *config.Config
	runs     RunLister
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	validate *validator.Validate

	router  *chi.Mux
	server  *http.Server
	limiter *rateLimiter
	uploads *uploadLimiter
}

// NewServer wires routes and middleware. runs and gatherer may be nil.
func NewServer(ws *workspace.Workspace, cfg *config.Config, runs RunLister, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		ws:       ws,
		cfg:      cfg,
		runs:     runs,
		gatherer: gatherer,
		logger:   logger,
		validate: newValidator(),
		router:   chi.NewRouter(),
		uploads:  newUploadLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWait),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	// Security hardening
	s.router.Use(securityHeaders)

	if origins := s.cfg.Security.AllowedOrigins; len(origins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", mw.APIKeyHeader, "HX-Request", "HX-Target"},
			ExposedHeaders:   []string{"Content-Disposition", "X-Request-Id", "X-Run-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	if n := s.cfg.Security.RateLimitPerMinute; n > 0 {
		s.limiter = newRateLimiter(n, time.Minute)
		s.router.Use(s.limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Pages
	s.router.Get("/", s.handleDashboard)
	s.router.Get("/health", s.handleHealth)
	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security, s.logger))

		r.Get("/status", s.handleStatus)

		// Master workbook
		r.Post("/master", s.withUploadSlot(s.handleLoadMaster))
		r.Get("/template/master", s.handleDownloadTemplate)

		// Orders
		r.Post("/orders", s.withUploadSlot(s.handleLoadOrders))
		r.Get("/orders", s.handleListOrders)

		// Generated identifiers
		r.Post("/identifiers/preview", s.handlePreviewIdentifiers)
		r.Post("/identifiers/confirm", s.handleConfirmIdentifiers)
		r.Post("/identifiers/cancel", s.handleCancelIdentifiers)

		// Manual lines
		r.Post("/lines", s.handleAddLine)

		// Results
		r.Get("/preview", s.handlePreviewExpansion)
		r.Get("/review", s.handleReview)
		r.Get("/export", s.handleExport)

		if s.runs != nil {
			r.Get("/history", s.handleListRuns)
			r.Get("/history/{id}", s.handleGetRun)
		}
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// presetNames lists the built-in column presets.
func presetNames() []string {
	names := make([]string, 0, len(core.Presets))
	for name := range core.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// rateLimiter keeps one token bucket per client IP. Each bucket holds
// rate tokens and refills at rate per window.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
	now      func() time.Time
	done     chan struct{}
	once     sync.Once
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(n int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     n,
		window:   window,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// cleanup drops visitors idle for two windows until stop is called.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if rl.now().Sub(v.lastSeen) > rl.window*2 {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.once.Do(func() { close(rl.done) })
}

// allow consumes a token for ip and reports whether one was available.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, exists := rl.visitors[ip]
	if !exists {
		every := rate.Every(rl.window / time.Duration(rl.rate))
		v = &visitor{limiter: rate.NewLimiter(every, rl.rate)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// middleware rate limits by r.RemoteAddr, which TrustedRealIP has already
// rewritten for trusted proxies.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeError writes a bare JSON error for failures outside a handler.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
