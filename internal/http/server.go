// Package http serves the household ledger API: session auth, the
// guardian write surface and the dashboard/analytics views.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"paghetta/internal/auth"
	"paghetta/internal/cache"
	applog "paghetta/internal/log"
)

const sessionCookieName = "paghetta_session"

type Server struct {
	http.Server

	store   ReadStore
	ledger  Ledger
	settler Settler
	tokens  *auth.TokenManager

	rateLimiter *rateLimiter
	logs        *applog.StructuredLogger

	// Derived views are cached per filter and purged on every write.
	dashCache      *cache.LRUCache[dashboardResponse]
	analyticsCache *cache.LRUCache[analyticsResponse]
	cacheManager   *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, store ReadStore, ledger Ledger, settler Settler, tokens *auth.TokenManager) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:          store,
		ledger:         ledger,
		settler:        settler,
		tokens:         tokens,
		rateLimiter:    newRateLimiter(),
		logs:           applog.NewStructuredLogger(applog.New(applog.DefaultConfig())),
		dashCache:      cache.NewLRUCache[dashboardResponse](100, 5*time.Minute),
		analyticsCache: cache.NewLRUCache[analyticsResponse](100, 5*time.Minute),
		cacheManager:   cache.NewManager(),
	}

	s.cacheManager.Register(s.dashCache)
	s.cacheManager.Register(s.analyticsCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /login", s.withObservability(s.handleLogin))
	mux.HandleFunc("POST /logout", s.withObservability(s.handleLogout))

	mux.HandleFunc("GET /dashboard", s.withObservability(s.requireAuth(s.handleDashboard)))
	mux.HandleFunc("GET /analytics", s.withObservability(s.requireAuth(s.handleAnalytics)))

	mux.HandleFunc("POST /transactions", s.withObservability(s.requireGuardian(s.handleCreateTransaction)))
	mux.HandleFunc("DELETE /transactions/{id}", s.withObservability(s.requireGuardian(s.handleDeleteTransaction)))
	mux.HandleFunc("POST /import", s.withObservability(s.requireGuardian(s.handleImport)))
	mux.HandleFunc("POST /settings/rate", s.withObservability(s.requireGuardian(s.handleUpdateRate)))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidateViews drops every cached dashboard and analytics response.
// Called after any ledger mutation so reads never serve stale balances.
func (s *Server) invalidateViews() {
	s.dashCache.Purge()
	s.analyticsCache.Purge()
}

// withObservability adds security headers, rate limiting, a request ID
// and request logging.
func (s *Server) withObservability(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := clientIP(r)

		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.logs.LogHTTPStart(ctx, r, clientIP)

		// Mutations are rate limited per client IP.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldComponent, applog.ComponentRateLimit,
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logs.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
