// Package http serves the JSON API: account endpoints, owner-scoped
// transaction CRUD, and the dashboard reads.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"financas/internal/auth"
	"financas/internal/cache"
	"financas/internal/middleware/trace"
	"financas/internal/services"
)

const sessionCookie = "financas_session"

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tune the protections around the handlers.
type Options struct {
	RateLimitPerMinute int
	CacheTTL           time.Duration
	SessionTTL         time.Duration
}

func DefaultOptions() Options {
	return Options{
		RateLimitPerMinute: 60,
		CacheTTL:           30 * time.Second,
		SessionTTL:         12 * time.Hour,
	}
}

type Server struct {
	http.Server

	finance  *services.FinanceService
	accounts *auth.Service
	sessions *auth.SessionManager
	store    Pinger
	opts     Options

	rateLimiter *rateLimiter

	// Dashboard responses are cached as marshaled JSON per owner and
	// invalidated whenever that owner writes.
	dashCache *cache.LRU[[]byte]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, finance *services.FinanceService, accounts *auth.Service, sessions *auth.SessionManager, store Pinger, opts Options) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr: addr,
		},
		finance:          finance,
		accounts:         accounts,
		sessions:         sessions,
		store:            store,
		opts:             opts,
		rateLimiter:      newRateLimiter(opts.RateLimitPerMinute),
		dashCache:        cache.NewLRU[[]byte](256, opts.CacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.Handle("GET /transactions", s.withOwner(s.handleListTransactions))
	mux.Handle("POST /transactions", s.withOwner(s.handleCreateTransaction))
	mux.Handle("PATCH /transactions/{id}", s.withOwner(s.handleUpdateTransaction))
	mux.Handle("DELETE /transactions/{id}", s.withOwner(s.handleDeleteTransaction))

	mux.Handle("GET /summary", s.withOwner(s.handleSummary))
	mux.Handle("GET /breakdowns", s.withOwner(s.handleBreakdowns))
	mux.Handle("GET /projection", s.withOwner(s.handleProjection))
	mux.Handle("GET /trend", s.withOwner(s.handleTrend))

	handler := securityHeaders(s.rateLimitMiddleware(mux))
	s.Handler = trace.Middleware(clientIP)(handler)

	go s.startCacheCleanup()

	return s
}

// ownerHandler is a handler that has already resolved the requesting
// owner from the session.
type ownerHandler func(w http.ResponseWriter, r *http.Request, owner string)

// withOwner rejects requests without a live session and passes the
// resolved owner to the handler. There is no process-wide current user;
// identity travels with the request.
func (s *Server) withOwner(h ownerHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		owner, ok := s.sessions.Resolve(c.Value)
		if !ok {
			writeError(w, http.StatusUnauthorized, "session expired")
			return
		}
		h(w, r, owner)
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimiter.allow(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// invalidateOwner drops the owner's cached dashboard responses after a
// write.
func (s *Server) invalidateOwner(owner string) {
	s.dashCache.Delete("summary:" + owner)
	s.dashCache.Delete("breakdowns:" + owner)
	s.dashCache.Delete("projection:" + owner)
	s.dashCache.Delete("trend:" + owner)
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.dashCache.CleanExpired()
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the cleanup goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// Simple in-memory per-IP rate limiter.
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	perMinute    int
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter(perMinute int) *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		perMinute:   perMinute,
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[ip]

	if !exists || now.Sub(client.lastRequest) > time.Minute {
		rl.clients[ip] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}

	client.requests++
	client.lastRequest = now
	return client.requests <= rl.perMinute
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}
