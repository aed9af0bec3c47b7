package httphandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/niksmo/storebuilder/internal/core/port"
	"golang.org/x/time/rate"
)

func AllowJSON(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mt != "application/json" {
			http.Error(w, "invalid media type", http.StatusUnsupportedMediaType)
			return
		}

		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(hf)
}

type userCtxKey struct{}

// UserFrom returns the user the request was authenticated as.
func UserFrom(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(userCtxKey{}).(domain.User)
	return u, ok
}

func withUser(ctx context.Context, u domain.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// currentUserID is empty for anonymous requests.
func currentUserID(r *http.Request) string {
	u, _ := UserFrom(r.Context())
	return u.ID
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

type authMiddleware struct {
	responder
	auth port.Authenticator
}

// Authenticate rejects requests without a valid bearer token of an
// existing user.
func (m authMiddleware) Authenticate(next http.Handler) http.Handler {
	const op = "Authenticate"
	log := slog.With("op", op)

	hf := func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			m.fail(w, log, fmt.Errorf(
				"%s: %w: no token", op, domain.ErrUnauthenticated,
			))
			return
		}
		u, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			m.fail(w, log, fmt.Errorf("%s: %w", op, err))
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
	}
	return http.HandlerFunc(hf)
}

// OptionalAuthenticate attaches the user when a valid token is present and
// lets the request through as anonymous otherwise.
func (m authMiddleware) OptionalAuthenticate(next http.Handler) http.Handler {
	const op = "OptionalAuthenticate"
	log := slog.With("op", op)

	hf := func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		u, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			if !errors.Is(err, domain.ErrUnauthenticated) {
				m.fail(w, log, fmt.Errorf("%s: %w", op, err))
				return
			}
			log.Debug("ignoring invalid token", "err", err)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
	}
	return http.HandlerFunc(hf)
}

type guardMiddleware struct {
	responder
	authz port.Authorizer
}

// Guard lets the request through only when the authenticated user may
// mutate the resource of the given kind whose id is the URL parameter
// param.
func (m guardMiddleware) Guard(
	kind domain.ResourceKind, param string,
) func(http.Handler) http.Handler {
	const op = "Guard"
	log := slog.With("op", op, "kind", kind)

	return func(next http.Handler) http.Handler {
		hf := func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, param)
			err := m.authz.Authorize(r.Context(), currentUserID(r), kind, id)
			if err != nil {
				m.fail(w, log, fmt.Errorf("%s: %w", op, err))
				return
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hf)
	}
}

// guardQuery is Guard for ids passed as a query parameter.
func (m guardMiddleware) guardQuery(
	w http.ResponseWriter, r *http.Request, kind domain.ResourceKind, id string,
) bool {
	const op = "Guard"
	log := slog.With("op", op, "kind", kind)

	if id == "" {
		m.fail(w, log, domain.Invalid("%s id is required", kind))
		return false
	}
	err := m.authz.Authorize(r.Context(), currentUserID(r), kind, id)
	if err != nil {
		m.fail(w, log, fmt.Errorf("%s: %w", op, err))
		return false
	}
	return true
}

const limiterIdleTTL = 30 * time.Minute

// RateLimiter throttles requests per client IP.
type RateLimiter struct {
	rps   rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*ipLimiter
	now      func() time.Time
}

type ipLimiter struct {
	limiter *rate.Limiter
	last    time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		limiters: make(map[string]*ipLimiter),
		now:      time.Now,
	}
}

func (l *RateLimiter) limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	il, ok := l.limiters[ip]
	if !ok {
		il = &ipLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[ip] = il
	}
	il.last = now
	return il.limiter
}

// Run evicts idle limiters until ctx is done.
func (l *RateLimiter) Run(ctx context.Context) {
	t := time.NewTicker(limiterIdleTTL / 6)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.evictIdle()
		}
	}
}

func (l *RateLimiter) evictIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for ip, il := range l.limiters {
		if now.Sub(il.last) > limiterIdleTTL {
			delete(l.limiters, ip)
		}
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	const op = "RateLimiter"
	log := slog.With("op", op)

	hf := func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !l.limiter(ip).Allow() {
			log.Warn("rate limit exceeded", "ip", ip)
			w.Header().Set("Retry-After", "1")
			responder{}.message(
				w, log, http.StatusTooManyRequests,
				"Too many requests, please try again later",
			)
			return
		}
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(hf)
}

// clientIP relies on RealIP having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
