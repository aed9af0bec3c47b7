package httphandler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/niksmo/storebuilder/internal/core/port"
)

const ServiceName = "Store Builder API"

type HealthChecker interface {
	Healthy(context.Context) bool
}

// Observer records request and payment metrics.
type Observer interface {
	NotificationObserver
	Middleware(http.Handler) http.Handler
	Handler() http.Handler
}

// Deps are the inbound ports and settings the router is built from.
type Deps struct {
	Auth       port.Authenticator
	Authz      port.Authorizer
	Users      port.UserManager
	Stores     port.StoreManager
	Products   port.ProductManager
	Orders     port.OrderManager
	Affiliates port.AffiliateManager
	Health     HealthChecker
	Observer   Observer
	Limiter    *RateLimiter

	// AllowedOrigins are the browser origins allowed to call the API with
	// credentials. CORS is off when empty.
	AllowedOrigins []string
	UploadsDir     string
	Version        string
	// DetailedErrors exposes internal error text in 500 responses.
	DetailedErrors bool
}

type middlewares struct {
	auth  authMiddleware
	guard guardMiddleware
	limit func(http.Handler) http.Handler
}

func NewRouter(d Deps) http.Handler {
	rs := responder{detailed: d.DetailedErrors}
	mw := middlewares{
		auth:  authMiddleware{rs, d.Auth},
		guard: guardMiddleware{rs, d.Authz},
		limit: d.Limiter.Middleware,
	}

	r := chi.NewRouter()
	if len(d.AllowedOrigins) != 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: d.AllowedOrigins,
			AllowedMethods: []string{
				http.MethodGet, http.MethodPost, http.MethodPut,
				http.MethodPatch, http.MethodDelete, http.MethodOptions,
			},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger,
		middleware.Recoverer,
		d.Observer.Middleware,
	)

	r.Get("/", health(rs, d.Health, d.Version))
	r.Method(http.MethodGet, "/metrics", d.Observer.Handler())
	if d.UploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix(
			"/uploads/", http.FileServer(http.Dir(d.UploadsDir)),
		))
	}

	RegisterAuth(r, rs, mw, d.Auth)
	RegisterUsers(r, rs, mw, d.Users, d.Affiliates)
	RegisterStores(r, rs, mw, d.Stores)
	RegisterProducts(r, rs, mw, d.Products)
	RegisterOrders(r, rs, mw, d.Orders)
	RegisterPayments(r, rs, mw, d.Orders, d.Observer)
	RegisterAffiliates(r, rs, mw, d.Affiliates)
	RegisterAI(r, rs, mw)

	r.NotFound(notFound(rs))
	return r
}

func health(rs responder, hc HealthChecker, version string) http.HandlerFunc {
	const op = "health"
	log := slog.With("op", op)

	type response struct {
		Message  string    `json:"message"`
		Version  string    `json:"version"`
		Database string    `json:"database"`
		Time     time.Time `json:"timestamp"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		db := "disconnected"
		if hc.Healthy(r.Context()) {
			db = "connected"
		}
		rs.json(w, log, http.StatusOK, response{
			Message:  ServiceName + " is running",
			Version:  version,
			Database: db,
			Time:     time.Now().UTC(),
		})
	}
}

func notFound(rs responder) http.HandlerFunc {
	const op = "notFound"
	log := slog.With("op", op)

	return func(w http.ResponseWriter, r *http.Request) {
		rs.json(w, log, http.StatusNotFound, NotFoundResponse{
			Message: "Route not found",
			Path:    r.URL.Path,
			Method:  r.Method,
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"requestID", middleware.GetReqID(r.Context()),
		)
	}
	return http.HandlerFunc(hf)
}
