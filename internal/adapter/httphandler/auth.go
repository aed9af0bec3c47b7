package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/niksmo/storebuilder/internal/core/port"
)

// POST /api/auth/register JSON (201 Created, 400 Bad request)
// POST /api/auth/login JSON (200 OK, 401 Unauthorized)
// GET /api/auth/me Headers Authorization Bearer (200 OK, 401 Unauthorized)

type AuthHandler struct {
	responder
	auth port.Authenticator
}

func RegisterAuth(r chi.Router, rs responder, mw middlewares, auth port.Authenticator) {
	h := AuthHandler{rs, auth}
	r.Route("/api/auth", func(r chi.Router) {
		r.With(mw.limit, AllowJSON).Post("/register", h.Register)
		r.With(mw.limit, AllowJSON).Post("/login", h.Login)
		r.With(mw.auth.Authenticate).Get("/me", h.Me)
	})
}

func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	const op = "AuthHandler.Register"
	log := slog.With("op", op)

	var req RegisterRequest
	if err := decodeValidJSON(r, registerSchemaLoader, &req); err != nil {
		h.fail(w, log, err)
		return
	}

	s, err := h.auth.Register(r.Context(), domain.Registration{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		h.fail(w, log, err)
		return
	}

	h.json(w, log, http.StatusCreated, SessionResponse{
		Message: "User registered successfully",
		Token:   s.Token,
		User:    toUser(s.User),
	})
	log.Info("user registered", "userID", s.User.ID)
}

func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "AuthHandler.Login"
	log := slog.With("op", op)

	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, log, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		h.fail(w, log, domain.Invalid("please provide email and password"))
		return
	}

	s, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, log, err)
		return
	}

	h.json(w, log, http.StatusOK, SessionResponse{
		Message: "Login successful",
		Token:   s.Token,
		User:    toUser(s.User),
	})
}

func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	const op = "AuthHandler.Me"
	log := slog.With("op", op)

	u, _ := UserFrom(r.Context())
	h.json(w, log, http.StatusOK, struct {
		User User `json:"user"`
	}{toUser(u)})
}
