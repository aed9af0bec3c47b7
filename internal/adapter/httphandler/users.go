package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/niksmo/storebuilder/internal/core/port"
)

type UsersHandler struct {
	responder
	users      port.UserManager
	affiliates port.AffiliateManager
}

func RegisterUsers(
	r chi.Router, rs responder, mw middlewares,
	users port.UserManager, affiliates port.AffiliateManager,
) {
	h := UsersHandler{rs, users, affiliates}
	r.Route("/api/users", func(r chi.Router) {
		r.Use(mw.auth.Authenticate, AllowJSON)
		r.Get("/profile", h.Profile)
		r.Put("/profile", h.UpdateProfile)
		r.Get("/dashboard", h.Dashboard)
		r.Get("/affiliate", h.Affiliate)
		r.Put("/subscription", h.ChangePlan)
		r.Delete("/account", h.DeleteAccount)
	})
}

func (h UsersHandler) Profile(w http.ResponseWriter, r *http.Request) {
	const op = "UsersHandler.Profile"
	log := slog.With("op", op)

	u, stores, err := h.users.Profile(r.Context(), currentUserID(r))
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, struct {
		User   User    `json:"user"`
		Stores []Store `json:"stores"`
	}{toUser(u), toStores(stores, false)})
}

func (h UsersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	const op = "UsersHandler.UpdateProfile"
	log := slog.With("op", op)

	var req ProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, log, err)
		return
	}

	u, err := h.users.UpdateProfile(r.Context(), currentUserID(r), domain.ProfileUpdate{
		Profile:  req.Profile,
		Settings: req.Settings,
	})
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, struct {
		Message string `json:"message"`
		User    User   `json:"user"`
	}{"Profile updated successfully", toUser(u)})
}

func (h UsersHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	const op = "UsersHandler.Dashboard"
	log := slog.With("op", op)

	d, err := h.users.Dashboard(r.Context(), currentUserID(r))
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, toDashboard(d))
}

// Affiliate enables the affiliate program on first call.
func (h UsersHandler) Affiliate(w http.ResponseWriter, r *http.Request) {
	const op = "UsersHandler.Affiliate"
	log := slog.With("op", op)

	userID := currentUserID(r)
	u, err := h.affiliates.EnableAffiliate(r.Context(), userID)
	if err != nil {
		h.fail(w, log, err)
		return
	}
	link, err := h.affiliates.CampaignLink(r.Context(), userID, "", "", "")
	if err != nil {
		h.fail(w, log, err)
		return
	}

	h.json(w, log, http.StatusOK, struct {
		Affiliate AffiliateAccount `json:"affiliate"`
		Referrals int              `json:"referrals"`
	}{
		Affiliate: AffiliateAccount{
			ReferralCode:   u.Affiliate.ReferralCode,
			ReferralLink:   link,
			TotalEarnings:  Money(u.Affiliate.TotalEarnings),
			PendingPayouts: Money(u.Affiliate.PendingPayouts),
		},
		Referrals: len(u.Affiliate.Referrals),
	})
}

func (h UsersHandler) ChangePlan(w http.ResponseWriter, r *http.Request) {
	const op = "UsersHandler.ChangePlan"
	log := slog.With("op", op)

	var req SubscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, log, err)
		return
	}

	u, err := h.users.ChangePlan(r.Context(), currentUserID(r), req.Plan)
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, struct {
		Message      string              `json:"message"`
		Subscription domain.Subscription `json:"subscription"`
	}{"Subscription updated successfully", u.Subscription})
	log.Info("plan changed", "userID", u.ID, "plan", u.Subscription.Plan)
}

func (h UsersHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	const op = "UsersHandler.DeleteAccount"
	log := slog.With("op", op)

	var req DeleteAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, log, err)
		return
	}
	if req.Password == "" {
		h.fail(w, log, domain.Invalid("password is required"))
		return
	}

	userID := currentUserID(r)
	if err := h.users.DeleteAccount(r.Context(), userID, req.Password); err != nil {
		h.fail(w, log, err)
		return
	}
	h.message(w, log, http.StatusOK, "Account deleted successfully")
	log.Info("account deleted", "userID", userID)
}
