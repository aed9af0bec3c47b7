package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/niksmo/storebuilder/internal/core/port"
)

type AffiliatesHandler struct {
	responder
	affiliates port.AffiliateManager
}

func RegisterAffiliates(
	r chi.Router, rs responder, mw middlewares, affiliates port.AffiliateManager,
) {
	h := AffiliatesHandler{rs, affiliates}
	r.Route("/api/affiliates", func(r chi.Router) {
		r.Use(mw.auth.Authenticate)
		r.Get("/dashboard", h.Dashboard)
		r.Get("/referrals", h.Referrals)
		r.Get("/commissions", h.Commissions)
		r.Get("/analytics", h.Analytics)
		r.With(AllowJSON).Post("/generate-link", h.GenerateLink)
		r.With(AllowJSON).Post("/request-payout", h.RequestPayout)
	})
}

func (h AffiliatesHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	const op = "AffiliatesHandler.Dashboard"
	log := slog.With("op", op)

	d, err := h.affiliates.AffiliateDashboard(r.Context(), currentUserID(r))
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, toAffiliateDashboard(d))
}

func (h AffiliatesHandler) Referrals(w http.ResponseWriter, r *http.Request) {
	const op = "AffiliatesHandler.Referrals"
	log := slog.With("op", op)

	f := domain.ReferralFilter{
		ReferrerID: currentUserID(r),
		Pagination: pagination(r),
	}
	switch r.URL.Query().Get("status") {
	case "converted":
		converted := true
		f.Converted = &converted
	case "free":
		converted := false
		f.Converted = &converted
	}

	reports, total, err := h.affiliates.Referrals(r.Context(), f)
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, ReferralsResponse{
		Referrals:  toReferralReports(reports),
		Pagination: toPagination(f.Pagination, total),
	})
}

func (h AffiliatesHandler) Commissions(w http.ResponseWriter, r *http.Request) {
	const op = "AffiliatesHandler.Commissions"
	log := slog.With("op", op)

	f := domain.CommissionFilter{
		ReferrerID: currentUserID(r),
		Pagination: pagination(r),
	}
	switch r.URL.Query().Get("status") {
	case "paid":
		paid := true
		f.Paid = &paid
	case "pending":
		paid := false
		f.Paid = &paid
	}

	orders, total, summary, err := h.affiliates.Commissions(r.Context(), f)
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, CommissionsResponse{
		Commissions: toOrders(orders),
		Summary:     toCommissionSummary(summary),
		Pagination:  toPagination(f.Pagination, total),
	})
}

func (h AffiliatesHandler) GenerateLink(w http.ResponseWriter, r *http.Request) {
	const op = "AffiliatesHandler.GenerateLink"
	log := slog.With("op", op)

	var req LinkRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, log, err)
		return
	}

	link, err := h.affiliates.CampaignLink(
		r.Context(), currentUserID(r), req.Campaign, req.Source, req.Medium,
	)
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, LinkResponse{
		Link:      link,
		QRCodeURL: domain.QRCodeURL(link),
	})
}

func (h AffiliatesHandler) RequestPayout(w http.ResponseWriter, r *http.Request) {
	const op = "AffiliatesHandler.RequestPayout"
	log := slog.With("op", op)

	var req PayoutRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, log, err)
		return
	}

	p, err := h.affiliates.RequestPayout(
		r.Context(), currentUserID(r), req.Amount.Decimal(),
		req.PaymentMethod, req.PaymentDetails,
	)
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, PayoutResponse{
		Message: "Payout request submitted successfully",
		Payout:  toPayout(p),
	})
	log.Info("payout requested",
		"userID", p.UserID, "payoutID", p.ID, "amount", p.Amount.StringFixed(2))
}

func (h AffiliatesHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	const op = "AffiliatesHandler.Analytics"
	log := slog.With("op", op)

	tf := domain.ParseTimeframe(r.URL.Query().Get("timeframe"))
	a, err := h.affiliates.AffiliateAnalytics(r.Context(), currentUserID(r), tf)
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, toAffiliateAnalytics(a))
}
