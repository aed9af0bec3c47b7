package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/niksmo/storebuilder/internal/core/port"
	"github.com/shopspring/decimal"
)

type OrdersHandler struct {
	responder
	orders port.OrderManager
	guard  guardMiddleware
}

func RegisterOrders(
	r chi.Router, rs responder, mw middlewares, orders port.OrderManager,
) {
	h := OrdersHandler{rs, orders, mw.guard}
	orderGuard := mw.guard.Guard(domain.ResourceOrder, "id")
	storeGuard := mw.guard.Guard(domain.ResourceStore, "storeId")

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(mw.auth.Authenticate)
		r.Get("/", h.List)
		r.Get("/analytics/overview", h.Overview)
		r.With(storeGuard).Get("/store/{storeId}", h.StoreOrders)
		r.Get("/{id}", h.Get)
		r.With(orderGuard, AllowJSON).Put("/{id}/status", h.ChangeStatus)
		r.With(orderGuard, AllowJSON).Post("/{id}/refund", h.Refund)
	})
}

func (h OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	const op = "OrdersHandler.List"
	log := slog.With("op", op)

	f := domain.OrderFilter{
		CustomerID: currentUserID(r),
		Status:     domain.OrderStatus(r.URL.Query().Get("status")),
		Pagination: pagination(r),
	}
	orders, total, err := h.orders.ListOrders(r.Context(), f)
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, OrdersResponse{
		Orders:     toOrders(orders),
		Pagination: toPagination(f.Pagination, total),
	})
}

func (h OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "OrdersHandler.Get"
	log := slog.With("op", op)

	o, err := h.orders.ViewOrder(r.Context(), currentUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, struct {
		Order Order `json:"order"`
	}{toOrder(o)})
}

func (h OrdersHandler) StoreOrders(w http.ResponseWriter, r *http.Request) {
	const op = "OrdersHandler.StoreOrders"
	log := slog.With("op", op)

	q := r.URL.Query()
	f := domain.OrderFilter{
		StoreID:    chi.URLParam(r, "storeId"),
		Status:     domain.OrderStatus(q.Get("status")),
		Search:     q.Get("search"),
		Pagination: pagination(r),
	}
	orders, total, summary, err := h.orders.StoreOrders(r.Context(), f)
	if err != nil {
		h.fail(w, log, err)
		return
	}
	s := toOrderSummary(summary)
	h.json(w, log, http.StatusOK, OrdersResponse{
		Orders:     toOrders(orders),
		Pagination: toPagination(f.Pagination, total),
		Summary:    &s,
	})
}

func (h OrdersHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	const op = "OrdersHandler.ChangeStatus"
	log := slog.With("op", op)

	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, log, err)
		return
	}

	o, err := h.orders.ChangeOrderStatus(r.Context(), chi.URLParam(r, "id"), domain.StatusUpdate{
		Status:         req.Status,
		TrackingNumber: req.TrackingNumber,
		Notes:          req.Notes,
	})
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, struct {
		Message string `json:"message"`
		Order   Order  `json:"order"`
	}{"Order status updated successfully", toOrder(o)})
	log.Info("order status changed", "orderID", o.ID, "status", o.Status)
}

func (h OrdersHandler) Refund(w http.ResponseWriter, r *http.Request) {
	const op = "OrdersHandler.Refund"
	log := slog.With("op", op)

	var req RefundRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, log, err)
		return
	}

	o, refunded, err := h.orders.RefundOrder(
		r.Context(), chi.URLParam(r, "id"), refundAmount(req.Amount), req.Reason,
	)
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, RefundResponse{
		Message:      "Refund processed successfully",
		Order:        toOrder(o),
		RefundAmount: Money(refunded),
	})
	log.Info("order refunded", "orderID", o.ID, "amount", refunded.StringFixed(2))
}

func refundAmount(m *Money) *decimal.Decimal {
	if m == nil {
		return nil
	}
	d := m.Decimal()
	return &d
}

func (h OrdersHandler) Overview(w http.ResponseWriter, r *http.Request) {
	const op = "OrdersHandler.Overview"
	log := slog.With("op", op)

	q := r.URL.Query()
	storeID := q.Get("storeId")
	if !h.guard.guardQuery(w, r, domain.ResourceStore, storeID) {
		return
	}

	tf := domain.ParseTimeframe(q.Get("timeframe"))
	summary, daily, err := h.orders.OrdersOverview(r.Context(), storeID, tf)
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, OverviewResponse{
		Timeframe: tf,
		Summary:   toOrderSummary(summary),
		Daily:     toDailyStats(daily, false),
	})
}
