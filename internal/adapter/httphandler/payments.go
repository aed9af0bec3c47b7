package httphandler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/storebuilder/internal/adapter/metrics"
	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/niksmo/storebuilder/internal/core/port"
)

// POST /api/payments/create-order JSON, Authorization Bearer is opt (201 Created, 400, 401, 404)
// POST /api/payments/payfast/notify form (200 OK, 400 Bad request, 404 Not found)

// NotificationObserver counts payment notifications by outcome.
type NotificationObserver interface {
	ObservePaymentNotification(result string)
}

type PaymentsHandler struct {
	responder
	orders   port.OrderManager
	observer NotificationObserver
}

func RegisterPayments(
	r chi.Router, rs responder, mw middlewares,
	orders port.OrderManager, observer NotificationObserver,
) {
	h := PaymentsHandler{rs, orders, observer}
	oh := OrdersHandler{rs, orders, mw.guard}

	r.Route("/api/payments", func(r chi.Router) {
		r.With(mw.auth.OptionalAuthenticate, AllowJSON).
			Post("/create-order", h.CreateOrder)
		r.Post("/payfast/notify", h.PayfastNotify)
		r.Get("/order/{id}", h.Order)

		r.Group(func(r chi.Router) {
			r.Use(mw.auth.Authenticate)
			r.Get("/orders", oh.List)
			r.With(mw.guard.Guard(domain.ResourceStore, "storeId")).
				Get("/store/{storeId}/orders", oh.StoreOrders)
			r.With(mw.guard.Guard(domain.ResourceOrder, "id"), AllowJSON).
				Put("/order/{id}/status", oh.ChangeStatus)
		})
	})
}

func (h PaymentsHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	const op = "PaymentsHandler.CreateOrder"
	log := slog.With("op", op)

	var req CreateOrderRequest
	if err := decodeValidJSON(r, createOrderSchemaLoader, &req); err != nil {
		h.fail(w, log, err)
		return
	}

	o, redirect, err := h.orders.PlaceOrder(r.Context(), req.toDomain(currentUserID(r)))
	if err != nil {
		h.fail(w, log, err)
		return
	}

	h.json(w, log, http.StatusCreated, CreateOrderResponse{
		Message: "Order created successfully",
		Order: OrderBrief{
			ID:          o.ID,
			OrderNumber: o.OrderNumber,
			Total:       Money(o.Pricing.Total),
			Currency:    o.Pricing.Currency,
		},
		Payment: PaymentRedirect{URL: redirect.URL, Data: redirect.Data},
	})
	log.Info("order placed",
		"orderID", o.ID, "orderNumber", o.OrderNumber, "method", o.Payment.Method)
}

// PayfastNotify reconciles an instant payment notification. Notifications
// for settled payments are acknowledged without changes.
func (h PaymentsHandler) PayfastNotify(w http.ResponseWriter, r *http.Request) {
	const op = "PaymentsHandler.PayfastNotify"
	log := slog.With("op", op)

	if err := r.ParseForm(); err != nil {
		h.observer.ObservePaymentNotification(metrics.NotificationRejected)
		h.fail(w, log, domain.Invalid("invalid notification payload"))
		return
	}

	o, applied, err := h.orders.ReconcilePayment(r.Context(), r.PostForm)
	if err != nil {
		result := metrics.NotificationFailed
		if errors.Is(err, domain.ErrInvalidSignature) ||
			errors.Is(err, domain.ErrValidation) ||
			errors.Is(err, domain.ErrNotFound) {
			result = metrics.NotificationRejected
		}
		h.observer.ObservePaymentNotification(result)
		h.fail(w, log, err)
		return
	}

	result := metrics.NotificationReplayed
	if applied {
		result = metrics.NotificationApplied
	}
	h.observer.ObservePaymentNotification(result)

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.Error("failed to write response body", "err", err)
	}
	log.Info("notification processed",
		"orderID", o.ID, "result", result, "paymentStatus", o.Payment.Status)
}

// Order is the public order lookup used by the payment result pages.
func (h PaymentsHandler) Order(w http.ResponseWriter, r *http.Request) {
	const op = "PaymentsHandler.Order"
	log := slog.With("op", op)

	o, err := h.orders.Order(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, struct {
		Order Order `json:"order"`
	}{toOrder(o)})
}
