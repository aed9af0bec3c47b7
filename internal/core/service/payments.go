package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/niksmo/storebuilder/internal/core/domain"
)

// ReconcilePayment applies a verified provider notification to its order.
// The payment status is read under the order row lock, so a replayed or
// concurrent notification for a settled payment returns applied false and
// changes nothing.
func (s *Service) ReconcilePayment(
	ctx context.Context, form url.Values,
) (domain.Order, bool, error) {
	const op = "Service.ReconcilePayment"
	log := slog.With("op", op)

	n, err := s.payments.VerifyNotification(form)
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("%s: %w", op, err)
	}

	var applied bool
	o, err := s.storage.ModifyOrder(ctx, n.OrderID,
		func(o *domain.Order) (domain.OrderEffects, error) {
			var effects domain.OrderEffects
			effects, applied = domain.ApplyPaymentNotification(o, n)
			return effects, nil
		},
	)
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("%s: order %w", op, err)
	}

	if !applied {
		log.Info("notification for settled payment ignored",
			"orderID", o.ID, "paymentStatus", o.Payment.Status)
		return o, false, nil
	}

	evType := domain.OrderEventFailed
	if o.Payment.Status == domain.PaymentCompleted {
		evType = domain.OrderEventPaid
	}
	s.publish(ctx, domain.NewOrderEvent(evType, o, n.ReceivedAt))

	log.Info("payment reconciled",
		"orderID", o.ID, "paymentStatus", o.Payment.Status)
	return o, true, nil
}
