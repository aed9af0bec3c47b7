package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/niksmo/storebuilder/pkg/retry"
	"github.com/shopspring/decimal"
)

const (
	orderNumberAttempts = 5
	orderNumberBackoff  = 10 * time.Millisecond
)

// PlaceOrder prices the checkout against current products and store
// settings, stores a pending order and prepares the payment redirect.
func (s *Service) PlaceOrder(
	ctx context.Context, c domain.Checkout,
) (domain.Order, domain.CheckoutRedirect, error) {
	const op = "Service.PlaceOrder"

	if err := c.Validate(); err != nil {
		return domain.Order{}, domain.CheckoutRedirect{}, fmt.Errorf("%s: %w", op, err)
	}

	st, err := s.storage.ReadStore(ctx, c.StoreID)
	if err != nil {
		return domain.Order{}, domain.CheckoutRedirect{}, fmt.Errorf("%s: store %w", op, err)
	}
	if c.CustomerUserID == "" && !st.Settings.AllowGuestCheckout {
		return domain.Order{}, domain.CheckoutRedirect{}, fmt.Errorf(
			"%s: %w: guest checkout is not allowed for this store",
			op, domain.ErrUnauthenticated,
		)
	}

	if c.PaymentMethod == domain.PaymentPayfast {
		if err := s.payments.Ready(); err != nil {
			return domain.Order{}, domain.CheckoutRedirect{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	items, err := s.orderItems(ctx, c)
	if err != nil {
		return domain.Order{}, domain.CheckoutRedirect{}, fmt.Errorf("%s: %w", op, err)
	}

	o := domain.NewOrder(c, items, st.Settings, s.now())
	o.ID = s.newID()
	if c.ReferralCode != "" {
		if err := s.attachReferrer(ctx, &o, c.ReferralCode); err != nil {
			return domain.Order{}, domain.CheckoutRedirect{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := s.insertOrder(ctx, &o); err != nil {
		return domain.Order{}, domain.CheckoutRedirect{}, fmt.Errorf("%s: %w", op, err)
	}
	s.publish(ctx, domain.NewOrderEvent(domain.OrderEventCreated, o, o.CreatedAt))

	var redirect domain.CheckoutRedirect
	if o.Payment.Method == domain.PaymentPayfast {
		redirect, err = s.payments.Checkout(o, st)
		if err != nil {
			return o, domain.CheckoutRedirect{}, fmt.Errorf("%s: %w", op, err)
		}
	}
	return o, redirect, nil
}

func (s *Service) orderItems(
	ctx context.Context, c domain.Checkout,
) ([]domain.OrderItem, error) {
	ids := make([]string, 0, len(c.Items))
	for _, line := range c.Items {
		ids = append(ids, line.ProductID)
	}

	products, err := s.storage.ReadProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]domain.OrderItem, 0, len(c.Items))
	for _, line := range c.Items {
		p, ok := byID[line.ProductID]
		if !ok {
			return nil, domain.Invalid(
				"product %s not found or inactive", line.ProductID,
			)
		}
		it, err := domain.NewOrderItem(p, c.StoreID, line)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// attachReferrer ignores codes that resolve to no user.
func (s *Service) attachReferrer(
	ctx context.Context, o *domain.Order, code string,
) error {
	const op = "Service.attachReferrer"

	ref, err := s.storage.ReadUserByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.With("op", op).Warn("unknown referral code", "code", code)
			return nil
		}
		return err
	}
	o.AttachAffiliate(ref.ID)
	return nil
}

// insertOrder draws a new order number whenever the current one collides.
func (s *Service) insertOrder(ctx context.Context, o *domain.Order) error {
	return retry.Do(ctx, retry.RetryConfig{
		MaxAttempts: orderNumberAttempts,
		Backoff:     retry.LinearBackoff(orderNumberBackoff),
		ShouldRetry: func(err error) bool {
			return domain.IsConflictOn(err, "order_number")
		},
	}, func() error {
		err := s.storage.CreateOrder(ctx, *o)
		if domain.IsConflictOn(err, "order_number") {
			o.OrderNumber = domain.NewOrderNumber(s.now())
		}
		return err
	})
}

// publish sends events after their change is committed. A failure is logged
// and never undoes the change.
func (s *Service) publish(ctx context.Context, es ...domain.OrderEvent) {
	const op = "Service.publish"
	if err := s.events.PublishOrderEvents(ctx, es...); err != nil {
		slog.With("op", op).Error("failed to publish order events", "err", err)
	}
}

func (s *Service) Order(ctx context.Context, id string) (domain.Order, error) {
	const op = "Service.Order"
	o, err := s.storage.ReadOrder(ctx, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	return o, nil
}

// ViewOrder returns the order to its customer or to the owner of its store.
func (s *Service) ViewOrder(
	ctx context.Context, actorID, id string,
) (domain.Order, error) {
	const op = "Service.ViewOrder"

	o, err := s.storage.ReadOrder(ctx, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	own, err := s.storage.ReadOwnership(ctx, domain.ResourceOrder, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}
	if !o.CanView(actorID, own.StoreOwnerID) {
		return domain.Order{}, fmt.Errorf(
			"%s: %w to view this order", op, domain.ErrForbidden,
		)
	}
	return o, nil
}

func (s *Service) ListOrders(
	ctx context.Context, f domain.OrderFilter,
) ([]domain.Order, int, error) {
	const op = "Service.ListOrders"
	orders, total, err := s.storage.ListOrders(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return orders, total, nil
}

// StoreOrders lists the orders of a store with its all time summary.
func (s *Service) StoreOrders(
	ctx context.Context, f domain.OrderFilter,
) ([]domain.Order, int, domain.OrderSummary, error) {
	const op = "Service.StoreOrders"

	orders, total, err := s.storage.ListOrders(ctx, f)
	if err != nil {
		return nil, 0, domain.OrderSummary{}, fmt.Errorf("%s: %w", op, err)
	}
	summary, err := s.storage.OrderSummary(ctx, f.StoreID, nil)
	if err != nil {
		return nil, 0, domain.OrderSummary{}, fmt.Errorf("%s: %w", op, err)
	}
	return orders, total, summary, nil
}

func (s *Service) ChangeOrderStatus(
	ctx context.Context, id string, upd domain.StatusUpdate,
) (domain.Order, error) {
	const op = "Service.ChangeOrderStatus"

	now := s.now()
	o, err := s.storage.ModifyOrder(ctx, id,
		func(o *domain.Order) (domain.OrderEffects, error) {
			err := o.ChangeStatus(upd.Status, upd.TrackingNumber, upd.Notes, now)
			if err != nil {
				return domain.OrderEffects{}, err
			}
			o.UpdatedAt = now
			o.Reprice()
			return domain.OrderEffects{}, nil
		},
	)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, domain.NewOrderEvent(domain.OrderEventStatusChanged, o, now))
	return o, nil
}

// RefundOrder refunds a completed payment. Commissions and analytics
// credited at payment time are kept.
func (s *Service) RefundOrder(
	ctx context.Context, id string, amount *decimal.Decimal, reason string,
) (domain.Order, decimal.Decimal, error) {
	const op = "Service.RefundOrder"

	now := s.now()
	var refund decimal.Decimal
	o, err := s.storage.ModifyOrder(ctx, id,
		func(o *domain.Order) (domain.OrderEffects, error) {
			var err error
			refund, err = o.Refund(amount, reason, now)
			if err != nil {
				return domain.OrderEffects{}, err
			}
			o.UpdatedAt = now
			o.Reprice()
			return domain.OrderEffects{}, nil
		},
	)
	if err != nil {
		return domain.Order{}, decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}

	ev := domain.NewOrderEvent(domain.OrderEventRefunded, o, now)
	ev.Amount = refund
	s.publish(ctx, ev)
	return o, refund, nil
}

func (s *Service) OrdersOverview(
	ctx context.Context, storeID string, tf domain.Timeframe,
) (domain.OrderSummary, []domain.DailyStat, error) {
	const op = "Service.OrdersOverview"

	since := tf.Since(s.now())
	summary, err := s.storage.OrderSummary(ctx, storeID, &since)
	if err != nil {
		return domain.OrderSummary{}, nil, fmt.Errorf("%s: %w", op, err)
	}
	days, err := s.storage.OrderDailyStats(ctx, storeID, since)
	if err != nil {
		return domain.OrderSummary{}, nil, fmt.Errorf("%s: %w", op, err)
	}
	return summary, days, nil
}
