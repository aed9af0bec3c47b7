package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderEventType string

const (
	OrderEventCreated       OrderEventType = "created"
	OrderEventPaid          OrderEventType = "paid"
	OrderEventFailed        OrderEventType = "failed"
	OrderEventRefunded      OrderEventType = "refunded"
	OrderEventStatusChanged OrderEventType = "status_changed"
)

// An OrderEvent is published after an order change is committed.
type OrderEvent struct {
	Type        OrderEventType
	OrderID     string
	OrderNumber string
	StoreID     string
	Status      OrderStatus
	Payment     PaymentStatus
	Total       decimal.Decimal
	Amount      decimal.Decimal
	Currency    Currency
	OccurredAt  time.Time
}

func NewOrderEvent(t OrderEventType, o Order, now time.Time) OrderEvent {
	return OrderEvent{
		Type:        t,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		StoreID:     o.StoreID,
		Status:      o.Status,
		Payment:     o.Payment.Status,
		Total:       o.Pricing.Total,
		Amount:      o.Pricing.Total,
		Currency:    o.Pricing.Currency,
		OccurredAt:  now,
	}
}

// StoreSales is the running sales ledger of a store built from order events.
type StoreSales struct {
	StoreID        string
	PaidOrders     int64
	Revenue        decimal.Decimal
	RefundedOrders int64
	RefundedAmount decimal.Decimal
	LastEventAt    time.Time
}

// Fold applies an order event to the ledger. Events other than paid and
// refunded leave it unchanged.
func (s StoreSales) Fold(e OrderEvent) StoreSales {
	switch e.Type {
	case OrderEventPaid:
		s.PaidOrders++
		s.Revenue = s.Revenue.Add(e.Amount)
	case OrderEventRefunded:
		s.RefundedOrders++
		s.RefundedAmount = s.RefundedAmount.Add(e.Amount)
	default:
		return s
	}
	s.StoreID = e.StoreID
	s.LastEventAt = e.OccurredAt
	return s
}
