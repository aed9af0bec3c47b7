package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:   {PaymentCompleted, PaymentFailed},
	PaymentCompleted: {PaymentRefunded},
}

func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	for _, next := range paymentTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s PaymentStatus) transition(to PaymentStatus) error {
	if !s.CanTransition(to) {
		return fmt.Errorf(
			"%w: payment %s -> %s", ErrInvalidTransition, s, to,
		)
	}
	return nil
}

// A PaymentNotification is a verified provider callback.
type PaymentNotification struct {
	OrderID           string
	Success           bool
	ProviderPaymentID string
	ReceivedAt        time.Time
}

type (
	// OrderEffects are the counter updates that must be persisted atomically
	// with the order they were derived from.
	OrderEffects struct {
		ProductSales    []ProductSale
		StoreID         string
		StoreOrders     int64
		StoreRevenue    decimal.Decimal
		AffiliateCredit *AffiliateCredit
	}

	ProductSale struct {
		ProductID string
		Quantity  int64
		Revenue   decimal.Decimal
	}

	AffiliateCredit struct {
		UserID string
		Amount decimal.Decimal
	}
)

func (e OrderEffects) Empty() bool {
	return len(e.ProductSales) == 0 &&
		e.StoreOrders == 0 &&
		e.StoreRevenue.IsZero() &&
		e.AffiliateCredit == nil
}

// ApplyPaymentNotification moves a pending payment to completed or failed and
// returns the effects to persist. Orders whose payment is no longer pending
// are left untouched and applied is false, so a replayed notification is a
// no-op.
func ApplyPaymentNotification(
	o *Order, n PaymentNotification,
) (effects OrderEffects, applied bool) {
	if o.Payment.Status != PaymentPending {
		return OrderEffects{}, false
	}

	if !n.Success {
		o.Payment.Status = PaymentFailed
		o.Status = OrderCancelled
		o.UpdatedAt = n.ReceivedAt
		return OrderEffects{}, true
	}

	paidAt := n.ReceivedAt
	o.Payment.Status = PaymentCompleted
	o.Payment.TransactionID = n.ProviderPaymentID
	o.Payment.PayfastPaymentID = n.ProviderPaymentID
	o.Payment.PaidAt = &paidAt
	o.Status = OrderProcessing
	o.UpdatedAt = n.ReceivedAt
	o.Reprice()

	effects.StoreID = o.StoreID
	effects.StoreOrders = 1
	effects.StoreRevenue = o.Pricing.Total
	for _, it := range o.Items {
		effects.ProductSales = append(effects.ProductSales, ProductSale{
			ProductID: it.ProductID,
			Quantity:  int64(it.Quantity),
			Revenue:   it.Subtotal,
		})
	}
	if o.Affiliate != nil && o.Affiliate.ReferrerID != "" {
		effects.AffiliateCredit = &AffiliateCredit{
			UserID: o.Affiliate.ReferrerID,
			Amount: o.Affiliate.Commission.Amount,
		}
	}
	return effects, true
}
