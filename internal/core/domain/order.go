package domain

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	orderNumberPrefix     = "M7R"
	orderNumberRandLength = 4
	estimatedDeliveryDays = 5
)

// CommissionRate is the share of an order total credited to the referrer.
var CommissionRate = decimal.RequireFromString("0.05")

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped,
		OrderDelivered, OrderCancelled, OrderRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentPayfast PaymentMethod = "payfast"
	PaymentStripe  PaymentMethod = "stripe"
	PaymentManual  PaymentMethod = "manual"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentPayfast, PaymentStripe, PaymentManual:
		return true
	}
	return false
}

type (
	Order struct {
		ID          string
		OrderNumber string
		StoreID     string
		Status      OrderStatus
		Customer    Customer
		Items       []OrderItem
		Pricing     Pricing
		Shipping    ShippingInfo
		Billing     BillingInfo
		Payment     Payment
		Affiliate   *AffiliateAttribution
		Notes       string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	Customer struct {
		UserID    string `json:"user,omitempty"`
		Email     string `json:"email,omitempty"`
		FirstName string `json:"firstName,omitempty"`
		LastName  string `json:"lastName,omitempty"`
		Phone     string `json:"phone,omitempty"`
	}

	// An OrderItem is a snapshot of the product at order creation.
	OrderItem struct {
		ProductID string          `json:"product"`
		Name      string          `json:"name"`
		Price     decimal.Decimal `json:"price"`
		Quantity  int             `json:"quantity"`
		Variant   ItemVariant     `json:"variant"`
		Subtotal  decimal.Decimal `json:"subtotal"`
	}

	ItemVariant struct {
		Size  string         `json:"size,omitempty"`
		Color string         `json:"color,omitempty"`
		Other map[string]any `json:"other,omitempty"`
	}

	Pricing struct {
		Subtotal decimal.Decimal `json:"subtotal"`
		Shipping decimal.Decimal `json:"shipping"`
		Tax      decimal.Decimal `json:"tax"`
		Discount decimal.Decimal `json:"discount"`
		Total    decimal.Decimal `json:"total"`
		Currency Currency        `json:"currency"`
	}

	ShippingInfo struct {
		Address           Address    `json:"address"`
		Method            string     `json:"method,omitempty"`
		TrackingNumber    string     `json:"trackingNumber,omitempty"`
		EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`
	}

	BillingInfo struct {
		Address        Address `json:"address"`
		SameAsShipping bool    `json:"sameAsShipping"`
	}

	Payment struct {
		Method                PaymentMethod    `json:"method"`
		Status                PaymentStatus    `json:"status"`
		TransactionID         string           `json:"transactionId,omitempty"`
		PayfastPaymentID      string           `json:"payfastPaymentId,omitempty"`
		StripePaymentIntentID string           `json:"stripePaymentIntentId,omitempty"`
		PaidAt                *time.Time       `json:"paidAt,omitempty"`
		RefundedAt            *time.Time       `json:"refundedAt,omitempty"`
		RefundAmount          *decimal.Decimal `json:"refundAmount,omitempty"`
	}

	AffiliateAttribution struct {
		ReferrerID string     `json:"referrer"`
		Commission Commission `json:"commission"`
	}

	Commission struct {
		Rate   decimal.Decimal `json:"rate"`
		Amount decimal.Decimal `json:"amount"`
		Paid   bool            `json:"paid"`
		PaidAt *time.Time      `json:"paidAt,omitempty"`
	}
)

// NewOrderNumber returns M7R-<last 6 digits of unix millis>-<4 uppercase
// alphanumerics>.
func NewOrderNumber(now time.Time) string {
	ts := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ts) > 6 {
		ts = ts[len(ts)-6:]
	}
	return fmt.Sprintf(
		"%s-%s-%s",
		orderNumberPrefix, ts, randomString(base36Upper, orderNumberRandLength),
	)
}

// A LineRequest is a requested product with its quantity.
type LineRequest struct {
	ProductID string
	Quantity  int
	Variant   ItemVariant
}

// NewOrderItem snapshots the product into an order line.
func NewOrderItem(p Product, storeID string, req LineRequest) (OrderItem, error) {
	if !p.IsActive || p.StoreID != storeID {
		return OrderItem{}, Invalid("product %s not found or inactive", req.ProductID)
	}
	if req.Quantity < 1 {
		return OrderItem{}, Invalid("quantity must be at least 1")
	}
	return OrderItem{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price.Amount,
		Quantity:  req.Quantity,
		Variant:   req.Variant,
	}, nil
}

// PriceOrder derives the full pricing breakdown for a new order from its
// lines and the store settings.
func PriceOrder(items []OrderItem, settings StoreSettings) Pricing {
	subtotal := itemsSubtotal(items)
	currency := settings.Currency
	if currency == "" {
		currency = CurrencyZAR
	}
	p := Pricing{
		Subtotal: subtotal,
		Shipping: settings.ShippingCost(),
		Tax:      settings.TaxOn(subtotal),
		Discount: decimal.Zero,
		Currency: currency,
	}
	p.Total = p.total()
	return p
}

// Reprice re-derives line subtotals, the order subtotal and the total from
// the current lines. It is called before every write of an order.
func (o *Order) Reprice() {
	for i := range o.Items {
		o.Items[i].Subtotal = lineSubtotal(o.Items[i])
	}
	o.Pricing.Subtotal = itemsSubtotal(o.Items)
	o.Pricing.Total = o.Pricing.total()
}

func (p Pricing) total() decimal.Decimal {
	return p.Subtotal.Add(p.Shipping).Add(p.Tax).Sub(p.Discount)
}

func lineSubtotal(it OrderItem) decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

func itemsSubtotal(items []OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(lineSubtotal(it))
	}
	return sum
}

// AttachAffiliate records a tentative commission against the order total.
// It is credited to the referrer only when payment completes.
func (o *Order) AttachAffiliate(referrerID string) {
	o.Affiliate = &AffiliateAttribution{
		ReferrerID: referrerID,
		Commission: Commission{
			Rate:   CommissionRate,
			Amount: o.Pricing.Total.Mul(CommissionRate).Round(2),
		},
	}
}

// ChangeStatus applies a store owner's fulfilment update.
func (o *Order) ChangeStatus(
	status OrderStatus, trackingNumber, notes string, now time.Time,
) error {
	if !status.Valid() {
		return Invalid("invalid status")
	}
	o.Status = status
	if trackingNumber != "" {
		o.Shipping.TrackingNumber = trackingNumber
	}
	if notes != "" {
		o.Notes = notes
	}
	if status == OrderShipped && o.Shipping.EstimatedDelivery == nil {
		eta := now.AddDate(0, 0, estimatedDeliveryDays)
		o.Shipping.EstimatedDelivery = &eta
	}
	return nil
}

// Refund marks a completed payment as refunded. A nil amount refunds the
// full total.
func (o *Order) Refund(
	amount *decimal.Decimal, reason string, now time.Time,
) (decimal.Decimal, error) {
	if o.Payment.Status != PaymentCompleted {
		return decimal.Zero, fmt.Errorf(
			"%w: cannot refund unpaid order", ErrInvalidTransition,
		)
	}

	refund := o.Pricing.Total
	if amount != nil {
		refund = *amount
	}
	if !refund.IsPositive() {
		return decimal.Zero, Invalid("refund amount must be positive")
	}
	if refund.GreaterThan(o.Pricing.Total) {
		return decimal.Zero, Invalid("refund amount cannot exceed order total")
	}

	if err := o.Payment.Status.transition(PaymentRefunded); err != nil {
		return decimal.Zero, err
	}
	if reason == "" {
		reason = "No reason provided"
	}

	o.Status = OrderRefunded
	o.Payment.Status = PaymentRefunded
	o.Payment.RefundAmount = &refund
	refundedAt := now
	o.Payment.RefundedAt = &refundedAt
	note := "Refund: " + reason
	if o.Notes != "" {
		note = o.Notes + "\n" + note
	}
	o.Notes = note
	return refund, nil
}

// CanView reports whether the user may read the order: its customer or the
// owner of its store.
func (o Order) CanView(userID, storeOwnerID string) bool {
	if userID == "" {
		return false
	}
	return o.Customer.UserID == userID || storeOwnerID == userID
}

// NewOrder builds a pending order from a checkout request and its resolved
// lines.
func NewOrder(
	c Checkout, items []OrderItem, settings StoreSettings, now time.Time,
) Order {
	o := Order{
		OrderNumber: NewOrderNumber(now),
		StoreID:     c.StoreID,
		Status:      OrderPending,
		Customer:    c.Customer,
		Items:       items,
		Pricing:     PriceOrder(items, settings),
		Shipping:    c.Shipping,
		Billing:     c.Billing,
		Payment:     Payment{Method: c.PaymentMethod, Status: PaymentPending},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	o.Customer.UserID = c.CustomerUserID
	o.Reprice()
	return o
}
