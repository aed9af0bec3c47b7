package domain_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func widget(storeID string) domain.Product {
	return domain.Product{
		ID:       "p1",
		StoreID:  storeID,
		Name:     "Widget",
		IsActive: true,
		Price:    domain.ProductPrice{Amount: dec("50.00"), Currency: domain.CurrencyZAR},
	}
}

func newTestOrder(t *testing.T, settings domain.StoreSettings) domain.Order {
	t.Helper()
	item, err := domain.NewOrderItem(
		widget("s1"), "s1", domain.LineRequest{ProductID: "p1", Quantity: 2},
	)
	require.NoError(t, err)
	return domain.NewOrder(domain.Checkout{
		StoreID:       "s1",
		PaymentMethod: domain.PaymentPayfast,
		Customer:      domain.Customer{Email: "buyer@example.com"},
	}, []domain.OrderItem{item}, settings, now)
}

func TestNewOrder(t *testing.T) {
	t.Run("NoShippingNoTax", func(t *testing.T) {
		settings := domain.DefaultStoreSettings()
		o := newTestOrder(t, settings)

		assert.True(t, dec("100").Equal(o.Pricing.Subtotal))
		assert.True(t, dec("100").Equal(o.Pricing.Total))
		assert.True(t, dec("100").Equal(o.Items[0].Subtotal))
		assert.Equal(t, domain.CurrencyZAR, o.Pricing.Currency)
		assert.Equal(t, domain.OrderPending, o.Status)
		assert.Equal(t, domain.PaymentPending, o.Payment.Status)
		assert.Regexp(t, regexp.MustCompile(`^M7R-\d{6}-[A-Z0-9]{4}$`), o.OrderNumber)
	})

	t.Run("ShippingAndTax", func(t *testing.T) {
		settings := domain.DefaultStoreSettings()
		settings.Shipping = domain.ShippingSettings{
			Enabled: true,
			Rates: []domain.ShippingRate{
				{Name: "Courier", Price: dec("60")},
				{Name: "Express", Price: dec("120")},
			},
		}
		settings.Taxes = domain.TaxSettings{Enabled: true, Rate: dec("15")}

		o := newTestOrder(t, settings)
		assert.True(t, dec("60").Equal(o.Pricing.Shipping))
		assert.True(t, dec("15").Equal(o.Pricing.Tax))
		assert.True(t, dec("175").Equal(o.Pricing.Total))
	})

	t.Run("TaxIncludedInPrice", func(t *testing.T) {
		settings := domain.DefaultStoreSettings()
		settings.Taxes = domain.TaxSettings{
			Enabled: true, Rate: dec("15"), IncludeInPrice: true,
		}
		o := newTestOrder(t, settings)
		assert.True(t, o.Pricing.Tax.IsZero())
		assert.True(t, dec("100").Equal(o.Pricing.Total))
	})
}

func TestOrderNumbersAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 200 {
		n := domain.NewOrderNumber(now)
		assert.False(t, seen[n], "duplicate order number %s", n)
		seen[n] = true
	}
}

func TestNewOrderItem(t *testing.T) {
	tests := []struct {
		name    string
		product domain.Product
		qty     int
	}{
		{"Inactive", func() domain.Product { p := widget("s1"); p.IsActive = false; return p }(), 1},
		{"ForeignStore", widget("s2"), 1},
		{"ZeroQuantity", widget("s1"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.NewOrderItem(
				tt.product, "s1", domain.LineRequest{ProductID: "p1", Quantity: tt.qty},
			)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestReprice(t *testing.T) {
	o := newTestOrder(t, domain.DefaultStoreSettings())
	o.Pricing.Shipping = dec("10")
	o.Pricing.Discount = dec("5")
	o.Items[0].Quantity = 3

	o.Reprice()
	assert.True(t, dec("150").Equal(o.Items[0].Subtotal))
	assert.True(t, dec("150").Equal(o.Pricing.Subtotal))
	assert.True(t, dec("155").Equal(o.Pricing.Total))

	total := o.Pricing.Total
	o.Reprice()
	assert.True(t, total.Equal(o.Pricing.Total))
}

func TestAttachAffiliate(t *testing.T) {
	o := newTestOrder(t, domain.DefaultStoreSettings())
	o.Pricing.Total = dec("99.99")
	o.AttachAffiliate("ref1")

	require.NotNil(t, o.Affiliate)
	assert.Equal(t, "ref1", o.Affiliate.ReferrerID)
	assert.True(t, dec("5").Equal(o.Affiliate.Commission.Amount))
	assert.True(t, dec("0.05").Equal(o.Affiliate.Commission.Rate))
	assert.False(t, o.Affiliate.Commission.Paid)
}

func TestChangeStatus(t *testing.T) {
	t.Run("ShippedSetsDelivery", func(t *testing.T) {
		o := newTestOrder(t, domain.DefaultStoreSettings())
		err := o.ChangeStatus(domain.OrderShipped, "TRK1", "on its way", now)
		require.NoError(t, err)

		assert.Equal(t, domain.OrderShipped, o.Status)
		assert.Equal(t, "TRK1", o.Shipping.TrackingNumber)
		assert.Equal(t, "on its way", o.Notes)
		require.NotNil(t, o.Shipping.EstimatedDelivery)
		assert.Equal(t, now.AddDate(0, 0, 5), *o.Shipping.EstimatedDelivery)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		o := newTestOrder(t, domain.DefaultStoreSettings())
		err := o.ChangeStatus("lost", "", "", now)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestRefund(t *testing.T) {
	paid := func(t *testing.T) domain.Order {
		o := newTestOrder(t, domain.DefaultStoreSettings())
		_, applied := domain.ApplyPaymentNotification(&o, domain.PaymentNotification{
			OrderID: o.ID, Success: true, ProviderPaymentID: "pf1", ReceivedAt: now,
		})
		require.True(t, applied)
		return o
	}

	t.Run("FullByDefault", func(t *testing.T) {
		o := paid(t)
		amount, err := o.Refund(nil, "", now)
		require.NoError(t, err)

		assert.True(t, dec("100").Equal(amount))
		assert.Equal(t, domain.PaymentRefunded, o.Payment.Status)
		assert.Equal(t, domain.OrderRefunded, o.Status)
		require.NotNil(t, o.Payment.RefundAmount)
		assert.True(t, dec("100").Equal(*o.Payment.RefundAmount))
		assert.Equal(t, "Refund: No reason provided", o.Notes)
	})

	t.Run("Partial", func(t *testing.T) {
		o := paid(t)
		part := dec("40")
		amount, err := o.Refund(&part, "damaged", now)
		require.NoError(t, err)
		assert.True(t, part.Equal(amount))
		assert.Equal(t, "Refund: damaged", o.Notes)
	})

	t.Run("AboveTotal", func(t *testing.T) {
		o := paid(t)
		tooMuch := dec("100.01")
		_, err := o.Refund(&tooMuch, "", now)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, domain.PaymentCompleted, o.Payment.Status)
	})

	t.Run("NotCompleted", func(t *testing.T) {
		o := newTestOrder(t, domain.DefaultStoreSettings())
		_, err := o.Refund(nil, "", now)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.Equal(t, domain.PaymentPending, o.Payment.Status)
	})

	t.Run("Twice", func(t *testing.T) {
		o := paid(t)
		_, err := o.Refund(nil, "", now)
		require.NoError(t, err)
		_, err = o.Refund(nil, "", now)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestCanView(t *testing.T) {
	o := domain.Order{Customer: domain.Customer{UserID: "u1"}}
	assert.True(t, o.CanView("u1", "owner"))
	assert.True(t, o.CanView("owner", "owner"))
	assert.False(t, o.CanView("u2", "owner"))
	assert.False(t, domain.Order{}.CanView("", ""))
}
