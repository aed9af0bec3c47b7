package domain_test

import (
	"testing"

	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentTransitions(t *testing.T) {
	tests := []struct {
		from, to domain.PaymentStatus
		ok       bool
	}{
		{domain.PaymentPending, domain.PaymentCompleted, true},
		{domain.PaymentPending, domain.PaymentFailed, true},
		{domain.PaymentCompleted, domain.PaymentRefunded, true},
		{domain.PaymentPending, domain.PaymentRefunded, false},
		{domain.PaymentCompleted, domain.PaymentFailed, false},
		{domain.PaymentFailed, domain.PaymentCompleted, false},
		{domain.PaymentRefunded, domain.PaymentCompleted, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to))
		})
	}
}

func TestApplyPaymentNotification(t *testing.T) {
	success := domain.PaymentNotification{
		Success: true, ProviderPaymentID: "pf-1", ReceivedAt: now,
	}

	t.Run("Completed", func(t *testing.T) {
		o := newTestOrder(t, domain.DefaultStoreSettings())
		o.AttachAffiliate("ref1")

		effects, applied := domain.ApplyPaymentNotification(&o, success)
		require.True(t, applied)

		assert.Equal(t, domain.PaymentCompleted, o.Payment.Status)
		assert.Equal(t, domain.OrderProcessing, o.Status)
		assert.Equal(t, "pf-1", o.Payment.TransactionID)
		assert.Equal(t, "pf-1", o.Payment.PayfastPaymentID)
		require.NotNil(t, o.Payment.PaidAt)

		assert.Equal(t, "s1", effects.StoreID)
		assert.EqualValues(t, 1, effects.StoreOrders)
		assert.True(t, dec("100").Equal(effects.StoreRevenue))
		require.Len(t, effects.ProductSales, 1)
		assert.EqualValues(t, 2, effects.ProductSales[0].Quantity)
		assert.True(t, dec("100").Equal(effects.ProductSales[0].Revenue))
		require.NotNil(t, effects.AffiliateCredit)
		assert.Equal(t, "ref1", effects.AffiliateCredit.UserID)
		assert.True(t, dec("5").Equal(effects.AffiliateCredit.Amount))
	})

	t.Run("Failed", func(t *testing.T) {
		o := newTestOrder(t, domain.DefaultStoreSettings())
		effects, applied := domain.ApplyPaymentNotification(
			&o, domain.PaymentNotification{Success: false, ReceivedAt: now},
		)
		require.True(t, applied)
		assert.True(t, effects.Empty())
		assert.Equal(t, domain.PaymentFailed, o.Payment.Status)
		assert.Equal(t, domain.OrderCancelled, o.Status)
	})

	t.Run("ReplayIsNoop", func(t *testing.T) {
		o := newTestOrder(t, domain.DefaultStoreSettings())
		_, applied := domain.ApplyPaymentNotification(&o, success)
		require.True(t, applied)
		before := o

		effects, applied := domain.ApplyPaymentNotification(&o, success)
		assert.False(t, applied)
		assert.True(t, effects.Empty())
		assert.Equal(t, before, o)
	})

	t.Run("FailureAfterCompletionIsNoop", func(t *testing.T) {
		o := newTestOrder(t, domain.DefaultStoreSettings())
		domain.ApplyPaymentNotification(&o, success)

		_, applied := domain.ApplyPaymentNotification(
			&o, domain.PaymentNotification{Success: false, ReceivedAt: now},
		)
		assert.False(t, applied)
		assert.Equal(t, domain.PaymentCompleted, o.Payment.Status)
	})
}
