package service

import (
	"context"
	"net/url"
	"testing"

	"github.com/niksmo/storebuilder/internal/adapter/payfast"
	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// notification returns a correctly signed IPN form for the order.
func notification(orderID, status string) url.Values {
	data := map[string]string{
		"m_payment_id":   orderID,
		"pf_payment_id":  "1089250",
		"payment_status": status,
		"amount_gross":   "100.00",
		"custom_str1":    orderID,
	}
	form := url.Values{}
	for k, v := range data {
		form.Set(k, v)
	}
	form.Set("signature", payfast.Sign(data, testPassphrase))
	return form
}

func TestReconcilePayment(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (fixture, domain.Store, domain.Order) {
		f := newFixture(t)
		_, store, product := f.seed(t)

		ref := domain.User{ID: "aff", Username: "aff", Email: "aff@x.test"}
		ref.Affiliate.IsAffiliate = true
		ref.Affiliate.ReferralCode = "affab12"
		require.NoError(t, f.storage.CreateUser(ctx, ref))

		c := checkout(store.ID, product.ID, 2)
		c.ReferralCode = "affab12"
		o, _, err := f.svc.PlaceOrder(ctx, c)
		require.NoError(t, err)
		return f, store, o
	}

	t.Run("completion applies effects once", func(t *testing.T) {
		f, store, o := setup(t)

		for i, wantApplied := range []bool{true, false} {
			got, applied, err := f.svc.ReconcilePayment(ctx, notification(o.ID, "COMPLETE"))
			require.NoError(t, err, "notification %d", i)
			assert.Equal(t, wantApplied, applied)
			assert.Equal(t, domain.PaymentCompleted, got.Payment.Status)
			assert.Equal(t, domain.OrderProcessing, got.Status)
			assert.Equal(t, "1089250", got.Payment.PayfastPaymentID)
			assert.NotNil(t, got.Payment.PaidAt)

			st, _ := f.storage.ReadStore(ctx, store.ID)
			assert.EqualValues(t, 1, st.Analytics.Orders)
			assert.Equal(t, "100", st.Analytics.Revenue.String())

			p, _ := f.storage.ReadProducts(ctx, []string{"widget"})
			assert.EqualValues(t, 2, p[0].Sales)
			assert.Equal(t, "100", p[0].Revenue.String())

			aff, _ := f.storage.ReadUser(ctx, "aff")
			assert.Equal(t, "5", aff.Affiliate.TotalEarnings.String())
			assert.Equal(t, "5", aff.Affiliate.PendingPayouts.String())
		}

		assert.Equal(t, []domain.OrderEventType{
			domain.OrderEventCreated, domain.OrderEventPaid,
		}, f.published.types())
	})

	t.Run("failure cancels without effects", func(t *testing.T) {
		f, store, o := setup(t)

		got, applied, err := f.svc.ReconcilePayment(ctx, notification(o.ID, "FAILED"))
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, domain.PaymentFailed, got.Payment.Status)
		assert.Equal(t, domain.OrderCancelled, got.Status)

		st, _ := f.storage.ReadStore(ctx, store.ID)
		assert.Zero(t, st.Analytics.Orders)
		aff, _ := f.storage.ReadUser(ctx, "aff")
		assert.True(t, aff.Affiliate.TotalEarnings.IsZero())

		_, applied, err = f.svc.ReconcilePayment(ctx, notification(o.ID, "COMPLETE"))
		require.NoError(t, err)
		assert.False(t, applied)
	})

	t.Run("bad signature changes nothing", func(t *testing.T) {
		f, store, o := setup(t)

		form := notification(o.ID, "COMPLETE")
		form.Set("amount_gross", "0.01")

		_, _, err := f.svc.ReconcilePayment(ctx, form)
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)

		stored, _ := f.storage.ReadOrder(ctx, o.ID)
		assert.Equal(t, domain.PaymentPending, stored.Payment.Status)
		st, _ := f.storage.ReadStore(ctx, store.ID)
		assert.Zero(t, st.Analytics.Orders)
	})

	t.Run("unknown order", func(t *testing.T) {
		f, _, _ := setup(t)
		_, _, err := f.svc.ReconcilePayment(ctx, notification("missing", "COMPLETE"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
