package schema

import (
	"testing"
	"time"

	"github.com/hamba/avro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderEventV1(t *testing.T) {
	var s avro.Schema
	require.NotPanics(t, func() {
		s = OrderEventV1Avro()
	})

	vMarshal := OrderEventV1{
		Type:          "paid",
		OrderID:       "testOrderID",
		OrderNumber:   "M7R-123456-AB12",
		StoreID:       "testStoreID",
		Status:        "processing",
		PaymentStatus: "completed",
		Total:         "100.00",
		Amount:        "100.00",
		Currency:      "ZAR",
		OccurredAt:    time.UnixMilli(1700000000123).UTC(),
	}

	data, err := avro.Marshal(s, vMarshal)
	require.NoError(t, err)

	var vUnmarshal OrderEventV1
	require.NoError(t, avro.Unmarshal(s, data, &vUnmarshal))

	assert.Equal(t, vMarshal.OrderID, vUnmarshal.OrderID)
	assert.Equal(t, vMarshal.StoreID, vUnmarshal.StoreID)
	assert.Equal(t, vMarshal.Amount, vUnmarshal.Amount)
	assert.True(t, vMarshal.OccurredAt.Equal(vUnmarshal.OccurredAt))
}

func TestStoreSalesV1(t *testing.T) {
	var s avro.Schema
	require.NotPanics(t, func() {
		s = StoreSalesV1Avro()
	})

	vMarshal := StoreSalesV1{
		StoreID:        "testStoreID",
		PaidOrders:     3,
		Revenue:        "350.50",
		RefundedOrders: 1,
		RefundedAmount: "50",
		LastEventAt:    time.UnixMilli(1700000000000).UTC(),
	}

	data, err := avro.Marshal(s, vMarshal)
	require.NoError(t, err)

	var vUnmarshal StoreSalesV1
	require.NoError(t, avro.Unmarshal(s, data, &vUnmarshal))

	assert.Equal(t, vMarshal.PaidOrders, vUnmarshal.PaidOrders)
	assert.Equal(t, vMarshal.Revenue, vUnmarshal.Revenue)
	assert.Equal(t, vMarshal.RefundedAmount, vUnmarshal.RefundedAmount)
	assert.True(t, vMarshal.LastEventAt.Equal(vUnmarshal.LastEventAt))
}
