package schema

import (
	"sync"
	"time"

	"github.com/hamba/avro/v2"
)

const OrderEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "storebuilder.orders",
	"name": "order_event",
	"fields": [
		{"name": "type", "type": "string"},
		{"name": "order_id", "type": "string"},
		{"name": "order_number", "type": "string"},
		{"name": "store_id", "type": "string"},
		{"name": "status", "type": "string"},
		{"name": "payment_status", "type": "string"},
		{"name": "total", "type": "string"},
		{"name": "amount", "type": "string"},
		{"name": "currency", "type": "string"},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

const StoreSalesSchemaTextV1 = `{
	"type": "record",
	"namespace": "storebuilder.sales",
	"name": "store_sales",
	"fields": [
		{"name": "store_id", "type": "string"},
		{"name": "paid_orders", "type": "long"},
		{"name": "revenue", "type": "string"},
		{"name": "refunded_orders", "type": "long"},
		{"name": "refunded_amount", "type": "string"},
		{"name": "last_event_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

// Monetary amounts are decimal strings.
type (
	OrderEventV1 struct {
		Type          string    `avro:"type"`
		OrderID       string    `avro:"order_id"`
		OrderNumber   string    `avro:"order_number"`
		StoreID       string    `avro:"store_id"`
		Status        string    `avro:"status"`
		PaymentStatus string    `avro:"payment_status"`
		Total         string    `avro:"total"`
		Amount        string    `avro:"amount"`
		Currency      string    `avro:"currency"`
		OccurredAt    time.Time `avro:"occurred_at"`
	}

	StoreSalesV1 struct {
		StoreID        string    `avro:"store_id"`
		PaidOrders     int64     `avro:"paid_orders"`
		Revenue        string    `avro:"revenue"`
		RefundedOrders int64     `avro:"refunded_orders"`
		RefundedAmount string    `avro:"refunded_amount"`
		LastEventAt    time.Time `avro:"last_event_at"`
	}
)

var (
	orderEventV1Avro = sync.OnceValue(func() avro.Schema {
		return avro.MustParse(OrderEventSchemaTextV1)
	})
	storeSalesV1Avro = sync.OnceValue(func() avro.Schema {
		return avro.MustParse(StoreSalesSchemaTextV1)
	})
)

// OrderEventV1Avro panics if the schema text is malformed.
func OrderEventV1Avro() avro.Schema {
	return orderEventV1Avro()
}

// StoreSalesV1Avro panics if the schema text is malformed.
func StoreSalesV1Avro() avro.Schema {
	return storeSalesV1Avro()
}
