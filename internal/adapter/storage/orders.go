package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/niksmo/storebuilder/internal/core/port"
	"github.com/shopspring/decimal"
)

var _ port.OrdersStorage = OrdersRepository{}

type OrdersRepository struct {
	sqldb sqldb
}

func NewOrdersRepository(sqldb sqldb) OrdersRepository {
	return OrdersRepository{sqldb}
}

const orderColumns = `
	o.id, o.order_number, o.store_id, o.customer, o.status, o.items,
	o.subtotal, o.shipping, o.tax, o.discount, o.total, o.currency,
	o.shipping_info, o.billing_info, o.payment, o.affiliate, o.notes,
	o.created_at, o.updated_at`

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		o         domain.Order
		affiliate domain.AffiliateAttribution
		affJSON   sql.Null[[]byte]
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.StoreID, asJSON(&o.Customer), &o.Status,
		asJSON(&o.Items),
		&o.Pricing.Subtotal, &o.Pricing.Shipping, &o.Pricing.Tax,
		&o.Pricing.Discount, &o.Pricing.Total, &o.Pricing.Currency,
		asJSON(&o.Shipping), asJSON(&o.Billing), asJSON(&o.Payment),
		&affJSON, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	if affJSON.Valid {
		if err := asJSON(&affiliate).Scan(affJSON.V); err != nil {
			return domain.Order{}, err
		}
		o.Affiliate = &affiliate
	}
	return o, nil
}

// orderAffiliate flattens the attribution into its indexed columns.
func orderAffiliate(o domain.Order) (
	referrer sql.NullString, commission decimal.NullDecimal, paid bool,
) {
	if o.Affiliate == nil {
		return
	}
	return nullString(o.Affiliate.ReferrerID),
		decimal.NullDecimal{Decimal: o.Affiliate.Commission.Amount, Valid: true},
		o.Affiliate.Commission.Paid
}

func (r OrdersRepository) CreateOrder(ctx context.Context, o domain.Order) error {
	const op = "OrdersRepository.CreateOrder"

	referrer, commission, paid := orderAffiliate(o)
	query := `
		INSERT INTO orders (
			id, order_number, store_id, customer_user_id, customer, status,
			items, subtotal, shipping, tax, discount, total, currency,
			shipping_info, billing_info, payment_status, payment,
			affiliate_referrer_id, commission_amount, commission_paid,
			affiliate, notes, created_at, updated_at
		)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24
		);`

	_, err := r.sqldb.ExecContext(ctx, query,
		o.ID, o.OrderNumber, o.StoreID, nullString(o.Customer.UserID),
		asJSON(o.Customer), o.Status, asJSON(orEmpty(o.Items)),
		o.Pricing.Subtotal, o.Pricing.Shipping, o.Pricing.Tax,
		o.Pricing.Discount, o.Pricing.Total, o.Pricing.Currency,
		asJSON(o.Shipping), asJSON(o.Billing), o.Payment.Status,
		asJSON(o.Payment), referrer, commission, paid,
		nullJSON(o.Affiliate), o.Notes, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return mapErr(op, err)
	}
	return nil
}

func (r OrdersRepository) ReadOrder(
	ctx context.Context, id string,
) (domain.Order, error) {
	const op = "OrdersRepository.ReadOrder"
	query := `SELECT` + orderColumns + ` FROM orders o WHERE o.id = $1;`
	o, err := scanOrder(r.sqldb.QueryRowContext(ctx, query, id))
	if err != nil {
		return domain.Order{}, mapErr(op, err)
	}
	return o, nil
}

func (r OrdersRepository) ListOrders(
	ctx context.Context, f domain.OrderFilter,
) ([]domain.Order, int, error) {
	const op = "OrdersRepository.ListOrders"

	var a args
	where := `TRUE`
	if f.CustomerID != "" {
		where += ` AND o.customer_user_id = ` + a.add(f.CustomerID)
	}
	if f.StoreID != "" {
		where += ` AND o.store_id = ` + a.add(f.StoreID)
	}
	if f.Status != "" {
		where += ` AND o.status = ` + a.add(f.Status)
	}
	if f.Search != "" {
		s := a.add("%" + f.Search + "%")
		where += ` AND (o.order_number ILIKE ` + s +
			` OR o.customer->>'email' ILIKE ` + s +
			` OR o.customer->>'firstName' ILIKE ` + s +
			` OR o.customer->>'lastName' ILIKE ` + s + `)`
	}

	return r.listOrders(ctx, op, where, f.Pagination, a)
}

func (r OrdersRepository) listOrders(
	ctx context.Context, op, where string, pg domain.Pagination, a args,
) ([]domain.Order, int, error) {
	var total int
	err := r.sqldb.QueryRowContext(
		ctx, `SELECT COUNT(*) FROM orders o WHERE `+where+`;`, a...,
	).Scan(&total)
	if err != nil {
		return nil, 0, mapErr(op, err)
	}

	query := `SELECT` + orderColumns + ` FROM orders o WHERE ` + where +
		` ORDER BY o.created_at DESC LIMIT ` + a.add(pg.Limit) +
		` OFFSET ` + a.add(pg.Offset()) + `;`

	orders, err := r.queryOrders(ctx, query, a...)
	if err != nil {
		return nil, 0, mapErr(op, err)
	}
	return orders, total, nil
}

func (r OrdersRepository) queryOrders(
	ctx context.Context, query string, a ...any,
) ([]domain.Order, error) {
	rows, err := r.sqldb.QueryContext(ctx, query, a...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r OrdersRepository) ModifyOrder(
	ctx context.Context, id string,
	fn func(*domain.Order) (domain.OrderEffects, error),
) (domain.Order, error) {
	const op = "OrdersRepository.ModifyOrder"

	var o domain.Order
	err := withTx(ctx, r.sqldb, op, func(tx *sql.Tx) error {
		query := `SELECT` + orderColumns + ` FROM orders o WHERE o.id = $1 FOR UPDATE;`
		var err error
		o, err = scanOrder(tx.QueryRowContext(ctx, query, id))
		if err != nil {
			return mapErr(op, err)
		}

		effects, err := fn(&o)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := updateOrder(ctx, tx, o); err != nil {
			return mapErr(op, err)
		}
		if err := applyEffects(ctx, tx, effects); err != nil {
			return mapErr(op, err)
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func updateOrder(ctx context.Context, q querier, o domain.Order) error {
	referrer, commission, paid := orderAffiliate(o)
	_, err := q.ExecContext(ctx, `
		UPDATE orders SET
			status = $2, items = $3, subtotal = $4, shipping = $5, tax = $6,
			discount = $7, total = $8, currency = $9, shipping_info = $10,
			billing_info = $11, payment_status = $12, payment = $13,
			affiliate_referrer_id = $14, commission_amount = $15,
			commission_paid = $16, affiliate = $17, notes = $18, updated_at = $19
		WHERE id = $1;`,
		o.ID, o.Status, asJSON(orEmpty(o.Items)),
		o.Pricing.Subtotal, o.Pricing.Shipping, o.Pricing.Tax,
		o.Pricing.Discount, o.Pricing.Total, o.Pricing.Currency,
		asJSON(o.Shipping), asJSON(o.Billing), o.Payment.Status,
		asJSON(o.Payment), referrer, commission, paid,
		nullJSON(o.Affiliate), o.Notes, o.UpdatedAt,
	)
	return err
}

// applyEffects increments the counters derived from an order change. The
// store and products may have been deleted since the order was placed.
func applyEffects(ctx context.Context, q querier, e domain.OrderEffects) error {
	for _, s := range e.ProductSales {
		_, err := q.ExecContext(ctx, `
			UPDATE products SET sales = sales + $2, revenue = revenue + $3
			WHERE id = $1;`,
			s.ProductID, s.Quantity, s.Revenue,
		)
		if err != nil {
			return err
		}
	}

	if e.StoreID != "" && (e.StoreOrders != 0 || !e.StoreRevenue.IsZero()) {
		_, err := q.ExecContext(ctx, `
			UPDATE stores SET
				orders_count = orders_count + $2, revenue = revenue + $3
			WHERE id = $1;`,
			e.StoreID, e.StoreOrders, e.StoreRevenue,
		)
		if err != nil {
			return err
		}
	}

	if c := e.AffiliateCredit; c != nil {
		_, err := q.ExecContext(ctx, `
			UPDATE users SET
				total_earnings = total_earnings + $2,
				pending_payouts = pending_payouts + $2
			WHERE id = $1;`,
			c.UserID, c.Amount,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r OrdersRepository) OrderSummary(
	ctx context.Context, storeID string, since *time.Time,
) (domain.OrderSummary, error) {
	const op = "OrdersRepository.OrderSummary"

	var a args
	where := `store_id = ` + a.add(storeID)
	if since != nil {
		where += ` AND created_at >= ` + a.add(*since)
	}

	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(total) FILTER (WHERE payment_status = 'completed'), 0),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status = 'shipped'),
			COUNT(*) FILTER (WHERE status = 'delivered'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COALESCE(AVG(total) FILTER (WHERE payment_status = 'completed'), 0)
		FROM orders
		WHERE ` + where + `;`

	var s domain.OrderSummary
	err := r.sqldb.QueryRowContext(ctx, query, a...).Scan(
		&s.TotalOrders, &s.TotalRevenue, &s.PendingOrders,
		&s.ProcessingOrders, &s.ShippedOrders, &s.CompletedOrders,
		&s.CancelledOrders, &s.AverageOrder,
	)
	if err != nil {
		return domain.OrderSummary{}, mapErr(op, err)
	}
	s.AverageOrder = s.AverageOrder.Round(2)
	return s, nil
}

func (r OrdersRepository) OrderDailyStats(
	ctx context.Context, storeID string, since time.Time,
) ([]domain.DailyStat, error) {
	const op = "OrdersRepository.OrderDailyStats"

	query := `
		SELECT
			to_char(date_trunc('day', created_at), 'YYYY-MM-DD') AS day,
			COUNT(*),
			COALESCE(SUM(total) FILTER (WHERE payment_status = 'completed'), 0),
			0
		FROM orders
		WHERE store_id = $1 AND created_at >= $2
		GROUP BY day
		ORDER BY day;`

	days, err := r.queryDailyStats(ctx, query, storeID, since)
	if err != nil {
		return nil, mapErr(op, err)
	}
	return days, nil
}

func (r OrdersRepository) queryDailyStats(
	ctx context.Context, query string, a ...any,
) ([]domain.DailyStat, error) {
	rows, err := r.sqldb.QueryContext(ctx, query, a...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []domain.DailyStat
	for rows.Next() {
		var d domain.DailyStat
		if err := rows.Scan(&d.Day, &d.Orders, &d.Revenue, &d.Commission); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// CommissionSummary aggregates commissions of orders with a completed
// payment.
func (r OrdersRepository) CommissionSummary(
	ctx context.Context, referrerID string,
) (domain.CommissionSummary, error) {
	const op = "OrdersRepository.CommissionSummary"

	query := `
		SELECT
			COALESCE(SUM(commission_amount), 0),
			COALESCE(SUM(commission_amount) FILTER (WHERE commission_paid), 0),
			COALESCE(SUM(commission_amount) FILTER (WHERE NOT commission_paid), 0),
			COUNT(*)
		FROM orders
		WHERE affiliate_referrer_id = $1 AND payment_status = 'completed';`

	var s domain.CommissionSummary
	err := r.sqldb.QueryRowContext(ctx, query, referrerID).Scan(
		&s.Total, &s.Paid, &s.Unpaid, &s.TotalOrders,
	)
	if err != nil {
		return domain.CommissionSummary{}, mapErr(op, err)
	}
	return s, nil
}

func (r OrdersRepository) ListCommissions(
	ctx context.Context, f domain.CommissionFilter,
) ([]domain.Order, int, error) {
	const op = "OrdersRepository.ListCommissions"

	var a args
	where := `o.affiliate_referrer_id = ` + a.add(f.ReferrerID) +
		` AND o.payment_status = 'completed'`
	if f.Paid != nil {
		where += ` AND o.commission_paid = ` + a.add(*f.Paid)
	}
	return r.listOrders(ctx, op, where, f.Pagination, a)
}

func (r OrdersRepository) CommissionDailyStats(
	ctx context.Context, referrerID string, since time.Time,
) ([]domain.DailyStat, error) {
	const op = "OrdersRepository.CommissionDailyStats"

	query := `
		SELECT
			to_char(date_trunc('day', created_at), 'YYYY-MM-DD') AS day,
			COUNT(*),
			COALESCE(SUM(total), 0),
			COALESCE(SUM(commission_amount), 0)
		FROM orders
		WHERE affiliate_referrer_id = $1
			AND payment_status = 'completed'
			AND created_at >= $2
		GROUP BY day
		ORDER BY day;`

	days, err := r.queryDailyStats(ctx, query, referrerID, since)
	if err != nil {
		return nil, mapErr(op, err)
	}
	return days, nil
}

func (r OrdersRepository) CustomerCommissions(
	ctx context.Context, referrerID string, customerIDs []string,
) (map[string][]domain.Order, error) {
	const op = "OrdersRepository.CustomerCommissions"

	byCustomer := make(map[string][]domain.Order, len(customerIDs))
	if len(customerIDs) == 0 {
		return byCustomer, nil
	}

	query := `SELECT` + orderColumns + ` FROM orders o
		WHERE o.affiliate_referrer_id = $1
			AND o.payment_status = 'completed'
			AND o.customer_user_id = ANY($2)
		ORDER BY o.created_at;`

	orders, err := r.queryOrders(ctx, query, referrerID, customerIDs)
	if err != nil {
		return nil, mapErr(op, err)
	}
	for _, o := range orders {
		byCustomer[o.Customer.UserID] = append(byCustomer[o.Customer.UserID], o)
	}
	return byCustomer, nil
}
