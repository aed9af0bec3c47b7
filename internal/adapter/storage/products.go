package storage

import (
	"context"
	"database/sql"

	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/niksmo/storebuilder/internal/core/port"
	"github.com/shopspring/decimal"
)

var _ port.ProductsStorage = ProductsRepository{}

type ProductsRepository struct {
	sqldb sqldb
}

func NewProductsRepository(sqldb sqldb) ProductsRepository {
	return ProductsRepository{sqldb}
}

const productColumns = `
	p.id, p.store_id, p.creator_id, p.name, p.description, p.category,
	p.type, p.price_amount, p.price_currency, p.compare_at_price, p.images,
	p.inventory, p.variants, p.tshirt_details, p.digital_details, p.seo,
	p.tags, p.is_active, p.is_featured, p.ai_generated, p.views, p.sales,
	p.revenue, p.created_at, p.updated_at`

var productSortColumns = map[string]string{
	"createdAt": "p.created_at",
	"price":     "p.price_amount",
	"sales":     "p.sales",
	"views":     "p.views",
	"name":      "p.name",
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p           domain.Product
		compareAt   decimal.NullDecimal
		tshirt      domain.TshirtDetails
		digital     domain.DigitalDetails
		tshirtJSON  sql.Null[[]byte]
		digitalJSON sql.Null[[]byte]
	)
	err := row.Scan(
		&p.ID, &p.StoreID, &p.CreatorID, &p.Name, &p.Description, &p.Category,
		&p.Type, &p.Price.Amount, &p.Price.Currency, &compareAt,
		asJSON(&p.Images), asJSON(&p.Inventory), asJSON(&p.Variants),
		&tshirtJSON, &digitalJSON, asJSON(&p.SEO), asJSON(&p.Tags),
		&p.IsActive, &p.IsFeatured, asJSON(&p.AIGenerated),
		&p.Views, &p.Sales, &p.Revenue, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Product{}, err
	}
	if compareAt.Valid {
		p.Price.CompareAtPrice = &compareAt.Decimal
	}
	if tshirtJSON.Valid {
		if err := asJSON(&tshirt).Scan(tshirtJSON.V); err != nil {
			return domain.Product{}, err
		}
		p.TshirtDetails = &tshirt
	}
	if digitalJSON.Valid {
		if err := asJSON(&digital).Scan(digitalJSON.V); err != nil {
			return domain.Product{}, err
		}
		p.DigitalDetails = &digital
	}
	return p, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

// nullJSON writes SQL NULL for a nil pointer.
func nullJSON[T any](v *T) any {
	if v == nil {
		return nil
	}
	return asJSON(v)
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (r ProductsRepository) CreateProduct(
	ctx context.Context, p domain.Product,
) error {
	const op = "ProductsRepository.CreateProduct"

	query := `
		INSERT INTO products (
			id, store_id, creator_id, name, description, category, type,
			price_amount, price_currency, compare_at_price, images, inventory,
			variants, tshirt_details, digital_details, seo, tags, is_active,
			is_featured, ai_generated, created_at, updated_at
		)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22
		);`

	_, err := r.sqldb.ExecContext(ctx, query,
		p.ID, p.StoreID, p.CreatorID, p.Name, p.Description, p.Category, p.Type,
		p.Price.Amount, p.Price.Currency, nullDecimal(p.Price.CompareAtPrice),
		asJSON(orEmpty(p.Images)), asJSON(p.Inventory),
		asJSON(orEmpty(p.Variants)), nullJSON(p.TshirtDetails),
		nullJSON(p.DigitalDetails), asJSON(p.SEO), asJSON(orEmpty(p.Tags)),
		p.IsActive, p.IsFeatured, asJSON(p.AIGenerated),
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return mapErr(op, err)
	}
	return nil
}

func (r ProductsRepository) ReadProduct(
	ctx context.Context, id string,
) (domain.Product, error) {
	const op = "ProductsRepository.ReadProduct"
	query := `SELECT` + productColumns + ` FROM products p WHERE p.id = $1;`
	p, err := scanProduct(r.sqldb.QueryRowContext(ctx, query, id))
	if err != nil {
		return domain.Product{}, mapErr(op, err)
	}
	return p, nil
}

// ReadProducts returns the products found among ids in no particular order.
func (r ProductsRepository) ReadProducts(
	ctx context.Context, ids []string,
) ([]domain.Product, error) {
	const op = "ProductsRepository.ReadProducts"
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT` + productColumns + ` FROM products p WHERE p.id = ANY($1);`
	ps, err := r.queryProducts(ctx, query, ids)
	if err != nil {
		return nil, mapErr(op, err)
	}
	return ps, nil
}

// UpdateProduct writes the editable fields. Counters are left to atomic
// increments.
func (r ProductsRepository) UpdateProduct(
	ctx context.Context, p domain.Product,
) error {
	const op = "ProductsRepository.UpdateProduct"

	query := `
		UPDATE products SET
			name = $2, description = $3, category = $4, type = $5,
			price_amount = $6, price_currency = $7, compare_at_price = $8,
			images = $9, inventory = $10, variants = $11, tshirt_details = $12,
			digital_details = $13, seo = $14, tags = $15, is_active = $16,
			is_featured = $17, ai_generated = $18, updated_at = $19
		WHERE id = $1;`

	res, err := r.sqldb.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.Category, p.Type,
		p.Price.Amount, p.Price.Currency, nullDecimal(p.Price.CompareAtPrice),
		asJSON(orEmpty(p.Images)), asJSON(p.Inventory),
		asJSON(orEmpty(p.Variants)), nullJSON(p.TshirtDetails),
		nullJSON(p.DigitalDetails), asJSON(p.SEO), asJSON(orEmpty(p.Tags)),
		p.IsActive, p.IsFeatured, asJSON(p.AIGenerated), p.UpdatedAt,
	)
	if err != nil {
		return mapErr(op, err)
	}
	return expectAffected(op, res)
}

func (r ProductsRepository) DeleteProduct(ctx context.Context, id string) error {
	const op = "ProductsRepository.DeleteProduct"
	res, err := r.sqldb.ExecContext(ctx, `DELETE FROM products WHERE id = $1;`, id)
	if err != nil {
		return mapErr(op, err)
	}
	return expectAffected(op, res)
}

func (r ProductsRepository) ListProducts(
	ctx context.Context, f domain.ProductFilter,
) ([]domain.Product, int, error) {
	const op = "ProductsRepository.ListProducts"

	var a args
	where := `TRUE`
	if f.ActiveOnly {
		where += ` AND p.is_active`
	}
	if f.Category != "" {
		where += ` AND p.category = ` + a.add(f.Category)
	}
	if f.Type != "" {
		where += ` AND p.type = ` + a.add(f.Type)
	}
	if f.StoreID != "" {
		where += ` AND p.store_id = ` + a.add(f.StoreID)
	}
	if f.CreatorID != "" {
		where += ` AND p.creator_id = ` + a.add(f.CreatorID)
	}
	if f.Search != "" {
		s := a.add("%" + f.Search + "%")
		where += ` AND (p.name ILIKE ` + s + ` OR p.description ILIKE ` + s +
			` OR p.tags::text ILIKE ` + s + `)`
	}

	var total int
	err := r.sqldb.QueryRowContext(
		ctx, `SELECT COUNT(*) FROM products p WHERE `+where+`;`, a...,
	).Scan(&total)
	if err != nil {
		return nil, 0, mapErr(op, err)
	}

	column, ok := productSortColumns[f.SortBy]
	if !ok {
		column = productSortColumns["createdAt"]
	}
	dir := " DESC"
	if f.SortAsc {
		dir = " ASC"
	}

	query := `SELECT` + productColumns + ` FROM products p WHERE ` + where +
		` ORDER BY ` + column + dir + `, p.id LIMIT ` + a.add(f.Limit) +
		` OFFSET ` + a.add(f.Offset()) + `;`

	ps, err := r.queryProducts(ctx, query, a...)
	if err != nil {
		return nil, 0, mapErr(op, err)
	}
	return ps, total, nil
}

func (r ProductsRepository) queryProducts(
	ctx context.Context, query string, a ...any,
) ([]domain.Product, error) {
	rows, err := r.sqldb.QueryContext(ctx, query, a...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ps []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	return ps, rows.Err()
}

func (r ProductsRepository) RecordProductView(ctx context.Context, id string) error {
	const op = "ProductsRepository.RecordProductView"
	_, err := r.sqldb.ExecContext(
		ctx, `UPDATE products SET views = views + 1 WHERE id = $1;`, id,
	)
	if err != nil {
		return mapErr(op, err)
	}
	return nil
}
