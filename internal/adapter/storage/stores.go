package storage

import (
	"context"

	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/niksmo/storebuilder/internal/core/port"
)

var _ port.StoresStorage = StoresRepository{}

type StoresRepository struct {
	sqldb sqldb
}

func NewStoresRepository(sqldb sqldb) StoresRepository {
	return StoresRepository{sqldb}
}

const storeColumns = `
	s.id, s.owner_id, s.name, s.slug, s.description, s.logo, s.banner,
	s.theme, s.settings, s.contact, s.social, s.seo, s.pages, s.custom_domain,
	s.visitors, s.page_views, s.orders_count, s.revenue, s.is_active,
	s.created_at, s.updated_at,
	COALESCE(
		(SELECT json_agg(p.id ORDER BY p.created_at) FROM products p WHERE p.store_id = s.id),
		'[]'
	)`

func scanStore(row rowScanner) (domain.Store, error) {
	var s domain.Store
	err := row.Scan(
		&s.ID, &s.OwnerID, &s.Name, &s.Slug, &s.Description, &s.Logo, &s.Banner,
		asJSON(&s.Theme), asJSON(&s.Settings), asJSON(&s.Contact),
		asJSON(&s.Social), asJSON(&s.SEO), asJSON(&s.Pages),
		asJSON(&s.CustomDomain),
		&s.Analytics.Visitors, &s.Analytics.PageViews,
		&s.Analytics.Orders, &s.Analytics.Revenue, &s.IsActive,
		&s.CreatedAt, &s.UpdatedAt,
		asJSON(&s.Products),
	)
	return s, err
}

func pagesOrEmpty(ps []domain.Page) []domain.Page {
	if ps == nil {
		return []domain.Page{}
	}
	return ps
}

func socialOrEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func (r StoresRepository) CreateStore(ctx context.Context, s domain.Store) error {
	const op = "StoresRepository.CreateStore"

	query := `
		INSERT INTO stores (
			id, owner_id, name, slug, description, logo, banner, theme,
			settings, contact, social, seo, pages, custom_domain, is_active,
			created_at, updated_at
		)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17
		);`

	_, err := r.sqldb.ExecContext(ctx, query,
		s.ID, s.OwnerID, s.Name, s.Slug, s.Description, s.Logo, s.Banner,
		asJSON(s.Theme), asJSON(s.Settings), asJSON(s.Contact),
		asJSON(socialOrEmpty(s.Social)), asJSON(s.SEO),
		asJSON(pagesOrEmpty(s.Pages)), asJSON(s.CustomDomain), s.IsActive,
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return mapErr(op, err)
	}
	return nil
}

func (r StoresRepository) ReadStore(
	ctx context.Context, id string,
) (domain.Store, error) {
	const op = "StoresRepository.ReadStore"
	query := `SELECT` + storeColumns + ` FROM stores s WHERE s.id = $1;`
	s, err := scanStore(r.sqldb.QueryRowContext(ctx, query, id))
	if err != nil {
		return domain.Store{}, mapErr(op, err)
	}
	return s, nil
}

// ReadStoreBySlug returns active stores only.
func (r StoresRepository) ReadStoreBySlug(
	ctx context.Context, slug string,
) (domain.Store, error) {
	const op = "StoresRepository.ReadStoreBySlug"
	query := `SELECT` + storeColumns +
		` FROM stores s WHERE s.slug = $1 AND s.is_active;`
	s, err := scanStore(r.sqldb.QueryRowContext(ctx, query, slug))
	if err != nil {
		return domain.Store{}, mapErr(op, err)
	}
	return s, nil
}

func (r StoresRepository) SlugTaken(
	ctx context.Context, slug, exceptID string,
) (bool, error) {
	const op = "StoresRepository.SlugTaken"
	var taken bool
	err := r.sqldb.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM stores WHERE slug = $1 AND id <> $2);`,
		slug, exceptID,
	).Scan(&taken)
	if err != nil {
		return false, mapErr(op, err)
	}
	return taken, nil
}

// UpdateStore writes the editable fields. Analytics counters are left to
// atomic increments.
func (r StoresRepository) UpdateStore(ctx context.Context, s domain.Store) error {
	const op = "StoresRepository.UpdateStore"

	query := `
		UPDATE stores SET
			name = $2, slug = $3, description = $4, logo = $5, banner = $6,
			theme = $7, settings = $8, contact = $9, social = $10, seo = $11,
			pages = $12, custom_domain = $13, is_active = $14, updated_at = $15
		WHERE id = $1;`

	res, err := r.sqldb.ExecContext(ctx, query,
		s.ID, s.Name, s.Slug, s.Description, s.Logo, s.Banner,
		asJSON(s.Theme), asJSON(s.Settings), asJSON(s.Contact),
		asJSON(socialOrEmpty(s.Social)), asJSON(s.SEO),
		asJSON(pagesOrEmpty(s.Pages)), asJSON(s.CustomDomain), s.IsActive,
		s.UpdatedAt,
	)
	if err != nil {
		return mapErr(op, err)
	}
	return expectAffected(op, res)
}

// DeleteStore removes the store. Its products cascade.
func (r StoresRepository) DeleteStore(ctx context.Context, id string) error {
	const op = "StoresRepository.DeleteStore"
	res, err := r.sqldb.ExecContext(ctx, `DELETE FROM stores WHERE id = $1;`, id)
	if err != nil {
		return mapErr(op, err)
	}
	return expectAffected(op, res)
}

// ListStores returns active stores ordered by revenue.
func (r StoresRepository) ListStores(
	ctx context.Context, f domain.StoreFilter,
) ([]domain.Store, int, error) {
	const op = "StoresRepository.ListStores"

	var a args
	where := `s.is_active`
	if f.Search != "" {
		p := a.add("%" + f.Search + "%")
		where += ` AND (s.name ILIKE ` + p + ` OR s.description ILIKE ` + p + `)`
	}

	var total int
	err := r.sqldb.QueryRowContext(
		ctx, `SELECT COUNT(*) FROM stores s WHERE `+where+`;`, a...,
	).Scan(&total)
	if err != nil {
		return nil, 0, mapErr(op, err)
	}

	query := `SELECT` + storeColumns + ` FROM stores s WHERE ` + where +
		` ORDER BY s.revenue DESC, s.created_at DESC LIMIT ` + a.add(f.Limit) +
		` OFFSET ` + a.add(f.Offset()) + `;`

	stores, err := r.queryStores(ctx, query, a...)
	if err != nil {
		return nil, 0, mapErr(op, err)
	}
	return stores, total, nil
}

func (r StoresRepository) ListStoresByOwner(
	ctx context.Context, ownerID string,
) ([]domain.Store, error) {
	const op = "StoresRepository.ListStoresByOwner"
	query := `SELECT` + storeColumns +
		` FROM stores s WHERE s.owner_id = $1 ORDER BY s.created_at DESC;`
	stores, err := r.queryStores(ctx, query, ownerID)
	if err != nil {
		return nil, mapErr(op, err)
	}
	return stores, nil
}

func (r StoresRepository) queryStores(
	ctx context.Context, query string, a ...any,
) ([]domain.Store, error) {
	rows, err := r.sqldb.QueryContext(ctx, query, a...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stores []domain.Store
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}

func (r StoresRepository) RecordStoreVisit(ctx context.Context, id string) error {
	const op = "StoresRepository.RecordStoreVisit"
	_, err := r.sqldb.ExecContext(ctx, `
		UPDATE stores SET visitors = visitors + 1, page_views = page_views + 1
		WHERE id = $1;`, id,
	)
	if err != nil {
		return mapErr(op, err)
	}
	return nil
}
