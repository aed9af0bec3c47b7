package storage

import (
	"context"
	"fmt"

	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/niksmo/storebuilder/internal/core/port"
)

var _ port.OwnershipReader = OwnershipRepository{}

type OwnershipRepository struct {
	sqldb sqldb
}

func NewOwnershipRepository(sqldb sqldb) OwnershipRepository {
	return OwnershipRepository{sqldb}
}

var ownershipQueries = map[domain.ResourceKind]string{
	domain.ResourceStore: `
		SELECT s.owner_id, '' FROM stores s WHERE s.id = $1;`,
	domain.ResourceProduct: `
		SELECT s.owner_id, p.creator_id
		FROM products p JOIN stores s ON s.id = p.store_id
		WHERE p.id = $1;`,
	// An order whose store is gone has no owner left.
	domain.ResourceOrder: `
		SELECT COALESCE(s.owner_id, ''), ''
		FROM orders o LEFT JOIN stores s ON s.id = o.store_id
		WHERE o.id = $1;`,
}

func (r OwnershipRepository) ReadOwnership(
	ctx context.Context, kind domain.ResourceKind, id string,
) (domain.Ownership, error) {
	const op = "OwnershipRepository.ReadOwnership"

	query, ok := ownershipQueries[kind]
	if !ok {
		return domain.Ownership{}, fmt.Errorf(
			"%s: unknown resource kind %q", op, kind,
		)
	}

	o := domain.Ownership{Kind: kind, ID: id}
	err := r.sqldb.QueryRowContext(ctx, query, id).Scan(
		&o.StoreOwnerID, &o.CreatorID,
	)
	if err != nil {
		return domain.Ownership{}, mapErr(op, err)
	}
	return o, nil
}
