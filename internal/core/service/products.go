package service

import (
	"context"
	"fmt"

	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateProduct adds a product to a store the creator owns.
func (s *Service) CreateProduct(
	ctx context.Context, creatorID string, p domain.Product,
) (domain.Product, error) {
	const op = "Service.CreateProduct"

	if p.StoreID == "" {
		return domain.Product{}, fmt.Errorf(
			"%s: %w", op, domain.Invalid("please provide all required fields"),
		)
	}
	if err := p.Validate(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.Authorize(ctx, creatorID, domain.ResourceStore, p.StoreID); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	p.ID = s.newID()
	p.CreatorID = creatorID
	p.Views, p.Sales, p.Revenue = 0, 0, decimal.Zero
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.storage.CreateProduct(ctx, p); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *Service) UpdateProduct(
	ctx context.Context, id string, upd domain.ProductUpdate,
) (domain.Product, error) {
	const op = "Service.UpdateProduct"

	p, err := s.storage.ReadProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := p.Apply(upd); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	p.UpdatedAt = s.now()

	if err := s.storage.UpdateProduct(ctx, p); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	const op = "Service.DeleteProduct"
	if err := s.storage.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ViewProduct returns the product and counts the view.
func (s *Service) ViewProduct(
	ctx context.Context, id string,
) (domain.Product, error) {
	const op = "Service.ViewProduct"

	p, err := s.storage.ReadProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.storage.RecordProductView(ctx, id); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	p.Views++
	return p, nil
}

func (s *Service) ListProducts(
	ctx context.Context, f domain.ProductFilter,
) ([]domain.Product, int, error) {
	const op = "Service.ListProducts"
	products, total, err := s.storage.ListProducts(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return products, total, nil
}
