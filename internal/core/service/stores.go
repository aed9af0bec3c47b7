package service

import (
	"context"
	"fmt"

	"github.com/niksmo/storebuilder/internal/core/domain"
)

// storeProductsLimit caps the products shown on a public storefront.
const storeProductsLimit = 20

func (s *Service) CreateStore(
	ctx context.Context, ownerID string, in domain.StoreInput,
) (domain.Store, error) {
	const op = "Service.CreateStore"

	if in.Name == nil {
		return domain.Store{}, fmt.Errorf(
			"%s: %w", op, domain.Invalid("store name is required"),
		)
	}
	var desc string
	if in.Description != nil {
		desc = *in.Description
	}

	st, err := domain.NewStore(ownerID, *in.Name, desc, s.now())
	if err != nil {
		return domain.Store{}, fmt.Errorf("%s: %w", op, err)
	}
	st.Apply(in)
	if err := st.Validate(); err != nil {
		return domain.Store{}, fmt.Errorf("%s: %w", op, err)
	}

	st.Slug, err = s.freeSlug(ctx, st.Slug, "")
	if err != nil {
		return domain.Store{}, fmt.Errorf("%s: %w", op, err)
	}
	st.ID = s.newID()

	if err := s.storage.CreateStore(ctx, st); err != nil {
		return domain.Store{}, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

// freeSlug returns slug, or slug with a random suffix when it is taken.
func (s *Service) freeSlug(
	ctx context.Context, slug, storeID string,
) (string, error) {
	taken, err := s.storage.SlugTaken(ctx, slug, storeID)
	if err != nil {
		return "", err
	}
	if taken {
		return domain.SlugWithSuffix(slug), nil
	}
	return slug, nil
}

// UpdateStore re-derives the slug after a rename when the new slug is free.
func (s *Service) UpdateStore(
	ctx context.Context, id string, in domain.StoreInput,
) (domain.Store, error) {
	const op = "Service.UpdateStore"

	st, err := s.storage.ReadStore(ctx, id)
	if err != nil {
		return domain.Store{}, fmt.Errorf("%s: %w", op, err)
	}

	if renamed := st.Apply(in); renamed {
		slug := domain.Slugify(st.Name)
		if slug != "" && slug != st.Slug {
			taken, err := s.storage.SlugTaken(ctx, slug, st.ID)
			if err != nil {
				return domain.Store{}, fmt.Errorf("%s: %w", op, err)
			}
			if !taken {
				st.Slug = slug
			}
		}
	}
	if err := st.Validate(); err != nil {
		return domain.Store{}, fmt.Errorf("%s: %w", op, err)
	}
	st.UpdatedAt = s.now()

	if err := s.storage.UpdateStore(ctx, st); err != nil {
		return domain.Store{}, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

// DeleteStore removes the store and its products.
func (s *Service) DeleteStore(ctx context.Context, id string) error {
	const op = "Service.DeleteStore"
	if err := s.storage.DeleteStore(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) PublicStores(
	ctx context.Context, f domain.StoreFilter,
) ([]domain.Store, int, error) {
	const op = "Service.PublicStores"
	stores, total, err := s.storage.ListStores(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return stores, total, nil
}

// VisitStore counts a storefront visit and returns the store with its
// active products.
func (s *Service) VisitStore(
	ctx context.Context, slug string,
) (domain.Store, []domain.Product, error) {
	const op = "Service.VisitStore"

	st, err := s.storage.ReadStoreBySlug(ctx, slug)
	if err != nil {
		return domain.Store{}, nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.RecordStoreVisit(ctx, st.ID); err != nil {
		return domain.Store{}, nil, fmt.Errorf("%s: %w", op, err)
	}
	st.Analytics.Visitors++
	st.Analytics.PageViews++

	products, _, err := s.storage.ListProducts(ctx, domain.ProductFilter{
		StoreID:    st.ID,
		ActiveOnly: true,
		Pagination: domain.NewPagination(1, storeProductsLimit),
	})
	if err != nil {
		return domain.Store{}, nil, fmt.Errorf("%s: %w", op, err)
	}
	return st, products, nil
}

func (s *Service) OwnerStores(
	ctx context.Context, ownerID string,
) ([]domain.Store, error) {
	const op = "Service.OwnerStores"
	stores, err := s.storage.ListStoresByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stores, nil
}

func (s *Service) SavePage(
	ctx context.Context, storeID string, p domain.Page,
) (domain.Page, error) {
	const op = "Service.SavePage"

	st, err := s.storage.ReadStore(ctx, storeID)
	if err != nil {
		return domain.Page{}, fmt.Errorf("%s: %w", op, err)
	}

	saved, err := st.SavePage(p)
	if err != nil {
		return domain.Page{}, fmt.Errorf("%s: %w", op, err)
	}
	st.UpdatedAt = s.now()

	if err := s.storage.UpdateStore(ctx, st); err != nil {
		return domain.Page{}, fmt.Errorf("%s: %w", op, err)
	}
	return saved, nil
}

func (s *Service) PublishedPage(
	ctx context.Context, slug, pageSlug string,
) (domain.Page, domain.Store, error) {
	const op = "Service.PublishedPage"

	st, err := s.storage.ReadStoreBySlug(ctx, slug)
	if err != nil {
		return domain.Page{}, domain.Store{}, fmt.Errorf("%s: %w", op, err)
	}
	p, ok := st.PublishedPage(pageSlug)
	if !ok {
		return domain.Page{}, domain.Store{}, fmt.Errorf(
			"%s: page %w", op, domain.ErrNotFound,
		)
	}
	return p, st, nil
}

func (s *Service) StoreAnalytics(
	ctx context.Context, storeID string,
) (domain.Store, []domain.Product, error) {
	const op = "Service.StoreAnalytics"

	st, err := s.storage.ReadStore(ctx, storeID)
	if err != nil {
		return domain.Store{}, nil, fmt.Errorf("%s: %w", op, err)
	}
	products, err := s.storage.ReadProducts(ctx, st.Products)
	if err != nil {
		return domain.Store{}, nil, fmt.Errorf("%s: %w", op, err)
	}
	return st, products, nil
}

func (s *Service) StoreSales(
	ctx context.Context, storeID string,
) (domain.StoreSales, error) {
	const op = "Service.StoreSales"

	sales, err := s.salesLedger.StoreSales(ctx, storeID)
	if err != nil {
		return domain.StoreSales{}, fmt.Errorf("%s: %w", op, err)
	}
	return sales, nil
}
