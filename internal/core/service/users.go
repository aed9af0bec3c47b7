package service

import (
	"context"
	"fmt"

	"github.com/niksmo/storebuilder/internal/core/domain"
)

func (s *Service) Profile(
	ctx context.Context, userID string,
) (domain.User, []domain.Store, error) {
	const op = "Service.Profile"

	u, err := s.storage.ReadUser(ctx, userID)
	if err != nil {
		return domain.User{}, nil, fmt.Errorf("%s: %w", op, err)
	}
	stores, err := s.storage.ListStoresByOwner(ctx, userID)
	if err != nil {
		return domain.User{}, nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, stores, nil
}

func (s *Service) UpdateProfile(
	ctx context.Context, userID string, upd domain.ProfileUpdate,
) (domain.User, error) {
	const op = "Service.UpdateProfile"

	u, err := s.storage.ReadUser(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	u.Apply(upd)
	u.UpdatedAt = s.now()

	if err := s.storage.UpdateUser(ctx, u); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// Dashboard totals the analytics of every store the user owns.
func (s *Service) Dashboard(
	ctx context.Context, userID string,
) (domain.Dashboard, error) {
	const op = "Service.Dashboard"

	u, stores, err := s.Profile(ctx, userID)
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("%s: %w", op, err)
	}

	d := domain.Dashboard{
		User:              u,
		Stores:            stores,
		AffiliateEarnings: u.Affiliate.TotalEarnings,
		ReferralCount:     len(u.Affiliate.Referrals),
	}
	for _, st := range stores {
		d.TotalProducts += len(st.Products)
		d.TotalOrders += st.Analytics.Orders
		d.TotalRevenue = d.TotalRevenue.Add(st.Analytics.Revenue)
	}
	return d, nil
}

func (s *Service) ChangePlan(
	ctx context.Context, userID string, plan domain.Plan,
) (domain.User, error) {
	const op = "Service.ChangePlan"

	u, err := s.storage.ReadUser(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	if err := u.ChangePlan(plan, now); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	u.UpdatedAt = now

	if err := s.storage.UpdateUser(ctx, u); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// DeleteAccount removes the user together with its stores and their
// products.
func (s *Service) DeleteAccount(
	ctx context.Context, userID, password string,
) error {
	const op = "Service.DeleteAccount"

	u, err := s.storage.ReadUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !u.PasswordMatches(password) {
		return fmt.Errorf(
			"%s: %w: incorrect password", op, domain.ErrUnauthenticated,
		)
	}

	if err := s.storage.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
