package service

import (
	"context"
	"fmt"

	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/niksmo/storebuilder/pkg/retry"
	"github.com/shopspring/decimal"
)

const referralCodeAttempts = 5

// EnableAffiliate turns the affiliate program on with a fresh unique
// referral code. Enabled users are returned unchanged.
func (s *Service) EnableAffiliate(
	ctx context.Context, userID string,
) (domain.User, error) {
	const op = "Service.EnableAffiliate"

	u, err := s.storage.ReadUser(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	if u.Affiliate.IsAffiliate && u.Affiliate.ReferralCode != "" {
		return u, nil
	}

	u.Affiliate.IsAffiliate = true
	u.UpdatedAt = s.now()
	err = retry.Do(ctx, retry.RetryConfig{
		MaxAttempts: referralCodeAttempts,
		Backoff:     retry.LinearBackoff(0),
		ShouldRetry: func(err error) bool {
			return domain.IsConflictOn(err, "referral_code")
		},
	}, func() error {
		u.Affiliate.ReferralCode = domain.NewReferralCode(u.Username)
		return s.storage.UpdateUser(ctx, u)
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (s *Service) requireAffiliate(
	ctx context.Context, userID string,
) (domain.User, error) {
	u, err := s.storage.ReadUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if !u.Affiliate.IsAffiliate {
		return domain.User{}, fmt.Errorf(
			"%w: affiliate program not enabled", domain.ErrForbidden,
		)
	}
	return u, nil
}

func (s *Service) AffiliateDashboard(
	ctx context.Context, userID string,
) (domain.AffiliateDashboard, error) {
	const op = "Service.AffiliateDashboard"

	u, err := s.EnableAffiliate(ctx, userID)
	if err != nil {
		return domain.AffiliateDashboard{}, fmt.Errorf("%s: %w", op, err)
	}

	commissions, err := s.storage.CommissionSummary(ctx, u.ID)
	if err != nil {
		return domain.AffiliateDashboard{}, fmt.Errorf("%s: %w", op, err)
	}

	ids := make([]string, 0, len(u.Affiliate.Referrals))
	for _, r := range u.Affiliate.Referrals {
		ids = append(ids, r.UserID)
	}
	plans, err := s.storage.ReadPlans(ctx, ids)
	if err != nil {
		return domain.AffiliateDashboard{}, fmt.Errorf("%s: %w", op, err)
	}

	return domain.AffiliateDashboard{
		User:         u,
		Commissions:  commissions,
		Metrics:      domain.ComputeReferralMetrics(u.Affiliate.Referrals, plans, s.now()),
		ReferralLink: domain.ReferralLink(s.frontendURL, u.Affiliate.ReferralCode),
	}, nil
}

// Referrals lists referred users with the commission their completed
// orders earned the referrer.
func (s *Service) Referrals(
	ctx context.Context, f domain.ReferralFilter,
) ([]domain.ReferralReport, int, error) {
	const op = "Service.Referrals"

	if _, err := s.requireAffiliate(ctx, f.ReferrerID); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	users, total, err := s.storage.ListReferredUsers(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	byCustomer, err := s.storage.CustomerCommissions(ctx, f.ReferrerID, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	reports := make([]domain.ReferralReport, 0, len(users))
	for _, u := range users {
		r := domain.ReferralReport{User: u, TotalCommission: decimal.Zero}
		for _, o := range byCustomer[u.ID] {
			if o.Affiliate != nil {
				r.TotalCommission = r.TotalCommission.Add(o.Affiliate.Commission.Amount)
			}
			r.OrderCount++
		}
		reports = append(reports, r)
	}
	return reports, total, nil
}

func (s *Service) Commissions(
	ctx context.Context, f domain.CommissionFilter,
) ([]domain.Order, int, domain.CommissionSummary, error) {
	const op = "Service.Commissions"

	if _, err := s.requireAffiliate(ctx, f.ReferrerID); err != nil {
		return nil, 0, domain.CommissionSummary{}, fmt.Errorf("%s: %w", op, err)
	}

	orders, total, err := s.storage.ListCommissions(ctx, f)
	if err != nil {
		return nil, 0, domain.CommissionSummary{}, fmt.Errorf("%s: %w", op, err)
	}
	summary, err := s.storage.CommissionSummary(ctx, f.ReferrerID)
	if err != nil {
		return nil, 0, domain.CommissionSummary{}, fmt.Errorf("%s: %w", op, err)
	}
	return orders, total, summary, nil
}

func (s *Service) CampaignLink(
	ctx context.Context, userID, campaign, source, medium string,
) (string, error) {
	const op = "Service.CampaignLink"

	u, err := s.requireAffiliate(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return domain.CampaignLink(
		s.frontendURL, u.Affiliate.ReferralCode, campaign, source, medium,
	), nil
}

// RequestPayout checks the request against the balance read here and lets
// the storage decrement it conditionally, so concurrent requests cannot
// overdraw it.
func (s *Service) RequestPayout(
	ctx context.Context, userID string, amount decimal.Decimal,
	method string, details map[string]any,
) (domain.Payout, error) {
	const op = "Service.RequestPayout"

	u, err := s.requireAffiliate(ctx, userID)
	if err != nil {
		return domain.Payout{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := domain.NewPayout(
		userID, amount, u.Affiliate.PendingPayouts, method, details, s.now(),
	)
	if err != nil {
		return domain.Payout{}, fmt.Errorf("%s: %w", op, err)
	}
	p.ID = s.newID()

	if err := s.storage.RequestPayout(ctx, p); err != nil {
		return domain.Payout{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *Service) AffiliateAnalytics(
	ctx context.Context, userID string, tf domain.Timeframe,
) (domain.AffiliateAnalytics, error) {
	const op = "Service.AffiliateAnalytics"

	if _, err := s.requireAffiliate(ctx, userID); err != nil {
		return domain.AffiliateAnalytics{}, fmt.Errorf("%s: %w", op, err)
	}

	since := tf.Since(s.now())
	commissions, err := s.storage.CommissionDailyStats(ctx, userID, since)
	if err != nil {
		return domain.AffiliateAnalytics{}, fmt.Errorf("%s: %w", op, err)
	}
	referrals, err := s.storage.ReferralStats(ctx, userID, since)
	if err != nil {
		return domain.AffiliateAnalytics{}, fmt.Errorf("%s: %w", op, err)
	}
	return domain.AffiliateAnalytics{
		Timeframe:   tf,
		Commissions: commissions,
		Referrals:   referrals,
	}, nil
}
