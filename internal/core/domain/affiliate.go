package domain

import (
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MinimumPayout is the smallest payout an affiliate may request.
var MinimumPayout = decimal.NewFromInt(100)

type PayoutStatus string

const (
	PayoutPending   PayoutStatus = "pending"
	PayoutProcessed PayoutStatus = "processed"
)

type Payout struct {
	ID          string
	UserID      string
	Amount      decimal.Decimal
	Method      string
	Details     map[string]any
	Status      PayoutStatus
	RequestedAt time.Time
	ProcessedAt *time.Time
}

// NewPayout checks the request against the available balance. The balance
// itself is decremented by the store atomically.
func NewPayout(
	userID string, amount, available decimal.Decimal,
	method string, details map[string]any, now time.Time,
) (Payout, error) {
	if !amount.IsPositive() {
		return Payout{}, Invalid("invalid payout amount")
	}
	if amount.GreaterThan(available) {
		return Payout{}, Invalid("requested amount exceeds available balance")
	}
	if amount.LessThan(MinimumPayout) {
		return Payout{}, Invalid("minimum payout amount is R%s", MinimumPayout)
	}
	return Payout{
		UserID:      userID,
		Amount:      amount,
		Method:      method,
		Details:     details,
		Status:      PayoutPending,
		RequestedAt: now,
	}, nil
}

// ReferralLink is the registration link carrying the referral code.
func ReferralLink(frontendURL, code string) string {
	return strings.TrimRight(frontendURL, "/") + "/register?ref=" + code
}

// CampaignLink appends UTM parameters to the referral link.
func CampaignLink(frontendURL, code, campaign, source, medium string) string {
	link := ReferralLink(frontendURL, code)
	utm := []struct{ key, value string }{
		{"utm_campaign", campaign},
		{"utm_source", source},
		{"utm_medium", medium},
	}
	for _, p := range utm {
		if p.value != "" {
			link += "&" + p.key + "=" + url.QueryEscape(p.value)
		}
	}
	return link
}

func QRCodeURL(link string) string {
	return "https://api.qrserver.com/v1/create-qr-code/?size=200x200&data=" +
		url.QueryEscape(link)
}

// ReferralMetrics summarises the referral list of an affiliate.
type ReferralMetrics struct {
	TotalReferrals  int
	RecentReferrals int
	PaidReferrals   int
	ConversionRate  decimal.Decimal
}

// ComputeReferralMetrics counts referrals made in the last 30 days and
// referrals on a paid plan. plans maps a referred user id to its plan.
func ComputeReferralMetrics(
	refs []Referral, plans map[string]Plan, now time.Time,
) ReferralMetrics {
	m := ReferralMetrics{TotalReferrals: len(refs), ConversionRate: decimal.Zero}
	since := now.AddDate(0, 0, -30)
	for _, r := range refs {
		if !r.DateReferred.Before(since) {
			m.RecentReferrals++
		}
		if plan, ok := plans[r.UserID]; ok && plan != PlanFree {
			m.PaidReferrals++
		}
	}
	if m.TotalReferrals > 0 {
		m.ConversionRate = decimal.NewFromInt(int64(m.PaidReferrals)).
			Div(decimal.NewFromInt(int64(m.TotalReferrals))).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}
	return m
}
