package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type (
	Registration struct {
		Username     string
		Email        string
		Password     string
		ReferralCode string
	}

	Session struct {
		Token string
		User  User
	}

	// ProfileUpdate merges non-empty profile fields and replaces settings
	// when present.
	ProfileUpdate struct {
		Profile  Profile
		Settings *UserSettings
	}

	Dashboard struct {
		User              User
		Stores            []Store
		TotalProducts     int
		TotalOrders       int64
		TotalRevenue      decimal.Decimal
		AffiliateEarnings decimal.Decimal
		ReferralCount     int
	}
)

// Apply merges the update into the user.
func (u *User) Apply(upd ProfileUpdate) {
	p := upd.Profile
	merge := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	merge(&u.Profile.FirstName, p.FirstName)
	merge(&u.Profile.LastName, p.LastName)
	merge(&u.Profile.Bio, p.Bio)
	merge(&u.Profile.Avatar, p.Avatar)
	merge(&u.Profile.Website, p.Website)
	if len(p.Social) != 0 {
		if u.Profile.Social == nil {
			u.Profile.Social = make(map[string]string, len(p.Social))
		}
		for k, v := range p.Social {
			u.Profile.Social[k] = v
		}
	}
	if upd.Settings != nil {
		u.Settings = *upd.Settings
	}
}

// StoreInput carries store fields for create and update. Nil fields are
// left unchanged.
type StoreInput struct {
	Name        *string
	Description *string
	Logo        *string
	Banner      *string
	Theme       *Theme
	Settings    *StoreSettings
	Contact     *Contact
	Social      map[string]string
	SEO         *SEO
	IsActive    *bool
}

// Apply merges in into the store and reports whether the name changed.
func (s *Store) Apply(in StoreInput) (renamed bool) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		renamed = name != s.Name
		s.Name = name
	}
	if in.Description != nil {
		s.Description = *in.Description
	}
	if in.Logo != nil {
		s.Logo = *in.Logo
	}
	if in.Banner != nil {
		s.Banner = *in.Banner
	}
	if in.Theme != nil {
		s.Theme = mergeTheme(s.Theme, *in.Theme)
	}
	if in.Settings != nil {
		s.Settings = *in.Settings
		if s.Settings.Currency == "" {
			s.Settings.Currency = CurrencyZAR
		}
	}
	if in.Contact != nil {
		s.Contact = *in.Contact
	}
	if in.Social != nil {
		s.Social = in.Social
	}
	if in.SEO != nil {
		s.SEO = *in.SEO
	}
	if in.IsActive != nil {
		s.IsActive = *in.IsActive
	}
	return renamed
}

func mergeTheme(dst, src Theme) Theme {
	if src.PrimaryColor != "" {
		dst.PrimaryColor = src.PrimaryColor
	}
	if src.SecondaryColor != "" {
		dst.SecondaryColor = src.SecondaryColor
	}
	if src.FontFamily != "" {
		dst.FontFamily = src.FontFamily
	}
	if src.Template != "" {
		dst.Template = src.Template
	}
	return dst
}

// ProductUpdate carries the fields a product update may change.
type ProductUpdate struct {
	Name           *string
	Description    *string
	Category       *Category
	Type           *ProductType
	Price          *ProductPrice
	Images         []ProductImage
	Inventory      *Inventory
	Variants       []Variant
	TshirtDetails  *TshirtDetails
	DigitalDetails *DigitalDetails
	SEO            *SEO
	Tags           []string
	IsActive       *bool
	IsFeatured     *bool
}

// Apply merges upd into the product and validates the result.
func (p *Product) Apply(upd ProductUpdate) error {
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Category != nil {
		p.Category = *upd.Category
	}
	if upd.Type != nil {
		p.Type = *upd.Type
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	if upd.Images != nil {
		p.Images = upd.Images
	}
	if upd.Inventory != nil {
		p.Inventory = *upd.Inventory
	}
	if upd.Variants != nil {
		p.Variants = upd.Variants
	}
	if upd.TshirtDetails != nil {
		p.TshirtDetails = upd.TshirtDetails
	}
	if upd.DigitalDetails != nil {
		p.DigitalDetails = upd.DigitalDetails
	}
	if upd.SEO != nil {
		p.SEO = *upd.SEO
	}
	if upd.Tags != nil {
		p.Tags = upd.Tags
	}
	if upd.IsActive != nil {
		p.IsActive = *upd.IsActive
	}
	if upd.IsFeatured != nil {
		p.IsFeatured = *upd.IsFeatured
	}
	return p.Validate()
}

type (
	// Checkout is an order request. CustomerUserID is empty for guests.
	Checkout struct {
		CustomerUserID string
		StoreID        string
		Items          []LineRequest
		Customer       Customer
		Shipping       ShippingInfo
		Billing        BillingInfo
		PaymentMethod  PaymentMethod
		ReferralCode   string
	}

	// CheckoutRedirect is where the buyer is sent to pay. It is empty for
	// methods settled outside the platform.
	CheckoutRedirect struct {
		URL  string
		Data map[string]string
	}

	StatusUpdate struct {
		Status         OrderStatus
		TrackingNumber string
		Notes          string
	}
)

func (c Checkout) Validate() error {
	if len(c.Items) == 0 || c.StoreID == "" || c.Customer.Email == "" {
		return Invalid("please provide all required fields")
	}
	if c.PaymentMethod == "" {
		return Invalid("payment method is required")
	}
	if !c.PaymentMethod.Valid() {
		return Invalid("invalid payment method %q", c.PaymentMethod)
	}
	return nil
}

type (
	AffiliateDashboard struct {
		User         User
		Commissions  CommissionSummary
		Metrics      ReferralMetrics
		ReferralLink string
	}

	ReferralReport struct {
		User            User
		TotalCommission decimal.Decimal
		OrderCount      int
	}

	AffiliateAnalytics struct {
		Timeframe   Timeframe
		Commissions []DailyStat
		Referrals   []ReferralDay
	}
)
