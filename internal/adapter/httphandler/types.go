package httphandler

import (
	"time"

	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Money is a monetary amount written as a JSON number with two decimals.
type Money decimal.Decimal

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).StringFixed(2)), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*m = Money(d)
	return nil
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.Decimal(m)
}

func optMoney(d *decimal.Decimal) *Money {
	if d == nil {
		return nil
	}
	m := Money(*d)
	return &m
}

type (
	ErrorResponse struct {
		Message string `json:"message"`
		Error   string `json:"error,omitempty"`
	}

	NotFoundResponse struct {
		Message string `json:"message"`
		Path    string `json:"path"`
		Method  string `json:"method"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}

	Pagination struct {
		Current int `json:"current"`
		Pages   int `json:"pages"`
		Total   int `json:"total"`
		Limit   int `json:"limit"`
	}
)

func toPagination(p domain.Pagination, total int) Pagination {
	return Pagination{
		Current: p.Page,
		Pages:   p.TotalPages(total),
		Total:   total,
		Limit:   p.Limit,
	}
}

////////////////////////////////////////////////////////
///////////////           USERS           //////////////
////////////////////////////////////////////////////////

type (
	RegisterRequest struct {
		Username     string `json:"username"`
		Email        string `json:"email"`
		Password     string `json:"password"`
		ReferralCode string `json:"referralCode"`
	}

	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	SessionResponse struct {
		Message string `json:"message,omitempty"`
		Token   string `json:"token"`
		User    User   `json:"user"`
	}

	User struct {
		ID              string              `json:"id"`
		Username        string              `json:"username"`
		Email           string              `json:"email"`
		Profile         domain.Profile      `json:"profile"`
		Subscription    domain.Subscription `json:"subscription"`
		Affiliate       Affiliate           `json:"affiliate"`
		Settings        domain.UserSettings `json:"settings"`
		Stores          []string            `json:"stores"`
		IsEmailVerified bool                `json:"isEmailVerified"`
		LastLogin       *time.Time          `json:"lastLogin,omitempty"`
		CreatedAt       time.Time           `json:"createdAt"`
		UpdatedAt       time.Time           `json:"updatedAt"`
	}

	Affiliate struct {
		IsAffiliate    bool       `json:"isAffiliate"`
		ReferralCode   string     `json:"referralCode,omitempty"`
		ReferredBy     string     `json:"referredBy,omitempty"`
		Referrals      []Referral `json:"referrals"`
		TotalEarnings  Money      `json:"totalEarnings"`
		PendingPayouts Money      `json:"pendingPayouts"`
	}

	Referral struct {
		User             string    `json:"user"`
		DateReferred     time.Time `json:"dateReferred"`
		CommissionEarned Money     `json:"commissionEarned"`
	}

	ProfileRequest struct {
		Profile  domain.Profile       `json:"profile"`
		Settings *domain.UserSettings `json:"settings"`
	}

	SubscriptionRequest struct {
		Plan domain.Plan `json:"plan"`
	}

	DeleteAccountRequest struct {
		Password string `json:"password"`
	}

	Dashboard struct {
		User              User    `json:"user"`
		Stores            []Store `json:"stores"`
		TotalStores       int     `json:"totalStores"`
		TotalProducts     int     `json:"totalProducts"`
		TotalOrders       int64   `json:"totalOrders"`
		TotalRevenue      Money   `json:"totalRevenue"`
		AffiliateEarnings Money   `json:"affiliateEarnings"`
		ReferralCount     int     `json:"referralCount"`
	}
)

func toUser(u domain.User) User {
	refs := make([]Referral, len(u.Affiliate.Referrals))
	for i, r := range u.Affiliate.Referrals {
		refs[i] = Referral{
			User:             r.UserID,
			DateReferred:     r.DateReferred,
			CommissionEarned: Money(r.CommissionEarned),
		}
	}
	stores := u.Stores
	if stores == nil {
		stores = []string{}
	}
	return User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Profile:      u.Profile,
		Subscription: u.Subscription,
		Affiliate: Affiliate{
			IsAffiliate:    u.Affiliate.IsAffiliate,
			ReferralCode:   u.Affiliate.ReferralCode,
			ReferredBy:     u.Affiliate.ReferredBy,
			Referrals:      refs,
			TotalEarnings:  Money(u.Affiliate.TotalEarnings),
			PendingPayouts: Money(u.Affiliate.PendingPayouts),
		},
		Settings:        u.Settings,
		Stores:          stores,
		IsEmailVerified: u.IsEmailVerified,
		LastLogin:       u.LastLogin,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func toDashboard(d domain.Dashboard) Dashboard {
	return Dashboard{
		User:              toUser(d.User),
		Stores:            toStores(d.Stores, false),
		TotalStores:       len(d.Stores),
		TotalProducts:     d.TotalProducts,
		TotalOrders:       d.TotalOrders,
		TotalRevenue:      Money(d.TotalRevenue),
		AffiliateEarnings: Money(d.AffiliateEarnings),
		ReferralCount:     d.ReferralCount,
	}
}

////////////////////////////////////////////////////////
///////////////           STORES          //////////////
////////////////////////////////////////////////////////

type (
	StoreRequest struct {
		Name        *string               `json:"name"`
		Description *string               `json:"description"`
		Logo        *string               `json:"logo"`
		Banner      *string               `json:"banner"`
		Theme       *domain.Theme         `json:"theme"`
		Settings    *domain.StoreSettings `json:"settings"`
		Contact     *domain.Contact       `json:"contact"`
		Social      map[string]string     `json:"social"`
		SEO         *domain.SEO           `json:"seo"`
		IsActive    *bool                 `json:"isActive"`
	}

	Store struct {
		ID           string               `json:"id"`
		Owner        string               `json:"owner"`
		Name         string               `json:"name"`
		Slug         string               `json:"slug"`
		Description  string               `json:"description"`
		Logo         string               `json:"logo,omitempty"`
		Banner       string               `json:"banner,omitempty"`
		Theme        domain.Theme         `json:"theme"`
		Settings     domain.StoreSettings `json:"settings"`
		Contact      domain.Contact       `json:"contact"`
		Social       map[string]string    `json:"social,omitempty"`
		SEO          domain.SEO           `json:"seo"`
		Pages        []domain.Page        `json:"pages,omitempty"`
		CustomDomain domain.CustomDomain  `json:"customDomain"`
		Analytics    StoreAnalytics       `json:"analytics"`
		Products     []string             `json:"products"`
		IsActive     bool                 `json:"isActive"`
		CreatedAt    time.Time            `json:"createdAt"`
		UpdatedAt    time.Time            `json:"updatedAt"`
	}

	StoreAnalytics struct {
		Visitors  int64 `json:"visitors"`
		PageViews int64 `json:"pageViews"`
		Orders    int64 `json:"orders"`
		Revenue   Money `json:"revenue"`
	}

	StoresResponse struct {
		Stores     []Store    `json:"stores"`
		Pagination Pagination `json:"pagination"`
	}

	StorefrontResponse struct {
		Store    Store     `json:"store"`
		Products []Product `json:"products"`
	}

	PageResponse struct {
		Page  domain.Page `json:"page"`
		Store StoreBrief  `json:"store"`
	}

	StoreBrief struct {
		ID    string       `json:"id"`
		Name  string       `json:"name"`
		Slug  string       `json:"slug"`
		Theme domain.Theme `json:"theme"`
	}

	ProductStats struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Views          int64  `json:"views"`
		Sales          int64  `json:"sales"`
		Revenue        Money  `json:"revenue"`
		ConversionRate Money  `json:"conversionRate"`
	}

	StoreAnalyticsResponse struct {
		Store    StoreAnalytics `json:"store"`
		Products []ProductStats `json:"products"`
	}

	StoreSales struct {
		StoreID        string     `json:"storeId"`
		PaidOrders     int64      `json:"paidOrders"`
		Revenue        Money      `json:"revenue"`
		RefundedOrders int64      `json:"refundedOrders"`
		RefundedAmount Money      `json:"refundedAmount"`
		LastEventAt    *time.Time `json:"lastEventAt,omitempty"`
	}
)

func (r StoreRequest) toDomain() domain.StoreInput {
	return domain.StoreInput{
		Name:        r.Name,
		Description: r.Description,
		Logo:        r.Logo,
		Banner:      r.Banner,
		Theme:       r.Theme,
		Settings:    r.Settings,
		Contact:     r.Contact,
		Social:      r.Social,
		SEO:         r.SEO,
		IsActive:    r.IsActive,
	}
}

func toStore(s domain.Store, withPages bool) Store {
	products := s.Products
	if products == nil {
		products = []string{}
	}
	dto := Store{
		ID:           s.ID,
		Owner:        s.OwnerID,
		Name:         s.Name,
		Slug:         s.Slug,
		Description:  s.Description,
		Logo:         s.Logo,
		Banner:       s.Banner,
		Theme:        s.Theme,
		Settings:     s.Settings,
		Contact:      s.Contact,
		Social:       s.Social,
		SEO:          s.SEO,
		CustomDomain: s.CustomDomain,
		Analytics:    toStoreAnalytics(s.Analytics),
		Products:     products,
		IsActive:     s.IsActive,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	if withPages {
		dto.Pages = s.Pages
	}
	return dto
}

func toStores(ss []domain.Store, withPages bool) []Store {
	dtos := make([]Store, len(ss))
	for i, s := range ss {
		dtos[i] = toStore(s, withPages)
	}
	return dtos
}

func toStoreAnalytics(a domain.StoreAnalytics) StoreAnalytics {
	return StoreAnalytics{
		Visitors:  a.Visitors,
		PageViews: a.PageViews,
		Orders:    a.Orders,
		Revenue:   Money(a.Revenue),
	}
}

func toStoreSales(s domain.StoreSales) StoreSales {
	dto := StoreSales{
		StoreID:        s.StoreID,
		PaidOrders:     s.PaidOrders,
		Revenue:        Money(s.Revenue),
		RefundedOrders: s.RefundedOrders,
		RefundedAmount: Money(s.RefundedAmount),
	}
	if !s.LastEventAt.IsZero() {
		t := s.LastEventAt
		dto.LastEventAt = &t
	}
	return dto
}

////////////////////////////////////////////////////////
///////////////          PRODUCTS         //////////////
////////////////////////////////////////////////////////

type (
	ProductRequest struct {
		StoreID        string                 `json:"storeId"`
		Name           *string                `json:"name"`
		Description    *string                `json:"description"`
		Category       *domain.Category       `json:"category"`
		Type           *domain.ProductType    `json:"type"`
		Price          *domain.ProductPrice   `json:"price"`
		Images         []domain.ProductImage  `json:"images"`
		Inventory      *domain.Inventory      `json:"inventory"`
		Variants       []domain.Variant       `json:"variants"`
		TshirtDetails  *domain.TshirtDetails  `json:"tshirtDetails"`
		DigitalDetails *domain.DigitalDetails `json:"digitalDetails"`
		SEO            *domain.SEO            `json:"seo"`
		Tags           []string               `json:"tags"`
		IsActive       *bool                  `json:"isActive"`
		IsFeatured     *bool                  `json:"isFeatured"`
	}

	Product struct {
		ID             string                 `json:"id"`
		Store          string                 `json:"store"`
		Creator        string                 `json:"creator"`
		Name           string                 `json:"name"`
		Description    string                 `json:"description"`
		Category       domain.Category        `json:"category"`
		Type           domain.ProductType     `json:"type"`
		Price          ProductPrice           `json:"price"`
		Images         []domain.ProductImage  `json:"images"`
		Inventory      domain.Inventory       `json:"inventory"`
		Variants       []domain.Variant       `json:"variants,omitempty"`
		TshirtDetails  *domain.TshirtDetails  `json:"tshirtDetails,omitempty"`
		DigitalDetails *domain.DigitalDetails `json:"digitalDetails,omitempty"`
		SEO            domain.SEO             `json:"seo"`
		Tags           []string               `json:"tags"`
		IsActive       bool                   `json:"isActive"`
		IsFeatured     bool                   `json:"isFeatured"`
		AIGenerated    domain.AIGenerated     `json:"aiGenerated"`
		Analytics      ProductAnalytics       `json:"analytics"`
		CreatedAt      time.Time              `json:"createdAt"`
		UpdatedAt      time.Time              `json:"updatedAt"`
	}

	ProductPrice struct {
		Amount         Money           `json:"amount"`
		Currency       domain.Currency `json:"currency"`
		CompareAtPrice *Money          `json:"compareAtPrice,omitempty"`
	}

	ProductAnalytics struct {
		Views   int64 `json:"views"`
		Sales   int64 `json:"sales"`
		Revenue Money `json:"revenue"`
	}

	ProductsResponse struct {
		Products   []Product  `json:"products"`
		Pagination Pagination `json:"pagination"`
	}

	Category struct {
		Value domain.Category `json:"value"`
		Label string          `json:"label"`
		Icon  string          `json:"icon"`
	}
)

func (r ProductRequest) toDomain() domain.Product {
	p := domain.Product{
		StoreID:        r.StoreID,
		Images:         r.Images,
		Inventory:      domain.DefaultInventory(),
		Variants:       r.Variants,
		TshirtDetails:  r.TshirtDetails,
		DigitalDetails: r.DigitalDetails,
		Tags:           r.Tags,
		IsActive:       true,
	}
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Category != nil {
		p.Category = *r.Category
	}
	if r.Type != nil {
		p.Type = *r.Type
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.Inventory != nil {
		p.Inventory = *r.Inventory
	}
	if r.SEO != nil {
		p.SEO = *r.SEO
	}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	if r.IsFeatured != nil {
		p.IsFeatured = *r.IsFeatured
	}
	return p
}

func (r ProductRequest) toUpdate() domain.ProductUpdate {
	return domain.ProductUpdate{
		Name:           r.Name,
		Description:    r.Description,
		Category:       r.Category,
		Type:           r.Type,
		Price:          r.Price,
		Images:         r.Images,
		Inventory:      r.Inventory,
		Variants:       r.Variants,
		TshirtDetails:  r.TshirtDetails,
		DigitalDetails: r.DigitalDetails,
		SEO:            r.SEO,
		Tags:           r.Tags,
		IsActive:       r.IsActive,
		IsFeatured:     r.IsFeatured,
	}
}

func toProduct(p domain.Product) Product {
	images := p.Images
	if images == nil {
		images = []domain.ProductImage{}
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return Product{
		ID:          p.ID,
		Store:       p.StoreID,
		Creator:     p.CreatorID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Type:        p.Type,
		Price: ProductPrice{
			Amount:         Money(p.Price.Amount),
			Currency:       p.Price.Currency,
			CompareAtPrice: optMoney(p.Price.CompareAtPrice),
		},
		Images:         images,
		Inventory:      p.Inventory,
		Variants:       p.Variants,
		TshirtDetails:  p.TshirtDetails,
		DigitalDetails: p.DigitalDetails,
		SEO:            p.SEO,
		Tags:           tags,
		IsActive:       p.IsActive,
		IsFeatured:     p.IsFeatured,
		AIGenerated:    p.AIGenerated,
		Analytics: ProductAnalytics{
			Views:   p.Views,
			Sales:   p.Sales,
			Revenue: Money(p.Revenue),
		},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toProducts(ps []domain.Product) []Product {
	dtos := make([]Product, len(ps))
	for i, p := range ps {
		dtos[i] = toProduct(p)
	}
	return dtos
}

func toProductStats(ps []domain.Product) []ProductStats {
	stats := make([]ProductStats, len(ps))
	for i, p := range ps {
		stats[i] = ProductStats{
			ID:             p.ID,
			Name:           p.Name,
			Views:          p.Views,
			Sales:          p.Sales,
			Revenue:        Money(p.Revenue),
			ConversionRate: Money(p.ConversionRate()),
		}
	}
	return stats
}

////////////////////////////////////////////////////////
///////////////           ORDERS          //////////////
////////////////////////////////////////////////////////

type (
	CreateOrderRequest struct {
		Items         []LineRequest        `json:"items"`
		Customer      domain.Customer      `json:"customer"`
		Shipping      domain.ShippingInfo  `json:"shipping"`
		Billing       domain.BillingInfo   `json:"billing"`
		PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
		StoreID       string               `json:"storeId"`
		ReferralCode  string               `json:"referralCode"`
	}

	LineRequest struct {
		ProductID string             `json:"productId"`
		Quantity  int                `json:"quantity"`
		Variant   domain.ItemVariant `json:"variant"`
	}

	CreateOrderResponse struct {
		Message string          `json:"message"`
		Order   OrderBrief      `json:"order"`
		Payment PaymentRedirect `json:"payment"`
	}

	OrderBrief struct {
		ID          string          `json:"id"`
		OrderNumber string          `json:"orderNumber"`
		Total       Money           `json:"total"`
		Currency    domain.Currency `json:"currency"`
	}

	PaymentRedirect struct {
		URL  string            `json:"url,omitempty"`
		Data map[string]string `json:"data,omitempty"`
	}

	Order struct {
		ID          string              `json:"id"`
		OrderNumber string              `json:"orderNumber"`
		Store       string              `json:"store"`
		Status      domain.OrderStatus  `json:"status"`
		Customer    domain.Customer     `json:"customer"`
		Items       []OrderItem         `json:"items"`
		Pricing     Pricing             `json:"pricing"`
		Shipping    domain.ShippingInfo `json:"shipping"`
		Billing     domain.BillingInfo  `json:"billing"`
		Payment     Payment             `json:"payment"`
		Affiliate   *OrderAffiliate     `json:"affiliate,omitempty"`
		Notes       string              `json:"notes,omitempty"`
		CreatedAt   time.Time           `json:"createdAt"`
		UpdatedAt   time.Time           `json:"updatedAt"`
	}

	OrderItem struct {
		Product  string             `json:"product"`
		Name     string             `json:"name"`
		Price    Money              `json:"price"`
		Quantity int                `json:"quantity"`
		Variant  domain.ItemVariant `json:"variant"`
		Subtotal Money              `json:"subtotal"`
	}

	Pricing struct {
		Subtotal Money           `json:"subtotal"`
		Shipping Money           `json:"shipping"`
		Tax      Money           `json:"tax"`
		Discount Money           `json:"discount"`
		Total    Money           `json:"total"`
		Currency domain.Currency `json:"currency"`
	}

	Payment struct {
		Method           domain.PaymentMethod `json:"method"`
		Status           domain.PaymentStatus `json:"status"`
		TransactionID    string               `json:"transactionId,omitempty"`
		PayfastPaymentID string               `json:"payfastPaymentId,omitempty"`
		PaidAt           *time.Time           `json:"paidAt,omitempty"`
		RefundedAt       *time.Time           `json:"refundedAt,omitempty"`
		RefundAmount     *Money               `json:"refundAmount,omitempty"`
	}

	OrderAffiliate struct {
		Referrer   string     `json:"referrer"`
		Commission Commission `json:"commission"`
	}

	Commission struct {
		Rate   Money      `json:"rate"`
		Amount Money      `json:"amount"`
		Paid   bool       `json:"paid"`
		PaidAt *time.Time `json:"paidAt,omitempty"`
	}

	OrdersResponse struct {
		Orders     []Order       `json:"orders"`
		Pagination Pagination    `json:"pagination"`
		Summary    *OrderSummary `json:"summary,omitempty"`
	}

	StatusRequest struct {
		Status         domain.OrderStatus `json:"status"`
		TrackingNumber string             `json:"trackingNumber"`
		Notes          string             `json:"notes"`
	}

	RefundRequest struct {
		Amount *Money `json:"amount"`
		Reason string `json:"reason"`
	}

	RefundResponse struct {
		Message      string `json:"message"`
		Order        Order  `json:"order"`
		RefundAmount Money  `json:"refundAmount"`
	}

	OrderSummary struct {
		TotalOrders       int64 `json:"totalOrders"`
		TotalRevenue      Money `json:"totalRevenue"`
		PendingOrders     int64 `json:"pendingOrders"`
		ProcessingOrders  int64 `json:"processingOrders"`
		ShippedOrders     int64 `json:"shippedOrders"`
		CompletedOrders   int64 `json:"completedOrders"`
		CancelledOrders   int64 `json:"cancelledOrders"`
		AverageOrderValue Money `json:"averageOrderValue"`
	}

	DailyStat struct {
		Date       string `json:"date"`
		Orders     int64  `json:"orders"`
		Revenue    Money  `json:"revenue"`
		Commission *Money `json:"commission,omitempty"`
	}

	OverviewResponse struct {
		Timeframe domain.Timeframe `json:"timeframe"`
		Summary   OrderSummary     `json:"summary"`
		Daily     []DailyStat      `json:"dailyStats"`
	}
)

func (r CreateOrderRequest) toDomain(customerUserID string) domain.Checkout {
	items := make([]domain.LineRequest, len(r.Items))
	for i, it := range r.Items {
		items[i] = domain.LineRequest{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Variant:   it.Variant,
		}
	}
	billing := r.Billing
	if billing.Address == (domain.Address{}) {
		billing = domain.BillingInfo{Address: r.Shipping.Address, SameAsShipping: true}
	}
	return domain.Checkout{
		CustomerUserID: customerUserID,
		StoreID:        r.StoreID,
		Items:          items,
		Customer:       r.Customer,
		Shipping:       r.Shipping,
		Billing:        billing,
		PaymentMethod:  r.PaymentMethod,
		ReferralCode:   r.ReferralCode,
	}
}

func toOrder(o domain.Order) Order {
	items := make([]OrderItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItem{
			Product:  it.ProductID,
			Name:     it.Name,
			Price:    Money(it.Price),
			Quantity: it.Quantity,
			Variant:  it.Variant,
			Subtotal: Money(it.Subtotal),
		}
	}
	dto := Order{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Store:       o.StoreID,
		Status:      o.Status,
		Customer:    o.Customer,
		Items:       items,
		Pricing: Pricing{
			Subtotal: Money(o.Pricing.Subtotal),
			Shipping: Money(o.Pricing.Shipping),
			Tax:      Money(o.Pricing.Tax),
			Discount: Money(o.Pricing.Discount),
			Total:    Money(o.Pricing.Total),
			Currency: o.Pricing.Currency,
		},
		Shipping: o.Shipping,
		Billing:  o.Billing,
		Payment: Payment{
			Method:           o.Payment.Method,
			Status:           o.Payment.Status,
			TransactionID:    o.Payment.TransactionID,
			PayfastPaymentID: o.Payment.PayfastPaymentID,
			PaidAt:           o.Payment.PaidAt,
			RefundedAt:       o.Payment.RefundedAt,
			RefundAmount:     optMoney(o.Payment.RefundAmount),
		},
		Notes:     o.Notes,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	if a := o.Affiliate; a != nil {
		dto.Affiliate = &OrderAffiliate{
			Referrer: a.ReferrerID,
			Commission: Commission{
				Rate:   Money(a.Commission.Rate),
				Amount: Money(a.Commission.Amount),
				Paid:   a.Commission.Paid,
				PaidAt: a.Commission.PaidAt,
			},
		}
	}
	return dto
}

func toOrders(os []domain.Order) []Order {
	dtos := make([]Order, len(os))
	for i, o := range os {
		dtos[i] = toOrder(o)
	}
	return dtos
}

func toOrderSummary(s domain.OrderSummary) OrderSummary {
	return OrderSummary{
		TotalOrders:       s.TotalOrders,
		TotalRevenue:      Money(s.TotalRevenue),
		PendingOrders:     s.PendingOrders,
		ProcessingOrders:  s.ProcessingOrders,
		ShippedOrders:     s.ShippedOrders,
		CompletedOrders:   s.CompletedOrders,
		CancelledOrders:   s.CancelledOrders,
		AverageOrderValue: Money(s.AverageOrder),
	}
}

func toDailyStats(ds []domain.DailyStat, withCommission bool) []DailyStat {
	dtos := make([]DailyStat, len(ds))
	for i, d := range ds {
		dtos[i] = DailyStat{
			Date:    d.Day,
			Orders:  d.Orders,
			Revenue: Money(d.Revenue),
		}
		if withCommission {
			c := Money(d.Commission)
			dtos[i].Commission = &c
		}
	}
	return dtos
}

////////////////////////////////////////////////////////
///////////////         AFFILIATES        //////////////
////////////////////////////////////////////////////////

type (
	AffiliateDashboard struct {
		Affiliate   AffiliateAccount  `json:"affiliate"`
		Commissions CommissionSummary `json:"commissions"`
		Referrals   ReferralMetrics   `json:"referrals"`
	}

	AffiliateAccount struct {
		ReferralCode   string `json:"referralCode"`
		ReferralLink   string `json:"referralLink"`
		TotalEarnings  Money  `json:"totalEarnings"`
		PendingPayouts Money  `json:"pendingPayouts"`
	}

	CommissionSummary struct {
		Total       Money `json:"totalCommissions"`
		Paid        Money `json:"paidCommissions"`
		Unpaid      Money `json:"unpaidCommissions"`
		TotalOrders int64 `json:"totalOrders"`
	}

	ReferralMetrics struct {
		Total          int   `json:"total"`
		Recent         int   `json:"recent"`
		Converted      int   `json:"converted"`
		ConversionRate Money `json:"conversionRate"`
	}

	ReferredUser struct {
		ID        string      `json:"id"`
		Username  string      `json:"username"`
		Email     string      `json:"email"`
		Plan      domain.Plan `json:"plan"`
		CreatedAt time.Time   `json:"createdAt"`
	}

	ReferralReport struct {
		User            ReferredUser `json:"user"`
		TotalCommission Money        `json:"totalCommission"`
		OrderCount      int          `json:"orderCount"`
		Converted       bool         `json:"converted"`
	}

	ReferralsResponse struct {
		Referrals  []ReferralReport `json:"referrals"`
		Pagination Pagination       `json:"pagination"`
	}

	CommissionsResponse struct {
		Commissions []Order           `json:"commissions"`
		Summary     CommissionSummary `json:"summary"`
		Pagination  Pagination        `json:"pagination"`
	}

	LinkRequest struct {
		Campaign string `json:"campaign"`
		Source   string `json:"source"`
		Medium   string `json:"medium"`
	}

	LinkResponse struct {
		Link      string `json:"link"`
		QRCodeURL string `json:"qrCode"`
	}

	PayoutRequest struct {
		Amount         Money          `json:"amount"`
		PaymentMethod  string         `json:"paymentMethod"`
		PaymentDetails map[string]any `json:"paymentDetails"`
	}

	Payout struct {
		ID          string              `json:"id"`
		Amount      Money               `json:"amount"`
		Method      string              `json:"method"`
		Status      domain.PayoutStatus `json:"status"`
		RequestedAt time.Time           `json:"requestedAt"`
	}

	PayoutResponse struct {
		Message string `json:"message"`
		Payout  Payout `json:"payout"`
	}

	ReferralDay struct {
		Date        string `json:"date"`
		Referrals   int64  `json:"referrals"`
		Conversions int64  `json:"conversions"`
	}

	AffiliateAnalytics struct {
		Timeframe   domain.Timeframe `json:"timeframe"`
		Commissions []DailyStat      `json:"commissionStats"`
		Referrals   []ReferralDay    `json:"referralStats"`
	}
)

func toCommissionSummary(s domain.CommissionSummary) CommissionSummary {
	return CommissionSummary{
		Total:       Money(s.Total),
		Paid:        Money(s.Paid),
		Unpaid:      Money(s.Unpaid),
		TotalOrders: s.TotalOrders,
	}
}

func toAffiliateDashboard(d domain.AffiliateDashboard) AffiliateDashboard {
	return AffiliateDashboard{
		Affiliate: AffiliateAccount{
			ReferralCode:   d.User.Affiliate.ReferralCode,
			ReferralLink:   d.ReferralLink,
			TotalEarnings:  Money(d.User.Affiliate.TotalEarnings),
			PendingPayouts: Money(d.User.Affiliate.PendingPayouts),
		},
		Commissions: toCommissionSummary(d.Commissions),
		Referrals: ReferralMetrics{
			Total:          d.Metrics.TotalReferrals,
			Recent:         d.Metrics.RecentReferrals,
			Converted:      d.Metrics.PaidReferrals,
			ConversionRate: Money(d.Metrics.ConversionRate),
		},
	}
}

func toReferralReports(rs []domain.ReferralReport) []ReferralReport {
	dtos := make([]ReferralReport, len(rs))
	for i, r := range rs {
		dtos[i] = ReferralReport{
			User: ReferredUser{
				ID:        r.User.ID,
				Username:  r.User.Username,
				Email:     r.User.Email,
				Plan:      r.User.Subscription.Plan,
				CreatedAt: r.User.CreatedAt,
			},
			TotalCommission: Money(r.TotalCommission),
			OrderCount:      r.OrderCount,
			Converted:       r.User.Subscription.Plan != domain.PlanFree,
		}
	}
	return dtos
}

func toPayout(p domain.Payout) Payout {
	return Payout{
		ID:          p.ID,
		Amount:      Money(p.Amount),
		Method:      p.Method,
		Status:      p.Status,
		RequestedAt: p.RequestedAt,
	}
}

func toAffiliateAnalytics(a domain.AffiliateAnalytics) AffiliateAnalytics {
	days := make([]ReferralDay, len(a.Referrals))
	for i, d := range a.Referrals {
		days[i] = ReferralDay{
			Date:        d.Day,
			Referrals:   d.Referrals,
			Conversions: d.Conversions,
		}
	}
	return AffiliateAnalytics{
		Timeframe:   a.Timeframe,
		Commissions: toDailyStats(a.Commissions, true),
		Referrals:   days,
	}
}

////////////////////////////////////////////////////////
///////////////             AI            //////////////
////////////////////////////////////////////////////////

type PromptResponse struct {
	Kind   string `json:"kind"`
	Prompt string `json:"prompt"`
}
