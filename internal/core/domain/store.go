package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MaxStoreNameLength        = 100
	MaxStoreDescriptionLength = 500
	slugSuffixLength          = 4
)

type Currency string

const (
	CurrencyZAR Currency = "ZAR"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

func (c Currency) Valid() bool {
	switch c {
	case CurrencyZAR, CurrencyUSD, CurrencyEUR, CurrencyGBP:
		return true
	}
	return false
}

type (
	Store struct {
		ID           string
		OwnerID      string
		Name         string
		Slug         string
		Description  string
		Logo         string
		Banner       string
		Theme        Theme
		Settings     StoreSettings
		Contact      Contact
		Social       map[string]string
		SEO          SEO
		Pages        []Page
		CustomDomain CustomDomain
		Analytics    StoreAnalytics
		Products     []string
		IsActive     bool
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	Theme struct {
		PrimaryColor   string `json:"primaryColor"`
		SecondaryColor string `json:"secondaryColor"`
		FontFamily     string `json:"fontFamily"`
		Template       string `json:"template"`
	}

	StoreSettings struct {
		IsPublic           bool             `json:"isPublic"`
		AllowGuestCheckout bool             `json:"allowGuestCheckout"`
		Currency           Currency         `json:"currency"`
		PaymentMethods     PaymentMethods   `json:"paymentMethods"`
		Shipping           ShippingSettings `json:"shipping"`
		Taxes              TaxSettings      `json:"taxes"`
	}

	PaymentMethods struct {
		Payfast PayfastMethod `json:"payfast"`
		Stripe  StripeMethod  `json:"stripe"`
	}

	PayfastMethod struct {
		Enabled     bool   `json:"enabled"`
		MerchantID  string `json:"merchantId,omitempty"`
		MerchantKey string `json:"merchantKey,omitempty"`
	}

	StripeMethod struct {
		Enabled        bool   `json:"enabled"`
		PublishableKey string `json:"publishableKey,omitempty"`
	}

	ShippingSettings struct {
		Enabled               bool             `json:"enabled"`
		FreeShippingThreshold *decimal.Decimal `json:"freeShippingThreshold,omitempty"`
		Rates                 []ShippingRate   `json:"rates"`
	}

	ShippingRate struct {
		Name        string          `json:"name"`
		Price       decimal.Decimal `json:"price"`
		Description string          `json:"description,omitempty"`
	}

	TaxSettings struct {
		Enabled bool            `json:"enabled"`
		Rate    decimal.Decimal `json:"rate"`
		// IncludeInPrice means product prices already contain tax.
		IncludeInPrice bool `json:"includeInPrice"`
	}

	Contact struct {
		Email   string  `json:"email,omitempty"`
		Phone   string  `json:"phone,omitempty"`
		Address Address `json:"address"`
	}

	Address struct {
		FirstName  string `json:"firstName,omitempty"`
		LastName   string `json:"lastName,omitempty"`
		Company    string `json:"company,omitempty"`
		Street     string `json:"street,omitempty"`
		City       string `json:"city,omitempty"`
		Province   string `json:"province,omitempty"`
		PostalCode string `json:"postalCode,omitempty"`
		Country    string `json:"country,omitempty"`
	}

	SEO struct {
		Title       string   `json:"title,omitempty"`
		Description string   `json:"description,omitempty"`
		Keywords    []string `json:"keywords,omitempty"`
		Favicon     string   `json:"favicon,omitempty"`
	}

	Page struct {
		Name        string         `json:"name"`
		Slug        string         `json:"slug"`
		Content     map[string]any `json:"content,omitempty"`
		IsHomePage  bool           `json:"isHomePage"`
		IsPublished bool           `json:"isPublished"`
	}

	CustomDomain struct {
		Domain      string `json:"domain,omitempty"`
		IsConnected bool   `json:"isConnected"`
		SSLEnabled  bool   `json:"sslEnabled"`
	}

	StoreAnalytics struct {
		Visitors  int64
		PageViews int64
		Orders    int64
		Revenue   decimal.Decimal
	}
)

func DefaultTheme() Theme {
	return Theme{
		PrimaryColor:   "#3B82F6",
		SecondaryColor: "#1F2937",
		FontFamily:     "Inter",
		Template:       "modern",
	}
}

func DefaultStoreSettings() StoreSettings {
	return StoreSettings{
		IsPublic:           true,
		AllowGuestCheckout: true,
		Currency:           CurrencyZAR,
		PaymentMethods: PaymentMethods{
			Payfast: PayfastMethod{Enabled: true},
		},
		Taxes: TaxSettings{IncludeInPrice: true},
	}
}

var validTemplates = map[string]bool{
	"modern": true, "minimal": true, "classic": true, "bold": true, "creative": true,
}

// NewStore returns a store with defaults applied. The slug is derived from
// the name and may be suffixed later if it is taken.
func NewStore(ownerID, name, description string, now time.Time) (Store, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Store{}, Invalid("store name is required")
	}
	s := Store{
		OwnerID:     ownerID,
		Name:        name,
		Slug:        Slugify(name),
		Description: description,
		Theme:       DefaultTheme(),
		Settings:    DefaultStoreSettings(),
		Contact: Contact{
			Address: Address{Country: "South Africa"},
		},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Validate(); err != nil {
		return Store{}, err
	}
	return s, nil
}

func (s Store) Validate() error {
	if s.Name == "" {
		return Invalid("store name is required")
	}
	if len(s.Name) > MaxStoreNameLength {
		return Invalid("store name must be at most %d characters", MaxStoreNameLength)
	}
	if len(s.Description) > MaxStoreDescriptionLength {
		return Invalid(
			"store description must be at most %d characters",
			MaxStoreDescriptionLength,
		)
	}
	if s.Slug == "" {
		return Invalid("store name must contain letters or digits")
	}
	if !validTemplates[s.Theme.Template] {
		return Invalid("invalid theme template %q", s.Theme.Template)
	}
	if !s.Settings.Currency.Valid() {
		return Invalid("invalid currency %q", s.Settings.Currency)
	}
	if s.Settings.Taxes.Rate.IsNegative() {
		return Invalid("tax rate must not be negative")
	}
	for _, r := range s.Settings.Shipping.Rates {
		if r.Price.IsNegative() {
			return Invalid("shipping rate must not be negative")
		}
	}
	return nil
}

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
	slugEdges    = regexp.MustCompile(`(^-|-$)+`)
)

// Slugify lowercases s, collapses every run of non alphanumerics into a
// single dash and trims dashes at both ends.
func Slugify(s string) string {
	s = nonSlugChars.ReplaceAllString(strings.ToLower(s), "-")
	return slugEdges.ReplaceAllString(s, "")
}

// SlugWithSuffix is used when the plain slug is taken.
func SlugWithSuffix(slug string) string {
	return slug + "-" + randomString(base36Lower, slugSuffixLength)
}

// SavePage inserts or replaces the page with the same slug. Saved pages are
// published, and at most one page is the home page.
func (s *Store) SavePage(p Page) (Page, error) {
	if p.Slug == "" {
		p.Slug = strings.Trim(nonSlugChars.ReplaceAllString(
			strings.ToLower(p.Name), "-"), "-")
	}
	if p.Slug == "" {
		return Page{}, Invalid("page name or slug is required")
	}
	p.IsPublished = true

	if p.IsHomePage {
		for i := range s.Pages {
			s.Pages[i].IsHomePage = false
		}
	}

	for i := range s.Pages {
		if s.Pages[i].Slug == p.Slug {
			s.Pages[i] = p
			return p, nil
		}
	}
	s.Pages = append(s.Pages, p)
	return p, nil
}

// PublishedPage returns the published page with the given slug.
func (s Store) PublishedPage(slug string) (Page, bool) {
	for _, p := range s.Pages {
		if p.Slug == slug && p.IsPublished {
			return p, true
		}
	}
	return Page{}, false
}

// ShippingCost is the first configured rate when shipping is enabled.
func (ss StoreSettings) ShippingCost() decimal.Decimal {
	if !ss.Shipping.Enabled || len(ss.Shipping.Rates) == 0 {
		return decimal.Zero
	}
	return ss.Shipping.Rates[0].Price
}

// TaxOn returns the tax due on subtotal. Rate is a percentage.
func (ss StoreSettings) TaxOn(subtotal decimal.Decimal) decimal.Decimal {
	if !ss.Taxes.Enabled || ss.Taxes.IncludeInPrice {
		return decimal.Zero
	}
	return subtotal.Mul(ss.Taxes.Rate).Div(decimal.NewFromInt(100)).Round(2)
}
