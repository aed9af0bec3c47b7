package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MaxProductNameLength        = 100
	MaxProductDescriptionLength = 1000
)

type Category string

const (
	CategoryTshirt   Category = "tshirt"
	CategoryEbook    Category = "ebook"
	CategoryCourse   Category = "course"
	CategoryTemplate Category = "template"
	CategoryDigital  Category = "digital"
	CategoryPhysical Category = "physical"
	CategoryService  Category = "service"
)

// CategoryInfo describes a category for clients.
type CategoryInfo struct {
	Value Category
	Label string
	Icon  string
}

func Categories() []CategoryInfo {
	return []CategoryInfo{
		{CategoryTshirt, "T-Shirts", "👕"},
		{CategoryEbook, "E-Books", "📚"},
		{CategoryCourse, "Courses", "🎓"},
		{CategoryTemplate, "Templates", "📄"},
		{CategoryDigital, "Digital Products", "💾"},
		{CategoryPhysical, "Physical Products", "📦"},
		{CategoryService, "Services", "🛠️"},
	}
}

func (c Category) Valid() bool {
	for _, info := range Categories() {
		if info.Value == c {
			return true
		}
	}
	return false
}

type ProductType string

const (
	ProductPhysical ProductType = "physical"
	ProductDigital  ProductType = "digital"
	ProductService  ProductType = "service"
)

func (t ProductType) Valid() bool {
	switch t {
	case ProductPhysical, ProductDigital, ProductService:
		return true
	}
	return false
}

type (
	Product struct {
		ID             string
		StoreID        string
		CreatorID      string
		Name           string
		Description    string
		Category       Category
		Type           ProductType
		Price          ProductPrice
		Images         []ProductImage
		Inventory      Inventory
		Variants       []Variant
		TshirtDetails  *TshirtDetails
		DigitalDetails *DigitalDetails
		SEO            SEO
		Tags           []string
		IsActive       bool
		IsFeatured     bool
		AIGenerated    AIGenerated
		Views          int64
		Sales          int64
		Revenue        decimal.Decimal
		CreatedAt      time.Time
		UpdatedAt      time.Time
	}

	ProductPrice struct {
		Amount         decimal.Decimal  `json:"amount"`
		Currency       Currency         `json:"currency"`
		CompareAtPrice *decimal.Decimal `json:"compareAtPrice,omitempty"`
	}

	ProductImage struct {
		URL       string `json:"url"`
		Alt       string `json:"alt,omitempty"`
		IsPrimary bool   `json:"isPrimary"`
	}

	Inventory struct {
		TrackQuantity bool   `json:"trackQuantity"`
		Quantity      int    `json:"quantity"`
		LowStockAlert int    `json:"lowStockAlert"`
		SKU           string `json:"sku,omitempty"`
	}

	Variant struct {
		Name    string   `json:"name"`
		Options []string `json:"options"`
	}

	TshirtDetails struct {
		Sizes     []SizeOption  `json:"sizes,omitempty"`
		Colors    []ColorOption `json:"colors,omitempty"`
		Design    Design        `json:"design"`
		Material  string        `json:"material,omitempty"`
		PrintType string        `json:"printType,omitempty"`
	}

	SizeOption struct {
		Size     string           `json:"size"`
		Quantity int              `json:"quantity"`
		Price    *decimal.Decimal `json:"price,omitempty"`
	}

	ColorOption struct {
		Name     string `json:"name"`
		Hex      string `json:"hex,omitempty"`
		Quantity int    `json:"quantity"`
	}

	Design struct {
		Front      string `json:"front,omitempty"`
		Back       string `json:"back,omitempty"`
		DesignFile string `json:"designFile,omitempty"`
	}

	DigitalDetails struct {
		DownloadURL    string `json:"downloadUrl,omitempty"`
		FileSize       string `json:"fileSize,omitempty"`
		FileFormat     string `json:"fileFormat,omitempty"`
		DownloadLimit  int    `json:"downloadLimit,omitempty"`
		AccessDuration int    `json:"accessDuration,omitempty"`
	}

	AIGenerated struct {
		Description bool `json:"description"`
		Tags        bool `json:"tags"`
		SEOContent  bool `json:"seoContent"`
	}
)

var validPrintTypes = map[string]bool{
	"": true, "screen": true, "dtg": true, "vinyl": true, "embroidery": true,
}

func DefaultInventory() Inventory {
	return Inventory{TrackQuantity: true, LowStockAlert: 5}
}

// Validate checks the invariants shared by creation and update.
func (p *Product) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" || p.Description == "" {
		return Invalid("please provide all required fields")
	}
	if len(p.Name) > MaxProductNameLength {
		return Invalid("product name must be at most %d characters", MaxProductNameLength)
	}
	if len(p.Description) > MaxProductDescriptionLength {
		return Invalid(
			"product description must be at most %d characters",
			MaxProductDescriptionLength,
		)
	}
	if !p.Category.Valid() {
		return Invalid("invalid category %q", p.Category)
	}
	if !p.Type.Valid() {
		return Invalid("invalid product type %q", p.Type)
	}
	if p.Price.Currency == "" {
		p.Price.Currency = CurrencyZAR
	}
	if !p.Price.Currency.Valid() {
		return Invalid("invalid currency %q", p.Price.Currency)
	}
	if p.Price.Amount.IsNegative() {
		return Invalid("price must not be negative")
	}
	if p.TshirtDetails != nil && !validPrintTypes[p.TshirtDetails.PrintType] {
		return Invalid("invalid print type %q", p.TshirtDetails.PrintType)
	}
	return nil
}

// ConversionRate is sales per view as a percentage with 2 decimals.
func (p Product) ConversionRate() decimal.Decimal {
	if p.Views == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(p.Sales).
		Div(decimal.NewFromInt(p.Views)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}
