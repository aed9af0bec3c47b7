package domain_test

import (
	"testing"

	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProduct() domain.Product {
	return domain.Product{
		Name:        "Widget",
		Description: "A widget",
		Category:    domain.CategoryPhysical,
		Type:        domain.ProductPhysical,
		Price:       domain.ProductPrice{Amount: dec("50")},
	}
}

func TestProductValidate(t *testing.T) {
	p := validProduct()
	require.NoError(t, p.Validate())
	assert.Equal(t, domain.CurrencyZAR, p.Price.Currency)

	tests := map[string]func(*domain.Product){
		"NoName":        func(p *domain.Product) { p.Name = "" },
		"BadCategory":   func(p *domain.Product) { p.Category = "car" },
		"BadType":       func(p *domain.Product) { p.Type = "virtual" },
		"BadCurrency":   func(p *domain.Product) { p.Price.Currency = "BTC" },
		"NegativePrice": func(p *domain.Product) { p.Price.Amount = dec("-1") },
		"BadPrintType": func(p *domain.Product) {
			p.TshirtDetails = &domain.TshirtDetails{PrintType: "laser"}
		},
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			p := validProduct()
			mutate(&p)
			assert.ErrorIs(t, p.Validate(), domain.ErrValidation)
		})
	}
}

func TestProductApply(t *testing.T) {
	p := validProduct()
	name := "Gadget"
	active := false
	require.NoError(t, p.Apply(domain.ProductUpdate{Name: &name, IsActive: &active}))
	assert.Equal(t, "Gadget", p.Name)
	assert.False(t, p.IsActive)

	bad := domain.Category("car")
	assert.ErrorIs(t, p.Apply(domain.ProductUpdate{Category: &bad}), domain.ErrValidation)
}

func TestConversionRate(t *testing.T) {
	assert.True(t, domain.Product{}.ConversionRate().IsZero())
	p := domain.Product{Views: 200, Sales: 3}
	assert.True(t, dec("1.5").Equal(p.ConversionRate()))
}
