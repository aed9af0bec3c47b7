package service

import (
	"context"
	"testing"

	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestCreateStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.svc.CreateStore(ctx, "u1", domain.StoreInput{
		Name:  ptr("My Cool Store!"),
		Theme: &domain.Theme{PrimaryColor: "#000000"},
	})
	require.NoError(t, err)
	assert.Equal(t, "my-cool-store", first.Slug)
	assert.Equal(t, "#000000", first.Theme.PrimaryColor)
	assert.Equal(t, "modern", first.Theme.Template)

	second, err := f.svc.CreateStore(ctx, "u2", domain.StoreInput{
		Name: ptr("My cool store"),
	})
	require.NoError(t, err)
	assert.Regexp(t, `^my-cool-store-[a-z0-9]{4}$`, second.Slug)

	_, err = f.svc.CreateStore(ctx, "u1", domain.StoreInput{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.CreateStore(ctx, "u1", domain.StoreInput{
		Name:  ptr("Bad theme"),
		Theme: &domain.Theme{Template: "brutalist"},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	a, err := f.svc.CreateStore(ctx, "u1", domain.StoreInput{Name: ptr("Alpha")})
	require.NoError(t, err)
	_, err = f.svc.CreateStore(ctx, "u1", domain.StoreInput{Name: ptr("Beta")})
	require.NoError(t, err)

	got, err := f.svc.UpdateStore(ctx, a.ID, domain.StoreInput{Name: ptr("Gamma")})
	require.NoError(t, err)
	assert.Equal(t, "gamma", got.Slug)

	got, err = f.svc.UpdateStore(ctx, a.ID, domain.StoreInput{Name: ptr("Beta")})
	require.NoError(t, err)
	assert.Equal(t, "Beta", got.Name)
	assert.Equal(t, "gamma", got.Slug, "taken slug is not reused")
}

func TestPages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, store, _ := f.seed(t)

	_, err := f.svc.SavePage(ctx, store.ID, domain.Page{Name: "Home", IsHomePage: true})
	require.NoError(t, err)
	_, err = f.svc.SavePage(ctx, store.ID, domain.Page{Name: "About Us", IsHomePage: true})
	require.NoError(t, err)

	st, _ := f.storage.ReadStore(ctx, store.ID)
	require.Len(t, st.Pages, 2)
	assert.False(t, st.Pages[0].IsHomePage)
	assert.True(t, st.Pages[1].IsHomePage)
	assert.Equal(t, "about-us", st.Pages[1].Slug)
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner, store, product := f.seed(t)

	o, _, err := f.svc.PlaceOrder(ctx, checkout(store.ID, product.ID, 1))
	require.NoError(t, err)

	tests := []struct {
		name    string
		actor   string
		kind    domain.ResourceKind
		id      string
		wantErr error
	}{
		{"owner updates store", owner.ID, domain.ResourceStore, store.ID, nil},
		{"stranger updates store", "u9", domain.ResourceStore, store.ID, domain.ErrForbidden},
		{"owner updates product", owner.ID, domain.ResourceProduct, product.ID, nil},
		{"stranger updates product", "u9", domain.ResourceProduct, product.ID, domain.ErrForbidden},
		{"owner updates order", owner.ID, domain.ResourceOrder, o.ID, nil},
		{"customer updates order", "", domain.ResourceOrder, o.ID, domain.ErrForbidden},
		{"missing store", owner.ID, domain.ResourceStore, "missing", domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.Authorize(ctx, tt.actor, tt.kind, tt.id)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("product of a store the creator does not own", func(t *testing.T) {
		_, err := f.svc.CreateProduct(ctx, "u9", domain.Product{
			StoreID:     store.ID,
			Name:        "Sneaky",
			Description: "Not mine",
			Category:    domain.CategoryDigital,
			Type:        domain.ProductDigital,
		})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}
