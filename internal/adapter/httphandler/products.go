package httphandler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/niksmo/storebuilder/internal/core/port"
)

type ProductsHandler struct {
	responder
	products port.ProductManager
}

func RegisterProducts(
	r chi.Router, rs responder, mw middlewares, products port.ProductManager,
) {
	h := ProductsHandler{rs, products}
	guard := mw.guard.Guard(domain.ResourceProduct, "id")

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/meta/categories", h.Categories)
		r.Get("/store/{storeId}", h.StoreProducts)
		r.With(mw.auth.Authenticate).Get("/user/my-products", h.MyProducts)
		r.With(mw.auth.Authenticate, AllowJSON).Post("/", h.Create)

		r.Get("/{id}", h.Get)
		r.With(mw.auth.Authenticate, guard, AllowJSON).Put("/{id}", h.Update)
		r.With(mw.auth.Authenticate, guard).Delete("/{id}", h.Delete)
	})
}

func (h ProductsHandler) list(
	w http.ResponseWriter, r *http.Request, log *slog.Logger, f domain.ProductFilter,
) {
	products, total, err := h.products.ListProducts(r.Context(), f)
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, ProductsResponse{
		Products:   toProducts(products),
		Pagination: toPagination(f.Pagination, total),
	})
}

// productFilter reads the catalogue query: category, type, store, search,
// sortBy and sortOrder.
func productFilter(r *http.Request) domain.ProductFilter {
	q := r.URL.Query()
	f := domain.ProductFilter{
		Category:   domain.Category(q.Get("category")),
		Type:       domain.ProductType(q.Get("type")),
		StoreID:    q.Get("store"),
		Search:     q.Get("search"),
		SortBy:     q.Get("sortBy"),
		SortAsc:    strings.EqualFold(q.Get("sortOrder"), "asc"),
		Pagination: pagination(r),
	}
	if !domain.ValidProductSort(f.SortBy) {
		f.SortBy = "createdAt"
	}
	return f
}

func (h ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.List"
	log := slog.With("op", op)

	f := productFilter(r)
	f.ActiveOnly = true
	h.list(w, r, log, f)
}

func (h ProductsHandler) StoreProducts(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.StoreProducts"
	log := slog.With("op", op)

	f := productFilter(r)
	f.StoreID = chi.URLParam(r, "storeId")
	f.ActiveOnly = true
	h.list(w, r, log, f)
}

func (h ProductsHandler) MyProducts(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.MyProducts"
	log := slog.With("op", op)

	f := productFilter(r)
	f.CreatorID = currentUserID(r)
	h.list(w, r, log, f)
}

func (h ProductsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.Categories"
	log := slog.With("op", op)

	infos := domain.Categories()
	cats := make([]Category, len(infos))
	for i, c := range infos {
		cats[i] = Category{Value: c.Value, Label: c.Label, Icon: c.Icon}
	}
	h.json(w, log, http.StatusOK, struct {
		Categories []Category `json:"categories"`
	}{cats})
}

func (h ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.Get"
	log := slog.With("op", op)

	p, err := h.products.ViewProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, struct {
		Product Product `json:"product"`
	}{toProduct(p)})
}

func (h ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.Create"
	log := slog.With("op", op)

	var req ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, log, err)
		return
	}
	if req.Name == nil || req.Description == nil || req.Category == nil ||
		req.Type == nil || req.Price == nil || req.StoreID == "" {
		h.fail(w, log, domain.Invalid("please provide all required fields"))
		return
	}

	p, err := h.products.CreateProduct(r.Context(), currentUserID(r), req.toDomain())
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusCreated, struct {
		Message string  `json:"message"`
		Product Product `json:"product"`
	}{"Product created successfully", toProduct(p)})
	log.Info("product created", "productID", p.ID, "storeID", p.StoreID)
}

func (h ProductsHandler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.Update"
	log := slog.With("op", op)

	var req ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, log, err)
		return
	}

	p, err := h.products.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req.toUpdate())
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, struct {
		Message string  `json:"message"`
		Product Product `json:"product"`
	}{"Product updated successfully", toProduct(p)})
}

func (h ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.Delete"
	log := slog.With("op", op)

	id := chi.URLParam(r, "id")
	if err := h.products.DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, log, err)
		return
	}
	h.message(w, log, http.StatusOK, "Product deleted successfully")
	log.Info("product deleted", "productID", id)
}
