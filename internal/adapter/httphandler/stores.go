package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/niksmo/storebuilder/internal/core/port"
)

// Store routes share the {store} parameter: public routes resolve it as a
// slug, owner routes as an id.
const storeParam = "store"

type StoresHandler struct {
	responder
	stores port.StoreManager
}

func RegisterStores(
	r chi.Router, rs responder, mw middlewares, stores port.StoreManager,
) {
	h := StoresHandler{rs, stores}
	guard := mw.guard.Guard(domain.ResourceStore, storeParam)

	r.Route("/api/stores", func(r chi.Router) {
		r.Get("/", h.List)
		r.With(mw.auth.Authenticate).Get("/user/my-stores", h.MyStores)
		r.With(mw.auth.Authenticate, AllowJSON).Post("/", h.Create)

		r.Route("/{store}", func(r chi.Router) {
			r.Get("/", h.Storefront)
			r.Get("/pages/{pageSlug}", h.Page)

			r.Group(func(r chi.Router) {
				r.Use(mw.auth.Authenticate, guard)
				r.With(AllowJSON).Put("/", h.Update)
				r.Delete("/", h.Delete)
				r.With(AllowJSON).Post("/pages", h.SavePage)
				r.Get("/analytics", h.Analytics)
				r.Get("/sales", h.Sales)
			})
		})
	})
}

func (h StoresHandler) List(w http.ResponseWriter, r *http.Request) {
	const op = "StoresHandler.List"
	log := slog.With("op", op)

	f := domain.StoreFilter{
		Search:     r.URL.Query().Get("search"),
		Pagination: pagination(r),
	}
	stores, total, err := h.stores.PublicStores(r.Context(), f)
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, StoresResponse{
		Stores:     toStores(stores, false),
		Pagination: toPagination(f.Pagination, total),
	})
}

func (h StoresHandler) Storefront(w http.ResponseWriter, r *http.Request) {
	const op = "StoresHandler.Storefront"
	log := slog.With("op", op)

	st, products, err := h.stores.VisitStore(r.Context(), chi.URLParam(r, storeParam))
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, StorefrontResponse{
		Store:    toStore(st, true),
		Products: toProducts(products),
	})
}

func (h StoresHandler) Page(w http.ResponseWriter, r *http.Request) {
	const op = "StoresHandler.Page"
	log := slog.With("op", op)

	p, st, err := h.stores.PublishedPage(
		r.Context(), chi.URLParam(r, storeParam), chi.URLParam(r, "pageSlug"),
	)
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, PageResponse{
		Page: p,
		Store: StoreBrief{
			ID:    st.ID,
			Name:  st.Name,
			Slug:  st.Slug,
			Theme: st.Theme,
		},
	})
}

func (h StoresHandler) MyStores(w http.ResponseWriter, r *http.Request) {
	const op = "StoresHandler.MyStores"
	log := slog.With("op", op)

	stores, err := h.stores.OwnerStores(r.Context(), currentUserID(r))
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, struct {
		Stores []Store `json:"stores"`
	}{toStores(stores, true)})
}

func (h StoresHandler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "StoresHandler.Create"
	log := slog.With("op", op)

	var req StoreRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, log, err)
		return
	}
	if req.Name == nil || *req.Name == "" {
		h.fail(w, log, domain.Invalid("store name is required"))
		return
	}

	st, err := h.stores.CreateStore(r.Context(), currentUserID(r), req.toDomain())
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusCreated, struct {
		Message string `json:"message"`
		Store   Store  `json:"store"`
	}{"Store created successfully", toStore(st, true)})
	log.Info("store created", "storeID", st.ID, "slug", st.Slug)
}

func (h StoresHandler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "StoresHandler.Update"
	log := slog.With("op", op)

	var req StoreRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, log, err)
		return
	}

	st, err := h.stores.UpdateStore(r.Context(), chi.URLParam(r, storeParam), req.toDomain())
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, struct {
		Message string `json:"message"`
		Store   Store  `json:"store"`
	}{"Store updated successfully", toStore(st, true)})
}

func (h StoresHandler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "StoresHandler.Delete"
	log := slog.With("op", op)

	id := chi.URLParam(r, storeParam)
	if err := h.stores.DeleteStore(r.Context(), id); err != nil {
		h.fail(w, log, err)
		return
	}
	h.message(w, log, http.StatusOK, "Store deleted successfully")
	log.Info("store deleted", "storeID", id)
}

func (h StoresHandler) SavePage(w http.ResponseWriter, r *http.Request) {
	const op = "StoresHandler.SavePage"
	log := slog.With("op", op)

	var p domain.Page
	if err := decodeJSON(r, &p); err != nil {
		h.fail(w, log, err)
		return
	}

	saved, err := h.stores.SavePage(r.Context(), chi.URLParam(r, storeParam), p)
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, struct {
		Message string      `json:"message"`
		Page    domain.Page `json:"page"`
	}{"Page saved successfully", saved})
}

func (h StoresHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	const op = "StoresHandler.Analytics"
	log := slog.With("op", op)

	st, products, err := h.stores.StoreAnalytics(r.Context(), chi.URLParam(r, storeParam))
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, StoreAnalyticsResponse{
		Store:    toStoreAnalytics(st.Analytics),
		Products: toProductStats(products),
	})
}

func (h StoresHandler) Sales(w http.ResponseWriter, r *http.Request) {
	const op = "StoresHandler.Sales"
	log := slog.With("op", op)

	sales, err := h.stores.StoreSales(r.Context(), chi.URLParam(r, storeParam))
	if err != nil {
		h.fail(w, log, err)
		return
	}
	h.json(w, log, http.StatusOK, toStoreSales(sales))
}
