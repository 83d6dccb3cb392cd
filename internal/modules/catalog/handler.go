package catalog

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wyna/storefront/internal/platform/httpx"
)

// Handler exposes catalog HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes mounts the public storefront endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/products", h.listPublished)
	r.Get("/api/products/{idOrSlug}", h.getPublished)
	r.Get("/api/categories", h.listActiveCategories)
	r.Get("/api/categories/{idOrSlug}", h.getCategory)
}

// RegisterAdminRoutes mounts back-office endpoints; the caller is
// responsible for authentication.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listAll)
		r.Post("/", h.createProduct)
		r.Get("/{idOrSlug}", h.getAny)
		r.Put("/{id}", h.updateProduct)
		r.Delete("/{id}", h.archiveProduct)
	})
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.listAllCategories)
		r.Post("/", h.createCategory)
		r.Put("/{id}", h.updateCategory)
		r.Delete("/{id}", h.deleteCategory)
	})
}

func (h *Handler) listPublished(w http.ResponseWriter, r *http.Request) {
	published := StatusPublished
	h.list(w, r, &published)
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	var status *Status
	if s := Status(r.URL.Query().Get("status")); s != "" {
		status = &s
	}
	h.list(w, r, status)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, status *Status) {
	q := r.URL.Query()
	page, limit := httpx.Page(r, 20)
	f := ProductFilter{
		Status: status,
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
		Page:   page,
		Limit:  limit,
	}
	if q.Get("featured") == "true" {
		featured := true
		f.Featured = &featured
	}
	if ref := q.Get("category"); ref != "" {
		c, err := h.service.GetCategory(r.Context(), ref)
		if errors.Is(err, ErrNotFound) {
			httpx.Respond(w, http.StatusOK, httpx.NewPaginated([]*Product{}, page, limit, 0))
			return
		}
		if err != nil {
			httpx.Error(w, r, statusFor(err), err)
			return
		}
		f.CategoryID = &c.ID
	}

	products, total, err := h.service.ListProducts(r.Context(), f)
	if err != nil {
		httpx.Error(w, r, statusFor(err), err)
		return
	}
	if products == nil {
		products = []*Product{}
	}
	httpx.Respond(w, http.StatusOK, httpx.NewPaginated(products, page, limit, total))
}

func (h *Handler) getPublished(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPublishedProduct(r.Context(), chi.URLParam(r, "idOrSlug"))
	if err != nil {
		httpx.Error(w, r, statusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusOK, p)
}

func (h *Handler) getAny(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "idOrSlug"))
	if err != nil {
		httpx.Error(w, r, statusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusOK, p)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, err)
		return
	}
	p, err := h.service.CreateProduct(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, statusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusCreated, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, err)
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.Error(w, r, statusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusOK, p)
}

func (h *Handler) archiveProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.ArchiveProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, r, statusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusOK, p)
}

func (h *Handler) listActiveCategories(w http.ResponseWriter, r *http.Request) {
	h.listCategories(w, r, true)
}

func (h *Handler) listAllCategories(w http.ResponseWriter, r *http.Request) {
	h.listCategories(w, r, false)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	categories, err := h.service.ListCategories(r.Context(), activeOnly)
	if err != nil {
		httpx.Error(w, r, statusFor(err), err)
		return
	}
	if categories == nil {
		categories = []*Category{}
	}
	httpx.Respond(w, http.StatusOK, categories)
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCategory(r.Context(), chi.URLParam(r, "idOrSlug"))
	if err == nil && !c.Active {
		err = ErrNotFound
	}
	if err != nil {
		httpx.Error(w, r, statusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusOK, c)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, err)
		return
	}
	c, err := h.service.CreateCategory(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, statusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusCreated, c)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, err)
		return
	}
	c, err := h.service.UpdateCategory(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.Error(w, r, statusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusOK, c)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.Error(w, r, statusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]string{"status": "category deleted"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrProductUnavailable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
