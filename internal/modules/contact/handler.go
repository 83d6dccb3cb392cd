package contact

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wyna/storefront/internal/platform/httpx"
)

type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes mounts the public form endpoint behind mw.
func (h *Handler) RegisterRoutes(r chi.Router, mw ...func(http.Handler) http.Handler) {
	r.With(mw...).Post("/api/contact", h.submit)
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/contacts", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Put("/{id}/status", h.updateStatus)
	})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, err)
		return
	}
	if _, err := h.service.Submit(r.Context(), req); err != nil {
		httpx.Error(w, r, statusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Thank you for contacting us. We will get back to you soon.",
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := httpx.Page(r, 20)
	f := Filter{Search: q.Get("search"), Page: page, Limit: limit}
	if s := Status(q.Get("status")); s != "" {
		f.Status = &s
	}
	if c := Category(q.Get("category")); c != "" {
		f.Category = &c
	}
	items, total, err := h.service.List(r.Context(), f)
	if err != nil {
		httpx.Error(w, r, statusFor(err), err)
		return
	}
	if items == nil {
		items = []*Inquiry{}
	}
	httpx.Respond(w, http.StatusOK, httpx.NewPaginated(items, page, limit, total))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	in, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, r, statusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusOK, in)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status Status `json:"status"`
	}
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, err)
		return
	}
	in, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		httpx.Error(w, r, statusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusOK, in)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
