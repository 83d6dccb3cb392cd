package admin

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/wyna/storefront/internal/platform/httpx"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterAdminRoutes mounts account management under an authenticated router.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/admins", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Patch("/{id}/active", h.setActive)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, err)
		return
	}

	a, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, StatusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusCreated, a)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	admins, err := h.service.List(r.Context())
	if err != nil {
		httpx.Error(w, r, StatusFor(err), err)
		return
	}
	if admins == nil {
		admins = []*Admin{}
	}
	httpx.Respond(w, http.StatusOK, admins)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, r, http.StatusNotFound, ErrNotFound)
		return
	}
	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, StatusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusOK, a)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, r, http.StatusNotFound, ErrNotFound)
		return
	}
	var req struct {
		Active *bool `json:"is_active"`
	}
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, err)
		return
	}
	if req.Active == nil {
		httpx.Error(w, r, http.StatusBadRequest, errors.New("is_active is required"))
		return
	}
	a, err := h.service.SetActive(r.Context(), id, *req.Active)
	if err != nil {
		httpx.Error(w, r, StatusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusOK, a)
}

// StatusFor maps admin errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInactive):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
