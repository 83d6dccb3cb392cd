package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wyna/storefront/internal/modules/admin"
	"github.com/wyna/storefront/internal/platform/httpx"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the public login endpoint behind mw.
func (h *Handler) RegisterRoutes(r chi.Router, mw ...func(http.Handler) http.Handler) {
	r.With(mw...).Post("/api/admin/login", h.login)
}

// RegisterAdminRoutes mounts endpoints that need RequireAdmin in front.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/me", h.me)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.Error(w, r, http.StatusBadRequest, errors.New("email and password are required"))
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Error(w, r, admin.StatusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusOK, session)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	a, ok := AdminFromContext(r.Context())
	if !ok {
		httpx.Error(w, r, http.StatusUnauthorized, ErrUnauthorized)
		return
	}
	httpx.Respond(w, http.StatusOK, a)
}
