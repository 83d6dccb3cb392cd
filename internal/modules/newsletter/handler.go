package newsletter

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wyna/storefront/internal/platform/httpx"
)

type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes mounts the public subscribe endpoints behind mw.
func (h *Handler) RegisterRoutes(r chi.Router, mw ...func(http.Handler) http.Handler) {
	r.Route("/api/newsletter", func(r chi.Router) {
		r.Use(mw...)
		r.Post("/subscribe", h.subscribe)
		r.Post("/unsubscribe", h.unsubscribe)
	})
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/subscribers", h.list)
	r.Get("/subscribers/stats", h.stats)
}

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, err)
		return
	}
	if _, err := h.service.Subscribe(r.Context(), req); err != nil {
		httpx.Error(w, r, statusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Successfully subscribed to newsletter",
	})
}

func (h *Handler) unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req UnsubscribeRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, err)
		return
	}
	if err := h.service.Unsubscribe(r.Context(), req); err != nil {
		httpx.Error(w, r, statusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Successfully unsubscribed from newsletter",
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := httpx.Page(r, 20)
	f := Filter{Search: r.URL.Query().Get("search"), Page: page, Limit: limit}
	if v := r.URL.Query().Get("subscribed"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			httpx.Error(w, r, http.StatusBadRequest, errors.New("subscribed must be true or false"))
			return
		}
		f.Active = &active
	}
	subs, total, err := h.service.List(r.Context(), f)
	if err != nil {
		httpx.Error(w, r, statusFor(err), err)
		return
	}
	if subs == nil {
		subs = []*Subscriber{}
	}
	httpx.Respond(w, http.StatusOK, httpx.NewPaginated(subs, page, limit, total))
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Stats(r.Context())
	if err != nil {
		httpx.Error(w, r, statusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusOK, st)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrAlreadySubscribed),
		errors.Is(err, ErrNotSubscribed):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
