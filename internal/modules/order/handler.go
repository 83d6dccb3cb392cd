package order

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wyna/storefront/internal/modules/catalog"
	"github.com/wyna/storefront/internal/modules/inventory"
	"github.com/wyna/storefront/internal/platform/httpx"
)

// Handler exposes order HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes mounts the guest order endpoints.
func (h *Handler) RegisterRoutes(r chi.Router, place ...func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.With(place...).Post("/", h.placeOrder)  // POST /api/orders
		r.Get("/{number}", h.getOrderByNumber)    // GET  /api/orders/{number}
		r.Post("/{number}/cancel", h.cancelGuest) // POST /api/orders/{number}/cancel
	})
}

// RegisterAdminRoutes mounts the back-office order endpoints.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.listOrders)                // GET   /api/admin/orders?status=&payment_status=&search=
		r.Get("/stats", h.stats)                // GET   /api/admin/orders/stats
		r.Get("/{id}", h.getOrder)              // GET   /api/admin/orders/{id}
		r.Patch("/{id}/status", h.updateStatus) // PATCH /api/admin/orders/{id}/status
		r.Post("/{id}/cancel", h.cancelOrder)   // POST  /api/admin/orders/{id}/cancel
	})
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, err)
		return
	}
	o, err := h.service.PlaceOrder(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, StatusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusCreated, o)
}

func (h *Handler) getOrderByNumber(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrderByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		httpx.Error(w, r, StatusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusOK, o)
}

func (h *Handler) cancelGuest(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, err)
		return
	}
	o, err := h.service.CancelByCustomer(r.Context(), chi.URLParam(r, "number"), req)
	if err != nil {
		httpx.Error(w, r, StatusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusOK, o)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := httpx.Page(r, 20)
	orders, total, err := h.service.ListOrders(r.Context(), ListFilter{
		Status:        Status(q.Get("status")),
		PaymentStatus: PaymentStatus(q.Get("payment_status")),
		Search:        q.Get("search"),
		Page:          page,
		Limit:         limit,
	})
	if err != nil {
		httpx.Error(w, r, StatusFor(err), err)
		return
	}
	if orders == nil {
		orders = []*Order{}
	}
	httpx.Respond(w, http.StatusOK, httpx.NewPaginated(orders, page, limit, total))
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Stats(r.Context())
	if err != nil {
		httpx.Error(w, r, StatusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusOK, st)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, r, StatusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusOK, o)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, err)
		return
	}
	o, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.Error(w, r, StatusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusOK, o)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if r.ContentLength != 0 {
		if err := httpx.Decode(w, r, &req); err != nil {
			httpx.Error(w, r, http.StatusBadRequest, err)
			return
		}
	}
	o, err := h.service.CancelOrder(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		httpx.Error(w, r, StatusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusOK, o)
}

// StatusFor maps order lifecycle errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrPaymentVerificationFailed):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidStateTransition), errors.Is(err, catalog.ErrProductUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, inventory.ErrInsufficientStock):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
