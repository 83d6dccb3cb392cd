package payment

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wyna/storefront/internal/modules/order"
	"github.com/wyna/storefront/internal/platform/httpx"
)

const (
	signatureHeader  = "X-Razorpay-Signature"
	deliveryIDHeader = "X-Razorpay-Event-Id"
	maxWebhookBytes  = 1 << 20
)

// Handler exposes payment HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes mounts checkout and verification under the given middleware
// and the webhook without it; the webhook is authenticated by its signature.
func (h *Handler) RegisterRoutes(r chi.Router, checkout ...func(http.Handler) http.Handler) {
	r.Route("/api/payments", func(r chi.Router) {
		r.With(checkout...).Post("/checkout", h.createCheckout) // POST /api/payments/checkout
		r.With(checkout...).Post("/verify", h.verify)           // POST /api/payments/verify
		r.Post("/webhook", h.webhook)                           // POST /api/payments/webhook
	})
}

// RegisterAdminRoutes mounts the webhook event log.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/payments/events", h.listEvents) // GET /api/admin/payments/events?gateway_order_id=&limit=
}

func (h *Handler) createCheckout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, err)
		return
	}
	c, err := h.service.CreateCheckout(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, statusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusCreated, c)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, err)
		return
	}
	o, err := h.service.VerifyPayment(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, statusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusOK, o)
}

// webhook must see the body exactly as sent, so it is read raw and never
// decoded before the signature check.
func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, errors.New("unreadable body"))
		return
	}
	err = h.service.HandleWebhook(r.Context(), raw, r.Header.Get(signatureHeader), r.Header.Get(deliveryIDHeader))
	if err != nil {
		httpx.Error(w, r, statusFor(err), err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := h.service.ListEvents(r.Context(), r.URL.Query().Get("gateway_order_id"), limit)
	if err != nil {
		httpx.Error(w, r, statusFor(err), err)
		return
	}
	if events == nil {
		events = []*Event{}
	}
	httpx.Respond(w, http.StatusOK, events)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrMissingSignature), errors.Is(err, ErrInvalidSignature), errors.Is(err, ErrInvalidPayload):
		return http.StatusBadRequest
	case errors.Is(err, ErrGateway):
		return http.StatusBadGateway
	case errors.Is(err, ErrNotConfigured):
		return http.StatusInternalServerError
	default:
		return order.StatusFor(err)
	}
}
