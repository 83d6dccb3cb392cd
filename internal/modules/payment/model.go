package payment

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wyna/storefront/internal/modules/order"
)

var (
	// ErrNotConfigured means a gateway key or secret is missing.
	ErrNotConfigured    = errors.New("payment gateway not configured")
	ErrGateway          = errors.New("payment gateway error")
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
)

// Credentials are the gateway keys. They are passed in explicitly rather than
// read from the environment at call time.
type Credentials struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	BaseURL       string
	Currency      string
}

func (c Credentials) configured() bool { return c.KeyID != "" && c.KeySecret != "" }

// Webhook events that mean money has been captured for a gateway order.
const (
	EventOrderPaid       = "order.paid"
	EventPaymentCaptured = "payment.captured"
)

// Webhook outcomes, used for the event log and metrics. Confirmed covers
// deliveries for orders that were already paid. NotPending is a capture for
// an order that can no longer be confirmed, e.g. one cancelled meanwhile; the
// money has to be refunded by hand.
const (
	OutcomeConfirmed    = "confirmed"
	OutcomeIgnored      = "ignored"
	OutcomeUnknownOrder = "unknown_order"
	OutcomeNotPending   = "not_pending"
	OutcomeFailed       = "failed"
)

// CheckoutRequest is the storefront checkout form for an online payment.
type CheckoutRequest struct {
	Customer order.CustomerInfo  `json:"customer"`
	Items    []order.ItemRequest `json:"items"`
	Notes    string              `json:"notes,omitempty"`
}

type CheckoutCustomer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// Checkout is what the client needs to open the gateway's payment form.
type Checkout struct {
	OrderID        uuid.UUID        `json:"order_id"`
	OrderNumber    string           `json:"order_number"`
	Amount         int64            `json:"amount"`
	Currency       string           `json:"currency"`
	GatewayOrderID string           `json:"razorpay_order_id"`
	KeyID          string           `json:"key_id"`
	Customer       CheckoutCustomer `json:"customer"`
}

// VerifyRequest carries the fields the gateway's checkout hands back to the
// browser after a successful payment.
type VerifyRequest struct {
	OrderID          string `json:"order_id"`
	GatewayOrderID   string `json:"razorpay_order_id"`
	GatewayPaymentID string `json:"razorpay_payment_id"`
	Signature        string `json:"razorpay_signature"`
}

func (r VerifyRequest) proof() order.PaymentProof {
	return order.PaymentProof{
		GatewayOrderID:   r.GatewayOrderID,
		GatewayPaymentID: r.GatewayPaymentID,
		Signature:        r.Signature,
	}
}

// Event is one verified webhook delivery.
type Event struct {
	ID               uuid.UUID       `json:"id"`
	DeliveryID       string          `json:"delivery_id,omitempty"`
	Type             string          `json:"event_type"`
	GatewayOrderID   string          `json:"gateway_order_id,omitempty"`
	GatewayPaymentID string          `json:"gateway_payment_id,omitempty"`
	Outcome          string          `json:"outcome"`
	Payload          json.RawMessage `json:"payload"`
	ReceivedAt       time.Time       `json:"received_at"`
}

// webhookBody is the part of the gateway's webhook envelope we read.
type webhookBody struct {
	Event   string `json:"event"`
	Payload struct {
		Order struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"order"`
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func (b webhookBody) gatewayOrderID() string {
	if id := b.Payload.Order.Entity.ID; id != "" {
		return id
	}
	return b.Payload.Payment.Entity.OrderID
}
