package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wyna/storefront/internal/modules/order"
	"github.com/wyna/storefront/internal/platform/logging"
	"github.com/wyna/storefront/internal/platform/metrics"
	"go.uber.org/zap"
)

// Orders is the slice of the order lifecycle the payment flow drives.
type Orders interface {
	PlaceOrder(ctx context.Context, req order.PlaceOrderRequest) (*order.Order, error)
	AttachGatewayOrder(ctx context.Context, id uuid.UUID, gatewayOrderID string) error
	ConfirmPayment(ctx context.Context, id string, proof order.PaymentProof) (*order.Order, error)
	ConfirmFromWebhook(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (*order.Order, error)
}

// Service defines the online payment flow.
type Service interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	VerifyPayment(ctx context.Context, req VerifyRequest) (*order.Order, error)
	HandleWebhook(ctx context.Context, rawBody []byte, signature, deliveryID string) error
	ListEvents(ctx context.Context, gatewayOrderID string, limit int) ([]*Event, error)
}

type service struct {
	orders  Orders
	gateway Gateway
	signer  *Signer
	events  EventLog
	creds   Credentials
	metrics *metrics.Metrics
}

// NewService wires the payment flow. events may be nil.
func NewService(orders Orders, gateway Gateway, signer *Signer, events EventLog, creds Credentials, m *metrics.Metrics) Service {
	if m == nil {
		m = metrics.Nop()
	}
	return &service{orders: orders, gateway: gateway, signer: signer, events: events, creds: creds, metrics: m}
}

func (s *service) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	if !s.creds.configured() {
		return nil, ErrNotConfigured
	}
	o, err := s.orders.PlaceOrder(ctx, order.PlaceOrderRequest{
		Customer:      req.Customer,
		Items:         req.Items,
		PaymentMethod: order.MethodOnline,
		Notes:         req.Notes,
	})
	if err != nil {
		return nil, err
	}

	gw, err := s.gateway.CreateOrder(ctx, GatewayOrderRequest{
		Amount:   o.AmountMinor(),
		Currency: o.Currency,
		Receipt:  o.OrderNumber,
		Notes: map[string]string{
			"order_id":     o.ID.String(),
			"order_number": o.OrderNumber,
		},
	})
	if err != nil {
		// The pending order stays; it never touched stock.
		logging.FromContext(ctx).Error("gateway_order_failed",
			zap.String("order_number", o.OrderNumber), zap.Error(err))
		return nil, err
	}
	if err := s.orders.AttachGatewayOrder(ctx, o.ID, gw.ID); err != nil {
		return nil, fmt.Errorf("attach gateway order: %w", err)
	}

	return &Checkout{
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		Amount:         gw.Amount,
		Currency:       gw.Currency,
		GatewayOrderID: gw.ID,
		KeyID:          s.creds.KeyID,
		Customer: CheckoutCustomer{
			Name:    o.CustomerName,
			Email:   o.CustomerEmail,
			Contact: o.CustomerPhone,
		},
	}, nil
}

func (s *service) VerifyPayment(ctx context.Context, req VerifyRequest) (*order.Order, error) {
	if req.OrderID == "" {
		return nil, fmt.Errorf("%w: order_id is required", order.ErrInvalidInput)
	}
	return s.orders.ConfirmPayment(ctx, req.OrderID, req.proof())
}

// HandleWebhook authenticates a delivery and confirms the referenced order.
// Deliveries for events we don't act on, for orders we don't know, or for
// orders no longer pending succeed so the gateway stops retrying them.
func (s *service) HandleWebhook(ctx context.Context, rawBody []byte, signature, deliveryID string) error {
	logger := logging.FromContext(ctx)

	if signature == "" {
		s.metrics.WebhookEvents.WithLabelValues("rejected").Inc()
		return ErrMissingSignature
	}
	ok, err := s.signer.VerifyWebhook(rawBody, signature)
	if err != nil {
		return err
	}
	if !ok {
		s.metrics.WebhookEvents.WithLabelValues("rejected").Inc()
		logger.Warn("webhook_signature_mismatch", zap.String("delivery_id", deliveryID))
		return ErrInvalidSignature
	}

	var body webhookBody
	if err := json.Unmarshal(rawBody, &body); err != nil {
		s.metrics.WebhookEvents.WithLabelValues("rejected").Inc()
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	ev := &Event{
		ID:               uuid.New(),
		DeliveryID:       deliveryID,
		Type:             body.Event,
		GatewayOrderID:   body.gatewayOrderID(),
		GatewayPaymentID: body.Payload.Payment.Entity.ID,
		Payload:          json.RawMessage(rawBody),
	}

	ev.Outcome, err = s.apply(ctx, ev)
	s.metrics.WebhookEvents.WithLabelValues(ev.Outcome).Inc()
	s.record(ctx, ev)
	logger.Info("webhook_processed",
		zap.String("event", ev.Type),
		zap.String("gateway_order_id", ev.GatewayOrderID),
		zap.String("outcome", ev.Outcome),
	)
	return err
}

func (s *service) apply(ctx context.Context, ev *Event) (string, error) {
	if ev.Type != EventOrderPaid && ev.Type != EventPaymentCaptured {
		return OutcomeIgnored, nil
	}
	if ev.GatewayOrderID == "" {
		return OutcomeIgnored, nil
	}
	_, err := s.orders.ConfirmFromWebhook(ctx, ev.GatewayOrderID, ev.GatewayPaymentID)
	switch {
	case errors.Is(err, order.ErrNotFound):
		return OutcomeUnknownOrder, nil
	case errors.Is(err, order.ErrInvalidStateTransition):
		// Retrying can't change the order's state; acknowledge and flag it.
		logging.FromContext(ctx).Warn("payment_captured_for_closed_order",
			zap.String("gateway_order_id", ev.GatewayOrderID),
			zap.String("gateway_payment_id", ev.GatewayPaymentID),
			zap.Bool("refund_due", true),
			zap.Error(err),
		)
		return OutcomeNotPending, nil
	case err != nil:
		return OutcomeFailed, err
	}
	return OutcomeConfirmed, nil
}

func (s *service) record(ctx context.Context, ev *Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Record(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn("payment_event_not_recorded",
			zap.String("delivery_id", ev.DeliveryID), zap.Error(err))
	}
}

func (s *service) ListEvents(ctx context.Context, gatewayOrderID string, limit int) ([]*Event, error) {
	if s.events == nil {
		return []*Event{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.events.List(ctx, gatewayOrderID, limit)
}
