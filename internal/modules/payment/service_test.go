package payment_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyna/storefront/internal/modules/catalog"
	"github.com/wyna/storefront/internal/modules/order"
	"github.com/wyna/storefront/internal/modules/payment"
	"github.com/wyna/storefront/internal/platform/memstore"
)

type flow struct {
	store   *memstore.Store
	events  *memstore.EventLog
	orders  order.Service
	gateway *fakeGateway
	svc     payment.Service
	product *catalog.Product
}

func newFlow(t *testing.T) *flow {
	t.Helper()
	fg := newFakeGateway(t)
	creds := fg.creds()
	store := memstore.New()
	events := memstore.NewEventLog()
	cat := catalog.NewService(store)
	signer := payment.NewSigner(creds)
	orders := order.NewService(store, cat, signer, nil, order.Options{Currency: creds.Currency, Provider: "razorpay"})
	svc := payment.NewService(orders, payment.NewRazorpayGateway(creds, fg.Client()), signer, events, creds, nil)

	p, err := cat.CreateProduct(context.Background(), catalog.ProductRequest{
		Name:   "Kanjivaram Silk",
		Price:  decimal.NewFromInt(1000),
		Stock:  5,
		Status: catalog.StatusPublished,
	})
	require.NoError(t, err)
	return &flow{store: store, events: events, orders: orders, gateway: fg, svc: svc, product: p}
}

func (f *flow) stock(t *testing.T) int {
	t.Helper()
	p, err := f.store.GetProduct(context.Background(), f.product.ID)
	require.NoError(t, err)
	return p.Stock
}

func (f *flow) checkout(t *testing.T, qty int) *payment.Checkout {
	t.Helper()
	c, err := f.svc.CreateCheckout(context.Background(), payment.CheckoutRequest{
		Customer: order.CustomerInfo{
			Name:       "Asha Rao",
			Email:      "asha@example.com",
			Phone:      "+91 9876543210",
			Address:    "12 MG Road",
			City:       "Bengaluru",
			PostalCode: "560001",
		},
		Items: []order.ItemRequest{{ProductID: f.product.ID.String(), Quantity: qty}},
	})
	require.NoError(t, err)
	return c
}

func webhook(event, gatewayOrderID, paymentID string) []byte {
	return []byte(fmt.Sprintf(`{"entity":"event","event":%q,"payload":{"payment":{"entity":{"id":%q,"order_id":%q}},"order":{"entity":{"id":%q}}}}`,
		event, paymentID, gatewayOrderID, gatewayOrderID))
}

func TestCheckoutVerifyThenWebhook(t *testing.T) {
	f := newFlow(t)

	c := f.checkout(t, 2)
	assert.Equal(t, int64(200000), c.Amount)
	assert.Equal(t, "INR", c.Currency)
	assert.Equal(t, keyID, c.KeyID)
	assert.Equal(t, "order_GW0001", c.GatewayOrderID)
	assert.Equal(t, "+91 9876543210", c.Customer.Contact)
	assert.Equal(t, c.OrderNumber, f.gateway.last().Receipt)
	assert.Equal(t, c.OrderID.String(), f.gateway.last().Notes["order_id"])
	assert.Equal(t, 5, f.stock(t), "checkout does not reserve stock")

	o, err := f.svc.VerifyPayment(context.Background(), payment.VerifyRequest{
		OrderID:          c.OrderID.String(),
		GatewayOrderID:   c.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		Signature:        checkoutSignature(c.GatewayOrderID, "pay_1"),
	})
	require.NoError(t, err)
	assert.Equal(t, order.PaymentCompleted, o.PaymentStatus)
	assert.Equal(t, order.StatusConfirmed, o.Status)
	assert.Equal(t, 3, f.stock(t))

	raw := webhook(payment.EventOrderPaid, c.GatewayOrderID, "pay_1")
	require.NoError(t, f.svc.HandleWebhook(context.Background(), raw, hexMAC(webhookSecret, raw), "evt_1"))
	assert.Equal(t, 3, f.stock(t), "late webhook is a no-op")

	events, err := f.svc.ListEvents(context.Background(), c.GatewayOrderID, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "evt_1", events[0].DeliveryID)
	assert.Equal(t, payment.OutcomeConfirmed, events[0].Outcome)
}

func TestWebhookBeforeVerify(t *testing.T) {
	f := newFlow(t)
	c := f.checkout(t, 1)

	// payment.captured carries the order id on the payment entity only.
	raw := []byte(fmt.Sprintf(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_9","order_id":%q}}}}`, c.GatewayOrderID))
	require.NoError(t, f.svc.HandleWebhook(context.Background(), raw, hexMAC(webhookSecret, raw), ""))
	assert.Equal(t, 4, f.stock(t))

	o, err := f.svc.VerifyPayment(context.Background(), payment.VerifyRequest{
		OrderID:          c.OrderID.String(),
		GatewayOrderID:   c.GatewayOrderID,
		GatewayPaymentID: "pay_9",
		Signature:        "anything: the order is already paid",
	})
	require.NoError(t, err)
	assert.Equal(t, "pay_9", o.GatewayPaymentID)
	assert.Equal(t, 4, f.stock(t))
}

func TestVerifyPayment_BadSignature(t *testing.T) {
	f := newFlow(t)
	c := f.checkout(t, 1)

	_, err := f.svc.VerifyPayment(context.Background(), payment.VerifyRequest{
		OrderID:          c.OrderID.String(),
		GatewayOrderID:   c.GatewayOrderID,
		GatewayPaymentID: "pay_1",
		Signature:        flipLastChar(checkoutSignature(c.GatewayOrderID, "pay_1")),
	})

	assert.ErrorIs(t, err, order.ErrPaymentVerificationFailed)
	o, err := f.orders.GetOrder(context.Background(), c.OrderID.String())
	require.NoError(t, err)
	assert.Equal(t, order.PaymentFailed, o.PaymentStatus)
	assert.Equal(t, 5, f.stock(t))
}

func TestVerifyPayment_RequiresOrderID(t *testing.T) {
	f := newFlow(t)

	_, err := f.svc.VerifyPayment(context.Background(), payment.VerifyRequest{GatewayOrderID: "order_1"})

	assert.ErrorIs(t, err, order.ErrInvalidInput)
}

func TestHandleWebhook_Rejections(t *testing.T) {
	f := newFlow(t)
	c := f.checkout(t, 1)
	raw := webhook(payment.EventOrderPaid, c.GatewayOrderID, "pay_1")

	err := f.svc.HandleWebhook(context.Background(), raw, "", "")
	assert.ErrorIs(t, err, payment.ErrMissingSignature)

	err = f.svc.HandleWebhook(context.Background(), raw, flipLastChar(hexMAC(webhookSecret, raw)), "")
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)

	garbage := []byte(`not json`)
	err = f.svc.HandleWebhook(context.Background(), garbage, hexMAC(webhookSecret, garbage), "")
	assert.ErrorIs(t, err, payment.ErrInvalidPayload)

	assert.Equal(t, 5, f.stock(t))
	o, err := f.orders.GetOrder(context.Background(), c.OrderID.String())
	require.NoError(t, err)
	assert.Equal(t, order.PaymentPending, o.PaymentStatus)
	events, err := f.svc.ListEvents(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, events, "unauthenticated deliveries are not recorded")
}

func TestHandleWebhook_NoOps(t *testing.T) {
	f := newFlow(t)
	c := f.checkout(t, 1)
	dropped := f.checkout(t, 1)
	_, err := f.orders.CancelOrder(context.Background(), dropped.OrderID.String(), "customer called")
	require.NoError(t, err)

	tests := []struct {
		name    string
		raw     []byte
		outcome string
	}{
		{"unknown order", webhook(payment.EventOrderPaid, "order_NOPE", "pay_1"), payment.OutcomeUnknownOrder},
		{"cancelled order", webhook(payment.EventOrderPaid, dropped.GatewayOrderID, "pay_2"), payment.OutcomeNotPending},
		{"failed payment event", webhook("payment.failed", c.GatewayOrderID, "pay_1"), payment.OutcomeIgnored},
		{"no order reference", []byte(`{"event":"order.paid","payload":{}}`), payment.OutcomeIgnored},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delivery := uuid.NewString()
			require.NoError(t, f.svc.HandleWebhook(context.Background(), tt.raw, hexMAC(webhookSecret, tt.raw), delivery))

			events, err := f.svc.ListEvents(context.Background(), "", 0)
			require.NoError(t, err)
			require.NotEmpty(t, events)
			assert.Equal(t, delivery, events[0].DeliveryID)
			assert.Equal(t, tt.outcome, events[0].Outcome)
		})
	}
	assert.Equal(t, 5, f.stock(t))
	still, err := f.orders.GetOrder(context.Background(), dropped.OrderID.String())
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, still.Status)
}

func TestCreateCheckout_GatewayFailureKeepsPendingOrder(t *testing.T) {
	f := newFlow(t)
	f.gateway.fail.Store(true)

	_, err := f.svc.CreateCheckout(context.Background(), payment.CheckoutRequest{
		Customer: order.CustomerInfo{
			Name: "Asha Rao", Email: "asha@example.com", Phone: "9876543210",
			Address: "12 MG Road", City: "Bengaluru", PostalCode: "560001",
		},
		Items: []order.ItemRequest{{ProductID: f.product.ID.String(), Quantity: 1}},
	})

	assert.ErrorIs(t, err, payment.ErrGateway)
	list, total, err := f.orders.ListOrders(context.Background(), order.ListFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, order.StatusPending, list[0].Status)
	assert.Empty(t, list[0].GatewayOrderID)
	assert.Equal(t, 5, f.stock(t))
}

func TestCreateCheckout_NotConfigured(t *testing.T) {
	store := memstore.New()
	orders := order.NewService(store, catalog.NewService(store), payment.NewSigner(payment.Credentials{}), nil, order.Options{})
	svc := payment.NewService(orders, payment.NewRazorpayGateway(payment.Credentials{}, nil), payment.NewSigner(payment.Credentials{}), nil, payment.Credentials{}, nil)

	_, err := svc.CreateCheckout(context.Background(), payment.CheckoutRequest{})

	assert.ErrorIs(t, err, payment.ErrNotConfigured)
	_, total, err := orders.ListOrders(context.Background(), order.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateCheckout_InvalidCart(t *testing.T) {
	f := newFlow(t)

	_, err := f.svc.CreateCheckout(context.Background(), payment.CheckoutRequest{
		Customer: order.CustomerInfo{
			Name: "Asha Rao", Email: "asha@example.com", Phone: "9876543210",
			Address: "12 MG Road", City: "Bengaluru", PostalCode: "560001",
		},
		Items: []order.ItemRequest{{ProductID: f.product.ID.String(), Quantity: 6}},
	})

	assert.Error(t, err)
	assert.Zero(t, f.gateway.calls.Load())
}
