package payment_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyna/storefront/internal/modules/payment"
)

func TestHandler_Webhook(t *testing.T) {
	f := newFlow(t)
	c := f.checkout(t, 1)
	r := chi.NewRouter()
	payment.NewHandler(f.svc).RegisterRoutes(r)

	raw := webhook(payment.EventOrderPaid, c.GatewayOrderID, "pay_1")
	post := func(sig string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(raw))
		if sig != "" {
			req.Header.Set("X-Razorpay-Signature", sig)
		}
		req.Header.Set("X-Razorpay-Event-Id", "evt_http")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := post("")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post("deadbeef")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid signature"}`, rec.Body.String())

	rec = post(hexMAC(webhookSecret, raw))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.Equal(t, 4, f.stock(t))
}

func TestHandler_CheckoutAndVerify(t *testing.T) {
	f := newFlow(t)
	r := chi.NewRouter()
	payment.NewHandler(f.svc).RegisterRoutes(r)

	body := `{"customer":{"name":"Asha Rao","email":"asha@example.com","phone":"9876543210",
		"address":"12 MG Road","city":"Bengaluru","postal_code":"560001"},
		"items":[{"product_id":"` + f.product.ID.String() + `","quantity":2}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/checkout", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"amount":200000`)
	assert.Contains(t, rec.Body.String(), `"razorpay_order_id":"order_GW0001"`)

	req = httptest.NewRequest(http.MethodPost, "/api/payments/verify", bytes.NewBufferString(
		`{"order_id":"not-a-uuid","razorpay_order_id":"order_GW0001","razorpay_payment_id":"pay_1","razorpay_signature":"x"}`))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_GatewayDownIsBadGateway(t *testing.T) {
	f := newFlow(t)
	f.gateway.fail.Store(true)
	r := chi.NewRouter()
	payment.NewHandler(f.svc).RegisterRoutes(r)

	body := `{"customer":{"name":"Asha Rao","email":"asha@example.com","phone":"9876543210",
		"address":"12 MG Road","city":"Bengaluru","postal_code":"560001"},
		"items":[{"product_id":"` + f.product.ID.String() + `"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/checkout", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"bad gateway"}`, rec.Body.String())
}
