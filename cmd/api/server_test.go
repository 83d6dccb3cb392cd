package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyna/storefront/internal/config"
	"github.com/wyna/storefront/internal/modules/admin"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:        "0",
		Env:         "test",
		ServiceName: "storefront",
		ClientURL:   "http://localhost:3000",
		StoreDriver: "memory",
		JWTSecret:   "test-secret",
		RateLimit:   3,
		Gateway:     config.GatewayConfig{Currency: "INR"},
	}
}

func newTestApp(t *testing.T) (*app, stores) {
	t.Helper()
	st := memoryStores()
	reg := prometheus.NewRegistry()
	a := newApp(context.Background(), testConfig(), st, zap.NewNop(), reg, reg)
	t.Cleanup(a.close)
	return a, st
}

func serveJSON(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	a, _ := newTestApp(t)

	rec := serveJSON(a.handler, http.MethodGet, "/api/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"storefront","store":"memory"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = serveJSON(a.handler, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestAdminRoutesNeedToken(t *testing.T) {
	a, _ := newTestApp(t)

	for _, path := range []string{"/api/admin/orders/", "/api/admin/products/", "/api/admin/subscribers", "/api/admin/me"} {
		rec := serveJSON(a.handler, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestAdminLoginThenCatalogAndOrders(t *testing.T) {
	a, st := newTestApp(t)
	_, err := admin.NewService(st.admins).Create(context.Background(), admin.CreateRequest{
		Name: "Owner", Email: "owner@wyna.in", Password: "s3cret!",
	})
	require.NoError(t, err)

	rec := serveJSON(a.handler, http.MethodPost, "/api/admin/login", "", `{"email":"owner@wyna.in","password":"s3cret!"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	require.NotEmpty(t, session.Token)

	rec = serveJSON(a.handler, http.MethodPost, "/api/admin/products/", session.Token,
		`{"name":"Kanjivaram Silk","price":"1500","stock":4,"status":"published"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var product struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &product))

	rec = serveJSON(a.handler, http.MethodGet, "/api/products", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Kanjivaram Silk")

	rec = serveJSON(a.handler, http.MethodGet, "/api/admin/orders/stats", session.Token, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serveJSON(a.handler, http.MethodGet, "/api/admin/payments/events", session.Token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPublicFormsAreRateLimited(t *testing.T) {
	a, _ := newTestApp(t)

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		rec := serveJSON(a.handler, http.MethodPost, "/api/newsletter/subscribe", "", `{"email":"bad"}`)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{400, 400, 400, 429}, codes)

	// Reads are not limited.
	rec := serveJSON(a.handler, http.MethodGet, "/api/products", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckoutWithoutGatewayCredentials(t *testing.T) {
	a, _ := newTestApp(t)

	rec := serveJSON(a.handler, http.MethodPost, "/api/payments/checkout", "", `{"customer":{},"items":[]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}
