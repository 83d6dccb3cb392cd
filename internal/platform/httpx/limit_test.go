package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientLimiter_PerClientBuckets(t *testing.T) {
	l := NewClientLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "other clients have their own bucket")

	now = now.Add(30 * time.Second)
	assert.True(t, l.Allow("10.0.0.1"), "one token refills every window/n")
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestClientLimiter_ForgetsIdleClients(t *testing.T) {
	l := NewClientLimiter(1, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("10.0.0.1")
	now = now.Add(3 * time.Minute)
	l.Allow("10.0.0.2")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.clients, "10.0.0.1")
	assert.Contains(t, l.clients, "10.0.0.2")
}

func TestClientLimiter_SweepsOncePerTTL(t *testing.T) {
	l := NewClientLimiter(1, time.Minute)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	l.now = func() time.Time { return now }

	l.Allow("10.0.0.1")
	now = start.Add(60 * time.Second)
	l.Allow("10.0.0.2")
	assert.Equal(t, start, l.lastSweep, "no sweep before ttl has passed")

	now = start.Add(130 * time.Second)
	l.Allow("10.0.0.3")
	assert.Equal(t, now, l.lastSweep)
	assert.NotContains(t, l.clients, "10.0.0.1")
	assert.Contains(t, l.clients, "10.0.0.2")

	now = start.Add(200 * time.Second)
	l.Allow("10.0.0.3")
	assert.Contains(t, l.clients, "10.0.0.2", "idle past ttl but swept too recently to look again")

	now = start.Add(260 * time.Second)
	l.Allow("10.0.0.3")
	assert.NotContains(t, l.clients, "10.0.0.2")
	assert.Contains(t, l.clients, "10.0.0.3")
}

func TestRateLimit_Returns429(t *testing.T) {
	l := NewClientLimiter(1, time.Hour)
	h := RateLimit(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/newsletter/subscribe", nil)
	req.RemoteAddr = "192.0.2.7:5123"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"too many requests, please try again later"}`, rec.Body.String())
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	h := CORS("http://localhost:3000, https://shop.example.com")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
