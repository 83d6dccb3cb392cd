package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Gateway creates gateway-side orders that a payment is later captured against.
type Gateway interface {
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error)
}

type GatewayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// ── Razorpay ──────────────────────────────────────────────────────────────────

type razorpayGateway struct {
	creds  Credentials
	client *http.Client
}

// NewRazorpayGateway returns a Gateway backed by the Razorpay orders API. A
// nil client gets a 10s timeout.
func NewRazorpayGateway(creds Credentials, client *http.Client) Gateway {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if creds.BaseURL == "" {
		creds.BaseURL = "https://api.razorpay.com"
	}
	return &razorpayGateway{creds: creds, client: client}
}

func (g *razorpayGateway) CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error) {
	if !g.creds.configured() {
		return nil, ErrNotConfigured
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	url := strings.TrimRight(g.creds.BaseURL, "/") + "/v1/orders"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(g.creds.KeyID, g.creds.KeySecret)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrGateway, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %s (status %d)", ErrGateway, describeError(raw), resp.StatusCode)
	}
	var out GatewayOrder
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode order: %v", ErrGateway, err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: response has no order id", ErrGateway)
	}
	return &out, nil
}

// describeError pulls the human-readable reason out of an API error body.
func describeError(raw []byte) string {
	var e struct {
		Error struct {
			Code        string `json:"code"`
			Description string `json:"description"`
			Reason      string `json:"reason"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &e) == nil {
		switch {
		case e.Error.Description != "":
			return e.Error.Description
		case e.Error.Reason != "":
			return e.Error.Reason
		case e.Error.Code != "":
			return e.Error.Code
		}
	}
	return "unexpected response"
}
