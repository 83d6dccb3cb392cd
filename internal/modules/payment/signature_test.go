package payment_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyna/storefront/internal/modules/payment"
)

const (
	keySecret     = "key_secret_test"
	webhookSecret = "whsec_test"
)

func hexMAC(secret string, msg []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(msg)
	return hex.EncodeToString(mac.Sum(nil))
}

func checkoutSignature(gatewayOrderID, paymentID string) string {
	return hexMAC(keySecret, []byte(gatewayOrderID+"|"+paymentID))
}

func flipLastChar(s string) string {
	b := []byte(s)
	if b[len(b)-1] == '0' {
		b[len(b)-1] = '1'
	} else {
		b[len(b)-1] = '0'
	}
	return string(b)
}

func TestSigner_Verify(t *testing.T) {
	s := payment.NewSigner(payment.Credentials{KeySecret: keySecret})
	sig := checkoutSignature("order_123", "pay_456")

	ok, err := s.Verify("order_123", "pay_456", sig)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Verify("order_123", "pay_456", flipLastChar(sig))
	require.NoError(t, err)
	assert.False(t, ok, "one altered character must fail")

	ok, err = s.Verify("order_999", "pay_456", sig)
	require.NoError(t, err)
	assert.False(t, ok, "signature is bound to the gateway order")

	ok, err = s.Verify("order_123", "pay_456", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSigner_VerifyWithoutSecret(t *testing.T) {
	s := payment.NewSigner(payment.Credentials{})

	_, err := s.Verify("order_123", "pay_456", "abc")
	assert.ErrorIs(t, err, payment.ErrNotConfigured)
	_, err = s.VerifyWebhook([]byte(`{}`), "abc")
	assert.ErrorIs(t, err, payment.ErrNotConfigured)
}

func TestSigner_VerifyWebhookUsesRawBytes(t *testing.T) {
	s := payment.NewSigner(payment.Credentials{WebhookSecret: webhookSecret})
	raw := []byte(`{"event": "order.paid", "payload": {"order": {"entity": {"id": "order_1"}}}}`)
	sig := hexMAC(webhookSecret, raw)

	ok, err := s.VerifyWebhook(raw, sig)
	require.NoError(t, err)
	assert.True(t, ok)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	reencoded, err := json.Marshal(decoded)
	require.NoError(t, err)
	require.NotEqual(t, string(raw), string(reencoded))

	ok, err = s.VerifyWebhook(reencoded, sig)
	require.NoError(t, err)
	assert.False(t, ok, "re-serialised JSON is a different message")

	ok, err = s.VerifyWebhook(raw, flipLastChar(sig))
	require.NoError(t, err)
	assert.False(t, ok)
}
