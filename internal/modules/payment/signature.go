package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Signer checks gateway signatures. It implements order.Verifier.
type Signer struct {
	keySecret     string
	webhookSecret string
}

func NewSigner(creds Credentials) *Signer {
	return &Signer{keySecret: creds.KeySecret, webhookSecret: creds.WebhookSecret}
}

// Verify checks the checkout signature: hex HMAC-SHA256 of
// "<gateway order id>|<gateway payment id>" under the key secret.
func (s *Signer) Verify(gatewayOrderID, gatewayPaymentID, signature string) (bool, error) {
	if s.keySecret == "" {
		return false, ErrNotConfigured
	}
	return equal(sign(s.keySecret, []byte(gatewayOrderID+"|"+gatewayPaymentID)), signature), nil
}

// VerifyWebhook checks a webhook signature over the exact bytes received.
// Re-encoding the JSON before this call breaks the signature.
func (s *Signer) VerifyWebhook(rawBody []byte, signature string) (bool, error) {
	if s.webhookSecret == "" {
		return false, ErrNotConfigured
	}
	return equal(sign(s.webhookSecret, rawBody), signature), nil
}

func sign(secret string, msg []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(msg)
	return hex.EncodeToString(mac.Sum(nil))
}

func equal(expected, got string) bool {
	return hmac.Equal([]byte(expected), []byte(got))
}
