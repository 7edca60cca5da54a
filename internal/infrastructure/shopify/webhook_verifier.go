package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"shopify-insights-layer/internal/domain"
)

// WebhookVerifier checks the X-Shopify-Hmac-Sha256 signature of a delivery
type WebhookVerifier struct {
	secret []byte
}

// NewWebhookVerifier creates a verifier for the app's shared secret
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

// Sign returns the base64 HMAC-SHA256 of body
func (v *WebhookVerifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify compares the signature header against the HMAC of the exact raw body.
// The comparison is constant time.
func (v *WebhookVerifier) Verify(body []byte, signature string) error {
	if len(v.secret) == 0 {
		return errors.New("webhook secret not configured")
	}
	if signature == "" {
		return fmt.Errorf("%w: missing signature header", domain.ErrInvalidSignature)
	}
	got, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: signature is not base64", domain.ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return domain.ErrInvalidSignature
	}
	return nil
}
