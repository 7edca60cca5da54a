package shopify

import (
	"testing"

	"shopify-insights-layer/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestWebhookVerifier(t *testing.T) {
	v := NewWebhookVerifier("shh")
	body := []byte(`{"id": 1001, "total_price": "10.00"}`)
	sig := v.Sign(body)

	t.Run("valid signature", func(t *testing.T) {
		assert.NoError(t, v.Verify(body, sig))
	})

	t.Run("reserialized body fails", func(t *testing.T) {
		assert.ErrorIs(t, v.Verify([]byte(`{"id":1001,"total_price":"10.00"}`), sig), domain.ErrInvalidSignature)
	})

	t.Run("wrong secret", func(t *testing.T) {
		assert.ErrorIs(t, NewWebhookVerifier("other").Verify(body, sig), domain.ErrInvalidSignature)
	})

	t.Run("missing or garbage header", func(t *testing.T) {
		assert.ErrorIs(t, v.Verify(body, ""), domain.ErrInvalidSignature)
		assert.ErrorIs(t, v.Verify(body, "%%%"), domain.ErrInvalidSignature)
	})

	t.Run("no secret configured", func(t *testing.T) {
		assert.Error(t, NewWebhookVerifier("").Verify(body, sig))
	})
}

func TestClassifyError(t *testing.T) {
	assert.Nil(t, classifyError("op", nil))

	err := classifyError("op", assert.AnError)
	var ve *domain.VendorError
	assert.ErrorAs(t, err, &ve)
	assert.False(t, ve.Reauthorize)
	assert.False(t, ve.Retryable)
}
