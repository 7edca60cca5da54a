package auth

import (
	"testing"
	"time"

	"shopify-insights-layer/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestJWTService() *JWTService {
	return NewJWTService("test-secret-key-at-least-32-chars", 24*time.Hour, "test-issuer")
}

func TestIssueAndParse(t *testing.T) {
	svc := newTestJWTService()
	tenant := &domain.Tenant{ID: "tenant-1", Email: "owner@example.com"}

	token, err := svc.Issue(tenant)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	p, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "tenant-1", p.TenantID)
	assert.Equal(t, "owner@example.com", p.Email)
}

func TestParseExpired(t *testing.T) {
	svc := newTestJWTService()
	svc.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	token, err := svc.Issue(&domain.Tenant{ID: "tenant-1"})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Parse(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestParseRejectsForeignTokens(t *testing.T) {
	svc := newTestJWTService()

	t.Run("other secret", func(t *testing.T) {
		token, err := NewJWTService("another-secret-key-at-least-32ch", time.Hour, "x").Issue(&domain.Tenant{ID: "t"})
		require.NoError(t, err)
		_, err = svc.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Parse("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{ID: "t"})
		s, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.Parse(s)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing id claim", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{Email: "x@example.com"})
		s, err := token.SignedString(svc.secret)
		require.NoError(t, err)
		_, err = svc.Parse(s)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NoError(t, h.Compare(hash, "correct horse"))
	assert.Error(t, h.Compare(hash, "wrong"))
}
