package ports

import (
	"context"

	"shopify-insights-layer/internal/domain"
)

// EncryptionService encrypts secrets stored at rest
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// TokenIssuer issues and verifies dashboard session tokens
type TokenIssuer interface {
	Issue(tenant *domain.Tenant) (string, error)
	Parse(token string) (*domain.Principal, error)
}

// PasswordHasher hashes and checks account passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TenantEventPublisher delivers realtime events to a tenant's subscribers.
// Implementations must not block on slow consumers.
type TenantEventPublisher interface {
	PublishTenantEvent(ctx context.Context, event domain.TenantEvent) error
}

// MetricsRecorder records operational counters
type MetricsRecorder interface {
	Reconciled(source domain.ReconcileSource, result string)
	WebhookHandled(topic, outcome string)
	SyncedItems(kind string, n int)
	VendorCall(op string, seconds float64, err error)
}
