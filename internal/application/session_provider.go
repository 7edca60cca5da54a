package application

import (
	"fmt"

	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/ports"
)

// SessionProvider builds scoped store sessions from tenant records
type SessionProvider struct {
	encryptionSvc ports.EncryptionService
}

// NewSessionProvider creates a new session provider
func NewSessionProvider(encryptionSvc ports.EncryptionService) *SessionProvider {
	return &SessionProvider{encryptionSvc: encryptionSvc}
}

// Open decrypts the tenant's token into a session for one operation
func (p *SessionProvider) Open(tenant *domain.Tenant) (domain.StoreSession, error) {
	if tenant == nil || !tenant.IsConnected() {
		return domain.StoreSession{}, domain.ErrStoreNotConnected
	}
	token, err := p.encryptionSvc.Decrypt(*tenant.AccessTokenEnc)
	if err != nil {
		return domain.StoreSession{}, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	session := domain.StoreSession{
		TenantID:    tenant.ID,
		ShopDomain:  tenant.Shop(),
		AccessToken: token,
	}
	return session, session.Validate()
}
