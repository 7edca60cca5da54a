package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shopify-insights-layer/internal/domain"
	"shopify-insights-layer/internal/ports"

	"github.com/rs/zerolog"
)

// TenantService handles accounts and store linking
type TenantService struct {
	tenants       ports.TenantRepository
	hasher        ports.PasswordHasher
	tokens        ports.TokenIssuer
	encryptionSvc ports.EncryptionService
	client        ports.ShopifyClient
	logger        zerolog.Logger
	callTimeout   time.Duration
	now           func() time.Time
}

// NewTenantService creates a new tenant service
func NewTenantService(
	tenants ports.TenantRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	encryptionSvc ports.EncryptionService,
	client ports.ShopifyClient,
	logger zerolog.Logger,
	callTimeout time.Duration,
) *TenantService {
	return &TenantService{
		tenants:       tenants,
		hasher:        hasher,
		tokens:        tokens,
		encryptionSvc: encryptionSvc,
		client:        client,
		logger:        logger,
		callTimeout:   callTimeout,
		now:           time.Now,
	}
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	Token  string         `json:"token"`
	Tenant *domain.Tenant `json:"user"`
}

// Register creates an unlinked tenant and signs it in.
// Email format and password length are checked by the HTTP layer.
func (s *TenantService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrMalformedPayload)
	}

	existing, err := s.tenants.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	tenant := &domain.Tenant{Email: email, PasswordHash: hash}
	if err := s.tenants.Create(ctx, tenant); err != nil {
		return nil, err
	}

	s.logger.Info().Str("tenantId", tenant.ID).Msg("Tenant registered")
	return s.signIn(tenant)
}

// Login checks credentials and issues a session token
func (s *TenantService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	tenant, err := s.tenants.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(tenant.PasswordHash, password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return s.signIn(tenant)
}

func (s *TenantService) signIn(tenant *domain.Tenant) (*AuthResult, error) {
	token, err := s.tokens.Issue(tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResult{Token: token, Tenant: tenant}, nil
}

// Get returns the tenant or ErrTenantNotFound
func (s *TenantService) Get(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, domain.ErrTenantNotFound
	}
	return tenant, nil
}

// ConnectStore links a shop and its Admin API token to the tenant.
// The token is checked against the store before it is encrypted and saved.
func (s *TenantService) ConnectStore(ctx context.Context, tenantID, shopDomain, accessToken string) (*domain.Tenant, error) {
	shop := domain.NormalizeShopDomain(shopDomain)
	if !domain.IsValidShopDomain(shop) {
		return nil, domain.ErrInvalidShopDomain
	}
	if strings.TrimSpace(accessToken) == "" {
		return nil, fmt.Errorf("%w: access token is required", domain.ErrMalformedPayload)
	}

	tenant, err := s.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	owner, err := s.tenants.GetByShopDomain(ctx, shop)
	if err != nil {
		return nil, err
	}
	if owner != nil && owner.ID != tenant.ID {
		return nil, domain.ErrShopAlreadyLinked
	}

	session := domain.StoreSession{TenantID: tenant.ID, ShopDomain: shop, AccessToken: accessToken}
	if err := s.validateAccessToken(ctx, session); err != nil {
		return nil, err
	}

	enc, err := s.encryptionSvc.Encrypt(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}
	if err := s.tenants.LinkStore(ctx, tenant.ID, shop, enc, s.now()); err != nil {
		return nil, err
	}

	s.logger.Info().Str("tenantId", tenant.ID).Str("shop", shop).Msg("Store linked")
	return s.Get(ctx, tenant.ID)
}

// validateAccessToken makes a lightweight shop lookup. Only an explicit
// rejection by the store fails; network trouble is logged and tolerated.
func (s *TenantService) validateAccessToken(ctx context.Context, session domain.StoreSession) error {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	_, err := s.client.GetShop(callCtx, session)
	if err == nil {
		return nil
	}
	if domain.NeedsReauthorization(err) {
		return fmt.Errorf("token validation failed: token is invalid or revoked: %w", err)
	}
	s.logger.Warn().
		Err(err).
		Str("shop", session.ShopDomain).
		Msg("Token validation encountered non-auth error (assuming token is valid)")
	return nil
}

// DisconnectStore clears the tenant's link
func (s *TenantService) DisconnectStore(ctx context.Context, tenantID string) error {
	if err := s.tenants.UnlinkStore(ctx, tenantID); err != nil {
		return err
	}
	s.logger.Info().Str("tenantId", tenantID).Msg("Store unlinked")
	return nil
}

// DisconnectShop clears the link for whichever tenant owns the shop
func (s *TenantService) DisconnectShop(ctx context.Context, shopDomain string) error {
	tenant, err := s.tenants.GetByShopDomain(ctx, domain.NormalizeShopDomain(shopDomain))
	if err != nil {
		return err
	}
	if tenant == nil {
		return domain.ErrUnknownTenant
	}
	if err := s.DisconnectStore(ctx, tenant.ID); err != nil && !errors.Is(err, domain.ErrTenantNotFound) {
		return err
	}
	return nil
}
