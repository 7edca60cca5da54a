package domain

import "time"

// Tenant is a registered merchant account, the boundary for all stored data
type Tenant struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	ShopDomain     *string    `json:"shop_domain,omitempty"`
	AccessTokenEnc *string    `json:"-"`
	InstalledAt    *time.Time `json:"installed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsConnected reports whether a store is linked. Domain and token are set together.
func (t *Tenant) IsConnected() bool {
	return t.ShopDomain != nil && *t.ShopDomain != "" && t.AccessTokenEnc != nil && *t.AccessTokenEnc != ""
}

// Shop returns the linked shop domain or an empty string
func (t *Tenant) Shop() string {
	if t.ShopDomain == nil {
		return ""
	}
	return *t.ShopDomain
}

// Principal is the authenticated caller extracted from a session token
type Principal struct {
	TenantID string `json:"id"`
	Email    string `json:"email"`
}
