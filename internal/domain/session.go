package domain

import (
	"errors"
	"fmt"
	"strings"
)

// StoreSession carries the credentials for outgoing calls to one linked store.
// It is built per operation from the tenant record and never cached globally.
type StoreSession struct {
	TenantID    string `json:"tenant_id"`
	ShopDomain  string `json:"shop_domain"`
	AccessToken string `json:"-"`
}

// Validate checks the session can be used for a vendor call
func (s StoreSession) Validate() error {
	if s.ShopDomain == "" {
		return errors.New("shop domain is required")
	}
	if s.AccessToken == "" {
		return fmt.Errorf("access token is required for shop %s", s.ShopDomain)
	}
	return nil
}

// NormalizeShopDomain lowercases the domain, strips a scheme or trailing slash and
// appends .myshopify.com when only the shop handle is given.
func NormalizeShopDomain(shop string) string {
	shop = strings.ToLower(strings.TrimSpace(shop))
	shop = strings.TrimPrefix(shop, "https://")
	shop = strings.TrimPrefix(shop, "http://")
	shop = strings.TrimSuffix(shop, "/")
	if shop != "" && !strings.Contains(shop, ".") {
		shop += ".myshopify.com"
	}
	return shop
}

// IsValidShopDomain reports whether shop looks like a *.myshopify.com host
func IsValidShopDomain(shop string) bool {
	const suffix = ".myshopify.com"
	if !strings.HasSuffix(shop, suffix) {
		return false
	}
	handle := strings.TrimSuffix(shop, suffix)
	if handle == "" || strings.HasPrefix(handle, "-") {
		return false
	}
	for _, r := range handle {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return false
		}
	}
	return true
}
