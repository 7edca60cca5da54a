package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreSessionValidate(t *testing.T) {
	assert.NoError(t, StoreSession{ShopDomain: "demo.myshopify.com", AccessToken: "shpat_x"}.Validate())
	assert.EqualError(t, StoreSession{AccessToken: "shpat_x"}.Validate(), "shop domain is required")
	assert.EqualError(t, StoreSession{ShopDomain: "demo.myshopify.com"}.Validate(),
		"access token is required for shop demo.myshopify.com")
}

func TestShopDomain(t *testing.T) {
	tests := map[string]struct {
		in    string
		want  string
		valid bool
	}{
		"handle only":     {"Demo", "demo.myshopify.com", true},
		"url with scheme": {"https://demo-2.myshopify.com/", "demo-2.myshopify.com", true},
		"custom domain":   {"shop.example.com", "shop.example.com", false},
		"bad characters":  {"bad domain", "bad domain.myshopify.com", false},
		"empty":           {"  ", "", false},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := NormalizeShopDomain(tc.in)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.valid, IsValidShopDomain(got))
		})
	}
}
