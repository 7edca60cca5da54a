package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownTenant      = errors.New("no tenant linked to shop domain")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrMalformedPayload   = errors.New("malformed payload")
	ErrUnsupportedTopic   = errors.New("unsupported webhook topic")
	ErrStoreNotConnected  = errors.New("shopify store not connected")
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidShopDomain  = errors.New("invalid shop domain")
	ErrShopAlreadyLinked  = errors.New("shop already linked to another account")
	ErrForeignRecord      = errors.New("record belongs to another tenant")
)

// VendorError wraps a failed call to the Shopify API.
// Reauthorize is set when the store rejected the credentials; Retryable when
// the call timed out, was throttled or hit a server error.
type VendorError struct {
	Op          string
	StatusCode  int
	Reauthorize bool
	Retryable   bool
	Err         error
}

func (e *VendorError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("shopify %s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("shopify %s failed: %v", e.Op, e.Err)
}

func (e *VendorError) Unwrap() error {
	return e.Err
}

// NeedsReauthorization reports whether err carries a vendor auth failure
func NeedsReauthorization(err error) bool {
	var ve *VendorError
	return errors.As(err, &ve) && ve.Reauthorize
}

// IsRetryable reports whether err carries a transient vendor failure
func IsRetryable(err error) bool {
	var ve *VendorError
	return errors.As(err, &ve) && ve.Retryable
}
