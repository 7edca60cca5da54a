package shopify

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"shopify-insights-layer/internal/domain"

	goshopify "github.com/bold-commerce/go-shopify/v4"
)

// authMarkers appear in go-shopify error messages when the store rejects the token
var authMarkers = []string{"401", "403", "unauthorized", "forbidden", "invalid api key", "invalid token", "access token"}

// classifyError wraps a go-shopify error into a VendorError with
// reauthorize and retryable flags set from the HTTP status.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	ve := &domain.VendorError{Op: op, StatusCode: statusOf(err), Err: err}

	switch {
	case ve.StatusCode == http.StatusUnauthorized || ve.StatusCode == http.StatusForbidden:
		ve.Reauthorize = true
	case ve.StatusCode == http.StatusTooManyRequests || ve.StatusCode >= http.StatusInternalServerError:
		ve.Retryable = true
	case errors.Is(err, context.DeadlineExceeded):
		ve.Retryable = true
	case errors.Is(err, context.Canceled):
		// caller gave up, neither flag applies
	case ve.StatusCode == 0 && containsAny(strings.ToLower(err.Error()), authMarkers):
		ve.Reauthorize = true
	case ve.StatusCode == 0 && isNetworkError(err):
		ve.Retryable = true
	}
	return ve
}

func statusOf(err error) int {
	var rateLimited goshopify.RateLimitError
	if errors.As(err, &rateLimited) {
		return http.StatusTooManyRequests
	}
	var rateLimitedPtr *goshopify.RateLimitError
	if errors.As(err, &rateLimitedPtr) {
		return http.StatusTooManyRequests
	}
	var resp goshopify.ResponseError
	if errors.As(err, &resp) {
		return resp.Status
	}
	var respPtr *goshopify.ResponseError
	if errors.As(err, &respPtr) {
		return respPtr.Status
	}
	return 0
}

func isNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
