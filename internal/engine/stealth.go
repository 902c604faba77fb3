package engine

import (
	"context"
	"net/http"

	stealth "github.com/anatolykoptev/go-stealth"
)

// Re-exported go-stealth helpers for the sources package.
var DefaultRetryConfig = stealth.DefaultRetryConfig

func RandomUserAgent() string { return stealth.RandomUserAgent() }

// RetryHTTP retries fn on transport errors and retryable status codes.
func RetryHTTP(ctx context.Context, rc stealth.RetryConfig, fn func() (*http.Response, error)) (*http.Response, error) {
	return stealth.RetryHTTP(ctx, rc, fn)
}
