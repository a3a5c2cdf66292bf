package crawler

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FetchError is returned by Fetcher implementations when a URL could not be
// retrieved. StatusCode is zero when the failure happened below HTTP.
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch failed with status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ErrorCategory names the failure class recorded in a failure record's
// metadata. Categories are stable strings, not free-form error text.
func ErrorCategory(err error) string {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) && fetchErr.StatusCode > 0 {
		return "http_status"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "dns"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "timeout"
		}
		return "connection"
	}
	return "fetch_error"
}

// StatusCodeOf extracts the HTTP status carried by err, if any.
func StatusCodeOf(err error) (int, bool) {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) && fetchErr.StatusCode > 0 {
		return fetchErr.StatusCode, true
	}
	return 0, false
}
