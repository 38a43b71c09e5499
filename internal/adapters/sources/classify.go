package sources

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	apperrors "github.com/carelocate/waitline/pkg/errors"
)

// classifyTransportError maps a transport-level failure onto the fetch error
// taxonomy. Timeouts are distinguished from other connectivity failures but
// both count as circuit-breaker failures downstream.
func classifyTransportError(source string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError(source+" fetch timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.NewTimeoutError(source+" fetch timed out", err)
	}
	return apperrors.NewNetworkError(source+" fetch failed", err)
}

// classifyStatus maps a non-2xx HTTP status onto the fetch error taxonomy.
func classifyStatus(source string, statusCode int) error {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return apperrors.NewRateLimitedError(source + " provider rate limited the request")
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return apperrors.NewAuthError(source + " provider rejected credentials")
	default:
		return apperrors.NewNetworkError(source+" provider returned an error status", fmt.Errorf("status %d", statusCode))
	}
}
